// Package mqtt implements the MQTT transport for krishisahayak.
//
// The farmer's device and the daemon share a topic tree rooted at
// <prefix>/<farmer id>:
//
//	transcript  device -> daemon  final transcript text
//	command     device -> daemon  start | confirm | reject | retry | lang:<code>
//	state       daemon -> device  session snapshot JSON (retained)
//	speech      daemon -> device  tts.Utterance JSON
//
// The transport is also a tts.Sink, so spoken confirmations reach the device
// on the speech topic.
package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/hasti-ptl/Krishisahayk/internal/config"
	"github.com/hasti-ptl/Krishisahayk/internal/session"
	"github.com/hasti-ptl/Krishisahayk/internal/transport"
	"github.com/hasti-ptl/Krishisahayk/internal/tts"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
	handleTimeout  = time.Minute
)

// ErrNotConnected is returned when publishing before Listen has connected.
var ErrNotConnected = errors.New("mqtt client not connected")

// publisher is the part of paho.Client used for outbound messages.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

// Topics names the topic tree of one farmer.
type Topics struct {
	Transcript string
	Command    string
	State      string
	Speech     string
}

// TopicsFor returns the topics rooted at prefix/farmerID.
func TopicsFor(prefix string, farmerID int64) Topics {
	base := fmt.Sprintf("%s/%d", strings.TrimSuffix(prefix, "/"), farmerID)
	return Topics{
		Transcript: base + "/transcript",
		Command:    base + "/command",
		State:      base + "/state",
		Speech:     base + "/speech",
	}
}

// Transport implements transport.Transport over MQTT.
type Transport struct {
	cfg    config.MQTTConfig
	topics Topics
	logger *slog.Logger

	mu     sync.Mutex
	client paho.Client
	pub    publisher
}

// New creates a new MQTT transport for farmerID.
func New(cfg config.MQTTConfig, farmerID int64, logger *slog.Logger) *Transport {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "krishisahayak-" + uuid.NewString()[:8]
	}
	return &Transport{
		cfg:    cfg,
		topics: TopicsFor(cfg.TopicPrefix, farmerID),
		logger: logger.With("transport", "mqtt"),
	}
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "mqtt" }

// Topics returns the farmer's topic tree.
func (t *Transport) Topics() Topics { return t.topics }

// Listen connects to the broker, subscribes to the inbound topics and
// publishes every session snapshot. It blocks until the context is cancelled.
func (t *Transport) Listen(ctx context.Context, svc transport.Service) error {
	opts := paho.NewClientOptions().
		AddBroker(t.cfg.Broker).
		SetClientID(t.cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectTimeout(connectTimeout).
		SetKeepAlive(30 * time.Second)
	if t.cfg.Username != "" {
		opts.SetUsername(t.cfg.Username)
		opts.SetPassword(t.cfg.Password)
	}
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		t.logger.Warn("mqtt connection lost", "error", err)
	})
	opts.SetOnConnectHandler(func(c paho.Client) {
		t.logger.Info("mqtt connected", "broker", t.cfg.Broker, "client_id", t.cfg.ClientID)
		t.subscribe(ctx, c, svc)
		t.publishState(svc.Snapshot())
	})

	client := paho.NewClient(opts)
	t.mu.Lock()
	t.client = client
	t.pub = client
	t.mu.Unlock()

	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		t.logger.Warn("mqtt broker not reachable yet, retrying in background", "broker", t.cfg.Broker)
	} else if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}

	stop := svc.Observe(t.publishState)
	defer stop()

	t.logger.Info("mqtt transport listening", "broker", t.cfg.Broker, "topics", t.topics)
	<-ctx.Done()
	return nil
}

func (t *Transport) subscribe(ctx context.Context, c paho.Client, svc transport.Service) {
	handlers := map[string]paho.MessageHandler{
		t.topics.Transcript: func(_ paho.Client, msg paho.Message) {
			go t.handle(ctx, svc, msg.Topic(), msg.Payload())
		},
		t.topics.Command: func(_ paho.Client, msg paho.Message) {
			go t.handle(ctx, svc, msg.Topic(), msg.Payload())
		},
	}
	for topic, h := range handlers {
		token := c.Subscribe(topic, t.cfg.QoS, h)
		if token.WaitTimeout(connectTimeout) && token.Error() != nil {
			t.logger.Error("mqtt subscribe failed", "topic", topic, "error", token.Error())
			continue
		}
		t.logger.Debug("mqtt subscribed", "topic", topic)
	}
}

// handle runs one inbound message. Paho callbacks must not block, so callers
// run it on its own goroutine.
func (t *Transport) handle(ctx context.Context, svc transport.Service, topic string, payload []byte) {
	ctx, cancel := context.WithTimeout(ctx, handleTimeout)
	defer cancel()
	if err := t.Dispatch(ctx, svc, topic, payload); err != nil {
		t.logger.Warn("mqtt message rejected", "topic", topic, "error", err)
	}
}

// Dispatch applies an inbound message to svc.
func (t *Transport) Dispatch(ctx context.Context, svc transport.Service, topic string, payload []byte) error {
	text := strings.TrimSpace(string(payload))
	switch topic {
	case t.topics.Transcript:
		_, err := svc.SubmitTranscript(ctx, text)
		return err
	case t.topics.Command:
		return runCommand(ctx, svc, text)
	default:
		return fmt.Errorf("unexpected topic %q", topic)
	}
}

func runCommand(ctx context.Context, svc transport.Service, cmd string) error {
	if lang, ok := strings.CutPrefix(cmd, "lang:"); ok {
		if lang == "" {
			return errors.New("lang command needs a language code")
		}
		svc.SetLanguage(lang)
		return nil
	}
	var err error
	switch strings.ToLower(cmd) {
	case "start":
		_, err = svc.StartSession(ctx)
	case "confirm":
		_, err = svc.Confirm(ctx)
	case "reject":
		_, err = svc.Reject()
	case "retry":
		_, err = svc.Retry()
	default:
		err = fmt.Errorf("unknown command %q", cmd)
	}
	return err
}

func (t *Transport) publishState(snap session.Snapshot) {
	payload, err := json.Marshal(snap)
	if err != nil {
		t.logger.Error("encoding session snapshot", "error", err)
		return
	}
	if err := t.publish(t.topics.State, true, payload); err != nil && !errors.Is(err, ErrNotConnected) {
		t.logger.Warn("publishing session state", "error", err)
	}
}

// Deliver implements tts.Sink by publishing u on the speech topic.
func (t *Transport) Deliver(_ context.Context, u tts.Utterance) error {
	payload, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encoding utterance: %w", err)
	}
	return t.publish(t.topics.Speech, false, payload)
}

func (t *Transport) publish(topic string, retained bool, payload []byte) error {
	t.mu.Lock()
	pub := t.pub
	t.mu.Unlock()
	if pub == nil {
		return ErrNotConnected
	}
	token := pub.Publish(topic, t.cfg.QoS, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("mqtt publish to %s timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish to %s: %w", topic, err)
	}
	return nil
}

// Close disconnects from the MQTT broker.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.client != nil && t.client.IsConnected() {
		t.client.Disconnect(250)
	}
	t.client, t.pub = nil, nil
	return nil
}
