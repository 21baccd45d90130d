// Package piper implements tts.Synthesizer against a Piper Wyoming server.
//
// Wyoming events are framed as:
//
//	<json_length> <payload_length>\n
//	<json_bytes>\n
//	<payload_bytes>   (if payload_length > 0)
package piper

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/hasti-ptl/Krishisahayk/internal/config"
	"github.com/hasti-ptl/Krishisahayk/internal/tts"
)

// defaultVoices maps ISO-639-1 codes to Piper voice models. Piper ships no
// Marathi voice, so Marathi is read by the Hindi one (same script).
var defaultVoices = map[string]string{
	"en": "en_US-lessac-medium",
	"hi": "hi_IN-pratham-medium",
}

// fallbacks lists the language tried when one has no voice or endpoint.
var fallbacks = map[string]string{
	"mr": "hi",
	"hi": "en",
}

// Synthesizer implements tts.Synthesizer using the Wyoming protocol.
type Synthesizer struct {
	endpoint  string            // default host:port
	endpoints map[string]string // language -> host:port
	voices    map[string]string // language -> voice
	logger    *slog.Logger
}

// New creates a Piper synthesizer from config.
func New(cfg config.PiperConfig, logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	voices := make(map[string]string, len(defaultVoices)+len(cfg.Voices))
	for k, v := range defaultVoices {
		voices[k] = v
	}
	for k, v := range cfg.Voices {
		voices[k] = v
	}
	endpoints := make(map[string]string, len(cfg.Endpoints))
	for lang, ep := range cfg.Endpoints {
		endpoints[lang] = cleanEndpoint(ep)
	}
	return &Synthesizer{
		endpoint:  cleanEndpoint(cfg.Endpoint),
		endpoints: endpoints,
		voices:    voices,
		logger:    logger.With("adapter", "piper"),
	}
}

func cleanEndpoint(ep string) string {
	ep = strings.TrimPrefix(ep, "tcp://")
	return strings.TrimPrefix(ep, "http://")
}

// lookup walks the fallback chain from lang until m has an entry.
func lookup(m map[string]string, lang string) string {
	for seen := 0; lang != "" && seen < 4; seen++ {
		if v := m[lang]; v != "" {
			return v
		}
		lang = fallbacks[lang]
	}
	return m["en"]
}

// Synthesize sends text to Piper and returns a WAV file.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, opts tts.SynthesizeOpts) (*tts.SynthesizeResult, error) {
	if text == "" {
		return nil, errors.New("empty text for synthesis")
	}
	voice := opts.Voice
	if voice == "" {
		voice = lookup(s.voices, opts.Language)
	}
	endpoint := lookup(s.endpoints, opts.Language)
	if endpoint == "" {
		endpoint = s.endpoint
	}
	if endpoint == "" {
		return nil, fmt.Errorf("no piper endpoint configured for language %q", opts.Language)
	}

	s.logger.Debug("synthesize", "text_length", len(text), "voice", voice, "language", opts.Language, "endpoint", endpoint)

	dialer := net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", endpoint)
	if err != nil {
		return nil, fmt.Errorf("connecting to piper: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(30 * time.Second))
	}

	req := event{
		Type: "synthesize",
		Data: map[string]any{
			"text":  text,
			"voice": map[string]any{"name": voice},
		},
	}
	if err := writeEvent(conn, req, nil); err != nil {
		return nil, fmt.Errorf("sending synthesize event: %w", err)
	}

	var (
		r          = bufio.NewReader(conn)
		pcm        bytes.Buffer
		sampleRate = 22050
		channels   = 1
		width      = 2
	)
	for {
		evt, payload, err := readEvent(r)
		if err != nil {
			return nil, fmt.Errorf("reading piper event: %w", err)
		}
		switch evt.Type {
		case "audio-start":
			sampleRate = intField(evt.Data, "rate", sampleRate)
			channels = intField(evt.Data, "channels", channels)
			width = intField(evt.Data, "width", width)
		case "audio-chunk":
			pcm.Write(payload)
		case "audio-stop":
			s.logger.Debug("audio-stop", "pcm_bytes", pcm.Len(), "rate", sampleRate)
			return &tts.SynthesizeResult{
				Audio:       pcmToWAV(pcm.Bytes(), sampleRate, channels, width),
				ContentType: "audio/wav",
				SampleRate:  sampleRate,
				Channels:    channels,
			}, nil
		case "error":
			msg, _ := evt.Data["text"].(string)
			if msg == "" {
				msg = "unknown error"
			}
			return nil, fmt.Errorf("piper error: %s", msg)
		}
	}
}

// Close is a no-op; connections are per-request.
func (s *Synthesizer) Close() error { return nil }

type event struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data,omitempty"`
}

func intField(data map[string]any, key string, def int) int {
	if v, ok := data[key].(float64); ok {
		return int(v)
	}
	return def
}

func writeEvent(w io.Writer, evt event, payload []byte) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshalling event: %w", err)
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%d %d\n", len(body), len(payload))
	buf.Write(body)
	buf.WriteByte('\n')
	buf.Write(payload)
	_, err = w.Write(buf.Bytes())
	return err
}

func readEvent(r *bufio.Reader) (*event, []byte, error) {
	header, err := r.ReadString('\n')
	if err != nil {
		return nil, nil, fmt.Errorf("reading header: %w", err)
	}
	jsonPart, payloadPart, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok {
		return nil, nil, fmt.Errorf("invalid wyoming header: %q", header)
	}
	jsonLen, err := strconv.Atoi(jsonPart)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing json_length: %w", err)
	}
	payloadLen, err := strconv.Atoi(payloadPart)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing payload_length: %w", err)
	}

	body := make([]byte, jsonLen+1) // trailing newline
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, nil, fmt.Errorf("reading json: %w", err)
	}
	var evt event
	if err := json.Unmarshal(body[:jsonLen], &evt); err != nil {
		return nil, nil, fmt.Errorf("unmarshalling event: %w", err)
	}

	var payload []byte
	if payloadLen > 0 {
		payload = make([]byte, payloadLen)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, nil, fmt.Errorf("reading payload: %w", err)
		}
	}
	return &evt, payload, nil
}

// pcmToWAV wraps raw little-endian PCM in a 44-byte WAV header.
func pcmToWAV(pcm []byte, sampleRate, channels, bytesPerSample int) []byte {
	var buf bytes.Buffer
	buf.Grow(44 + len(pcm))

	le := func(v any) { _ = binary.Write(&buf, binary.LittleEndian, v) }

	buf.WriteString("RIFF")
	le(uint32(36 + len(pcm)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	le(uint32(16))
	le(uint16(1)) // PCM
	le(uint16(channels))
	le(uint32(sampleRate))
	le(uint32(sampleRate * channels * bytesPerSample))
	le(uint16(channels * bytesPerSample))
	le(uint16(bytesPerSample * 8))

	buf.WriteString("data")
	le(uint32(len(pcm)))
	buf.Write(pcm)
	return buf.Bytes()
}
