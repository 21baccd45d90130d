package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hasti-ptl/Krishisahayk/internal/config"
	"github.com/hasti-ptl/Krishisahayk/internal/session"
	"github.com/hasti-ptl/Krishisahayk/internal/transport"
	"github.com/hasti-ptl/Krishisahayk/internal/tts"
)

type doneToken struct{ err error }

func (d doneToken) Wait() bool                     { return true }
func (d doneToken) WaitTimeout(time.Duration) bool { return true }
func (d doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (d doneToken) Error() error { return d.err }

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

type fakePublisher struct {
	mu  sync.Mutex
	err error
	got []published
}

func (f *fakePublisher) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, published{topic, qos, retained, payload.([]byte)})
	return doneToken{err: f.err}
}

// fakeService records which operations ran. Unused methods panic through
// the nil embedded interface.
type fakeService struct {
	transport.Service
	calls []string
	text  string
}

func (f *fakeService) StartSession(context.Context) (session.Snapshot, error) {
	f.calls = append(f.calls, "start")
	return session.Snapshot{}, nil
}

func (f *fakeService) Confirm(context.Context) (session.Snapshot, error) {
	f.calls = append(f.calls, "confirm")
	return session.Snapshot{}, nil
}

func (f *fakeService) Reject() (session.Snapshot, error) {
	f.calls = append(f.calls, "reject")
	return session.Snapshot{}, errors.New("invalid")
}

func (f *fakeService) Retry() (session.Snapshot, error) {
	f.calls = append(f.calls, "retry")
	return session.Snapshot{}, nil
}

func (f *fakeService) SetLanguage(code string) session.Snapshot {
	f.calls = append(f.calls, "lang:"+code)
	return session.Snapshot{}
}

func (f *fakeService) SubmitTranscript(_ context.Context, text string) (session.Snapshot, error) {
	f.text = text
	return session.Snapshot{}, nil
}

func newTransport(pub publisher) *Transport {
	t := New(config.MQTTConfig{TopicPrefix: "krishi/", QoS: 1}, 42, nil)
	t.pub = pub
	return t
}

func TestTopicsFor(t *testing.T) {
	t.Parallel()

	got := TopicsFor("krishi/", 42)
	assert.Equal(t, Topics{
		Transcript: "krishi/42/transcript",
		Command:    "krishi/42/command",
		State:      "krishi/42/state",
		Speech:     "krishi/42/speech",
	}, got)
}

func TestDispatch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tr := newTransport(nil)
	topics := tr.Topics()
	svc := &fakeService{}

	require.NoError(t, tr.Dispatch(ctx, svc, topics.Transcript, []byte("  गेहूं बेचा \n")))
	assert.Equal(t, "गेहूं बेचा", svc.text)

	for _, cmd := range []string{"start", "CONFIRM", "retry", "lang:hi-IN"} {
		require.NoError(t, tr.Dispatch(ctx, svc, topics.Command, []byte(cmd)), cmd)
	}
	assert.Error(t, tr.Dispatch(ctx, svc, topics.Command, []byte("reject")))
	assert.ErrorContains(t, tr.Dispatch(ctx, svc, topics.Command, []byte("dance")), "unknown command")
	assert.Error(t, tr.Dispatch(ctx, svc, topics.Command, []byte("lang:")))
	assert.Error(t, tr.Dispatch(ctx, svc, "other/topic", nil))

	assert.Equal(t, []string{"start", "confirm", "retry", "lang:hi-IN", "reject"}, svc.calls)
}

func TestDeliverPublishesSpeech(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{}
	tr := newTransport(pub)

	u := tts.Utterance{Text: "Saved successfully.", Language: "en-IN"}
	u.SetAudioBytes([]byte("RIFF"))
	require.NoError(t, tr.Deliver(context.Background(), u))

	require.Len(t, pub.got, 1)
	assert.Equal(t, "krishi/42/speech", pub.got[0].topic)
	assert.False(t, pub.got[0].retained)
	assert.Equal(t, byte(1), pub.got[0].qos)

	var back tts.Utterance
	require.NoError(t, json.Unmarshal(pub.got[0].payload, &back))
	assert.Equal(t, u.Text, back.Text)
	assert.Equal(t, u.Audio, back.Audio)
}

func TestPublishStateIsRetained(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{}
	tr := newTransport(pub)
	tr.publishState(session.Snapshot{State: session.AwaitingConfirmation, Language: "mr-IN"})

	require.Len(t, pub.got, 1)
	assert.Equal(t, "krishi/42/state", pub.got[0].topic)
	assert.True(t, pub.got[0].retained)
	assert.Contains(t, string(pub.got[0].payload), `"state":"AwaitingConfirmation"`)
}

func TestDeliver_Errors(t *testing.T) {
	t.Parallel()

	assert.ErrorIs(t, newTransport(nil).Deliver(context.Background(), tts.Utterance{}), ErrNotConnected)

	broken := newTransport(&fakePublisher{err: errors.New("broker gone")})
	assert.ErrorContains(t, broken.Deliver(context.Background(), tts.Utterance{}), "broker gone")
}
