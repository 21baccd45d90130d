// Package tts speaks to the farmer.
//
// The session calls a Speaker fire-and-forget. Announcer, the production
// Speaker, synthesizes audio with a Synthesizer (Piper) when one is
// configured and hands the resulting Utterance to a Sink, which delivers it
// to the farmer's device (over MQTT) or just logs it.
package tts

import (
	"context"
	"encoding/base64"
	"log/slog"
	"sync"
	"time"

	"github.com/hasti-ptl/Krishisahayk/internal/i18n"
)

// SynthesizeOpts controls synthesis behavior.
type SynthesizeOpts struct {
	// Language is the ISO-639-1 code ("en", "hi", "mr") used to select the voice.
	Language string

	// Voice overrides automatic language-based voice selection.
	Voice string
}

// Synthesizer converts text to audio.
type Synthesizer interface {
	// Synthesize generates a WAV file from the given text.
	Synthesize(ctx context.Context, text string, opts SynthesizeOpts) (*SynthesizeResult, error)

	// Close releases any resources held by the synthesizer.
	Close() error
}

// SynthesizeResult holds the output of TTS synthesis.
type SynthesizeResult struct {
	Audio       []byte
	ContentType string // e.g. "audio/wav"
	SampleRate  int
	Channels    int
}

// Speaker says text in a language. Implementations must not block the caller.
type Speaker interface {
	Speak(text, language string)
}

// Utterance is one spoken sentence as delivered to the farmer's device.
// Audio is empty when no synthesizer is configured or synthesis failed; the
// device then falls back to its own voice.
type Utterance struct {
	Text        string    `json:"text"`
	Language    string    `json:"language"`
	Audio       string    `json:"audio,omitempty"` // base64
	ContentType string    `json:"content_type,omitempty"`
	SpokenAt    time.Time `json:"spoken_at"`
}

// SetAudioBytes stores raw audio base64-encoded.
func (u *Utterance) SetAudioBytes(b []byte) {
	u.Audio = base64.StdEncoding.EncodeToString(b)
}

// AudioBytes decodes Audio.
func (u *Utterance) AudioBytes() ([]byte, error) {
	return base64.StdEncoding.DecodeString(u.Audio)
}

// Sink delivers utterances.
type Sink interface {
	Deliver(ctx context.Context, u Utterance) error
}

// LogSink logs utterances instead of delivering them.
type LogSink struct {
	Logger *slog.Logger
}

// Deliver implements Sink.
func (s LogSink) Deliver(_ context.Context, u Utterance) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("speak", "text", u.Text, "language", u.Language, "audio_bytes", base64.StdEncoding.DecodedLen(len(u.Audio)))
	return nil
}

// Announcer is a Speaker that synthesizes and delivers in the background.
type Announcer struct {
	synth   Synthesizer // may be nil
	sink    Sink
	timeout time.Duration
	logger  *slog.Logger
	wg      sync.WaitGroup
}

// NewAnnouncer returns an Announcer. synth may be nil to deliver text only.
func NewAnnouncer(synth Synthesizer, sink Sink, timeout time.Duration, logger *slog.Logger) *Announcer {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Announcer{synth: synth, sink: sink, timeout: timeout, logger: logger.With("component", "tts")}
}

// Speak implements Speaker.
func (a *Announcer) Speak(text, language string) {
	if text == "" {
		return
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()
		a.speak(ctx, text, language)
	}()
}

func (a *Announcer) speak(ctx context.Context, text, language string) {
	u := Utterance{Text: text, Language: i18n.Normalize(language), SpokenAt: time.Now().UTC()}

	if a.synth != nil {
		res, err := a.synth.Synthesize(ctx, text, SynthesizeOpts{Language: i18n.Base(language)})
		if err != nil {
			a.logger.Warn("synthesis failed, delivering text only", "error", err)
		} else {
			u.SetAudioBytes(res.Audio)
			u.ContentType = res.ContentType
		}
	}

	if err := a.sink.Deliver(ctx, u); err != nil {
		a.logger.Warn("delivering utterance", "error", err)
	}
}

// Wait blocks until every pending Speak has finished.
func (a *Announcer) Wait() {
	a.wg.Wait()
}

// Close waits for pending utterances and closes the synthesizer.
func (a *Announcer) Close() error {
	a.wg.Wait()
	if a.synth != nil {
		return a.synth.Close()
	}
	return nil
}
