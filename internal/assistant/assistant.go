// Package assistant is the façade presentation layers talk to. It joins the
// command session, the capture inbox, the ledger and the telemetry resolver
// behind one type so transports need a single dependency.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/hasti-ptl/Krishisahayk/internal/capture"
	"github.com/hasti-ptl/Krishisahayk/internal/farm"
	"github.com/hasti-ptl/Krishisahayk/internal/i18n"
	"github.com/hasti-ptl/Krishisahayk/internal/interpreter"
	"github.com/hasti-ptl/Krishisahayk/internal/session"
)

// ErrNoTranscriber is returned by SubmitAudio when no speech-to-text backend
// is configured.
var ErrNoTranscriber = errors.New("no transcriber configured")

// WeatherSource resolves the current weather reading.
type WeatherSource interface {
	Resolve(ctx context.Context) (*farm.WeatherReading, error)
}

// Books reads the farmer's ledger.
type Books interface {
	Activities(ctx context.Context) ([]farm.ActivityRecord, error)
	Transactions(ctx context.Context) ([]farm.TransactionRecord, error)
	Summary(ctx context.Context) (farm.Summary, error)
}

// Overview combines weather and money for a dashboard. Weather is nil and
// WeatherError set when telemetry is unavailable.
type Overview struct {
	Weather      *farm.WeatherReading `json:"weather,omitempty"`
	WeatherError string               `json:"weather_error,omitempty"`
	Summary      farm.Summary         `json:"summary"`
}

// Assistant serves the operations exposed to presentation.
type Assistant struct {
	session     *session.Session
	inbox       *capture.Inbox
	books       Books
	weather     WeatherSource
	transcriber interpreter.Transcriber // may be nil
	logger      *slog.Logger
}

// New wires an Assistant. transcriber may be nil.
func New(s *session.Session, inbox *capture.Inbox, books Books, weather WeatherSource, transcriber interpreter.Transcriber, logger *slog.Logger) *Assistant {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assistant{
		session:     s,
		inbox:       inbox,
		books:       books,
		weather:     weather,
		transcriber: transcriber,
		logger:      logger.With("component", "assistant"),
	}
}

// StartSession opens a listening window.
func (a *Assistant) StartSession(ctx context.Context) (session.Snapshot, error) {
	return a.session.Start(ctx)
}

// Confirm commits the intent awaiting confirmation.
func (a *Assistant) Confirm(ctx context.Context) (session.Snapshot, error) {
	return a.session.Confirm(ctx)
}

// Reject discards the intent awaiting confirmation.
func (a *Assistant) Reject() (session.Snapshot, error) {
	return a.session.Reject()
}

// Retry clears a failed attempt.
func (a *Assistant) Retry() (session.Snapshot, error) {
	return a.session.Retry()
}

// SetLanguage changes the active language (deferred while an attempt is in flight).
func (a *Assistant) SetLanguage(code string) session.Snapshot {
	return a.session.SetLanguage(code)
}

// Snapshot returns the session state.
func (a *Assistant) Snapshot() session.Snapshot {
	return a.session.Snapshot()
}

// Observe subscribes to session snapshots.
func (a *Assistant) Observe(fn func(session.Snapshot)) (cancel func()) {
	return a.session.Observe(fn)
}

// SubmitTranscript hands the device's final transcript to the listening
// session and waits for the structuring outcome.
func (a *Assistant) SubmitTranscript(ctx context.Context, text string) (session.Snapshot, error) {
	if err := a.inbox.Deliver(text); err != nil {
		return a.session.Snapshot(), err
	}
	return a.settle(ctx)
}

// SubmitAudio transcribes a recording in the listening language and submits
// the text. A transcription failure ends the attempt as a capture error.
func (a *Assistant) SubmitAudio(ctx context.Context, audio []byte, contentType string) (session.Snapshot, error) {
	if a.transcriber == nil {
		return a.session.Snapshot(), ErrNoTranscriber
	}
	lang := a.inbox.Language()
	if lang == "" {
		return a.session.Snapshot(), capture.ErrNotListening
	}

	res, err := a.transcriber.Transcribe(ctx, audio, contentType, interpreter.TranscribeOpts{
		Language: i18n.Base(lang),
		Prompt:   "Farm work, crops, acres, rupees.",
	})
	if err != nil {
		a.logger.Warn("transcription failed", "transcriber", a.transcriber.Name(), "error", err)
		if ferr := a.inbox.Fail(fmt.Errorf("transcribing audio: %w", err)); ferr != nil {
			return a.session.Snapshot(), ferr
		}
		return a.settle(ctx)
	}
	a.logger.Debug("audio transcribed", "bytes", len(audio), "chars", len(res.Text))
	return a.SubmitTranscript(ctx, res.Text)
}

// settle waits until the submitted transcript has been structured or failed.
func (a *Assistant) settle(ctx context.Context) (session.Snapshot, error) {
	return a.session.WaitFor(ctx, session.AwaitingConfirmation, session.Failed, session.Idle)
}

// WeatherReading resolves the current reading through the telemetry cascade.
func (a *Assistant) WeatherReading(ctx context.Context) (*farm.WeatherReading, error) {
	return a.weather.Resolve(ctx)
}

// TransactionSummary folds every transaction into totals.
func (a *Assistant) TransactionSummary(ctx context.Context) (farm.Summary, error) {
	return a.books.Summary(ctx)
}

// Activities lists activity records, newest first.
func (a *Assistant) Activities(ctx context.Context) ([]farm.ActivityRecord, error) {
	return a.books.Activities(ctx)
}

// Transactions lists transaction records, newest first.
func (a *Assistant) Transactions(ctx context.Context) ([]farm.TransactionRecord, error) {
	return a.books.Transactions(ctx)
}

// Overview loads the weather reading and the transaction summary
// concurrently. Only a ledger error fails it.
func (a *Assistant) Overview(ctx context.Context) (*Overview, error) {
	var out Overview
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		w, err := a.weather.Resolve(gctx)
		if err != nil {
			a.logger.Warn("overview without weather", "error", err)
			out.WeatherError = i18n.FailureMessage(a.session.Snapshot().Language, farm.KindOf(err, farm.KindTelemetryUnavailable))
			return nil
		}
		out.Weather = w
		return nil
	})
	g.Go(func() error {
		sum, err := a.books.Summary(gctx)
		if err != nil {
			return fmt.Errorf("summarizing transactions: %w", err)
		}
		out.Summary = sum
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}
