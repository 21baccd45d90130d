package assistant

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hasti-ptl/Krishisahayk/internal/capture"
	"github.com/hasti-ptl/Krishisahayk/internal/farm"
	"github.com/hasti-ptl/Krishisahayk/internal/intent"
	"github.com/hasti-ptl/Krishisahayk/internal/interpreter"
	"github.com/hasti-ptl/Krishisahayk/internal/ledger"
	"github.com/hasti-ptl/Krishisahayk/internal/session"
	"github.com/hasti-ptl/Krishisahayk/internal/store"
)

type fakeWeather struct {
	reading *farm.WeatherReading
	err     error
}

func (f fakeWeather) Resolve(context.Context) (*farm.WeatherReading, error) {
	return f.reading, f.err
}

type brokenBooks struct{ Books }

func (brokenBooks) Summary(context.Context) (farm.Summary, error) {
	return farm.Summary{}, errors.New("store offline")
}

type fakeTranscriber struct {
	text string
	err  error
	opts interpreter.TranscribeOpts
}

func (f *fakeTranscriber) Name() string { return "fake" }

func (f *fakeTranscriber) Transcribe(_ context.Context, _ []byte, _ string, opts interpreter.TranscribeOpts) (*interpreter.TranscribeResult, error) {
	f.opts = opts
	if f.err != nil {
		return nil, f.err
	}
	return &interpreter.TranscribeResult{Text: f.text}, nil
}

type harness struct {
	a      *Assistant
	ledger *ledger.Ledger
}

func newHarness(t *testing.T, weather WeatherSource, tr interpreter.Transcriber, lang string) *harness {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := clockwork.NewFakeClockAt(time.Date(2026, 10, 16, 7, 0, 0, 0, time.UTC))
	inbox := capture.NewInbox()
	led := ledger.New(store.NewMemory(), clock, 1)
	s := session.New(inbox, intent.New(nil, logger), led, nil, session.Options{Language: lang, Clock: clock, Logger: logger})
	t.Cleanup(func() { s.Close() })
	return &harness{a: New(s, inbox, led, weather, tr, logger), ledger: led}
}

func ctxT(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestSubmitTranscript(t *testing.T) {
	t.Parallel()
	h := newHarness(t, fakeWeather{}, nil, "en-IN")
	ctx := ctxT(t)

	_, err := h.a.SubmitTranscript(ctx, "too early")
	assert.ErrorIs(t, err, capture.ErrNotListening)

	_, err = h.a.StartSession(ctx)
	require.NoError(t, err)
	snap, err := h.a.SubmitTranscript(ctx, "sowed two acres of tomato today")
	require.NoError(t, err)
	assert.Equal(t, session.AwaitingConfirmation, snap.State)

	snap, err = h.a.Confirm(ctx)
	require.NoError(t, err)
	assert.Equal(t, session.Succeeded, snap.State)

	acts, err := h.a.Activities(ctx)
	require.NoError(t, err)
	assert.Len(t, acts, 1)
}

func TestSubmitAudio(t *testing.T) {
	t.Parallel()
	tr := &fakeTranscriber{text: "टमाटर बोया"}
	h := newHarness(t, fakeWeather{}, tr, "hi-IN")
	ctx := ctxT(t)

	_, err := h.a.SubmitAudio(ctx, []byte("RIFF"), "audio/wav")
	assert.ErrorIs(t, err, capture.ErrNotListening)

	_, err = h.a.StartSession(ctx)
	require.NoError(t, err)
	snap, err := h.a.SubmitAudio(ctx, []byte("RIFF"), "audio/wav")
	require.NoError(t, err)
	assert.Equal(t, session.AwaitingConfirmation, snap.State)
	assert.Equal(t, "टमाटर बोया", snap.Transcript)
	assert.Equal(t, "hi", tr.opts.Language)
}

func TestSubmitAudio_TranscriptionFailureIsCaptureError(t *testing.T) {
	t.Parallel()
	h := newHarness(t, fakeWeather{}, &fakeTranscriber{err: errors.New("whisper 500")}, "en-IN")
	ctx := ctxT(t)

	_, err := h.a.StartSession(ctx)
	require.NoError(t, err)
	snap, err := h.a.SubmitAudio(ctx, []byte("RIFF"), "audio/wav")
	require.NoError(t, err)
	assert.Equal(t, session.Failed, snap.State)
	assert.Equal(t, farm.KindCaptureError, snap.ErrorKind)
}

func TestSubmitAudio_NoTranscriber(t *testing.T) {
	t.Parallel()
	h := newHarness(t, fakeWeather{}, nil, "en-IN")

	_, err := h.a.SubmitAudio(ctxT(t), []byte("RIFF"), "audio/wav")
	assert.ErrorIs(t, err, ErrNoTranscriber)
}

func TestTransactionSummary(t *testing.T) {
	t.Parallel()
	h := newHarness(t, fakeWeather{}, nil, "en-IN")
	ctx := ctxT(t)

	_, err := h.ledger.RecordTransaction(ctx, farm.TransactionRecord{Type: farm.TransactionIncome, Amount: 100})
	require.NoError(t, err)
	_, err = h.ledger.RecordTransaction(ctx, farm.TransactionRecord{Type: farm.TransactionExpense, Amount: 40})
	require.NoError(t, err)

	got, err := h.a.TransactionSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, farm.Summary{TotalIncome: 100, TotalExpense: 40, NetProfit: 60}, got)

	txs, err := h.a.Transactions(ctx)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, farm.TransactionExpense, txs[0].Type, "newest first")
}

func TestOverview(t *testing.T) {
	t.Parallel()

	reading := &farm.WeatherReading{LocationName: "Pune, Maharashtra"}
	h := newHarness(t, fakeWeather{reading: reading}, nil, "en-IN")
	ctx := ctxT(t)
	_, err := h.ledger.RecordTransaction(ctx, farm.TransactionRecord{Type: farm.TransactionIncome, Amount: 250})
	require.NoError(t, err)

	got, err := h.a.Overview(ctx)
	require.NoError(t, err)
	assert.Same(t, reading, got.Weather)
	assert.Empty(t, got.WeatherError)
	assert.Equal(t, 250.0, got.Summary.NetProfit)
}

func TestOverview_WeatherUnavailableKeepsSummary(t *testing.T) {
	t.Parallel()

	weather := fakeWeather{err: farm.NewFailure(farm.KindTelemetryUnavailable, errors.New("offline"))}
	h := newHarness(t, weather, nil, "mr-IN")

	got, err := h.a.Overview(ctxT(t))
	require.NoError(t, err)
	assert.Nil(t, got.Weather)
	assert.Equal(t, "हवामानाची माहिती उपलब्ध नाही.", got.WeatherError)
	assert.Equal(t, farm.Summary{}, got.Summary)

	_, err = h.a.WeatherReading(ctxT(t))
	assert.ErrorIs(t, err, farm.ErrTelemetryUnavailable)
}

func TestOverview_LedgerErrorFails(t *testing.T) {
	t.Parallel()

	h := newHarness(t, fakeWeather{reading: &farm.WeatherReading{}}, nil, "en-IN")
	h.a.books = brokenBooks{Books: h.ledger}

	_, err := h.a.Overview(ctxT(t))
	assert.ErrorContains(t, err, "store offline")
}
