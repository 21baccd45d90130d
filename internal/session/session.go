// Package session runs the voice command state machine:
//
//	Idle -> Listening -> Structuring -> AwaitingConfirmation -> Committing -> Succeeded | Failed
//
// Succeeded returns to Idle by itself after a delay; Failed returns to Idle on
// Retry. Only one attempt is in flight at a time. Every attempt gets a
// generation number, and a result arriving for an older generation is dropped.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/hasti-ptl/Krishisahayk/internal/capture"
	"github.com/hasti-ptl/Krishisahayk/internal/farm"
	"github.com/hasti-ptl/Krishisahayk/internal/i18n"
	"github.com/hasti-ptl/Krishisahayk/internal/tts"
)

// State is a session state.
type State string

const (
	Idle                 State = "Idle"
	Listening            State = "Listening"
	Structuring          State = "Structuring"
	AwaitingConfirmation State = "AwaitingConfirmation"
	Committing           State = "Committing"
	Succeeded            State = "Succeeded"
	Failed               State = "Failed"
)

// ErrInvalidTransition is returned by an operation the current state does not accept.
var ErrInvalidTransition = errors.New("invalid session transition")

// ErrClosed is returned after Close.
var ErrClosed = errors.New("session closed")

// Structurer turns a transcript into an intent.
type Structurer interface {
	Structure(ctx context.Context, transcript, language string) (*farm.ParsedIntent, error)
}

// Recorder persists committed records.
type Recorder interface {
	RecordActivity(ctx context.Context, rec farm.ActivityRecord) (farm.ActivityRecord, error)
	RecordTransaction(ctx context.Context, rec farm.TransactionRecord) (farm.TransactionRecord, error)
}

// Snapshot is a copy of the session's observable state.
type Snapshot struct {
	AttemptID   string                  `json:"attempt_id,omitempty"`
	State       State                   `json:"state"`
	Language    string                  `json:"language"`
	Transcript  string                  `json:"transcript,omitempty"`
	Intent      *farm.ParsedIntent      `json:"intent,omitempty"`
	ErrorKind   farm.ErrorKind          `json:"error_kind,omitempty"`
	Error       string                  `json:"error,omitempty"` // localized
	Activity    *farm.ActivityRecord    `json:"activity,omitempty"`
	Transaction *farm.TransactionRecord `json:"transaction,omitempty"`
	UpdatedAt   time.Time               `json:"updated_at"`
}

// Options tunes a Session. Zero durations take the defaults.
type Options struct {
	Language         string
	ResetDelay       time.Duration // default 3s
	ListenTimeout    time.Duration // default 30s
	StructureTimeout time.Duration // default 20s
	Clock            clockwork.Clock
	Logger           *slog.Logger
}

// Session is the command session state machine. It is safe for concurrent use.
type Session struct {
	device     capture.Device
	structurer Structurer
	recorder   Recorder
	speaker    tts.Speaker
	opts       Options
	clock      clockwork.Clock
	logger     *slog.Logger

	ctx  context.Context // cancelled by Close
	stop context.CancelFunc

	mu          sync.Mutex
	snap        Snapshot
	gen         uint64
	pendingLang string
	changed     chan struct{} // closed and replaced on every change
	resetTimer  clockwork.Timer
	closed      bool
	seq         uint64

	obsMu     sync.Mutex
	observers map[int]func(Snapshot)
	nextObs   int
	delivered uint64
}

// New returns an idle Session.
func New(device capture.Device, structurer Structurer, recorder Recorder, speaker tts.Speaker, opts Options) *Session {
	if opts.ResetDelay <= 0 {
		opts.ResetDelay = 3 * time.Second
	}
	if opts.ListenTimeout <= 0 {
		opts.ListenTimeout = 30 * time.Second
	}
	if opts.StructureTimeout <= 0 {
		opts.StructureTimeout = 20 * time.Second
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	ctx, stop := context.WithCancel(context.Background())
	s := &Session{
		device:     device,
		structurer: structurer,
		recorder:   recorder,
		speaker:    speaker,
		opts:       opts,
		clock:      opts.Clock,
		logger:     opts.Logger.With("component", "session"),
		ctx:        ctx,
		stop:       stop,
		changed:    make(chan struct{}),
		observers:  make(map[int]func(Snapshot)),
	}
	s.snap = Snapshot{State: Idle, Language: i18n.Normalize(opts.Language), UpdatedAt: s.clock.Now()}
	return s
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked()
}

// Start opens a listening window: Idle -> Listening. A pending language
// change takes effect here. If the device cannot be activated the session
// goes straight to Failed with DeviceUnavailable.
func (s *Session) Start(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	if err := s.expectLocked(Idle); err != nil {
		s.mu.Unlock()
		return s.Snapshot(), err
	}
	if s.pendingLang != "" {
		s.snap.Language = s.pendingLang
		s.pendingLang = ""
	}
	s.gen++
	gen := s.gen
	lang := s.snap.Language
	s.snap.AttemptID = uuid.NewString()
	logger := s.logger.With("attempt_id", s.snap.AttemptID)

	results, err := s.device.Activate(ctx, lang)
	if err != nil {
		logger.Warn("capture device unavailable", "error", err)
		s.failLocked(farm.NewFailure(farm.KindDeviceUnavailable, err))
		return s.unlockAndNotify()
	}
	s.setLocked(Listening)
	logger.Info("listening", "language", lang)
	go s.listen(gen, results, logger)
	return s.unlockAndNotify()
}

// listen waits for the single capture result of attempt gen and structures it.
func (s *Session) listen(gen uint64, results <-chan capture.Result, logger *slog.Logger) {
	timer := s.clock.NewTimer(s.opts.ListenTimeout)
	var (
		res capture.Result
		ok  bool
		err error
	)
	select {
	case res, ok = <-results:
		switch {
		case !ok:
			err = errors.New("capture ended without a transcript")
		case res.Err != nil:
			err = res.Err
		}
	case <-timer.Chan():
		s.device.Deactivate()
		err = fmt.Errorf("no speech within %s", s.opts.ListenTimeout)
	case <-s.ctx.Done():
		timer.Stop()
		return
	}
	timer.Stop()

	s.mu.Lock()
	if s.gen != gen || s.snap.State != Listening {
		s.mu.Unlock()
		return
	}
	if err != nil {
		logger.Warn("capture failed", "error", err)
		s.failLocked(farm.NewFailure(farm.KindCaptureError, err))
		s.unlockAndNotify()
		return
	}
	transcript := strings.TrimSpace(res.Transcript)
	s.snap.Transcript = transcript
	s.setLocked(Structuring)
	lang := s.snap.Language
	s.unlockAndNotify()

	ctx, cancel := context.WithTimeout(s.ctx, s.opts.StructureTimeout)
	parsed, err := s.structurer.Structure(ctx, transcript, lang)
	cancel()

	s.mu.Lock()
	if s.gen != gen || s.snap.State != Structuring {
		s.mu.Unlock()
		return
	}
	if err != nil {
		f := &farm.Failure{Kind: farm.KindOf(err, farm.KindStructuringFailed), Transcript: transcript, Err: err}
		s.failLocked(f)
		s.unlockAndNotify()
		return
	}
	s.snap.Intent = parsed
	s.setLocked(AwaitingConfirmation)
	logger.Info("awaiting confirmation", "kind", parsed.Kind, "confidence", parsed.Confidence)
	s.speak(parsed.ConfirmationMessage, lang)
	s.unlockAndNotify()
}

// Confirm commits the intent awaiting confirmation and blocks until it is
// persisted. Confirming an intent that is not an activity or a transaction
// moves to Failed with UnsupportedIntent and persists nothing.
func (s *Session) Confirm(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	if err := s.expectLocked(AwaitingConfirmation); err != nil {
		s.mu.Unlock()
		return s.Snapshot(), err
	}
	gen := s.gen
	intent := s.snap.Intent.Clone()
	lang := s.snap.Language
	if !intent.Kind.Committable() {
		s.failLocked(farm.NewFailure(farm.KindUnsupportedIntent, fmt.Errorf("intent %s cannot be saved", intent.Kind)))
		return s.unlockAndNotify()
	}
	s.setLocked(Committing)
	s.unlockAndNotify()

	today := farm.Day(s.clock.Now())
	var (
		act *farm.ActivityRecord
		tx  *farm.TransactionRecord
		err error
	)
	switch intent.Kind {
	case farm.IntentActivity:
		var rec farm.ActivityRecord
		rec, err = s.recorder.RecordActivity(ctx, ActivityFromIntent(intent, today))
		act = &rec
	case farm.IntentTransaction:
		var rec farm.TransactionRecord
		rec, err = s.recorder.RecordTransaction(ctx, TransactionFromIntent(intent, today))
		tx = &rec
	}

	s.mu.Lock()
	if s.gen != gen || s.snap.State != Committing {
		s.mu.Unlock()
		return s.Snapshot(), ErrClosed
	}
	if err != nil {
		s.logger.Error("commit failed", "attempt_id", s.snap.AttemptID, "error", err)
		s.failLocked(&farm.Failure{Kind: farm.KindPersistFailed, Transcript: s.snap.Transcript, Err: err})
		return s.unlockAndNotify()
	}
	s.snap.Activity, s.snap.Transaction = act, tx
	s.setLocked(Succeeded)
	s.logger.Info("committed", "attempt_id", s.snap.AttemptID, "kind", intent.Kind)
	s.resetTimer = s.clock.AfterFunc(s.opts.ResetDelay, func() { s.resetAfterSuccess(gen) })
	s.speak(i18n.Saved(lang), lang)
	return s.unlockAndNotify()
}

func (s *Session) resetAfterSuccess(gen uint64) {
	s.mu.Lock()
	if s.gen != gen || s.snap.State != Succeeded {
		s.mu.Unlock()
		return
	}
	s.toIdleLocked()
	s.unlockAndNotify()
}

// Reject discards the intent awaiting confirmation: AwaitingConfirmation -> Idle.
func (s *Session) Reject() (Snapshot, error) {
	s.mu.Lock()
	if err := s.expectLocked(AwaitingConfirmation); err != nil {
		s.mu.Unlock()
		return s.Snapshot(), err
	}
	s.logger.Info("intent rejected", "attempt_id", s.snap.AttemptID)
	s.gen++
	s.toIdleLocked()
	return s.unlockAndNotify()
}

// Retry clears a failure: Failed -> Idle.
func (s *Session) Retry() (Snapshot, error) {
	s.mu.Lock()
	if err := s.expectLocked(Failed); err != nil {
		s.mu.Unlock()
		return s.Snapshot(), err
	}
	s.gen++
	s.toIdleLocked()
	return s.unlockAndNotify()
}

// SetLanguage changes the active language. Outside Idle the change is held
// until the next Start so an in-flight attempt keeps its language.
func (s *Session) SetLanguage(code string) Snapshot {
	lang := i18n.Normalize(code)
	s.mu.Lock()
	if s.snap.State == Idle {
		s.pendingLang = ""
		if s.snap.Language != lang {
			s.snap.Language = lang
			s.changedLocked()
			snap, _ := s.unlockAndNotify()
			return snap
		}
	} else {
		s.pendingLang = lang
	}
	snap := s.copyLocked()
	s.mu.Unlock()
	return snap
}

// WaitFor blocks until the session is in one of states.
func (s *Session) WaitFor(ctx context.Context, states ...State) (Snapshot, error) {
	for {
		s.mu.Lock()
		if slices.Contains(states, s.snap.State) {
			snap := s.copyLocked()
			s.mu.Unlock()
			return snap, nil
		}
		ch := s.changed
		s.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return s.Snapshot(), ctx.Err()
		}
	}
}

// Observe registers fn to receive every new snapshot. Snapshots are
// delivered in order; one superseded before delivery is skipped. The
// returned func unregisters fn.
func (s *Session) Observe(fn func(Snapshot)) (cancel func()) {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	return func() {
		s.obsMu.Lock()
		defer s.obsMu.Unlock()
		delete(s.observers, id)
	}
}

// Close abandons any in-flight attempt and deactivates the device.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.gen++
	if s.resetTimer != nil {
		s.resetTimer.Stop()
	}
	s.stop()
	s.device.Deactivate()
	return nil
}

func (s *Session) expectLocked(want State) error {
	if s.closed {
		return ErrClosed
	}
	if s.snap.State != want {
		return fmt.Errorf("%w: %s in state %s", ErrInvalidTransition, operationFor(want), s.snap.State)
	}
	return nil
}

func operationFor(from State) string {
	switch from {
	case Idle:
		return "start"
	case AwaitingConfirmation:
		return "confirm/reject"
	case Failed:
		return "retry"
	default:
		return "operation"
	}
}

func (s *Session) setLocked(st State) {
	s.snap.State = st
	s.changedLocked()
}

func (s *Session) changedLocked() {
	s.snap.UpdatedAt = s.clock.Now()
	s.seq++
	close(s.changed)
	s.changed = make(chan struct{})
}

func (s *Session) failLocked(f *farm.Failure) {
	if f.Transcript == "" {
		f.Transcript = s.snap.Transcript
	}
	s.snap.Transcript = f.Transcript
	s.snap.Intent = nil
	s.snap.ErrorKind = f.Kind
	s.snap.Error = i18n.FailureMessage(s.snap.Language, f.Kind)
	s.logger.Info("attempt failed", "attempt_id", s.snap.AttemptID, "kind", f.Kind, "error", f.Err)
	s.setLocked(Failed)
}

func (s *Session) toIdleLocked() {
	lang := s.snap.Language
	if s.pendingLang != "" {
		lang = s.pendingLang
		s.pendingLang = ""
	}
	s.snap = Snapshot{State: Idle, Language: lang}
	s.changedLocked()
}

func (s *Session) copyLocked() Snapshot {
	snap := s.snap
	snap.Intent = s.snap.Intent.Clone()
	return snap
}

// unlockAndNotify releases mu and delivers the snapshot taken under it.
func (s *Session) unlockAndNotify() (Snapshot, error) {
	snap := s.copyLocked()
	seq := s.seq
	s.mu.Unlock()
	s.deliver(seq, snap)
	return snap, nil
}

func (s *Session) deliver(seq uint64, snap Snapshot) {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	if seq <= s.delivered {
		return
	}
	s.delivered = seq
	for _, fn := range s.observers {
		fn(snap)
	}
}

// speak may be called with mu held; Speaker never blocks.
func (s *Session) speak(text, lang string) {
	if s.speaker != nil && text != "" {
		s.speaker.Speak(text, lang)
	}
}
