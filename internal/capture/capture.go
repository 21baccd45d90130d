// Package capture models the speech capture device. A Device is activated
// with a language and delivers at most one final transcript (or error) per
// activation; interim results never reach the session.
package capture

import (
	"context"
	"errors"
	"sync"

	"github.com/hasti-ptl/Krishisahayk/internal/i18n"
)

var (
	// ErrNotListening is returned when a transcript arrives while no
	// activation is open.
	ErrNotListening = errors.New("capture device is not listening")

	// ErrUnavailable is returned by Activate after the device is closed.
	ErrUnavailable = errors.New("capture device unavailable")
)

// Result is the single outcome of one activation.
type Result struct {
	Transcript string
	Language   string
	Err        error
}

// Device is a speech capture device.
type Device interface {
	// Activate opens a listening window in language. The returned channel
	// yields exactly one Result and is then closed, unless the activation is
	// ended by Deactivate first, in which case it is closed without a value.
	Activate(ctx context.Context, language string) (<-chan Result, error)
	Deactivate()
}

// Inbox is a Device fed from outside the process: transports push final
// transcripts into it (Deliver) when the farmer's device has recognized
// speech.
type Inbox struct {
	mu       sync.Mutex
	ch       chan Result
	language string
	closed   bool
}

// NewInbox returns an Inbox that is not listening.
func NewInbox() *Inbox {
	return &Inbox{}
}

// Activate implements Device. A second Activate replaces the previous
// activation.
func (in *Inbox) Activate(_ context.Context, language string) (<-chan Result, error) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.closed {
		return nil, ErrUnavailable
	}
	in.closeLocked()
	in.ch = make(chan Result, 1)
	in.language = i18n.Normalize(language)
	return in.ch, nil
}

// Deactivate implements Device.
func (in *Inbox) Deactivate() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.closeLocked()
}

// Deliver hands a final transcript to the open activation.
func (in *Inbox) Deliver(transcript string) error {
	return in.send(Result{Transcript: transcript})
}

// Fail ends the open activation with a capture error.
func (in *Inbox) Fail(err error) error {
	if err == nil {
		err = errors.New("capture failed")
	}
	return in.send(Result{Err: err})
}

// Listening reports whether an activation is open.
func (in *Inbox) Listening() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.ch != nil
}

// Language is the language of the open activation, or "" when not listening.
func (in *Inbox) Language() string {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.ch == nil {
		return ""
	}
	return in.language
}

// Close makes the device unavailable and ends any open activation.
func (in *Inbox) Close() error {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.closed = true
	in.closeLocked()
	return nil
}

func (in *Inbox) send(r Result) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.ch == nil {
		return ErrNotListening
	}
	r.Language = in.language
	in.ch <- r
	close(in.ch)
	in.ch = nil
	return nil
}

func (in *Inbox) closeLocked() {
	if in.ch != nil {
		close(in.ch)
		in.ch = nil
	}
}
