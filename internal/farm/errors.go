package farm

import (
	"errors"
	"fmt"
)

// ErrorKind names a terminal-for-the-attempt failure.
type ErrorKind string

const (
	KindDeviceUnavailable    ErrorKind = "DeviceUnavailable"
	KindCaptureError         ErrorKind = "CaptureError"
	KindEmptyInput           ErrorKind = "EmptyInput"
	KindStructuringFailed    ErrorKind = "StructuringFailed"
	KindUnsupportedIntent    ErrorKind = "UnsupportedIntent"
	KindPersistFailed        ErrorKind = "PersistFailed"
	KindTelemetryUnavailable ErrorKind = "TelemetryUnavailable"
)

// Sentinels for errors.Is checks against a Failure's kind.
var (
	ErrDeviceUnavailable    = errors.New("device unavailable")
	ErrCaptureError         = errors.New("capture error")
	ErrEmptyInput           = errors.New("empty input")
	ErrStructuringFailed    = errors.New("structuring failed")
	ErrUnsupportedIntent    = errors.New("unsupported intent")
	ErrPersistFailed        = errors.New("persist failed")
	ErrTelemetryUnavailable = errors.New("telemetry unavailable")
)

var kindSentinels = map[ErrorKind]error{
	KindDeviceUnavailable:    ErrDeviceUnavailable,
	KindCaptureError:         ErrCaptureError,
	KindEmptyInput:           ErrEmptyInput,
	KindStructuringFailed:    ErrStructuringFailed,
	KindUnsupportedIntent:    ErrUnsupportedIntent,
	KindPersistFailed:        ErrPersistFailed,
	KindTelemetryUnavailable: ErrTelemetryUnavailable,
}

// Failure is a typed outcome of a failed attempt. Transcript is set when the
// failure happened after a transcript was captured, so it can be shown again.
type Failure struct {
	Kind       ErrorKind
	Transcript string
	Err        error
}

// NewFailure wraps err under kind.
func NewFailure(kind ErrorKind, err error) *Failure {
	return &Failure{Kind: kind, Err: err}
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return string(f.Kind)
	}
	return fmt.Sprintf("%s: %v", f.Kind, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// Is matches the sentinel for the failure's kind.
func (f *Failure) Is(target error) bool {
	s, ok := kindSentinels[f.Kind]
	return ok && s == target
}

// KindOf extracts the failure kind from err, falling back to def when err
// carries no Failure.
func KindOf(err error, def ErrorKind) ErrorKind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return def
}
