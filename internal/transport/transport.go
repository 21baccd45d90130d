// Package transport defines the interface for pluggable presentation transports.
//
// Each transport (HTTP, MQTT, gRPC health) implements Transport and drives
// the same Service. The assistant does not care how a farmer's device
// reaches it; it only works with this contract.
package transport

import (
	"context"

	"github.com/hasti-ptl/Krishisahayk/internal/assistant"
	"github.com/hasti-ptl/Krishisahayk/internal/farm"
	"github.com/hasti-ptl/Krishisahayk/internal/session"
)

// Service is what transports expose. *assistant.Assistant implements it.
type Service interface {
	StartSession(ctx context.Context) (session.Snapshot, error)
	Confirm(ctx context.Context) (session.Snapshot, error)
	Reject() (session.Snapshot, error)
	Retry() (session.Snapshot, error)
	SetLanguage(code string) session.Snapshot
	Snapshot() session.Snapshot
	Observe(fn func(session.Snapshot)) (cancel func())
	SubmitTranscript(ctx context.Context, text string) (session.Snapshot, error)
	SubmitAudio(ctx context.Context, audio []byte, contentType string) (session.Snapshot, error)

	WeatherReading(ctx context.Context) (*farm.WeatherReading, error)
	TransactionSummary(ctx context.Context) (farm.Summary, error)
	Activities(ctx context.Context) ([]farm.ActivityRecord, error)
	Transactions(ctx context.Context) ([]farm.TransactionRecord, error)
	Overview(ctx context.Context) (*assistant.Overview, error)
}

var _ Service = (*assistant.Assistant)(nil)

// Transport is the interface that every transport adapter must implement.
type Transport interface {
	// Name returns the transport identifier (e.g., "grpc", "http", "mqtt").
	Name() string

	// Listen starts serving svc. It blocks until the context is cancelled.
	Listen(ctx context.Context, svc Service) error

	// Close gracefully shuts down the transport, draining in-flight work.
	Close() error
}
