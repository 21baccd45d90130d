// Package http implements the HTTP transport for krishisahayak.
//
// It exposes the assistant as a small REST API for the farmer's phone or a
// web front end: session control, transcript and audio submission, weather
// and ledger reads. Swagger UI is served at /swagger/.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/hasti-ptl/Krishisahayk/docs" // swagger spec
	"github.com/hasti-ptl/Krishisahayk/internal/assistant"
	"github.com/hasti-ptl/Krishisahayk/internal/capture"
	"github.com/hasti-ptl/Krishisahayk/internal/config"
	"github.com/hasti-ptl/Krishisahayk/internal/farm"
	"github.com/hasti-ptl/Krishisahayk/internal/session"
	"github.com/hasti-ptl/Krishisahayk/internal/transport"
)

// Transport implements transport.Transport over HTTP.
type Transport struct {
	port     int
	maxAudio int64
	logger   *slog.Logger
	server   *http.Server
}

// New creates a new HTTP transport.
func New(cfg config.HTTPConfig, logger *slog.Logger) *Transport {
	if logger == nil {
		logger = slog.Default()
	}
	maxAudio := cfg.MaxAudioSize
	if maxAudio <= 0 {
		maxAudio = 10 << 20
	}
	return &Transport{port: cfg.Port, maxAudio: maxAudio, logger: logger.With("transport", "http")}
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "http" }

// TranscriptRequest is the JSON body of POST /session/transcript.
type TranscriptRequest struct {
	Text string `json:"text" example:"sowed two acres of tomato today"`
}

// LanguageRequest is the JSON body of PUT /session/language.
type LanguageRequest struct {
	Language string `json:"language" example:"hi-IN"`
}

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Session *session.Snapshot `json:"session,omitempty"`
}

// Handler builds the route table for svc.
func (t *Transport) Handler(svc transport.Service) http.Handler {
	mux := http.NewServeMux()
	h := &handlers{svc: svc, maxAudio: t.maxAudio, logger: t.logger}

	mux.HandleFunc("GET /session", h.getSession)
	mux.HandleFunc("POST /session/start", h.start)
	mux.HandleFunc("POST /session/confirm", h.confirm)
	mux.HandleFunc("POST /session/reject", h.reject)
	mux.HandleFunc("POST /session/retry", h.retry)
	mux.HandleFunc("PUT /session/language", h.setLanguage)
	mux.HandleFunc("POST /session/transcript", h.transcript)

	mux.HandleFunc("GET /weather", h.weather)
	mux.HandleFunc("GET /overview", h.overview)
	mux.HandleFunc("GET /ledger/summary", h.summary)
	mux.HandleFunc("GET /ledger/activities", h.activities)
	mux.HandleFunc("GET /ledger/transactions", h.transactions)

	mux.Handle("GET /swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	return mux
}

// Listen starts the HTTP server. It blocks until the context is cancelled.
func (t *Transport) Listen(ctx context.Context, svc transport.Service) error {
	t.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", t.port),
		Handler:           t.Handler(svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	t.logger.Info("http transport listening", "port", t.port)

	go func() {
		<-ctx.Done()
		t.logger.Info("http transport shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = t.server.Shutdown(shutdownCtx)
	}()

	if err := t.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http listen: %w", err)
	}
	return nil
}

// Close gracefully shuts down the HTTP server.
func (t *Transport) Close() error {
	if t.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return t.server.Shutdown(ctx)
	}
	return nil
}

type handlers struct {
	svc      transport.Service
	maxAudio int64
	logger   *slog.Logger
}

// getSession returns the current session snapshot.
//
// @Summary  Current session state
// @Tags     session
// @Produce  json
// @Success  200  {object}  session.Snapshot
// @Router   /session [get]
func (h *handlers) getSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Snapshot())
}

// start opens a listening window.
//
// @Summary      Start listening
// @Description  Idle -> Listening. If the capture device is unavailable the session moves to Failed.
// @Tags         session
// @Produce      json
// @Success      200  {object}  session.Snapshot
// @Failure      409  {object}  ErrorResponse  "Session is not idle"
// @Router       /session/start [post]
func (h *handlers) start(w http.ResponseWriter, r *http.Request) {
	h.snapshotResult(w)(h.svc.StartSession(r.Context()))
}

// confirm commits the intent awaiting confirmation.
//
// @Summary      Confirm the parsed intent
// @Description  Persists an activity or transaction. Other intents fail with UnsupportedIntent.
// @Tags         session
// @Produce      json
// @Success      200  {object}  session.Snapshot
// @Failure      409  {object}  ErrorResponse  "Nothing awaits confirmation"
// @Router       /session/confirm [post]
func (h *handlers) confirm(w http.ResponseWriter, r *http.Request) {
	h.snapshotResult(w)(h.svc.Confirm(r.Context()))
}

// reject discards the intent awaiting confirmation.
//
// @Summary  Reject the parsed intent
// @Tags     session
// @Produce  json
// @Success  200  {object}  session.Snapshot
// @Failure  409  {object}  ErrorResponse  "Nothing awaits confirmation"
// @Router   /session/reject [post]
func (h *handlers) reject(w http.ResponseWriter, r *http.Request) {
	h.snapshotResult(w)(h.svc.Reject())
}

// retry clears a failure.
//
// @Summary  Retry after a failure
// @Tags     session
// @Produce  json
// @Success  200  {object}  session.Snapshot
// @Failure  409  {object}  ErrorResponse  "Session has not failed"
// @Router   /session/retry [post]
func (h *handlers) retry(w http.ResponseWriter, r *http.Request) {
	h.snapshotResult(w)(h.svc.Retry())
}

// setLanguage changes the active language.
//
// @Summary      Set the active language
// @Description  Takes effect immediately when idle, otherwise at the next start.
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      LanguageRequest  true  "BCP 47 tag: en-IN, hi-IN or mr-IN"
// @Success      200   {object}  session.Snapshot
// @Failure      400   {object}  ErrorResponse
// @Router       /session/language [put]
func (h *handlers) setLanguage(w http.ResponseWriter, r *http.Request) {
	var req LanguageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Language == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "body must be {\"language\": \"<bcp47 tag>\"}"})
		return
	}
	writeJSON(w, http.StatusOK, h.svc.SetLanguage(req.Language))
}

// transcript submits what the farmer said.
//
// @Summary      Submit a transcript or recording
// @Description  A JSON body carries the device's final transcript. Any other content type is treated as
// @Description  recorded audio and transcribed first. Returns once the transcript is structured.
// @Tags         session
// @Accept       json
// @Accept       audio/wav
// @Accept       audio/ogg
// @Accept       audio/webm
// @Produce      json
// @Param        body  body      TranscriptRequest  true  "Final transcript (JSON), or raw audio bytes"
// @Success      200   {object}  session.Snapshot
// @Failure      400   {object}  ErrorResponse  "Invalid body"
// @Failure      409   {object}  ErrorResponse  "Session is not listening"
// @Failure      413   {object}  ErrorResponse  "Audio too large"
// @Router       /session/transcript [post]
func (h *handlers) transcript(w http.ResponseWriter, r *http.Request) {
	contentType := r.Header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType)

	if mediaType == "application/json" {
		var req TranscriptRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json: " + err.Error()})
			return
		}
		h.snapshotResult(w)(h.svc.SubmitTranscript(r.Context(), req.Text))
		return
	}

	audio, err := io.ReadAll(io.LimitReader(r.Body, h.maxAudio+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "reading audio: " + err.Error()})
		return
	}
	if int64(len(audio)) > h.maxAudio {
		writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: fmt.Sprintf("audio exceeds %d bytes", h.maxAudio)})
		return
	}
	if len(audio) == 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "empty audio body"})
		return
	}
	h.snapshotResult(w)(h.svc.SubmitAudio(r.Context(), audio, contentType))
}

// weather returns the current reading with crop recommendations.
//
// @Summary      Weather and crop suitability
// @Description  Live reading when possible, otherwise the last cached one.
// @Tags         telemetry
// @Produce      json
// @Success      200  {object}  farm.WeatherReading
// @Failure      503  {object}  ErrorResponse  "No reading available"
// @Router       /weather [get]
func (h *handlers) weather(w http.ResponseWriter, r *http.Request) {
	reading, err := h.svc.WeatherReading(r.Context())
	if err != nil {
		h.writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, reading)
}

// overview returns weather and the transaction summary together.
//
// @Summary  Dashboard overview
// @Tags     telemetry
// @Produce  json
// @Success  200  {object}  assistant.Overview
// @Failure  500  {object}  ErrorResponse
// @Router   /overview [get]
func (h *handlers) overview(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.Overview(r.Context())
	if err != nil {
		h.writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// summary returns income, expense and net profit.
//
// @Summary  Transaction summary
// @Tags     ledger
// @Produce  json
// @Success  200  {object}  farm.Summary
// @Failure  500  {object}  ErrorResponse
// @Router   /ledger/summary [get]
func (h *handlers) summary(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.TransactionSummary(r.Context())
	if err != nil {
		h.writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// activities lists activity records, newest first.
//
// @Summary  Activity log
// @Tags     ledger
// @Produce  json
// @Success  200  {array}   farm.ActivityRecord
// @Failure  500  {object}  ErrorResponse
// @Router   /ledger/activities [get]
func (h *handlers) activities(w http.ResponseWriter, r *http.Request) {
	recs, err := h.svc.Activities(r.Context())
	if err != nil {
		h.writeError(w, err, nil)
		return
	}
	if recs == nil {
		recs = []farm.ActivityRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

// transactions lists transaction records, newest first.
//
// @Summary  Transaction log
// @Tags     ledger
// @Produce  json
// @Success  200  {array}   farm.TransactionRecord
// @Failure  500  {object}  ErrorResponse
// @Router   /ledger/transactions [get]
func (h *handlers) transactions(w http.ResponseWriter, r *http.Request) {
	recs, err := h.svc.Transactions(r.Context())
	if err != nil {
		h.writeError(w, err, nil)
		return
	}
	if recs == nil {
		recs = []farm.TransactionRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

// snapshotResult writes a session operation's outcome.
func (h *handlers) snapshotResult(w http.ResponseWriter) func(session.Snapshot, error) {
	return func(snap session.Snapshot, err error) {
		if err != nil {
			h.writeError(w, err, &snap)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func (h *handlers) writeError(w http.ResponseWriter, err error, snap *session.Snapshot) {
	code := statusFor(err)
	if code >= 500 {
		h.logger.Error("request failed", "error", err)
	}
	writeJSON(w, code, ErrorResponse{Error: err.Error(), Session: snap})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrInvalidTransition), errors.Is(err, capture.ErrNotListening):
		return http.StatusConflict
	case errors.Is(err, farm.ErrTelemetryUnavailable),
		errors.Is(err, session.ErrClosed),
		errors.Is(err, assistant.ErrNoTranscriber):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
