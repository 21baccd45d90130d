package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hasti-ptl/Krishisahayk/internal/assistant"
	"github.com/hasti-ptl/Krishisahayk/internal/capture"
	"github.com/hasti-ptl/Krishisahayk/internal/config"
	"github.com/hasti-ptl/Krishisahayk/internal/farm"
	"github.com/hasti-ptl/Krishisahayk/internal/session"
)

type fakeService struct {
	snap       session.Snapshot
	err        error
	weatherErr error
	lang       string
	text       string
	audio      []byte
	audioType  string
	summary    farm.Summary
}

func (f *fakeService) result() (session.Snapshot, error) { return f.snap, f.err }

func (f *fakeService) StartSession(context.Context) (session.Snapshot, error) { return f.result() }
func (f *fakeService) Confirm(context.Context) (session.Snapshot, error) { return f.result() }
func (f *fakeService) Reject() (session.Snapshot, error) { return f.result() }
func (f *fakeService) Retry() (session.Snapshot, error) { return f.result() }
func (f *fakeService) Snapshot() session.Snapshot { return f.snap }
func (f *fakeService) Observe(func(session.Snapshot)) func() { return func() {} }

func (f *fakeService) SetLanguage(code string) session.Snapshot {
	f.lang = code
	return session.Snapshot{State: session.Idle, Language: code}
}

func (f *fakeService) SubmitTranscript(_ context.Context, text string) (session.Snapshot, error) {
	f.text = text
	return f.result()
}

func (f *fakeService) SubmitAudio(_ context.Context, audio []byte, ct string) (session.Snapshot, error) {
	f.audio, f.audioType = audio, ct
	return f.result()
}

func (f *fakeService) WeatherReading(context.Context) (*farm.WeatherReading, error) {
	if f.weatherErr != nil {
		return nil, f.weatherErr
	}
	return &farm.WeatherReading{LocationName: "Nashik, Maharashtra"}, nil
}

func (f *fakeService) TransactionSummary(context.Context) (farm.Summary, error) {
	return f.summary, nil
}

func (f *fakeService) Activities(context.Context) ([]farm.ActivityRecord, error) { return nil, nil }

func (f *fakeService) Transactions(context.Context) ([]farm.TransactionRecord, error) {
	return []farm.TransactionRecord{{ID: 1, Type: farm.TransactionIncome, Amount: 100}}, nil
}

func (f *fakeService) Overview(context.Context) (*assistant.Overview, error) {
	return &assistant.Overview{Summary: f.summary}, nil
}

func serve(t *testing.T, svc *fakeService) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(config.HTTPConfig{MaxAudioSize: 16}, nil).Handler(svc))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, contentType string, body []byte) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

func TestSessionRoutes(t *testing.T) {
	t.Parallel()

	svc := &fakeService{snap: session.Snapshot{State: session.Listening, Language: "en-IN"}}
	srv := serve(t, svc)

	for _, path := range []string{"/session/start", "/session/confirm", "/session/reject", "/session/retry"} {
		resp, body := do(t, http.MethodPost, srv.URL+path, "", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		var snap session.Snapshot
		require.NoError(t, json.Unmarshal(body, &snap))
		assert.Equal(t, session.Listening, snap.State)
	}

	resp, _ := do(t, http.MethodGet, srv.URL+"/session", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, http.MethodGet, srv.URL+"/session/start", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestErrorStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: confirm in state Idle", session.ErrInvalidTransition), http.StatusConflict},
		{capture.ErrNotListening, http.StatusConflict},
		{assistant.ErrNoTranscriber, http.StatusServiceUnavailable},
		{session.ErrClosed, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		svc := &fakeService{snap: session.Snapshot{State: session.Idle}, err: tt.err}
		srv := serve(t, svc)

		resp, body := do(t, http.MethodPost, srv.URL+"/session/confirm", "", nil)
		assert.Equal(t, tt.want, resp.StatusCode, tt.err.Error())

		var er ErrorResponse
		require.NoError(t, json.Unmarshal(body, &er))
		assert.Equal(t, tt.err.Error(), er.Error)
		require.NotNil(t, er.Session)
		assert.Equal(t, session.Idle, er.Session.State)
	}
}

func TestTranscript(t *testing.T) {
	t.Parallel()

	svc := &fakeService{snap: session.Snapshot{State: session.AwaitingConfirmation}}
	srv := serve(t, svc)

	resp, _ := do(t, http.MethodPost, srv.URL+"/session/transcript", "application/json; charset=utf-8",
		[]byte(`{"text":"sowed two acres of tomato today"}`))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "sowed two acres of tomato today", svc.text)

	resp, _ = do(t, http.MethodPost, srv.URL+"/session/transcript", "audio/ogg", []byte("OggS"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []byte("OggS"), svc.audio)
	assert.Equal(t, "audio/ogg", svc.audioType)

	resp, _ = do(t, http.MethodPost, srv.URL+"/session/transcript", "audio/wav", bytes.Repeat([]byte{1}, 17))
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, srv.URL+"/session/transcript", "audio/wav", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, srv.URL+"/session/transcript", "application/json", []byte(`{`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSetLanguage(t *testing.T) {
	t.Parallel()

	svc := &fakeService{}
	srv := serve(t, svc)

	resp, body := do(t, http.MethodPut, srv.URL+"/session/language", "application/json", []byte(`{"language":"mr-IN"}`))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "mr-IN", svc.lang)
	assert.Contains(t, string(body), `"language":"mr-IN"`)

	resp, _ = do(t, http.MethodPut, srv.URL+"/session/language", "application/json", []byte(`{}`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReadRoutes(t *testing.T) {
	t.Parallel()

	svc := &fakeService{summary: farm.Summary{TotalIncome: 100, TotalExpense: 40, NetProfit: 60}}
	srv := serve(t, svc)

	resp, body := do(t, http.MethodGet, srv.URL+"/ledger/summary", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"total_income":100,"total_expense":40,"net_profit":60}`, string(body))

	resp, body = do(t, http.MethodGet, srv.URL+"/ledger/activities", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(body))

	resp, body = do(t, http.MethodGet, srv.URL+"/ledger/transactions", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"type":"INCOME"`)

	resp, body = do(t, http.MethodGet, srv.URL+"/weather", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Nashik")

	resp, _ = do(t, http.MethodGet, srv.URL+"/overview", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWeatherUnavailable(t *testing.T) {
	t.Parallel()

	svc := &fakeService{weatherErr: farm.NewFailure(farm.KindTelemetryUnavailable, errors.New("no cache"))}
	srv := serve(t, svc)

	resp, _ := do(t, http.MethodGet, srv.URL+"/weather", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
