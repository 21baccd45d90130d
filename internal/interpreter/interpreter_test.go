package interpreter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoOracle struct{ calls int }

func (e *echoOracle) Name() string { return "echo" }

func (e *echoOracle) Generate(_ context.Context, r Request) (string, error) {
	e.calls++
	return r.Prompt, nil
}

func (e *echoOracle) Close() error { return nil }

func TestRateLimited(t *testing.T) {
	t.Parallel()

	next := &echoOracle{}
	rl := NewRateLimited(next, 0.001, 1)
	assert.Equal(t, "echo", rl.Name())

	got, err := rl.Generate(context.Background(), Request{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hi", got)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = rl.Generate(ctx, Request{Prompt: "again"})
	assert.Error(t, err)
	assert.Equal(t, 1, next.calls)
}

func TestNormalizeLanguage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "hi", NormalizeLanguage("Hindi"))
	assert.Equal(t, "mr", NormalizeLanguage("marathi"))
	assert.Equal(t, "en", NormalizeLanguage("EN"))
	assert.Equal(t, "", NormalizeLanguage(""))
}

func TestAudioExt(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ".ogg", AudioExt("audio/ogg; codecs=opus"))
	assert.Equal(t, ".webm", AudioExt("audio/webm"))
	assert.Equal(t, ".mp3", AudioExt("audio/mpeg"))
	assert.Equal(t, ".wav", AudioExt("application/octet-stream"))
}

func TestSchemaInstruction(t *testing.T) {
	t.Parallel()

	assert.Contains(t, SchemaInstruction(Request{}), "JSON object")
	got := SchemaInstruction(Request{Schema: map[string]any{"required": []string{"intent"}}})
	assert.Contains(t, got, `"intent"`)
}
