package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "warn")

	l.Info("dropped")
	assert.Zero(t, buf.Len())

	l.Warn("kept", "status", 400)
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "kept", line["msg"])
	assert.EqualValues(t, 400, line["status"])
}

func TestContextRoundTrip(t *testing.T) {
	l := NewWithWriter(&bytes.Buffer{}, "info")
	ctx := IntoContext(context.Background(), l)

	assert.Same(t, l, FromContext(ctx))
	assert.Same(t, slog.Default(), FromContext(context.Background()))
}
