package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithContextAddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	Configure("debug", &buf)
	defer Configure("info", os.Stdout)

	ctx := ContextWithRequestID(context.Background(), "req-1")
	Infof(ctx, "hello %s", "world")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello world", line["message"])
	assert.Equal(t, "info", line["severity"])
	assert.Equal(t, "req-1", line["request_id"])
}
