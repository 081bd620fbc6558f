package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONHandler_Output(t *testing.T) {
	buf := &bytes.Buffer{}
	h := NewJSONHandler(strings.NewReader(""), buf)

	require.NoError(t, h.Output(context.Background(), Message{Kind: MessageQuestion, Text: "How old are you?", Stage: 1}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var decoded Message
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &decoded))
	assert.Equal(t, MessageQuestion, decoded.Kind)
	assert.Equal(t, "How old are you?", decoded.Text)
	assert.Equal(t, 1, decoded.Stage)
}

func TestJSONHandler_Input(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"json string", `"Alice"` + "\n", "Alice"},
		{"message object", `{"message":"Night owl"}` + "\n", "Night owl"},
		{"plain text", "30\n", "30"},
		{"no trailing newline", "Beach", "Beach"},
		{"control characters", "\"a\\u0007b\"\n", "ab"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewJSONHandler(strings.NewReader(tt.input), io.Discard)
			got, err := h.Input(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJSONHandler_InputEOF(t *testing.T) {
	h := NewJSONHandler(strings.NewReader(""), io.Discard)
	_, err := h.Input(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestJSONHandler_SystemOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	h := NewJSONHandler(nil, buf)
	require.NoError(t, h.SystemOutput(context.Background(), "Starting over."))
	assert.JSONEq(t, `{"kind":"system","text":"Starting over."}`, buf.String())
}
