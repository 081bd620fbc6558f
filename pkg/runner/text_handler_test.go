package runner

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/Tyler-Pritchard/Spokesperson/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextHandler_OutputRendersSummary(t *testing.T) {
	var out bytes.Buffer
	h := NewTextHandler(strings.NewReader(""), &out, WithTextHandlerRenderer(func(s string) (string, error) {
		return "Rendered: " + s, nil
	}))

	require.NoError(t, h.Output(context.Background(), Message{Kind: MessageSummary, Text: "Hello"}))
	require.NoError(t, h.Output(context.Background(), Message{Kind: MessageQuestion, Text: "Plain"}))
	assert.Equal(t, "Rendered: Hello\nPlain\n", out.String())
}

func TestTextHandler_OutputListsChoices(t *testing.T) {
	var out bytes.Buffer
	h := NewTextHandler(strings.NewReader(""), &out)

	q := domain.QuestionSpec{Prompt: "Pick one", Type: domain.AnswerChoice, Key: "k", Choices: []string{"A", "B"}}
	require.NoError(t, h.Output(context.Background(), Message{Kind: MessageQuestion, Text: q.Prompt, Question: &q}))
	assert.Equal(t, "Pick one (A / B)\n", out.String())
}

func TestTextHandler_Input(t *testing.T) {
	var out bytes.Buffer
	h := NewTextHandler(strings.NewReader("  my user input \n"), &out)

	val, err := h.Input(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "my user input", val)
	assert.Equal(t, "> ", out.String())

	_, err = h.Input(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestTextHandler_InputRetriesOversized(t *testing.T) {
	var out bytes.Buffer
	h := NewTextHandler(strings.NewReader("way too long\nok\n"), &out, WithTextHandlerMaxInput(4))

	val, err := h.Input(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", val)
	assert.Contains(t, out.String(), "Please try again.")
}

func TestTextHandler_InputCanceled(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	h := NewTextHandler(pr, io.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := h.Input(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
