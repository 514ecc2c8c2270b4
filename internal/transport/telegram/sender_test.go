package telegram

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitHTML_ShortTextIsSingleChunk(t *testing.T) {
	chunks := splitHTML("hello", 100)
	assert.Equal(t, []string{"hello"}, chunks)
}

func TestSplitHTML_PrefersNewlineBreaks(t *testing.T) {
	line := strings.Repeat("a", 60)
	text := line + "\n" + line + "\n" + line

	chunks := splitHTML(text, 100)
	require.Len(t, chunks, 3)
	for _, chunk := range chunks {
		assert.Equal(t, line, chunk, "breaks should land on newlines")
	}
}

func TestSplitHTML_HardCutWithoutNewlines(t *testing.T) {
	text := strings.Repeat("x", 250)

	chunks := splitHTML(text, 100)
	require.Len(t, chunks, 3)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 100)
	}
	assert.Equal(t, text, strings.Join(chunks, ""))
}

func TestSplitHTML_NothingLost(t *testing.T) {
	line := strings.Repeat("word ", 30)
	text := strings.TrimSpace(strings.Repeat(line+"\n", 40))

	chunks := splitHTML(text, 500)
	var words []string
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 500)
		words = append(words, strings.Fields(chunk)...)
	}
	assert.Equal(t, strings.Fields(text), words)
}

func TestRecipient(t *testing.T) {
	assert.Equal(t, "12345", recipient("12345").Recipient())
}
