package dispatch

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	Kind    string // text, photo, suggest, typing
	Text    string
	URL     string
	Caption string
	Labels  []string
}

type fakeMessenger struct {
	calls    []call
	failText map[string]bool
}

func (f *fakeMessenger) SendText(_ context.Context, _ string, text string) error {
	if f.failText[text] {
		return errors.New("send failed")
	}
	f.calls = append(f.calls, call{Kind: "text", Text: text})
	return nil
}

func (f *fakeMessenger) SendPhoto(_ context.Context, _ string, url, caption string) error {
	f.calls = append(f.calls, call{Kind: "photo", URL: url, Caption: caption})
	return nil
}

func (f *fakeMessenger) SendSuggestions(_ context.Context, _ string, body string, labels []string) error {
	f.calls = append(f.calls, call{Kind: "suggest", Text: body, Labels: labels})
	return nil
}

func (f *fakeMessenger) NotifyTyping(_ context.Context, _ string) {
	f.calls = append(f.calls, call{Kind: "typing"})
}

func run(t *testing.T, chunks ...string) (*fakeMessenger, *Dispatcher) {
	t.Helper()
	m := &fakeMessenger{failText: map[string]bool{}}
	d := New(m, "chat-1", Config{})
	ctx := context.Background()
	for _, c := range chunks {
		require.NoError(t, d.Consume(ctx, c))
	}
	d.Flush(ctx)
	return m, d
}

// sends drops typing notifications, which are best-effort and not part of
// the ordering contract.
func sends(m *fakeMessenger) []call {
	var out []call
	for _, c := range m.calls {
		if c.Kind != "typing" {
			out = append(out, c)
		}
	}
	return out
}

func TestDispatcher_ChunkBoundaryIndependence(t *testing.T) {
	const response = "Hello there\nTG_IMAGE http://x/y.png; a cat\nTG_CONCLUSION Pick one;A;B\ntrailing"

	// Reference: the whole response as a single chunk.
	ref, _ := run(t, response)

	for size := 1; size <= len(response); size += 3 {
		t.Run(fmt.Sprintf("chunk_size_%d", size), func(t *testing.T) {
			var chunks []string
			for i := 0; i < len(response); i += size {
				end := i + size
				if end > len(response) {
					end = len(response)
				}
				chunks = append(chunks, response[i:end])
			}
			m, d := run(t, chunks...)
			assert.Equal(t, sends(ref), sends(m))
			assert.Equal(t, response, d.Accumulated())
		})
	}
}

func TestDispatcher_TrailingLineFlushedOnce(t *testing.T) {
	m, _ := run(t, "no trailing newline")
	require.Len(t, sends(m), 1)
	assert.Equal(t, call{Kind: "text", Text: "no trailing newline"}, sends(m)[0])
}

func TestDispatcher_FlushOnEmptyPendingIsNoop(t *testing.T) {
	m, d := run(t, "line\n")
	d.Flush(context.Background())
	require.Len(t, sends(m), 1)
}

func TestDispatcher_BlankLinesDropped(t *testing.T) {
	m, _ := run(t, "first\n\n   \n\nsecond\n")
	got := sends(m)
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Text)
	assert.Equal(t, "second", got[1].Text)
}

func TestDispatcher_ImageCommand(t *testing.T) {
	tests := []struct {
		name string
		line string
		want call
	}{
		{
			name: "url and caption",
			line: "TG_IMAGE http://x/y.png; caption",
			want: call{Kind: "photo", URL: "http://x/y.png", Caption: "caption"},
		},
		{
			name: "url only",
			line: "TG_IMAGE http://x/y.png;",
			want: call{Kind: "photo", URL: "http://x/y.png"},
		},
		{
			name: "no semicolon falls through to text",
			line: "TG_IMAGE no-semicolon-here",
			want: call{Kind: "text", Text: "TG_IMAGE no-semicolon-here"},
		},
		{
			name: "empty url falls through to text",
			line: "TG_IMAGE  ; caption",
			want: call{Kind: "text", Text: "TG_IMAGE  ; caption"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := run(t, tt.line+"\n")
			require.Len(t, sends(m), 1)
			assert.Equal(t, tt.want, sends(m)[0])
		})
	}
}

func TestDispatcher_ConclusionCommand(t *testing.T) {
	tests := []struct {
		name string
		line string
		want call
	}{
		{
			name: "body with one suggestion",
			line: "TG_CONCLUSION Pick one;A",
			want: call{Kind: "suggest", Text: "Pick one", Labels: []string{"A"}},
		},
		{
			name: "several suggestions with empties discarded",
			line: "TG_CONCLUSION How can I help?;Option A;;Option B; ",
			want: call{Kind: "suggest", Text: "How can I help?", Labels: []string{"Option A", "Option B"}},
		},
		{
			name: "no semicolon falls through to text",
			line: "TG_CONCLUSION just text",
			want: call{Kind: "text", Text: "TG_CONCLUSION just text"},
		},
		{
			name: "only empty suggestions fall through to text",
			line: "TG_CONCLUSION Pick one;;",
			want: call{Kind: "text", Text: "TG_CONCLUSION Pick one;;"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := run(t, tt.line+"\n")
			require.Len(t, sends(m), 1)
			assert.Equal(t, tt.want, sends(m)[0])
		})
	}
}

func TestDispatcher_LegacyConclusionPrefix(t *testing.T) {
	m := &fakeMessenger{failText: map[string]bool{}}
	d := New(m, "chat-1", Config{ConclusionPrefix: "CONCLUSION"})
	ctx := context.Background()

	require.NoError(t, d.Consume(ctx, "CONCLUSION Pick;A\nTG_CONCLUSION Pick;A\n"))

	got := sends(m)
	require.Len(t, got, 2)
	// Only the configured prefix is a command; the other grammar's line is
	// plain text.
	assert.Equal(t, "suggest", got[0].Kind)
	assert.Equal(t, "text", got[1].Kind)
}

func TestDispatcher_ImagePrecedesConclusion(t *testing.T) {
	// A line matching the image shape is an image even if the rest of the
	// payload looks conclusion-like.
	m, _ := run(t, "TG_IMAGE http://x/y.png;A;B\n")
	require.Len(t, sends(m), 1)
	assert.Equal(t, "photo", sends(m)[0].Kind)
}

func TestDispatcher_FailedSendSkipsToNextLine(t *testing.T) {
	m := &fakeMessenger{failText: map[string]bool{"second": true}}
	d := New(m, "chat-1", Config{})
	ctx := context.Background()

	require.NoError(t, d.Consume(ctx, "first\nsecond\nthird\n"))

	got := sends(m)
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Text)
	assert.Equal(t, "third", got[1].Text)
}

func TestDispatcher_AccumulatedKeepsCommandsVerbatim(t *testing.T) {
	const response = "intro\nTG_IMAGE http://x/y.png; cat\noutro"
	_, d := run(t, response)
	assert.Equal(t, response, d.Accumulated())
}

func TestDispatcher_TypingAfterTextAndPhoto(t *testing.T) {
	m, _ := run(t, "hello\nTG_IMAGE http://x/y.png; c\nTG_CONCLUSION Pick;A\n")

	kinds := make([]string, 0, len(m.calls))
	for _, c := range m.calls {
		kinds = append(kinds, c.Kind)
	}
	assert.Equal(t, []string{"text", "typing", "photo", "typing", "suggest"}, kinds)
}
