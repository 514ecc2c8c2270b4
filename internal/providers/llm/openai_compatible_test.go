package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sandevgo/pulsebot/internal/core"
)

func sseServer(t *testing.T, events ...string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, ev := range events {
			fmt.Fprintf(w, "data: %s\n\n", ev)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
}

func delta(content string) string {
	return fmt.Sprintf(`{"choices":[{"delta":{"content":%q}}]}`, content)
}

func newTestProvider(baseURL string) *OpenAICompatible {
	return NewOpenAICompatible(OpenAICompatibleConfig{
		BaseURL:    baseURL,
		APIKey:     "test-key",
		Model:      "test-model",
		AuthHeader: "Authorization",
		AuthPrefix: "Bearer ",
	})
}

func TestStream_DeliversDeltasInOrder(t *testing.T) {
	srv := sseServer(t, delta("Hel"), delta("lo "), `{"choices":[{"delta":{}}]}`, delta("world"))
	defer srv.Close()

	p := newTestProvider(srv.URL)

	var got []string
	err := p.Stream(context.Background(), []core.Message{{Role: "user", Content: "hi"}}, func(chunk string) error {
		got = append(got, chunk)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"Hel", "lo ", "world"}
	if len(got) != len(want) {
		t.Fatalf("chunks = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("chunk[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestStream_OnChunkErrorAborts(t *testing.T) {
	srv := sseServer(t, delta("a"), delta("b"), delta("c"))
	defer srv.Close()

	p := newTestProvider(srv.URL)

	abort := errors.New("stop")
	count := 0
	err := p.Stream(context.Background(), nil, func(string) error {
		count++
		if count == 2 {
			return abort
		}
		return nil
	})
	if !errors.Is(err, abort) {
		t.Fatalf("expected abort error, got %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 chunk calls, got %d", count)
	}
}

func TestStream_HTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := newTestProvider(srv.URL)
	err := p.Stream(context.Background(), nil, func(string) error { return nil })
	if err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestChat_ParsesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("auth header = %q", got)
		}
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"summary text"}}]}`)
	}))
	defer srv.Close()

	p := newTestProvider(srv.URL)
	msg, err := p.Chat(context.Background(), []core.Message{{Role: "user", Content: "summarize"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Content != "summary text" {
		t.Errorf("content = %q", msg.Content)
	}
}

func TestSetModel_AffectsNextCall(t *testing.T) {
	p := newTestProvider("http://unused")
	p.SetModel("other-model")
	if got := p.getModel(); got != "other-model" {
		t.Errorf("model = %q", got)
	}
}
