package generator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hyperjump/ruiji/internal/config"
	"github.com/hyperjump/ruiji/internal/models"
	"github.com/sashabaranov/go-openai"
)

type stubCompleter struct {
	out          string
	err          error
	system, user string
}

func (s *stubCompleter) Name() string { return "stub" }

func (s *stubCompleter) Complete(_ context.Context, system, user string) (string, error) {
	s.system, s.user = system, user
	return s.out, s.err
}

var examples = []models.SimilarExample{
	{Context: "I feel anxious before exams", Response: "Try deep breathing."},
	{Context: "I can't focus", Response: "Break work into short sessions."},
}

func TestUserPrompt(t *testing.T) {
	p := UserPrompt("exam stress", examples)
	for _, want := range []string{
		"Example 1:\nUser Challenge: I feel anxious before exams\nCounseling Response: Try deep breathing.\n",
		"Example 2:\nUser Challenge: I can't focus\n",
		"User Challenge: exam stress\n\nCounseling Response:",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if !strings.HasSuffix(p, "Counseling Response:") {
		t.Error("prompt should end with the response cue")
	}
}

func TestCounselor_Respond(t *testing.T) {
	stub := &stubCompleter{out: "  Take it one step at a time.\n"}
	c := NewCounselor(stub, nil)

	got := c.Respond(context.Background(), "exam stress", examples)
	if got != "Take it one step at a time." {
		t.Errorf("got %q", got)
	}
	if stub.system != SystemPrompt || !strings.Contains(stub.user, "exam stress") {
		t.Error("prompts not passed to completer")
	}
}

func TestCounselor_Fallbacks(t *testing.T) {
	if got := NewCounselor(nil, nil).Respond(context.Background(), "q", nil); got != NotConfiguredMessage {
		t.Errorf("unconfigured: got %q", got)
	}
	failing := NewCounselor(&stubCompleter{err: errors.New("rate limited")}, nil)
	if got := failing.Respond(context.Background(), "q", examples); got != UnavailableMessage {
		t.Errorf("failure: got %q", got)
	}
}

func TestNew(t *testing.T) {
	c, err := New(config.GeneratorConfig{Provider: "openai"}, nil)
	if err != nil || c.Configured() {
		t.Errorf("openai without key: configured=%v err=%v", c != nil && c.Configured(), err)
	}
	c, err = New(config.GeneratorConfig{Provider: "openai", APIKey: "k", Model: "gpt-4"}, nil)
	if err != nil || !c.Configured() {
		t.Errorf("openai with key: err=%v", err)
	}
	if _, err := New(config.GeneratorConfig{Provider: "claude-local"}, nil); !errors.Is(err, models.ErrConfig) {
		t.Errorf("unknown provider: err=%v", err)
	}
}

func TestOpenAICompleter_Request(t *testing.T) {
	var got openai.ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatal(err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"hello"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	cfg := openai.DefaultConfig("k")
	cfg.BaseURL = srv.URL
	g := newOpenAICompleter(cfg, "gpt-4", 600, 0.7)

	out, err := g.Complete(context.Background(), "sys", "usr")
	if err != nil {
		t.Fatal(err)
	}
	if out != "hello" {
		t.Errorf("out=%q", out)
	}
	if got.Model != "gpt-4" || got.MaxTokens != 600 || len(got.Messages) != 2 {
		t.Errorf("request=%+v", got)
	}
	if got.Messages[0].Role != openai.ChatMessageRoleSystem || got.Messages[1].Content != "usr" {
		t.Errorf("messages=%+v", got.Messages)
	}
}
