package rapgen

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/igolaizola/rapgen/pkg/api"
	"github.com/igolaizola/rapgen/pkg/lyrics"
	"github.com/igolaizola/rapgen/pkg/lyricist"
)

type fakeClient struct{}

func (fakeClient) Generate(ctx context.Context, req lyrics.Request, budget int) (string, error) {
	return "one\n\ntwo\nthree", nil
}

func TestEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("GROQ_API_KEY", "gsk-groq")
	t.Setenv("GROQ_BASE_URL", "https://api.groq.com/openai/v1")
	t.Setenv("GROQ_MODEL_NAME", "llama")
	t.Setenv("OPENAI_MODEL_NAME", "gpt")
	t.Setenv("NODE_ENV", "production")

	cfg := &Config{OpenAIKey: "flag"}
	cfg.Env()
	if cfg.OpenAIKey != "flag" || cfg.GroqKey != "gsk-groq" || cfg.Model != "llama" || !cfg.Production {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestNewClient(t *testing.T) {
	if _, ok := NewClient(&Config{Server: "http://localhost:3000"}).(*api.Client); !ok {
		t.Error("expected api client")
	}
	if _, ok := NewClient(&Config{}).(*lyricist.Lyricist); !ok {
		t.Error("expected lyricist")
	}
}

func TestGenerateLyrics(t *testing.T) {
	srv := httptest.NewServer(api.New(&api.Config{}, fakeClient{}, nil, nil).Router())
	defer srv.Close()

	cfg := &Config{Server: srv.URL}
	doc, err := GenerateLyrics(context.Background(), cfg, lyrics.Request{Theme: "a", Mood: "b", Length: lyrics.Short})
	if err != nil {
		t.Fatal(err)
	}
	if doc.Len() != 3 {
		t.Errorf("unexpected lines %q", doc.Lines)
	}

	_, err = GenerateLyrics(context.Background(), cfg, lyrics.Request{Mood: "b", Length: lyrics.Short})
	if !errors.Is(err, lyrics.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestGenerateLyricsMissingKey(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	// No key and no server: the backend is never reached
	_, err := GenerateLyrics(context.Background(), &Config{BaseURL: srv.URL}, lyrics.Request{Theme: "a", Mood: "b", Length: lyrics.Short})
	if !errors.Is(err, lyrics.ErrConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}
}
