package rapgen

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/igolaizola/rapgen/pkg/api"
	"github.com/igolaizola/rapgen/pkg/generator"
	"github.com/igolaizola/rapgen/pkg/lyricist"
	"github.com/igolaizola/rapgen/pkg/lyrics"
	"github.com/igolaizola/rapgen/pkg/openai"
)

// Config selects and configures the lyrics backend.
type Config struct {
	Debug      bool
	Production bool

	OpenAIKey string
	GroqKey   string
	// BaseURL of an OpenAI compatible backend such as Groq.
	BaseURL string
	Model   string
	// Server is the URL of a remote rapgen server. When set, lyrics are
	// requested to it instead of calling the backend directly.
	Server string
}

// Env fills the unset fields from the environment variables used by the
// web frontend deployment.
func (c *Config) Env() {
	set := func(v *string, keys ...string) {
		if *v != "" {
			return
		}
		for _, k := range keys {
			if s := strings.TrimSpace(os.Getenv(k)); s != "" {
				*v = s
				return
			}
		}
	}
	set(&c.OpenAIKey, "OPENAI_API_KEY")
	set(&c.GroqKey, "GROQ_API_KEY")
	set(&c.BaseURL, "GROQ_BASE_URL")
	if c.BaseURL != "" {
		set(&c.Model, "GROQ_MODEL_NAME")
	} else {
		set(&c.Model, "OPENAI_MODEL_NAME")
	}
	if !c.Production && os.Getenv("NODE_ENV") == "production" {
		c.Production = true
	}
}

// NewClient returns the generation client described by the config.
func NewClient(cfg *Config) generator.Client {
	httpClient := &http.Client{
		Timeout: 2 * time.Minute,
	}
	if cfg.Server != "" {
		return api.NewClient(cfg.Server, httpClient)
	}
	// The Groq key takes precedence over the OpenAI one
	token := cfg.GroqKey
	if token == "" {
		token = cfg.OpenAIKey
	}
	return lyricist.New(openai.New(&openai.Config{
		Debug:   cfg.Debug,
		Token:   token,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Client:  httpClient,
	}))
}

// GenerateLyrics generates a rap passage for the given request.
func GenerateLyrics(ctx context.Context, cfg *Config, req lyrics.Request) (*lyrics.Document, error) {
	c := generator.New(&generator.Config{
		Debug:      cfg.Debug,
		Production: cfg.Production,
	}, NewClient(cfg))
	if err := c.Submit(ctx, req); err != nil {
		return nil, err
	}
	st := c.State()
	if st.Document == nil {
		return nil, fmt.Errorf("rapgen: %s", st.Status())
	}
	return st.Document, nil
}
