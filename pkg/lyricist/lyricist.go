package lyricist

import (
	"context"
	"fmt"

	"github.com/igolaizola/rapgen/pkg/lyrics"
	"github.com/igolaizola/rapgen/pkg/openai"
)

const (
	systemPrompt = "You are a Grammy-winning rap lyricist. Write vivid, original rap verses with strong imagery and internal rhymes. Provide lyrics only, no explanations."
	temperature  = 0.85
)

type completer interface {
	Complete(ctx context.Context, cmp *openai.Completion) (string, error)
}

// Lyricist writes rap verses through a chat completion backend.
type Lyricist struct {
	client completer
}

func New(client *openai.Client) *Lyricist {
	return &Lyricist{client: client}
}

// Prompt returns the user prompt for a request.
func Prompt(req lyrics.Request) string {
	label := string(req.Length)
	if p, ok := lyrics.ProfileOf(req.Length); ok {
		label = p.Label
	}
	return fmt.Sprintf("Write a %s rap verse about the theme %q with a %s vibe. Keep each line punchy and rhythmic.", label, req.Theme, req.Mood)
}

// Generate implements generator.Client.
func (l *Lyricist) Generate(ctx context.Context, req lyrics.Request, budget int) (string, error) {
	text, err := l.client.Complete(ctx, &openai.Completion{
		System:      systemPrompt,
		User:        Prompt(req),
		MaxTokens:   budget,
		Temperature: temperature,
	})
	if err != nil {
		if openai.IsAuthError(err) {
			return "", fmt.Errorf("lyricist: %w: %v", lyrics.ErrConfiguration, err)
		}
		return "", fmt.Errorf("lyricist: %w: %v", lyrics.ErrUpstream, err)
	}
	if text == "" {
		return "", fmt.Errorf("lyricist: backend returned no text: %w", lyrics.ErrEmptyResponse)
	}
	return text, nil
}
