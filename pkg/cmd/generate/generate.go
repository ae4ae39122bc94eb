package generate

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/igolaizola/rapgen"
	"github.com/igolaizola/rapgen/pkg/clipboard"
	"github.com/igolaizola/rapgen/pkg/filestore"
	"github.com/igolaizola/rapgen/pkg/generator"
	"github.com/igolaizola/rapgen/pkg/lyrics"
	"github.com/igolaizola/rapgen/pkg/studio"
)

type Config struct {
	rapgen.Config

	Theme   string
	Mood    string
	Length  string
	Preset  string
	Presets string

	FSType string
	FSConn string
	Copy   bool
}

// Request resolves the generation request from the preset and the explicit
// fields, explicit fields win.
func (c *Config) Request() (lyrics.Request, error) {
	var req lyrics.Request
	if c.Preset != "" {
		presets := lyrics.DefaultPresets()
		if c.Presets != "" {
			extra, err := lyrics.LoadPresets(c.Presets)
			if err != nil {
				return req, err
			}
			presets = append(presets, extra...)
		}
		p, ok := lyrics.FindPreset(presets, c.Preset)
		if !ok {
			return req, fmt.Errorf("%w: unknown preset %q", lyrics.ErrValidation, c.Preset)
		}
		req = p.Request()
	}
	if c.Theme != "" {
		req.Theme = c.Theme
	}
	if c.Mood != "" {
		req.Mood = c.Mood
	}
	if c.Length != "" {
		req.Length = lyrics.Length(strings.ToLower(strings.TrimSpace(c.Length)))
	}
	return req, req.Validate()
}

// Run generates a rap passage and prints it.
func Run(ctx context.Context, cfg *Config) error {
	log.Println("generate: started")
	defer log.Println("generate: ended")

	debug := func(format string, args ...interface{}) {
		if !cfg.Debug {
			return
		}
		format += "\n"
		log.Printf(format, args...)
	}

	req, err := cfg.Request()
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}

	c := generator.New(&generator.Config{
		Debug:      cfg.Debug,
		Production: cfg.Production,
	}, rapgen.NewClient(&cfg.Config))
	cancel := c.Subscribe(func(st generator.State) {
		debug("generate: %s", st.Status())
	})
	defer cancel()

	if err := c.Submit(ctx, req); err != nil {
		if st := c.State(); st.Phase == generator.Error {
			return fmt.Errorf("generate: %s: %w", st.Status(), err)
		}
		return fmt.Errorf("generate: %w", err)
	}
	doc := c.State().Document
	fmt.Println(strings.Join(doc.Lines, "\n"))

	if cfg.FSType != "" {
		fs, err := filestore.New(cfg.FSType, cfg.FSConn, cfg.Debug)
		if err != nil {
			return fmt.Errorf("generate: couldn't create file storage: %w", err)
		}
		if err := fs.Download(ctx, studio.TextFilename, "text/plain", []byte(doc.Raw)); err != nil {
			return fmt.Errorf("generate: couldn't save lyrics: %w", err)
		}
	}
	if cfg.Copy {
		// Copy failures don't invalidate the generated lyrics
		if err := clipboard.New().Copy(doc.Raw); err != nil {
			log.Printf("generate: %v\n", err)
		}
	}
	return nil
}
