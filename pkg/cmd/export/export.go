package export

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/igolaizola/rapgen"
	"github.com/igolaizola/rapgen/pkg/cmd/generate"
	"github.com/igolaizola/rapgen/pkg/export"
	"github.com/igolaizola/rapgen/pkg/filestore"
)

type Config struct {
	generate.Config

	Input     string
	Watermark string
	Filename  string
	Font      string
	FontBold  string
	Scale     float64
}

// Run renders lyrics to a watermarked PNG card. Lyrics are read from the
// input file or generated when no input is given.
func Run(ctx context.Context, cfg *Config) error {
	log.Println("export: started")
	defer log.Println("export: ended")

	var text string
	if cfg.Input != "" {
		b, err := os.ReadFile(cfg.Input)
		if err != nil {
			return fmt.Errorf("export: couldn't read lyrics: %w", err)
		}
		text = string(b)
	} else {
		req, err := cfg.Request()
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		doc, err := rapgen.GenerateLyrics(ctx, &cfg.Config.Config, req)
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		text = doc.Raw
	}

	fsType, fsConn := cfg.FSType, cfg.FSConn
	if fsType == "" {
		fsType, fsConn = "local", "."
	}
	fs, err := filestore.New(fsType, fsConn, cfg.Debug)
	if err != nil {
		return fmt.Errorf("export: couldn't create file storage: %w", err)
	}

	c := export.New(&export.Config{
		Debug: cfg.Debug,
		Scale: cfg.Scale,
		Alert: func(msg string) { log.Printf("export: %s\n", msg) },
	}, export.NewFontRenderer(cfg.Font, cfg.FontBold), fs)
	if err := c.Export(ctx, export.DefaultCard(text), text, cfg.Watermark, cfg.Filename); err != nil {
		return err
	}
	return nil
}
