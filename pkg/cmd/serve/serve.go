package serve

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/igolaizola/rapgen"
	"github.com/igolaizola/rapgen/pkg/api"
	"github.com/igolaizola/rapgen/pkg/beat"
	"github.com/igolaizola/rapgen/pkg/export"
	"github.com/igolaizola/rapgen/pkg/storage"
	"github.com/pkg/browser"
)

type Config struct {
	rapgen.Config

	Addr      string
	Dist      string
	BeatsDir  string
	DBType    string
	DBConn    string
	Watermark string
	Open      bool
}

// Run starts the HTTP server until the context is cancelled.
func Run(ctx context.Context, cfg *Config) error {
	log.Println("serve: started")
	defer log.Println("serve: ended")

	if cfg.Server != "" {
		return fmt.Errorf("serve: a server can't proxy to another server (%s)", cfg.Server)
	}
	if cfg.OpenAIKey == "" && cfg.GroqKey == "" {
		log.Println("serve: no API key found, the server will start but lyric requests will fail")
		log.Println("serve: set either OPENAI_API_KEY or GROQ_API_KEY")
	}

	var catalog *beat.Catalog
	if cfg.BeatsDir != "" {
		var store *storage.Store
		if cfg.DBType != "" {
			s, err := storage.New(cfg.DBType, cfg.DBConn, cfg.Debug)
			if err != nil {
				return fmt.Errorf("serve: couldn't create orm store: %w", err)
			}
			if err := s.Start(ctx); err != nil {
				return fmt.Errorf("serve: couldn't start orm store: %w", err)
			}
			if err := s.Migrate(ctx); err != nil {
				return fmt.Errorf("serve: couldn't migrate orm store: %w", err)
			}
			store = s
		}
		catalog = beat.NewCatalog(cfg.BeatsDir, store, cfg.Debug)
		tracks, err := catalog.Scan(ctx)
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		log.Printf("serve: %d beats in %s\n", len(tracks), cfg.BeatsDir)
	}

	env := "development"
	if cfg.Production {
		env = "production"
	}
	log.Printf("serve: environment %s\n", env)

	srv := api.New(&api.Config{
		Debug:      cfg.Debug,
		Production: cfg.Production,
		Addr:       cfg.Addr,
		Dist:       cfg.Dist,
		Watermark:  cfg.Watermark,
	}, rapgen.NewClient(&cfg.Config), catalog, export.NewFontRenderer("", ""))

	if cfg.Open {
		go func() {
			// Give the server some time to start listening
			select {
			case <-ctx.Done():
				return
			case <-time.After(500 * time.Millisecond):
			}
			u := "http://" + cfg.Addr
			if strings.HasPrefix(cfg.Addr, ":") || strings.HasPrefix(cfg.Addr, "0.0.0.0:") {
				u = "http://localhost:" + cfg.Addr[strings.LastIndex(cfg.Addr, ":")+1:]
			}
			if err := browser.OpenURL(u); err != nil {
				log.Printf("serve: couldn't open browser: %v\n", err)
			}
		}()
	}
	return srv.Serve(ctx)
}
