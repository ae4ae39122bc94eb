package beats

import (
	"context"
	"fmt"
	"log"
	"math"

	"github.com/igolaizola/rapgen/pkg/beat"
	"github.com/igolaizola/rapgen/pkg/storage"
)

type Config struct {
	Debug  bool
	Dir    string
	DBType string
	DBConn string
}

// Run scans the beats folder, refreshes the catalog and prints it.
func Run(ctx context.Context, cfg *Config) error {
	log.Println("beats: started")
	defer log.Println("beats: ended")

	if cfg.Dir == "" {
		return fmt.Errorf("beats: missing beats folder")
	}
	var store *storage.Store
	if cfg.DBType != "" {
		s, err := storage.New(cfg.DBType, cfg.DBConn, cfg.Debug)
		if err != nil {
			return fmt.Errorf("beats: couldn't create orm store: %w", err)
		}
		if err := s.Start(ctx); err != nil {
			return fmt.Errorf("beats: couldn't start orm store: %w", err)
		}
		if err := s.Migrate(ctx); err != nil {
			return fmt.Errorf("beats: couldn't migrate orm store: %w", err)
		}
		store = s
	}

	catalog := beat.NewCatalog(cfg.Dir, store, cfg.Debug)
	tracks, err := catalog.Scan(ctx)
	if err != nil {
		return fmt.Errorf("beats: %w", err)
	}
	for _, t := range tracks {
		fmt.Printf("%s\t%s\t%s\n", t.Name, t.Format, formatDuration(t.Duration))
	}
	return nil
}

func formatDuration(d float64) string {
	if math.IsInf(d, 0) || math.IsNaN(d) {
		return "stream"
	}
	return fmt.Sprintf("%.1fs", d)
}
