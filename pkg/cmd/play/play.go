package play

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/igolaizola/rapgen"
	"github.com/igolaizola/rapgen/pkg/beat"
	"github.com/igolaizola/rapgen/pkg/clipboard"
	"github.com/igolaizola/rapgen/pkg/cmd/generate"
	"github.com/igolaizola/rapgen/pkg/export"
	"github.com/igolaizola/rapgen/pkg/filestore"
	"github.com/igolaizola/rapgen/pkg/generator"
	"github.com/igolaizola/rapgen/pkg/lyrics"
	"github.com/igolaizola/rapgen/pkg/playback"
	"github.com/igolaizola/rapgen/pkg/studio"
)

type Config struct {
	generate.Config

	Input    string
	Beat     string
	BeatsDir string
	Interval time.Duration
	Export   bool
}

// textClient serves lyrics read from a file.
type textClient string

func (c textClient) Generate(ctx context.Context, req lyrics.Request, budget int) (string, error) {
	return string(c), nil
}

// Run generates lyrics, plays a beat and prints each line when it is reached.
func Run(ctx context.Context, cfg *Config) error {
	log.Println("play: started")
	defer log.Println("play: ended")

	var client generator.Client
	req := lyrics.Request{Theme: "file", Mood: "file", Length: lyrics.Medium}
	if cfg.Input != "" {
		b, err := os.ReadFile(cfg.Input)
		if err != nil {
			return fmt.Errorf("play: couldn't read lyrics: %w", err)
		}
		client = textClient(b)
	} else {
		r, err := cfg.Request()
		if err != nil {
			return fmt.Errorf("play: %w", err)
		}
		req = r
		client = rapgen.NewClient(&cfg.Config.Config)
	}

	catalog := beat.NewCatalog(cfg.BeatsDir, nil, cfg.Debug)
	if cfg.BeatsDir != "" {
		if _, err := catalog.Scan(ctx); err != nil {
			return fmt.Errorf("play: %w", err)
		}
	}
	track, err := catalog.Find(ctx, cfg.Beat)
	if err != nil {
		return fmt.Errorf("play: couldn't find beat: %w", err)
	}

	fsType, fsConn := cfg.FSType, cfg.FSConn
	if fsType == "" {
		fsType, fsConn = "local", "."
	}
	fs, err := filestore.New(fsType, fsConn, cfg.Debug)
	if err != nil {
		return fmt.Errorf("play: couldn't create file storage: %w", err)
	}

	player := beat.NewPlayer(cfg.Interval)
	s := studio.New(&studio.Config{
		Debug:      cfg.Debug,
		Production: cfg.Production,
		Alert:      func(msg string) { log.Printf("play: %s\n", msg) },
	}, client, player, export.NewFontRenderer("", ""), fs, clipboard.New())
	defer s.Close()

	// Listeners can't call back into the studio, lines are kept aside
	var mu sync.Mutex
	var lines []string
	cancelState := s.OnState(func(st generator.State) {
		mu.Lock()
		defer mu.Unlock()
		lines = nil
		if st.Document != nil {
			lines = st.Document.Lines
		}
	})
	defer cancelState()
	cancelSync := s.OnSync(func(st playback.SyncState) {
		mu.Lock()
		defer mu.Unlock()
		if st.ActiveLine < 0 || st.ActiveLine >= len(lines) {
			return
		}
		fmt.Printf("[%s] %s\n", clock(float64(st.ActiveLine)*st.LineDuration), lines[st.ActiveLine])
	})
	defer cancelSync()

	if err := s.Generate(ctx, req); err != nil {
		return fmt.Errorf("play: %s: %w", s.State().Status(), err)
	}
	log.Printf("play: %s\n", s.State().Status())

	if err := s.SelectBeat(ctx, track); err != nil {
		return fmt.Errorf("play: %w", err)
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-player.Ended():
	}

	if cfg.Copy {
		if err := s.Copy(); err != nil {
			log.Printf("play: %v\n", err)
		}
	}
	if cfg.Export {
		if err := s.SaveText(ctx); err != nil {
			return fmt.Errorf("play: %w", err)
		}
		if err := s.Export(ctx); err != nil {
			return fmt.Errorf("play: %w", err)
		}
	}
	return nil
}

func clock(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second)).Round(time.Second)
	return fmt.Sprintf("%02d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
