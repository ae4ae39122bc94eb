package studio

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/igolaizola/rapgen/pkg/beat"
	"github.com/igolaizola/rapgen/pkg/export"
	"github.com/igolaizola/rapgen/pkg/generator"
	"github.com/igolaizola/rapgen/pkg/lyrics"
	"github.com/igolaizola/rapgen/pkg/playback"
)

const TextFilename = "rap-lyrics.txt"

// Copier copies text to the clipboard.
type Copier interface {
	Copy(text string) error
}

type Config struct {
	Debug      bool
	Production bool
	Watermark  string
	Filename   string
	Scale      float64
	Alert      func(msg string)
}

// Studio is a single user session: it owns one generation controller, one
// synchronizer following the beat player and one export compositor.
type Studio struct {
	cfg        *Config
	controller *generator.Controller
	sync       *playback.Synchronizer
	player     *beat.Player
	compositor *export.Compositor
	downloader export.Downloader
	copier     Copier

	mu     sync.Mutex
	cancel func()
}

func New(cfg *Config, client generator.Client, player *beat.Player, renderer export.Renderer, downloader export.Downloader, copier Copier) *Studio {
	if cfg == nil {
		cfg = &Config{}
	}
	s := &Studio{
		cfg: cfg,
		controller: generator.New(&generator.Config{
			Debug:      cfg.Debug,
			Production: cfg.Production,
		}, client),
		sync:   playback.New(),
		player: player,
		compositor: export.New(&export.Config{
			Debug: cfg.Debug,
			Scale: cfg.Scale,
			Alert: cfg.Alert,
		}, renderer, downloader),
		downloader: downloader,
		copier:     copier,
	}
	// The synchronizer follows the document of the latest ready state; any
	// other state leaves it without lines.
	s.cancel = s.controller.Subscribe(func(st generator.State) {
		if st.Phase == generator.Ready {
			s.sync.Load(st.Document, s.player)
			return
		}
		s.sync.Load(nil, s.player)
	})
	return s
}

// Generate requests new lyrics and blocks until the request completes.
func (s *Studio) Generate(ctx context.Context, req lyrics.Request) error {
	return s.controller.Submit(ctx, req)
}

// Reset discards the current lyrics and any request in flight.
func (s *Studio) Reset() {
	s.controller.Reset()
}

func (s *Studio) State() generator.State {
	return s.controller.State()
}

// Sync returns the highlighted line state.
func (s *Studio) Sync() playback.SyncState {
	return s.sync.State()
}

// OnState registers a listener for controller transitions. Listeners must not
// call back into the studio.
func (s *Studio) OnState(fn func(generator.State)) func() {
	return s.controller.Subscribe(fn)
}

// OnSync registers a listener for highlighted line changes. Listeners must
// not call back into the studio.
func (s *Studio) OnSync(fn func(playback.SyncState)) func() {
	return s.sync.Subscribe(fn)
}

// Text returns the lyrics currently shown, empty when there are none.
func (s *Studio) Text() string {
	if doc := s.sync.Document(); doc != nil {
		return doc.Raw
	}
	return ""
}

// Lines returns the lines being synchronized.
func (s *Studio) Lines() []string {
	if doc := s.sync.Document(); doc != nil {
		return doc.Lines
	}
	return nil
}

// Copy copies the lyrics to the clipboard.
func (s *Studio) Copy() error {
	text := s.Text()
	if text == "" {
		return nil
	}
	if s.copier == nil {
		return fmt.Errorf("studio: no clipboard: %w", lyrics.ErrClipboard)
	}
	if err := s.copier.Copy(text); err != nil {
		log.Printf("studio: couldn't copy lyrics: %v\n", err)
		return err
	}
	return nil
}

// SaveText downloads the lyrics as a plain text file.
func (s *Studio) SaveText(ctx context.Context) error {
	text := s.Text()
	if text == "" {
		return nil
	}
	if err := s.downloader.Download(ctx, TextFilename, "text/plain", []byte(text)); err != nil {
		return fmt.Errorf("studio: couldn't save lyrics: %w", err)
	}
	return nil
}

// Export renders the lyric card to a watermarked PNG and downloads it.
func (s *Studio) Export(ctx context.Context) error {
	text := s.Text()
	return s.compositor.Export(ctx, export.DefaultCard(text), text, s.cfg.Watermark, s.cfg.Filename)
}

// SelectBeat loads a beat and starts playing it.
func (s *Studio) SelectBeat(ctx context.Context, t *beat.Track) error {
	if t == nil {
		return errors.New("studio: no beat selected")
	}
	s.player.Load(t)
	s.player.Play(ctx)
	if s.cfg.Debug {
		log.Printf("studio: playing %s (%.1fs)\n", t.Name, t.Duration)
	}
	return nil
}

// Close stops playback and releases the subscriptions.
func (s *Studio) Close() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.player.Pause()
	s.sync.Close()
}
