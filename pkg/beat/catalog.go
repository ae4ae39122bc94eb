package beat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/igolaizola/rapgen/pkg/storage"
	"github.com/oklog/ulid/v2"
)

// ErrNotFound is returned when a beat isn't in the catalog.
var ErrNotFound = errors.New("beat: not found")

// Catalog lists the beats available in a folder. Probed durations are cached
// in the store when one is given.
type Catalog struct {
	dir   string
	store *storage.Store
	debug bool

	mu     sync.Mutex
	tracks map[string]*Track
}

func NewCatalog(dir string, store *storage.Store, debug bool) *Catalog {
	return &Catalog{
		dir:    dir,
		store:  store,
		debug:  debug,
		tracks: map[string]*Track{},
	}
}

// Dir returns the beats folder.
func (c *Catalog) Dir() string {
	return c.dir
}

// Scan probes every supported file in the folder.
func (c *Catalog) Scan(ctx context.Context) ([]*Track, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, fmt.Errorf("beat: couldn't read beats folder %s: %w", c.dir, err)
	}
	tracks := map[string]*Track{}
	for _, e := range entries {
		if e.IsDir() || !Supported(e.Name()) {
			continue
		}
		t, err := c.probe(ctx, e)
		if err != nil {
			log.Printf("beat: couldn't probe %s: %v\n", e.Name(), err)
			continue
		}
		tracks[t.Name] = t
	}
	if err := c.prune(ctx, tracks); err != nil {
		log.Printf("beat: couldn't prune catalog: %v\n", err)
	}

	c.mu.Lock()
	c.tracks = tracks
	c.mu.Unlock()
	return c.List(), nil
}

func (c *Catalog) probe(ctx context.Context, e os.DirEntry) (*Track, error) {
	path := filepath.Join(c.dir, e.Name())
	info, err := e.Info()
	if err != nil {
		return nil, err
	}
	var cached *storage.Beat
	if c.store != nil {
		b, err := c.store.GetBeatByName(ctx, e.Name())
		switch {
		case err == nil:
			cached = b
		case !errors.Is(err, storage.ErrNotFound):
			return nil, err
		}
	}
	if cached != nil && cached.Size == info.Size() && cached.ModTime.Equal(info.ModTime()) {
		if c.debug {
			log.Printf("beat: %s cached (%.1fs)\n", e.Name(), cached.Duration)
		}
		return &Track{Name: cached.Name, Source: path, Format: cached.Format, Duration: cached.Duration}, nil
	}

	t, err := Probe(ctx, path)
	if err != nil {
		return nil, err
	}
	if c.store != nil {
		b := &storage.Beat{
			ID:       ulid.Make().String(),
			Name:     t.Name,
			Path:     path,
			Format:   t.Format,
			Size:     info.Size(),
			ModTime:  info.ModTime(),
			Duration: t.Duration,
		}
		if cached != nil {
			b.ID = cached.ID
			b.CreatedAt = cached.CreatedAt
		}
		if err := c.store.SetBeat(ctx, b); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// prune removes the cached entries of files no longer in the folder.
func (c *Catalog) prune(ctx context.Context, tracks map[string]*Track) error {
	if c.store == nil {
		return nil
	}
	var stale []*storage.Beat
	for page := 1; ; page++ {
		beats, err := c.store.ListBeats(ctx, page, 100, "")
		if err != nil {
			return err
		}
		for _, b := range beats {
			if _, ok := tracks[b.Name]; !ok {
				stale = append(stale, b)
			}
		}
		if len(beats) < 100 {
			break
		}
	}
	for _, b := range stale {
		if err := c.store.DeleteBeat(ctx, b.ID); err != nil {
			return err
		}
		if c.debug {
			log.Printf("beat: %s removed from catalog\n", b.Name)
		}
	}
	return nil
}

// List returns the scanned beats sorted by name.
func (c *Catalog) List() []*Track {
	c.mu.Lock()
	defer c.mu.Unlock()
	var tracks []*Track
	for _, t := range c.tracks {
		tracks = append(tracks, t)
	}
	sort.Slice(tracks, func(i, j int) bool {
		return tracks[i].Name < tracks[j].Name
	})
	return tracks
}

// Find returns a beat by file name. A path to an existing file outside the
// catalog is probed directly.
func (c *Catalog) Find(ctx context.Context, name string) (*Track, error) {
	c.mu.Lock()
	t, ok := c.tracks[filepath.Base(name)]
	c.mu.Unlock()
	if ok {
		return t, nil
	}
	if strings.HasPrefix(name, "http://") || strings.HasPrefix(name, "https://") {
		return Probe(ctx, name)
	}
	if _, err := os.Stat(name); err == nil {
		return Probe(ctx, name)
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
}
