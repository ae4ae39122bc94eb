package studio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/igolaizola/rapgen/pkg/beat"
	"github.com/igolaizola/rapgen/pkg/export"
	"github.com/igolaizola/rapgen/pkg/generator"
	"github.com/igolaizola/rapgen/pkg/lyrics"
	"github.com/igolaizola/rapgen/pkg/playback"
)

type fakeClient struct {
	text string
	err  error
}

func (c *fakeClient) Generate(ctx context.Context, req lyrics.Request, budget int) (string, error) {
	return c.text, c.err
}

type fakeCopier struct {
	copied []string
	err    error
}

func (c *fakeCopier) Copy(text string) error {
	if c.err != nil {
		return fmt.Errorf("fake: %w", lyrics.ErrClipboard)
	}
	c.copied = append(c.copied, text)
	return nil
}

type downloads struct {
	mu    sync.Mutex
	names []string
	data  [][]byte
}

func (d *downloads) Download(ctx context.Context, name, contentType string, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.names = append(d.names, name)
	d.data = append(d.data, data)
	return nil
}

var request = lyrics.Request{Theme: "Street Life", Mood: "Raw energy", Length: lyrics.Short}

func newStudio(client generator.Client) (*Studio, *beat.Player, *downloads, *fakeCopier) {
	player := beat.NewPlayer(time.Hour)
	dl := &downloads{}
	cp := &fakeCopier{}
	s := New(&Config{}, client, player, export.NewFontRenderer("", ""), dl, cp)
	return s, player, dl, cp
}

func TestStudioFollowsBeat(t *testing.T) {
	s, player, _, _ := newStudio(&fakeClient{text: "one\ntwo\n\nthree\nfour"})
	defer s.Close()
	player.Load(&beat.Track{Name: "trapbeat.mp3", Duration: 20})

	var changes []int
	cancel := s.OnSync(func(st playback.SyncState) {
		changes = append(changes, st.ActiveLine)
	})
	defer cancel()

	if err := s.Generate(context.Background(), request); err != nil {
		t.Fatal(err)
	}
	if got := s.State().Phase; got != generator.Ready {
		t.Fatalf("expected ready, got %s", got)
	}
	if got := len(s.Lines()); got != 4 {
		t.Fatalf("expected 4 lines, got %d", got)
	}
	if st := s.Sync(); !st.Known || st.LineDuration != 5 || st.ActiveLine != 0 {
		t.Fatalf("unexpected sync state %+v", st)
	}
	player.Seek(5)
	if got := s.Sync().ActiveLine; got != 1 {
		t.Errorf("expected line 1, got %d", got)
	}
	player.Seek(25)
	if got := s.Sync().ActiveLine; got != 3 {
		t.Errorf("expected line 3, got %d", got)
	}

	s.Reset()
	if st := s.Sync(); st.ActiveLine != -1 || st.Known {
		t.Errorf("reset should clear sync, got %+v", st)
	}
	if s.Text() != "" {
		t.Error("reset should clear the lyrics")
	}
	// Events after reset don't move the highlight
	player.Seek(10)
	if got := s.Sync().ActiveLine; got != -1 {
		t.Errorf("expected no line, got %d", got)
	}
	if len(changes) == 0 || changes[len(changes)-1] != -1 {
		t.Errorf("unexpected changes %v", changes)
	}
}

func TestStudioFailure(t *testing.T) {
	s, player, _, _ := newStudio(&fakeClient{err: errors.New("connection refused")})
	defer s.Close()
	player.Load(&beat.Track{Name: "sad.mp3", Duration: 20})

	if err := s.Generate(context.Background(), request); err == nil {
		t.Fatal("expected error")
	}
	st := s.State()
	if st.Phase != generator.Error || st.Document != nil {
		t.Errorf("unexpected state %+v", st)
	}
	if s.Sync().ActiveLine != -1 {
		t.Error("failed generation shouldn't highlight lines")
	}
}

func TestStudioOutputs(t *testing.T) {
	s, _, dl, cp := newStudio(&fakeClient{text: "one\ntwo"})
	defer s.Close()
	ctx := context.Background()

	// Nothing to output before generating
	if err := s.Copy(); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveText(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.Export(ctx); err != nil {
		t.Fatal(err)
	}
	if len(dl.names) != 0 || len(cp.copied) != 0 {
		t.Fatal("nothing should be produced without lyrics")
	}

	if err := s.Generate(ctx, request); err != nil {
		t.Fatal(err)
	}
	if err := s.Copy(); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveText(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.Export(ctx); err != nil {
		t.Fatal(err)
	}
	if len(cp.copied) != 1 || cp.copied[0] != "one\ntwo" {
		t.Errorf("unexpected copies %q", cp.copied)
	}
	if len(dl.names) != 2 || dl.names[0] != TextFilename || dl.names[1] != export.DefaultFilename {
		t.Fatalf("unexpected downloads %v", dl.names)
	}
	if string(dl.data[0]) != "one\ntwo" {
		t.Errorf("unexpected text %q", dl.data[0])
	}

	cp.err = errors.New("no display")
	if err := s.Copy(); !errors.Is(err, lyrics.ErrClipboard) {
		t.Errorf("expected clipboard error, got %v", err)
	}
	// Clipboard failures don't touch the generation state
	if s.State().Phase != generator.Ready {
		t.Error("clipboard failure changed the state")
	}
}

func TestSelectBeat(t *testing.T) {
	s, player, _, _ := newStudio(&fakeClient{text: "one\ntwo"})
	defer s.Close()
	if err := s.SelectBeat(context.Background(), nil); err == nil {
		t.Error("expected error selecting no beat")
	}
	if err := s.SelectBeat(context.Background(), &beat.Track{Name: "splint.mp3", Duration: 30}); err != nil {
		t.Fatal(err)
	}
	if player.Track().Name != "splint.mp3" {
		t.Error("beat not loaded")
	}
}
