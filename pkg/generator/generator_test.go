package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/igolaizola/rapgen/pkg/lyrics"
)

type fakeClient struct {
	mu      sync.Mutex
	calls   int
	budgets []int
	text    string
	err     error
	block   chan struct{}
	started chan struct{}
}

func (f *fakeClient) Generate(ctx context.Context, req lyrics.Request, budget int) (string, error) {
	f.mu.Lock()
	f.calls++
	f.budgets = append(f.budgets, budget)
	block, started := f.block, f.started
	f.mu.Unlock()
	if started != nil {
		close(started)
	}
	if block != nil {
		<-block
	}
	return f.text, f.err
}

func (f *fakeClient) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

var oceanWaves = lyrics.Request{Theme: "Ocean Waves", Mood: "Chill", Length: lyrics.Medium}

func TestSubmitReady(t *testing.T) {
	client := &fakeClient{text: "line1\n\nline2\nline3\n"}
	c := New(&Config{}, client)

	var phases []Phase
	c.Subscribe(func(s State) { phases = append(phases, s.Phase) })

	if err := c.Submit(context.Background(), oceanWaves); err != nil {
		t.Fatal(err)
	}
	s := c.State()
	if s.Phase != Ready {
		t.Fatalf("expected ready, got %s", s.Phase)
	}
	if s.Document.Len() != 3 {
		t.Errorf("expected 3 lines, got %d", s.Document.Len())
	}
	if client.budgets[0] != 400 {
		t.Errorf("expected budget 400, got %d", client.budgets[0])
	}
	if fmt.Sprint(phases) != fmt.Sprint([]Phase{Generating, Ready}) {
		t.Errorf("unexpected transitions %v", phases)
	}
	if s.Status() != "Fresh bars ready." {
		t.Errorf("unexpected status %q", s.Status())
	}
}

func TestSubmitUnreachable(t *testing.T) {
	tests := []struct {
		name        string
		production  bool
		wantDetails bool
	}{
		{"production", true, false},
		{"development", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{err: fmt.Errorf("%w: dial tcp: connection refused", lyrics.ErrUpstream)}
			c := New(&Config{Production: tt.production}, client)
			err := c.Submit(context.Background(), oceanWaves)
			if !errors.Is(err, lyrics.ErrUpstream) {
				t.Fatalf("expected upstream error, got %v", err)
			}
			s := c.State()
			if s.Phase != Error {
				t.Fatalf("expected error state, got %s", s.Phase)
			}
			if s.Message == "" || strings.Contains(s.Message, "connection refused") {
				t.Errorf("message should be generic, got %q", s.Message)
			}
			if (s.Details != "") != tt.wantDetails {
				t.Errorf("unexpected details %q", s.Details)
			}
			if s.Document != nil {
				t.Error("document should not be set")
			}
		})
	}
}

func TestSubmitValidation(t *testing.T) {
	client := &fakeClient{text: "bars"}
	c := New(&Config{}, client)
	err := c.Submit(context.Background(), lyrics.Request{Theme: "", Mood: "Chill", Length: lyrics.Medium})
	if !errors.Is(err, lyrics.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if client.count() != 0 {
		t.Error("client should not be called")
	}
	if c.State().Phase != Idle {
		t.Errorf("state should stay idle, got %s", c.State().Phase)
	}
}

func TestSubmitEmptyResponse(t *testing.T) {
	for _, text := range []string{"", "  \n\n "} {
		c := New(&Config{}, &fakeClient{text: text})
		err := c.Submit(context.Background(), oceanWaves)
		if !errors.Is(err, lyrics.ErrEmptyResponse) {
			t.Fatalf("expected empty response error, got %v", err)
		}
		s := c.State()
		if s.Phase != Error || s.Message != "empty response" {
			t.Errorf("unexpected state %+v", s)
		}
	}
}

func TestSubmitConcurrent(t *testing.T) {
	client := &fakeClient{text: "a\nb", block: make(chan struct{}), started: make(chan struct{})}
	c := New(&Config{}, client)

	errC := make(chan error, 1)
	go func() { errC <- c.Submit(context.Background(), oceanWaves) }()
	<-client.started

	if err := c.Submit(context.Background(), oceanWaves); !errors.Is(err, lyrics.ErrConcurrentRequest) {
		t.Fatalf("expected concurrent request error, got %v", err)
	}
	if c.State().Phase != Generating {
		t.Errorf("state should stay generating")
	}
	close(client.block)
	if err := <-errC; err != nil {
		t.Fatal(err)
	}
	if client.count() != 1 {
		t.Errorf("expected a single call, got %d", client.count())
	}
	if c.State().Phase != Ready {
		t.Errorf("expected ready, got %s", c.State().Phase)
	}
}

func TestResetDiscardsStaleResponse(t *testing.T) {
	client := &fakeClient{text: "a\nb", block: make(chan struct{}), started: make(chan struct{})}
	c := New(&Config{}, client)

	errC := make(chan error, 1)
	go func() { errC <- c.Submit(context.Background(), oceanWaves) }()
	<-client.started
	c.Reset()
	close(client.block)

	select {
	case err := <-errC:
		if !errors.Is(err, lyrics.ErrSuperseded) {
			t.Fatalf("expected superseded error, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("submit didn't return")
	}
	s := c.State()
	if s.Phase != Idle || s.Document != nil {
		t.Errorf("stale response resurrected state: %+v", s)
	}
}

func TestResetIdempotent(t *testing.T) {
	tests := []struct {
		name  string
		setup func(c *Controller)
	}{
		{"idle", func(c *Controller) {}},
		{"ready", func(c *Controller) { _ = c.Submit(context.Background(), oceanWaves) }},
		{"error", func(c *Controller) {
			c.client = &fakeClient{err: errors.New("boom")}
			_ = c.Submit(context.Background(), oceanWaves)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(&Config{}, &fakeClient{text: "a"})
			tt.setup(c)
			c.Reset()
			c.Reset()
			s := c.State()
			if s.Phase != Idle || s.Document != nil || s.Message != "" {
				t.Errorf("unexpected state after reset: %+v", s)
			}
			if s.Status() != "Waiting for your cue..." {
				t.Errorf("unexpected status %q", s.Status())
			}
		})
	}
}

func TestSubmitAfterError(t *testing.T) {
	client := &fakeClient{err: errors.New("boom")}
	c := New(&Config{}, client)
	_ = c.Submit(context.Background(), oceanWaves)
	client.err = nil
	client.text = "fresh"
	if err := c.Submit(context.Background(), oceanWaves); err != nil {
		t.Fatal(err)
	}
	if c.State().Phase != Ready {
		t.Errorf("expected ready, got %s", c.State().Phase)
	}
}
