package generator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/igolaizola/rapgen/pkg/lyrics"
)

// Client generates lyrics for a request using the given token budget.
type Client interface {
	Generate(ctx context.Context, req lyrics.Request, budget int) (string, error)
}

type Phase int

const (
	Idle Phase = iota
	Generating
	Ready
	Error
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Generating:
		return "generating"
	case Ready:
		return "ready"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

const genericMessage = "Failed to generate lyrics"

// State is a snapshot of the controller.
type State struct {
	Phase    Phase
	Document *lyrics.Document
	Message  string
	Details  string
	Err      error
	Seq      uint64
}

// Status returns the text shown to the user for the state.
func (s State) Status() string {
	switch s.Phase {
	case Generating:
		return "Crafting your flow..."
	case Ready:
		return "Fresh bars ready."
	case Error:
		if s.Details != "" {
			return fmt.Sprintf("%s: %s", s.Message, s.Details)
		}
		return s.Message
	default:
		return "Waiting for your cue..."
	}
}

type Config struct {
	Debug bool
	// Production hides technical error details from the user.
	Production bool
}

// Controller owns the lyric request lifecycle.
type Controller struct {
	cfg    *Config
	client Client
	debug  func(string, ...any)

	mu        sync.Mutex
	state     State
	seq       uint64
	listeners map[int]func(State)
	nextID    int
}

func New(cfg *Config, client Client) *Controller {
	if cfg == nil {
		cfg = &Config{}
	}
	return &Controller{
		cfg:    cfg,
		client: client,
		debug: func(format string, args ...any) {
			if !cfg.Debug {
				return
			}
			log.Printf(format+"\n", args...)
		},
		listeners: map[int]func(State){},
	}
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers a listener called on every transition, in order.
// Listeners run with the controller locked and must not call back into it.
func (c *Controller) Subscribe(fn func(State)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

// Submit validates the request, issues a single call to the client and
// applies its outcome. The call blocks until the client returns.
func (c *Controller) Submit(ctx context.Context, req lyrics.Request) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("generator: %w", err)
	}
	profile, _ := lyrics.ProfileOf(req.Length)

	c.mu.Lock()
	if c.state.Phase == Generating {
		c.mu.Unlock()
		return fmt.Errorf("generator: %w", lyrics.ErrConcurrentRequest)
	}
	c.seq++
	seq := c.seq
	c.transition(State{Phase: Generating, Seq: seq})
	c.mu.Unlock()

	c.debug("generator: request %d %s", seq, req)
	text, err := c.client.Generate(ctx, req, profile.Budget)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq || c.state.Phase != Generating {
		c.debug("generator: discarding stale response %d (latest %d)", seq, c.seq)
		return fmt.Errorf("generator: request %d: %w", seq, lyrics.ErrSuperseded)
	}
	if err != nil {
		log.Printf("generator: couldn't generate lyrics: %v\n", err)
		c.transition(c.failure(seq, err))
		return fmt.Errorf("generator: couldn't generate lyrics: %w", err)
	}
	doc := lyrics.NewDocument(strings.TrimSpace(text))
	if doc.Len() == 0 {
		err := lyrics.ErrEmptyResponse
		c.transition(State{Phase: Error, Message: err.Error(), Err: err, Seq: seq})
		return fmt.Errorf("generator: %w", err)
	}
	c.debug("generator: request %d ready with %d lines", seq, doc.Len())
	c.transition(State{Phase: Ready, Document: doc, Seq: seq})
	return nil
}

// Reset returns to idle and invalidates any in-flight request.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	c.transition(State{Phase: Idle, Seq: c.seq})
}

func (c *Controller) failure(seq uint64, err error) State {
	s := State{Phase: Error, Message: genericMessage, Err: err, Seq: seq}
	switch {
	case errors.Is(err, lyrics.ErrEmptyResponse):
		s.Message = lyrics.ErrEmptyResponse.Error()
	case errors.Is(err, lyrics.ErrValidation):
		s.Message = err.Error()
	case !c.cfg.Production:
		s.Details = err.Error()
	}
	return s
}

// transition must be called with the lock held.
func (c *Controller) transition(s State) {
	c.state = s
	for i := 0; i < c.nextID; i++ {
		if fn, ok := c.listeners[i]; ok {
			fn(s)
		}
	}
}
