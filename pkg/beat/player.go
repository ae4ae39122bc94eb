package beat

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/igolaizola/rapgen/pkg/playback"
)

// Player is the playback clock of the selected beat. It is the only writer of
// the playback state; everything else observes it through playback.Source.
type Player struct {
	interval time.Duration
	now      func() time.Time

	mu        sync.Mutex
	track     *Track
	offset    float64
	started   time.Time
	playing   bool
	stop      func()
	ended     chan struct{}
	finished  bool
	listeners map[int]func(playback.Event)
	nextID    int

	// emitMu keeps events in emission order across goroutines
	emitMu sync.Mutex
}

var _ playback.Source = (*Player)(nil)

// NewPlayer creates a player that emits position updates at the given
// interval. Browsers fire time updates about four times per second.
func NewPlayer(interval time.Duration) *Player {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	return &Player{
		interval:  interval,
		now:       time.Now,
		ended:     make(chan struct{}),
		listeners: map[int]func(playback.Event){},
	}
}

// Track returns the loaded track.
func (p *Player) Track() *Track {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.track
}

func (p *Player) Duration() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.track == nil {
		return math.NaN()
	}
	return p.track.Duration
}

func (p *Player) MetadataLoaded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.track != nil
}

func (p *Player) Position() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.position()
}

func (p *Player) position() float64 {
	pos := p.offset
	if p.playing {
		pos += p.now().Sub(p.started).Seconds()
	}
	if p.track != nil && pos > p.track.Duration {
		pos = p.track.Duration
	}
	return pos
}

func (p *Player) Subscribe(fn func(playback.Event)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.listeners, id)
	}
}

// Ended returns a channel closed when the loaded track finishes playing.
func (p *Player) Ended() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ended
}

// Load replaces the track, rewinding and pausing playback.
func (p *Player) Load(t *Track) {
	p.mu.Lock()
	p.halt()
	p.track = t
	p.offset = 0
	p.ended = make(chan struct{})
	p.finished = false
	p.mu.Unlock()

	p.emit(playback.Event{Type: playback.DurationChanged, Duration: t.Duration})
	p.emit(playback.Event{Type: playback.TimeUpdate})
}

// Play starts or resumes playback until the track ends, Pause is called or
// the context is done.
func (p *Player) Play(ctx context.Context) {
	p.mu.Lock()
	if p.track == nil || p.playing {
		p.mu.Unlock()
		return
	}
	if p.finished {
		p.offset = 0
		p.ended = make(chan struct{})
		p.finished = false
	}
	ctx, cancel := context.WithCancel(ctx)
	p.playing = true
	p.started = p.now()
	p.stop = cancel
	p.mu.Unlock()

	go func() {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !p.tick() {
					return
				}
			}
		}
	}()
}

// Pause stops the clock keeping the current position.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.halt()
}

// Seek moves the playback position.
func (p *Player) Seek(pos float64) {
	p.mu.Lock()
	if p.track == nil {
		p.mu.Unlock()
		return
	}
	if pos < 0 {
		pos = 0
	}
	p.offset = pos
	p.started = p.now()
	pos = p.position()
	p.mu.Unlock()
	p.emit(playback.Event{Type: playback.TimeUpdate, Position: pos})
}

// tick emits the current position and reports whether playback continues.
func (p *Player) tick() bool {
	p.mu.Lock()
	if !p.playing || p.track == nil {
		p.mu.Unlock()
		return false
	}
	pos := p.position()
	done := pos >= p.track.Duration
	var ended chan struct{}
	if done {
		p.halt()
		if !p.finished {
			p.finished = true
			ended = p.ended
		}
	}
	p.mu.Unlock()

	p.emit(playback.Event{Type: playback.TimeUpdate, Position: pos})
	if ended != nil {
		p.emit(playback.Event{Type: playback.Ended, Position: pos})
		close(ended)
	}
	return !done
}

// halt must be called with the lock held.
func (p *Player) halt() {
	if !p.playing {
		return
	}
	p.offset = p.position()
	p.playing = false
	if p.stop != nil {
		p.stop()
		p.stop = nil
	}
}

func (p *Player) emit(ev playback.Event) {
	p.emitMu.Lock()
	defer p.emitMu.Unlock()
	p.mu.Lock()
	var fns []func(playback.Event)
	for i := 0; i < p.nextID; i++ {
		if fn, ok := p.listeners[i]; ok {
			fns = append(fns, fn)
		}
	}
	p.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}
