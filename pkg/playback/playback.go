package playback

import (
	"math"
	"sync"

	"github.com/igolaizola/rapgen/pkg/lyrics"
)

type EventType int

const (
	DurationChanged EventType = iota
	TimeUpdate
	Ended
)

// Event is a notification emitted by a playback source. Times are in seconds.
type Event struct {
	Type     EventType
	Duration float64
	Position float64
}

// Source is a read-only view of an audio track being played.
type Source interface {
	// Duration returns the total duration in seconds, NaN if unknown and
	// +Inf for streams.
	Duration() float64
	Position() float64
	MetadataLoaded() bool
	Subscribe(fn func(Event)) (cancel func())
}

// SyncState is the highlighted line derived from the playback position.
type SyncState struct {
	LineDuration float64
	Known        bool
	ActiveLine   int
}

var inert = SyncState{ActiveLine: -1}

// Finite reports whether d is a usable track duration.
func Finite(d float64) bool {
	return d > 0 && !math.IsInf(d, 0) && !math.IsNaN(d)
}

// ActiveLine maps a playback position to a line index. Positions on a line
// boundary belong to the later line and positions past the end clamp to the
// last line. It returns -1 when there are no lines or the line duration is
// not usable.
func ActiveLine(lines int, lineDuration, position float64) int {
	if lines <= 0 || !Finite(lineDuration) || math.IsNaN(position) {
		return -1
	}
	idx := math.Floor(position / lineDuration)
	if idx < 0 {
		return 0
	}
	if idx > float64(lines-1) {
		return lines - 1
	}
	return int(idx)
}

// Synchronizer keeps the highlighted line of a document in step with a
// playback source.
type Synchronizer struct {
	mu        sync.Mutex
	doc       *lyrics.Document
	state     SyncState
	gen       uint64
	cancel    func()
	listeners map[int]func(SyncState)
	nextID    int
}

func New() *Synchronizer {
	return &Synchronizer{
		state:     inert,
		listeners: map[int]func(SyncState){},
	}
}

// State returns the current sync state.
func (s *Synchronizer) State() SyncState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Document returns the document being synchronized.
func (s *Synchronizer) Document() *lyrics.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// Subscribe registers a listener for sync state changes.
func (s *Synchronizer) Subscribe(fn func(SyncState)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// Load replaces the document and the source being followed. The previous
// subscription is cancelled before the new one is made, and events still in
// flight for it are ignored.
func (s *Synchronizer) Load(doc *lyrics.Document, src Source) {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	cancel := s.cancel
	s.cancel = nil
	s.doc = doc
	s.set(inert)
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if src == nil || doc.Len() == 0 {
		return
	}

	unsubscribe := src.Subscribe(func(ev Event) {
		s.handle(gen, ev)
	})

	s.mu.Lock()
	if s.gen != gen {
		// Replaced while subscribing
		s.mu.Unlock()
		unsubscribe()
		return
	}
	s.cancel = unsubscribe
	s.mu.Unlock()

	if src.MetadataLoaded() {
		s.handle(gen, Event{Type: DurationChanged, Duration: src.Duration()})
		s.handle(gen, Event{Type: TimeUpdate, Position: src.Position()})
	}
}

// Close stops following the current source and clears the document.
func (s *Synchronizer) Close() {
	s.Load(nil, nil)
}

func (s *Synchronizer) handle(gen uint64, ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return
	}
	n := s.doc.Len()
	switch ev.Type {
	case DurationChanged:
		if !Finite(ev.Duration) || n == 0 {
			s.set(inert)
			return
		}
		s.set(SyncState{
			LineDuration: ev.Duration / float64(n),
			Known:        true,
			ActiveLine:   s.state.ActiveLine,
		})
	case TimeUpdate, Ended:
		if !s.state.Known {
			return
		}
		next := s.state
		next.ActiveLine = ActiveLine(n, s.state.LineDuration, ev.Position)
		s.set(next)
	}
}

// set must be called with the lock held.
func (s *Synchronizer) set(next SyncState) {
	if next == s.state {
		return
	}
	s.state = next
	for i := 0; i < s.nextID; i++ {
		if fn, ok := s.listeners[i]; ok {
			fn(next)
		}
	}
}
