package playback

import (
	"math"
	"sync"
	"testing"

	"github.com/igolaizola/rapgen/pkg/lyrics"
)

type fakeSource struct {
	mu        sync.Mutex
	duration  float64
	position  float64
	loaded    bool
	listeners map[int]func(Event)
	next      int
}

func newFakeSource() *fakeSource {
	return &fakeSource{duration: math.NaN(), listeners: map[int]func(Event){}}
}

func (f *fakeSource) Duration() float64    { f.mu.Lock(); defer f.mu.Unlock(); return f.duration }
func (f *fakeSource) Position() float64    { f.mu.Lock(); defer f.mu.Unlock(); return f.position }
func (f *fakeSource) MetadataLoaded() bool { f.mu.Lock(); defer f.mu.Unlock(); return f.loaded }

func (f *fakeSource) Subscribe(fn func(Event)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.next
	f.next++
	f.listeners[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.listeners, id)
	}
}

func (f *fakeSource) subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listeners)
}

func (f *fakeSource) emit(ev Event) {
	f.mu.Lock()
	switch ev.Type {
	case DurationChanged:
		f.duration = ev.Duration
		f.loaded = true
	default:
		f.position = ev.Position
	}
	var fns []func(Event)
	for i := 0; i < f.next; i++ {
		if fn, ok := f.listeners[i]; ok {
			fns = append(fns, fn)
		}
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

func (f *fakeSource) loadDuration(d float64) { f.emit(Event{Type: DurationChanged, Duration: d}) }
func (f *fakeSource) seek(t float64)         { f.emit(Event{Type: TimeUpdate, Position: t}) }

func doc(n int) *lyrics.Document {
	raw := ""
	for i := 0; i < n; i++ {
		raw += "bar\n"
	}
	return lyrics.NewDocument(raw)
}

func TestActiveLine(t *testing.T) {
	tests := []struct {
		name     string
		lines    int
		duration float64
		position float64
		want     int
	}{
		{"start", 4, 5, 0, 0},
		{"boundary belongs to later line", 4, 5, 5, 1},
		{"just before end", 4, 5, 19.999, 3},
		{"past end clamps", 4, 5, 25, 3},
		{"negative clamps", 4, 5, -1, 0},
		{"no lines", 0, 5, 3, -1},
		{"unknown duration", 4, math.NaN(), 3, -1},
		{"streaming", 4, math.Inf(1), 3, -1},
		{"zero duration", 4, 0, 3, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ActiveLine(tt.lines, tt.duration, tt.position); got != tt.want {
				t.Errorf("ActiveLine(%d, %v, %v) = %d, want %d", tt.lines, tt.duration, tt.position, got, tt.want)
			}
		})
	}
}

func TestActiveLineProperty(t *testing.T) {
	for n := 1; n <= 30; n++ {
		for _, d := range []float64{0.5, 1, 7.3, 20, 184.27, 3600} {
			ld := d / float64(n)
			for step := 0; step < 200; step++ {
				pos := d * float64(step) / 200
				want := int(math.Floor(pos / ld))
				if want > n-1 {
					want = n - 1
				}
				got := ActiveLine(n, ld, pos)
				if got != want || got < 0 || got > n-1 {
					t.Fatalf("n=%d d=%v t=%v: got %d want %d", n, d, pos, got, want)
				}
			}
		}
	}
}

func TestSynchronizerScenario(t *testing.T) {
	src := newFakeSource()
	s := New()
	s.Load(doc(4), src)
	if st := s.State(); st.Known || st.ActiveLine != -1 {
		t.Fatalf("unexpected initial state %+v", st)
	}

	// Position updates before duration is known leave the line alone
	src.seek(3)
	if s.State().ActiveLine != -1 {
		t.Fatal("active line should stay -1 without duration")
	}

	src.loadDuration(20)
	if st := s.State(); !st.Known || st.LineDuration != 5 {
		t.Fatalf("unexpected line duration %+v", st)
	}
	tests := []struct {
		position float64
		want     int
	}{
		{5, 1},
		{19.999, 3},
		{25, 3},
		{0, 0},
	}
	for _, tt := range tests {
		src.seek(tt.position)
		if got := s.State().ActiveLine; got != tt.want {
			t.Errorf("t=%v: got %d, want %d", tt.position, got, tt.want)
		}
	}
}

func TestSynchronizerInert(t *testing.T) {
	tests := []struct {
		name     string
		doc      *lyrics.Document
		duration float64
	}{
		{"empty document", lyrics.NewDocument(""), 20},
		{"nil document", nil, 20},
		{"streaming", doc(4), math.Inf(1)},
		{"unknown", doc(4), math.NaN()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newFakeSource()
			s := New()
			s.Load(tt.doc, src)
			src.loadDuration(tt.duration)
			for _, pos := range []float64{0, 1, 10, 100} {
				src.seek(pos)
				if st := s.State(); st.ActiveLine != -1 || st.Known {
					t.Fatalf("expected inert state at %v, got %+v", pos, st)
				}
			}
		})
	}
}

func TestSynchronizerMetadataAlreadyLoaded(t *testing.T) {
	src := newFakeSource()
	src.loadDuration(16)
	src.seek(9)
	s := New()
	s.Load(doc(8), src)
	st := s.State()
	if !st.Known || st.LineDuration != 2 || st.ActiveLine != 4 {
		t.Errorf("unexpected state %+v", st)
	}
}

func TestSynchronizerSwap(t *testing.T) {
	first := newFakeSource()
	second := newFakeSource()
	s := New()

	s.Load(doc(4), first)
	first.loadDuration(20)
	first.seek(12)
	if s.State().ActiveLine != 2 {
		t.Fatalf("unexpected line %d", s.State().ActiveLine)
	}

	s.Load(doc(2), second)
	if first.subscribers() != 0 {
		t.Error("previous subscription survived the swap")
	}
	if st := s.State(); st.Known || st.ActiveLine != -1 {
		t.Errorf("state not reset on swap: %+v", st)
	}
	first.seek(19)
	if s.State().ActiveLine != -1 {
		t.Error("signal from old source applied to new document")
	}

	second.loadDuration(10)
	second.seek(6)
	if s.State().ActiveLine != 1 {
		t.Errorf("unexpected line %d", s.State().ActiveLine)
	}

	s.Close()
	if second.subscribers() != 0 {
		t.Error("subscription survived close")
	}
	if st := s.State(); st.ActiveLine != -1 || st.Known {
		t.Errorf("state not reset on close: %+v", st)
	}
}

func TestSynchronizerListeners(t *testing.T) {
	src := newFakeSource()
	s := New()
	var lines []int
	cancel := s.Subscribe(func(st SyncState) { lines = append(lines, st.ActiveLine) })
	s.Load(doc(4), src)
	src.loadDuration(20)
	src.seek(1)
	src.seek(2)
	src.seek(6)
	cancel()
	src.seek(16)

	want := []int{-1, 0, 1}
	if len(lines) != len(want) {
		t.Fatalf("got %v, want %v", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("got %v, want %v", lines, want)
		}
	}
}
