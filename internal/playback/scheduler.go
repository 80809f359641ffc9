package playback

import (
	"context"
	"time"

	"github.com/yoockh/barta/internal/audio"
)

// Item is a fragment pinned to a start time on the playback clock.
type Item struct {
	ID       uint64
	Fragment *audio.Fragment
	StartAt  time.Duration
}

// End is the clock time at which the item finishes playing.
func (i Item) End() time.Duration { return i.StartAt + i.Fragment.Duration() }

// Sink plays scheduled items. Play must not block until playback ends.
type Sink interface {
	Play(ctx context.Context, item Item) error
}

type SinkFunc func(ctx context.Context, item Item) error

func (f SinkFunc) Play(ctx context.Context, item Item) error { return f(ctx, item) }

// Options configures a Scheduler. All hooks are optional.
type Options struct {
	// Dispatch runs completion callbacks on the goroutine that owns the
	// scheduler. Nil runs them on the timer goroutine.
	Dispatch func(func())
	// OnSpeaking fires every time a fragment is scheduled.
	OnSpeaking func()
	// OnDrained fires when the last active fragment finishes.
	OnDrained func()
}

// Scheduler keeps consecutive fragments playing back to back. The timeline
// only ever moves forward, by exactly the duration of each scheduled fragment.
//
// A Scheduler is not safe for concurrent use; it belongs to a single loop and
// completions are routed back to that loop through Options.Dispatch.
type Scheduler struct {
	clock Clock
	sink  Sink
	opts  Options

	nextStart time.Duration
	seq       uint64
	active    map[uint64]Timer
}

func NewScheduler(clock Clock, sink Sink, opts Options) *Scheduler {
	if clock == nil {
		clock = NewWallClock()
	}
	return &Scheduler{
		clock:  clock,
		sink:   sink,
		opts:   opts,
		active: make(map[uint64]Timer),
	}
}

// Schedule queues f directly after everything already scheduled, or at the
// current clock time if the timeline has fallen behind it.
func (s *Scheduler) Schedule(ctx context.Context, f *audio.Fragment) (Item, error) {
	start := s.nextStart
	if now := s.clock.Now(); now > start {
		start = now
	}

	s.seq++
	item := Item{ID: s.seq, Fragment: f, StartAt: start}
	if err := s.sink.Play(ctx, item); err != nil {
		return Item{}, err
	}

	id := item.ID
	s.nextStart = item.End()
	s.active[id] = nil
	if s.opts.OnSpeaking != nil {
		s.opts.OnSpeaking()
	}

	// The clock may fire immediately for fragments that are already over.
	t := s.clock.AfterFunc(item.End()-s.clock.Now(), func() {
		s.dispatch(func() { s.complete(id) })
	})
	if _, ok := s.active[id]; ok {
		s.active[id] = t
	}
	return item, nil
}

func (s *Scheduler) dispatch(fn func()) {
	if s.opts.Dispatch != nil {
		s.opts.Dispatch(fn)
		return
	}
	fn()
}

func (s *Scheduler) complete(id uint64) {
	if _, ok := s.active[id]; !ok {
		return
	}
	delete(s.active, id)
	if len(s.active) == 0 && s.opts.OnDrained != nil {
		s.opts.OnDrained()
	}
}

// NextStart is the earliest time the next fragment may begin.
func (s *Scheduler) NextStart() time.Duration { return s.nextStart }

// Active reports how many scheduled fragments have not finished yet.
func (s *Scheduler) Active() int { return len(s.active) }

// Reset cancels pending completions without firing OnDrained.
func (s *Scheduler) Reset() {
	for id, t := range s.active {
		if t != nil {
			t.Stop()
		}
		delete(s.active, id)
	}
}
