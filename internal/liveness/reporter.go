// Package liveness reports that a long-running engine call is still in flight.
//
// A Reporter owns one goroutine that emits a trace record every interval until
// Stop is called. Stop signals the goroutine and waits for it; a tick that races
// with Stop is dropped rather than emitted.
package liveness

import (
	"fmt"
	"sync"
	"time"

	"paramexport/internal/logx"
	"paramexport/internal/metrics"
)

// DefaultInterval stays well under typical orchestration liveness timeouts.
const DefaultInterval = 50 * time.Second

// TickMessage is the message of every liveness record.
const TickMessage = "still working"

// ticker abstracts time.Ticker for tests.
type ticker interface {
	C() <-chan time.Time
	Stop()
}

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

var newTicker = func(d time.Duration) ticker { return realTicker{t: time.NewTicker(d)} }

// Reporter is one liveness span.
type Reporter struct {
	name     string
	interval time.Duration
	log      logx.Logger
	start    time.Time
	now      func() time.Time

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	mu    sync.Mutex
	ticks int
}

// Start begins reporting for the step called name. A non-positive interval
// falls back to DefaultInterval.
func Start(log logx.Logger, name string, interval time.Duration) *Reporter {
	if interval <= 0 {
		interval = DefaultInterval
	}
	r := &Reporter{
		name:     name,
		interval: interval,
		log:      logx.OrNop(log),
		now:      time.Now,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	r.start = r.now()
	t := newTicker(interval)
	go r.loop(t)
	return r
}

func (r *Reporter) loop(t ticker) {
	defer close(r.done)
	defer t.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-t.C():
			// Stop may have been requested while the tick was pending.
			select {
			case <-r.stop:
				return
			default:
			}
			r.emit()
		}
	}
}

func (r *Reporter) emit() {
	defer func() {
		if p := recover(); p != nil {
			r.safeError(fmt.Errorf("liveness emit panic: %v", p))
		}
	}()
	elapsed := r.now().Sub(r.start)
	r.mu.Lock()
	r.ticks++
	r.mu.Unlock()
	metrics.LivenessTick(r.name)
	r.log.Trace(TickMessage, "step", r.name, "elapsed", elapsed)
}

// safeError reports a failed emission; a second failure is dropped.
func (r *Reporter) safeError(err error) {
	defer func() { _ = recover() }()
	r.log.Error(err, "liveness record failed", "step", r.name)
}

// Stop cancels the reporter and waits for its goroutine to exit. Safe to call
// more than once.
func (r *Reporter) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
	<-r.done
}

// Ticks returns how many records were emitted.
func (r *Reporter) Ticks() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ticks
}

// Elapsed returns the time since Start.
func (r *Reporter) Elapsed() time.Duration { return r.now().Sub(r.start) }

// Span runs fn inside a liveness span named name. The reporter is stopped on
// every exit path, including a panic in fn, and the step duration is recorded.
func Span(log logx.Logger, name string, interval time.Duration, fn func() error) error {
	r := Start(log, name, interval)
	defer func() {
		r.Stop()
		metrics.ObserveStep(name, r.Elapsed())
	}()
	return fn()
}
