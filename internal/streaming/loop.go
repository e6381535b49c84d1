package streaming

import (
	"context"
	"sync"
	"time"
)

// Stepper is advanced once per loop tick with the elapsed time.
type Stepper interface {
	Step(delta time.Duration)
}

type tickerFactory func(time.Duration) (<-chan time.Time, func())

type timeSource func() time.Time

// Loop drives a Stepper from a ticker on its own goroutine. Deltas that are
// not positive or exceed ten ticks are clamped to one tick so a stalled host
// does not teleport the actor.
type Loop struct {
	target    Stepper
	tick      time.Duration
	wg        sync.WaitGroup
	newTicker tickerFactory
	now       timeSource
}

func defaultTickerFactory() tickerFactory {
	return func(d time.Duration) (<-chan time.Time, func()) {
		ticker := time.NewTicker(d)
		return ticker.C, ticker.Stop
	}
}

func NewLoop(target Stepper, tick time.Duration) *Loop {
	if tick <= 0 {
		tick = 16 * time.Millisecond
	}
	return &Loop{
		target:    target,
		tick:      tick,
		newTicker: defaultTickerFactory(),
		now:       time.Now,
	}
}

func (l *Loop) Start(ctx context.Context) {
	if l == nil || l.target == nil {
		return
	}
	l.wg.Add(1)
	go l.run(ctx)
}

func (l *Loop) run(ctx context.Context) {
	defer l.wg.Done()
	if l.newTicker == nil {
		l.newTicker = defaultTickerFactory()
	}
	if l.now == nil {
		l.now = time.Now
	}

	tickerC, stop := l.newTicker(l.tick)
	defer stop()

	last := l.now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-tickerC:
			delta := now.Sub(last)
			if delta <= 0 || delta > 10*l.tick {
				delta = l.tick
			}
			last = now
			l.target.Step(delta)
		}
	}
}

func (l *Loop) Wait() {
	if l == nil {
		return
	}
	l.wg.Wait()
}
