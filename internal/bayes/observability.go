package bayes

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// QueryLatencyObserver receives the duration of each variable elimination
// query. A diagnosis session reports once per issue variable it queries.
type QueryLatencyObserver interface {
	ObserveQueryLatency(variable string, duration time.Duration)
}

// QueryLatencyLogger writes each query duration as a debug entry keyed by
// the queried variable.
type QueryLatencyLogger struct {
	logger *zap.Logger
}

func NewQueryLatencyLogger(logger *zap.Logger) *QueryLatencyLogger {
	return &QueryLatencyLogger{logger: logger}
}

func (l *QueryLatencyLogger) ObserveQueryLatency(variable string, duration time.Duration) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.Debug("inference_query_latency",
		zap.String("variable", variable),
		zap.Float64("duration_ms", float64(duration.Microseconds())/1000.0),
	)
}

// AsyncQueryLatencyObserver forwards observations to next from a single
// goroutine. Observations made while the buffer is full, or after Close, are
// dropped and counted.
type AsyncQueryLatencyObserver struct {
	next    QueryLatencyObserver
	events  chan queryLatencyEvent
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
	wg      sync.WaitGroup
	dropped atomic.Uint64
}

type queryLatencyEvent struct {
	variable string
	duration time.Duration
}

func NewAsyncQueryLatencyObserver(next QueryLatencyObserver, buffer int) *AsyncQueryLatencyObserver {
	if buffer <= 0 {
		buffer = 1
	}

	o := &AsyncQueryLatencyObserver{
		next:   next,
		events: make(chan queryLatencyEvent, buffer),
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		for ev := range o.events {
			if o.next == nil {
				continue
			}
			o.next.ObserveQueryLatency(ev.variable, ev.duration)
		}
	}()

	return o
}

func (o *AsyncQueryLatencyObserver) ObserveQueryLatency(variable string, duration time.Duration) {
	if o == nil {
		return
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.closed {
		o.dropped.Add(1)
		return
	}
	select {
	case o.events <- queryLatencyEvent{variable: variable, duration: duration}:
	default:
		o.dropped.Add(1)
	}
}

func (o *AsyncQueryLatencyObserver) Dropped() uint64 {
	if o == nil {
		return 0
	}
	return o.dropped.Load()
}

// Close stops accepting observations and waits for buffered ones to drain.
func (o *AsyncQueryLatencyObserver) Close() {
	if o == nil {
		return
	}
	o.once.Do(func() {
		o.mu.Lock()
		o.closed = true
		close(o.events)
		o.mu.Unlock()
		o.wg.Wait()
	})
}
