package bayes

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type spyLatencyObserver struct {
	mu      sync.Mutex
	records []string
}

func (s *spyLatencyObserver) ObserveQueryLatency(variable string, duration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, variable)
}

func (s *spyLatencyObserver) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func TestAsyncQueryLatencyObserver_DeliversEventsOnClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	spy := &spyLatencyObserver{}
	async := NewAsyncQueryLatencyObserver(spy, 8)

	async.ObserveQueryLatency("battery_issue", 1*time.Millisecond)
	async.ObserveQueryLatency("tire_issue", 2*time.Millisecond)
	async.Close()

	if got := spy.Count(); got != 2 {
		t.Fatalf("expected 2 delivered events, got %d", got)
	}
}

func TestAsyncQueryLatencyObserver_DropsWhenBufferIsFull(t *testing.T) {
	defer goleak.VerifyNone(t)

	spy := &spyLatencyObserver{}
	async := NewAsyncQueryLatencyObserver(spy, 1)

	for i := 0; i < 1000; i++ {
		async.ObserveQueryLatency("v", time.Microsecond)
	}
	async.Close()

	if async.Dropped() == 0 {
		t.Fatalf("expected dropped events > 0")
	}
}

func TestAsyncQueryLatencyObserver_DropsAfterClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	async := NewAsyncQueryLatencyObserver(nil, 4)
	async.Close()
	async.Close()

	async.ObserveQueryLatency("v", time.Microsecond)
	if async.Dropped() != 1 {
		t.Fatalf("expected 1 dropped event, got %d", async.Dropped())
	}
}

func TestAsyncQueryLatencyObserver_CloseDuringConcurrentObserveDoesNotPanic(t *testing.T) {
	defer goleak.VerifyNone(t)

	spy := &spyLatencyObserver{}
	async := NewAsyncQueryLatencyObserver(spy, 32)

	const workers = 8
	const perWorker = 200
	var wg sync.WaitGroup
	var panics atomic.Int32

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if recover() != nil {
					panics.Add(1)
				}
			}()
			for j := 0; j < perWorker; j++ {
				async.ObserveQueryLatency("v", time.Microsecond)
			}
		}()
	}

	time.Sleep(1 * time.Millisecond)
	async.Close()
	wg.Wait()

	if panics.Load() != 0 {
		t.Fatalf("expected no panics, got %d", panics.Load())
	}
}

func TestQueryLatencyLogger_WritesDebugEntry(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := NewQueryLatencyLogger(zap.New(core))

	l.ObserveQueryLatency("coolant_leak", 1500*time.Microsecond)

	entries := logs.FilterMessage("inference_query_latency").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["variable"] != "coolant_leak" || fields["duration_ms"] != 1.5 {
		t.Fatalf("unexpected fields: %#v", fields)
	}

	var nilLogger *QueryLatencyLogger
	nilLogger.ObserveQueryLatency("x", time.Millisecond)
}
