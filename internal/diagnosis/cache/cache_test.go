package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestInMemory_GetOrCompute_DeduplicatesConcurrentSameKey(t *testing.T) {
	c := NewInMemory(16)
	var calls atomic.Int32

	fn := func() (Posteriors, error) {
		calls.Add(1)
		time.Sleep(30 * time.Millisecond)
		return Posteriors{"battery_issue": 0.2}, nil
	}

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.GetOrCompute(map[string]int{"battery_ok": 0}, fn)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("expected fn to run once, got %d", got)
	}
}

func TestInMemory_GetOrCompute_ErrorIsNotCached(t *testing.T) {
	c := NewInMemory(16)
	var calls atomic.Int32
	ev := map[string]int{"overheating": 1}

	_, err := c.GetOrCompute(ev, func() (Posteriors, error) {
		calls.Add(1)
		return nil, errors.New("boom")
	})
	if err == nil {
		t.Fatalf("expected error")
	}

	_, err = c.GetOrCompute(ev, func() (Posteriors, error) {
		calls.Add(1)
		return Posteriors{"radiator_issue": 0.3}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := calls.Load(); got != 2 {
		t.Fatalf("expected fn to run twice (error should not be cached), got %d", got)
	}
}

func TestInMemory_GetOrCompute_PanicDoesNotBlockWaiters(t *testing.T) {
	c := NewInMemory(16)
	var calls atomic.Int32

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.GetOrCompute(map[string]int{"vibrations": 1}, func() (Posteriors, error) {
				calls.Add(1)
				time.Sleep(10 * time.Millisecond)
				panic("boom")
			})
			errs <- err
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		if err == nil {
			t.Fatalf("expected panic converted into error")
		}
	}
	if got := calls.Load(); got > n {
		t.Fatalf("unexpected call count %d", got)
	}
}

func TestInMemory_ReturnsCopies(t *testing.T) {
	c := NewInMemory(4)
	ev := map[string]int{"battery_ok": 1}

	first, err := c.GetOrCompute(ev, func() (Posteriors, error) {
		return Posteriors{"battery_issue": 0.4}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first["battery_issue"] = 1

	second, err := c.GetOrCompute(ev, func() (Posteriors, error) {
		t.Fatalf("expected cache hit")
		return nil, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second["battery_issue"] != 0.4 {
		t.Fatalf("cached entry was mutated: %v", second)
	}
}

func TestInMemory_RespectsMax(t *testing.T) {
	c := NewInMemory(1)
	fn := func() (Posteriors, error) { return Posteriors{}, nil }

	if _, err := c.GetOrCompute(map[string]int{"a": 1}, fn); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := c.GetOrCompute(map[string]int{"b": 1}, fn); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := c.Len(); got != 1 {
		t.Fatalf("expected 1 cached entry, got %d", got)
	}
}

func TestKey_IgnoresMapOrderButNotValues(t *testing.T) {
	a := Key(map[string]int{"battery_ok": 1, "difficulty_starting": 1})
	b := Key(map[string]int{"difficulty_starting": 1, "battery_ok": 1})
	if a != b {
		t.Fatalf("expected equal keys")
	}
	if a == Key(map[string]int{"difficulty_starting": 1, "battery_ok": 0}) {
		t.Fatalf("expected different keys for different values")
	}
	if Key(nil) != Key(map[string]int{}) {
		t.Fatalf("nil and empty evidence should share a key")
	}
}
