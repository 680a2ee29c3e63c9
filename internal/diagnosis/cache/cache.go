// Package cache memoizes posteriors per evidence assignment.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"maps"
	"sort"
	"strconv"
	"strings"
	"sync"
)

type Posteriors = map[string]float64

// InMemory holds up to max entries. Concurrent misses on one key share a
// single computation; errors are not cached.
type InMemory struct {
	mu       sync.RWMutex
	max      int
	items    map[string]Posteriors
	inflight map[string]*call
}

type call struct {
	done chan struct{}
	val  Posteriors
	err  error
}

func NewInMemory(max int) *InMemory {
	if max < 1 {
		max = 1
	}
	return &InMemory{
		max:      max,
		items:    make(map[string]Posteriors, max),
		inflight: make(map[string]*call),
	}
}

// GetOrCompute returns a copy of the posteriors cached for evidence, calling
// fn on a miss.
func (c *InMemory) GetOrCompute(evidence map[string]int, fn func() (Posteriors, error)) (Posteriors, error) {
	key := Key(evidence)

	c.mu.RLock()
	if v, ok := c.items[key]; ok {
		c.mu.RUnlock()
		return maps.Clone(v), nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	if v, ok := c.items[key]; ok {
		c.mu.Unlock()
		return maps.Clone(v), nil
	}
	if cl, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		<-cl.done
		return maps.Clone(cl.val), cl.err
	}
	cl := &call{done: make(chan struct{})}
	c.inflight[key] = cl
	c.mu.Unlock()

	c.compute(cl, fn)

	c.mu.Lock()
	delete(c.inflight, key)
	if cl.err == nil && len(c.items) < c.max {
		c.items[key] = cl.val
	}
	c.mu.Unlock()
	close(cl.done)

	return maps.Clone(cl.val), cl.err
}

func (c *InMemory) compute(cl *call, fn func() (Posteriors, error)) {
	defer func() {
		if r := recover(); r != nil {
			cl.val = nil
			cl.err = fmt.Errorf("posterior computation panicked: %v", r)
		}
	}()
	cl.val, cl.err = fn()
}

func (c *InMemory) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Key is a stable digest of evidence independent of map order.
func Key(evidence map[string]int) string {
	names := make([]string, 0, len(evidence))
	for k := range evidence {
		names = append(names, k)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, k := range names {
		b.WriteString(strconv.Quote(k))
		b.WriteByte('=')
		b.WriteString(strconv.Itoa(evidence[k]))
		b.WriteByte(';')
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
