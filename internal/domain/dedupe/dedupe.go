// Package dedupe coalesces identical recompute requests while one is already
// pending or running.
package dedupe

import (
	"container/list"
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/okian/gridcast/internal/domain/model"
)

// Deduper tracks keys of work that is queued or in progress.
type Deduper interface {
	// SeenAndRecord atomically checks whether id is in flight and marks it if
	// not. It returns true when the caller's request should be coalesced.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord clears id once its work finished, or failed to be queued.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// Key builds the coalescing key for a recompute of format at week.
func Key(format model.ScoringFormat, week int) string {
	return fmt.Sprintf("%s:%d", strings.ToUpper(string(format)), week)
}

// inFlight is a map of keys with insertion order kept in a list so the
// oldest key can be forgotten when the bound is reached.
type inFlight struct {
	mu      sync.Mutex
	keys    map[string]*list.Element
	order   *list.List
	maxSize int
	size    atomic.Int64
}

// NewInMemoryDeduper creates an in-memory Deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inFlight{
		keys:    make(map[string]*list.Element),
		order:   list.New(),
		maxSize: DefaultMaxSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *inFlight) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.keys[id]; ok {
		return true
	}
	if d.maxSize > 0 && len(d.keys) >= d.maxSize {
		if oldest := d.order.Front(); oldest != nil {
			delete(d.keys, oldest.Value.(string))
			d.order.Remove(oldest)
		}
	}
	d.keys[id] = d.order.PushBack(id)
	d.size.Store(int64(len(d.keys)))
	return false
}

func (d *inFlight) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.keys[id]; ok {
		d.order.Remove(el)
		delete(d.keys, id)
		d.size.Store(int64(len(d.keys)))
	}
}

func (d *inFlight) Size() int64 {
	return d.size.Load()
}
