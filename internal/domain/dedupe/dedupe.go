// Package dedupe tracks session keys that were already submitted for
// persistence, shielding the store from repeat uploads of the same log.
package dedupe

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// Deduper records seen game keys to ensure at-most-once persistence
// per process. Cross-restart duplicate detection stays with the store.
type Deduper interface {
	// SeenAndRecord atomically checks if key was seen and records it if
	// not. Returns true if key was already seen.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord removes a key, allowing a retry after a failed store.
	Unrecord(ctx context.Context, key string)

	Size() int64
}

// GameKey builds the comparable identity of a session: its start time
// plus the sorted player name set. Two uploads of the same log always
// produce the same key.
func GameKey(start time.Time, playerNames []string) string {
	names := make([]string, len(playerNames))
	copy(names, playerNames)
	sort.Strings(names)
	return start.UTC().Format(time.RFC3339) + "|" + strings.Join(names, ",")
}

const defaultMaxSize = 4096

// inMemoryDeduper implements Deduper with a map plus an insertion-order
// ring for bounded eviction (oldest key evicted first). A maxSize of
// zero or less disables eviction.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	order   []string
	next    int
	maxSize int
}

// NewInMemoryDeduper creates a deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		seen:    make(map[string]struct{}),
		maxSize: defaultMaxSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.maxSize > 0 {
		d.order = make([]string, d.maxSize)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; ok {
		return true
	}
	if d.maxSize > 0 {
		if evicted := d.order[d.next]; evicted != "" {
			delete(d.seen, evicted)
		}
		d.order[d.next] = key
		d.next = (d.next + 1) % d.maxSize
	}
	d.seen[key] = struct{}{}
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; !ok {
		return
	}
	delete(d.seen, key)
	for i, k := range d.order {
		if k == key {
			d.order[i] = ""
			break
		}
	}
}

func (d *inMemoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.seen))
}
