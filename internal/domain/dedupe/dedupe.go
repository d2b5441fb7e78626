// Package dedupe tracks account names already scheduled in a run.
package dedupe

import (
	"context"
	"strings"
)

// Deduper records seen account names so each is claimed at most once per run.
type Deduper interface {
	// SeenAndRecord reports whether id was already seen and records it if not.
	SeenAndRecord(ctx context.Context, id string) bool

	// Size returns the number of distinct ids recorded.
	Size() int
}

// Option applies a configuration option to the in-memory deduper.
type Option func(*inMemoryDeduper)

// WithCaseFold treats ids that differ only in case as the same id.
// Hive account names are lowercase on chain, so "Alice" and "alice" collide.
func WithCaseFold(enabled bool) Option {
	return func(d *inMemoryDeduper) {
		d.fold = enabled
	}
}

// inMemoryDeduper is not safe for concurrent use; a run processes accounts
// sequentially.
type inMemoryDeduper struct {
	seen map[string]struct{}
	fold bool
}

// NewInMemoryDeduper creates a new in-memory deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{seen: make(map[string]struct{})}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *inMemoryDeduper) key(id string) string {
	id = strings.TrimSpace(id)
	if d.fold {
		return strings.ToLower(id)
	}
	return id
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	k := d.key(id)
	if _, ok := d.seen[k]; ok {
		return true
	}
	d.seen[k] = struct{}{}
	return false
}

func (d *inMemoryDeduper) Size() int { return len(d.seen) }

// Unique returns ids with repeats removed, keeping the first occurrence, and
// the repeats that were dropped in the order they were encountered.
func Unique(ctx context.Context, ids []string, opts ...Option) (unique, dropped []string) {
	d := NewInMemoryDeduper(opts...)
	unique = make([]string, 0, len(ids))
	for _, id := range ids {
		if d.SeenAndRecord(ctx, id) {
			dropped = append(dropped, id)
			continue
		}
		unique = append(unique, id)
	}
	return unique, dropped
}
