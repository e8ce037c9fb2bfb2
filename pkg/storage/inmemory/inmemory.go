// Package inmemory provides a map-backed storage driver.
package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/papercomputeco/medrag/pkg/storage"
)

// Driver implements storage.Driver using an in-memory map.
type Driver struct {
	// mu is a read write sync mutex for locking the mapping of records
	mu sync.RWMutex

	// records is keyed by unit ID
	records map[string]storage.Record
}

// NewDriver creates a new in-memory store.
func NewDriver() *Driver {
	return &Driver{
		records: make(map[string]storage.Record),
	}
}

// Put upserts records.
func (d *Driver) Put(_ context.Context, records []storage.Record) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	inserted := 0
	for _, r := range records {
		if r.ID == "" {
			return inserted, fmt.Errorf("cannot store record without id (source %q)", r.Source)
		}
		if _, ok := d.records[r.ID]; !ok {
			inserted++
		}
		d.records[r.ID] = r
	}
	return inserted, nil
}

// Get retrieves a record by ID.
func (d *Driver) Get(_ context.Context, id string) (*storage.Record, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	r, ok := d.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	return &r, nil
}

// ListBySource returns the records of one source.
func (d *Driver) ListBySource(_ context.Context, source string) ([]storage.Record, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []storage.Record
	for _, r := range d.records {
		if r.Source == source {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartOffset != out[j].StartOffset {
			return out[i].StartOffset < out[j].StartOffset
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Sources summarizes every source.
func (d *Driver) Sources(_ context.Context) ([]storage.SourceSummary, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	bySource := make(map[string]*storage.SourceSummary)
	for _, r := range d.records {
		s, ok := bySource[r.Source]
		if !ok {
			s = &storage.SourceSummary{Source: r.Source, Type: r.Type}
			bySource[r.Source] = s
		}
		if r.Type < s.Type {
			s.Type = r.Type
		}
		s.Units++
	}

	out := make([]storage.SourceSummary, 0, len(bySource))
	for _, s := range bySource {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Source < out[j].Source })
	return out, nil
}

// Count returns the number of records.
func (d *Driver) Count(_ context.Context) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.records), nil
}

// Close is a no-op.
func (d *Driver) Close() error {
	return nil
}
