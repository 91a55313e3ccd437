package planstore

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

type memoryEntry struct {
	codec   string
	payload []byte
	summary Summary
	seq     int
}

// MemoryStore keeps encoded records in memory.
type MemoryStore struct {
	opts options

	mu      sync.RWMutex
	entries map[string]memoryEntry
	seq     int
}

// NewMemoryStore returns an empty store. Call Init before use.
func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{opts: applyOptions(opts)}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entries == nil {
		s.entries = make(map[string]memoryEntry)
	}
	return nil
}

func (s *MemoryStore) Save(_ context.Context, rec Record) (string, error) {
	payload, err := s.opts.prepare(&rec)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entries == nil {
		return "", ErrNotInitialized
	}
	s.seq++
	s.entries[rec.ID] = memoryEntry{
		codec:   s.opts.codec.Name(),
		payload: payload,
		summary: rec.summary(),
		seq:     s.seq,
	}
	return rec.ID, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.entries == nil {
		return Record{}, false, ErrNotInitialized
	}
	e, ok := s.entries[id]
	if !ok {
		return Record{}, false, nil
	}
	rec, err := decode(e.codec, e.payload)
	if err != nil {
		return Record{}, false, fmt.Errorf("decode plan %s: %w", id, err)
	}
	return rec, true, nil
}

func (s *MemoryStore) List(_ context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.entries == nil {
		return nil, ErrNotInitialized
	}
	entries := make([]memoryEntry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	slices.SortFunc(entries, func(a, b memoryEntry) int {
		if c := a.summary.CreatedAt.Compare(b.summary.CreatedAt); c != 0 {
			return c
		}
		return a.seq - b.seq
	})

	out := make([]Summary, len(entries))
	for i, e := range entries {
		out[i] = e.summary
	}
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entries == nil {
		return ErrNotInitialized
	}
	delete(s.entries, id)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
