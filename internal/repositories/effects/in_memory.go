package effects

import (
	"bytes"
	"context"
	"sort"
	"sync"
)

type inMemoryRepository struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// NewInMemoryRepository creates a repository that keeps records in process
func NewInMemoryRepository() Repository {
	return &inMemoryRepository{
		records: make(map[string][]byte),
	}
}

func (r *inMemoryRepository) Get(ctx context.Context, spellID string) ([]byte, error) {
	if err := checkSpellID(spellID); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.records[spellID]
	if !ok {
		return nil, notFound(spellID)
	}
	return bytes.Clone(record), nil
}

func (r *inMemoryRepository) Put(ctx context.Context, spellID string, record []byte) error {
	if err := checkSpellID(spellID); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.records[spellID] = bytes.Clone(record)
	return nil
}

func (r *inMemoryRepository) Delete(ctx context.Context, spellID string) error {
	if err := checkSpellID(spellID); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[spellID]; !ok {
		return notFound(spellID)
	}
	delete(r.records, spellID)
	return nil
}

func (r *inMemoryRepository) ListSpellIDs(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.records))
	for id := range r.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
