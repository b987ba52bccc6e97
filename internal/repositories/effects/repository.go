package effects

//go:generate mockgen -destination=mock/mock_repository.go -package=mockeffectsrepo -source=repository.go

import (
	"context"
	"time"
)

// Repository stores effect records keyed by the owning spell. Records are
// opaque JSON documents replaced as a whole; the last write wins.
type Repository interface {
	// Get returns the stored record or a not_found error
	Get(ctx context.Context, spellID string) ([]byte, error)

	// Put stores the record, replacing any previous one
	Put(ctx context.Context, spellID string, record []byte) error

	// Delete removes the record or returns a not_found error
	Delete(ctx context.Context, spellID string) error

	// ListSpellIDs returns the ids of every stored record in ascending order
	ListSpellIDs(ctx context.Context) ([]string, error)
}

// TimeProvider supplies the clock for stored timestamps
type TimeProvider interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
