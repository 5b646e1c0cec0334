package cache

import (
	"context"
	"errors"

	"github.com/brightpath/attempt-service/internal/models"
)

// ErrNotFound is returned when no snapshot exists for the attempt.
var ErrNotFound = errors.New("attempt snapshot not found")

// AttemptCache stores one start-attempt snapshot per attempt, keyed by
// attemptId, to support refresh-resume. Entries carry a TTL so a
// long-abandoned snapshot cannot resume a stale attempt.
type AttemptCache interface {
	Get(ctx context.Context, attemptID string) (*models.StartAttemptPayload, error)
	Put(ctx context.Context, attemptID string, snapshot *models.StartAttemptPayload) error
	Delete(ctx context.Context, attemptID string) error

	// Claim registers owner as the active holder of the attempt. It returns
	// false when a different owner already holds it, which lets callers
	// detect a second tab resuming the same attempt. Claims are advisory:
	// autosave stays last-write-wins either way.
	Claim(ctx context.Context, attemptID, owner string) (bool, error)
}

// Tiered reads through primary then fallback, and writes to both. It backs
// the redis cache with the durable snapshot store so resume survives a cache
// flush.
type Tiered struct {
	primary  AttemptCache
	fallback AttemptCache
}

func NewTiered(primary, fallback AttemptCache) *Tiered {
	return &Tiered{primary: primary, fallback: fallback}
}

func (t *Tiered) Get(ctx context.Context, attemptID string) (*models.StartAttemptPayload, error) {
	snapshot, err := t.primary.Get(ctx, attemptID)
	if err == nil {
		return snapshot, nil
	}
	snapshot, err = t.fallback.Get(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	// Repopulate the primary best-effort.
	_ = t.primary.Put(ctx, attemptID, snapshot)
	return snapshot, nil
}

func (t *Tiered) Put(ctx context.Context, attemptID string, snapshot *models.StartAttemptPayload) error {
	if err := t.fallback.Put(ctx, attemptID, snapshot); err != nil {
		return err
	}
	return t.primary.Put(ctx, attemptID, snapshot)
}

func (t *Tiered) Delete(ctx context.Context, attemptID string) error {
	primaryErr := t.primary.Delete(ctx, attemptID)
	fallbackErr := t.fallback.Delete(ctx, attemptID)
	if primaryErr != nil {
		return primaryErr
	}
	return fallbackErr
}

func (t *Tiered) Claim(ctx context.Context, attemptID, owner string) (bool, error) {
	return t.primary.Claim(ctx, attemptID, owner)
}
