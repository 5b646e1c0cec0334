package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/brightpath/attempt-service/internal/cache"
	"github.com/brightpath/attempt-service/internal/models"
)

// AttemptSnapshot is the durable copy of a start-attempt response. It backs
// the redis cache so resume survives a cache flush or service restart.
type AttemptSnapshot struct {
	AttemptID    string         `gorm:"primaryKey;size:64"`
	AssessmentID string         `gorm:"index;size:64"`
	LearnerID    string         `gorm:"index;size:255"`
	Status       string         `gorm:"size:32"`
	Snapshot     datatypes.JSON `gorm:"type:jsonb"`
	ExpiresAt    time.Time      `gorm:"index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (AttemptSnapshot) TableName() string {
	return "attempt_snapshots"
}

// SnapshotStore implements cache.AttemptCache over postgres.
type SnapshotStore struct {
	db  *gorm.DB
	ttl time.Duration
}

func NewSnapshotStore(db *gorm.DB, ttl time.Duration) (*SnapshotStore, error) {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if err := db.AutoMigrate(&AttemptSnapshot{}); err != nil {
		return nil, fmt.Errorf("failed to migrate attempt snapshots: %w", err)
	}
	return &SnapshotStore{db: db, ttl: ttl}, nil
}

func (s *SnapshotStore) Get(ctx context.Context, attemptID string) (*models.StartAttemptPayload, error) {
	var row AttemptSnapshot
	err := s.db.WithContext(ctx).First(&row, "attempt_id = ?", attemptID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, cache.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	if time.Now().After(row.ExpiresAt) {
		_ = s.Delete(ctx, attemptID)
		return nil, cache.ErrNotFound
	}

	var payload models.StartAttemptPayload
	if err := json.Unmarshal(row.Snapshot, &payload); err != nil {
		_ = s.Delete(ctx, attemptID)
		return nil, cache.ErrNotFound
	}
	return &payload, nil
}

func (s *SnapshotStore) Put(ctx context.Context, attemptID string, snapshot *models.StartAttemptPayload) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	row := AttemptSnapshot{
		AttemptID:    attemptID,
		AssessmentID: snapshot.Assessment.ID,
		Status:       string(snapshot.Status),
		Snapshot:     raw,
		ExpiresAt:    time.Now().Add(s.ttl),
	}
	if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}
	return nil
}

func (s *SnapshotStore) Delete(ctx context.Context, attemptID string) error {
	if err := s.db.WithContext(ctx).Delete(&AttemptSnapshot{}, "attempt_id = ?", attemptID).Error; err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// Claim is advisory and only meaningful on the shared cache tier; the durable
// store accepts every claim.
func (s *SnapshotStore) Claim(ctx context.Context, attemptID, owner string) (bool, error) {
	return true, nil
}
