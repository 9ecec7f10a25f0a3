package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the append-only audit trail.
type Store interface {
	Append(ctx context.Context, userID, message string) (Entry, error)
	// FindByUser returns entries oldest first.
	FindByUser(ctx context.Context, userID string) ([]Entry, error)
}

type MemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) Append(_ context.Context, userID, message string) (Entry, error) {
	if userID == "" {
		return Entry{}, fmt.Errorf("%w: user id is required", ErrInvalidEntry)
	}
	e := Entry{ID: uuid.NewString(), UserID: userID, Message: message, CreatedAt: time.Now().UTC()}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return e, nil
}

func (s *MemoryStore) FindByUser(_ context.Context, userID string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []Entry{}
	for _, e := range s.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

const Schema = `
CREATE TABLE IF NOT EXISTS notifications (
	id         UUID PRIMARY KEY,
	user_id    TEXT NOT NULL,
	message    TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS notifications_user ON notifications(user_id, created_at)`

type PGStore struct{ DB *pgxpool.Pool }

func (s *PGStore) Append(ctx context.Context, userID, message string) (Entry, error) {
	if userID == "" {
		return Entry{}, fmt.Errorf("%w: user id is required", ErrInvalidEntry)
	}
	e := Entry{ID: uuid.NewString(), UserID: userID, Message: message}
	err := s.DB.QueryRow(ctx, `
		INSERT INTO notifications(id, user_id, message) VALUES ($1, $2, $3)
		RETURNING created_at`, e.ID, e.UserID, e.Message).Scan(&e.CreatedAt)
	if err != nil {
		return Entry{}, err
	}
	return e, nil
}

func (s *PGStore) FindByUser(ctx context.Context, userID string) ([]Entry, error) {
	rows, err := s.DB.Query(ctx, `SELECT id::text, user_id, message, created_at
		FROM notifications WHERE user_id=$1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Message, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
