package orders

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Log is the append-only order history.
type Log interface {
	// Append assigns ID and CreatedAt and returns the stored record.
	Append(ctx context.Context, r Record) (Record, error)
	// FindByUser returns the user's records, newest first.
	FindByUser(ctx context.Context, userID string) ([]Record, error)
	Get(ctx context.Context, id string) (Record, error)
}

func newestFirst(rs []Record) {
	sort.SliceStable(rs, func(i, j int) bool { return rs[i].CreatedAt.After(rs[j].CreatedAt) })
}

type MemoryLog struct {
	mu      sync.RWMutex
	records []Record
	now     func() time.Time
}

func NewMemoryLog() *MemoryLog {
	return &MemoryLog{now: time.Now}
}

func (l *MemoryLog) Append(_ context.Context, r Record) (Record, error) {
	if err := r.Validate(); err != nil {
		return Record{}, err
	}
	r.ID = uuid.NewString()
	r.CreatedAt = l.now().UTC()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, r)
	return r, nil
}

func (l *MemoryLog) FindByUser(_ context.Context, userID string) ([]Record, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := []Record{}
	// walk backwards so equal timestamps come out latest-inserted first
	for i := len(l.records) - 1; i >= 0; i-- {
		if l.records[i].UserID == userID {
			out = append(out, l.records[i])
		}
	}
	newestFirst(out)
	return out, nil
}

func (l *MemoryLog) Get(_ context.Context, id string) (Record, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, r := range l.records {
		if r.ID == id {
			return r, nil
		}
	}
	return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Len reports how many records were appended.
func (l *MemoryLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}
