package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	domainbooking "stayfinder/internal/domain/booking"
	"stayfinder/internal/domain/shared/events"
)

// AttemptRepository stores booking attempts in memory. It is the default
// backend when no Mongo URI is configured. Like the mongo repository it hands
// out copies, never the stored structs, so readers cannot observe in-flight
// mutations from another goroutine.
type AttemptRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.AttemptID]*domainbooking.Attempt
}

func NewAttemptRepository() *AttemptRepository {
	return &AttemptRepository{items: make(map[domainbooking.AttemptID]*domainbooking.Attempt)}
}

// ByID fetches an attempt or booking.ErrAttemptNotFound.
func (r *AttemptRepository) ByID(ctx context.Context, id domainbooking.AttemptID) (*domainbooking.Attempt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	attempt, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrAttemptNotFound
	}
	return cloneAttempt(attempt), nil
}

// Save stores a copy of the current attempt state.
func (r *AttemptRepository) Save(ctx context.Context, attempt *domainbooking.Attempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	attempt.Version++
	r.items[attempt.ID] = cloneAttempt(attempt)
	return nil
}

func (r *AttemptRepository) ListByGuest(ctx context.Context, guestID string) ([]*domainbooking.Attempt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id := strings.TrimSpace(guestID)
	if id == "" {
		return nil, errors.New("memory: guest id required")
	}
	matches := make([]*domainbooking.Attempt, 0)
	for _, attempt := range r.items {
		if attempt.GuestID == id {
			matches = append(matches, cloneAttempt(attempt))
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches, nil
}

// cloneAttempt copies the aggregate state without its pending events; those
// belong to the caller draining them into the outbox, not to storage.
func cloneAttempt(a *domainbooking.Attempt) *domainbooking.Attempt {
	clone := *a
	clone.EventRecorder = events.EventRecorder{}
	return &clone
}

var _ domainbooking.Repository = (*AttemptRepository)(nil)
