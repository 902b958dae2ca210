package classify

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Tracker is an in-process Guard: the most recent Begin for a document wins
type Tracker struct {
	mu     sync.Mutex
	latest map[string]string
}

func NewTracker() *Tracker {
	return &Tracker{latest: make(map[string]string)}
}

// Begin registers a new request for documentID and returns its id
func (t *Tracker) Begin(_ context.Context, documentID string) (string, error) {
	requestID := uuid.New().String()
	t.mu.Lock()
	t.latest[documentID] = requestID
	t.mu.Unlock()
	return requestID, nil
}

// Finish forgets the document if requestID is still the latest
func (t *Tracker) Finish(_ context.Context, documentID, requestID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.latest[documentID] == requestID {
		delete(t.latest, documentID)
	}
	return nil
}

func (t *Tracker) Superseded(_ context.Context, documentID, requestID string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	latest, ok := t.latest[documentID]
	return ok && latest != requestID, nil
}
