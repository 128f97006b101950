package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory IncidentStore for local mode and tests.
type MemoryStore struct {
	mu        sync.Mutex
	incidents []Incident
}

var _ IncidentStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) PutIncident(ctx context.Context, incident *Incident) error {
	if incident.IncidentID == "" {
		incident.IncidentID = uuid.NewString()
	}
	if incident.CreatedAt == "" {
		incident.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.incidents = append(s.incidents, *incident)
	return nil
}

func (s *MemoryStore) ListIncidents(ctx context.Context) ([]Incident, error) {
	s.mu.Lock()
	out := append([]Incident(nil), s.incidents...)
	s.mu.Unlock()

	sortNewestFirst(out)
	return out, nil
}
