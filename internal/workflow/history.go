package workflow

import (
	"context"

	"github.com/rs/zerolog/log"
)

// OpenHistory opens the past-incidents viewer and triggers a fetch. While the
// fetch is pending the viewer shows a busy indicator; on success the list is
// replaced, on failure the error message is shown with an empty list.
func (s *Session) OpenHistory(ctx context.Context) {
	s.mu.Lock()
	s.history.Open = true
	s.history.Loading = true
	s.history.Error = ""
	s.mu.Unlock()

	go s.fetchHistory(ctx)
}

// CloseHistory hides the viewer. An in-flight fetch is not cancelled; its
// late result still updates the hidden list silently.
func (s *Session) CloseHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history.Open = false
}

func (s *Session) fetchHistory(ctx context.Context) {
	incidents, err := s.client.PastIncidents(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.history.Loading = false

	if err != nil {
		s.history.Error = err.Error()
		s.history.Incidents = nil
		log.Error().Str("session", s.id).Err(err).Msg("Past incidents fetch failed")
		return
	}

	s.history.Incidents = incidents
	log.Debug().Str("session", s.id).Int("count", len(incidents)).Msg("Past incidents loaded")
}
