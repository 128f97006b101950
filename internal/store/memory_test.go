package store

import (
	"context"
	"testing"

	"emergency-dashboard/internal/draft"
)

func TestMemoryStore_AssignsIDAndCreatedAt(t *testing.T) {
	s := NewMemoryStore()
	inc := &Incident{
		Timestamp: "2026-02-11T08:30:00Z",
		Notes:     "two units dispatched",
	}
	if err := s.PutIncident(context.Background(), inc); err != nil {
		t.Fatalf("PutIncident: %v", err)
	}
	if inc.IncidentID == "" {
		t.Error("incident ID not assigned")
	}
	if inc.CreatedAt == "" {
		t.Error("created_at not assigned")
	}
}

func TestMemoryStore_ListNewestFirst(t *testing.T) {
	s := NewMemoryStore()
	timestamps := []string{
		"2026-02-11T08:30:00Z",
		"2026-02-13T10:00:00Z",
		"2026-02-12T09:15:00Z",
	}
	for _, ts := range timestamps {
		err := s.PutIncident(context.Background(), &Incident{
			Timestamp:      ts,
			IncidentReport: IncidentReport{Analysis: &draft.Analysis{Hazards: []string{"Fuel leak"}}},
		})
		if err != nil {
			t.Fatalf("PutIncident(%s): %v", ts, err)
		}
	}

	incidents, err := s.ListIncidents(context.Background())
	if err != nil {
		t.Fatalf("ListIncidents: %v", err)
	}
	if len(incidents) != 3 {
		t.Fatalf("got %d incidents", len(incidents))
	}
	want := []string{
		"2026-02-13T10:00:00Z",
		"2026-02-12T09:15:00Z",
		"2026-02-11T08:30:00Z",
	}
	for i, ts := range want {
		if incidents[i].Timestamp != ts {
			t.Errorf("incidents[%d].Timestamp = %s, want %s", i, incidents[i].Timestamp, ts)
		}
	}
	if incidents[0].IncidentReport.Analysis == nil {
		t.Error("analysis lost in round trip")
	}
}
