// Package store persists confirmed incidents. The production implementation
// writes to DynamoDB; an in-memory implementation backs local mode and tests.
package store

import (
	"context"

	"emergency-dashboard/internal/draft"
	"emergency-dashboard/internal/recommend"
)

// IncidentReport is the analysis attached to a saved incident.
type IncidentReport struct {
	Analysis *draft.Analysis `json:"analysis" dynamodbav:"analysis"`
}

// Incident is one saved dispatch record.
type Incident struct {
	IncidentID       string             `json:"incidentId" dynamodbav:"incident_id"`
	Timestamp        string             `json:"timestamp" dynamodbav:"timestamp"`
	SelectedServices recommend.Services `json:"selectedServices" dynamodbav:"selected_services"`
	Notes            string             `json:"notes" dynamodbav:"notes"`
	IncidentReport   IncidentReport     `json:"incidentReport" dynamodbav:"incident_report"`
	CreatedAt        string             `json:"createdAt" dynamodbav:"created_at"`
}

// IncidentStore persists and lists incidents.
type IncidentStore interface {
	// PutIncident saves a new incident, assigning IncidentID and CreatedAt
	// when they are empty.
	PutIncident(ctx context.Context, incident *Incident) error

	// ListIncidents returns all saved incidents, most recent first.
	ListIncidents(ctx context.Context) ([]Incident, error)
}
