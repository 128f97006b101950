// Package config loads service configuration from environment variables.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Dashboard holds configuration for the operator dashboard server.
type Dashboard struct {
	Port       int    `env:"DASHBOARD_PORT" envDefault:"8080"`
	BackendURL string `env:"DASHBOARD_BACKEND_URL" envDefault:"http://localhost:8000"`
}

// API holds configuration for the incident backend server.
type API struct {
	Port          int    `env:"INCIDENT_API_PORT" envDefault:"8000"`
	AWSRegion     string `env:"AWS_REGION" envDefault:"us-west-2"`
	VideoBucket   string `env:"INCIDENT_VIDEO_BUCKET"`
	IncidentTable string `env:"INCIDENT_TABLE" envDefault:"EmergencyIncidents"`
	GeminiAPIKey  string `env:"GEMINI_API_KEY"`
	GeminiModel   string `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash"`
	VapiAuthToken string `env:"VAPI_AUTH_TOKEN"`
	VapiPhoneID   string `env:"VAPI_PHONE_NUMBER_ID"`
	DispatchPhone string `env:"DISPATCH_PHONE_NUMBER"`
	// LocalStore switches incident persistence to the in-memory store,
	// for running without AWS credentials.
	LocalStore bool `env:"INCIDENT_LOCAL_STORE" envDefault:"false"`
}

// LoadDashboard parses dashboard configuration from the environment.
func LoadDashboard() (*Dashboard, error) {
	cfg, err := env.ParseAs[Dashboard]()
	if err != nil {
		return nil, fmt.Errorf("failed to load dashboard config: %w", err)
	}
	return &cfg, nil
}

// LoadAPI parses backend configuration from the environment.
func LoadAPI() (*API, error) {
	cfg, err := env.ParseAs[API]()
	if err != nil {
		return nil, fmt.Errorf("failed to load API config: %w", err)
	}
	if !cfg.LocalStore && cfg.VideoBucket == "" {
		return nil, fmt.Errorf("INCIDENT_VIDEO_BUCKET is required unless INCIDENT_LOCAL_STORE=true")
	}
	return &cfg, nil
}
