package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"emergency-dashboard/internal/draft"
)

// StaticAnalyzer returns a fixed vehicle-collision assessment. It stands in
// when no Gemini API key is configured, keeping the rest of the pipeline
// exercisable end to end.
type StaticAnalyzer struct{}

var _ Analyzer = StaticAnalyzer{}

func (StaticAnalyzer) AnalyzeFrames(ctx context.Context, frames []draft.Frame) (*Report, error) {
	analysis := &draft.Analysis{
		VehicleDetails: []string{
			"Two vehicles involved, front-end collision",
			"Airbag deployment visible in lead vehicle",
		},
		Casualties: []string{
			"Driver trapped, conscious, signs of distress",
			"Second vehicle occupants with minor injuries",
		},
		Hazards: []string{
			"Fuel leak near lead vehicle",
			"Smoke from engine compartment",
			"Traffic congestion building at the scene",
		},
		Environment: []string{
			"Clear skies",
			"Dry road surface",
			"Good visibility",
		},
		Services: []string{"Ambulance", "Fire department"},
	}

	keywords := []string{"Vehicle Collision", "Injuries", "Fuel Leak"}

	return &Report{
		Analysis: analysis,
		Keywords: keywords,
		Summary:  renderSummary(analysis),
	}, nil
}

func (StaticAnalyzer) SummarizeDispatch(ctx context.Context, incidentAnalysis string) (string, error) {
	return fmt.Sprintf(
		"DISPATCH BRIEFING (%s): Major vehicle collision reported. %s Units requested: ambulance and fire.",
		time.Now().Format("15:04:05"),
		strings.TrimSpace(incidentAnalysis),
	), nil
}

func renderSummary(a *draft.Analysis) string {
	var sb strings.Builder
	sb.WriteString("URGENT: Major Vehicle Collision\n\nPRIMARY ASSESSMENT:\n")
	for _, v := range a.VehicleDetails {
		sb.WriteString("- " + v + "\n")
	}
	sb.WriteString("\nINJURIES REPORTED:\n")
	for _, c := range a.Casualties {
		sb.WriteString("- " + c + "\n")
	}
	sb.WriteString("\nHAZARDS IDENTIFIED:\n")
	for _, h := range a.Hazards {
		sb.WriteString("- " + h + "\n")
	}
	sb.WriteString("\nIMMEDIATE NEEDS:\n")
	for _, s := range a.Services {
		sb.WriteString("- " + s + "\n")
	}
	return sb.String()
}
