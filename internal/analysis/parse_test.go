package analysis

import (
	"strings"
	"testing"
)

const sampleReportJSON = `{
  "analysis": {
    "vehicleDetails": ["Blue sedan, front-end damage"],
    "casualties": ["Driver conscious, trapped"],
    "hazards": ["Active fuel leak"],
    "environment": ["Dry road, daylight"],
    "services": ["Fire department"]
  },
  "keywords": ["Vehicle Collision", "Fuel Leak"],
  "summary": "Two-vehicle collision with fuel leak."
}`

func TestParseReport_PlainJSON(t *testing.T) {
	report, err := parseReport(sampleReportJSON)
	if err != nil {
		t.Fatalf("parseReport: %v", err)
	}
	if len(report.Analysis.VehicleDetails) != 1 || len(report.Analysis.Hazards) != 1 {
		t.Errorf("analysis = %+v", report.Analysis)
	}
	if len(report.Keywords) != 2 {
		t.Errorf("keywords = %v", report.Keywords)
	}
	if report.Summary == "" {
		t.Error("summary missing")
	}
}

func TestParseReport_FencedJSON(t *testing.T) {
	raw := "```json\n" + sampleReportJSON + "\n```"
	report, err := parseReport(raw)
	if err != nil {
		t.Fatalf("parseReport: %v", err)
	}
	if len(report.Keywords) != 2 || report.Keywords[0] != "Vehicle Collision" {
		t.Errorf("keywords = %v", report.Keywords)
	}
}

func TestParseReport_ProseWrapped(t *testing.T) {
	raw := "Here is the assessment you asked for:\n" + sampleReportJSON + "\nLet me know if you need more detail."
	if _, err := parseReport(raw); err != nil {
		t.Fatalf("parseReport: %v", err)
	}
}

func TestParseReport_UnknownKeywordsDropped(t *testing.T) {
	raw := strings.Replace(sampleReportJSON,
		`["Vehicle Collision", "Fuel Leak"]`,
		`["Vehicle Collision", "Car Crash", "fuel leak"]`, 1)
	report, err := parseReport(raw)
	if err != nil {
		t.Fatalf("parseReport: %v", err)
	}
	// Matching is exact: synonyms and case variants must not leak through.
	if len(report.Keywords) != 1 || report.Keywords[0] != "Vehicle Collision" {
		t.Errorf("keywords = %v, want only the exact vocabulary match", report.Keywords)
	}
}

func TestParseReport_NoJSON(t *testing.T) {
	if _, err := parseReport("I could not analyze these frames."); err == nil {
		t.Fatal("expected error for response with no JSON")
	}
}
