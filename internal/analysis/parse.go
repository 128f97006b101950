package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"emergency-dashboard/internal/draft"
)

// reportPayload is the JSON shape the model is asked to produce.
type reportPayload struct {
	Analysis struct {
		VehicleDetails []string `json:"vehicleDetails"`
		Casualties     []string `json:"casualties"`
		Hazards        []string `json:"hazards"`
		Environment    []string `json:"environment"`
		Services       []string `json:"services"`
	} `json:"analysis"`
	Keywords []string `json:"keywords"`
	Summary  string   `json:"summary"`
}

// parseReport extracts the report JSON from a model response that may be
// wrapped in markdown fences or surrounded by prose.
func parseReport(raw string) (*Report, error) {
	text := stripFences(raw)
	jsonStr, err := extractObject(text)
	if err != nil {
		return nil, fmt.Errorf("%w (response length: %d)", err, len(raw))
	}

	var payload reportPayload
	if err := json.Unmarshal([]byte(jsonStr), &payload); err != nil {
		preview := jsonStr
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		return nil, fmt.Errorf("invalid report JSON: %w (text: %s)", err, preview)
	}

	return &Report{
		Analysis: &draft.Analysis{
			VehicleDetails: payload.Analysis.VehicleDetails,
			Casualties:     payload.Analysis.Casualties,
			Hazards:        payload.Analysis.Hazards,
			Environment:    payload.Analysis.Environment,
			Services:       payload.Analysis.Services,
		},
		Keywords: filterKnownKeywords(payload.Keywords),
		Summary:  payload.Summary,
	}, nil
}

// filterKnownKeywords drops anything outside the recommendation vocabulary.
// The rules downstream match exact strings, so a creative synonym from the
// model would silently recommend nothing.
func filterKnownKeywords(keywords []string) []string {
	known := make(map[string]bool, len(KnownKeywords))
	for _, k := range KnownKeywords {
		known[k] = true
	}
	var out []string
	for _, k := range keywords {
		if known[k] {
			out = append(out, k)
		}
	}
	return out
}

// stripFences removes ```json ... ``` or ``` ... ``` wrapping.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	lines := strings.Split(text, "\n")
	if len(lines) < 3 {
		return text
	}

	endIdx := len(lines) - 1
	for i := len(lines) - 1; i >= 1; i-- {
		if strings.TrimSpace(lines[i]) == "```" {
			endIdx = i
			break
		}
	}
	return strings.Join(lines[1:endIdx], "\n")
}

// extractObject returns the outermost JSON object in text.
func extractObject(text string) (string, error) {
	start := strings.Index(text, "{")
	if start == -1 {
		return "", fmt.Errorf("no JSON object found")
	}
	end := strings.LastIndex(text, "}")
	if end == -1 || end < start {
		return "", fmt.Errorf("no closing } found")
	}
	return text[start : end+1], nil
}
