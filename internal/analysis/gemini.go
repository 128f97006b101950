package analysis

import (
	"context"
	"encoding/base64"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"emergency-dashboard/internal/draft"
)

// GeminiAnalyzer analyzes incident frames with the Gemini API.
type GeminiAnalyzer struct {
	client *genai.Client
	model  string
}

var _ Analyzer = (*GeminiAnalyzer)(nil)

// NewGeminiAnalyzer creates a Gemini-backed analyzer.
func NewGeminiAnalyzer(ctx context.Context, apiKey, model string) (*GeminiAnalyzer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}
	return &GeminiAnalyzer{client: client, model: model}, nil
}

const analysisSystemPrompt = `You are assisting an emergency dispatch operator.
You will be shown frames sampled from an incident scene video. Assess the
scene factually. Do not speculate beyond what is visible.`

// buildAnalysisPrompt asks for the report as strict JSON so the response can
// be parsed without free-text cleanup.
func buildAnalysisPrompt() string {
	var sb strings.Builder
	sb.WriteString("## Incident Frame Analysis\n\n")
	sb.WriteString("The frames above were sampled two seconds apart from an incident video.\n")
	sb.WriteString("Produce an incident report for the dispatch operator.\n\n")
	sb.WriteString("### Required Output\n\n")
	sb.WriteString("Respond with ONLY a valid JSON object in this shape:\n")
	sb.WriteString(`{
  "analysis": {
    "vehicleDetails": ["..."],
    "casualties": ["..."],
    "hazards": ["..."],
    "environment": ["..."],
    "services": ["..."]
  },
  "keywords": ["..."],
  "summary": "..."
}` + "\n\n")
	sb.WriteString("Each analysis field is a list of short factual findings; use an empty list when nothing applies.\n")
	sb.WriteString("The keywords field may ONLY contain values from this exact list: ")
	sb.WriteString(strings.Join(KnownKeywords, ", "))
	sb.WriteString(".\nThe summary is a dispatch-style paragraph under 100 words.\n")
	return sb.String()
}

// AnalyzeFrames sends the frames to Gemini as inline JPEG blobs and parses
// the structured report from the response.
func (g *GeminiAnalyzer) AnalyzeFrames(ctx context.Context, frames []draft.Frame) (*Report, error) {
	if len(frames) == 0 {
		return nil, fmt.Errorf("no frames to analyze")
	}

	var parts []*genai.Part
	for _, frame := range frames {
		data, err := base64.StdEncoding.DecodeString(frame.Image)
		if err != nil {
			return nil, fmt.Errorf("decode frame %d: %w", frame.ID, err)
		}
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{
				MIMEType: "image/jpeg",
				Data:     data,
			},
		})
	}
	parts = append(parts, &genai.Part{Text: buildAnalysisPrompt()})

	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: analysisSystemPrompt}},
		},
	}
	contents := []*genai.Content{{Role: "user", Parts: parts}}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		log.Error().Err(err).Dur("duration", time.Since(start)).Msg("Gemini frame analysis failed")
		return nil, fmt.Errorf("generate content: %w", err)
	}
	if resp == nil || resp.Text() == "" {
		return nil, fmt.Errorf("empty response from Gemini API")
	}

	log.Debug().
		Int("frames", len(frames)).
		Int("response_length", len(resp.Text())).
		Dur("duration", time.Since(start)).
		Msg("Gemini analysis response received")

	report, err := parseReport(resp.Text())
	if err != nil {
		log.Error().Err(err).Str("response", resp.Text()).Msg("Failed to parse analysis response")
		return nil, fmt.Errorf("analysis response: %w", err)
	}

	log.Info().
		Strs("keywords", report.Keywords).
		Msg("Frame analysis complete")
	return report, nil
}

// dispatchLocations are placeholder locations for the dispatch summary; the
// pipeline has no geolocation source yet.
var dispatchLocations = []string{
	"500 El Camino Real, Santa Clara, CA 95053 (near Santa Clara University), 37.3496° N, 121.9390° W",
	"2200 Mission College Blvd, Santa Clara, CA 95054 (near Intel Headquarters), 37.3875° N, 121.9637° W",
	"4900 Marie P DeBartolo Way, Santa Clara, CA 95054 (near Levi's Stadium), 37.4033° N, 121.9694° W",
}

// SummarizeDispatch condenses the incident analysis into a short dispatch
// briefing suitable for reading out over the phone.
func (g *GeminiAnalyzer) SummarizeDispatch(ctx context.Context, incidentAnalysis string) (string, error) {
	location := dispatchLocations[rand.Intn(len(dispatchLocations))]

	prompt := fmt.Sprintf(`EMERGENCY DISPATCH ALERT:

LOCATION: %s

INCIDENT DETAILS:
%s

Summarize this incident in an urgent, dispatch-style format, focusing on:
- Location and coordinates
- Number of people involved
- Type of emergency
- Immediate risks
Keep it under 100 words.`, location, incidentAnalysis)

	contents := []*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: prompt}}}}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("generate dispatch summary: %w", err)
	}
	if resp == nil || resp.Text() == "" {
		return "", fmt.Errorf("empty summary from Gemini API")
	}
	return strings.TrimSpace(resp.Text()), nil
}
