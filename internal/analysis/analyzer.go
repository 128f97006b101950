package analysis

import (
	"context"

	"emergency-dashboard/internal/draft"
)

// Keyword vocabulary the dashboard's recommendation rules understand. The
// analyzer only emits keywords from this list.
var KnownKeywords = []string{
	"Vehicle Collision",
	"Injuries",
	"Critical Condition",
	"Fire Hazard",
	"Fuel Leak",
}

// Report is the outcome of analyzing an incident video's frames.
type Report struct {
	Analysis *draft.Analysis
	Keywords []string
	// Summary is a dispatch-style text rendition of the analysis.
	Summary string
}

// Analyzer produces an incident report from extracted video frames and
// dispatch summaries for the phone-call flow.
type Analyzer interface {
	AnalyzeFrames(ctx context.Context, frames []draft.Frame) (*Report, error)
	SummarizeDispatch(ctx context.Context, incidentAnalysis string) (string, error)
}
