package analysis

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"testing"

	"emergency-dashboard/internal/recommend"
)

func TestFrameTimestamp(t *testing.T) {
	cases := []struct {
		index int
		want  string
	}{
		{0, "00:02"},
		{1, "00:04"},
		{3, "00:08"},
		{30, "01:02"},
	}
	for _, tc := range cases {
		if got := frameTimestamp(tc.index); got != tc.want {
			t.Errorf("frameTimestamp(%d) = %q, want %q", tc.index, got, tc.want)
		}
	}
}

func encodeTestJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h)), nil); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestDownscaleJPEG_LargeImageBounded(t *testing.T) {
	data := encodeTestJPEG(t, 1280, 720)
	scaled, err := downscaleJPEG(data, maxFrameDimension)
	if err != nil {
		t.Fatalf("downscaleJPEG: %v", err)
	}
	img, err := jpeg.Decode(bytes.NewReader(scaled))
	if err != nil {
		t.Fatalf("decode scaled image: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != maxFrameDimension {
		t.Errorf("width = %d, want %d", b.Dx(), maxFrameDimension)
	}
	if b.Dy() != 360 {
		t.Errorf("height = %d, want aspect-preserving 360", b.Dy())
	}
}

func TestDownscaleJPEG_SmallImagePassesThrough(t *testing.T) {
	data := encodeTestJPEG(t, 320, 240)
	scaled, err := downscaleJPEG(data, maxFrameDimension)
	if err != nil {
		t.Fatalf("downscaleJPEG: %v", err)
	}
	if !bytes.Equal(scaled, data) {
		t.Error("image within bounds should pass through unchanged")
	}
}

func TestStaticAnalyzer_KeywordsDriveRecommendations(t *testing.T) {
	report, err := StaticAnalyzer{}.AnalyzeFrames(context.Background(), nil)
	if err != nil {
		t.Fatalf("AnalyzeFrames: %v", err)
	}
	sel := recommend.Recommend(report.Keywords)
	if !sel.Police || !sel.Ambulance || !sel.Fire {
		t.Errorf("static report keywords %v recommend %+v, want all services", report.Keywords, sel)
	}
	if report.Analysis == nil || len(report.Analysis.Hazards) == 0 {
		t.Errorf("analysis = %+v", report.Analysis)
	}
	if report.Summary == "" {
		t.Error("summary missing")
	}
}
