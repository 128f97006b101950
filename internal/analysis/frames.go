// Package analysis turns an uploaded incident video into the material the
// dashboard shows the operator: representative frames, a structured incident
// report, and the keyword list that drives service recommendations.
package analysis

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"

	"emergency-dashboard/internal/draft"
)

const (
	// frameIntervalSeconds is the sampling interval: one frame every 2 seconds.
	frameIntervalSeconds = 2

	// MaxFrames caps how many frames are returned to the dashboard.
	MaxFrames = 4

	// maxFrameDimension bounds the longest edge of a returned frame. Frames
	// travel to the browser as base64 JSON, so they are kept small.
	maxFrameDimension = 640

	// frameJPEGQuality is the quality for re-encoded frames.
	frameJPEGQuality = 80
)

// ExtractFrames samples the video at one frame per two seconds, keeps the
// first MaxFrames, downscales them, and returns them base64-encoded with
// mm:ss timestamps.
func ExtractFrames(ctx context.Context, videoPath string) ([]draft.Frame, error) {
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found: frame extraction requires ffmpeg: %w", err)
	}

	frameDir, err := os.MkdirTemp("", "incident-frames-*")
	if err != nil {
		return nil, fmt.Errorf("create frame directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(frameDir); err != nil {
			log.Warn().Err(err).Str("dir", frameDir).Msg("Failed to remove frame directory")
		}
	}()

	framePattern := filepath.Join(frameDir, "frame_%03d.jpg")
	args := []string{
		"-i", videoPath,
		"-vf", fmt.Sprintf("fps=1/%d", frameIntervalSeconds),
		"-frames:v", fmt.Sprintf("%d", MaxFrames),
		"-qscale:v", "2",
		"-vsync", "0",
		"-y", framePattern,
	}

	cmd := exec.CommandContext(ctx, ffmpegPath, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("frame extraction failed: %w\nOutput: %s", err, string(output))
	}

	paths, err := collectFramePaths(frameDir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no frames extracted from %s", filepath.Base(videoPath))
	}
	if len(paths) > MaxFrames {
		paths = paths[:MaxFrames]
	}

	frames := make([]draft.Frame, 0, len(paths))
	for i, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read frame %s: %w", filepath.Base(p), err)
		}
		scaled, err := downscaleJPEG(data, maxFrameDimension)
		if err != nil {
			return nil, fmt.Errorf("downscale frame %s: %w", filepath.Base(p), err)
		}
		frames = append(frames, draft.Frame{
			ID:        i + 1,
			Image:     base64.StdEncoding.EncodeToString(scaled),
			Timestamp: frameTimestamp(i),
		})
	}

	log.Info().
		Str("video", filepath.Base(videoPath)).
		Int("frames", len(frames)).
		Msg("Frame extraction complete")

	return frames, nil
}

// frameTimestamp formats the video position of the i-th sampled frame (0-based)
// as mm:ss. The first sample lands at one interval in, not at zero.
func frameTimestamp(index int) string {
	secs := (index + 1) * frameIntervalSeconds
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

// downscaleJPEG resizes a JPEG so its longest edge is at most maxDim,
// preserving aspect ratio. Images already within bounds pass through.
func downscaleJPEG(data []byte, maxDim int) ([]byte, error) {
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxDim && h <= maxDim {
		return data, nil
	}

	newW, newH := scaledDimensions(w, h, maxDim)
	resized := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: frameJPEGQuality}); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return buf.Bytes(), nil
}

func scaledDimensions(width, height, maxDim int) (int, int) {
	if width > height {
		return maxDim, int(float64(height) * float64(maxDim) / float64(width))
	}
	return int(float64(width) * float64(maxDim) / float64(height)), maxDim
}

func collectFramePaths(frameDir string) ([]string, error) {
	entries, err := os.ReadDir(frameDir)
	if err != nil {
		return nil, fmt.Errorf("read frame directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, "frame_") && strings.HasSuffix(name, ".jpg") {
			paths = append(paths, filepath.Join(frameDir, name))
		}
	}
	sort.Strings(paths)
	return paths, nil
}
