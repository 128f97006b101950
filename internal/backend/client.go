// Package backend is the HTTP client for the incident analysis backend: the
// five operations the dashboard workflow depends on (upload-URL issuance, raw
// video transfer, video processing, incident persistence, incident history)
// plus the phone-dispatch call.
//
// The backend is an external collaborator; this package only encodes its wire
// contract. Non-2xx responses, transport errors and semantic failures
// (process-video status other than "success") are all reported as errors and
// handled at the call site — nothing here retries.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"emergency-dashboard/internal/draft"
	"emergency-dashboard/internal/recommend"
)

const (
	// defaultTimeout bounds the JSON API calls.
	defaultTimeout = 30 * time.Second

	// processTimeout bounds the process-video call, which downloads the video
	// and runs frame extraction plus analysis server-side.
	processTimeout = 5 * time.Minute

	// uploadTimeout bounds the raw object transfer (files up to 100 MB).
	uploadTimeout = 10 * time.Minute
)

// Client talks to the incident backend API.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	uploadClient *http.Client
}

// NewClient creates a backend client for the given base URL
// (e.g. "http://localhost:8000").
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:      baseURL,
		httpClient:   &http.Client{Timeout: processTimeout},
		uploadClient: &http.Client{Timeout: uploadTimeout},
	}
}

// UploadTarget is the destination issued for one video upload.
type UploadTarget struct {
	UploadURL string `json:"uploadUrl"`
	VideoKey  string `json:"videoKey"`
}

// ProcessResult is a successful process-video response.
type ProcessResult struct {
	Frames   []draft.Frame   `json:"frames"`
	Analysis *draft.Analysis `json:"analysis"`
	Keywords []string        `json:"keywords"`
}

// SaveRequest is the incident persistence payload.
type SaveRequest struct {
	IncidentReport   *draft.Analysis    `json:"incidentReport"`
	SelectedServices recommend.Services `json:"selectedServices"`
	Notes            string             `json:"notes"`
	Timestamp        string             `json:"timestamp"`
}

// PastIncident is one previously saved incident, immutable once fetched.
type PastIncident struct {
	IncidentID       string             `json:"incidentId"`
	Timestamp        string             `json:"timestamp"`
	SelectedServices recommend.Services `json:"selectedServices"`
	Notes            string             `json:"notes"`
	IncidentReport   struct {
		Analysis *draft.Analysis `json:"analysis"`
	} `json:"incidentReport"`
}

// GetUploadURL requests an upload destination for a video file.
func (c *Client) GetUploadURL(ctx context.Context, fileName, fileType string) (*UploadTarget, error) {
	var target UploadTarget
	err := c.postJSON(ctx, "/api/get-upload-url", map[string]string{
		"fileName": fileName,
		"fileType": fileType,
	}, &target)
	if err != nil {
		return nil, fmt.Errorf("get upload URL: %w", err)
	}
	if target.UploadURL == "" || target.VideoKey == "" {
		return nil, fmt.Errorf("get upload URL: malformed response")
	}
	return &target, nil
}

// UploadVideo transfers the raw file bytes to the issued upload destination.
func (c *Client) UploadVideo(ctx context.Context, uploadURL, contentType string, body io.Reader, size int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, body)
	if err != nil {
		return fmt.Errorf("upload video: create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = size

	resp, err := c.uploadClient.Do(req)
	if err != nil {
		return fmt.Errorf("upload video: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("upload video: destination returned status %d", resp.StatusCode)
	}

	log.Debug().Str("url", uploadURL).Int64("bytes", size).Msg("Video transfer complete")
	return nil
}

// ProcessVideo submits an uploaded video reference for analysis.
// A response with status other than "success" is an error carrying the
// backend's message; the caller's draft state is not touched on failure.
func (c *Client) ProcessVideo(ctx context.Context, videoKey string) (*ProcessResult, error) {
	var resp struct {
		Status string `json:"status"`
		Error  string `json:"error,omitempty"`
		ProcessResult
	}
	err := c.postJSON(ctx, "/api/process-video", map[string]string{"videoKey": videoKey}, &resp)
	if err != nil {
		return nil, fmt.Errorf("process video: %w", err)
	}
	if resp.Status != "success" {
		msg := resp.Error
		if msg == "" {
			msg = fmt.Sprintf("processing returned status %q", resp.Status)
		}
		return nil, fmt.Errorf("process video: %s", msg)
	}
	return &resp.ProcessResult, nil
}

// SaveIncident persists the confirmed incident.
func (c *Client) SaveIncident(ctx context.Context, req SaveRequest) error {
	if err := c.postJSON(ctx, "/api/save-incident", req, nil); err != nil {
		return fmt.Errorf("save incident: %w", err)
	}
	return nil
}

// PastIncidents fetches all previously saved incidents, newest first.
func (c *Client) PastIncidents(ctx context.Context) ([]PastIncident, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/past-incidents", nil)
	if err != nil {
		return nil, fmt.Errorf("past incidents: create request: %w", err)
	}

	var resp struct {
		Incidents []PastIncident `json:"incidents"`
	}
	if err := c.do(req, &resp); err != nil {
		return nil, fmt.Errorf("past incidents: %w", err)
	}
	return resp.Incidents, nil
}

// PhoneDispatch asks the backend to summarize the incident for voice dispatch
// and place the call. Returns the generated summary.
func (c *Client) PhoneDispatch(ctx context.Context, incidentAnalysis string) (string, error) {
	var resp struct {
		Status  string `json:"status"`
		Summary string `json:"summary"`
	}
	err := c.postJSON(ctx, "/api/phone-call", map[string]string{"incidentAnalysis": incidentAnalysis}, &resp)
	if err != nil {
		return "", fmt.Errorf("phone dispatch: %w", err)
	}
	return resp.Summary, nil
}

// postJSON issues a POST with a JSON body and decodes the JSON response into
// out (out may be nil when the body does not matter).
func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

// do executes a request and decodes a 2xx JSON response into out.
// Error bodies are parsed for an "error" (or FastAPI-style "detail") message.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error  string `json:"error"`
			Detail string `json:"detail"`
		}
		if json.Unmarshal(data, &apiErr) == nil {
			if apiErr.Error != "" {
				return fmt.Errorf("status %d: %s", resp.StatusCode, apiErr.Error)
			}
			if apiErr.Detail != "" {
				return fmt.Errorf("status %d: %s", resp.StatusCode, apiErr.Detail)
			}
		}
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
