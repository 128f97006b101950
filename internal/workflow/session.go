package workflow

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"emergency-dashboard/internal/backend"
	"emergency-dashboard/internal/draft"
	"emergency-dashboard/internal/recommend"
)

// MaxUploadBytes is the client-side size limit for incident videos.
const MaxUploadBytes int64 = 100 * 1024 * 1024 // 100 MB

// allowedVideoTypes is the MIME allowlist for uploads (MP4, AVI, MOV).
var allowedVideoTypes = map[string]bool{
	"video/mp4":       true,
	"video/avi":       true,
	"video/x-msvideo": true,
	"video/quicktime": true,
}

// Upload progress is a presentational approximation, not a byte-level metric:
// while the destination-request/transfer round trip is in flight the percent
// advances in fixed steps on a fixed interval, capped below completion, and
// is forced to 100 only when the transfer is confirmed.
const (
	progressStep     = 10
	progressCap      = 90
	progressInterval = 500 * time.Millisecond
)

// UploadPhase is the lifecycle of one upload attempt.
type UploadPhase string

const (
	UploadIdle     UploadPhase = "idle"
	UploadActive   UploadPhase = "uploading"
	UploadComplete UploadPhase = "uploaded"
	UploadFailed   UploadPhase = "error"
)

// Progress is the presentational upload progress, reset per attempt.
type Progress struct {
	Percent int         `json:"percent"`
	Phase   UploadPhase `json:"phase"`
}

// UploadMeta describes the file the operator picked.
type UploadMeta struct {
	Name        string
	ContentType string
	Size        int64
}

// HistoryState is the past-incidents viewer state. Closing the viewer does not
// cancel an in-flight fetch; a late response still lands silently.
type HistoryState struct {
	Open      bool                   `json:"open"`
	Loading   bool                   `json:"loading"`
	Error     string                 `json:"error,omitempty"`
	Incidents []backend.PastIncident `json:"incidents"`
}

// Session is one operator's workflow for one incident. All exported methods
// are safe for concurrent use.
type Session struct {
	mu     sync.Mutex
	id     string
	client *backend.Client

	draft      *draft.Draft
	progress   Progress
	uploading  bool
	processing bool

	uploadErr  string
	processErr string
	saveErr    string

	history HistoryState

	progressStop chan struct{}
	tickInterval time.Duration
}

func newSession(id string, client *backend.Client) *Session {
	return &Session{
		id:           id,
		client:       client,
		draft:        draft.New(),
		progress:     Progress{Phase: UploadIdle},
		tickInterval: progressInterval,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Close stops the progress timer if one is still running.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopProgressLocked()
}

// State is the snapshot polled by the dashboard UI.
type State struct {
	SessionID    string          `json:"sessionId"`
	Draft        *draft.Draft    `json:"draft"`
	Upload       Progress        `json:"upload"`
	IsUploading  bool            `json:"isUploading"`
	IsProcessing bool            `json:"isProcessing"`
	UploadError  string          `json:"uploadError,omitempty"`
	ProcessError string          `json:"processError,omitempty"`
	SaveError    string          `json:"saveError,omitempty"`
	Recommended  map[string]bool `json:"recommended"`
	History      HistoryState    `json:"history"`
}

// Snapshot returns a copy of the current session state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := *s.draft
	d.Frames = append([]draft.Frame(nil), s.draft.Frames...)
	d.Keywords = append([]string(nil), s.draft.Keywords...)

	hist := s.history
	hist.Incidents = append([]backend.PastIncident(nil), s.history.Incidents...)

	return State{
		SessionID:    s.id,
		Draft:        &d,
		Upload:       s.progress,
		IsUploading:  s.uploading,
		IsProcessing: s.processing,
		UploadError:  s.uploadErr,
		ProcessError: s.processErr,
		SaveError:    s.saveErr,
		Recommended: map[string]bool{
			"police":    recommend.Recommended("police", d.Keywords),
			"ambulance": recommend.Recommended("ambulance", d.Keywords),
			"fire":      recommend.Recommended("fire", d.Keywords),
		},
		History: hist,
	}
}

// ValidateUpload checks the picked file against the size and format limits
// without touching its content, recording a failure on the session so the
// polled state surfaces it. Callers that buffer the body before SubmitUpload
// use this to reject bad files before paying for the copy.
func (s *Session) ValidateUpload(meta UploadMeta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := validateUpload(meta); err != nil {
		s.uploadErr = err.Error()
		return err
	}
	return nil
}

// SubmitUpload validates the picked file and, if valid, starts the upload and
// subsequent processing asynchronously. Validation failures are reported
// before any network call is made. content is closed by the session once the
// upload finishes or fails.
func (s *Session) SubmitUpload(meta UploadMeta, content io.ReadCloser) error {
	s.mu.Lock()

	if s.uploading || s.processing {
		s.mu.Unlock()
		content.Close()
		return fmt.Errorf("an upload is already in progress")
	}
	if s.draft.Phase != draft.Selecting {
		s.mu.Unlock()
		content.Close()
		return draft.ErrSelectionLocked
	}

	if err := validateUpload(meta); err != nil {
		s.uploadErr = err.Error()
		s.mu.Unlock()
		content.Close()
		return err
	}

	s.uploading = true
	s.uploadErr = ""
	s.processErr = ""
	s.progress = Progress{Percent: 0, Phase: UploadActive}
	s.startProgressLocked()
	s.mu.Unlock()

	// The request that delivered the file returns immediately; the session
	// outlives it, so the transfer runs on a background context.
	go s.runUpload(context.Background(), meta, content)
	return nil
}

func validateUpload(meta UploadMeta) error {
	if meta.Size > MaxUploadBytes {
		return fmt.Errorf("file is too large (%.1f MB): the limit is 100 MB", float64(meta.Size)/(1024*1024))
	}
	if !allowedVideoTypes[meta.ContentType] {
		return fmt.Errorf("unsupported video format %q: use MP4, AVI, or MOV", meta.ContentType)
	}
	return nil
}

// runUpload performs the upload-URL request, the raw transfer, and then the
// processing call, sequentially. Upload and processing never overlap.
func (s *Session) runUpload(ctx context.Context, meta UploadMeta, content io.ReadCloser) {
	defer content.Close()

	target, err := s.client.GetUploadURL(ctx, meta.Name, meta.ContentType)
	if err != nil {
		s.failUpload(err)
		return
	}

	if err := s.client.UploadVideo(ctx, target.UploadURL, meta.ContentType, content, meta.Size); err != nil {
		s.failUpload(err)
		return
	}

	s.mu.Lock()
	s.stopProgressLocked()
	s.progress = Progress{Percent: 100, Phase: UploadComplete}
	s.draft.SetVideoKey(target.VideoKey)
	s.uploading = false
	s.processing = true
	s.mu.Unlock()

	log.Info().Str("session", s.id).Str("videoKey", target.VideoKey).Msg("Upload complete, starting processing")

	s.runProcessing(ctx, target.VideoKey)
}

// failUpload aborts the attempt: the error message is surfaced and the
// progress bar is left at its last value rather than reset to zero.
func (s *Session) failUpload(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopProgressLocked()
	s.uploading = false
	s.uploadErr = err.Error()
	s.progress.Phase = UploadFailed
	log.Error().Str("session", s.id).Err(err).Msg("Upload failed")
}

// runProcessing submits the uploaded video for analysis. On failure the draft
// keeps its previous frames and analysis; the uploaded video reference is not
// rolled back either, so the operator may retry processing by re-uploading.
func (s *Session) runProcessing(ctx context.Context, videoKey string) {
	result, err := s.client.ProcessVideo(ctx, videoKey)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.processing = false

	if err != nil {
		s.processErr = err.Error()
		log.Error().Str("session", s.id).Err(err).Msg("Processing failed")
		return
	}

	if err := s.draft.ApplyProcessing(result.Frames, result.Analysis, result.Keywords); err != nil {
		// Confirmed while processing was in flight; keep the locked draft.
		s.processErr = err.Error()
		return
	}

	log.Info().
		Str("session", s.id).
		Int("frames", len(result.Frames)).
		Strs("keywords", result.Keywords).
		Msg("Processing complete")
}

// --- Progress simulation ---

// startProgressLocked begins the fixed-step progress timer. Caller holds mu.
func (s *Session) startProgressLocked() {
	stop := make(chan struct{})
	s.progressStop = stop

	go func() {
		ticker := time.NewTicker(s.tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.mu.Lock()
				if s.progress.Phase == UploadActive && s.progress.Percent < progressCap {
					s.progress.Percent += progressStep
				}
				s.mu.Unlock()
			}
		}
	}()
}

// stopProgressLocked cancels the progress timer. Safe to call when no timer
// is running. Caller holds mu.
func (s *Session) stopProgressLocked() {
	if s.progressStop != nil {
		close(s.progressStop)
		s.progressStop = nil
	}
}

// --- Operator actions ---

// ToggleService flips one service selection.
func (s *Session) ToggleService(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.Toggle(name)
}

// Confirm locks the selection and opens the notes/save panel.
func (s *Session) Confirm() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.Confirm()
}

// Cancel clears the selection and returns to the selecting phase.
func (s *Session) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.Cancel()
}

// SetNotes updates the operator notes (confirmed phase only).
func (s *Session) SetNotes(notes string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.SetNotes(notes)
}

// Discard throws the draft away and starts over.
func (s *Session) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopProgressLocked()
	s.draft.Reset()
	s.progress = Progress{Phase: UploadIdle}
	s.uploading = false
	s.processing = false
	s.uploadErr = ""
	s.processErr = ""
	s.saveErr = ""
}

// Save persists the confirmed incident. On success the notes/confirmation
// cycle resets while frames, analysis and selection stay; on failure the
// session returns to Confirmed with the notes intact so the operator can
// retry.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	if err := s.draft.BeginSave(); err != nil {
		s.mu.Unlock()
		return err
	}
	req := backend.SaveRequest{
		IncidentReport:   s.draft.Analysis,
		SelectedServices: s.draft.Selected,
		Notes:            s.draft.Notes,
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
	}
	s.mu.Unlock()

	err := s.client.SaveIncident(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.draft.FailSave()
		s.saveErr = err.Error()
		log.Error().Str("session", s.id).Err(err).Msg("Incident save failed")
		return err
	}
	s.draft.FinishSave()
	s.saveErr = ""
	log.Info().Str("session", s.id).Msg("Incident saved")
	return nil
}
