package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"emergency-dashboard/internal/workflow"
)

type server struct {
	sessions *workflow.Manager
}

// handleCreateSession starts a fresh triage session.
// POST /api/session
func (s *server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	sess := s.sessions.Create()
	log.Info().Str("session", sess.ID()).Msg("Session created")
	respondJSON(w, http.StatusCreated, sess.Snapshot())
}

// handleSessionRoutes dispatches /api/session/{id}[/action] requests.
func (s *server) handleSessionRoutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/session/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		httpError(w, http.StatusBadRequest, "missing session ID")
		return
	}

	sess := s.sessions.Get(id)
	if sess == nil {
		httpError(w, http.StatusNotFound, "session not found")
		return
	}

	if action == "" && r.Method == http.MethodDelete {
		s.sessions.Remove(id)
		respondJSON(w, http.StatusOK, map[string]string{"status": "removed"})
		return
	}

	switch action {
	case "state":
		s.handleState(w, r, sess)
	case "upload":
		s.handleUpload(w, r, sess)
	case "toggle":
		s.handleToggle(w, r, sess)
	case "confirm":
		s.handleAction(w, r, sess, sess.Confirm)
	case "cancel":
		s.handleAction(w, r, sess, sess.Cancel)
	case "notes":
		s.handleNotes(w, r, sess)
	case "save":
		s.handleSave(w, r, sess)
	case "discard":
		s.handleDiscard(w, r, sess)
	case "history/open":
		s.handleHistoryOpen(w, r, sess)
	case "history/close":
		s.handleHistoryClose(w, r, sess)
	default:
		httpError(w, http.StatusNotFound, "unknown action")
	}
}

// handleState returns the snapshot the UI polls.
// GET /api/session/{id}/state
func (s *server) handleState(w http.ResponseWriter, r *http.Request, sess *workflow.Session) {
	if r.Method != http.MethodGet {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	respondJSON(w, http.StatusOK, sess.Snapshot())
}

// handleUpload receives the picked video as multipart form data and hands it
// to the session. The upload to storage outlives this request, so the body is
// spooled to a temp file the session owns and deletes when done.
// POST /api/session/{id}/upload
func (s *server) handleUpload(w http.ResponseWriter, r *http.Request, sess *workflow.Session) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	file, header, err := r.FormFile("video")
	if err != nil {
		httpError(w, http.StatusBadRequest, "missing video file")
		return
	}
	defer file.Close()

	meta := workflow.UploadMeta{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
	}

	// Reject oversize or wrong-type files before copying them to disk.
	if err := sess.ValidateUpload(meta); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	spooled, err := spoolToTemp(file)
	if err != nil {
		log.Error().Err(err).Msg("Failed to spool upload")
		httpError(w, http.StatusInternalServerError, "could not buffer upload")
		return
	}

	if err := sess.SubmitUpload(meta, spooled); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusAccepted, sess.Snapshot())
}

// handleToggle flips one service selection.
// POST /api/session/{id}/toggle  {"service": "fire"}
func (s *server) handleToggle(w http.ResponseWriter, r *http.Request, sess *workflow.Session) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req struct {
		Service string `json:"service"`
	}
	if err := decodeJSON(r, &req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := sess.ToggleService(req.Service); err != nil {
		httpError(w, http.StatusConflict, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, sess.Snapshot())
}

// handleAction runs a bodyless state transition (confirm, cancel).
func (s *server) handleAction(w http.ResponseWriter, r *http.Request, sess *workflow.Session, fn func() error) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if err := fn(); err != nil {
		httpError(w, http.StatusConflict, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, sess.Snapshot())
}

// handleNotes updates the dispatch notes on a confirmed draft.
// POST /api/session/{id}/notes  {"notes": "..."}
func (s *server) handleNotes(w http.ResponseWriter, r *http.Request, sess *workflow.Session) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req struct {
		Notes string `json:"notes"`
	}
	if err := decodeJSON(r, &req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := sess.SetNotes(req.Notes); err != nil {
		httpError(w, http.StatusConflict, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, sess.Snapshot())
}

// handleSave persists the confirmed incident through the backend.
// POST /api/session/{id}/save
func (s *server) handleSave(w http.ResponseWriter, r *http.Request, sess *workflow.Session) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if err := sess.Save(r.Context()); err != nil {
		httpError(w, http.StatusBadGateway, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, sess.Snapshot())
}

// handleDiscard throws the draft away.
// POST /api/session/{id}/discard
func (s *server) handleDiscard(w http.ResponseWriter, r *http.Request, sess *workflow.Session) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	sess.Discard()
	respondJSON(w, http.StatusOK, sess.Snapshot())
}

// POST /api/session/{id}/history/open
func (s *server) handleHistoryOpen(w http.ResponseWriter, r *http.Request, sess *workflow.Session) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	// The fetch outlives this request.
	sess.OpenHistory(context.Background())
	respondJSON(w, http.StatusOK, sess.Snapshot())
}

// POST /api/session/{id}/history/close
func (s *server) handleHistoryClose(w http.ResponseWriter, r *http.Request, sess *workflow.Session) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	sess.CloseHistory()
	respondJSON(w, http.StatusOK, sess.Snapshot())
}

// --- Upload spooling ---

// tempUpload is a ReadCloser over a spooled upload; Close deletes the file.
type tempUpload struct {
	*os.File
}

func (t *tempUpload) Close() error {
	err := t.File.Close()
	if rmErr := os.Remove(t.File.Name()); rmErr != nil && err == nil {
		err = rmErr
	}
	return err
}

func spoolToTemp(src io.Reader) (io.ReadCloser, error) {
	f, err := os.CreateTemp("", "incident-upload-*.video")
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("spooling upload: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("rewinding temp file: %w", err)
	}
	return &tempUpload{File: f}, nil
}
