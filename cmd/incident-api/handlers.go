package main

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"emergency-dashboard/internal/analysis"
	"emergency-dashboard/internal/dispatchcall"
	"emergency-dashboard/internal/draft"
	"emergency-dashboard/internal/recommend"
	"emergency-dashboard/internal/store"
)

type apiServer struct {
	videos        videoStore
	local         *localVideoStore // non-nil in local mode
	analyzer      analysis.Analyzer
	incidents     store.IncidentStore
	caller        *dispatchcall.Client
	dispatchPhone string
}

// handleGetUploadURL issues the destination the browser uploads the incident
// video to.
// POST /api/get-upload-url  {"fileName": "...", "fileType": "..."}
func (s *apiServer) handleGetUploadURL(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req struct {
		FileName string `json:"fileName"`
		FileType string `json:"fileType"`
	}
	if err := decodeJSON(r, &req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validateFilename(req.FileName); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateContentType(req.FileType); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	uploadURL, videoKey, err := s.videos.UploadTarget(r.Context(), req.FileName, req.FileType)
	if err != nil {
		log.Error().Err(err).Str("fileName", req.FileName).Msg("Failed to create upload target")
		httpError(w, http.StatusInternalServerError, "could not create upload URL")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"uploadUrl": uploadURL,
		"videoKey":  videoKey,
	})
}

// handleLocalUpload receives the video body in local mode.
// PUT /api/local-upload/videos/{filename}
func (s *apiServer) handleLocalUpload(w http.ResponseWriter, r *http.Request) {
	if s.local == nil {
		httpError(w, http.StatusNotFound, "local uploads are not enabled")
		return
	}
	if r.Method != http.MethodPut {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	videoKey := strings.TrimPrefix(r.URL.Path, "/api/local-upload/")
	if err := validateVideoKey(videoKey); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.local.Put(videoKey, r.Body); err != nil {
		log.Error().Err(err).Str("key", videoKey).Msg("Local upload failed")
		httpError(w, http.StatusInternalServerError, "could not store video")
		return
	}
	w.WriteHeader(http.StatusOK)
}

// handleProcessVideo runs the analysis pipeline: fetch the stored video,
// sample frames, analyze them, and return the operator-facing result.
// POST /api/process-video  {"videoKey": "videos/..."}
func (s *apiServer) handleProcessVideo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req struct {
		VideoKey string `json:"videoKey"`
	}
	if err := decodeJSON(r, &req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validateVideoKey(req.VideoKey); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	log.Info().Str("videoKey", req.VideoKey).Msg("Processing video")

	videoPath, cleanup, err := s.videos.FetchToTemp(r.Context(), req.VideoKey)
	if err != nil {
		log.Error().Err(err).Str("videoKey", req.VideoKey).Msg("Failed to fetch video")
		httpError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer cleanup()

	frames, err := analysis.ExtractFrames(r.Context(), videoPath)
	if err != nil {
		log.Error().Err(err).Str("videoKey", req.VideoKey).Msg("Frame extraction failed")
		httpError(w, http.StatusInternalServerError, err.Error())
		return
	}

	report, err := s.analyzer.AnalyzeFrames(r.Context(), frames)
	if err != nil {
		log.Error().Err(err).Str("videoKey", req.VideoKey).Msg("Frame analysis failed")
		httpError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status":      "success",
		"frames":      frames,
		"analysis":    report.Analysis,
		"keywords":    report.Keywords,
		"report":      report.Summary,
		"frame_count": len(frames),
	})
}

// handleSaveIncident persists a confirmed incident.
// POST /api/save-incident
func (s *apiServer) handleSaveIncident(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req struct {
		IncidentReport   *draft.Analysis    `json:"incidentReport"`
		SelectedServices recommend.Services `json:"selectedServices"`
		Notes            string             `json:"notes"`
		Timestamp        string             `json:"timestamp"`
	}
	if err := decodeJSON(r, &req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Timestamp == "" {
		httpError(w, http.StatusBadRequest, "timestamp is required")
		return
	}

	incident := &store.Incident{
		Timestamp:        req.Timestamp,
		SelectedServices: req.SelectedServices,
		Notes:            req.Notes,
		IncidentReport:   store.IncidentReport{Analysis: req.IncidentReport},
	}
	if err := s.incidents.PutIncident(r.Context(), incident); err != nil {
		log.Error().Err(err).Msg("Failed to save incident")
		httpError(w, http.StatusInternalServerError, err.Error())
		return
	}

	log.Info().Str("incidentId", incident.IncidentID).Msg("Incident saved")
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Incident details saved successfully",
	})
}

// handlePastIncidents lists saved incidents, most recent first.
// GET /api/past-incidents
func (s *apiServer) handlePastIncidents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	incidents, err := s.incidents.ListIncidents(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list incidents")
		httpError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if incidents == nil {
		incidents = []store.Incident{}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status":    "success",
		"incidents": incidents,
	})
}

// handlePhoneCall generates a dispatch briefing from the incident analysis
// and, when telephony is configured, reads it out over an automated call.
// POST /api/phone-call  {"incidentAnalysis": "..."}
func (s *apiServer) handlePhoneCall(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req struct {
		IncidentAnalysis string `json:"incidentAnalysis"`
	}
	if err := decodeJSON(r, &req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.IncidentAnalysis == "" {
		httpError(w, http.StatusBadRequest, "incidentAnalysis is required")
		return
	}

	summary, err := s.analyzer.SummarizeDispatch(r.Context(), req.IncidentAnalysis)
	if err != nil {
		log.Error().Err(err).Msg("Failed to generate dispatch summary")
		httpError(w, http.StatusInternalServerError, err.Error())
		return
	}

	placed := false
	if s.caller.Configured() && s.dispatchPhone != "" {
		if err := s.caller.PlaceCall(r.Context(), summary, s.dispatchPhone); err != nil {
			log.Error().Err(err).Msg("Dispatch call failed")
			httpError(w, http.StatusBadGateway, err.Error())
			return
		}
		placed = true
	} else {
		log.Warn().Msg("Dispatch calling not configured; returning summary only")
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status":     "success",
		"message":    "Phone call initiated",
		"summary":    summary,
		"callPlaced": placed,
	})
}
