package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"emergency-dashboard/internal/analysis"
	"emergency-dashboard/internal/dispatchcall"
	"emergency-dashboard/internal/store"
)

func newLocalTestServer(t *testing.T) *apiServer {
	t.Helper()
	local, err := newLocalVideoStore(t.TempDir(), "http://localhost:8000")
	if err != nil {
		t.Fatalf("newLocalVideoStore: %v", err)
	}
	return &apiServer{
		videos:    local,
		local:     local,
		analyzer:  analysis.StaticAnalyzer{},
		incidents: store.NewMemoryStore(),
		caller:    dispatchcall.NewClient("", ""),
	}
}

func postJSON(t *testing.T, handler http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestGetUploadURL_LocalMode(t *testing.T) {
	s := newLocalTestServer(t)
	rec := postJSON(t, s.handleGetUploadURL, "/api/get-upload-url",
		`{"fileName":"crash.mp4","fileType":"video/mp4"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp["videoKey"] != "videos/crash.mp4" {
		t.Errorf("videoKey = %q", resp["videoKey"])
	}
	if !strings.Contains(resp["uploadUrl"], "/api/local-upload/videos/crash.mp4") {
		t.Errorf("uploadUrl = %q", resp["uploadUrl"])
	}
}

func TestGetUploadURL_RejectsBadInput(t *testing.T) {
	s := newLocalTestServer(t)
	cases := []struct {
		name string
		body string
	}{
		{"traversal filename", `{"fileName":"../../etc/passwd","fileType":"video/mp4"}`},
		{"missing filename", `{"fileType":"video/mp4"}`},
		{"unsupported type", `{"fileName":"clip.mkv","fileType":"video/x-matroska"}`},
		{"missing type", `{"fileName":"clip.mp4"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postJSON(t, s.handleGetUploadURL, "/api/get-upload-url", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestLocalUpload_StoresAndFetches(t *testing.T) {
	s := newLocalTestServer(t)

	req := httptest.NewRequest(http.MethodPut, "/api/local-upload/videos/crash.mp4",
		strings.NewReader("fake video bytes"))
	rec := httptest.NewRecorder()
	s.handleLocalUpload(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("upload status = %d: %s", rec.Code, rec.Body.String())
	}

	path, cleanup, err := s.videos.FetchToTemp(req.Context(), "videos/crash.mp4")
	if err != nil {
		t.Fatalf("FetchToTemp: %v", err)
	}
	defer cleanup()
	if path == "" {
		t.Error("empty path")
	}
}

func TestLocalUpload_RejectsTraversalKey(t *testing.T) {
	s := newLocalTestServer(t)
	req := httptest.NewRequest(http.MethodPut, "/api/local-upload/videos/..%2Fescape",
		strings.NewReader("x"))
	req.URL.Path = "/api/local-upload/videos/../escape"
	rec := httptest.NewRecorder()
	s.handleLocalUpload(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestProcessVideo_RejectsBadKey(t *testing.T) {
	s := newLocalTestServer(t)
	rec := postJSON(t, s.handleProcessVideo, "/api/process-video", `{"videoKey":"other/secret"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestProcessVideo_MissingVideo(t *testing.T) {
	s := newLocalTestServer(t)
	rec := postJSON(t, s.handleProcessVideo, "/api/process-video", `{"videoKey":"videos/nope.mp4"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "error") {
		t.Errorf("body = %s, want error payload", rec.Body.String())
	}
}

func TestSaveThenListIncidents(t *testing.T) {
	s := newLocalTestServer(t)

	save := `{
		"incidentReport": {"hazards": ["Active fuel leak"]},
		"selectedServices": {"police": false, "ambulance": true, "fire": true},
		"notes": "two units dispatched",
		"timestamp": "2026-02-11T08:30:00Z"
	}`
	rec := postJSON(t, s.handleSaveIncident, "/api/save-incident", save)
	if rec.Code != http.StatusOK {
		t.Fatalf("save status = %d: %s", rec.Code, rec.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/api/past-incidents", nil)
	listRec := httptest.NewRecorder()
	s.handlePastIncidents(listRec, req)
	if listRec.Code != http.StatusOK {
		t.Fatalf("list status = %d", listRec.Code)
	}

	var resp struct {
		Status    string           `json:"status"`
		Incidents []store.Incident `json:"incidents"`
	}
	if err := json.NewDecoder(listRec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(resp.Incidents) != 1 {
		t.Fatalf("got %d incidents", len(resp.Incidents))
	}
	inc := resp.Incidents[0]
	if inc.IncidentID == "" {
		t.Error("incident ID not assigned")
	}
	if !inc.SelectedServices.Ambulance || !inc.SelectedServices.Fire || inc.SelectedServices.Police {
		t.Errorf("selectedServices = %+v", inc.SelectedServices)
	}
	if inc.Notes != "two units dispatched" {
		t.Errorf("notes = %q", inc.Notes)
	}
	if inc.IncidentReport.Analysis == nil || len(inc.IncidentReport.Analysis.Hazards) != 1 {
		t.Errorf("incidentReport = %+v", inc.IncidentReport)
	}
}

func TestSaveIncident_RequiresTimestamp(t *testing.T) {
	s := newLocalTestServer(t)
	rec := postJSON(t, s.handleSaveIncident, "/api/save-incident", `{"notes":"x"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestPhoneCall_SummaryWithoutTelephony(t *testing.T) {
	s := newLocalTestServer(t)
	rec := postJSON(t, s.handlePhoneCall, "/api/phone-call",
		`{"incidentAnalysis":"Two-vehicle collision, fuel leak, driver trapped."}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]any
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp["summary"] == "" || resp["summary"] == nil {
		t.Error("summary missing")
	}
	if resp["callPlaced"] != false {
		t.Errorf("callPlaced = %v, want false when unconfigured", resp["callPlaced"])
	}
}

func TestPhoneCall_RequiresAnalysis(t *testing.T) {
	s := newLocalTestServer(t)
	rec := postJSON(t, s.handlePhoneCall, "/api/phone-call", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
