package draft

import (
	"errors"
	"testing"

	"emergency-dashboard/internal/recommend"
)

func processedDraft(t *testing.T, keywords []string) *Draft {
	t.Helper()
	d := New()
	d.SetVideoKey("videos/crash.mp4")
	frames := []Frame{
		{ID: 1, Image: "aGVsbG8=", Timestamp: "00:02"},
		{ID: 2, Image: "d29ybGQ=", Timestamp: "00:04"},
	}
	analysis := &Analysis{
		Hazards:    []string{"Active fuel leak"},
		Casualties: []string{"Driver trapped, conscious"},
	}
	if err := d.ApplyProcessing(frames, analysis, keywords); err != nil {
		t.Fatalf("ApplyProcessing: %v", err)
	}
	return d
}

func TestApplyProcessing_OverwritesSelection(t *testing.T) {
	d := New()
	// Manual selection before processing completes.
	if err := d.Toggle("fire"); err != nil {
		t.Fatalf("Toggle: %v", err)
	}

	err := d.ApplyProcessing(nil, &Analysis{}, []string{"Vehicle Collision", "Injuries"})
	if err != nil {
		t.Fatalf("ApplyProcessing: %v", err)
	}

	want := recommend.Services{Police: true, Ambulance: true}
	if d.Selected != want {
		t.Errorf("selection = %+v, want %+v (prior manual choice must be discarded)", d.Selected, want)
	}
}

func TestApplyProcessing_RejectedWhenConfirmed(t *testing.T) {
	d := processedDraft(t, []string{"Fuel Leak"})
	if err := d.Confirm(); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	prevFrames := len(d.Frames)
	err := d.ApplyProcessing([]Frame{{ID: 9}}, &Analysis{}, []string{"Injuries"})
	if !errors.Is(err, ErrSelectionLocked) {
		t.Fatalf("ApplyProcessing after confirm: err = %v, want ErrSelectionLocked", err)
	}
	if len(d.Frames) != prevFrames {
		t.Error("frames changed despite rejected transition")
	}
}

func TestConfirm_RequiresSelection(t *testing.T) {
	d := New()
	err := d.Confirm()
	if !errors.Is(err, ErrNoServiceSelected) {
		t.Fatalf("Confirm with nothing selected: err = %v, want ErrNoServiceSelected", err)
	}
	if d.Phase != Selecting {
		t.Errorf("phase = %q after rejected confirm, want selecting", d.Phase)
	}

	if err := d.Toggle("police"); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if err := d.Confirm(); err != nil {
		t.Fatalf("Confirm with one service: %v", err)
	}
	if d.Phase != Confirmed {
		t.Errorf("phase = %q, want confirmed", d.Phase)
	}
}

func TestToggle_LockedAfterConfirm(t *testing.T) {
	d := processedDraft(t, []string{"Vehicle Collision"})
	if err := d.Confirm(); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if err := d.Toggle("fire"); !errors.Is(err, ErrSelectionLocked) {
		t.Errorf("Toggle after confirm: err = %v, want ErrSelectionLocked", err)
	}
}

func TestToggle_UnknownService(t *testing.T) {
	d := New()
	if err := d.Toggle("coastguard"); err == nil {
		t.Error("Toggle accepted an unknown service")
	}
}

func TestCancel_ClearsAllServices(t *testing.T) {
	d := processedDraft(t, []string{"Vehicle Collision", "Fire Hazard"})
	if !d.Selected.Any() {
		t.Fatal("expected services selected after processing")
	}

	if err := d.Cancel(); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if d.Selected.Any() {
		t.Errorf("selection = %+v after cancel, want all false", d.Selected)
	}
	if d.Phase != Selecting {
		t.Errorf("phase = %q after cancel, want selecting", d.Phase)
	}
	// Cancel resets selections, not the draft.
	if d.Analysis == nil || len(d.Frames) == 0 || d.VideoKey == "" {
		t.Error("cancel discarded draft content")
	}
}

func TestCancel_FromConfirmedUnlocks(t *testing.T) {
	d := processedDraft(t, []string{"Injuries"})
	if err := d.Confirm(); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if err := d.Cancel(); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if err := d.Toggle("police"); err != nil {
		t.Errorf("Toggle after cancel: %v", err)
	}
}

func TestSaveCycle_Success(t *testing.T) {
	d := processedDraft(t, []string{"Vehicle Collision"})
	if err := d.Confirm(); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if err := d.SetNotes("second unit requested"); err != nil {
		t.Fatalf("SetNotes: %v", err)
	}
	if err := d.BeginSave(); err != nil {
		t.Fatalf("BeginSave: %v", err)
	}
	if d.Phase != Saving {
		t.Fatalf("phase = %q, want saving", d.Phase)
	}

	selectedBefore := d.Selected
	d.FinishSave()

	if d.Notes != "" {
		t.Errorf("notes = %q after save, want empty", d.Notes)
	}
	if d.Phase != Selecting {
		t.Errorf("phase = %q after save, want selecting", d.Phase)
	}
	if d.Selected != selectedBefore {
		t.Errorf("selection changed across save: %+v != %+v", d.Selected, selectedBefore)
	}
	if d.Analysis == nil || len(d.Frames) == 0 {
		t.Error("frames/analysis cleared by save; only the notes/confirmation cycle resets")
	}
}

func TestSaveCycle_FailurePreservesNotes(t *testing.T) {
	d := processedDraft(t, []string{"Critical Condition"})
	if err := d.Confirm(); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if err := d.SetNotes("dispatch ETA 4 minutes"); err != nil {
		t.Fatalf("SetNotes: %v", err)
	}
	if err := d.BeginSave(); err != nil {
		t.Fatalf("BeginSave: %v", err)
	}

	d.FailSave()

	if d.Phase != Confirmed {
		t.Errorf("phase = %q after failed save, want confirmed", d.Phase)
	}
	if d.Notes != "dispatch ETA 4 minutes" {
		t.Errorf("notes = %q after failed save, want preserved", d.Notes)
	}
	// Retry must be possible.
	if err := d.BeginSave(); err != nil {
		t.Errorf("BeginSave retry: %v", err)
	}
}

func TestBeginSave_RequiresConfirmed(t *testing.T) {
	d := New()
	if err := d.BeginSave(); !errors.Is(err, ErrNotConfirmed) {
		t.Errorf("BeginSave while selecting: err = %v, want ErrNotConfirmed", err)
	}
}

func TestSetNotes_OnlyAfterConfirm(t *testing.T) {
	d := New()
	if err := d.SetNotes("x"); !errors.Is(err, ErrNotConfirmed) {
		t.Errorf("SetNotes while selecting: err = %v, want ErrNotConfirmed", err)
	}
}

func TestReset(t *testing.T) {
	d := processedDraft(t, []string{"Fuel Leak"})
	d.Reset()
	if d.VideoKey != "" || d.Analysis != nil || len(d.Frames) != 0 || d.Selected.Any() || d.Phase != Selecting {
		t.Errorf("Reset left residual state: %+v", d)
	}
}
