// Package draft models the in-progress record of one emergency being triaged:
// the uploaded video reference, extracted frames, the generated analysis, and
// the operator's service selection and notes.
//
// The dispatch lifecycle is an explicit state machine (Selecting -> Confirmed
// -> Saving -> Selecting) rather than a pile of boolean flags, so illegal
// combinations such as saving without confirmation are unrepresentable. All
// transitions are methods on Draft and return an error instead of mutating
// state when the transition is not legal from the current phase.
package draft

import (
	"errors"
	"fmt"

	"emergency-dashboard/internal/recommend"
)

// Phase is the dispatch lifecycle state of a draft.
type Phase string

const (
	// Selecting: the operator is toggling services. The only phase in which
	// the analysis may be replaced by a new processing run.
	Selecting Phase = "selecting"
	// Confirmed: selection is locked, notes are editable, save is reachable.
	Confirmed Phase = "confirmed"
	// Saving: a save request is in flight.
	Saving Phase = "saving"
)

// Transition errors surfaced to the operator.
var (
	ErrNoServiceSelected = errors.New("select at least one emergency service before confirming")
	ErrSelectionLocked   = errors.New("selection is locked after dispatch is confirmed")
	ErrNotConfirmed      = errors.New("dispatch has not been confirmed")
	ErrSaveInFlight      = errors.New("a save is already in progress")
)

// Frame is one extracted video frame, wire format per the backend contract.
type Frame struct {
	ID        int    `json:"id"`
	Image     string `json:"image"` // base64-encoded JPEG
	Timestamp string `json:"timestamp"`
}

// Analysis is the structured incident assessment generated by the backend.
// Every field is a list of free-text findings; empty categories are omitted
// from rendering.
type Analysis struct {
	VehicleDetails []string `json:"vehicleDetails,omitempty"`
	Casualties     []string `json:"casualties,omitempty"`
	Hazards        []string `json:"hazards,omitempty"`
	Environment    []string `json:"environment,omitempty"`
	Services       []string `json:"services,omitempty"`
}

// Draft is the not-yet-saved record of one incident. One draft exists per
// dashboard session; it is reset only by a successful save or a discard.
//
// Draft is not safe for concurrent use. The owning session serializes access.
type Draft struct {
	VideoKey string             `json:"videoKey,omitempty"`
	Frames   []Frame            `json:"frames"`
	Analysis *Analysis          `json:"analysis,omitempty"`
	Keywords []string           `json:"keywords"`
	Selected recommend.Services `json:"selectedServices"`
	Notes    string             `json:"notes"`
	Phase    Phase              `json:"phase"`
}

// New returns an empty draft in the Selecting phase.
func New() *Draft {
	return &Draft{Phase: Selecting}
}

// SetVideoKey records the backend's reference for a successfully uploaded
// video. A processing failure later does not roll this back.
func (d *Draft) SetVideoKey(key string) {
	d.VideoKey = key
}

// ApplyProcessing installs a successful processing result: frames, analysis
// and keywords are replaced together, never partially, and the service
// selection is overwritten with the recommendation derived from the new
// keywords. Any prior manual selection is discarded.
//
// Rejected once dispatch is confirmed, since the selection must not change
// from under the operator.
func (d *Draft) ApplyProcessing(frames []Frame, analysis *Analysis, keywords []string) error {
	if d.Phase != Selecting {
		return ErrSelectionLocked
	}
	d.Frames = frames
	d.Analysis = analysis
	d.Keywords = keywords
	d.Selected = recommend.Recommend(keywords)
	return nil
}

// Toggle flips one service on or off. Only legal while selecting.
func (d *Draft) Toggle(service string) error {
	if d.Phase != Selecting {
		return ErrSelectionLocked
	}
	switch service {
	case "police":
		d.Selected.Police = !d.Selected.Police
	case "ambulance":
		d.Selected.Ambulance = !d.Selected.Ambulance
	case "fire":
		d.Selected.Fire = !d.Selected.Fire
	default:
		return fmt.Errorf("unknown service %q", service)
	}
	return nil
}

// Confirm locks the selection and moves to the notes/save panel.
// Requires at least one selected service; otherwise the draft is unchanged.
func (d *Draft) Confirm() error {
	switch d.Phase {
	case Confirmed:
		return ErrSelectionLocked
	case Saving:
		return ErrSaveInFlight
	}
	if !d.Selected.Any() {
		return ErrNoServiceSelected
	}
	d.Phase = Confirmed
	return nil
}

// Cancel clears all selected services and returns to Selecting. The draft
// itself (frames, analysis, notes) is kept. Not available mid-save.
func (d *Draft) Cancel() error {
	if d.Phase == Saving {
		return ErrSaveInFlight
	}
	d.Selected = recommend.Services{}
	d.Phase = Selecting
	return nil
}

// SetNotes updates the operator notes. Notes are only editable once dispatch
// is confirmed.
func (d *Draft) SetNotes(notes string) error {
	if d.Phase != Confirmed {
		return ErrNotConfirmed
	}
	d.Notes = notes
	return nil
}

// BeginSave marks the save request as in flight. Save is only reachable from
// Confirmed.
func (d *Draft) BeginSave() error {
	switch d.Phase {
	case Saving:
		return ErrSaveInFlight
	case Selecting:
		return ErrNotConfirmed
	}
	d.Phase = Saving
	return nil
}

// FinishSave completes a successful save: notes and confirmation are reset
// for the next dispatch cycle, while frames, analysis and the selection are
// deliberately left in place.
func (d *Draft) FinishSave() {
	d.Notes = ""
	d.Phase = Selecting
}

// FailSave returns to Confirmed after a failed save so the operator can retry
// without losing the notes.
func (d *Draft) FailSave() {
	d.Phase = Confirmed
}

// Reset discards the draft entirely, returning it to the initial empty state.
func (d *Draft) Reset() {
	*d = *New()
}
