package checkpoint

import (
	"errors"
	"fmt"
)

var (
	// ErrRestorePending is returned when Begin is called while another
	// restore is awaiting confirmation.
	ErrRestorePending = errors.New("restore already pending confirmation")

	// ErrNoRestorePending is returned when Confirm or Cancel is called
	// with no restore in flight.
	ErrNoRestorePending = errors.New("no restore pending")
)

// RestoreState names the phases of the restore confirmation flow.
type RestoreState int

const (
	// StateIdle: no restore in flight.
	StateIdle RestoreState = iota
	// StateConfirming: a checkpoint is selected and its diff against
	// the live files is held for display.
	StateConfirming
)

// RestoreFlow is the restore confirmation state machine:
// idle → Begin → confirming → Confirm (apply) or Cancel (discard) → idle.
// No diff is computed outside the confirming transition; no restore is
// applied outside Confirm. The flow assumes the session's single
// logical writer and is not safe for concurrent use.
type RestoreFlow struct {
	engine  *Engine
	state   RestoreState
	pending *Checkpoint
	diffs   []FileDiff
}

// NewRestoreFlow wires a flow to the engine whose checkpoints it
// restores.
func NewRestoreFlow(engine *Engine) *RestoreFlow {
	return &RestoreFlow{engine: engine}
}

// State returns the current phase.
func (f *RestoreFlow) State() RestoreState {
	return f.state
}

// Begin selects a checkpoint, computes the diff from the live files to
// the checkpoint's capture, and moves to confirming. The returned
// diffs are held until Confirm or Cancel.
func (f *RestoreFlow) Begin(id string, liveFiles map[string]string) ([]FileDiff, error) {
	if f.state != StateIdle {
		return nil, ErrRestorePending
	}
	cp, err := f.engine.Get(id)
	if err != nil {
		return nil, err
	}
	f.pending = cp
	f.diffs = f.engine.Calculator().Diff(liveFiles, cp.files)
	f.state = StateConfirming
	return f.diffs, nil
}

// PendingDiffs returns the held diff while confirming, or an error in
// any other state.
func (f *RestoreFlow) PendingDiffs() ([]FileDiff, error) {
	if f.state != StateConfirming {
		return nil, ErrNoRestorePending
	}
	return f.diffs, nil
}

// PendingID returns the id of the checkpoint awaiting confirmation.
func (f *RestoreFlow) PendingID() (string, error) {
	if f.state != StateConfirming {
		return "", ErrNoRestorePending
	}
	return f.pending.ID, nil
}

// Confirm completes the flow, returning the file mapping the caller
// must apply wholesale to the live workspace. The flow returns to idle.
func (f *RestoreFlow) Confirm() (map[string]string, error) {
	if f.state != StateConfirming {
		return nil, ErrNoRestorePending
	}
	files := f.pending.FileSet()
	f.resetState()
	return files, nil
}

// Cancel discards the pending restore; live files are untouched.
func (f *RestoreFlow) Cancel() error {
	if f.state != StateConfirming {
		return fmt.Errorf("cancel: %w", ErrNoRestorePending)
	}
	f.resetState()
	return nil
}

func (f *RestoreFlow) resetState() {
	f.state = StateIdle
	f.pending = nil
	f.diffs = nil
}
