package checkpoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRestoreFlow_ConfirmApplies(t *testing.T) {
	e := NewEngine()
	cp := e.Create(map[string]string{"/src/app.tsx": "x=1"}, "v1")

	flow := NewRestoreFlow(e)
	assert.Equal(t, StateIdle, flow.State())

	live := map[string]string{"/src/app.tsx": "x=2"}
	diffs, err := flow.Begin(cp.ID, live)
	require.NoError(t, err)
	assert.Equal(t, StateConfirming, flow.State())

	// The held diff shows live → checkpoint.
	require.Len(t, diffs, 1)
	assert.Equal(t, DiffModified, diffs[0].Type)

	held, err := flow.PendingDiffs()
	require.NoError(t, err)
	assert.Equal(t, diffs, held)

	id, err := flow.PendingID()
	require.NoError(t, err)
	assert.Equal(t, cp.ID, id)

	files, err := flow.Confirm()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"/src/app.tsx": "x=1"}, files)
	assert.Equal(t, StateIdle, flow.State())
}

func TestRestoreFlow_CancelDiscards(t *testing.T) {
	e := NewEngine()
	cp := e.Create(map[string]string{"/f.txt": "v1"}, "v1")

	flow := NewRestoreFlow(e)
	_, err := flow.Begin(cp.ID, map[string]string{"/f.txt": "live"})
	require.NoError(t, err)

	require.NoError(t, flow.Cancel())
	assert.Equal(t, StateIdle, flow.State())

	_, err = flow.PendingDiffs()
	assert.ErrorIs(t, err, ErrNoRestorePending)
}

func TestRestoreFlow_Transitions(t *testing.T) {
	e := NewEngine()
	cp := e.Create(map[string]string{"/f.txt": "v1"}, "v1")
	flow := NewRestoreFlow(e)

	// Confirm/Cancel outside confirming fail.
	_, err := flow.Confirm()
	assert.ErrorIs(t, err, ErrNoRestorePending)
	assert.ErrorIs(t, flow.Cancel(), ErrNoRestorePending)

	// Begin against an unknown id leaves the flow idle.
	_, err = flow.Begin("missing", nil)
	assert.ErrorIs(t, err, ErrCheckpointNotFound)
	assert.Equal(t, StateIdle, flow.State())

	// A second Begin while confirming is rejected.
	_, err = flow.Begin(cp.ID, nil)
	require.NoError(t, err)
	_, err = flow.Begin(cp.ID, nil)
	assert.ErrorIs(t, err, ErrRestorePending)

	// Confirm resets for the next cycle.
	_, err = flow.Confirm()
	require.NoError(t, err)
	_, err = flow.Begin(cp.ID, nil)
	assert.NoError(t, err)
}
