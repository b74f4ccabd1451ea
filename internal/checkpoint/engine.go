package checkpoint

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring"
	"github.com/google/uuid"
)

// ErrCheckpointNotFound is returned for lookups against an unknown
// checkpoint id.
var ErrCheckpointNotFound = errors.New("checkpoint not found")

// DefaultMaxHistory caps the number of retained checkpoints. When
// exceeded the oldest checkpoint is evicted first, never the newest.
const DefaultMaxHistory = 50

// Checkpoint is an immutable, labeled capture of a workspace file
// mapping. The captured files are a full independent copy at capture
// time and are only reachable through FileSet, which copies again, so
// no caller can mutate a stored checkpoint.
type Checkpoint struct {
	ID          string
	Timestamp   time.Time
	Label       string
	Description string

	files map[string]string

	// paths is the set of interned path IDs present in this capture,
	// used to compute added/deleted path sets between two checkpoints
	// without walking both maps.
	paths *roaring.Bitmap
}

// FileSet returns an independent copy of the captured file mapping.
func (c *Checkpoint) FileSet() map[string]string {
	out := make(map[string]string, len(c.files))
	for p, content := range c.files {
		out[p] = content
	}
	return out
}

// Engine owns the ordered checkpoint history for one session.
type Engine struct {
	mu      sync.Mutex
	history []*Checkpoint
	byID    map[string]*Checkpoint
	max     int
	calc    *Calculator

	// Path interning: IDs stay stable for the engine's lifetime, so
	// bitmaps of evicted and live checkpoints remain comparable.
	pathIDs  map[string]uint32
	idToPath []string
}

// NewEngine creates an engine with the default retention cap and
// context threshold.
func NewEngine() *Engine {
	return NewEngineWith(DefaultMaxHistory, DefaultContextThreshold)
}

// NewEngineWith creates an engine with a custom retention cap and hunk
// context threshold.
func NewEngineWith(maxHistory, contextThreshold int) *Engine {
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	return &Engine{
		byID:    make(map[string]*Checkpoint),
		max:     maxHistory,
		calc:    NewCalculatorWithThreshold(contextThreshold),
		pathIDs: make(map[string]uint32),
	}
}

// Calculator returns the engine's diff calculator, shared so every
// surface diffs with the same context threshold.
func (e *Engine) Calculator() *Calculator {
	return e.calc
}

// internPath assigns a stable uint32 to a path. Caller must hold mu.
func (e *Engine) internPath(p string) uint32 {
	if id, ok := e.pathIDs[p]; ok {
		return id
	}
	id := uint32(len(e.idToPath))
	e.pathIDs[p] = id
	e.idToPath = append(e.idToPath, p)
	return id
}

// Create deep-copies files into a new checkpoint, appends it to the
// history, and returns it. Timestamps are monotonically non-decreasing
// so history order is also chronological order.
func (e *Engine) Create(files map[string]string, label string) *Checkpoint {
	e.mu.Lock()
	defer e.mu.Unlock()

	cp := &Checkpoint{
		ID:          uuid.NewString(),
		Timestamp:   time.Now(),
		Label:       label,
		Description: fmt.Sprintf("%d files", len(files)),
		files:       make(map[string]string, len(files)),
		paths:       roaring.New(),
	}
	if n := len(e.history); n > 0 && e.history[n-1].Timestamp.After(cp.Timestamp) {
		cp.Timestamp = e.history[n-1].Timestamp
	}
	for p, content := range files {
		cp.files[p] = content
		cp.paths.Add(e.internPath(p))
	}

	e.history = append(e.history, cp)
	e.byID[cp.ID] = cp

	// FIFO eviction, oldest first.
	for len(e.history) > e.max {
		evicted := e.history[0]
		e.history = e.history[1:]
		delete(e.byID, evicted.ID)
	}
	return cp
}

// All returns the checkpoints in creation order.
func (e *Engine) All() []*Checkpoint {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*Checkpoint(nil), e.history...)
}

// Get looks up a checkpoint by id.
func (e *Engine) Get(id string) (*Checkpoint, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cp, ok := e.byID[id]
	if !ok {
		return nil, fmt.Errorf("checkpoint %s: %w", id, ErrCheckpointNotFound)
	}
	return cp, nil
}

// Delete removes a checkpoint from the history.
func (e *Engine) Delete(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.byID[id]; !ok {
		return fmt.Errorf("checkpoint %s: %w", id, ErrCheckpointNotFound)
	}
	delete(e.byID, id)
	for i, cp := range e.history {
		if cp.ID == id {
			e.history = append(e.history[:i], e.history[i+1:]...)
			break
		}
	}
	return nil
}

// Restore returns an independent copy of the checkpoint's file mapping,
// intended to fully replace the live workspace's file set. The caller
// applies it. Restore is an all-or-nothing rollback, never a per-file
// merge.
func (e *Engine) Restore(id string) (map[string]string, error) {
	cp, err := e.Get(id)
	if err != nil {
		return nil, err
	}
	return cp.FileSet(), nil
}

// DiffCheckpoints computes the diff between two stored checkpoints.
// Added and deleted path sets come from the presence bitmaps; only
// paths present in both captures have their contents compared.
func (e *Engine) DiffCheckpoints(oldID, newID string) ([]FileDiff, error) {
	oldCP, err := e.Get(oldID)
	if err != nil {
		return nil, err
	}
	newCP, err := e.Get(newID)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	added := roaring.AndNot(newCP.paths, oldCP.paths)
	deleted := roaring.AndNot(oldCP.paths, newCP.paths)
	common := roaring.And(oldCP.paths, newCP.paths)

	oldSide := make(map[string]string)
	newSide := make(map[string]string)
	for it := deleted.Iterator(); it.HasNext(); {
		p := e.idToPath[it.Next()]
		oldSide[p] = oldCP.files[p]
	}
	for it := added.Iterator(); it.HasNext(); {
		p := e.idToPath[it.Next()]
		newSide[p] = newCP.files[p]
	}
	for it := common.Iterator(); it.HasNext(); {
		p := e.idToPath[it.Next()]
		oldSide[p] = oldCP.files[p]
		newSide[p] = newCP.files[p]
	}
	e.mu.Unlock()

	return e.calc.Diff(oldSide, newSide), nil
}
