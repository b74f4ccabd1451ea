// Package workspace wires one session's virtual filesystem, checkpoint
// engine and restore flow behind a single facade. Each session gets
// its own constructor-injected instance, created at session start and
// dropped at session end. There are no shared module-level singletons.
package workspace

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/agentic-research/atelier/internal/checkpoint"
	"github.com/agentic-research/atelier/internal/config"
	"github.com/agentic-research/atelier/internal/syntax"
	"github.com/agentic-research/atelier/internal/vfs"
)

// Workspace owns the state of one code-generation session.
type Workspace struct {
	cfg     config.Config
	store   *vfs.Store
	engine  *checkpoint.Engine
	restore *checkpoint.RestoreFlow

	// Last-write diagnostics per path, for the orchestration layer to
	// surface. Guarded separately from the store's lock.
	diagMu sync.RWMutex
	diags  map[string][]syntax.Diagnostic
}

// New creates an empty workspace from the given session configuration.
func New(cfg config.Config) *Workspace {
	engine := checkpoint.NewEngineWith(cfg.MaxCheckpoints, cfg.ContextThreshold)
	return &Workspace{
		cfg:     cfg,
		store:   vfs.NewWithMaxDepth(cfg.MaxDepth),
		engine:  engine,
		restore: checkpoint.NewRestoreFlow(engine),
		diags:   make(map[string][]syntax.Diagnostic),
	}
}

// FS exposes the underlying virtual filesystem.
func (w *Workspace) FS() *vfs.Store { return w.store }

// Engine exposes the checkpoint engine.
func (w *Workspace) Engine() *checkpoint.Engine { return w.engine }

// WriteFile stores generated content at path: Go content is optionally
// formatted first, then the file is created (overwriting any previous
// version) and per-path syntax diagnostics are recorded.
func (w *Workspace) WriteFile(path, content string) error {
	if w.cfg.FormatOnWrite {
		content = string(syntax.FormatGo([]byte(content), path))
	}
	if err := w.store.CreateFile(path, content); err != nil {
		return err
	}
	if w.cfg.ValidateOnWrite {
		w.setDiagnostics(vfs.Normalize(path), syntax.Check([]byte(content), path))
	}
	return nil
}

// ReadFile returns the current content at path.
func (w *Workspace) ReadFile(path string) (string, error) {
	return w.store.ReadFile(path)
}

// DeleteFile removes a file and its recorded diagnostics.
func (w *Workspace) DeleteFile(path string) error {
	if err := w.store.DeleteFile(path); err != nil {
		return err
	}
	w.setDiagnostics(vfs.Normalize(path), nil)
	return nil
}

// Diagnostics returns the syntax diagnostics recorded by the last
// write to path, or nil.
func (w *Workspace) Diagnostics(path string) []syntax.Diagnostic {
	w.diagMu.RLock()
	defer w.diagMu.RUnlock()
	return w.diags[vfs.Normalize(path)]
}

func (w *Workspace) setDiagnostics(path string, diags []syntax.Diagnostic) {
	w.diagMu.Lock()
	defer w.diagMu.Unlock()
	if len(diags) == 0 {
		delete(w.diags, path)
		return
	}
	w.diags[path] = diags
}

// Snapshot captures the current file set as a labeled checkpoint,
// typically once per orchestration turn.
func (w *Workspace) Snapshot(label string) *checkpoint.Checkpoint {
	return w.engine.Create(w.store.AllFiles(), label)
}

// Checkpoints returns the session's checkpoint history in creation
// order.
func (w *Workspace) Checkpoints() []*checkpoint.Checkpoint {
	return w.engine.All()
}

// DiffCheckpoints computes the diff between two stored checkpoints.
func (w *Workspace) DiffCheckpoints(oldID, newID string) ([]checkpoint.FileDiff, error) {
	return w.engine.DiffCheckpoints(oldID, newID)
}

// BeginRestore starts the restore confirmation flow for a checkpoint,
// returning the diff from the live files to the capture for display.
func (w *Workspace) BeginRestore(id string) ([]checkpoint.FileDiff, error) {
	return w.restore.Begin(id, w.store.AllFiles())
}

// ConfirmRestore applies the pending checkpoint wholesale to the live
// filesystem. The swap happens through one bulk load, so a confirmed
// restore is all-or-nothing.
func (w *Workspace) ConfirmRestore() error {
	files, err := w.restore.Confirm()
	if err != nil {
		return err
	}
	if err := w.store.Sync(files); err != nil {
		return fmt.Errorf("apply restore: %w", err)
	}
	return nil
}

// CancelRestore discards the pending restore; live files are untouched.
func (w *Workspace) CancelRestore() error {
	return w.restore.Cancel()
}

// RestoreState reports the restore flow's current phase.
func (w *Workspace) RestoreState() checkpoint.RestoreState {
	return w.restore.State()
}

// SyncFromProjectFiles bulk-loads a path→content mapping from an
// external collaborator (remote sync, project import), replacing all
// live files.
func (w *Workspace) SyncFromProjectFiles(files map[string]string) error {
	return w.store.Sync(files)
}

// LoadDirectory seeds the workspace from a directory on disk. Hidden
// directories and binary files are skipped; text files are stored
// under their slash-separated path relative to root.
func (w *Workspace) LoadDirectory(root string) error {
	files := make(map[string]string)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if name := d.Name(); name != "." && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		if isBinary(data) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files["/"+filepath.ToSlash(rel)] = string(data)
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk %s: %w", root, err)
	}
	return w.store.Sync(files)
}

// isBinary sniffs the first 8KB for a NUL byte, the same heuristic git
// uses to exclude binary content.
func isBinary(data []byte) bool {
	if len(data) > 8192 {
		data = data[:8192]
	}
	return bytes.IndexByte(data, 0) >= 0
}
