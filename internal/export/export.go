// Package export renders workspace state into its external formats:
// the checkpoint JSON wire shape and a zip bundle of the full file
// mapping for download.
package export

import (
	"archive/zip"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/ohler55/ojg/oj"

	"github.com/agentic-research/atelier/api"
	"github.com/agentic-research/atelier/internal/checkpoint"
)

// RecordFromCheckpoint converts a checkpoint to its wire record.
func RecordFromCheckpoint(cp *checkpoint.Checkpoint) api.CheckpointRecord {
	return api.CheckpointRecord{
		ID:          cp.ID,
		Timestamp:   cp.Timestamp.UTC().Format(time.RFC3339Nano),
		Label:       cp.Label,
		Files:       cp.FileSet(),
		Description: cp.Description,
	}
}

// DiffsToAPI converts a diff result set to its wire form, preserving
// order.
func DiffsToAPI(diffs []checkpoint.FileDiff) []api.FileDiff {
	out := make([]api.FileDiff, 0, len(diffs))
	for _, d := range diffs {
		fd := api.FileDiff{
			Path:       d.Path,
			Type:       string(d.Type),
			OldContent: d.OldContent,
			NewContent: d.NewContent,
		}
		for _, h := range d.Hunks {
			ah := api.Hunk{
				OldStart: h.OldStart,
				OldCount: h.OldCount,
				NewStart: h.NewStart,
				NewCount: h.NewCount,
			}
			for _, l := range h.Lines {
				ah.Lines = append(ah.Lines, api.DiffLine{Kind: lineKind(l.Kind), Text: l.Text})
			}
			fd.Hunks = append(fd.Hunks, ah)
		}
		out = append(out, fd)
	}
	return out
}

// SummaryToAPI converts an aggregate summary to its wire form.
func SummaryToAPI(s checkpoint.Summary) api.DiffSummary {
	return api.DiffSummary{
		FilesAdded:    s.FilesAdded,
		FilesModified: s.FilesModified,
		FilesDeleted:  s.FilesDeleted,
		LinesAdded:    s.LinesAdded,
		LinesDeleted:  s.LinesDeleted,
	}
}

func lineKind(k checkpoint.LineKind) string {
	switch k {
	case checkpoint.LineAdded:
		return "add"
	case checkpoint.LineDeleted:
		return "delete"
	default:
		return "context"
	}
}

// MarshalCheckpoint serializes a checkpoint as indented JSON.
func MarshalCheckpoint(cp *checkpoint.Checkpoint) ([]byte, error) {
	rec := RecordFromCheckpoint(cp)
	files := make(map[string]any, len(rec.Files))
	for p, content := range rec.Files {
		files[p] = content
	}
	doc := map[string]any{
		"id":          rec.ID,
		"timestamp":   rec.Timestamp,
		"label":       rec.Label,
		"files":       files,
		"description": rec.Description,
	}
	return oj.Marshal(doc, 2)
}

// UnmarshalCheckpoint parses a serialized checkpoint record.
func UnmarshalCheckpoint(data []byte) (api.CheckpointRecord, error) {
	v, err := oj.Parse(data)
	if err != nil {
		return api.CheckpointRecord{}, fmt.Errorf("parse checkpoint: %w", err)
	}
	doc, ok := v.(map[string]any)
	if !ok {
		return api.CheckpointRecord{}, fmt.Errorf("parse checkpoint: not a JSON object")
	}

	rec := api.CheckpointRecord{
		ID:          stringField(doc, "id"),
		Timestamp:   stringField(doc, "timestamp"),
		Label:       stringField(doc, "label"),
		Description: stringField(doc, "description"),
		Files:       make(map[string]string),
	}
	if rec.ID == "" {
		return api.CheckpointRecord{}, fmt.Errorf("parse checkpoint: missing id")
	}
	if files, ok := doc["files"].(map[string]any); ok {
		for p, content := range files {
			s, ok := content.(string)
			if !ok {
				return api.CheckpointRecord{}, fmt.Errorf("parse checkpoint: non-string content for %s", p)
			}
			rec.Files[p] = s
		}
	}
	return rec, nil
}

// MarshalDiffs serializes an ordered diff result set with its summary.
func MarshalDiffs(diffs []checkpoint.FileDiff) ([]byte, error) {
	wire := DiffsToAPI(diffs)
	entries := make([]any, 0, len(wire))
	for _, d := range wire {
		entry := map[string]any{
			"path": d.Path,
			"type": d.Type,
		}
		if d.OldContent != "" {
			entry["old_content"] = d.OldContent
		}
		if d.NewContent != "" {
			entry["new_content"] = d.NewContent
		}
		var hunks []any
		for _, h := range d.Hunks {
			var lines []any
			for _, l := range h.Lines {
				lines = append(lines, map[string]any{"kind": l.Kind, "text": l.Text})
			}
			hunks = append(hunks, map[string]any{
				"old_start": h.OldStart,
				"old_count": h.OldCount,
				"new_start": h.NewStart,
				"new_count": h.NewCount,
				"lines":     lines,
			})
		}
		if hunks != nil {
			entry["hunks"] = hunks
		}
		entries = append(entries, entry)
	}
	s := checkpoint.Summarize(diffs)
	doc := map[string]any{
		"diffs": entries,
		"summary": map[string]any{
			"files_added":    s.FilesAdded,
			"files_modified": s.FilesModified,
			"files_deleted":  s.FilesDeleted,
			"lines_added":    s.LinesAdded,
			"lines_deleted":  s.LinesDeleted,
		},
	}
	return oj.Marshal(doc, 2)
}

func stringField(doc map[string]any, key string) string {
	s, _ := doc[key].(string)
	return s
}

// WriteArchive bundles a path→content mapping into a zip stream.
// Entries are written in sorted path order so archives are
// reproducible.
func WriteArchive(w io.Writer, files map[string]string) error {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	zw := zip.NewWriter(w)
	for _, p := range paths {
		// Zip entry names are relative.
		name := strings.TrimPrefix(p, "/")
		f, err := zw.Create(name)
		if err != nil {
			return fmt.Errorf("archive entry %s: %w", p, err)
		}
		if _, err := io.WriteString(f, files[p]); err != nil {
			return fmt.Errorf("archive write %s: %w", p, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("archive close: %w", err)
	}
	return nil
}
