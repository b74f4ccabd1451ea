// Package api defines the wire shapes the workspace core exchanges
// with its collaborators: the flat path→content mapping, the
// serialized checkpoint record, and the diff result set.
package api

// CheckpointRecord is the serialized form of one checkpoint.
type CheckpointRecord struct {
	ID          string            `json:"id"`
	Timestamp   string            `json:"timestamp"` // RFC 3339
	Label       string            `json:"label"`
	Files       map[string]string `json:"files"`
	Description string            `json:"description"`
}

// FileDiff is the serialized change for one path.
type FileDiff struct {
	Path       string `json:"path"`
	Type       string `json:"type"` // added | modified | deleted
	OldContent string `json:"old_content,omitempty"`
	NewContent string `json:"new_content,omitempty"`
	Hunks      []Hunk `json:"hunks,omitempty"`
}

// Hunk is one contiguous change region.
type Hunk struct {
	OldStart int        `json:"old_start"`
	OldCount int        `json:"old_count"`
	NewStart int        `json:"new_start"`
	NewCount int        `json:"new_count"`
	Lines    []DiffLine `json:"lines"`
}

// DiffLine is a single tagged line of a hunk.
type DiffLine struct {
	Kind string `json:"kind"` // context | add | delete
	Text string `json:"text"`
}

// DiffSummary aggregates a diff result set.
type DiffSummary struct {
	FilesAdded    int `json:"files_added"`
	FilesModified int `json:"files_modified"`
	FilesDeleted  int `json:"files_deleted"`
	LinesAdded    int `json:"lines_added"`
	LinesDeleted  int `json:"lines_deleted"`
}
