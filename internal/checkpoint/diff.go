// Package checkpoint provides immutable snapshots of a workspace file
// mapping, an ordered snapshot history with FIFO retention, and a
// line-level diff calculator between any two snapshots.
package checkpoint

import (
	"sort"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DiffType classifies the change to one path between two file mappings.
type DiffType string

const (
	DiffAdded    DiffType = "added"
	DiffModified DiffType = "modified"
	DiffDeleted  DiffType = "deleted"
)

// LineKind tags a single line within a hunk.
type LineKind int

const (
	LineContext LineKind = iota
	LineAdded
	LineDeleted
)

// Line is one tagged line of a hunk.
type Line struct {
	Kind LineKind
	Text string
}

// Hunk is a contiguous region of changed lines plus the short equal
// runs between them. Start positions are 1-based; a zero start means
// the side contributes no lines (pure add or pure delete).
type Hunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Lines    []Line
}

// FileDiff is the computed change for one path. It is never stored;
// diffs are recomputed from the snapshots on demand.
type FileDiff struct {
	Path       string
	Type       DiffType
	OldContent string
	NewContent string
	Hunks      []Hunk
}

// Summary aggregates a diff result set.
type Summary struct {
	FilesAdded    int
	FilesModified int
	FilesDeleted  int
	LinesAdded    int
	LinesDeleted  int
}

// DefaultContextThreshold is the run length of consecutive equal lines
// that closes an open hunk. Shorter equal runs stay inside the hunk as
// context.
const DefaultContextThreshold = 4

// Calculator computes line-level diffs between path→content mappings.
// The zero value is not usable; use NewCalculator.
type Calculator struct {
	dmp       *diffmatchpatch.DiffMatchPatch
	threshold int
}

// NewCalculator returns a Calculator with the default context threshold.
func NewCalculator() *Calculator {
	return NewCalculatorWithThreshold(DefaultContextThreshold)
}

// NewCalculatorWithThreshold returns a Calculator that closes hunks
// after the given run of equal lines.
func NewCalculatorWithThreshold(threshold int) *Calculator {
	if threshold <= 0 {
		threshold = DefaultContextThreshold
	}
	return &Calculator{
		dmp:       diffmatchpatch.New(),
		threshold: threshold,
	}
}

// Diff computes the change set between two path→content mappings. For
// the union of paths: present only in newFiles → added, present only
// in oldFiles → deleted, present in both with differing content →
// modified. Identical content produces no entry. The result is ordered
// by path. Diff never fails for well-formed string inputs.
func (c *Calculator) Diff(oldFiles, newFiles map[string]string) []FileDiff {
	paths := make([]string, 0, len(oldFiles)+len(newFiles))
	seen := make(map[string]struct{}, len(oldFiles)+len(newFiles))
	for p := range oldFiles {
		paths = append(paths, p)
		seen[p] = struct{}{}
	}
	for p := range newFiles {
		if _, ok := seen[p]; !ok {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)

	var diffs []FileDiff
	for _, p := range paths {
		oldContent, inOld := oldFiles[p]
		newContent, inNew := newFiles[p]
		switch {
		case inOld && !inNew:
			diffs = append(diffs, FileDiff{
				Path:       p,
				Type:       DiffDeleted,
				OldContent: oldContent,
				Hunks:      wholeFileHunk(oldContent, LineDeleted),
			})
		case !inOld && inNew:
			diffs = append(diffs, FileDiff{
				Path:       p,
				Type:       DiffAdded,
				NewContent: newContent,
				Hunks:      wholeFileHunk(newContent, LineAdded),
			})
		case oldContent != newContent:
			diffs = append(diffs, FileDiff{
				Path:       p,
				Type:       DiffModified,
				OldContent: oldContent,
				NewContent: newContent,
				Hunks:      c.hunks(oldContent, newContent),
			})
		}
	}
	return diffs
}

// Summarize aggregates counts across a diff result set.
func Summarize(diffs []FileDiff) Summary {
	var s Summary
	for _, d := range diffs {
		switch d.Type {
		case DiffAdded:
			s.FilesAdded++
		case DiffModified:
			s.FilesModified++
		case DiffDeleted:
			s.FilesDeleted++
		}
		for _, h := range d.Hunks {
			for _, l := range h.Lines {
				switch l.Kind {
				case LineAdded:
					s.LinesAdded++
				case LineDeleted:
					s.LinesDeleted++
				}
			}
		}
	}
	return s
}

// lineOp is one line of the expanded edit script.
type lineOp struct {
	kind diffmatchpatch.Operation
	text string
}

// hunks computes the hunk list for two non-identical contents. It runs
// diff-match-patch in line mode, expands the script to per-line
// operations, and coalesces non-equal runs into hunks, closing a hunk
// once c.threshold consecutive equal lines are observed.
func (c *Calculator) hunks(oldContent, newContent string) []Hunk {
	ops := c.lineScript(oldContent, newContent)

	var (
		hunks    []Hunk
		open     *Hunk
		equalBuf []Line
	)
	oldLine, newLine := 1, 1

	flushContext := func() {
		for _, l := range equalBuf {
			open.Lines = append(open.Lines, l)
			open.OldCount++
			open.NewCount++
		}
		equalBuf = equalBuf[:0]
	}

	for _, op := range ops {
		switch op.kind {
		case diffmatchpatch.DiffEqual:
			if open != nil {
				equalBuf = append(equalBuf, Line{Kind: LineContext, Text: op.text})
				if len(equalBuf) >= c.threshold {
					// Long equal run: the open hunk ends before it.
					hunks = append(hunks, *open)
					open = nil
					equalBuf = equalBuf[:0]
				}
			}
			oldLine++
			newLine++
		case diffmatchpatch.DiffDelete:
			if open == nil {
				open = &Hunk{OldStart: oldLine, NewStart: newLine}
			}
			flushContext()
			open.Lines = append(open.Lines, Line{Kind: LineDeleted, Text: op.text})
			open.OldCount++
			oldLine++
		case diffmatchpatch.DiffInsert:
			if open == nil {
				open = &Hunk{OldStart: oldLine, NewStart: newLine}
			}
			flushContext()
			open.Lines = append(open.Lines, Line{Kind: LineAdded, Text: op.text})
			open.NewCount++
			newLine++
		}
	}
	if open != nil {
		flushContext()
		hunks = append(hunks, *open)
	}

	// Non-identical contents must always produce at least one hunk.
	// Degenerate scripts (whitespace-only differences the line tokenizer
	// collapses) fall back to a full delete + full add.
	if len(hunks) == 0 && oldContent != newContent {
		h := Hunk{OldStart: 1, NewStart: 1}
		for _, l := range SplitLines(oldContent) {
			h.Lines = append(h.Lines, Line{Kind: LineDeleted, Text: l})
			h.OldCount++
		}
		for _, l := range SplitLines(newContent) {
			h.Lines = append(h.Lines, Line{Kind: LineAdded, Text: l})
			h.NewCount++
		}
		hunks = append(hunks, h)
	}
	return hunks
}

// lineScript runs diff-match-patch in line mode and expands each
// operation into individual lines, so equal-run counting works across
// operation boundaries.
func (c *Calculator) lineScript(oldContent, newContent string) []lineOp {
	ca, cb, lineIndex := c.dmp.DiffLinesToChars(oldContent, newContent)
	script := c.dmp.DiffMain(ca, cb, false)
	script = c.dmp.DiffCharsToLines(script, lineIndex)

	var ops []lineOp
	for _, d := range script {
		for _, line := range SplitLines(d.Text) {
			ops = append(ops, lineOp{kind: d.Type, text: line})
		}
	}
	return ops
}

// wholeFileHunk builds the single hunk of a pure add or pure delete.
func wholeFileHunk(content string, kind LineKind) []Hunk {
	lines := SplitLines(content)
	if len(lines) == 0 {
		return nil
	}
	h := Hunk{}
	if kind == LineAdded {
		h.NewStart = 1
		h.NewCount = len(lines)
	} else {
		h.OldStart = 1
		h.OldCount = len(lines)
	}
	for _, l := range lines {
		h.Lines = append(h.Lines, Line{Kind: kind, Text: l})
	}
	return []Hunk{h}
}

// SplitLines splits content into logical lines without trailing
// newlines. A trailing newline does not produce a phantom empty line;
// empty content has zero lines.
func SplitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
