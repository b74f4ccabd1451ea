package checkpoint

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiff_AddedDeletedModified(t *testing.T) {
	calc := NewCalculator()
	oldFiles := map[string]string{
		"/same.txt":    "unchanged\n",
		"/gone.txt":    "a\nb\n",
		"/changed.txt": "x=1",
	}
	newFiles := map[string]string{
		"/same.txt":    "unchanged\n",
		"/changed.txt": "x=2",
		"/fresh.txt":   "hello\nworld\n",
	}

	diffs := calc.Diff(oldFiles, newFiles)
	require.Len(t, diffs, 3)

	// Ordered by path.
	assert.Equal(t, "/changed.txt", diffs[0].Path)
	assert.Equal(t, DiffModified, diffs[0].Type)
	assert.Equal(t, "/fresh.txt", diffs[1].Path)
	assert.Equal(t, DiffAdded, diffs[1].Type)
	assert.Equal(t, "/gone.txt", diffs[2].Path)
	assert.Equal(t, DiffDeleted, diffs[2].Type)
}

func TestDiff_AddedTagsAllLines(t *testing.T) {
	calc := NewCalculator()
	diffs := calc.Diff(nil, map[string]string{"/f.txt": "one\ntwo\nthree\n"})
	require.Len(t, diffs, 1)
	require.Len(t, diffs[0].Hunks, 1)

	h := diffs[0].Hunks[0]
	assert.Equal(t, 1, h.NewStart)
	assert.Equal(t, 3, h.NewCount)
	assert.Equal(t, 0, h.OldCount)
	for _, l := range h.Lines {
		assert.Equal(t, LineAdded, l.Kind)
	}
}

func TestDiff_DeletedTagsAllLines(t *testing.T) {
	calc := NewCalculator()
	diffs := calc.Diff(map[string]string{"/f.txt": "one\ntwo\n"}, nil)
	require.Len(t, diffs, 1)
	require.Len(t, diffs[0].Hunks, 1)

	h := diffs[0].Hunks[0]
	assert.Equal(t, 1, h.OldStart)
	assert.Equal(t, 2, h.OldCount)
	assert.Equal(t, 0, h.NewCount)
	for _, l := range h.Lines {
		assert.Equal(t, LineDeleted, l.Kind)
	}
}

func TestDiff_SingleLineChange(t *testing.T) {
	calc := NewCalculator()
	diffs := calc.Diff(
		map[string]string{"/src/app.tsx": "x=1"},
		map[string]string{"/src/app.tsx": "x=2"},
	)
	require.Len(t, diffs, 1)
	d := diffs[0]
	assert.Equal(t, DiffModified, d.Type)
	require.Len(t, d.Hunks, 1)

	var adds, dels []string
	for _, l := range d.Hunks[0].Lines {
		switch l.Kind {
		case LineAdded:
			adds = append(adds, l.Text)
		case LineDeleted:
			dels = append(dels, l.Text)
		}
	}
	assert.Equal(t, []string{"x=1"}, dels)
	assert.Equal(t, []string{"x=2"}, adds)
}

func TestDiff_IdenticalContentProducesNothing(t *testing.T) {
	calc := NewCalculator()
	files := map[string]string{"/a.txt": "same\n"}
	assert.Empty(t, calc.Diff(files, files))
}

func TestDiff_LongEqualRunSplitsHunks(t *testing.T) {
	// Two edits separated by six unchanged lines must land in two
	// hunks with the default threshold of four.
	mid := "c1\nc2\nc3\nc4\nc5\nc6\n"
	oldContent := "first-old\n" + mid + "last-old\n"
	newContent := "first-new\n" + mid + "last-new\n"

	calc := NewCalculator()
	diffs := calc.Diff(
		map[string]string{"/f.txt": oldContent},
		map[string]string{"/f.txt": newContent},
	)
	require.Len(t, diffs, 1)
	require.Len(t, diffs[0].Hunks, 2)

	first, second := diffs[0].Hunks[0], diffs[0].Hunks[1]
	assert.Equal(t, 1, first.OldStart)
	assert.Equal(t, 1, first.NewStart)
	assert.Equal(t, 8, second.OldStart)
	assert.Equal(t, 8, second.NewStart)
}

func TestDiff_ShortEqualRunStaysInHunk(t *testing.T) {
	// Two edits separated by two unchanged lines coalesce into one
	// hunk; the unchanged lines appear as context.
	oldContent := "a-old\nk1\nk2\nb-old\n"
	newContent := "a-new\nk1\nk2\nb-new\n"

	calc := NewCalculator()
	diffs := calc.Diff(
		map[string]string{"/f.txt": oldContent},
		map[string]string{"/f.txt": newContent},
	)
	require.Len(t, diffs, 1)
	require.Len(t, diffs[0].Hunks, 1)

	var context int
	for _, l := range diffs[0].Hunks[0].Lines {
		if l.Kind == LineContext {
			context++
		}
	}
	assert.Equal(t, 2, context)
}

func TestDiff_ThresholdConfigurable(t *testing.T) {
	// With threshold 2, the same two-line gap splits the hunks.
	oldContent := "a-old\nk1\nk2\nb-old\n"
	newContent := "a-new\nk1\nk2\nb-new\n"

	calc := NewCalculatorWithThreshold(2)
	diffs := calc.Diff(
		map[string]string{"/f.txt": oldContent},
		map[string]string{"/f.txt": newContent},
	)
	require.Len(t, diffs, 1)
	assert.Len(t, diffs[0].Hunks, 2)
}

func TestDiff_NonIdenticalAlwaysYieldsHunk(t *testing.T) {
	calc := NewCalculator()
	cases := [][2]string{
		{"x", "x\n"},
		{"", "x"},
		{"x", ""},
		{"a\nb", "a\nb\n"},
	}
	for _, tc := range cases {
		diffs := calc.Diff(
			map[string]string{"/f.txt": tc[0]},
			map[string]string{"/f.txt": tc[1]},
		)
		require.Len(t, diffs, 1, "old=%q new=%q", tc[0], tc[1])
		assert.NotEmpty(t, diffs[0].Hunks, "old=%q new=%q", tc[0], tc[1])
	}
}

func TestDiff_SymmetricChangedPaths(t *testing.T) {
	calc := NewCalculator()
	a := map[string]string{"/x.txt": "1\n", "/y.txt": "keep\n", "/z.txt": "old\n"}
	b := map[string]string{"/y.txt": "keep\n", "/z.txt": "new\n", "/w.txt": "add\n"}

	forward := calc.Diff(a, b)
	reverse := calc.Diff(b, a)
	require.Equal(t, len(forward), len(reverse))

	fwd := map[string]DiffType{}
	for _, d := range forward {
		fwd[d.Path] = d.Type
	}
	for _, d := range reverse {
		switch d.Type {
		case DiffAdded:
			assert.Equal(t, DiffDeleted, fwd[d.Path])
		case DiffDeleted:
			assert.Equal(t, DiffAdded, fwd[d.Path])
		case DiffModified:
			assert.Equal(t, DiffModified, fwd[d.Path])
		}
	}
}

func TestSummarize(t *testing.T) {
	calc := NewCalculator()
	diffs := calc.Diff(
		map[string]string{"/gone.txt": "a\nb\n", "/mod.txt": "x=1"},
		map[string]string{"/mod.txt": "x=2", "/new.txt": "1\n2\n3\n"},
	)
	s := Summarize(diffs)
	assert.Equal(t, 1, s.FilesAdded)
	assert.Equal(t, 1, s.FilesModified)
	assert.Equal(t, 1, s.FilesDeleted)
	assert.Equal(t, 4, s.LinesAdded)   // 3 new lines + x=2
	assert.Equal(t, 3, s.LinesDeleted) // 2 gone lines + x=1
}

func TestDiff_LargeFileSingleEdit(t *testing.T) {
	// A single changed line in a large file must not produce one giant
	// hunk covering the whole file.
	var sb strings.Builder
	for i := 0; i < 200; i++ {
		fmt.Fprintf(&sb, "line %d\n", i)
	}
	oldContent := sb.String()
	newContent := strings.Replace(oldContent, "line 100\n", "line one hundred\n", 1)

	calc := NewCalculator()
	diffs := calc.Diff(
		map[string]string{"/big.txt": oldContent},
		map[string]string{"/big.txt": newContent},
	)
	require.Len(t, diffs, 1)
	require.Len(t, diffs[0].Hunks, 1)
	h := diffs[0].Hunks[0]
	assert.Less(t, len(h.Lines), 20)
	assert.Equal(t, 101, h.OldStart)
}

func TestSplitLines(t *testing.T) {
	assert.Nil(t, SplitLines(""))
	assert.Equal(t, []string{"x"}, SplitLines("x"))
	assert.Equal(t, []string{"x"}, SplitLines("x\n"))
	assert.Equal(t, []string{"a", "", "b"}, SplitLines("a\n\nb"))
	assert.Equal(t, []string{""}, SplitLines("\n"))
}
