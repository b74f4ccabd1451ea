package export

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/agentic-research/atelier/internal/checkpoint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckpointRoundTrip(t *testing.T) {
	e := checkpoint.NewEngine()
	cp := e.Create(map[string]string{
		"/src/app.tsx": "x=1",
		"/README.md":   "# readme\n",
	}, "turn 3")

	data, err := MarshalCheckpoint(cp)
	require.NoError(t, err)

	rec, err := UnmarshalCheckpoint(data)
	require.NoError(t, err)
	assert.Equal(t, cp.ID, rec.ID)
	assert.Equal(t, "turn 3", rec.Label)
	assert.Equal(t, "2 files", rec.Description)
	assert.Equal(t, cp.FileSet(), rec.Files)
	assert.NotEmpty(t, rec.Timestamp)
}

func TestUnmarshalCheckpoint_Invalid(t *testing.T) {
	_, err := UnmarshalCheckpoint([]byte("not json"))
	assert.Error(t, err)

	_, err = UnmarshalCheckpoint([]byte(`[1,2,3]`))
	assert.Error(t, err)

	_, err = UnmarshalCheckpoint([]byte(`{"label":"no id"}`))
	assert.Error(t, err)
}

func TestMarshalDiffs(t *testing.T) {
	calc := checkpoint.NewCalculator()
	diffs := calc.Diff(
		map[string]string{"/a.txt": "1\n"},
		map[string]string{"/a.txt": "2\n", "/b.txt": "new\n"},
	)
	data, err := MarshalDiffs(diffs)
	require.NoError(t, err)

	s := string(data)
	assert.Contains(t, s, `"/a.txt"`)
	assert.Contains(t, s, `"modified"`)
	assert.Contains(t, s, `"added"`)
	assert.Contains(t, s, `"files_modified"`)
}

func TestDiffsToAPI_LineKinds(t *testing.T) {
	calc := checkpoint.NewCalculator()
	diffs := calc.Diff(
		map[string]string{"/f.txt": "a\nk\nb\n"},
		map[string]string{"/f.txt": "a2\nk\nb2\n"},
	)
	wire := DiffsToAPI(diffs)
	require.Len(t, wire, 1)

	kinds := map[string]bool{}
	for _, h := range wire[0].Hunks {
		for _, l := range h.Lines {
			kinds[l.Kind] = true
		}
	}
	assert.True(t, kinds["add"])
	assert.True(t, kinds["delete"])
	assert.True(t, kinds["context"])
}

func TestSummaryToAPI(t *testing.T) {
	s := SummaryToAPI(checkpoint.Summary{FilesAdded: 1, LinesDeleted: 3})
	assert.Equal(t, 1, s.FilesAdded)
	assert.Equal(t, 3, s.LinesDeleted)
}

func TestWriteArchive(t *testing.T) {
	var buf bytes.Buffer
	err := WriteArchive(&buf, map[string]string{
		"/src/main.go": "package main\n",
		"/README.md":   "# readme\n",
	})
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)

	// Sorted entry order.
	assert.Equal(t, "README.md", zr.File[0].Name)
	assert.Equal(t, "src/main.go", zr.File[1].Name)

	rc, err := zr.File[1].Open()
	require.NoError(t, err)
	defer rc.Close()
	var content bytes.Buffer
	_, err = content.ReadFrom(rc)
	require.NoError(t, err)
	assert.Equal(t, "package main\n", content.String())
}

func TestWriteArchive_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteArchive(&buf, nil))
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	assert.Empty(t, zr.File)
}
