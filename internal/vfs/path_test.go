package vfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"/src/app.tsx", "/src/app.tsx"},
		{"src/app.tsx", "/src/app.tsx"},
		{"//src//app.tsx", "/src/app.tsx"},
		{"/src/app.tsx/", "/src/app.tsx"},
		{"/", "/"},
		{"///", "/"},
		{"", ""},
		{"/src/./app.tsx", "/src/app.tsx"},
		{"/src/../lib/util.ts", "/lib/util.ts"},
		{"/a/b/../../c", "/c"},
		{"/../up.txt", "/up.txt"},
		{"/..", "/"},
		{"/.", "/"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Normalize(tc.in), "Normalize(%q)", tc.in)
	}
}

func TestNormalize_EquivalentSpellingsConverge(t *testing.T) {
	spellings := []string{"/a/b", "a/b", "//a/b", "/a//b/", "a//b", "/a/./b", "/a/x/../b"}
	for _, s := range spellings {
		assert.Equal(t, "/a/b", Normalize(s))
	}
}

func TestNormalize_DotSegmentsNeverStored(t *testing.T) {
	// ".." resolves against the parent instead of becoming a literal
	// directory name, and never climbs above the root.
	assert.Equal(t, "/b", Normalize("/a/../b"))
	assert.Equal(t, "/b", Normalize("/../../b"))
	assert.NotContains(t, Normalize("/a/../b"), "..")
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate("/src/main.go"))
	assert.NoError(t, Validate("/with space/ok.txt"))

	assert.ErrorIs(t, Validate(""), ErrInvalidPath)
	assert.ErrorIs(t, Validate("/bad<name"), ErrInvalidPath)
	assert.ErrorIs(t, Validate("/bad|pipe"), ErrInvalidPath)
	assert.ErrorIs(t, Validate("/que?stion"), ErrInvalidPath)
	assert.ErrorIs(t, Validate("/col:on"), ErrInvalidPath)
	assert.ErrorIs(t, Validate("/quo\"te"), ErrInvalidPath)
	assert.ErrorIs(t, Validate("/sta*r"), ErrInvalidPath)
	assert.ErrorIs(t, Validate("/ctrl\x01char"), ErrInvalidPath)
	assert.ErrorIs(t, Validate("/tab\tchar"), ErrInvalidPath)
}

func TestDepth(t *testing.T) {
	assert.Equal(t, 0, Depth("/"))
	assert.Equal(t, 1, Depth("/a"))
	assert.Equal(t, 2, Depth("/a/b"))
	assert.Equal(t, 11, Depth("/1/2/3/4/5/6/7/8/9/10/f.txt"))
}

func TestParentPath(t *testing.T) {
	assert.Equal(t, "/", ParentPath("/a"))
	assert.Equal(t, "/a", ParentPath("/a/b"))
	assert.Equal(t, "/a/b", ParentPath("/a/b/c.txt"))
	assert.Equal(t, "/", ParentPath("/"))
}

func TestAncestors(t *testing.T) {
	assert.Nil(t, Ancestors("/a"))
	assert.Equal(t, []string{"/a"}, Ancestors("/a/b"))
	assert.Equal(t, []string{"/a", "/a/b"}, Ancestors("/a/b/c"))
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "c.txt", BaseName("/a/b/c.txt"))
	assert.Equal(t, "a", BaseName("/a"))
	assert.Equal(t, "/", BaseName("/"))
}

func TestLanguageForPath(t *testing.T) {
	assert.Equal(t, "typescript", LanguageForPath("/src/app.tsx"))
	assert.Equal(t, "go", LanguageForPath("/main.go"))
	assert.Equal(t, "plaintext", LanguageForPath("/notes"))
	assert.Equal(t, "markdown", LanguageForPath("/README.md"))
}
