package vfs

import (
	"fmt"
	"strings"
)

// Root is the path of the tree root. It is the only path with a trailing
// slash and the only one with no parent.
const Root = "/"

// reservedChars are rejected anywhere in a path. The set mirrors the
// characters that are unrepresentable on at least one host filesystem
// the workspace exports to.
const reservedChars = `<>:"|?*`

// Normalize converts a path to its canonical form: single leading slash,
// duplicate separators collapsed, trailing slash stripped (except the
// root), "." segments dropped and ".." segments resolved against their
// parent (never above the root). Normalization happens before any
// validation or storage step, so two differently-spelled but equivalent
// paths always resolve to the same record.
func Normalize(path string) string {
	if path == "" {
		return ""
	}
	segs := make([]string, 0, 8)
	for _, s := range strings.Split(path, "/") {
		switch s {
		case "", ".":
		case "..":
			if len(segs) > 0 {
				segs = segs[:len(segs)-1]
			}
		default:
			segs = append(segs, s)
		}
	}
	if len(segs) == 0 {
		return Root
	}
	return "/" + strings.Join(segs, "/")
}

// Validate checks a normalized path against the forbidden-character rules.
// It does not check depth; see Depth and the store's configured maximum.
func Validate(path string) error {
	if path == "" {
		return fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	if strings.ContainsAny(path, reservedChars) {
		return fmt.Errorf("%w: reserved character in %q", ErrInvalidPath, path)
	}
	for _, r := range path {
		if r < 0x20 || r == 0x7f {
			return fmt.Errorf("%w: control character in %q", ErrInvalidPath, path)
		}
	}
	return nil
}

// Depth returns the number of segments below the root. "/" is depth 0,
// "/a" is 1, "/a/b" is 2.
func Depth(path string) int {
	if path == Root || path == "" {
		return 0
	}
	return strings.Count(path, "/")
}

// ParentPath returns the path of the immediate parent directory.
// The root is its own parent.
func ParentPath(path string) string {
	if path == Root || path == "" {
		return Root
	}
	idx := strings.LastIndexByte(path, '/')
	if idx <= 0 {
		return Root
	}
	return path[:idx]
}

// Ancestors returns every ancestor directory of path, nearest the root
// first, excluding the root itself and excluding path. For "/a/b/c" it
// returns ["/a", "/a/b"].
func Ancestors(path string) []string {
	var out []string
	for i := 1; i < len(path); i++ {
		if path[i] == '/' {
			out = append(out, path[:i])
		}
	}
	return out
}

// BaseName returns the final segment of a normalized path.
func BaseName(path string) string {
	if path == Root {
		return Root
	}
	idx := strings.LastIndexByte(path, '/')
	return path[idx+1:]
}
