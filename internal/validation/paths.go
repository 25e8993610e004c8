// Package validation checks local paths built from names the ShotGrid site
// returns before anything is written to disk.
package validation

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidateFilename rejects a name that is not a single path segment: empty names,
// names with a separator or a null byte, and the "." and ".." entries. Names such
// as "plate..v2.exr" are fine.
func ValidateFilename(filename string) error {
	switch {
	case filename == "":
		return fmt.Errorf("filename cannot be empty")
	case strings.ContainsRune(filename, 0):
		return fmt.Errorf("filename contains null byte: %q", filename)
	case strings.ContainsAny(filename, `/\`):
		return fmt.Errorf("filename cannot contain path separators: %s", filename)
	case filename == "." || filename == "..":
		return fmt.Errorf("filename cannot be %q", filename)
	}
	return nil
}

// ValidatePathInDirectory returns an error if path, resolved against baseDir when
// relative, lands outside baseDir. baseDir itself counts as inside.
//
//	ValidatePathInDirectory("tasks/Comp/versions/v001/a.exr", "/work") // ok
//	ValidatePathInDirectory("../a.exr", "/work")                       // escapes
func ValidatePathInDirectory(path string, baseDir string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}
	if baseDir == "" {
		return fmt.Errorf("base directory cannot be empty")
	}

	base, err := filepath.Abs(baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base directory: %w", err)
	}

	resolved := filepath.Clean(path)
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(base, resolved)
	}

	rel, err := filepath.Rel(base, resolved)
	if err != nil {
		return fmt.Errorf("path %s is not under %s: %w", path, baseDir, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path escapes base directory: %s (base: %s)", path, baseDir)
	}
	return nil
}
