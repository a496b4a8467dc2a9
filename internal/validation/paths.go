// Package validation checks names that come from untrusted sources before
// they are joined onto local paths.
package validation

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// ValidatePathInDirectory validates that a path, when resolved, stays within baseDir.
//
// Both path and baseDir are cleaned and made absolute before comparison.
// Returns an error if the resolved path is not within baseDir.
//
// Example:
//
//	ValidatePathInDirectory("../../etc/passwd", "/tmp/out") // Error: escapes base dir
//	ValidatePathInDirectory("subdir/file.txt", "/tmp/out")   // OK: within base dir
func ValidatePathInDirectory(p string, baseDir string) error {
	if p == "" {
		return fmt.Errorf("path cannot be empty")
	}
	if baseDir == "" {
		return fmt.Errorf("base directory cannot be empty")
	}

	cleanBase, err := filepath.Abs(filepath.Clean(baseDir))
	if err != nil {
		return fmt.Errorf("failed to resolve base directory: %w", err)
	}

	resolved := filepath.Clean(p)
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(cleanBase, resolved)
	}

	rel, err := filepath.Rel(cleanBase, resolved)
	if err != nil {
		return fmt.Errorf("failed to compute relative path: %w", err)
	}

	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path escapes base directory: %s (base: %s)", p, baseDir)
	}

	return nil
}

// ArchiveEntryPath maps a ZIP entry name (always slash-separated) to a local
// path under baseDir.
//
// Unless allowEscape is set it rejects names that:
//   - contain null bytes
//   - are absolute, or carry a Windows volume or backslash prefix
//   - resolve outside baseDir after cleaning ("../x", "a/../../x")
//
// With allowEscape the name is joined as-is, which is how the server-side
// archive was always consumed before containment checks existed.
func ArchiveEntryPath(baseDir, name string, allowEscape bool) (string, error) {
	if name == "" {
		return "", fmt.Errorf("archive entry name cannot be empty")
	}
	if strings.ContainsRune(name, 0) {
		return "", fmt.Errorf("archive entry name contains null byte: %q", name)
	}

	local := filepath.Join(baseDir, filepath.FromSlash(name))
	if allowEscape {
		return local, nil
	}

	if path.IsAbs(name) || strings.HasPrefix(name, `\`) || filepath.VolumeName(filepath.FromSlash(name)) != "" {
		return "", fmt.Errorf("archive entry name is absolute: %q", name)
	}
	if err := ValidatePathInDirectory(filepath.FromSlash(name), baseDir); err != nil {
		return "", fmt.Errorf("archive entry %q: %w", name, err)
	}
	return local, nil
}
