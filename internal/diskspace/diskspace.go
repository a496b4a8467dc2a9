// Package diskspace checks free space before the workflow writes the
// response archive or extracts it.
package diskspace

import (
	"fmt"
	"os"
	"path/filepath"
)

// InsufficientSpaceError indicates that there is not enough disk space available.
type InsufficientSpaceError struct {
	Path           string
	RequiredBytes  int64
	AvailableBytes int64
}

func (e *InsufficientSpaceError) Error() string {
	requiredMB := float64(e.RequiredBytes) / (1024 * 1024)
	availableMB := float64(e.AvailableBytes) / (1024 * 1024)
	return fmt.Sprintf("insufficient disk space for %s: need %.2f MB, have %.2f MB available",
		e.Path, requiredMB, availableMB)
}

// CheckAvailableSpace checks whether the filesystem holding dir has room for
// requiredBytes multiplied by safetyMargin (e.g. 1.15 for a 15% buffer).
//
// dir does not need to exist: the nearest existing ancestor is measured.
// When free space cannot be determined (network or virtual filesystems) the
// check passes and the write is left to fail on its own.
func CheckAvailableSpace(dir string, requiredBytes int64, safetyMargin float64) error {
	if requiredBytes <= 0 {
		return nil
	}

	available, ok := availableBytes(existingAncestor(dir))
	if !ok {
		return nil
	}

	requiredWithMargin := int64(float64(requiredBytes) * safetyMargin)
	if available < requiredWithMargin {
		return &InsufficientSpaceError{
			Path:           dir,
			RequiredBytes:  requiredWithMargin,
			AvailableBytes: available,
		}
	}
	return nil
}

func existingAncestor(dir string) string {
	current := filepath.Clean(dir)
	for {
		if _, err := os.Stat(current); err == nil {
			return current
		}
		parent := filepath.Dir(current)
		if parent == current {
			return current
		}
		current = parent
	}
}
