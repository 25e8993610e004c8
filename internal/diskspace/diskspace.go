// Package diskspace checks free space before downloads.
package diskspace

import (
	"errors"
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
	return fmt.Sprintf("insufficient disk space in %s: need %.2f MB, have %.2f MB available",
		e.Path, requiredMB, availableMB)
}

// CheckAvailableSpace returns an InsufficientSpaceError when the filesystem holding
// dir has less than requiredBytes plus bufferPercent free. dir need not exist yet;
// its nearest existing ancestor is checked. When free space can't be determined
// (network or virtual filesystems) the check passes and the write fails naturally.
func CheckAvailableSpace(dir string, requiredBytes int64, bufferPercent float64) error {
	if requiredBytes <= 0 {
		return nil
	}

	available, ok := GetAvailableSpace(dir)
	if !ok {
		return nil
	}

	required := requiredBytes + int64(float64(requiredBytes)*bufferPercent)
	if available < required {
		return &InsufficientSpaceError{
			Path:           dir,
			RequiredBytes:  required,
			AvailableBytes: available,
		}
	}
	return nil
}

// GetAvailableSpace returns the bytes available to this user on the filesystem
// holding path, and false if that can't be determined.
func GetAvailableSpace(path string) (int64, bool) {
	dir, err := existingAncestor(path)
	if err != nil {
		return 0, false
	}
	return availableBytes(dir)
}

// IsInsufficientSpaceError checks if an error is, or wraps, an InsufficientSpaceError
func IsInsufficientSpaceError(err error) bool {
	var target *InsufficientSpaceError
	return errors.As(err, &target)
}

func existingAncestor(path string) (string, error) {
	dir, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	for {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no existing directory above %s", path)
		}
		dir = parent
	}
}
