// Package transfer holds the download and upload job bodies and the local
// directory layout of downloaded task files.
package transfer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pipelinekit/sgdesk/internal/util/sanitize"
)

// Directory names inside the output directory
const (
	TasksDirName    = "tasks"
	VersionsDirName = "versions"
)

// mkdir is swapped in tests
var mkdir = os.Mkdir

// VersionDir returns {outDir}/tasks/{taskName}/versions/{versionName}, with both
// names reduced to single safe path segments.
func VersionDir(outDir, taskName, versionName string) string {
	return filepath.Join(outDir, TasksDirName, sanitize.PathSegment(taskName),
		VersionsDirName, sanitize.PathSegment(versionName))
}

// BuildDir creates root and then each of parts below it, one component at a time.
// A component that already exists is fine; any other error stops the walk. It
// returns the full path.
func BuildDir(root string, parts ...string) (string, error) {
	dir := root
	if err := mkdirExistOK(dir); err != nil {
		return "", err
	}
	for _, part := range parts {
		dir = filepath.Join(dir, part)
		if err := mkdirExistOK(dir); err != nil {
			return "", err
		}
	}
	return dir, nil
}

func mkdirExistOK(dir string) error {
	err := mkdir(dir, 0755)
	if err == nil || errors.Is(err, fs.ErrExist) {
		return nil
	}
	return fmt.Errorf("failed to create directory %s: %w", dir, err)
}
