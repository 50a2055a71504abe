package blame

import (
	"os"
	"path/filepath"
)

// RepoMarker is the directory that identifies a repository root.
const RepoMarker = ".hg"

func hasMarker(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, RepoMarker))
	return err == nil
}

// Resolve finds the repository holding filePath by walking up from its
// parent directory until a directory with a RepoMarker is found. The walk
// never goes above workingDir, which is used as the root when no marker is
// found on the way.
func Resolve(workingDir, filePath string) Location {
	workingDir = filepath.Clean(workingDir)
	filePath = filepath.Clean(filePath)

	root := filepath.Dir(filePath)
	for root != workingDir {
		if hasMarker(root) {
			break
		}
		parent := filepath.Dir(root)
		if parent == root {
			// filePath is not below workingDir.
			root = workingDir
			break
		}
		root = parent
	}
	rel, err := filepath.Rel(root, filePath)
	if err != nil {
		rel = filePath
	}
	return Location{Root: root, Path: rel}
}
