package packaging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mkrelease/mkrelease/internal/logfields"
)

// eggInfoGlob matches the metadata directories some packaging tools leave
// next to the sources.
const eggInfoGlob = "*.egg-info"

// Clean removes artifact directories, egg-info metadata and the given
// generated documents from dir. Missing paths are treated as success, so
// Clean is idempotent.
func Clean(dir string, artifactPaths, generatedFiles []string) error {
	targets := make([]string, 0, len(artifactPaths)+len(generatedFiles)+4)
	for _, p := range artifactPaths {
		targets = append(targets, resolve(dir, p))
	}
	for _, p := range generatedFiles {
		targets = append(targets, resolve(dir, p))
	}

	matches, err := filepath.Glob(filepath.Join(dir, eggInfoGlob))
	if err != nil {
		return fmt.Errorf("glob %s: %w", eggInfoGlob, err)
	}
	targets = append(targets, matches...)

	for _, t := range targets {
		if err := os.RemoveAll(t); err != nil {
			return fmt.Errorf("remove %s: %w", t, err)
		}
		slog.Debug("Removed artifact path", logfields.Path(t))
	}
	return nil
}

func resolve(dir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}
