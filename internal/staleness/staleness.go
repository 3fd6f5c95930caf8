// Package staleness decides whether derived files need regeneration.
//
// A target is stale when it does not exist, or when any declared source
// (a file or every file under a directory tree) carries a newer
// modification time than the target.
package staleness

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// IsStale reports whether target must be regenerated from sources.
// Sources that do not exist are ignored; a watched tree may legitimately
// be absent on a fresh checkout.
func IsStale(target string, sources ...string) (bool, error) {
	info, err := os.Stat(target)
	if os.IsNotExist(err) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat target %s: %w", target, err)
	}

	newest, err := Newest(sources...)
	if err != nil {
		return false, err
	}
	return newest.After(info.ModTime()), nil
}

// Newest returns the most recent modification time across the given paths.
// Directories are walked recursively; only regular files count. Missing
// paths are skipped. The zero time is returned when nothing matched.
func Newest(paths ...string) (time.Time, error) {
	var newest time.Time
	for _, p := range paths {
		info, err := os.Stat(p)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return time.Time{}, fmt.Errorf("stat %s: %w", p, err)
		}

		if !info.IsDir() {
			if info.ModTime().After(newest) {
				newest = info.ModTime()
			}
			continue
		}

		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			fi, err := d.Info()
			if err != nil {
				return err
			}
			if fi.Mode().IsRegular() && fi.ModTime().After(newest) {
				newest = fi.ModTime()
			}
			return nil
		})
		if err != nil {
			return time.Time{}, fmt.Errorf("walk %s: %w", p, err)
		}
	}
	return newest, nil
}
