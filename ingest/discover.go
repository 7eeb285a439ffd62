package ingest

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// discover walks root (a directory or a single file) and returns every
// file path that passes the allow-list/size/hidden-name filters (§4.3
// step 1). Symlinks are not followed; filepath.WalkDir already treats
// them as leaf entries, which bounds the walk against symlink loops
// without needing an explicit depth counter for the common case, but
// MaxWalkDepth still caps path depth as a second line of defense against
// a deliberately deep symlink chain.
func discover(root string, opts Options) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("ingest: stat %q: %w", root, err)
	}
	if !info.IsDir() {
		if !allowed(root, opts) {
			return nil, nil
		}
		return []string{root}, nil
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip entries we can't stat, don't abort the walk
		}
		if path != root && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if depth(root, path) > opts.MaxWalkDepth {
				return filepath.SkipDir
			}
			return nil
		}
		if !allowed(path, opts) {
			return nil
		}
		fi, statErr := d.Info()
		if statErr != nil || (opts.MaxFileBytes > 0 && fi.Size() > opts.MaxFileBytes) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ingest: walk %q: %w", root, err)
	}
	return paths, nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

func depth(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator))
}

func allowed(path string, opts Options) bool {
	if len(opts.AllowedExtensions) == 0 {
		return true
	}
	ext := extractExt(path)
	for _, a := range opts.AllowedExtensions {
		if strings.EqualFold(strings.TrimPrefix(a, "."), ext) {
			return true
		}
	}
	return false
}

func extractExt(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

func statPath(path string) (os.FileInfo, error) {
	return os.Stat(path)
}
