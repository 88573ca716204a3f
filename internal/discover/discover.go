package discover

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Supported video extensions (lowercase, with leading dot).
var videoExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".avi":  true,
	".mov":  true,
	".webm": true,
	".m4v":  true,
}

// IsVideo reports whether path has a supported video extension.
func IsVideo(path string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(path))]
}

// Collect returns the videos under dir sorted lexicographically. Hidden
// files and directories are skipped. Without recursive only the top level
// is listed.
func Collect(dir string, recursive bool) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		hidden := path != dir && strings.HasPrefix(d.Name(), ".")
		if d.IsDir() {
			if path != dir && (hidden || !recursive) {
				return filepath.SkipDir
			}
			return nil
		}
		if !hidden && d.Type().IsRegular() && IsVideo(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

// Resolve expands a mix of files and directories into a sorted, de-duplicated
// list of videos. Explicit files are kept even when their extension is
// unknown so the caller's intent wins.
func Resolve(inputs []string, recursive bool) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, in := range inputs {
		fi, err := os.Stat(in)
		if err != nil {
			return nil, fmt.Errorf("stat input: %w", err)
		}
		if !fi.IsDir() {
			add(in)
			continue
		}
		files, err := Collect(in, recursive)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			add(f)
		}
	}

	sort.Strings(out)
	return out, nil
}
