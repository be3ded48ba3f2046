package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gcbaptista/go-rank-compare/internal/errors"
)

// DefaultExtension is the file extension of ranking files found in directories.
const DefaultExtension = ".txt"

// DiscoverOptions selects ranking files inside directories.
type DiscoverOptions struct {
	Prefix    string // File names must start with Prefix
	Extension string // File names must end with Extension; DefaultExtension when empty
}

// RankingFile is a ranking file together with the name it is stored under.
type RankingFile struct {
	Name string
	Path string
}

// RankingName derives a ranking name from a file path: the base name without
// its extension, with underscores replaced by hyphens.
func RankingName(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.ReplaceAll(base, "_", "-")
}

// Discover expands paths into ranking files. A file path is taken as is; a
// directory contributes its regular files matching opts, sorted by name.
// Two files deriving the same name are an error.
func Discover(paths []string, opts DiscoverOptions) ([]RankingFile, error) {
	if opts.Extension == "" {
		opts.Extension = DefaultExtension
	}

	var files []RankingFile
	seen := make(map[string]string)
	add := func(path string) error {
		name := RankingName(path)
		if previous, dup := seen[name]; dup {
			return errors.NewValidationError("paths", fmt.Sprintf("%s and %s both map to ranking name '%s'", previous, path, name))
		}
		seen[name] = path
		files = append(files, RankingFile{Name: name, Path: path})
		return nil
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", path, err)
		}
		if !info.IsDir() {
			if err := add(path); err != nil {
				return nil, err
			}
			continue
		}

		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read directory %s: %w", path, err)
		}
		var matched []string
		for _, entry := range entries {
			name := entry.Name()
			if !entry.Type().IsRegular() || !strings.HasPrefix(name, opts.Prefix) || !strings.HasSuffix(name, opts.Extension) {
				continue
			}
			matched = append(matched, filepath.Join(path, name))
		}
		slices.Sort(matched)
		for _, file := range matched {
			if err := add(file); err != nil {
				return nil, err
			}
		}
	}
	return files, nil
}
