package gen

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	fconfig "github.com/funvibe/fallible/internal/config"
)

// ExpandPaths turns command-line arguments into a sorted, de-duplicated
// list of Go files. An argument may be a file, a directory (its own .go
// files only) or dir/... (recursive). Hidden and excluded directories are
// skipped during recursion; files named explicitly are always kept.
func (c *Config) ExpandPaths(args []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		path = filepath.Clean(path)
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, arg := range args {
		if root, ok := strings.CutSuffix(arg, "/..."); ok {
			if root == "" {
				root = "."
			}
			if err := c.walk(root, add); err != nil {
				return nil, err
			}
			continue
		}

		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", arg, err)
		}
		if !info.IsDir() {
			add(arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", arg, err)
		}
		for _, e := range entries {
			if !e.IsDir() && c.isSourceFile(e.Name()) {
				add(filepath.Join(arg, e.Name()))
			}
		}
	}

	sort.Strings(files)
	return files, nil
}

func (c *Config) walk(root string, add func(string)) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && (strings.HasPrefix(d.Name(), ".") || c.excluded(d.Name())) {
				return filepath.SkipDir
			}
			return nil
		}
		if c.isSourceFile(d.Name()) {
			add(path)
		}
		return nil
	})
}

func (c *Config) isSourceFile(name string) bool {
	return strings.HasSuffix(name, fconfig.SourceFileExt) && !strings.HasPrefix(name, ".") && !c.excluded(name)
}
