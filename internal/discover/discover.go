// Package discover produces the ordered, deterministic list of
// repo-relative file paths an analysis run operates on, honoring
// .gitignore plus the configured include/exclude globs.
package discover

import (
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// Options filter the discovered file set. Include and Exclude are glob
// patterns matched against the repo-relative path; a "**/" prefix
// matches in any directory. Empty Include means all files.
type Options struct {
	Include []string
	Exclude []string
}

var skipDirs = map[string]struct{}{
	".git":          {},
	".hg":           {},
	".svn":          {},
	"node_modules":  {},
	"vendor":        {},
	"__pycache__":   {},
	"venv":          {},
	".venv":         {},
	"dist":          {},
	"build":         {},
	"target":        {},
	".mypy_cache":   {},
	".pytest_cache": {},
}

// Files walks root and returns matching repo-relative paths in sorted
// order, so two runs over the same tree always see the same list.
func Files(root string, opts Options) ([]string, error) {
	gi := loadGitignore(root)

	var results []string
	err := filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}

		name := d.Name()
		if d.IsDir() {
			if p == root {
				return nil
			}
			if _, skip := skipDirs[name]; skip {
				return filepath.SkipDir
			}
			if strings.HasPrefix(name, ".") && name != "." {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if gi != nil && gi.MatchesPath(rel) {
			return nil
		}
		if !matches(rel, opts) {
			return nil
		}

		results = append(results, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(results)
	return results, nil
}

func matches(rel string, opts Options) bool {
	for _, pattern := range opts.Exclude {
		if matchGlob(pattern, rel) {
			return false
		}
	}
	if len(opts.Include) == 0 {
		return true
	}
	for _, pattern := range opts.Include {
		if matchGlob(pattern, rel) {
			return true
		}
	}
	return false
}

// matchGlob matches pattern against the full relative path; a leading
// "**/" makes the remainder match at any depth, and a trailing "/**"
// matches everything under a directory prefix.
func matchGlob(pattern, rel string) bool {
	if strings.HasSuffix(pattern, "/**") {
		prefix := strings.TrimSuffix(pattern, "/**")
		prefix = strings.TrimPrefix(prefix, "**/")
		return rel == prefix || strings.HasPrefix(rel, prefix+"/") ||
			strings.Contains(rel, "/"+prefix+"/")
	}

	if strings.HasPrefix(pattern, "**/") {
		tail := strings.TrimPrefix(pattern, "**/")
		if ok, _ := path.Match(tail, path.Base(rel)); ok {
			return true
		}
		if ok, _ := path.Match(tail, rel); ok {
			return true
		}
		return false
	}

	ok, _ := path.Match(pattern, rel)
	return ok
}

func loadGitignore(root string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return gi
}
