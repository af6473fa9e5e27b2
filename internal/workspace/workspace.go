// Package workspace detects monorepo conventions and maps declared
// package names to their repo-relative directories. The map is used to
// resolve same-repo imports that reference a package by name rather than
// a relative path.
package workspace

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// packageJSON is the subset of package.json this resolver reads.
type packageJSON struct {
	Name       string          `json:"name"`
	Workspaces json.RawMessage `json:"workspaces"`
}

type pnpmWorkspace struct {
	Packages []string `yaml:"packages"`
}

type lernaConfig struct {
	Packages []string `json:"packages"`
}

// Resolve probes the known monorepo conventions in priority order:
// package.json workspaces, pnpm-workspace.yaml, lerna.json. The first
// convention yielding at least one resolved package wins. When none is
// found the returned map is empty and all non-relative imports are
// treated as external by the graph builder.
func Resolve(root string) map[string]string {
	for _, probe := range []func(string) map[string]string{
		resolveNPMWorkspaces,
		resolvePNPM,
		resolveLerna,
	} {
		if packages := probe(root); len(packages) > 0 {
			log.Debug().Int("packages", len(packages)).Msg("workspace convention detected")
			return packages
		}
	}
	return map[string]string{}
}

func resolveNPMWorkspaces(root string) map[string]string {
	data, err := os.ReadFile(filepath.Join(root, "package.json"))
	if err != nil {
		return nil
	}

	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil || len(pkg.Workspaces) == 0 {
		return nil
	}

	// workspaces is either a glob array or {"packages": [...]}.
	var globs []string
	if err := json.Unmarshal(pkg.Workspaces, &globs); err != nil {
		var obj struct {
			Packages []string `json:"packages"`
		}
		if err := json.Unmarshal(pkg.Workspaces, &obj); err != nil {
			return nil
		}
		globs = obj.Packages
	}

	return expandGlobs(root, globs)
}

func resolvePNPM(root string) map[string]string {
	data, err := os.ReadFile(filepath.Join(root, "pnpm-workspace.yaml"))
	if err != nil {
		return nil
	}

	var ws pnpmWorkspace
	if err := yaml.Unmarshal(data, &ws); err != nil {
		return nil
	}

	return expandGlobs(root, ws.Packages)
}

func resolveLerna(root string) map[string]string {
	data, err := os.ReadFile(filepath.Join(root, "lerna.json"))
	if err != nil {
		return nil
	}

	var cfg lernaConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil
	}

	globs := cfg.Packages
	if len(globs) == 0 {
		globs = []string{"packages/*"}
	}
	return expandGlobs(root, globs)
}

// expandGlobs resolves workspace glob patterns against the repo root and
// reads each candidate's package.json name. Negated patterns remove
// previously matched directories.
func expandGlobs(root string, globs []string) map[string]string {
	dirs := make(map[string]bool)

	for _, pattern := range globs {
		negate := strings.HasPrefix(pattern, "!")
		pattern = strings.TrimPrefix(pattern, "!")
		pattern = strings.TrimSuffix(pattern, "/")

		matches, err := filepath.Glob(filepath.Join(root, filepath.FromSlash(pattern)))
		if err != nil {
			continue
		}
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil || !info.IsDir() {
				continue
			}
			rel, err := filepath.Rel(root, m)
			if err != nil {
				continue
			}
			rel = filepath.ToSlash(rel)
			if negate {
				delete(dirs, rel)
			} else {
				dirs[rel] = true
			}
		}
	}

	packages := make(map[string]string)
	for _, dir := range sortedDirs(dirs) {
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(dir), "package.json"))
		if err != nil {
			continue
		}
		var pkg packageJSON
		if err := json.Unmarshal(data, &pkg); err != nil || pkg.Name == "" {
			continue
		}
		packages[pkg.Name] = dir
	}

	return packages
}

func sortedDirs(dirs map[string]bool) []string {
	out := make([]string, 0, len(dirs))
	for d := range dirs {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
