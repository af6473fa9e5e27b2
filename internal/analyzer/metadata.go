package analyzer

import (
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/repolens/repolens/internal/manifest"
)

// DetectMetadata derives project-level facts: the language breakdown,
// likely entry points, the package manager in use, and the license.
func DetectMetadata(root, name string, modules map[string]*manifest.ModuleInfo) manifest.ProjectMetadata {
	if name == "" {
		name = filepath.Base(root)
	}
	return manifest.ProjectMetadata{
		Name:           name,
		Languages:      manifest.LanguageBreakdown(modules),
		EntryPoints:    detectEntryPoints(modules),
		PackageManager: detectPackageManager(root),
		License:        detectLicense(root),
	}
}

// entryPointCandidates are checked in order against the analyzed module
// set; cmd/*/main.go is handled separately.
var entryPointCandidates = []string{
	"main.go",
	"src/index.ts",
	"src/index.js",
	"src/main.ts",
	"src/main.js",
	"index.ts",
	"index.js",
	"main.py",
	"app.py",
	"__main__.py",
	"src/main/java/Main.java",
}

func detectEntryPoints(modules map[string]*manifest.ModuleInfo) []string {
	var points []string
	for _, candidate := range entryPointCandidates {
		if _, ok := modules[candidate]; ok {
			points = append(points, candidate)
		}
	}
	var cmds []string
	for p := range modules {
		if strings.HasPrefix(p, "cmd/") && path.Base(p) == "main.go" {
			cmds = append(cmds, p)
		}
	}
	sort.Strings(cmds)
	return append(points, cmds...)
}

// packageManagerMarkers map a root-level file to the tool it implies.
// Lockfiles are checked before their generic manifests so pnpm and yarn
// win over plain npm.
var packageManagerMarkers = []struct {
	file    string
	manager string
}{
	{"pnpm-lock.yaml", "pnpm"},
	{"yarn.lock", "yarn"},
	{"bun.lockb", "bun"},
	{"package-lock.json", "npm"},
	{"package.json", "npm"},
	{"go.mod", "go"},
	{"Cargo.toml", "cargo"},
	{"poetry.lock", "poetry"},
	{"pyproject.toml", "pip"},
	{"requirements.txt", "pip"},
	{"Pipfile", "pipenv"},
	{"pom.xml", "maven"},
	{"build.gradle", "gradle"},
	{"build.gradle.kts", "gradle"},
	{"composer.json", "composer"},
	{"Gemfile", "bundler"},
}

func detectPackageManager(root string) string {
	for _, marker := range packageManagerMarkers {
		if _, err := os.Stat(filepath.Join(root, marker.file)); err == nil {
			return marker.manager
		}
	}
	return ""
}

var licenseFiles = []string{"LICENSE", "LICENSE.md", "LICENSE.txt", "COPYING", "COPYING.md"}

func detectLicense(root string) string {
	for _, name := range licenseFiles {
		data, err := os.ReadFile(filepath.Join(root, name))
		if err != nil {
			continue
		}
		return classifyLicense(string(data))
	}
	return ""
}

func classifyLicense(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "mit license"):
		return "MIT"
	case strings.Contains(lower, "apache license") && strings.Contains(lower, "2.0"):
		return "Apache-2.0"
	case strings.Contains(lower, "gnu affero general public license"):
		return "AGPL-3.0"
	case strings.Contains(lower, "gnu lesser general public license"):
		return "LGPL-3.0"
	case strings.Contains(lower, "gnu general public license") && strings.Contains(lower, "version 3"):
		return "GPL-3.0"
	case strings.Contains(lower, "gnu general public license"):
		return "GPL-2.0"
	case strings.Contains(lower, "mozilla public license"):
		return "MPL-2.0"
	case strings.Contains(lower, "bsd 3-clause") || strings.Contains(lower, "redistribution and use in source and binary forms"):
		return "BSD-3-Clause"
	case strings.Contains(lower, "the unlicense") || strings.Contains(lower, "unlicense"):
		return "Unlicense"
	case strings.Contains(lower, "isc license"):
		return "ISC"
	default:
		return "unknown"
	}
}
