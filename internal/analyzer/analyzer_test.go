package analyzer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repolens/repolens/internal/config"
	"github.com/repolens/repolens/internal/manifest"
	"github.com/repolens/repolens/internal/parser"
)

func newTestAnalyzer() *Analyzer {
	return New(parser.NewRegistry(), config.AnalysisConfig{Workers: 2})
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestAnalyze_FullPipeline(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "math.ts", "export function add(a: number, b: number): number {\n  return a + b;\n}\n")
	writeFile(t, root, "app.ts", "import { add } from './math';\n\nexport const sum = add(1, 2);\n")
	writeFile(t, root, "notes.txt", "not a module\n")

	a := newTestAnalyzer()
	m, skipped, err := a.Analyze(context.Background(), root, []string{"app.ts", "math.ts", "notes.txt"}, nil, RepoInfo{Name: "acme/demo"})
	require.NoError(t, err)
	assert.Empty(t, skipped)

	// The unknown-language file is neither a module nor a skip.
	require.Len(t, m.Modules, 2)
	require.Contains(t, m.Modules, "math.ts")
	mathMod := m.Modules["math.ts"]
	assert.Equal(t, "typescript", mathMod.Language)
	assert.NotEmpty(t, mathMod.ContentHash)
	assert.Equal(t, 3, mathMod.LineCount)
	require.Len(t, mathMod.Symbols, 1)
	assert.Equal(t, "math.ts:add", mathMod.Symbols[0].ID)

	require.Len(t, m.Graph.Edges, 1)
	assert.Equal(t, "app.ts", m.Graph.Edges[0].From)
	assert.Equal(t, "math.ts", m.Graph.Edges[0].To)

	assert.Equal(t, "acme/demo", m.Metadata.Name)
	assert.Equal(t, 2, m.Stats.TotalModules)
}

func TestAnalyze_HashReuseIsIdempotent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", "package a\n\nfunc A() {}\n")

	a := newTestAnalyzer()
	ctx := context.Background()

	first, _, err := a.Analyze(ctx, root, []string{"a.go"}, nil, RepoInfo{})
	require.NoError(t, err)

	second, _, err := a.Analyze(ctx, root, []string{"a.go"}, first, RepoInfo{})
	require.NoError(t, err)

	// Unchanged content reuses the previous module verbatim, analysis
	// timestamp included.
	assert.Equal(t, first.Modules["a.go"].AnalyzedAt, second.Modules["a.go"].AnalyzedAt)
	assert.Equal(t, first.Modules["a.go"].ContentHash, second.Modules["a.go"].ContentHash)
}

func TestAnalyze_ChangedContentReparsed(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", "package a\n\nfunc A() {}\n")

	a := newTestAnalyzer()
	ctx := context.Background()

	first, _, err := a.Analyze(ctx, root, []string{"a.go"}, nil, RepoInfo{})
	require.NoError(t, err)

	writeFile(t, root, "a.go", "package a\n\nfunc A() {}\n\nfunc B() {}\n")
	second, _, err := a.Analyze(ctx, root, []string{"a.go"}, first, RepoInfo{})
	require.NoError(t, err)

	assert.NotEqual(t, first.Modules["a.go"].ContentHash, second.Modules["a.go"].ContentHash)
	assert.Len(t, second.Modules["a.go"].Symbols, 2)
}

func TestParseFiles_MissingFileSkipped(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "ok.go", "package ok\n")

	a := newTestAnalyzer()
	modules, skipped, err := a.ParseFiles(context.Background(), root, []string{"ok.go", "gone.go"}, nil)
	require.NoError(t, err)

	assert.Contains(t, modules, "ok.go")
	assert.Equal(t, []string{"gone.go"}, skipped)
}

func TestAnalyze_CarriesSummaryCache(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", "package a\n")

	prev := &manifest.AnalysisManifest{
		Modules:      map[string]*manifest.ModuleInfo{},
		SummaryCache: manifest.SummaryCache{"hash1": {Summary: "cached"}},
	}

	a := newTestAnalyzer()
	m, _, err := a.Analyze(context.Background(), root, []string{"a.go"}, prev, RepoInfo{})
	require.NoError(t, err)
	assert.Equal(t, "cached", m.SummaryCache["hash1"].Summary)
}

func TestCountLines(t *testing.T) {
	assert.Equal(t, 0, countLines(nil))
	assert.Equal(t, 1, countLines([]byte("one")))
	assert.Equal(t, 1, countLines([]byte("one\n")))
	assert.Equal(t, 2, countLines([]byte("one\ntwo")))
}

func TestDetectMetadata(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "go.mod", "module example.com/demo\n")
	writeFile(t, root, "LICENSE", "MIT License\n\nPermission is hereby granted...\n")

	modules := map[string]*manifest.ModuleInfo{
		"main.go":          {Path: "main.go", Language: "go"},
		"cmd/tool/main.go": {Path: "cmd/tool/main.go", Language: "go"},
	}

	meta := DetectMetadata(root, "acme/demo", modules)

	assert.Equal(t, "acme/demo", meta.Name)
	assert.Equal(t, "go", meta.PackageManager)
	assert.Equal(t, "MIT", meta.License)
	assert.Equal(t, []string{"main.go", "cmd/tool/main.go"}, meta.EntryPoints)
	require.Len(t, meta.Languages, 1)
	assert.Equal(t, "go", meta.Languages[0].Language)
}

func TestDetectPackageManager_LockfilePriority(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "package.json", "{}")
	writeFile(t, root, "pnpm-lock.yaml", "")

	assert.Equal(t, "pnpm", detectPackageManager(root))
}
