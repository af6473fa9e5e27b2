package syncer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repolens/repolens/internal/analyzer"
	"github.com/repolens/repolens/internal/config"
	"github.com/repolens/repolens/internal/discover"
	"github.com/repolens/repolens/internal/gitrepo"
	"github.com/repolens/repolens/internal/manifest"
	"github.com/repolens/repolens/internal/parser"
)

// stubVCS satisfies VCS without a real repository.
type stubVCS struct {
	sha     string
	branch  string
	changes []gitrepo.FileChange
	diffErr error
}

func (s *stubVCS) Head() (string, string, error) { return s.sha, s.branch, nil }

func (s *stubVCS) DiffFiles(ctx context.Context, oldSHA, newSHA string) ([]gitrepo.FileChange, error) {
	return s.changes, s.diffErr
}

type harness struct {
	root   string
	vcs    *stubVCS
	engine *Engine
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	root := t.TempDir()
	vcs := &stubVCS{sha: "commit-a", branch: "main"}

	a := analyzer.New(parser.NewRegistry(), config.AnalysisConfig{Workers: 2})
	engine := New(a, vcs, Options{
		Root:         root,
		ManifestPath: filepath.Join(root, ".repolens", "manifest.json"),
		StatePath:    filepath.Join(root, ".repolens", "sync-state.json"),
		ImpactDepth:  1,
		Discover: func() ([]string, error) {
			return discover.Files(root, discover.Options{
				Exclude: []string{".repolens/**"},
			})
		},
	})
	return &harness{root: root, vcs: vcs, engine: engine}
}

func (h *harness) write(t *testing.T, rel, content string) {
	t.Helper()
	path := filepath.Join(h.root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func (h *harness) remove(t *testing.T, rel string) {
	t.Helper()
	require.NoError(t, os.Remove(filepath.Join(h.root, filepath.FromSlash(rel))))
}

func TestSync_FirstRunIsFull(t *testing.T) {
	h := newHarness(t)
	h.write(t, "x.ts", "export const a = 1;\n")

	result, err := h.engine.Sync(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, ModeFull, result.Mode)
	assert.Equal(t, "commit-a", result.CurrentSHA)
	assert.Equal(t, 1, result.Created)
	assert.NotEmpty(t, result.RunID)

	// Manifest and state are persisted.
	m, err := manifest.Load(filepath.Join(h.root, ".repolens", "manifest.json"))
	require.NoError(t, err)
	assert.Contains(t, m.Modules, "x.ts")

	state, err := manifest.LoadSyncState(filepath.Join(h.root, ".repolens", "sync-state.json"))
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, "commit-a", state.LastCommitSHA)
	assert.Equal(t, 1, state.TotalPages)
}

func TestSync_IncrementalOnlyReparsesChanged(t *testing.T) {
	h := newHarness(t)
	h.write(t, "x.ts", "export const version = 1;\n")
	h.write(t, "y.ts", "import { version } from './x';\n\nexport const v = version;\n")

	ctx := context.Background()
	_, err := h.engine.Sync(ctx, false)
	require.NoError(t, err)

	before, err := manifest.Load(filepath.Join(h.root, ".repolens", "manifest.json"))
	require.NoError(t, err)
	yBefore := before.Modules["y.ts"]

	// Commit B: only x.ts changes.
	h.write(t, "x.ts", "export const version = 2;\n")
	h.vcs.sha = "commit-b"
	h.vcs.changes = []gitrepo.FileChange{{Path: "x.ts", Status: gitrepo.StatusModified}}

	result, err := h.engine.Sync(ctx, false)
	require.NoError(t, err)

	assert.Equal(t, ModeIncremental, result.Mode)
	assert.Equal(t, "commit-a", result.PreviousSHA)
	assert.Equal(t, 1, result.Reanalyzed)
	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 0, result.Deleted)

	// y.ts imports x.ts, so it is impacted but not re-parsed.
	assert.Equal(t, []string{"y.ts"}, result.Impacted)

	after := result.Manifest
	assert.Equal(t, yBefore.ContentHash, after.Modules["y.ts"].ContentHash)
	assert.Equal(t, yBefore.AnalyzedAt, after.Modules["y.ts"].AnalyzedAt)
	assert.NotEqual(t, before.Modules["x.ts"].ContentHash, after.Modules["x.ts"].ContentHash)

	state, err := manifest.LoadSyncState(filepath.Join(h.root, ".repolens", "sync-state.json"))
	require.NoError(t, err)
	assert.Equal(t, "commit-b", state.LastCommitSHA)
}

func TestSync_DeleteAndAdd(t *testing.T) {
	h := newHarness(t)
	h.write(t, "old.ts", "export const o = 1;\n")

	ctx := context.Background()
	_, err := h.engine.Sync(ctx, false)
	require.NoError(t, err)

	h.remove(t, "old.ts")
	h.write(t, "new.ts", "export const n = 1;\n")
	h.vcs.sha = "commit-b"
	h.vcs.changes = []gitrepo.FileChange{
		{Path: "old.ts", Status: gitrepo.StatusDeleted},
		{Path: "new.ts", Status: gitrepo.StatusAdded},
	}

	result, err := h.engine.Sync(ctx, false)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Deleted)
	assert.Equal(t, 1, result.Created)
	assert.NotContains(t, result.Manifest.Modules, "old.ts")
	assert.Contains(t, result.Manifest.Modules, "new.ts")
}

func TestSync_RenameIsDeletePlusAdd(t *testing.T) {
	h := newHarness(t)
	h.write(t, "a.ts", "export const a = 1;\n")

	ctx := context.Background()
	_, err := h.engine.Sync(ctx, false)
	require.NoError(t, err)

	h.remove(t, "a.ts")
	h.write(t, "b.ts", "export const a = 1;\n")
	h.vcs.sha = "commit-b"
	h.vcs.changes = []gitrepo.FileChange{
		{Path: "b.ts", OldPath: "a.ts", Status: gitrepo.StatusRenamed},
	}

	result, err := h.engine.Sync(ctx, false)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Deleted)
	assert.Equal(t, 1, result.Created)
	assert.NotContains(t, result.Manifest.Modules, "a.ts")
	assert.Contains(t, result.Manifest.Modules, "b.ts")
}

func TestSync_SameCommitShortCircuits(t *testing.T) {
	h := newHarness(t)
	h.write(t, "x.ts", "export const a = 1;\n")

	ctx := context.Background()
	first, err := h.engine.Sync(ctx, false)
	require.NoError(t, err)

	// HEAD unchanged: nothing to do, previous manifest returned.
	result, err := h.engine.Sync(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, ModeIncremental, result.Mode)
	assert.Empty(t, result.Changes)
	assert.Equal(t, 0, result.Reanalyzed)
	assert.Equal(t, len(first.Manifest.Modules), len(result.Manifest.Modules))
}

func TestSync_ForceFullDespiteState(t *testing.T) {
	h := newHarness(t)
	h.write(t, "x.ts", "export const a = 1;\n")

	ctx := context.Background()
	_, err := h.engine.Sync(ctx, false)
	require.NoError(t, err)

	h.vcs.sha = "commit-b"
	result, err := h.engine.Sync(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, ModeFull, result.Mode)
}

func TestSync_DiffFailureFallsBackToFull(t *testing.T) {
	h := newHarness(t)
	h.write(t, "x.ts", "export const a = 1;\n")

	ctx := context.Background()
	_, err := h.engine.Sync(ctx, false)
	require.NoError(t, err)

	h.vcs.sha = "commit-b"
	h.vcs.diffErr = assert.AnError

	result, err := h.engine.Sync(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, ModeFull, result.Mode)
}

func TestSync_SkippedChangedFileStillImpactsImporters(t *testing.T) {
	root := t.TempDir()
	vcs := &stubVCS{sha: "commit-a", branch: "main"}

	// Discovery reports a fixed file list, so removing x.ts from disk
	// leaves it discoverable but unreadable: the re-parse is skipped.
	a := analyzer.New(parser.NewRegistry(), config.AnalysisConfig{Workers: 2})
	engine := New(a, vcs, Options{
		Root:         root,
		ManifestPath: filepath.Join(root, ".repolens", "manifest.json"),
		StatePath:    filepath.Join(root, ".repolens", "sync-state.json"),
		ImpactDepth:  1,
		Discover:     func() ([]string, error) { return []string{"x.ts", "y.ts"}, nil },
	})

	h := &harness{root: root}
	h.write(t, "x.ts", "export const a = 1;\n")
	h.write(t, "y.ts", "import { a } from './x';\n")

	ctx := context.Background()
	_, err := engine.Sync(ctx, false)
	require.NoError(t, err)

	h.remove(t, "x.ts")
	vcs.sha = "commit-b"
	vcs.changes = []gitrepo.FileChange{{Path: "x.ts", Status: gitrepo.StatusModified}}

	result, err := engine.Sync(ctx, false)
	require.NoError(t, err)

	assert.Equal(t, ModeIncremental, result.Mode)
	assert.Equal(t, []string{"x.ts"}, result.Skipped)
	assert.Equal(t, []string{"y.ts"}, result.Impacted)
}

func TestSync_GraphRebuiltOverMergedSet(t *testing.T) {
	h := newHarness(t)
	h.write(t, "x.ts", "export const a = 1;\n")
	h.write(t, "y.ts", "import { a } from './x';\n")

	ctx := context.Background()
	_, err := h.engine.Sync(ctx, false)
	require.NoError(t, err)

	// y.ts stops importing x.ts; the edge must disappear even though
	// x.ts itself was untouched.
	h.write(t, "y.ts", "export const standalone = 1;\n")
	h.vcs.sha = "commit-b"
	h.vcs.changes = []gitrepo.FileChange{{Path: "y.ts", Status: gitrepo.StatusModified}}

	result, err := h.engine.Sync(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, result.Manifest.Graph.Edges)
	assert.Len(t, result.Manifest.Graph.Nodes, 2)
}
