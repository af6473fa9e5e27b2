// Package syncer keeps a manifest up to date across commits. It decides
// between a full re-analysis and an incremental one driven by the
// file-level diff, merges freshly parsed modules into the previous
// manifest, and persists sync state only after everything else has been
// written successfully.
package syncer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/repolens/repolens/internal/analyzer"
	"github.com/repolens/repolens/internal/gitrepo"
	"github.com/repolens/repolens/internal/graph"
	"github.com/repolens/repolens/internal/manifest"
)

// Mode is how a sync run analyzed the repository.
type Mode string

const (
	ModeFull        Mode = "full"
	ModeIncremental Mode = "incremental"
)

// VCS supplies commit identity and file-level diffs. *gitrepo.Repo
// satisfies it; tests substitute a stub.
type VCS interface {
	Head() (sha, branch string, err error)
	DiffFiles(ctx context.Context, oldSHA, newSHA string) ([]gitrepo.FileChange, error)
}

// Engine runs sync invocations for one repository.
type Engine struct {
	analyzer *analyzer.Analyzer
	vcs      VCS // nil when the root is not a git repository

	root         string
	manifestPath string
	statePath    string
	impactDepth  int

	// discover returns the current repo-relative file list.
	discover func() ([]string, error)
}

// Options configure an Engine.
type Options struct {
	Root         string
	ManifestPath string
	StatePath    string
	ImpactDepth  int
	Discover     func() ([]string, error)
}

// New creates a sync engine. vcs may be nil, in which case every run is
// a full analysis without commit identity.
func New(a *analyzer.Analyzer, vcs VCS, opts Options) *Engine {
	return &Engine{
		analyzer:     a,
		vcs:          vcs,
		root:         opts.Root,
		manifestPath: opts.ManifestPath,
		statePath:    opts.StatePath,
		impactDepth:  opts.ImpactDepth,
		discover:     opts.Discover,
	}
}

// SyncResult summarizes one run for CLI reporting.
type SyncResult struct {
	RunID       string               `json:"runId"`
	Mode        Mode                 `json:"mode"`
	PreviousSHA string               `json:"previousSha,omitempty"`
	CurrentSHA  string               `json:"currentSha,omitempty"`
	Changes     []gitrepo.FileChange `json:"changes,omitempty"`
	Reanalyzed  int                  `json:"reanalyzed"`
	Created     int                  `json:"created"`
	Deleted     int                  `json:"deleted"`
	Impacted    []string             `json:"impacted,omitempty"`
	Skipped     []string             `json:"skipped,omitempty"`
	Duration    time.Duration        `json:"duration"`

	Manifest *manifest.AnalysisManifest `json:"-"`
}

// Sync analyzes the repository, writes the manifest, and advances the
// sync state. force requests a full re-analysis even when a previous
// state exists.
func (e *Engine) Sync(ctx context.Context, force bool) (*SyncResult, error) {
	start := time.Now()
	result := &SyncResult{RunID: uuid.NewString()}

	var info analyzer.RepoInfo
	if e.vcs != nil {
		sha, branch, err := e.vcs.Head()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve HEAD: %w", err)
		}
		info.CommitSHA = sha
		info.Branch = branch
	}
	if r, ok := e.vcs.(*gitrepo.Repo); ok {
		info.Name = r.OriginName()
	}
	result.CurrentSHA = info.CommitSHA

	state, prev := e.loadPrevious()
	if state != nil {
		result.PreviousSHA = state.LastCommitSHA
	}

	incremental := !force &&
		e.vcs != nil &&
		state != nil && state.LastCommitSHA != "" &&
		prev != nil

	if incremental && state.LastCommitSHA == info.CommitSHA {
		log.Info().Str("commit", info.CommitSHA).Msg("already synced, nothing to do")
		result.Mode = ModeIncremental
		result.Manifest = prev
		result.Duration = time.Since(start)
		return result, nil
	}

	var err error
	if incremental {
		err = e.syncIncremental(ctx, state, prev, info, result)
		if err != nil {
			log.Warn().Err(err).Msg("incremental sync failed, falling back to full analysis")
			incremental = false
		}
	}
	if !incremental {
		err = e.syncFull(ctx, prev, info, result)
		if err != nil {
			return nil, err
		}
	}

	if err := manifest.Save(e.manifestPath, result.Manifest); err != nil {
		return nil, fmt.Errorf("failed to save manifest: %w", err)
	}

	// State advances only once the manifest is safely on disk, so a
	// failed run never claims a commit it did not fully process.
	if info.CommitSHA != "" {
		newState := &manifest.SyncState{
			LastCommitSHA: info.CommitSHA,
			LastSyncedAt:  time.Now().UTC(),
			ManifestPath:  e.manifestPath,
			TotalPages:    len(result.Manifest.Modules),
		}
		if err := manifest.SaveSyncState(e.statePath, newState); err != nil {
			return nil, fmt.Errorf("failed to save sync state: %w", err)
		}
	}

	result.Duration = time.Since(start)
	log.Info().
		Str("mode", string(result.Mode)).
		Int("modules", len(result.Manifest.Modules)).
		Int("reanalyzed", result.Reanalyzed).
		Int("created", result.Created).
		Int("deleted", result.Deleted).
		Int("impacted", len(result.Impacted)).
		Dur("duration", result.Duration).
		Msg("sync complete")

	return result, nil
}

// loadPrevious reads the persisted state and manifest; either may be
// absent, which simply forces full mode.
func (e *Engine) loadPrevious() (*manifest.SyncState, *manifest.AnalysisManifest) {
	state, err := manifest.LoadSyncState(e.statePath)
	if err != nil {
		log.Warn().Err(err).Msg("failed to load sync state, running full analysis")
		return nil, nil
	}
	if state == nil {
		return nil, nil
	}

	prev, err := manifest.Load(e.manifestPath)
	if err != nil {
		log.Warn().Err(err).Msg("failed to load previous manifest, running full analysis")
		return state, nil
	}
	return state, prev
}

func (e *Engine) syncFull(ctx context.Context, prev *manifest.AnalysisManifest, info analyzer.RepoInfo, result *SyncResult) error {
	files, err := e.discover()
	if err != nil {
		return fmt.Errorf("failed to discover files: %w", err)
	}

	m, skipped, err := e.analyzer.Analyze(ctx, e.root, files, prev, info)
	if err != nil {
		return err
	}

	result.Mode = ModeFull
	result.Manifest = m
	result.Skipped = skipped
	result.Created = len(m.Modules)
	return nil
}

func (e *Engine) syncIncremental(ctx context.Context, state *manifest.SyncState, prev *manifest.AnalysisManifest, info analyzer.RepoInfo, result *SyncResult) error {
	changes, err := e.vcs.DiffFiles(ctx, state.LastCommitSHA, info.CommitSHA)
	if err != nil {
		return fmt.Errorf("failed to diff %s..%s: %w", state.LastCommitSHA, info.CommitSHA, err)
	}

	files, err := e.discover()
	if err != nil {
		return fmt.Errorf("failed to discover files: %w", err)
	}
	current := make(map[string]struct{}, len(files))
	for _, f := range files {
		current[f] = struct{}{}
	}

	// Start from the previous module set and apply the diff: deletions
	// drop out, renames drop the old path, additions and modifications
	// are re-parsed. A rename is a delete plus an add.
	merged := make(map[string]*manifest.ModuleInfo, len(prev.Modules))
	for p, mod := range prev.Modules {
		merged[p] = mod
	}

	var toParse []string
	var changedPaths []string
	for _, change := range changes {
		switch change.Status {
		case gitrepo.StatusDeleted:
			if _, existed := merged[change.Path]; existed {
				delete(merged, change.Path)
				result.Deleted++
				changedPaths = append(changedPaths, change.Path)
			}
		case gitrepo.StatusRenamed:
			if _, existed := merged[change.OldPath]; existed {
				delete(merged, change.OldPath)
				result.Deleted++
				changedPaths = append(changedPaths, change.OldPath)
			}
			if _, ok := current[change.Path]; ok {
				toParse = append(toParse, change.Path)
			}
		case gitrepo.StatusAdded, gitrepo.StatusModified:
			if _, ok := current[change.Path]; ok {
				toParse = append(toParse, change.Path)
			}
		}
	}

	parsed, skipped, err := e.analyzer.ParseFiles(ctx, e.root, toParse, nil)
	if err != nil {
		return err
	}
	for p, mod := range parsed {
		if _, existed := prev.Modules[p]; existed {
			result.Reanalyzed++
		} else {
			result.Created++
		}
		merged[p] = mod
		changedPaths = append(changedPaths, p)
	}
	// A changed file that could not be re-parsed still changed; its
	// importers must be flagged even though no fresh module exists.
	changedPaths = append(changedPaths, skipped...)

	// Impacted modules are flagged from the previous graph, not
	// re-parsed: their own content is unchanged.
	if prev.Graph != nil && e.impactDepth > 0 {
		result.Impacted = graph.ImpactedBy(prev.Graph, changedPaths, e.impactDepth)
	}

	skippedTotal := prev.Stats.SkippedFiles + len(skipped)
	m := e.analyzer.Assemble(e.root, merged, info, skippedTotal)
	m.SummaryCache = prev.SummaryCache

	result.Mode = ModeIncremental
	result.Manifest = m
	result.Changes = changes
	result.Skipped = skipped
	return nil
}
