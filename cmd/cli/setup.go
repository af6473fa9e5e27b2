package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/repolens/repolens/internal/analyzer"
	"github.com/repolens/repolens/internal/config"
	"github.com/repolens/repolens/internal/discover"
	"github.com/repolens/repolens/internal/gitrepo"
	"github.com/repolens/repolens/internal/parser"
	"github.com/repolens/repolens/internal/syncer"
)

// runtimeSetup bundles everything the commands build from a repo path.
type runtimeSetup struct {
	cfg      *config.Config
	project  *config.ProjectConfig
	root     string
	repo     *gitrepo.Repo // nil outside a git repository
	analyzer *analyzer.Analyzer
	engine   *syncer.Engine
}

func (s *runtimeSetup) manifestPath() string {
	return filepath.Join(s.root, filepath.FromSlash(s.project.ManifestPath))
}

func (s *runtimeSetup) statePath() string {
	return filepath.Join(s.root, filepath.FromSlash(s.project.StatePath))
}

// setup wires the shared runtime; manifestOverride, when non-empty,
// replaces the project config's manifest path.
func setup(repoPath, manifestOverride string) (*runtimeSetup, error) {
	root, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	project, err := config.LoadProjectConfig(root)
	if err != nil {
		return nil, fmt.Errorf("failed to load project config: %w", err)
	}
	project.Merge(&config.ProjectConfig{ManifestPath: manifestOverride})

	repo, err := gitrepo.Open(root)
	if err != nil && !errors.Is(err, gitrepo.ErrNotRepository) {
		return nil, err
	}

	a := analyzer.New(parser.NewRegistry(), cfg.Analysis)

	s := &runtimeSetup{
		cfg:      cfg,
		project:  project,
		root:     root,
		repo:     repo,
		analyzer: a,
	}

	var vcs syncer.VCS
	if repo != nil {
		vcs = repo
	}
	s.engine = syncer.New(a, vcs, syncer.Options{
		Root:         root,
		ManifestPath: s.manifestPath(),
		StatePath:    s.statePath(),
		ImpactDepth:  project.ImpactDepth,
		Discover: func() ([]string, error) {
			return discover.Files(root, discover.Options{
				Include: project.Include,
				Exclude: project.Exclude,
			})
		},
	})

	return s, nil
}
