// Package analyzer runs the parse pipeline: fan out file parsing across
// workers, gate re-parsing on content hashes, then assemble modules,
// workspace map, dependency graph, metadata and statistics into a
// manifest.
package analyzer

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/repolens/repolens/internal/config"
	"github.com/repolens/repolens/internal/graph"
	"github.com/repolens/repolens/internal/manifest"
	"github.com/repolens/repolens/internal/parser"
	"github.com/repolens/repolens/internal/workspace"
)

// RepoInfo carries repository identity stamped into the manifest.
type RepoInfo struct {
	Name      string
	Branch    string
	CommitSHA string
}

// Analyzer coordinates parsing. Parsing of independent files shares no
// mutable state, so files fan out across workers freely; results are
// aggregated only after each file's parse completes.
type Analyzer struct {
	registry     *parser.Registry
	workers      int
	parseTimeout time.Duration
}

// New creates an analyzer backed by the given parser registry.
func New(registry *parser.Registry, cfg config.AnalysisConfig) *Analyzer {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	timeout := cfg.ParseTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Analyzer{registry: registry, workers: workers, parseTimeout: timeout}
}

// Analyze runs the full pipeline over files and returns the assembled
// manifest plus the paths skipped due to parse failures. When prev is
// given, files whose content hash is unchanged reuse their previous
// module verbatim.
func (a *Analyzer) Analyze(ctx context.Context, root string, files []string, prev *manifest.AnalysisManifest, info RepoInfo) (*manifest.AnalysisManifest, []string, error) {
	modules, skipped, err := a.ParseFiles(ctx, root, files, prev)
	if err != nil {
		return nil, nil, err
	}

	m := a.Assemble(root, modules, info, len(skipped))
	if prev != nil {
		m.SummaryCache = prev.SummaryCache
	}
	return m, skipped, nil
}

// ParseFiles parses the given repo-relative files concurrently and
// returns the resulting modules keyed by path, plus the skipped paths.
// A file in an unknown language is neither a module nor a skip; a parse
// failure is counted and logged but never aborts the run.
func (a *Analyzer) ParseFiles(ctx context.Context, root string, files []string, prev *manifest.AnalysisManifest) (map[string]*manifest.ModuleInfo, []string, error) {
	type outcome struct {
		module  *manifest.ModuleInfo
		skipped bool
	}
	outcomes := make([]outcome, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)

	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			mod, ok := a.parseOne(ctx, root, file, prev)
			outcomes[i] = outcome{module: mod, skipped: !ok}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	modules := make(map[string]*manifest.ModuleInfo)
	var skipped []string
	for i, o := range outcomes {
		if o.module != nil {
			modules[o.module.Path] = o.module
		} else if o.skipped {
			skipped = append(skipped, files[i])
		}
	}
	sort.Strings(skipped)

	return modules, skipped, nil
}

// parseOne returns (module, true) on success, (nil, true) for files that
// are simply not modules, and (nil, false) for parse failures.
func (a *Analyzer) parseOne(ctx context.Context, root, file string, prev *manifest.AnalysisManifest) (*manifest.ModuleInfo, bool) {
	content, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(file)))
	if err != nil {
		log.Warn().Err(err).Str("file", file).Msg("failed to read file")
		return nil, false
	}

	hash := manifest.HashBytes(content)
	if prev != nil {
		if prevMod, ok := prev.Modules[file]; ok && prevMod.ContentHash == hash {
			return prevMod, true
		}
	}

	parseCtx, cancel := context.WithTimeout(ctx, a.parseTimeout)
	defer cancel()

	result, lang, err := a.registry.ParseFile(parseCtx, content, file)
	if err != nil {
		log.Warn().Err(err).Str("file", file).Str("language", string(lang)).Msg("skipping unparseable file")
		return nil, false
	}
	if result == nil {
		return nil, true
	}

	return &manifest.ModuleInfo{
		Path:        file,
		Language:    string(lang),
		Symbols:     result.Symbols,
		Imports:     result.Imports,
		Exports:     result.Exports,
		ModuleDoc:   result.ModuleDoc,
		Size:        int64(len(content)),
		LineCount:   countLines(content),
		ContentHash: hash,
		AnalyzedAt:  time.Now().UTC(),
	}, true
}

// Assemble builds the manifest around an already-parsed module set: the
// workspace map, the dependency graph (always recomputed over the full
// node set), project metadata and statistics.
func (a *Analyzer) Assemble(root string, modules map[string]*manifest.ModuleInfo, info RepoInfo, skipped int) *manifest.AnalysisManifest {
	packages := workspace.Resolve(root)

	return &manifest.AnalysisManifest{
		Version:     manifest.Version,
		Repo:        info.Name,
		Branch:      info.Branch,
		CommitSHA:   info.CommitSHA,
		GeneratedAt: time.Now().UTC(),
		Modules:     modules,
		Graph:       graph.Build(modules, packages),
		Metadata:    DetectMetadata(root, info.Name, modules),
		Stats:       manifest.ComputeStats(modules, skipped),
	}
}

func countLines(content []byte) int {
	if len(content) == 0 {
		return 0
	}
	n := bytes.Count(content, []byte{'\n'})
	if content[len(content)-1] != '\n' {
		n++
	}
	return n
}
