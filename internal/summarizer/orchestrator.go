package summarizer

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/repolens/repolens/internal/config"
	"github.com/repolens/repolens/internal/manifest"
)

// ReadFileFunc supplies a module's raw content for prompt building.
type ReadFileFunc func(path string) ([]byte, error)

// Result reports what one summarization run did.
type Result struct {
	Generated  int
	Cached     int
	Failed     int
	FirstError string
}

// Orchestrator fans summary generation out across a manifest's modules,
// bounded by the admission gate, with cache short-circuiting and
// retry-on-rate-limit. One failed summary never aborts the batch.
type Orchestrator struct {
	provider Provider
	gate     *Gate
	cache    *Cache
	readFile ReadFileFunc

	maxRetries      int
	backoffBase     time.Duration
	symbolSummaries bool

	mu     sync.Mutex
	result Result
}

// NewOrchestrator wires an orchestrator. provider may be nil; Run is
// then a no-op.
func NewOrchestrator(provider Provider, cfg config.AIConfig, readFile ReadFileFunc, prevCache manifest.SummaryCache) *Orchestrator {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 3
	}
	symbolSummaries := cfg.SymbolSummaries
	if provider != nil && provider.SmallModel() {
		symbolSummaries = false
	}
	return &Orchestrator{
		provider:        provider,
		gate:            NewGate(concurrency, cfg.CallDelay),
		cache:           NewCache(prevCache),
		readFile:        readFile,
		maxRetries:      cfg.MaxRetries,
		backoffBase:     cfg.BackoffBase,
		symbolSummaries: symbolSummaries,
	}
}

// Run populates aiSummary fields across the manifest's modules and
// symbols, updates the manifest's persisted cache, and returns counters.
// With no provider it returns a zero Result and leaves m untouched.
func (o *Orchestrator) Run(ctx context.Context, m *manifest.AnalysisManifest) (*Result, error) {
	if o.provider == nil {
		return &Result{}, nil
	}

	log.Info().
		Str("provider", o.provider.Name()).
		Str("model", o.provider.Model()).
		Int("modules", len(m.Modules)).
		Bool("symbolSummaries", o.symbolSummaries).
		Msg("starting summarization")

	var wg sync.WaitGroup
	for _, mod := range m.Modules {
		mod := mod
		wg.Add(1)
		go func() {
			defer wg.Done()
			o.summarizeModule(ctx, mod)
		}()
	}
	wg.Wait()

	m.SummaryCache = o.cache.Snapshot()

	o.mu.Lock()
	result := o.result
	o.mu.Unlock()

	log.Info().
		Int("generated", result.Generated).
		Int("cached", result.Cached).
		Int("failed", result.Failed).
		Msg("summarization complete")

	return &result, nil
}

func (o *Orchestrator) summarizeModule(ctx context.Context, mod *manifest.ModuleInfo) {
	if summary, ok := o.cache.Get(ModuleKey(mod.ContentHash)); ok {
		mod.AISummary = summary
		o.count(func(r *Result) { r.Cached++ })
	} else {
		content, err := o.readFile(mod.Path)
		if err != nil {
			o.fail(mod.Path, fmt.Errorf("failed to read file: %w", err))
			return
		}

		summary, err := o.callWithRetry(ctx, ModulePrompt(mod, content), GenerateOptions{
			MaxTokens: 512,
			System:    systemPromptModule,
		})
		if err != nil {
			o.fail(mod.Path, err)
		} else {
			mod.AISummary = summary
			o.cache.Put(ModuleKey(mod.ContentHash), summary)
			o.count(func(r *Result) { r.Generated++ })
		}
	}

	if !o.symbolSummaries {
		return
	}

	content, err := o.readFile(mod.Path)
	if err != nil {
		return
	}

	var wg sync.WaitGroup
	for i := range mod.Symbols {
		sym := &mod.Symbols[i]
		if !summarizableSymbol(sym) {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			o.summarizeSymbol(ctx, mod, sym, content)
		}()
	}
	wg.Wait()
}

// summarizableSymbol limits per-symbol calls to exported top-level
// functions, classes, and interfaces; call volume is the dominant cost.
func summarizableSymbol(sym *manifest.Symbol) bool {
	if !sym.Exported || sym.ParentID != "" {
		return false
	}
	switch sym.Kind {
	case manifest.KindFunction, manifest.KindClass, manifest.KindInterface:
		return true
	default:
		return false
	}
}

func (o *Orchestrator) summarizeSymbol(ctx context.Context, mod *manifest.ModuleInfo, sym *manifest.Symbol, content []byte) {
	key := SymbolKey(mod.ContentHash, sym.ID)
	if summary, ok := o.cache.Get(key); ok {
		sym.AISummary = summary
		o.count(func(r *Result) { r.Cached++ })
		return
	}

	summary, err := o.callWithRetry(ctx, SymbolPrompt(mod, sym, content), GenerateOptions{
		MaxTokens: 256,
		System:    systemPromptSymbol,
	})
	if err != nil {
		o.fail(sym.ID, err)
		return
	}

	sym.AISummary = summary
	o.cache.Put(key, summary)
	o.count(func(r *Result) { r.Generated++ })
}

// callWithRetry acquires a gate slot per attempt and retries retryable
// failures with exponential backoff.
func (o *Orchestrator) callWithRetry(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= o.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := o.backoffBase * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		if err := o.gate.Acquire(ctx); err != nil {
			return "", err
		}
		summary, err := o.provider.Generate(ctx, prompt, opts)
		o.gate.Release()

		if err == nil {
			return strings.TrimSpace(summary), nil
		}
		lastErr = err
		if !isRetryable(err) {
			break
		}
		log.Debug().Err(err).Int("attempt", attempt+1).Msg("retrying after rate limit")
	}
	return "", lastErr
}

// isRetryable classifies provider failures by message content; provider
// APIs surface rate limiting in too many shapes for typed errors.
func isRetryable(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "rate") ||
		strings.Contains(msg, "quota") ||
		strings.Contains(msg, "resource_exhausted")
}

func (o *Orchestrator) count(f func(*Result)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	f(&o.result)
}

func (o *Orchestrator) fail(item string, err error) {
	log.Warn().Err(err).Str("item", item).Msg("summary generation failed")
	o.mu.Lock()
	defer o.mu.Unlock()
	o.result.Failed++
	if o.result.FirstError == "" {
		o.result.FirstError = err.Error()
	}
}
