package manifest

import "sort"

// ComputeStats aggregates totals over the given module set. skipped is
// the number of files the analyzer could not parse in the same run.
func ComputeStats(modules map[string]*ModuleInfo, skipped int) Statistics {
	stats := Statistics{
		SymbolsByKind:     make(map[SymbolKind]int),
		ModulesByLanguage: make(map[string]int),
		SkippedFiles:      skipped,
	}

	for _, mod := range modules {
		stats.TotalModules++
		stats.TotalLines += mod.LineCount
		stats.ModulesByLanguage[mod.Language]++
		for _, sym := range mod.Symbols {
			stats.TotalSymbols++
			stats.SymbolsByKind[sym.Kind]++
		}
	}

	return stats
}

// LanguageBreakdown computes per-language file counts and percentages,
// ordered by descending file count, then name for determinism.
func LanguageBreakdown(modules map[string]*ModuleInfo) []LanguageStat {
	counts := make(map[string]int)
	for _, mod := range modules {
		counts[mod.Language]++
	}

	total := len(modules)
	out := make([]LanguageStat, 0, len(counts))
	for lang, n := range counts {
		pct := 0.0
		if total > 0 {
			pct = float64(n) / float64(total) * 100
		}
		out = append(out, LanguageStat{Language: lang, Files: n, Percent: pct})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Files != out[j].Files {
			return out[i].Files > out[j].Files
		}
		return out[i].Language < out[j].Language
	})

	return out
}
