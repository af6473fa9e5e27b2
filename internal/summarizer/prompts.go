package summarizer

import (
	"fmt"
	"strings"

	"github.com/repolens/repolens/internal/manifest"
)

// Prompt templates for code summarization

const systemPromptModule = `You are an expert software engineer writing concise documentation.
Summarize the given source file in 2-3 sentences:
1. What the file is responsible for
2. The key exported types or functions and what they do
3. Anything notable about how it fits into the codebase

Write plain prose. No markdown headers, no bullet lists, no code blocks.`

const systemPromptSymbol = `You are an expert software engineer writing concise documentation.
Summarize the given symbol in one sentence: what it does and when a caller would use it.
Write plain prose. No markdown, no code blocks.`

// maxPromptContent caps how much file content goes into a prompt.
const maxPromptContent = 12000

// ModulePrompt builds the prompt for a module-level summary.
func ModulePrompt(mod *manifest.ModuleInfo, content []byte) string {
	var exported []string
	for _, sym := range mod.Symbols {
		if sym.Exported && sym.ParentID == "" {
			exported = append(exported, fmt.Sprintf("%s %s", sym.Kind, sym.Name))
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Summarize this %s file: %s\n\n", mod.Language, mod.Path)
	if len(exported) > 0 {
		fmt.Fprintf(&b, "Exported symbols: %s\n\n", strings.Join(exported, ", "))
	}
	b.WriteString("```" + mod.Language + "\n")
	b.WriteString(truncate(string(content), maxPromptContent))
	b.WriteString("\n```")
	return b.String()
}

// SymbolPrompt builds the prompt for a symbol-level summary, using the
// symbol's source range from the file content.
func SymbolPrompt(mod *manifest.ModuleInfo, sym *manifest.Symbol, content []byte) string {
	snippet := symbolSource(sym, content)

	var b strings.Builder
	fmt.Fprintf(&b, "Summarize the %s `%s` from %s.\n\n", sym.Kind, sym.Name, mod.Path)
	if sym.Signature != "" {
		fmt.Fprintf(&b, "Signature: %s\n\n", sym.Signature)
	}
	b.WriteString("```" + mod.Language + "\n")
	b.WriteString(truncate(snippet, maxPromptContent/2))
	b.WriteString("\n```")
	return b.String()
}

// symbolSource slices the symbol's lines out of the file; falls back to
// the whole file when the recorded range is unusable.
func symbolSource(sym *manifest.Symbol, content []byte) string {
	lines := strings.Split(string(content), "\n")
	start := sym.Location.Line - 1
	end := sym.Location.EndLine
	if start < 0 || start >= len(lines) || end < start {
		return string(content)
	}
	if end > len(lines) {
		end = len(lines)
	}
	return strings.Join(lines[start:end], "\n")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "\n... (truncated)"
}
