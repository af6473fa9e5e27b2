package parser

import (
	"path/filepath"
	"strings"
)

// Language identifies a supported source language.
type Language string

const (
	LanguageGo         Language = "go"
	LanguagePython     Language = "python"
	LanguageJavaScript Language = "javascript"
	LanguageTypeScript Language = "typescript"
	LanguageJava       Language = "java"
	LanguageYAML       Language = "yaml"
	LanguageJSON       Language = "json"
	LanguageMarkdown   Language = "markdown"
	LanguageSQL        Language = "sql"
	LanguageDockerfile Language = "dockerfile"
	LanguageUnknown    Language = "unknown"
)

var extensionLanguages = map[string]Language{
	".go":       LanguageGo,
	".py":       LanguagePython,
	".js":       LanguageJavaScript,
	".jsx":      LanguageJavaScript,
	".mjs":      LanguageJavaScript,
	".cjs":      LanguageJavaScript,
	".ts":       LanguageTypeScript,
	".tsx":      LanguageTypeScript,
	".mts":      LanguageTypeScript,
	".cts":      LanguageTypeScript,
	".java":     LanguageJava,
	".yaml":     LanguageYAML,
	".yml":      LanguageYAML,
	".json":     LanguageJSON,
	".md":       LanguageMarkdown,
	".markdown": LanguageMarkdown,
	".sql":      LanguageSQL,
}

// DetectLanguage maps a file path to a language by extension or
// extensionless basename convention. Unknown extensions return
// LanguageUnknown; this is a normal result, not a failure.
func DetectLanguage(path string) Language {
	base := filepath.Base(path)
	if base == "Dockerfile" || strings.HasPrefix(base, "Dockerfile.") {
		return LanguageDockerfile
	}
	if strings.HasSuffix(base, ".dockerfile") {
		return LanguageDockerfile
	}

	ext := strings.ToLower(filepath.Ext(base))
	if lang, ok := extensionLanguages[ext]; ok {
		return lang
	}
	return LanguageUnknown
}
