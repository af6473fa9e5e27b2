package parser

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/repolens/repolens/internal/manifest"
)

// The degraded parsers cover config and markup languages that have no
// full grammar here. They use line-oriented pattern matching, always
// synthesize a moduleDoc summary, and never fail: syntactically invalid
// input degrades to an empty or partial result.

// yamlParser handles YAML documents, recognizing a few well-known shapes
// (Kubernetes manifests, docker-compose files, GitHub workflows).
type yamlParser struct{}

func newYAMLParser() *yamlParser { return &yamlParser{} }

func (p *yamlParser) Language() Language { return LanguageYAML }

func (p *yamlParser) Parse(_ context.Context, content []byte, filePath string) (*ParseResult, error) {
	result := &ParseResult{}

	var doc map[string]any
	if err := yaml.Unmarshal(content, &doc); err != nil {
		// Invalid YAML is not an error for a degraded parser.
		result.ModuleDoc = &manifest.ModuleDoc{Summary: "YAML document"}
		return result, nil
	}

	summary := "YAML document"
	switch {
	case doc["apiVersion"] != nil && doc["kind"] != nil:
		summary = fmt.Sprintf("Kubernetes %v manifest", doc["kind"])
	case doc["services"] != nil && (doc["version"] != nil || strings.Contains(filepath.Base(filePath), "compose")):
		summary = "Docker Compose configuration"
	case doc["on"] != nil && doc["jobs"] != nil:
		name, _ := doc["name"].(string)
		if name != "" {
			summary = fmt.Sprintf("GitHub Actions workflow: %s", name)
		} else {
			summary = "GitHub Actions workflow"
		}
	}
	result.ModuleDoc = &manifest.ModuleDoc{Summary: summary}

	for _, key := range sortedKeys(doc) {
		result.Symbols = append(result.Symbols, manifest.Symbol{
			ID:         symbolID(filePath, key),
			Name:       key,
			Kind:       manifest.KindProperty,
			Visibility: manifest.VisibilityPublic,
			Location:   manifest.Location{File: filePath, Line: lineOfKey(content, key), Column: 1},
			Exported:   true,
		})
	}

	return result, nil
}

// jsonParser handles JSON documents, recognizing package manifests.
type jsonParser struct{}

func newJSONParser() *jsonParser { return &jsonParser{} }

func (p *jsonParser) Language() Language { return LanguageJSON }

func (p *jsonParser) Parse(_ context.Context, content []byte, filePath string) (*ParseResult, error) {
	result := &ParseResult{}

	var doc map[string]any
	if err := json.Unmarshal(content, &doc); err != nil {
		result.ModuleDoc = &manifest.ModuleDoc{Summary: "JSON document"}
		return result, nil
	}

	summary := "JSON document"
	base := filepath.Base(filePath)
	switch {
	case base == "package.json":
		if name, ok := doc["name"].(string); ok {
			summary = fmt.Sprintf("npm package manifest: %s", name)
		} else {
			summary = "npm package manifest"
		}
	case base == "tsconfig.json" || strings.HasPrefix(base, "tsconfig."):
		summary = "TypeScript compiler configuration"
	case base == "composer.json":
		summary = "Composer package manifest"
	}
	result.ModuleDoc = &manifest.ModuleDoc{Summary: summary}

	for _, key := range sortedKeys(doc) {
		result.Symbols = append(result.Symbols, manifest.Symbol{
			ID:         symbolID(filePath, key),
			Name:       key,
			Kind:       manifest.KindProperty,
			Visibility: manifest.VisibilityPublic,
			Location:   manifest.Location{File: filePath, Line: lineOfKey(content, key), Column: 1},
			Exported:   true,
		})
	}

	return result, nil
}

// markdownParser lifts headings into symbols; the first heading becomes
// the module summary.
type markdownParser struct{}

func newMarkdownParser() *markdownParser { return &markdownParser{} }

func (p *markdownParser) Language() Language { return LanguageMarkdown }

func (p *markdownParser) Parse(_ context.Context, content []byte, filePath string) (*ParseResult, error) {
	result := &ParseResult{}

	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	lineNo := 0
	inFence := false
	seen := make(map[string]bool)

	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
			continue
		}
		if inFence || !strings.HasPrefix(line, "#") {
			continue
		}

		level := 0
		for level < len(line) && line[level] == '#' {
			level++
		}
		title := strings.TrimSpace(line[level:])
		if title == "" || seen[title] {
			continue
		}
		seen[title] = true

		if result.ModuleDoc == nil {
			result.ModuleDoc = &manifest.ModuleDoc{Summary: title}
		}
		result.Symbols = append(result.Symbols, manifest.Symbol{
			ID:         symbolID(filePath, title),
			Name:       title,
			Kind:       manifest.KindModule,
			Visibility: manifest.VisibilityPublic,
			Location:   manifest.Location{File: filePath, Line: lineNo, Column: 1},
			Exported:   true,
			Signature:  line,
		})
	}

	if result.ModuleDoc == nil {
		result.ModuleDoc = &manifest.ModuleDoc{Summary: "Markdown document"}
	}
	return result, nil
}

var (
	sqlCreateRe = regexp.MustCompile(`(?i)^\s*CREATE\s+(?:OR\s+REPLACE\s+)?(TABLE|VIEW|INDEX|FUNCTION|TRIGGER|PROCEDURE)\s+(?:IF\s+NOT\s+EXISTS\s+)?([\w."]+)`)
	sqlInsertRe = regexp.MustCompile(`(?i)^\s*INSERT\s+INTO`)
	sqlAlterRe  = regexp.MustCompile(`(?i)^\s*(ALTER|DROP)\s+`)
)

// sqlParser classifies a file as migration vs seed and extracts created
// object names.
type sqlParser struct{}

func newSQLParser() *sqlParser { return &sqlParser{} }

func (p *sqlParser) Language() Language { return LanguageSQL }

func (p *sqlParser) Parse(_ context.Context, content []byte, filePath string) (*ParseResult, error) {
	result := &ParseResult{}

	creates, inserts, alters := 0, 0, 0
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		if m := sqlCreateRe.FindStringSubmatch(line); m != nil {
			creates++
			objKind := strings.ToUpper(m[1])
			name := strings.Trim(m[2], `"`)

			kind := manifest.KindVariable
			switch objKind {
			case "TABLE", "VIEW":
				kind = manifest.KindClass
			case "FUNCTION", "PROCEDURE", "TRIGGER":
				kind = manifest.KindFunction
			}

			result.Symbols = append(result.Symbols, manifest.Symbol{
				ID:         symbolID(filePath, name),
				Name:       name,
				Kind:       kind,
				Visibility: manifest.VisibilityPublic,
				Location:   manifest.Location{File: filePath, Line: lineNo, Column: 1},
				Exported:   true,
				Signature:  collapseWhitespace(line),
			})
		}
		if sqlInsertRe.MatchString(line) {
			inserts++
		}
		if sqlAlterRe.MatchString(line) {
			alters++
		}
	}

	summary := "SQL script"
	switch {
	case inserts > 0 && creates == 0 && alters == 0:
		summary = "SQL seed data"
	case creates > 0 || alters > 0:
		summary = "SQL migration"
	}
	result.ModuleDoc = &manifest.ModuleDoc{Summary: summary}
	return result, nil
}

// dockerfileParser extracts build stages and the base image.
type dockerfileParser struct{}

func newDockerfileParser() *dockerfileParser { return &dockerfileParser{} }

func (p *dockerfileParser) Language() Language { return LanguageDockerfile }

func (p *dockerfileParser) Parse(_ context.Context, content []byte, filePath string) (*ParseResult, error) {
	result := &ParseResult{}

	scanner := bufio.NewScanner(bytes.NewReader(content))
	lineNo := 0
	baseImage := ""

	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 || !strings.EqualFold(fields[0], "FROM") {
			continue
		}

		if baseImage == "" {
			baseImage = fields[1]
		}

		// Multi-stage builds: FROM <image> AS <stage>.
		if len(fields) >= 4 && strings.EqualFold(fields[2], "AS") {
			stage := fields[3]
			result.Symbols = append(result.Symbols, manifest.Symbol{
				ID:         symbolID(filePath, stage),
				Name:       stage,
				Kind:       manifest.KindNamespace,
				Visibility: manifest.VisibilityPublic,
				Location:   manifest.Location{File: filePath, Line: lineNo, Column: 1},
				Exported:   true,
				Signature:  strings.Join(fields, " "),
			})
		}
	}

	summary := "Dockerfile"
	if baseImage != "" {
		summary = fmt.Sprintf("Docker image based on %s", baseImage)
	}
	result.ModuleDoc = &manifest.ModuleDoc{Summary: summary}
	return result, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// lineOfKey finds the 1-indexed line where a top-level key appears; 1
// when not found textually (e.g. flow-style documents).
func lineOfKey(content []byte, key string) int {
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		trimmed := strings.TrimLeft(scanner.Text(), " \t\"")
		if strings.HasPrefix(trimmed, key+":") || strings.HasPrefix(trimmed, key+`"`) {
			return lineNo
		}
	}
	return 1
}
