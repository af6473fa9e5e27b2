// Package manifest defines the intermediate representation produced by an
// analysis run: per-file modules with their symbols and import/export
// records, the cross-file dependency graph, project metadata and
// statistics, plus the sync state carried between invocations.
package manifest

import "time"

// Version is stamped into every manifest this tool produces.
const Version = "1.0"

// SymbolKind classifies a declaration.
type SymbolKind string

const (
	KindFunction  SymbolKind = "function"
	KindClass     SymbolKind = "class"
	KindInterface SymbolKind = "interface"
	KindType      SymbolKind = "type"
	KindEnum      SymbolKind = "enum"
	KindConstant  SymbolKind = "constant"
	KindVariable  SymbolKind = "variable"
	KindMethod    SymbolKind = "method"
	KindProperty  SymbolKind = "property"
	KindModule    SymbolKind = "module"
	KindNamespace SymbolKind = "namespace"
)

// Visibility is the declared access level of a symbol.
type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityPrivate   Visibility = "private"
	VisibilityProtected Visibility = "protected"
	VisibilityInternal  Visibility = "internal"
)

// Location is a source position. Line and Column are 1-indexed.
type Location struct {
	File      string `json:"file"`
	Line      int    `json:"line"`
	Column    int    `json:"column"`
	EndLine   int    `json:"endLine,omitempty"`
	EndColumn int    `json:"endColumn,omitempty"`
}

// ParamInfo describes one parameter of a function or method.
type ParamInfo struct {
	Name     string `json:"name"`
	Type     string `json:"type,omitempty"`
	Default  string `json:"default,omitempty"`
	Optional bool   `json:"optional,omitempty"`
}

// Symbol is a named, located declaration extracted from a source file.
//
// ID is stable across runs: "file:name" for top-level symbols and
// "file:Parent.name" for members. ParentID and ChildIDs reference
// symbols within the same module.
type Symbol struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Kind       SymbolKind  `json:"kind"`
	Visibility Visibility  `json:"visibility"`
	Location   Location    `json:"location"`
	Exported   bool        `json:"exported"`
	Parameters []ParamInfo `json:"parameters,omitempty"`
	ReturnType string      `json:"returnType,omitempty"`
	Signature  string      `json:"signature,omitempty"`
	Doc        string      `json:"doc,omitempty"`
	ParentID   string      `json:"parentId,omitempty"`
	ChildIDs   []string    `json:"childIds,omitempty"`
	Extends    string      `json:"extends,omitempty"`
	Implements []string    `json:"implements,omitempty"`
	AISummary  string      `json:"aiSummary,omitempty"`
}

// ImportSpecifier is one named binding introduced by an import statement.
type ImportSpecifier struct {
	Name      string `json:"name"`
	Alias     string `json:"alias,omitempty"`
	Default   bool   `json:"default,omitempty"`
	Namespace bool   `json:"namespace,omitempty"`
}

// ImportInfo records a single import statement.
type ImportInfo struct {
	Source     string            `json:"source"`
	Specifiers []ImportSpecifier `json:"specifiers,omitempty"`
	TypeOnly   bool              `json:"typeOnly,omitempty"`
}

// ExportInfo records a single exported binding. Source is set for
// re-exports; SymbolID back-references the originating symbol when the
// export corresponds to a declaration in the same file.
type ExportInfo struct {
	Name     string `json:"name"`
	Alias    string `json:"alias,omitempty"`
	Source   string `json:"source,omitempty"`
	SymbolID string `json:"symbolId,omitempty"`
	Default  bool   `json:"default,omitempty"`
	TypeOnly bool   `json:"typeOnly,omitempty"`
}

// ModuleDoc is the module-level documentation of a file. Summary is a
// one-line description; degraded parsers synthesize it heuristically.
type ModuleDoc struct {
	Summary string `json:"summary,omitempty"`
	Text    string `json:"text,omitempty"`
}

// ModuleInfo is the per-file analysis record. Path is the repo-relative
// primary key. ContentHash is the sole validity token: an unchanged hash
// means the module is carried over byte-identical from the previous
// manifest.
type ModuleInfo struct {
	Path        string       `json:"path"`
	Language    string       `json:"language"`
	Symbols     []Symbol     `json:"symbols,omitempty"`
	Imports     []ImportInfo `json:"imports,omitempty"`
	Exports     []ExportInfo `json:"exports,omitempty"`
	ModuleDoc   *ModuleDoc   `json:"moduleDoc,omitempty"`
	AISummary   string       `json:"aiSummary,omitempty"`
	Size        int64        `json:"size"`
	LineCount   int          `json:"lineCount"`
	ContentHash string       `json:"contentHash"`
	AnalyzedAt  time.Time    `json:"analyzedAt"`
}

// DependencyEdge is one directed file-to-file dependency. Multiple import
// statements between the same pair of files merge into a single edge.
type DependencyEdge struct {
	From     string   `json:"from"`
	To       string   `json:"to"`
	Names    []string `json:"names,omitempty"`
	TypeOnly bool     `json:"typeOnly,omitempty"`
}

// DependencyGraph is the directed graph over module file paths. Every
// edge endpoint is a member of Nodes. Cycles are permitted.
type DependencyGraph struct {
	Nodes []string         `json:"nodes"`
	Edges []DependencyEdge `json:"edges"`
}

// HasNode reports whether path is a node of the graph.
func (g *DependencyGraph) HasNode(path string) bool {
	for _, n := range g.Nodes {
		if n == path {
			return true
		}
	}
	return false
}

// LanguageStat is the file count and share of one detected language.
type LanguageStat struct {
	Language string  `json:"language"`
	Files    int     `json:"files"`
	Percent  float64 `json:"percent"`
}

// ProjectMetadata is coarse repository-level information.
type ProjectMetadata struct {
	Name           string         `json:"name"`
	Languages      []LanguageStat `json:"languages,omitempty"`
	EntryPoints    []string       `json:"entryPoints,omitempty"`
	PackageManager string         `json:"packageManager,omitempty"`
	License        string         `json:"license,omitempty"`
}

// Statistics are aggregate totals over all modules of a manifest.
type Statistics struct {
	TotalModules      int                `json:"totalModules"`
	TotalSymbols      int                `json:"totalSymbols"`
	TotalLines        int                `json:"totalLines"`
	SymbolsByKind     map[SymbolKind]int `json:"symbolsByKind,omitempty"`
	ModulesByLanguage map[string]int     `json:"modulesByLanguage,omitempty"`
	SkippedFiles      int                `json:"skippedFiles"`
}

// SummaryCacheEntry is one cached AI summary. Entries are additive and
// only ever superseded by a differing content hash for the same key.
type SummaryCacheEntry struct {
	Summary     string    `json:"summary"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// SummaryCache maps "contentHash" (module level) or
// "contentHash:symbolID" (symbol level) to a generated summary.
type SummaryCache map[string]SummaryCacheEntry

// AnalysisManifest is the top-level aggregate for one repository
// snapshot and the hand-off artifact to downstream consumers.
type AnalysisManifest struct {
	Version      string                 `json:"version"`
	Repo         string                 `json:"repo,omitempty"`
	Branch       string                 `json:"branch,omitempty"`
	CommitSHA    string                 `json:"commitSha,omitempty"`
	GeneratedAt  time.Time              `json:"generatedAt"`
	Modules      map[string]*ModuleInfo `json:"modules"`
	Graph        *DependencyGraph       `json:"graph"`
	Metadata     ProjectMetadata        `json:"metadata"`
	Stats        Statistics             `json:"stats"`
	SummaryCache SummaryCache           `json:"summaryCache,omitempty"`
}

// SyncState is the small document persisted by the sync engine and read
// back on the next invocation to decide full-vs-incremental mode. It is
// written only after a fully successful sync.
type SyncState struct {
	LastCommitSHA string    `json:"lastCommitSha"`
	LastSyncedAt  time.Time `json:"lastSyncedAt"`
	ManifestPath  string    `json:"manifestPath"`
	TotalPages    int       `json:"totalPages"`
}
