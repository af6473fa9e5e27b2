// Package graph builds the directed file-to-file dependency graph from
// per-module import records. Resolution is purely against the analyzed
// module set: relative imports resolve with conventional suffix and
// index-file candidates, bare specifiers resolve through the workspace
// package map, and everything else is external and carries no edge.
package graph

import (
	"path"
	"sort"
	"strings"

	"github.com/repolens/repolens/internal/manifest"
)

// resolveSuffixes are tried, in order, when a relative import does not
// name an analyzed module literally.
var resolveSuffixes = []string{
	".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs",
	".py", ".go", ".java",
	"/index.ts", "/index.tsx", "/index.js", "/index.jsx",
	"/__init__.py",
}

// Build constructs the dependency graph over the given module set.
// workspacePackages maps declared package names to repo-relative
// directories; pass an empty map when no monorepo convention was found.
func Build(modules map[string]*manifest.ModuleInfo, workspacePackages map[string]string) *manifest.DependencyGraph {
	nodes := make([]string, 0, len(modules))
	for p := range modules {
		nodes = append(nodes, p)
	}
	sort.Strings(nodes)

	type edgeKey struct{ from, to string }
	merged := make(map[edgeKey]*manifest.DependencyEdge)

	for from, mod := range modules {
		for _, imp := range mod.Imports {
			to := resolveImport(from, imp.Source, modules, workspacePackages)
			if to == "" || to == from {
				continue
			}

			key := edgeKey{from, to}
			edge, ok := merged[key]
			if !ok {
				edge = &manifest.DependencyEdge{From: from, To: to, TypeOnly: true}
				merged[key] = edge
			}
			// A merged edge is type-only only if every contributing
			// import is.
			if !imp.TypeOnly {
				edge.TypeOnly = false
			}
			for _, spec := range imp.Specifiers {
				edge.Names = appendUnique(edge.Names, spec.Name)
			}
		}
	}

	edges := make([]manifest.DependencyEdge, 0, len(merged))
	for _, e := range merged {
		sort.Strings(e.Names)
		edges = append(edges, *e)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})

	return &manifest.DependencyGraph{Nodes: nodes, Edges: edges}
}

// resolveImport maps an import source to a module path, or "" when the
// import is external or unresolvable. Unresolvable relative imports are
// silently dropped; that is a data-quality condition, not an error.
func resolveImport(from, source string, modules map[string]*manifest.ModuleInfo, workspacePackages map[string]string) string {
	if source == "" {
		return ""
	}

	if strings.HasPrefix(source, "./") || strings.HasPrefix(source, "../") {
		return resolveRelative(path.Dir(from), source, modules)
	}

	// Bare specifier: longest-prefix match against workspace packages,
	// e.g. "@acme/core/util" under package "@acme/core".
	for pkg, dir := range workspacePackages {
		if source != pkg && !strings.HasPrefix(source, pkg+"/") {
			continue
		}
		rest := strings.TrimPrefix(strings.TrimPrefix(source, pkg), "/")
		if rest == "" {
			// Bare package import: conventional entry points.
			for _, entry := range []string{"index", "src/index", "src/main"} {
				if resolved := resolveRelative(dir, "./"+entry, modules); resolved != "" {
					return resolved
				}
			}
			return ""
		}
		return resolveRelative(dir, "./"+rest, modules)
	}

	return ""
}

func resolveRelative(baseDir, source string, modules map[string]*manifest.ModuleInfo) string {
	candidate := path.Clean(path.Join(baseDir, source))
	if _, ok := modules[candidate]; ok {
		return candidate
	}
	for _, suffix := range resolveSuffixes {
		if _, ok := modules[candidate+suffix]; ok {
			return candidate + suffix
		}
	}
	return ""
}

// ImpactedBy returns the modules that transitively import any of the
// changed paths, walking reverse edges up to depth hops. Depth 1 means
// direct importers only; 0 disables propagation. Changed paths are not
// themselves reported.
func ImpactedBy(g *manifest.DependencyGraph, changed []string, depth int) []string {
	if g == nil || depth <= 0 || len(changed) == 0 {
		return nil
	}

	importers := make(map[string][]string)
	for _, e := range g.Edges {
		importers[e.To] = append(importers[e.To], e.From)
	}

	changedSet := make(map[string]bool, len(changed))
	for _, p := range changed {
		changedSet[p] = true
	}

	impacted := make(map[string]bool)
	frontier := changed
	for hop := 0; hop < depth && len(frontier) > 0; hop++ {
		var next []string
		for _, p := range frontier {
			for _, importer := range importers[p] {
				if changedSet[importer] || impacted[importer] {
					continue
				}
				impacted[importer] = true
				next = append(next, importer)
			}
		}
		frontier = next
	}

	out := make([]string, 0, len(impacted))
	for p := range impacted {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func appendUnique(list []string, s string) []string {
	if s == "" {
		return list
	}
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
