package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/repolens/repolens/internal/manifest"
)

func analyzeCmd() *cobra.Command {
	var (
		repoPath   string
		outputFile string
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a repository and write a manifest",
		Long: `Runs a full analysis: discovers files, parses each one into symbols,
imports and exports, resolves the dependency graph, and writes the
manifest JSON. A previous manifest at the same path speeds this up via
content-hash reuse.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			s, err := setup(repoPath, outputFile)
			if err != nil {
				return err
			}

			result, err := s.engine.Sync(ctx, true)
			if err != nil {
				return fmt.Errorf("analysis failed: %w", err)
			}
			m := result.Manifest

			fmt.Printf("📄 Manifest: %s\n", s.manifestPath())
			if m.Repo != "" {
				fmt.Printf("📦 Repository: %s", m.Repo)
				if m.Branch != "" {
					fmt.Printf(" (%s)", m.Branch)
				}
				fmt.Println()
			}
			fmt.Printf("🔍 Modules: %d, Symbols: %d, Lines: %d\n",
				m.Stats.TotalModules, m.Stats.TotalSymbols, m.Stats.TotalLines)
			fmt.Printf("🕸️  Graph: %d nodes, %d edges\n", len(m.Graph.Nodes), len(m.Graph.Edges))
			if m.Stats.SkippedFiles > 0 {
				fmt.Printf("⚠️  Skipped files: %d\n", m.Stats.SkippedFiles)
			}

			printLanguages(m)
			return nil
		},
	}

	cmd.Flags().StringVarP(&repoPath, "path", "p", ".", "Path to repository")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Manifest output path (relative to repo root)")

	return cmd
}

func printLanguages(m *manifest.AnalysisManifest) {
	if len(m.Metadata.Languages) == 0 {
		return
	}
	langs := make([]manifest.LanguageStat, len(m.Metadata.Languages))
	copy(langs, m.Metadata.Languages)
	sort.Slice(langs, func(i, j int) bool { return langs[i].Files > langs[j].Files })

	fmt.Println("\nLanguages:")
	for _, l := range langs {
		fmt.Printf("   %-12s %4d files (%.1f%%)\n", l.Language, l.Files, l.Percent)
	}
}
