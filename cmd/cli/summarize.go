package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/repolens/repolens/internal/config"
	"github.com/repolens/repolens/internal/manifest"
	"github.com/repolens/repolens/internal/summarizer"
)

func summarizeCmd() *cobra.Command {
	var (
		repoPath string
		provider string
	)

	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Generate AI summaries for an existing manifest",
		Long: `Loads the manifest written by analyze or sync and populates module and
symbol summaries using the configured AI provider. Unchanged files are
served from the persisted summary cache without a network call.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			s, err := setup(repoPath, "")
			if err != nil {
				return err
			}
			s.project.Merge(&config.ProjectConfig{
				AI: config.ProjectAIConfig{Provider: provider},
			})
			if !s.project.AI.Enabled {
				fmt.Println("ℹ️  AI summarization is disabled in the project config, nothing to do")
				return nil
			}
			if provider != "" || s.cfg.AI.Provider == "" {
				s.cfg.AI.Provider = s.project.AI.Provider
			}
			if !s.project.AI.SymbolSummaries {
				s.cfg.AI.SymbolSummaries = false
			}

			m, err := manifest.Load(s.manifestPath())
			if err != nil {
				return fmt.Errorf("failed to load manifest (run 'repolens analyze' first): %w", err)
			}

			p, err := summarizer.NewProvider(s.cfg.AI)
			if err != nil {
				return err
			}
			if p == nil {
				fmt.Println("ℹ️  No AI provider configured, nothing to do")
				return nil
			}

			readFile := func(path string) ([]byte, error) {
				return os.ReadFile(filepath.Join(s.root, filepath.FromSlash(path)))
			}
			orch := summarizer.NewOrchestrator(p, s.cfg.AI, readFile, m.SummaryCache)

			result, err := orch.Run(ctx, m)
			if err != nil {
				return fmt.Errorf("summarization failed: %w", err)
			}

			if err := manifest.Save(s.manifestPath(), m); err != nil {
				return fmt.Errorf("failed to save manifest: %w", err)
			}

			fmt.Printf("✨ Summaries: %d generated, %d cached, %d failed\n",
				result.Generated, result.Cached, result.Failed)
			if result.FirstError != "" {
				fmt.Printf("⚠️  First error: %s\n", result.FirstError)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&repoPath, "path", "p", ".", "Path to repository")
	cmd.Flags().StringVar(&provider, "provider", "", "AI provider (anthropic, openai, ollama)")

	return cmd
}
