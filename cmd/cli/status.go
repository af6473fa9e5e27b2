package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/repolens/repolens/internal/manifest"
)

func statusCmd() *cobra.Command {
	var repoPath string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show sync state and manifest summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := setup(repoPath, "")
			if err != nil {
				return err
			}

			state, err := manifest.LoadSyncState(s.statePath())
			if err != nil {
				return fmt.Errorf("failed to load sync state: %w", err)
			}
			if state == nil {
				fmt.Println("ℹ️  Never synced (run 'repolens analyze' or 'repolens sync')")
				return nil
			}

			fmt.Printf("🕐 Last synced: %s\n", state.LastSyncedAt.Format("2006-01-02 15:04:05 MST"))
			fmt.Printf("📌 Commit:      %s\n", short(state.LastCommitSHA))
			fmt.Printf("📄 Manifest:    %s (%d modules)\n", state.ManifestPath, state.TotalPages)

			if s.repo != nil {
				sha, branch, err := s.repo.Head()
				if err == nil {
					if sha == state.LastCommitSHA {
						fmt.Printf("✅ Up to date with %s\n", branch)
					} else {
						fmt.Printf("🔄 Behind HEAD (%s at %s), run 'repolens sync'\n", branch, short(sha))
					}
				}
			}

			m, err := manifest.Load(s.manifestPath())
			if err != nil {
				fmt.Println("⚠️  Manifest missing or unreadable")
				return nil
			}
			fmt.Printf("\nModules: %d, Symbols: %d, Graph edges: %d, Cached summaries: %d\n",
				m.Stats.TotalModules, m.Stats.TotalSymbols, len(m.Graph.Edges), len(m.SummaryCache))
			return nil
		},
	}

	cmd.Flags().StringVarP(&repoPath, "path", "p", ".", "Path to repository")

	return cmd
}
