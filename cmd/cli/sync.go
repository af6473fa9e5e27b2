package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/repolens/repolens/internal/syncer"
)

func syncCmd() *cobra.Command {
	var (
		repoPath string
		full     bool
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Incrementally update the manifest from the git diff",
		Long: `Diffs the last synced commit against HEAD and re-analyzes only the
changed files, merging them into the previous manifest. Falls back to a
full analysis when no previous sync state exists.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			s, err := setup(repoPath, "")
			if err != nil {
				return err
			}

			result, err := s.engine.Sync(ctx, full)
			if err != nil {
				return fmt.Errorf("sync failed: %w", err)
			}

			printSyncResult(result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&repoPath, "path", "p", ".", "Path to repository")
	cmd.Flags().BoolVar(&full, "full", false, "Force a full re-analysis")

	return cmd
}

func printSyncResult(result *syncer.SyncResult) {
	fmt.Printf("🔄 Sync complete (%s mode) in %s\n", result.Mode, result.Duration.Round(1e6))
	if result.PreviousSHA != "" && result.CurrentSHA != "" {
		fmt.Printf("   %s → %s\n", short(result.PreviousSHA), short(result.CurrentSHA))
	}

	if result.Mode == syncer.ModeIncremental {
		fmt.Printf("   Changed files:    %d\n", len(result.Changes))
		fmt.Printf("   Re-analyzed:      %d\n", result.Reanalyzed)
		fmt.Printf("   Created:          %d\n", result.Created)
		fmt.Printf("   Deleted:          %d\n", result.Deleted)
		if len(result.Impacted) > 0 {
			fmt.Printf("   Impacted modules: %d\n", len(result.Impacted))
			for _, p := range result.Impacted {
				fmt.Printf("      • %s\n", p)
			}
		}
	} else {
		fmt.Printf("   Modules analyzed: %d\n", result.Created)
	}

	if len(result.Skipped) > 0 {
		fmt.Printf("⚠️  Skipped %d unparseable files\n", len(result.Skipped))
	}
}

func short(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}
