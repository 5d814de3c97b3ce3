package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codeintel/engine/internal/store"
)

func newDoctorCmd() *cobra.Command {
	var repository string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check stored chunks and graph edges for consistency violations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd.Context(), repository)
		},
	}
	cmd.Flags().StringVar(&repository, "repository", "", "repository to check (required)")
	_ = cmd.MarkFlagRequired("repository")
	return cmd
}

func runDoctor(ctx context.Context, repository string) error {
	pool, err := store.NewPool(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	result, err := store.CheckConsistency(ctx, pool, repository)
	if err != nil {
		return fmt.Errorf("check consistency: %w", err)
	}

	fmt.Printf("checked %d chunk(s), %d edge(s) in %s\n", result.ChunksChecked, result.EdgesChecked, result.Duration)
	if len(result.Issues) == 0 {
		fmt.Println("no issues found")
		return nil
	}
	for _, issue := range result.Issues {
		fmt.Printf("  [%s] %s: %s\n", issueLabel(issue.Type), issue.ID, issue.Details)
	}
	return fmt.Errorf("%d consistency issue(s) found", len(result.Issues))
}

func issueLabel(t store.InconsistencyType) string {
	switch t {
	case store.InconsistencyBadEmbeddingDimension:
		return "bad-embedding-dimension"
	case store.InconsistencyBadLineRange:
		return "bad-line-range"
	case store.InconsistencyDanglingEdgeEndpoint:
		return "dangling-edge-endpoint"
	default:
		return "unknown"
	}
}
