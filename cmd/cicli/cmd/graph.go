package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codeintel/engine/internal/graph"
	"github.com/codeintel/engine/internal/model"
	"github.com/codeintel/engine/internal/store"
)

func newGraphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Walk and repair the cross-reference graph",
	}
	cmd.AddCommand(newGraphTraverseCmd())
	cmd.AddCommand(newGraphPathCmd())
	cmd.AddCommand(newGraphBackfillNamesCmd())
	return cmd
}

func newGraphTraverseCmd() *cobra.Command {
	var relation, direction string
	var maxDepth int

	cmd := &cobra.Command{
		Use:   "traverse <node-id>",
		Short: "List every node reachable from a starting node via one relation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraphTraverse(cmd.Context(), args[0], relation, direction, maxDepth)
		},
	}
	cmd.Flags().StringVar(&relation, "relation", string(model.RelationCalls), "relation to traverse (calls|imports|re_exports)")
	cmd.Flags().StringVar(&direction, "direction", string(graph.DirectionOutbound), "traversal direction (outbound|inbound)")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 5, "maximum traversal depth")
	return cmd
}

func runGraphTraverse(ctx context.Context, nodeID, relation, direction string, maxDepth int) error {
	pool, err := store.NewPool(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	svc := graph.NewService(pool, nil, nil)
	results, err := svc.Traverse(ctx, nodeID, graph.Direction(direction), model.RelationKind(relation), maxDepth)
	if err != nil {
		return fmt.Errorf("traverse: %w", err)
	}
	if len(results) == 0 {
		fmt.Println("no reachable nodes")
		return nil
	}
	for _, r := range results {
		fmt.Printf("depth=%d  %-10s %s\n", r.Depth, r.Node.Kind, r.Node.Label)
	}
	return nil
}

func newGraphPathCmd() *cobra.Command {
	var relation string
	var maxDepth int

	cmd := &cobra.Command{
		Use:   "path <source-id> <target-id>",
		Short: "Find the shortest path between two nodes via one relation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraphPath(cmd.Context(), args[0], args[1], relation, maxDepth)
		},
	}
	cmd.Flags().StringVar(&relation, "relation", string(model.RelationCalls), "relation to traverse (calls|imports|re_exports)")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 10, "maximum path length")
	return cmd
}

func runGraphPath(ctx context.Context, source, target, relation string, maxDepth int) error {
	pool, err := store.NewPool(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	svc := graph.NewService(pool, nil, nil)
	paths, err := svc.FindPath(ctx, source, target, model.RelationKind(relation), maxDepth)
	if err != nil {
		return fmt.Errorf("find path: %w", err)
	}
	if len(paths) == 0 {
		fmt.Println("no path found")
		return nil
	}
	shortest := paths[0]
	for i, n := range shortest.Nodes {
		if i > 0 {
			fmt.Print(" -> ")
		}
		fmt.Print(n.Label)
	}
	fmt.Println()
	return nil
}

func newGraphBackfillNamesCmd() *cobra.Command {
	var repository string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "backfill-names",
		Short: "Derive missing qualified names for a repository's chunks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraphBackfillNames(cmd.Context(), repository, dryRun)
		},
	}
	cmd.Flags().StringVar(&repository, "repository", "", "repository to backfill (required)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "compute stats without writing qualified_name back")
	_ = cmd.MarkFlagRequired("repository")
	return cmd
}

func runGraphBackfillNames(ctx context.Context, repository string, dryRun bool) error {
	pool, err := store.NewPool(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	stats, err := store.BackfillQualifiedNames(ctx, pool, repository, dryRun)
	if err != nil {
		return fmt.Errorf("backfill qualified names: %w", err)
	}

	verb := "updated"
	if dryRun {
		verb = "would update"
	}
	fmt.Printf("%s %d/%d chunk(s) across %d file(s)\n", verb, stats.Updated, stats.TotalChunks, stats.UniqueFiles)
	return nil
}
