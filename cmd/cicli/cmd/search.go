package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codeintel/engine/internal/embed"
	"github.com/codeintel/engine/internal/search"
	"github.com/codeintel/engine/internal/store"
)

func newSearchCmd() *cobra.Command {
	var repository string
	var topK int
	var noLexical, noVector, rerank bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run a hybrid lexical+vector search over an indexed repository",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runSearch(cmd.Context(), query, repository, topK, !noLexical, !noVector, rerank)
		},
	}
	cmd.Flags().StringVar(&repository, "repository", "", "repository to search (required)")
	cmd.Flags().IntVarP(&topK, "limit", "n", search.DefaultTopK, "maximum number of results")
	cmd.Flags().BoolVar(&noLexical, "no-lexical", false, "disable the lexical (trigram) pass")
	cmd.Flags().BoolVar(&noVector, "no-vector", false, "disable the vector (embedding) pass")
	cmd.Flags().BoolVar(&rerank, "rerank", false, "rerank the fused candidate pool")
	_ = cmd.MarkFlagRequired("repository")
	return cmd
}

func runSearch(ctx context.Context, query, repository string, topK int, enableLexical, enableVector, rerank bool) error {
	pool, err := store.NewPool(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	chunks := store.NewChunkStore(pool, nil)

	embedder := embed.NewDualService(embed.DualServiceConfig{
		Mock: os.Getenv("CICLI_MOCK_EMBEDDINGS") != "",
	})
	defer func() { _ = embedder.Close() }()

	opts := search.Options{
		Repository:    repository,
		TopK:          topK,
		EnableLexical: enableLexical,
		EnableVector:  enableVector,
		Rerank:        rerank,
	}
	if enableVector {
		result, err := embedder.GenerateEmbedding(ctx, query, embed.DomainHybrid)
		if err != nil {
			return fmt.Errorf("embed query: %w", err)
		}
		opts.EmbeddingText = result.Text
		opts.EmbeddingCode = result.Code
	}

	engine := search.NewEngine(chunks, chunks, chunks, nil, &search.NoOpReranker{}, nil)
	resp, err := engine.Search(ctx, query, opts)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	if len(resp.Results) == 0 {
		fmt.Println("no results")
		return nil
	}
	for _, r := range resp.Results {
		fmt.Printf("%2d. %-60s score=%.4f  %s:%d-%d\n", r.Rank, r.Chunk.QualifiedName, r.Score, r.Chunk.FilePath, r.Chunk.StartLine, r.Chunk.EndLine)
	}
	return nil
}
