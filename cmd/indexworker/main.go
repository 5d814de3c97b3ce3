// Command indexworker is the subprocess isolation unit for one batch of
// a repository's indexing run (spec §4.9, §6 "worker contract"):
//
//	indexworker --repository <name> --db-url <url> --files <comma-separated paths>
//
// It reads every listed file off disk, chunks, enriches, embeds, and
// stores it, then prints a single JSON object to stdout —
// {"success_count": N, "error_count": M} — and exits. internal/batch's
// ExecRunner is the caller this contract is written for; exiting the
// process after one batch is what reclaims the embedding models'
// memory between batches (spec §4.9).
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/codeintel/engine/internal/cache"
	"github.com/codeintel/engine/internal/chunk"
	"github.com/codeintel/engine/internal/embed"
	"github.com/codeintel/engine/internal/index"
	"github.com/codeintel/engine/internal/metadata"
	"github.com/codeintel/engine/internal/store"
)

func main() {
	var (
		repository string
		dbURL      string
		filesFlag  string
	)
	flag.StringVar(&repository, "repository", "", "repository name")
	flag.StringVar(&dbURL, "db-url", "", "Postgres connection string")
	flag.StringVar(&filesFlag, "files", "", "comma-separated file paths")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if repository == "" || dbURL == "" || filesFlag == "" {
		fmt.Fprintln(os.Stderr, "indexworker: --repository, --db-url, and --files are required")
		os.Exit(2)
	}
	files := strings.Split(filesFlag, ",")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	result, err := run(ctx, log, repository, dbURL, files)
	if err != nil {
		log.Error("indexworker failed", slog.String("error", err.Error()))
		// Still print a result so the consumer's JSON parse doesn't choke,
		// attributing every file to the batch-level failure.
		printResult(0, len(files))
		os.Exit(1)
	}
	printResult(result.SuccessCount, result.ErrorCount)
}

func run(ctx context.Context, log *slog.Logger, repository, dbURL string, files []string) (index.Result, error) {
	pool, err := store.NewPool(ctx, dbURL)
	if err != nil {
		return index.Result{}, fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	if err := store.Migrate(ctx, pool); err != nil {
		return index.Result{}, fmt.Errorf("migrate schema: %w", err)
	}
	if err := store.EnsureRepository(ctx, pool, repository, ""); err != nil {
		return index.Result{}, fmt.Errorf("ensure repository: %w", err)
	}

	chunker := chunk.NewASTChunker()
	chunker.SetEnricher(metadata.NewService())

	embedder := embed.NewDualService(embed.DualServiceConfig{
		Mock: os.Getenv("INDEXWORKER_MOCK_EMBEDDINGS") != "",
		TextModel: embed.OllamaConfig{
			Host:  envOr("INDEXWORKER_TEXT_MODEL_HOST", embed.DefaultOllamaHost),
			Model: envOr("INDEXWORKER_TEXT_MODEL", embed.DefaultOllamaModel),
		},
		CodeModel: embed.OllamaConfig{
			Host:  envOr("INDEXWORKER_CODE_MODEL_HOST", embed.DefaultOllamaHost),
			Model: envOr("INDEXWORKER_CODE_MODEL", "qwen3-embedding:0.6b"),
		},
	})
	defer embedder.Close()

	l1 := cache.NewL1(cache.DefaultL1CapBytes)
	cascade := cache.NewCascade(l1, nil)

	chunks := store.NewChunkStore(pool, log)
	pipeline := index.NewPipeline(chunker, embedder, cascade, chunks, log)

	result := pipeline.IndexFiles(ctx, repository, files)
	return result, nil
}

func printResult(success, errs int) {
	_ = json.NewEncoder(os.Stdout).Encode(struct {
		SuccessCount int `json:"success_count"`
		ErrorCount   int `json:"error_count"`
	}{SuccessCount: success, ErrorCount: errs})
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
