package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/codeintel/engine/internal/batch"
	"github.com/codeintel/engine/internal/ingest"
	"github.com/codeintel/engine/internal/model"
	"github.com/codeintel/engine/internal/scanner"
	"github.com/codeintel/engine/internal/store"
)

func newIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Upload and enqueue a repository for indexing",
	}
	cmd.AddCommand(newIndexUploadCmd())
	return cmd
}

func newIndexUploadCmd() *cobra.Command {
	var repository string
	var batchSize int

	cmd := &cobra.Command{
		Use:   "upload <path>",
		Short: "Scan a directory, validate its files, and enqueue them for indexing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndexUpload(cmd.Context(), args[0], repository, batchSize)
		},
	}
	cmd.Flags().StringVar(&repository, "repository", "", "repository name (defaults to the directory's base name)")
	cmd.Flags().IntVar(&batchSize, "batch-size", batch.DefaultBatchSize, "files per indexing batch")
	return cmd
}

func runIndexUpload(ctx context.Context, root, repository string, batchSize int) error {
	root, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	if repository == "" {
		repository = filepath.Base(root)
	}

	sc, err := scanner.New()
	if err != nil {
		return fmt.Errorf("build scanner: %w", err)
	}

	results, err := sc.Scan(ctx, &scanner.ScanOptions{RootDir: root, RespectGitignore: true})
	if err != nil {
		return fmt.Errorf("scan %s: %w", root, err)
	}

	var files []model.UploadFile
	for r := range results {
		if r.Error != nil || r.File == nil {
			continue
		}
		content, err := os.ReadFile(r.File.AbsPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "cicli: skipping %s: %v\n", r.File.Path, err)
			continue
		}
		files = append(files, model.UploadFile{
			Path:     r.File.AbsPath,
			Content:  string(content),
			Language: r.File.Language,
		})
	}

	result, err := ingest.ValidateUpload(model.UploadRequest{Repository: repository, Files: files})
	if err != nil {
		return fmt.Errorf("validate upload: %w", err)
	}
	for _, fe := range result.Errors {
		fmt.Fprintf(os.Stderr, "cicli: rejected %s: %s\n", fe.File, fe.Error)
	}
	if len(result.Accepted) == 0 {
		return fmt.Errorf("no files accepted for indexing")
	}

	pool, err := store.NewPool(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()
	if err := store.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	if err := store.EnsureRepository(ctx, pool, repository, root); err != nil {
		return fmt.Errorf("ensure repository: %w", err)
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	defer client.Close()

	paths := make([]string, len(result.Accepted))
	for i, f := range result.Accepted {
		paths[i] = f.Path
	}

	n, err := batch.EnqueueBatches(ctx, client, repository, paths, batchSize)
	if err != nil {
		return fmt.Errorf("enqueue batches: %w", err)
	}

	fmt.Printf("enqueued %d file(s) across %d batch(es) for repository %q\n", len(paths), n, repository)
	return nil
}
