package batch

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Status is the final snapshot returned once a repository's batch run
// completes or is stopped (spec §4.9).
type Status struct {
	ProcessedFiles int
	FailedFiles    int
	State          string
	CurrentBatch   string
	CompletedAt    string
}

// Status values (spec §4.9, §8 scenario 7).
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusPartial    = "partial"
	StatusFailed     = "failed"
)

// StatusUpdate is a partial update to a repository's status hash.
// ProcessedFilesDelta/FailedFilesDelta are applied via HINCRBY; the
// remaining fields are applied via HSET only when non-empty (spec §4.9,
// grounded on batch_indexing_consumer.py's _update_status).
type StatusUpdate struct {
	ProcessedFilesDelta int
	FailedFilesDelta    int
	CurrentBatch        string
	State                string
	CompletedAt          string
}

// StatusStore persists per-repository progress in a Redis hash.
type StatusStore struct {
	client *redis.Client
}

// NewStatusStore wraps an existing Redis client.
func NewStatusStore(client *redis.Client) *StatusStore {
	return &StatusStore{client: client}
}

// Update applies a partial update, incrementing counters and setting any
// non-empty string fields in a single pipeline.
func (s *StatusStore) Update(ctx context.Context, repository string, upd StatusUpdate) error {
	key := StatusKey(repository)
	pipe := s.client.TxPipeline()

	if upd.ProcessedFilesDelta != 0 {
		pipe.HIncrBy(ctx, key, "processed_files", int64(upd.ProcessedFilesDelta))
	}
	if upd.FailedFilesDelta != 0 {
		pipe.HIncrBy(ctx, key, "failed_files", int64(upd.FailedFilesDelta))
	}

	fields := map[string]any{}
	if upd.CurrentBatch != "" {
		fields["current_batch"] = upd.CurrentBatch
	}
	if upd.State != "" {
		fields["status"] = upd.State
	}
	if upd.CompletedAt != "" {
		fields["completed_at"] = upd.CompletedAt
	}
	if len(fields) > 0 {
		pipe.HSet(ctx, key, fields)
	}

	_, err := pipe.Exec(ctx)
	return err
}

// Get reads the current status snapshot.
func (s *StatusStore) Get(ctx context.Context, repository string) (Status, error) {
	raw, err := s.client.HGetAll(ctx, StatusKey(repository)).Result()
	if err != nil {
		return Status{}, err
	}
	return Status{
		ProcessedFiles: atoiOr(raw["processed_files"], 0),
		FailedFiles:    atoiOr(raw["failed_files"], 0),
		State:          raw["status"],
		CurrentBatch:   raw["current_batch"],
		CompletedAt:    raw["completed_at"],
	}, nil
}

func atoiOr(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

// nowRFC3339 is a seam so tests can stub the completion timestamp
// without relying on wall-clock time.
var nowRFC3339 = func() string { return time.Now().UTC().Format(time.RFC3339) }
