// Package batch implements the durable Redis Streams batch-indexing
// pipeline (spec §4.9): a producer enqueues file batches onto a
// per-repository stream, a consumer-group worker dispatches each batch to
// an isolated subprocess, and unacknowledged batches are reclaimed and
// retried. Grounded on
// original_source/api/services/batch_indexing_consumer.py.
package batch

import (
	"fmt"
	"time"
)

// ConsumerGroup is the single consumer group every worker joins so
// batches are load-balanced and reclaimable across worker restarts.
const ConsumerGroup = "indexing-workers"

// Stream tuning constants (spec §4.9; grounded on
// batch_indexing_consumer.py's class constants).
const (
	ReadBlock           = 5 * time.Second
	ReadCount           = 1
	MaxRetryAttempts    = 3
	PendingCheckInterval = 60 * time.Second
)

// StreamKey builds the `indexing:jobs:{repository}` stream key.
func StreamKey(repository string) string {
	return fmt.Sprintf("indexing:jobs:%s", repository)
}

// StatusKey builds the `indexing:status:{repository}` status hash key.
func StatusKey(repository string) string {
	return fmt.Sprintf("indexing:status:%s", repository)
}
