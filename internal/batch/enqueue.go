package batch

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// DefaultBatchSize is the number of files dispatched to a single
// subprocess worker (grounded on batch_indexing_consumer.py's docstring
// "40 files x 7.5s = 300s").
const DefaultBatchSize = 40

// EnqueueBatches splits files into batchSize-sized groups (DefaultBatchSize
// when batchSize <= 0) and
// XADDs one stream message per group, numbering batches from 1 (spec
// §4.9 "producer").
func EnqueueBatches(ctx context.Context, client *redis.Client, repository string, files []string, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	stream := StreamKey(repository)
	batches := splitIntoBatches(files, batchSize)

	for i, batch := range batches {
		_, err := client.XAdd(ctx, &redis.XAddArgs{
			Stream: stream,
			Values: map[string]any{
				"batch_number": fmt.Sprintf("%d", i+1),
				"files":        strings.Join(batch, ","),
			},
		}).Result()
		if err != nil {
			return i, err
		}
	}
	return len(batches), nil
}

// splitIntoBatches groups files into batchSize-sized slices, preserving
// order.
func splitIntoBatches(files []string, batchSize int) [][]string {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	var batches [][]string
	for i := 0; i < len(files); i += batchSize {
		end := i + batchSize
		if end > len(files) {
			end = len(files)
		}
		batches = append(batches, files[i:end])
	}
	return batches
}
