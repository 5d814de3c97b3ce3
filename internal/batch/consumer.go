package batch

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/codeintel/engine/internal/cerrors"
)

// GraphTrigger builds the cross-reference graph for a repository once
// every batch has been acknowledged. Left unwired (nil) it is simply
// skipped — graph construction is supplementary to indexing, matching
// batch_indexing_consumer.py's _trigger_graph_construction, which logs
// and still marks the run completed on failure.
type GraphTrigger interface {
	TriggerGraphConstruction(ctx context.Context, repository string) error
}

// statusUpdater is the subset of StatusStore the consumer depends on,
// narrowed so tests can exercise batch-outcome logic without a real
// Redis connection.
type statusUpdater interface {
	Update(ctx context.Context, repository string, upd StatusUpdate) error
	Get(ctx context.Context, repository string) (Status, error)
}

// Consumer reads a repository's batch stream under a shared consumer
// group and dispatches each batch to a SubprocessRunner (spec §4.9;
// grounded on batch_indexing_consumer.py's BatchIndexingConsumer).
type Consumer struct {
	client       *redis.Client
	status       statusUpdater
	runner       SubprocessRunner
	graph        GraphTrigger
	consumerName string
	log          *slog.Logger
}

// NewConsumer builds a Consumer. consumerName should be unique per
// worker process (the original's CONSUMER_NAME is a TODO'd constant;
// this port requires the caller to supply one, e.g. a pod name).
func NewConsumer(client *redis.Client, runner SubprocessRunner, graph GraphTrigger, consumerName string, log *slog.Logger) *Consumer {
	if log == nil {
		log = slog.Default()
	}
	return &Consumer{
		client:       client,
		status:       NewStatusStore(client),
		runner:       runner,
		graph:        graph,
		consumerName: consumerName,
		log:          log,
	}
}

func (c *Consumer) ensureConsumerGroup(ctx context.Context, stream string) error {
	err := c.client.XGroupCreateMkStream(ctx, stream, ConsumerGroup, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

// ProcessRepository runs the main consumer loop until the stream is
// drained or stop is closed, then triggers graph construction if no
// batches are left pending (spec §4.9, §8 scenario 7).
func (c *Consumer) ProcessRepository(ctx context.Context, repository string, stop <-chan struct{}) (Status, error) {
	stream := StreamKey(repository)

	if err := c.ensureConsumerGroup(ctx, stream); err != nil {
		return Status{}, err
	}
	_ = c.status.Update(ctx, repository, StatusUpdate{State: StatusProcessing})

	lastPendingCheck := time.Now()
	stoppedEarly := false

loop:
	for {
		select {
		case <-stop:
			stoppedEarly = true
			break loop
		default:
		}

		if time.Since(lastPendingCheck) >= PendingCheckInterval {
			c.retryAllPending(ctx, stream, repository)
			lastPendingCheck = time.Now()
		}

		messages, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    ConsumerGroup,
			Consumer: c.consumerName,
			Streams:  []string{stream, ">"},
			Count:    ReadCount,
			Block:    ReadBlock,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				break loop
			}
			if err := c.ensureConsumerGroup(ctx, stream); err != nil {
				return Status{}, err
			}
			continue
		}
		if len(messages) == 0 || len(messages[0].Messages) == 0 {
			break loop
		}

		msg := messages[0].Messages[0]
		batchNumber, _ := msg.Values["batch_number"].(string)
		filesStr, _ := msg.Values["files"].(string)
		files := strings.Split(filesStr, ",")

		_ = c.status.Update(ctx, repository, StatusUpdate{CurrentBatch: batchNumber})

		if stopErr := c.runBatch(ctx, repository, files); stopErr != nil {
			return Status{}, stopErr
		}

		c.client.XAck(ctx, stream, ConsumerGroup, msg.ID)
	}

	c.retryAllPending(ctx, stream, repository)
	status, err := c.status.Get(ctx, repository)
	if err != nil {
		return Status{}, err
	}

	if !stoppedEarly && c.graph != nil {
		pending, _ := c.checkPendingMessages(ctx, stream)
		if len(pending) == 0 {
			if err := c.graph.TriggerGraphConstruction(ctx, repository); err != nil {
				c.log.Error("graph construction failed", slog.String("repository", repository), slog.String("error", err.Error()))
			}
			_ = c.status.Update(ctx, repository, StatusUpdate{State: StatusCompleted, CompletedAt: nowRFC3339()})
			status, err = c.status.Get(ctx, repository)
			if err != nil {
				return Status{}, err
			}
		}
	}

	return status, nil
}

// runBatch dispatches one batch and records the outcome. It returns a
// non-nil error only when the failure is severe enough that the
// consumer should stop pulling new work entirely (spec §4.9 "critical
// error" / cerrors.ShouldStopConsumer).
func (c *Consumer) runBatch(ctx context.Context, repository string, files []string) error {
	result, err := c.runner.Run(ctx, repository, files)
	if err != nil {
		classified := classifyError(err)
		_ = c.status.Update(ctx, repository, StatusUpdate{FailedFilesDelta: len(files)})
		if cerrors.ShouldStopConsumer(classified.Code) {
			return classified
		}
		return nil
	}

	return c.status.Update(ctx, repository, StatusUpdate{
		ProcessedFilesDelta: result.SuccessCount,
		FailedFilesDelta:    result.ErrorCount,
	})
}

type pendingMessage struct {
	id           string
	consumer     string
	idleDuration time.Duration
	deliveries   int64
}

func (c *Consumer) checkPendingMessages(ctx context.Context, stream string) ([]pendingMessage, error) {
	entries, err := c.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: stream,
		Group:  ConsumerGroup,
		Start:  "-",
		End:    "+",
		Count:  10,
	}).Result()
	if err != nil {
		return nil, nil //nolint:nilerr // no pending messages or group missing; degrade to empty (spec §4.9)
	}

	var out []pendingMessage
	for _, e := range entries {
		if e.Idle >= PendingCheckInterval {
			out = append(out, pendingMessage{id: e.ID, consumer: e.Consumer, idleDuration: e.Idle, deliveries: e.RetryCount})
		}
	}
	return out, nil
}

func (c *Consumer) retryAllPending(ctx context.Context, stream, repository string) {
	pending, _ := c.checkPendingMessages(ctx, stream)
	for _, msg := range pending {
		c.retryPendingBatch(ctx, stream, msg.id, repository)
	}
}

// retryPendingBatch claims an abandoned message and retries it; a
// non-retryable failure still XACKs the message to avoid an infinite
// retry loop (spec §4.9, grounded on _retry_pending_batch).
func (c *Consumer) retryPendingBatch(ctx context.Context, stream, messageID, repository string) {
	claimed, err := c.client.XClaim(ctx, &redis.XClaimArgs{
		Stream:   stream,
		Group:    ConsumerGroup,
		Consumer: c.consumerName,
		MinIdle:  PendingCheckInterval,
		Messages: []string{messageID},
	}).Result()
	if err != nil || len(claimed) == 0 {
		return
	}

	msg := claimed[0]
	batchNumber, _ := msg.Values["batch_number"].(string)
	filesStr, _ := msg.Values["files"].(string)
	files := strings.Split(filesStr, ",")

	_ = c.status.Update(ctx, repository, StatusUpdate{CurrentBatch: batchNumber, State: StatusProcessing})

	result, err := c.runner.Run(ctx, repository, files)
	if err == nil {
		_ = c.status.Update(ctx, repository, StatusUpdate{
			ProcessedFilesDelta: result.SuccessCount,
			FailedFilesDelta:    result.ErrorCount,
		})
		c.client.XAck(ctx, stream, ConsumerGroup, messageID)
		return
	}

	classified := classifyError(err)
	if cerrors.IsRetryable(classified) {
		return // leave pending for the next retry cycle
	}
	_ = c.status.Update(ctx, repository, StatusUpdate{FailedFilesDelta: len(files)})
	c.client.XAck(ctx, stream, ConsumerGroup, messageID)
}
