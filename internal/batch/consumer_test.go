package batch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStatusUpdater struct {
	updates []StatusUpdate
}

func (f *fakeStatusUpdater) Update(_ context.Context, _ string, upd StatusUpdate) error {
	f.updates = append(f.updates, upd)
	return nil
}

func (f *fakeStatusUpdater) Get(_ context.Context, _ string) (Status, error) {
	return Status{}, nil
}

type fakeRunner struct {
	result BatchResult
	err    error
}

func (f *fakeRunner) Run(_ context.Context, _ string, _ []string) (BatchResult, error) {
	return f.result, f.err
}

func newTestConsumer(status *fakeStatusUpdater, runner SubprocessRunner) *Consumer {
	return &Consumer{status: status, runner: runner, log: discardLoggerBatch()}
}

func TestConsumer_RunBatch_RecordsSuccessAndFailureCounts(t *testing.T) {
	status := &fakeStatusUpdater{}
	c := newTestConsumer(status, &fakeRunner{result: BatchResult{SuccessCount: 38, ErrorCount: 2}})

	err := c.runBatch(context.Background(), "repo", make([]string, 40))

	require.NoError(t, err)
	require.Len(t, status.updates, 1)
	assert.Equal(t, 38, status.updates[0].ProcessedFilesDelta)
	assert.Equal(t, 2, status.updates[0].FailedFilesDelta)
}

func TestConsumer_RunBatch_NonCriticalFailureDoesNotStopConsumer(t *testing.T) {
	status := &fakeStatusUpdater{}
	c := newTestConsumer(status, &fakeRunner{err: errors.New("subprocess crashed unexpectedly")})

	err := c.runBatch(context.Background(), "repo", make([]string, 5))

	require.NoError(t, err)
	assert.Equal(t, 5, status.updates[0].FailedFilesDelta)
}

func TestConsumer_RunBatch_CriticalFailureStopsConsumer(t *testing.T) {
	status := &fakeStatusUpdater{}
	c := newTestConsumer(status, &fakeRunner{err: errors.New("database connection lost")})

	err := c.runBatch(context.Background(), "repo", make([]string, 5))

	require.Error(t, err)
}

func TestConsumer_RunBatch_OOMStopsConsumer(t *testing.T) {
	status := &fakeStatusUpdater{}
	c := newTestConsumer(status, &fakeRunner{err: errors.New("process killed: out of memory")})

	err := c.runBatch(context.Background(), "repo", make([]string, 5))

	require.Error(t, err)
}
