package batch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/codeintel/engine/internal/cerrors"
)

// BatchTimeout is the default per-batch subprocess deadline (grounded on
// batch_indexing_consumer.py's 300s default, documented there as "40
// files x 7.5s").
const BatchTimeout = 5 * time.Minute

// BatchResult is the outcome of one subprocess-isolated batch.
type BatchResult struct {
	SuccessCount int
	ErrorCount   int
}

// SubprocessRunner dispatches one batch to an isolated worker process.
// Isolation matters because native embedding models retained across
// batches leak memory; exiting the subprocess forces the OS to reclaim
// it (spec §4.9, grounded on batch_indexing_consumer.py's docstring).
type SubprocessRunner interface {
	Run(ctx context.Context, repository string, files []string) (BatchResult, error)
}

// ExecRunner spawns cmd/indexworker as a subprocess per batch, passing
// the file list and repository on the command line and reading a single
// JSON object off stdout (spec §6 "worker contract").
type ExecRunner struct {
	WorkerPath string
	DBURL      string
	Timeout    time.Duration
}

// NewExecRunner builds a runner invoking the given worker binary path.
func NewExecRunner(workerPath, dbURL string) *ExecRunner {
	return &ExecRunner{WorkerPath: workerPath, DBURL: dbURL, Timeout: BatchTimeout}
}

func (r *ExecRunner) Run(ctx context.Context, repository string, files []string) (BatchResult, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = BatchTimeout
	}
	rctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(rctx, r.WorkerPath,
		"--repository", repository,
		"--db-url", r.DBURL,
		"--files", strings.Join(files, ","),
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	if rctx.Err() != nil {
		return BatchResult{}, cerrors.New(cerrors.ErrCodeSubprocessTimeout,
			fmt.Sprintf("subprocess timeout after %s", timeout), rctx.Err())
	}
	if runErr != nil {
		return BatchResult{}, cerrors.New(cerrors.ErrCodeSubprocessCrash,
			fmt.Sprintf("subprocess failed: %s", firstLine(stderr.String())), runErr)
	}

	return parseBatchResult(stdout.Bytes())
}

// parseBatchResult decodes the single JSON object a batch worker writes
// to stdout (spec §6 "worker contract").
func parseBatchResult(stdout []byte) (BatchResult, error) {
	var parsed struct {
		SuccessCount int `json:"success_count"`
		ErrorCount   int `json:"error_count"`
	}
	if err := json.Unmarshal(stdout, &parsed); err != nil {
		return BatchResult{}, cerrors.New(cerrors.ErrCodeSubprocessCrash,
			"failed to parse subprocess result: "+err.Error(), err)
	}
	return BatchResult{SuccessCount: parsed.SuccessCount, ErrorCount: parsed.ErrorCount}, nil
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	if s == "" {
		return "no error output"
	}
	return s
}
