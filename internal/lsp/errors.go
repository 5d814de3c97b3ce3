package lsp

import (
	"strconv"

	"github.com/codeintel/engine/internal/cerrors"
)

// Error taxonomy (spec §4.6, "Error taxonomy").

func newInitializationError(err error) *cerrors.CodeError {
	return cerrors.New(cerrors.ErrCodeLSPUnavailable, "language server initialization failed", err)
}

func newCommunicationError(err error) *cerrors.CodeError {
	return cerrors.New(cerrors.ErrCodeLSPUnavailable, "language server communication failed", err)
}

func newTimeoutError(method string) *cerrors.CodeError {
	return cerrors.New(cerrors.ErrCodeLSPTimeout, "language server request timed out: "+method, nil)
}

func newCrashedError(exitCode int) *cerrors.CodeError {
	return cerrors.New(cerrors.ErrCodeLSPCrashed, "language server process exited", nil).
		WithDetail("exit_code", strconv.Itoa(exitCode))
}
