package batch

import (
	"strings"

	"github.com/codeintel/engine/internal/cerrors"
)

// classifyError maps a raw subprocess/runtime failure to the error
// taxonomy's subprocess/database codes by substring match on the error
// text (spec §4.9 "error classification"; grounded on
// batch_indexing_consumer.py's _classify_error, which does the same
// string-based dispatch against the Python exception message).
func classifyError(err error) *cerrors.CodeError {
	if err == nil {
		return nil
	}
	if ce, ok := err.(*cerrors.CodeError); ok {
		return ce
	}

	text := strings.ToLower(err.Error())
	switch {
	case strings.Contains(text, "timeout"):
		return cerrors.New(cerrors.ErrCodeSubprocessTimeout, err.Error(), err)
	case strings.Contains(text, "connection"), strings.Contains(text, "database"):
		return cerrors.New(cerrors.ErrCodeDBUnavailable, err.Error(), err)
	case strings.Contains(text, "memory"), strings.Contains(text, "oom"):
		return cerrors.New(cerrors.ErrCodeSubprocessOOM, err.Error(), err)
	case strings.Contains(text, "subprocess"), strings.Contains(text, "process"):
		return cerrors.New(cerrors.ErrCodeSubprocessCrash, err.Error(), err)
	default:
		return cerrors.New(cerrors.ErrCodeInternal, err.Error(), err)
	}
}
