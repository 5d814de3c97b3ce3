package ingest

import (
	"fmt"

	"github.com/codeintel/engine/internal/cerrors"
)

func errInvalidUpload(format string, args ...any) *cerrors.CodeError {
	return cerrors.New(cerrors.ErrCodeInvalidUpload, fmt.Sprintf(format, args...), nil)
}

func errPathTraversal(format string, args ...any) *cerrors.CodeError {
	return cerrors.New(cerrors.ErrCodePathTraversal, fmt.Sprintf(format, args...), nil)
}

func errLockFilePresent(path string) *cerrors.CodeError {
	return cerrors.New(cerrors.ErrCodeLockFilePresent, fmt.Sprintf("%q is a lock file", path), nil)
}

func errFileTooLarge(path string, size int) *cerrors.CodeError {
	return cerrors.New(cerrors.ErrCodeFileTooLarge, fmt.Sprintf("%q is %d bytes, exceeds %d byte limit", path, size, MaxFileSize), nil)
}

func errBinaryContent(path string) *cerrors.CodeError {
	return cerrors.New(cerrors.ErrCodeBinaryContent, fmt.Sprintf("%q looks like binary content", path), nil)
}
