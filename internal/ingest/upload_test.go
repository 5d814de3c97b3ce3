package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeintel/engine/internal/model"
)

// TestValidateUpload_LockFileCausesPartialStatus reproduces spec §8
// scenario 7 literally: 3 valid files and 1 package-lock.json ends in
// status "partial" with counters indexed_files=3, failed_files=1, and
// an error mentioning "lock file".
func TestValidateUpload_LockFileCausesPartialStatus(t *testing.T) {
	req := model.UploadRequest{
		Repository: "demo-repo",
		Files: []model.UploadFile{
			{Path: "a.py", Content: "x = 1\n"},
			{Path: "b.py", Content: "y = 2\n"},
			{Path: "c.py", Content: "z = 3\n"},
			{Path: "package-lock.json", Content: `{"lockfileVersion": 2}`},
		},
	}

	result, err := ValidateUpload(req)

	require.NoError(t, err)
	assert.Equal(t, model.UploadPartial, result.Status)
	assert.Len(t, result.Accepted, 3)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, strings.ToLower(result.Errors[0].Error), "lock file")
}

// TestValidateUpload_TraversalPathCausesSkipWithTraversalError reproduces
// spec §8 scenario 8: a file whose path contains ".." or is absolute is
// skipped with an error mentioning "traversal".
func TestValidateUpload_TraversalPathCausesSkipWithTraversalError(t *testing.T) {
	req := model.UploadRequest{
		Repository: "demo-repo",
		Files: []model.UploadFile{
			{Path: "src/main.py", Content: "ok\n"},
			{Path: "../../etc/passwd", Content: "nope\n"},
		},
	}

	result, err := ValidateUpload(req)

	require.NoError(t, err)
	assert.Len(t, result.Accepted, 1)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, strings.ToLower(result.Errors[0].Error), "traversal")
}

func TestValidateUpload_AllFilesValidIsStatusInitializing(t *testing.T) {
	req := model.UploadRequest{
		Repository: "demo-repo",
		Files: []model.UploadFile{
			{Path: "a.py", Content: "x = 1\n"},
		},
	}

	result, err := ValidateUpload(req)

	require.NoError(t, err)
	assert.Equal(t, model.UploadInitializing, result.Status)
	assert.Empty(t, result.Errors)
}

func TestValidateUpload_AllFilesRejectedIsStatusError(t *testing.T) {
	req := model.UploadRequest{
		Repository: "demo-repo",
		Files: []model.UploadFile{
			{Path: "package-lock.json", Content: "{}"},
		},
	}

	result, err := ValidateUpload(req)

	require.NoError(t, err)
	assert.Equal(t, model.UploadError, result.Status)
	assert.Empty(t, result.Accepted)
}

func TestValidateUpload_InvalidRepositoryNameRejectsEntireRequest(t *testing.T) {
	req := model.UploadRequest{Repository: "../escape", Files: []model.UploadFile{{Path: "a.py"}}}

	_, err := ValidateUpload(req)

	require.Error(t, err)
}

func TestValidateUpload_OversizedFileIsRejected(t *testing.T) {
	req := model.UploadRequest{
		Repository: "demo-repo",
		Files: []model.UploadFile{
			{Path: "huge.py", Content: strings.Repeat("x", MaxFileSize+1)},
		},
	}

	result, err := ValidateUpload(req)

	require.NoError(t, err)
	assert.Equal(t, model.UploadError, result.Status)
	assert.Contains(t, result.Errors[0].Error, "exceeds")
}
