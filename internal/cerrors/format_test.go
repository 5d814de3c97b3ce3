package cerrors

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatForUser_BasicError(t *testing.T) {
	err := New(ErrCodeLockFilePresent, "package-lock.json found in upload", nil)

	result := FormatForUser(err, false)

	assert.Contains(t, result, "package-lock.json found in upload")
	assert.Contains(t, result, "[ERR_103_LOCK_FILE_PRESENT]")
}

func TestFormatForUser_WithSuggestion(t *testing.T) {
	err := New(ErrCodeEmbeddingUnavailable, "embedding server is not running", nil).
		WithSuggestion("check embed.base_url in config and retry")

	result := FormatForUser(err, false)

	assert.Contains(t, result, "Suggestion:")
	assert.Contains(t, result, "embed.base_url")
}

func TestFormatForUser_StandardError(t *testing.T) {
	err := errors.New("something went wrong")

	result := FormatForUser(err, false)

	assert.Contains(t, result, "something went wrong")
}

func TestFormatForUser_NilError(t *testing.T) {
	assert.Empty(t, FormatForUser(nil, false))
}

func TestFormatJSON_BasicError(t *testing.T) {
	err := New(ErrCodePathTraversal, "path escapes repository root", nil).
		WithDetail("path", "../../etc/passwd").
		WithSuggestion("strip leading '../' segments before upload")

	data, jsonErr := FormatJSON(err)
	require.NoError(t, jsonErr)

	var result map[string]any
	require.NoError(t, json.Unmarshal(data, &result))

	assert.Equal(t, ErrCodePathTraversal, result["code"])
	assert.Equal(t, "path escapes repository root", result["message"])
	assert.Equal(t, string(CategoryValidation), result["category"])
	assert.Equal(t, string(SeverityError), result["severity"])
	assert.Equal(t, "strip leading '../' segments before upload", result["suggestion"])

	details, ok := result["details"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "../../etc/passwd", details["path"])
}

func TestFormatJSON_StandardError(t *testing.T) {
	err := errors.New("generic error")

	data, jsonErr := FormatJSON(err)
	require.NoError(t, jsonErr)

	var result map[string]any
	require.NoError(t, json.Unmarshal(data, &result))

	assert.Equal(t, ErrCodeInternal, result["code"])
	assert.Equal(t, "generic error", result["message"])
}

func TestFormatJSON_NilError(t *testing.T) {
	data, err := FormatJSON(nil)

	assert.NoError(t, err)
	assert.Equal(t, "null", strings.TrimSpace(string(data)))
}

func TestFormatJSON_WithCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := New(ErrCodeDBUnavailable, "could not reach postgres", cause)

	data, jsonErr := FormatJSON(err)
	require.NoError(t, jsonErr)

	var result map[string]any
	require.NoError(t, json.Unmarshal(data, &result))

	assert.Equal(t, "connection refused", result["cause"])
}

func TestFormatForCLI_BasicError(t *testing.T) {
	err := New(ErrCodeSubprocessOOM, "indexworker subprocess killed (OOM)", nil).
		WithSuggestion("lower batch.max_concurrency or raise the memory limit")

	result := FormatForCLI(err)

	assert.Contains(t, result, "indexworker subprocess killed (OOM)")
	assert.Contains(t, result, "ERR_703_SUBPROCESS_OOM")
}

func TestFormatForCLI_ShortFormat(t *testing.T) {
	err := New(ErrCodeLockFilePresent, "lock file present", nil)

	result := FormatForCLI(err)

	lines := strings.Split(strings.TrimSpace(result), "\n")
	assert.LessOrEqual(t, len(lines), 5, "should be concise")
}

func TestFormatForLog_BasicError(t *testing.T) {
	err := New(ErrCodeParseFailed, "parse failed", nil).WithDetail("path", "main.go")

	fields := FormatForLog(err)

	assert.Equal(t, ErrCodeParseFailed, fields["error_code"])
	assert.Equal(t, "main.go", fields["detail_path"])
}

func TestFormatForLog_NilError(t *testing.T) {
	assert.Nil(t, FormatForLog(nil))
}

func TestFormatForLog_StandardError(t *testing.T) {
	fields := FormatForLog(errors.New("plain"))
	assert.Equal(t, "plain", fields["error"])
}
