package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRepositoryName_AcceptsAlphaNumericDotsDashesUnderscores(t *testing.T) {
	assert.NoError(t, ValidateRepositoryName("my-repo_v2.0"))
}

func TestValidateRepositoryName_RejectsSlashes(t *testing.T) {
	require.Error(t, ValidateRepositoryName("org/repo"))
}

func TestValidateRepositoryName_RejectsEmpty(t *testing.T) {
	require.Error(t, ValidateRepositoryName(""))
}

func TestValidatePath_RejectsAbsolutePath(t *testing.T) {
	err := ValidatePath("/etc/passwd")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "traversal")
}

func TestValidatePath_RejectsDotDotSegment(t *testing.T) {
	err := ValidatePath("../../etc/passwd")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "traversal")
}

func TestValidatePath_RejectsDotDotInMiddleOfPath(t *testing.T) {
	err := ValidatePath("src/../../etc/passwd")

	require.Error(t, err)
}

func TestValidatePath_RejectsNullByte(t *testing.T) {
	err := ValidatePath("src/file\x00.py")

	require.Error(t, err)
}

func TestValidatePath_AcceptsOrdinaryRelativePath(t *testing.T) {
	assert.NoError(t, ValidatePath("src/services/user_service.py"))
}

func TestIsLockFile_RecognizesCommonLockFiles(t *testing.T) {
	for _, path := range []string{
		"package-lock.json", "yarn.lock", "poetry.lock", "go.sum",
		"sub/dir/package-lock.json",
	} {
		assert.True(t, IsLockFile(path), path)
	}
}

func TestIsLockFile_OrdinarySourceFileIsNotALockFile(t *testing.T) {
	assert.False(t, IsLockFile("src/main.go"))
}

func TestIsBinaryContent_NullByteIsBinary(t *testing.T) {
	assert.True(t, IsBinaryContent([]byte("hello\x00world")))
}

func TestIsBinaryContent_PlainTextIsNotBinary(t *testing.T) {
	assert.False(t, IsBinaryContent([]byte("def foo():\n    return 1\n")))
}

func TestIsBinaryContent_EmptyContentIsNotBinary(t *testing.T) {
	assert.False(t, IsBinaryContent(nil))
}

func TestIsBinaryContent_MostlyNonPrintableIsBinary(t *testing.T) {
	sample := strings.Repeat("\x01\x02\x03\x04", 100)
	assert.True(t, IsBinaryContent([]byte(sample)))
}

func TestIsBinaryContent_OnlyInspectsFirst8KB(t *testing.T) {
	text := strings.Repeat("a", binarySampleSize) + strings.Repeat("\x01", binarySampleSize*2)
	assert.False(t, IsBinaryContent([]byte(text)))
}
