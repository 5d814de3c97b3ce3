// Package ingest implements the upload-validation surface described in
// spec §6: repository name format, path safety, binary-content
// detection, file size limits, and lock-file rejection. The HTTP
// transport that would call into this package is out of scope (spec
// §1); this package is the validation itself.
package ingest

import (
	"path/filepath"
	"regexp"
	"strings"
)

// MaxFileSize rejects any file larger than this (spec §6).
const MaxFileSize = 500 * 1024

// binarySampleSize is how much of a file's head is inspected for
// non-printable bytes (spec §6: "first 8 KB").
const binarySampleSize = 8 * 1024

// nonPrintableThreshold rejects a file once more than this fraction of
// the sample is non-printable (spec §6: "more than 30%").
const nonPrintableThreshold = 0.30

var repositoryNamePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// lockFileNames are rejected regardless of content (spec §6, §8
// scenario 7). Not exhaustive of every ecosystem's lock file, but
// covers the ones spec §6 names plus their closest well-known peers.
var lockFileNames = map[string]bool{
	"package-lock.json": true,
	"yarn.lock":          true,
	"pnpm-lock.yaml":     true,
	"poetry.lock":        true,
	"pipfile.lock":       true,
	"go.sum":             true,
	"cargo.lock":         true,
	"gemfile.lock":       true,
	"composer.lock":      true,
}

// ValidateRepositoryName enforces spec §6's `[A-Za-z0-9._-]+` format.
func ValidateRepositoryName(name string) error {
	if !repositoryNamePattern.MatchString(name) {
		return errInvalidUpload("repository name must match [A-Za-z0-9._-]+, got %q", name)
	}
	return nil
}

// ValidatePath rejects absolute paths, paths containing a ".." segment,
// and paths containing a null byte (spec §6, §8 scenario 8).
func ValidatePath(path string) error {
	if path == "" {
		return errPathTraversal("file path must not be empty")
	}
	if strings.ContainsRune(path, 0) {
		return errPathTraversal("file path %q contains a null byte", path)
	}
	if filepath.IsAbs(path) {
		return errPathTraversal("file path %q is absolute (traversal)", path)
	}
	for _, seg := range strings.Split(filepath.ToSlash(path), "/") {
		if seg == ".." {
			return errPathTraversal("file path %q contains a .. segment (traversal)", path)
		}
	}
	return nil
}

// IsLockFile reports whether path's base name is a recognized
// dependency lock file (spec §6, §8 scenario 7).
func IsLockFile(path string) bool {
	return lockFileNames[strings.ToLower(filepath.Base(path))]
}

// IsBinaryContent reports whether content looks binary: a null byte
// anywhere in the sample, or more than 30% non-printable bytes in the
// first 8 KB (spec §6).
func IsBinaryContent(content []byte) bool {
	sample := content
	if len(sample) > binarySampleSize {
		sample = sample[:binarySampleSize]
	}
	if len(sample) == 0 {
		return false
	}

	nonPrintable := 0
	for _, b := range sample {
		if b == 0 {
			return true
		}
		if !isPrintable(b) {
			nonPrintable++
		}
	}
	return float64(nonPrintable)/float64(len(sample)) > nonPrintableThreshold
}

func isPrintable(b byte) bool {
	if b == '\t' || b == '\n' || b == '\r' {
		return true
	}
	return b >= 0x20 && b < 0x7f
}
