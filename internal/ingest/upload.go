package ingest

import "github.com/codeintel/engine/internal/model"

// ValidationResult is the outcome of validating an upload: the files
// that passed, in original order, plus one error per rejected file.
// It reuses model's upload types directly rather than declaring a
// second, parallel set — model.UploadSession tracks the same request
// through the rest of the pipeline (spec §3 "Upload-progress session").
type ValidationResult struct {
	Accepted []model.UploadFile
	Errors   []model.FileError
	Status   model.UploadStatus
}

// ValidateUpload checks the repository name, then every file
// independently — a rejected file is skipped with a recorded error
// rather than failing the whole upload (spec §8 scenarios 7, 8).
//
// The returned Status is the session's initial status, not yet the
// final one: a request with some rejected files starts as
// UploadPartial, an all-rejected request starts as UploadError, and a
// clean request starts as UploadInitializing so the rest of the
// pipeline (parse/chunk/embed/store/graph) can still run.
func ValidateUpload(req model.UploadRequest) (ValidationResult, error) {
	if err := ValidateRepositoryName(req.Repository); err != nil {
		return ValidationResult{}, err
	}

	result := ValidationResult{}
	for _, f := range req.Files {
		if err := validateFile(f); err != nil {
			result.Errors = append(result.Errors, model.FileError{File: f.Path, Error: err.Error()})
			continue
		}
		result.Accepted = append(result.Accepted, f)
	}

	switch {
	case len(result.Accepted) == 0 && len(result.Errors) > 0:
		result.Status = model.UploadError
	case len(result.Errors) > 0:
		result.Status = model.UploadPartial
	default:
		result.Status = model.UploadInitializing
	}
	return result, nil
}

func validateFile(f model.UploadFile) error {
	if err := ValidatePath(f.Path); err != nil {
		return err
	}
	if IsLockFile(f.Path) {
		return errLockFilePresent(f.Path)
	}
	content := []byte(f.Content)
	if len(content) > MaxFileSize {
		return errFileTooLarge(f.Path, len(content))
	}
	if IsBinaryContent(content) {
		return errBinaryContent(f.Path)
	}
	return nil
}
