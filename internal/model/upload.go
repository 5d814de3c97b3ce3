package model

import "time"

// UploadStatus is the terminal or in-progress state of an upload session.
type UploadStatus string

const (
	UploadInitializing UploadStatus = "initializing"
	UploadProcessing   UploadStatus = "processing"
	UploadCompleted    UploadStatus = "completed"
	UploadPartial      UploadStatus = "partial"
	UploadError        UploadStatus = "error"
)

// FileError is one entry in an UploadSession's error list (spec §7).
type FileError struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// UploadSession tracks one batch-indexing request end to end (spec §3
// "Upload-progress session").
type UploadSession struct {
	ID          string
	Repository  string
	TotalFiles  int
	Parsed      int
	Chunked     int
	Embedded    int
	Stored      int
	Graphed     int
	CurrentFile string
	Errors      []FileError
	Status      UploadStatus
	CreatedAt   time.Time
	CompletedAt *time.Time
}

// Snapshot is an immutable, JSON-friendly copy of the session for status
// polling responses.
type UploadSnapshot struct {
	UploadID    string      `json:"upload_id"`
	Repository  string      `json:"repository"`
	TotalFiles  int         `json:"total_files"`
	Parsed      int         `json:"parsed"`
	Chunked     int         `json:"chunked"`
	Embedded    int         `json:"embedded"`
	Stored      int         `json:"stored"`
	Graphed     int         `json:"graphed"`
	CurrentFile string      `json:"current_file,omitempty"`
	Errors      []FileError `json:"errors,omitempty"`
	Status      string      `json:"status"`
}

// Snapshot captures the session's current state without holding a lock open
// to the caller (the owning store is responsible for synchronization).
func (s *UploadSession) Snapshot() UploadSnapshot {
	return UploadSnapshot{
		UploadID:    s.ID,
		Repository:  s.Repository,
		TotalFiles:  s.TotalFiles,
		Parsed:      s.Parsed,
		Chunked:     s.Chunked,
		Embedded:    s.Embedded,
		Stored:      s.Stored,
		Graphed:     s.Graphed,
		CurrentFile: s.CurrentFile,
		Errors:      s.Errors,
		Status:      string(s.Status),
	}
}

// StreamMessage is one batch work item on the durable indexing stream
// (spec §3 "Stream message").
type StreamMessage struct {
	ID         string // stream entry id, assigned by the broker
	Repository string
	UploadID   string
	BatchNum   int
	Files      []UploadFile
}

// UploadFile is one file carried by the upload API contract (spec §6).
type UploadFile struct {
	Path     string `json:"path"`
	Content  string `json:"content"`
	Language string `json:"language,omitempty"`
}

// UploadRequest is the input shape for the batch upload contract (spec §6).
// The HTTP transport that accepts this shape is out of scope; internal/ingest
// validates it and internal/batch enqueues it.
type UploadRequest struct {
	Repository         string       `json:"repository"`
	Files              []UploadFile `json:"files"`
	ExtractMetadata    bool         `json:"extract_metadata"`
	GenerateEmbeddings bool         `json:"generate_embeddings"`
	BuildGraph         bool         `json:"build_graph"`
	CommitHash         string       `json:"commit_hash,omitempty"`
}
