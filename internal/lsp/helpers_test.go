package lsp

import (
	"io"
	"log/slog"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newPipe() (io.ReadCloser, io.WriteCloser) {
	r, w := io.Pipe()
	return r, w
}
