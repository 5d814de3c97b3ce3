package batch

import (
	"io"
	"log/slog"
)

func discardLoggerBatch() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
