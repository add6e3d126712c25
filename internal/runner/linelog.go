package runner

import (
	"bytes"
	"log/slog"
)

const maxPendingLine = 64 * 1024

// lineLogger emits captured output at debug level one line at a time.
// Each stream gets its own instance, so no locking is needed.
type lineLogger struct {
	logger  *slog.Logger
	stream  string
	pending []byte
}

func (w *lineLogger) Write(p []byte) (int, error) {
	w.pending = append(w.pending, p...)

	for {
		i := bytes.IndexByte(w.pending, '\n')
		if i < 0 {
			break
		}
		w.emit(w.pending[:i])
		w.pending = w.pending[i+1:]
	}

	if len(w.pending) > maxPendingLine {
		w.emit(w.pending)
		w.pending = nil
	}

	return len(p), nil
}

func (w *lineLogger) emit(line []byte) {
	line = bytes.TrimRight(line, "\r")
	if len(line) == 0 {
		return
	}
	w.logger.Debug("Process output",
		slog.String("stream", w.stream),
		slog.String("line", string(line)),
	)
}
