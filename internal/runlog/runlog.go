// Package runlog wires slog to the append-only log file every run writes.
// The file is never rotated or truncated.
package runlog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Open returns a logger that tees timestamped records to stderr and the
// append-only log file, plus a closer for the file handle.
func Open(path string) (*slog.Logger, func() error, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open run log %s: %w", path, err)
	}
	handler := slog.NewTextHandler(io.MultiWriter(os.Stderr, f), &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	return slog.New(handler), f.Close, nil
}
