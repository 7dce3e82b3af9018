package logging

import (
	"log/slog"
	"os"
)

// New returns the process-wide JSON logger.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}
