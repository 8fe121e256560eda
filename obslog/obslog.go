// Package obslog builds the one zerolog.Logger every other component
// receives by constructor injection. There is no package-level logger.
package obslog

import (
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// New builds a logger writing to w at the level named by level
// (debug/info/warn/error, case-insensitive). An unrecognized level falls
// back to info rather than failing startup over a cosmetic flag.
func New(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}
