package pipeline

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/filings-cli/internal/resilience"
)

var (
	// ErrInvalidSymbol aborts a run whose symbol the feed cannot quote.
	ErrInvalidSymbol = eris.New("pipeline: invalid symbol")
	// ErrInvalidDestination aborts a run whose folder name fails sanitization.
	ErrInvalidDestination = eris.New("pipeline: invalid destination")
	// ErrSourceUnavailable marks a single document that could not be fetched.
	// It is logged and counted as a miss, never returned from Process.
	ErrSourceUnavailable = eris.New("pipeline: source unavailable")
)

// sourceUnavailable wraps a per-item failure.
func sourceUnavailable(err error, url string) error {
	return eris.Wrapf(ErrSourceUnavailable, "%s: %v", url, err)
}

// logSkip records a per-item failure. The cause keeps its transient
// classification for operators deciding whether a re-run will help.
func logSkip(log *zap.Logger, msg, url string, err error) {
	log.Warn(msg,
		zap.String("url", url),
		zap.String("transient", resilience.Classify(err)),
		zap.Error(sourceUnavailable(err, url)),
	)
}
