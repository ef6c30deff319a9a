package pipeline

import (
	"context"
	"time"

	"github.com/sells-group/filings-cli/internal/model"
)

// Feed is the exchange disclosure feed. Implementations own the session,
// cookies and throttling.
type Feed interface {
	// Announcements returns every filing for symbol in [from, to].
	Announcements(ctx context.Context, symbol string, from, to time.Time) ([]model.Filing, error)
	// EquityQuote returns the quote payload. An empty map means the symbol is unknown.
	EquityQuote(ctx context.Context, symbol string) (map[string]any, error)
	// CompanyMeta returns the exchange's metadata record for symbol.
	CompanyMeta(ctx context.Context, symbol string) (*model.CompanyMeta, error)
	// AnnualReports returns annual report documents grouped by the feed's keys.
	AnnualReports(ctx context.Context, symbol string) (model.AnnualReports, error)
	// Get issues a GET against an API path and returns the raw JSON body.
	Get(ctx context.Context, path string, params map[string]string) ([]byte, error)
	// DownloadDocument saves url into dir and returns the written path.
	DownloadDocument(ctx context.Context, url, dir string) (string, error)
	// DownloadAndExtract saves url into dir, expanding ZIP archives, and
	// returns the paths that landed.
	DownloadAndExtract(ctx context.Context, url, dir string) ([]string, error)
}

// CreditRatingSource is the preferred credit-rating source. It writes
// documents into dir and returns how many it saved. Zero, with or without
// an error, sends the run to the feed's own credit-rating filings.
type CreditRatingSource interface {
	CreditRatings(ctx context.Context, symbol, dir string) (int, error)
}
