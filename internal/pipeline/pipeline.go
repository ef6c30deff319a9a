// Package pipeline classifies exchange filings and drives the per-category
// downloads of one run.
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/filings-cli/internal/fetcher"
	"github.com/sells-group/filings-cli/internal/model"
)

// Request describes one download run.
type Request struct {
	Symbol string
	From   time.Time
	To     time.Time
	// Folder is the run's folder name under the service base dir. It is
	// sanitized and must not contain path separators.
	Folder            string
	Categories        model.CategorySet
	AnnualReportsAll  bool
	SaveAnnouncements bool
}

// Result is the outcome of a run. Filings always holds the full
// announcement list, whichever categories were enabled.
type Result struct {
	RunID     string                `json:"run_id"`
	Symbol    string                `json:"symbol"`
	Directory string                `json:"directory"`
	Filings   []model.Filing        `json:"-"`
	Counts    *model.CategoryCounts `json:"counts"`
}

// Service runs download requests against a feed. A Service handles one
// request at a time.
type Service struct {
	feed      Feed
	ratings   CreditRatingSource
	baseDir   string
	issueDocs []model.IssueDocSpec
}

// Option configures a Service.
type Option func(*Service)

// WithBaseDir sets the directory run folders are created in.
func WithBaseDir(dir string) Option {
	return func(s *Service) { s.baseDir = dir }
}

// WithIssueDocSpecs replaces the built-in issue-document endpoints.
func WithIssueDocSpecs(specs []model.IssueDocSpec) Option {
	return func(s *Service) { s.issueDocs = specs }
}

// New creates a Service. ratings may be nil, in which case credit ratings
// come from the feed alone.
func New(feed Feed, ratings CreditRatingSource, opts ...Option) *Service {
	s := &Service{
		feed:      feed,
		ratings:   ratings,
		baseDir:   ".",
		issueDocs: DefaultIssueDocSpecs(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Process runs one request. Only ErrInvalidDestination and ErrInvalidSymbol
// abort the run; a failed document is logged and left out of the counts,
// and a category that cannot run at all (its folder cannot be created) is
// logged and reported as 0.
// Every enabled category is present in the counts, zero when nothing matched.
func (s *Service) Process(ctx context.Context, req Request) (*Result, error) {
	req.Symbol = strings.ToUpper(strings.TrimSpace(req.Symbol))
	runID := uuid.New().String()
	log := zap.L().With(zap.String("run_id", runID), zap.String("symbol", req.Symbol))

	root, err := DownloadPath(s.baseDir, req.Folder)
	if err != nil {
		log.Error("pipeline: invalid folder name", zap.String("folder", req.Folder), zap.Error(err))
		return nil, err
	}

	if err := s.validateSymbol(ctx, req.Symbol); err != nil {
		log.Error("pipeline: symbol validation failed", zap.Error(err))
		return nil, err
	}

	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, eris.Wrapf(err, "pipeline: create %s", root)
	}

	log.Info("pipeline: starting run",
		zap.String("directory", root),
		zap.Time("from", req.From),
		zap.Time("to", req.To),
	)

	filings, err := s.feed.Announcements(ctx, req.Symbol, req.From, req.To)
	if err != nil {
		log.Error("pipeline: announcements unavailable", zap.Error(err))
		filings = nil
	}
	log.Info("pipeline: announcements fetched", zap.Int("count", len(filings)))

	result := &Result{
		RunID:     runID,
		Symbol:    req.Symbol,
		Directory: root,
		Filings:   filings,
		Counts:    model.NewCategoryCounts(),
	}

	for _, key := range model.AllCategories() {
		if !req.Categories.Enabled(key) {
			continue
		}
		catLog := log.With(zap.String("category", string(key)))

		switch key {
		case model.CategoryCreditRating:
			n, err := s.downloadCreditRatings(ctx, catLog, req.Symbol, filings, root)
			result.Counts.Set(key.Label(), categoryCount(catLog, n, err))
		case model.CategoryAnnualReports:
			n, err := s.downloadAnnualReports(ctx, catLog, req, root)
			result.Counts.Set(key.Label(), categoryCount(catLog, n, err))
		case model.CategoryIssueDocuments:
			counts, err := s.downloadIssueDocuments(ctx, catLog, req.Symbol, root)
			if err != nil {
				catLog.Error("pipeline: category failed", zap.Error(err))
			}
			for _, label := range counts.Labels() {
				n, _ := counts.Get(label)
				result.Counts.Set(label, n)
			}
		default:
			n, err := s.downloadStandard(ctx, catLog, key, filings, root)
			result.Counts.Set(key.Label(), categoryCount(catLog, n, err))
		}
	}

	if req.SaveAnnouncements {
		if path, err := SaveAnnouncements(root, req.Symbol, filings); err != nil {
			log.Warn("pipeline: could not save announcements", zap.Error(err))
		} else {
			log.Info("pipeline: announcements saved", zap.String("path", path))
		}
	}

	log.Info("pipeline: run complete", zap.Int("total_files", result.Counts.Total()))
	return result, nil
}

// categoryCount reports a failed category as 0 so the rest of the run
// carries on.
func categoryCount(log *zap.Logger, n int, err error) int {
	if err != nil {
		log.Error("pipeline: category failed", zap.Error(err))
		return 0
	}
	return n
}

func (s *Service) validateSymbol(ctx context.Context, symbol string) error {
	if symbol == "" {
		return eris.Wrap(ErrInvalidSymbol, "symbol is empty")
	}
	quote, err := s.feed.EquityQuote(ctx, symbol)
	if err != nil {
		return eris.Wrapf(ErrInvalidSymbol, "symbol %q is invalid or not found: %v", symbol, err)
	}
	if len(quote) == 0 {
		return eris.Wrapf(ErrInvalidSymbol, "symbol %q is invalid or not found", symbol)
	}
	return nil
}

// AnnouncementsFileName returns the name the filing list is saved under.
func AnnouncementsFileName(symbol string) string {
	return symbol + "_announcements.json"
}

// SaveAnnouncements writes filings as indented JSON to
// <root>/<SYMBOL>_announcements.json and returns the path.
func SaveAnnouncements(root, symbol string, filings []model.Filing) (string, error) {
	if filings == nil {
		filings = []model.Filing{}
	}
	data, err := json.MarshalIndent(filings, "", "  ")
	if err != nil {
		return "", eris.Wrap(err, "pipeline: marshal announcements")
	}
	path := filepath.Join(root, AnnouncementsFileName(symbol))
	if _, err := fetcher.WriteFileAtomic(path, bytes.NewReader(data)); err != nil {
		return "", eris.Wrap(err, "pipeline: write announcements")
	}
	return path, nil
}
