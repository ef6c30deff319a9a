package pipeline

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/filings-cli/internal/model"
)

// downloadCreditRatings tries the preferred source first. A positive count
// is final; otherwise the feed's credit-rating filings are downloaded,
// skipping file names already in the folder.
func (s *Service) downloadCreditRatings(ctx context.Context, log *zap.Logger, symbol string, filings []model.Filing, root string) (int, error) {
	dir := filepath.Join(root, model.CategoryCreditRating.Folder())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, eris.Wrapf(err, "pipeline: create %s", dir)
	}

	if s.ratings != nil {
		n, err := s.ratings.CreditRatings(ctx, symbol, dir)
		if err != nil {
			log.Warn("pipeline: primary credit rating source failed", zap.Error(err))
		}
		if n > 0 {
			log.Info("pipeline: credit ratings from primary source", zap.Int("count", n))
			return n, nil
		}
	}

	log.Info("pipeline: falling back to feed credit rating filings")
	return s.downloadCreditRatingFilings(ctx, log, filings, dir)
}

func (s *Service) downloadCreditRatingFilings(ctx context.Context, log *zap.Logger, filings []model.Filing, dir string) (int, error) {
	seen, err := NewDeduper(dir)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, f := range Filter(model.CategoryCreditRating, filings) {
		name := FilenameFromURL(f.AttachmentURL)
		if seen.Seen(name) {
			continue
		}
		if _, err := s.feed.DownloadDocument(ctx, f.AttachmentURL, dir); err != nil {
			logSkip(log, "pipeline: credit rating download failed", f.AttachmentURL, err)
			continue
		}
		seen.Add(name)
		count++
	}
	return count, nil
}
