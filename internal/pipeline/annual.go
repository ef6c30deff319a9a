package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/filings-cli/internal/model"
)

// SelectAnnualReports returns the document URLs to download. Documents
// without a URL or an integer toYr are skipped. Unless all is set, only
// documents whose toYr falls within [from.Year(), to.Year()] are kept.
// Keys are visited in sorted order, documents in feed order.
func SelectAnnualReports(reports model.AnnualReports, from, to time.Time, all bool) []string {
	keys := make([]string, 0, len(reports))
	for k := range reports {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var urls []string
	for _, k := range keys {
		for _, doc := range reports[k] {
			u := doc.ResolveURL()
			if u == "" {
				continue
			}
			year, ok := doc.ToYear()
			if !ok {
				continue
			}
			if !all && (year < from.Year() || year > to.Year()) {
				continue
			}
			urls = append(urls, u)
		}
	}
	return urls
}

func (s *Service) downloadAnnualReports(ctx context.Context, log *zap.Logger, req Request, root string) (int, error) {
	dir := filepath.Join(root, model.CategoryAnnualReports.Folder())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, eris.Wrapf(err, "pipeline: create %s", dir)
	}

	reports, err := s.feed.AnnualReports(ctx, req.Symbol)
	if err != nil {
		log.Warn("pipeline: annual reports unavailable", zap.Error(err))
		return 0, nil
	}

	count := 0
	for _, u := range SelectAnnualReports(reports, req.From, req.To, req.AnnualReportsAll) {
		if _, err := s.feed.DownloadDocument(ctx, u, dir); err != nil {
			logSkip(log, "pipeline: annual report download failed", u, err)
			continue
		}
		count++
	}
	return count, nil
}
