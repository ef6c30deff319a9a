package pipeline

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/filings-cli/internal/model"
)

// downloadStandard saves every filing matching key into <root>/<key>.
// Existing files are not consulted; a re-run overwrites them in place.
func (s *Service) downloadStandard(ctx context.Context, log *zap.Logger, key model.CategoryKey, filings []model.Filing, root string) (int, error) {
	dir := filepath.Join(root, key.Folder())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, eris.Wrapf(err, "pipeline: create %s", dir)
	}

	count := 0
	for _, f := range Filter(key, filings) {
		if _, err := s.feed.DownloadDocument(ctx, f.AttachmentURL, dir); err != nil {
			logSkip(log, "pipeline: document download failed", f.AttachmentURL, err)
			continue
		}
		count++
	}
	return count, nil
}
