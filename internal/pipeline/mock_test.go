package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/filings-cli/internal/model"
)

// --- Feed Mock ---

type mockFeed struct {
	mock.Mock
}

func (m *mockFeed) Announcements(ctx context.Context, symbol string, from, to time.Time) ([]model.Filing, error) {
	args := m.Called(ctx, symbol, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Filing), args.Error(1)
}

func (m *mockFeed) EquityQuote(ctx context.Context, symbol string) (map[string]any, error) {
	args := m.Called(ctx, symbol)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]any), args.Error(1)
}

func (m *mockFeed) CompanyMeta(ctx context.Context, symbol string) (*model.CompanyMeta, error) {
	args := m.Called(ctx, symbol)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CompanyMeta), args.Error(1)
}

func (m *mockFeed) AnnualReports(ctx context.Context, symbol string) (model.AnnualReports, error) {
	args := m.Called(ctx, symbol)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(model.AnnualReports), args.Error(1)
}

func (m *mockFeed) Get(ctx context.Context, path string, params map[string]string) ([]byte, error) {
	args := m.Called(ctx, path, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockFeed) DownloadDocument(ctx context.Context, url, dir string) (string, error) {
	args := m.Called(ctx, url, dir)
	return args.String(0), args.Error(1)
}

func (m *mockFeed) DownloadAndExtract(ctx context.Context, url, dir string) ([]string, error) {
	args := m.Called(ctx, url, dir)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// --- Credit Rating Source Mock ---

type mockRatings struct {
	mock.Mock
}

func (m *mockRatings) CreditRatings(ctx context.Context, symbol, dir string) (int, error) {
	args := m.Called(ctx, symbol, dir)
	return args.Int(0), args.Error(1)
}

// writeDownloaded makes a DownloadDocument expectation write a file named
// after the URL's final segment, like the real feed client.
func writeDownloaded(args mock.Arguments) {
	url := args.String(1)
	dir := args.String(2)
	_ = os.WriteFile(filepath.Join(dir, FilenameFromURL(url)), []byte("%PDF-1.4"), 0o644)
}

func filing(desc, attachText, url string) model.Filing {
	return model.Filing{
		Description:    desc,
		AttachmentText: attachText,
		AttachmentURL:  url,
		AnnouncedAt:    "15-Mar-2024 18:30:00",
	}
}
