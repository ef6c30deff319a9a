package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/filings-cli/internal/model"
)

func creditFilings() []model.Filing {
	return []model.Filing{
		filing("Credit Rating", "", "https://nsearchives.nseindia.com/corporate/CR_1.pdf"),
		filing("Credit Rating", "", "https://nsearchives.nseindia.com/corporate/CR_2.pdf"),
		filing("Press Release", "", "https://nsearchives.nseindia.com/corporate/PR_1.pdf"),
	}
}

func TestCreditRatings_PrimaryShortCircuits(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	dir := filepath.Join(root, "credit_rating")

	feed := new(mockFeed)
	ratings := new(mockRatings)
	ratings.On("CreditRatings", ctx, "HDFCBANK", dir).Return(4, nil)

	s := New(feed, ratings)
	n, err := s.downloadCreditRatings(ctx, zap.NewNop(), "HDFCBANK", creditFilings(), root)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	ratings.AssertExpectations(t)
	feed.AssertNotCalled(t, "DownloadDocument", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreditRatings_FallbackSkipsFilesOnDisk(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	dir := filepath.Join(root, "credit_rating")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "CR_1.pdf"), []byte("old"), 0o644))

	feed := new(mockFeed)
	feed.On("DownloadDocument", ctx, "https://nsearchives.nseindia.com/corporate/CR_2.pdf", dir).
		Run(writeDownloaded).Return(filepath.Join(dir, "CR_2.pdf"), nil).Once()
	ratings := new(mockRatings)
	ratings.On("CreditRatings", ctx, "HDFCBANK", dir).Return(0, nil)

	s := New(feed, ratings)
	n, err := s.downloadCreditRatings(ctx, zap.NewNop(), "HDFCBANK", creditFilings(), root)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	feed.AssertExpectations(t)
	feed.AssertNotCalled(t, "DownloadDocument", ctx, "https://nsearchives.nseindia.com/corporate/CR_1.pdf", dir)
	feed.AssertNotCalled(t, "DownloadDocument", ctx, "https://nsearchives.nseindia.com/corporate/PR_1.pdf", dir)
}

func TestCreditRatings_FallbackAfterPrimaryError(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	dir := filepath.Join(root, "credit_rating")

	feed := new(mockFeed)
	feed.On("DownloadDocument", ctx, mock.Anything, dir).Run(writeDownloaded).Return("", nil)
	ratings := new(mockRatings)
	ratings.On("CreditRatings", ctx, "HDFCBANK", dir).Return(0, errors.New("screener: status 503"))

	s := New(feed, ratings)
	n, err := s.downloadCreditRatings(ctx, zap.NewNop(), "HDFCBANK", creditFilings(), root)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestCreditRatings_FallbackIsIdempotent(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	dir := filepath.Join(root, "credit_rating")

	feed := new(mockFeed)
	feed.On("DownloadDocument", ctx, mock.Anything, dir).Run(writeDownloaded).Return("", nil)

	s := New(feed, nil)
	first, err := s.downloadCreditRatings(ctx, zap.NewNop(), "HDFCBANK", creditFilings(), root)
	require.NoError(t, err)
	assert.Equal(t, 2, first)

	second, err := s.downloadCreditRatings(ctx, zap.NewNop(), "HDFCBANK", creditFilings(), root)
	require.NoError(t, err)
	assert.Equal(t, 0, second)
	feed.AssertNumberOfCalls(t, "DownloadDocument", 2)
}

func TestCreditRatings_DuplicateURLsInOneRun(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	dir := filepath.Join(root, "credit_rating")

	filings := []model.Filing{
		filing("Credit Rating", "", "https://a.example/CR.pdf"),
		filing("Credit Rating", "", "https://b.example/other/CR.pdf"),
	}
	feed := new(mockFeed)
	feed.On("DownloadDocument", ctx, "https://a.example/CR.pdf", dir).Return("", nil)

	s := New(feed, nil)
	n, err := s.downloadCreditRatings(ctx, zap.NewNop(), "X", filings, root)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	feed.AssertNumberOfCalls(t, "DownloadDocument", 1)
}

func TestCreditRatings_FailedDownloadNotMarked(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	dir := filepath.Join(root, "credit_rating")

	filings := []model.Filing{
		filing("Credit Rating", "", "https://a.example/CR.pdf"),
		filing("Credit Rating", "", "https://b.example/CR.pdf"),
	}
	feed := new(mockFeed)
	feed.On("DownloadDocument", ctx, "https://a.example/CR.pdf", dir).Return("", errors.New("connection reset by peer"))
	feed.On("DownloadDocument", ctx, "https://b.example/CR.pdf", dir).Return("", nil)

	s := New(feed, nil)
	n, err := s.downloadCreditRatings(ctx, zap.NewNop(), "X", filings, root)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
