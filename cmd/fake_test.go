package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/sells-group/filings-cli/internal/model"
)

// fakeFeed serves a fixed filing list and writes a stub file per download.
type fakeFeed struct {
	filings  []model.Filing
	quote    map[string]any
	quoteErr error
}

func newFakeFeed(filings ...model.Filing) *fakeFeed {
	return &fakeFeed{filings: filings, quote: map[string]any{"info": map[string]any{}}}
}

func (f *fakeFeed) Announcements(context.Context, string, time.Time, time.Time) ([]model.Filing, error) {
	return f.filings, nil
}

func (f *fakeFeed) EquityQuote(context.Context, string) (map[string]any, error) {
	return f.quote, f.quoteErr
}

func (f *fakeFeed) CompanyMeta(_ context.Context, symbol string) (*model.CompanyMeta, error) {
	return &model.CompanyMeta{Symbol: symbol, CompanyName: symbol + " Ltd"}, nil
}

func (f *fakeFeed) AnnualReports(context.Context, string) (model.AnnualReports, error) {
	return model.AnnualReports{}, nil
}

func (f *fakeFeed) Get(context.Context, string, map[string]string) ([]byte, error) {
	return []byte(`[]`), nil
}

func (f *fakeFeed) DownloadDocument(_ context.Context, url, dir string) (string, error) {
	if url == "" {
		return "", errors.New("empty url")
	}
	path := filepath.Join(dir, filepath.Base(url))
	return path, os.WriteFile(path, []byte("%PDF"), 0o644)
}

func (f *fakeFeed) DownloadAndExtract(ctx context.Context, url, dir string) ([]string, error) {
	p, err := f.DownloadDocument(ctx, url, dir)
	if err != nil {
		return nil, err
	}
	return []string{p}, nil
}

func transcriptFiling(name string) model.Filing {
	return model.Filing{
		Description:    "Analysts/Institutional Investor Meet/Con. Call Updates",
		AttachmentText: "Transcript of the earnings call",
		AttachmentURL:  "https://archives.example.com/corporate/" + name,
	}
}

func pressReleaseFiling(name string) model.Filing {
	return model.Filing{
		Description:   "Press Release",
		AttachmentURL: "https://archives.example.com/corporate/" + name,
	}
}
