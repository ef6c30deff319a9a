package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/filings-cli/internal/config"
	"github.com/sells-group/filings-cli/internal/model"
	"github.com/sells-group/filings-cli/internal/pipeline"
	"github.com/sells-group/filings-cli/internal/scrape"
	"github.com/sells-group/filings-cli/pkg/nse"
	"github.com/sells-group/filings-cli/pkg/render"
)

const dateLayout = "2006-01-02"

var (
	downloadFrom             string
	downloadTo               string
	downloadCategories       string
	downloadOutput           string
	downloadAnnualReportsAll bool
	downloadJSON             bool
)

// downloadRequest carries the download options shared by the CLI and the
// HTTP API.
type downloadRequest struct {
	Symbol           string `json:"symbol"`
	From             string `json:"from"`
	To               string `json:"to"`
	Categories       string `json:"categories"`
	Output           string `json:"output"`
	AnnualReportsAll bool   `json:"annual_reports_all"`
}

type dateRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// downloadResult is the machine-readable outcome of a successful run.
type downloadResult struct {
	Success         bool                  `json:"success"`
	Symbol          string                `json:"symbol"`
	OutputDirectory string                `json:"output_directory"`
	DateRange       dateRange             `json:"date_range"`
	Downloads       *model.CategoryCounts `json:"downloads"`
	TotalFiles      int                   `json:"total_files"`
}

type errorResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// downloader turns download requests into pipeline runs.
type downloader struct {
	feed              pipeline.Feed
	ratings           pipeline.CreditRatingSource
	issueDocs         []model.IssueDocSpec
	baseDir           string
	saveAnnouncements bool
	// folderOnly treats the output as a folder name under baseDir. Paths
	// are rejected.
	folderOnly bool
}

// newDownloader wires the exchange client, screener scrape and renderer
// from configuration.
func newDownloader(c *config.Config) (*downloader, error) {
	client, err := nse.NewClient(
		nse.WithBaseURL(c.NSE.BaseURL),
		nse.WithTimeout(time.Duration(c.NSE.TimeoutSecs)*time.Second),
		nse.WithRequestsPerSecond(c.NSE.RequestsPerSecond),
		nse.WithUserAgent(c.NSE.UserAgent),
	)
	if err != nil {
		return nil, eris.Wrap(err, "create nse client")
	}

	var renderer scrape.Renderer
	if c.Render.Enabled {
		renderer = render.NewChrome(render.Options{
			ExecPath: c.Render.ChromePath,
			Settle:   time.Duration(c.Render.SettleSecs) * time.Second,
			Timeout:  time.Duration(c.Render.TimeoutSecs) * time.Second,
		})
	}

	screener := scrape.NewScreener(scrape.ScreenerOptions{
		BaseURL:     c.Screener.BaseURL,
		PageTimeout: time.Duration(c.Screener.PageTimeoutSecs) * time.Second,
		DocTimeout:  time.Duration(c.Screener.DocTimeoutSecs) * time.Second,
		UserAgent:   c.NSE.UserAgent,
	}, renderer)

	issueDocs, err := pipeline.LoadIssueDocSpecs(c.Download.IssueDocsPath)
	if err != nil {
		return nil, err
	}

	return &downloader{
		feed:              client,
		ratings:           screener,
		issueDocs:         issueDocs,
		baseDir:           c.Download.BaseDir,
		saveAnnouncements: c.Download.SaveAnnouncements,
	}, nil
}

// splitOutput returns the base directory and folder name a run writes to.
// An empty output means <SYMBOL>_filings under the configured base dir.
func (d *downloader) splitOutput(symbol, output string) (string, string) {
	output = strings.TrimSpace(output)
	if output == "" {
		return d.baseDir, symbol + "_filings"
	}
	if d.folderOnly {
		return d.baseDir, output
	}
	output = filepath.Clean(output)
	return filepath.Dir(output), filepath.Base(output)
}

// parseRequest validates dates and categories before any network call.
func (d *downloader) parseRequest(in downloadRequest) (pipeline.Request, string, error) {
	symbol := strings.ToUpper(strings.TrimSpace(in.Symbol))
	if symbol == "" {
		return pipeline.Request{}, "", eris.New("symbol is required")
	}

	from, err := time.Parse(dateLayout, strings.TrimSpace(in.From))
	if err != nil {
		return pipeline.Request{}, "", eris.Errorf("invalid date format: %s. Use YYYY-MM-DD", in.From)
	}
	to, err := time.Parse(dateLayout, strings.TrimSpace(in.To))
	if err != nil {
		return pipeline.Request{}, "", eris.Errorf("invalid date format: %s. Use YYYY-MM-DD", in.To)
	}
	if from.After(to) {
		return pipeline.Request{}, "", eris.Errorf("from date %s is after to date %s", in.From, in.To)
	}

	cats := in.Categories
	if strings.TrimSpace(cats) == "" {
		cats = "all"
	}
	keys, err := model.ParseCategoryList(cats)
	if err != nil {
		return pipeline.Request{}, "", err
	}

	base, folder := d.splitOutput(symbol, in.Output)
	return pipeline.Request{
		Symbol:            symbol,
		From:              from,
		To:                to,
		Folder:            folder,
		Categories:        model.NewCategorySet(keys...),
		AnnualReportsAll:  in.AnnualReportsAll,
		SaveAnnouncements: d.saveAnnouncements,
	}, base, nil
}

// badRequest marks a request rejected before the pipeline ran.
type badRequest struct{ err error }

func (e *badRequest) Error() string { return e.err.Error() }
func (e *badRequest) Unwrap() error { return e.err }

func (d *downloader) run(ctx context.Context, in downloadRequest) (*downloadResult, error) {
	req, base, err := d.parseRequest(in)
	if err != nil {
		return nil, &badRequest{err: err}
	}

	svc := pipeline.New(d.feed, d.ratings,
		pipeline.WithBaseDir(base),
		pipeline.WithIssueDocSpecs(d.issueDocs),
	)
	res, err := svc.Process(ctx, req)
	if err != nil {
		return nil, err
	}

	dir, err := filepath.Abs(res.Directory)
	if err != nil {
		dir = res.Directory
	}
	return &downloadResult{
		Success:         true,
		Symbol:          res.Symbol,
		OutputDirectory: dir,
		DateRange:       dateRange{From: in.From, To: in.To},
		Downloads:       res.Counts,
		TotalFiles:      res.Counts.Total(),
	}, nil
}

func printDownloadResult(w io.Writer, res *downloadResult) {
	fmt.Fprintf(w, "Downloaded filings for %s\n", res.Symbol)
	fmt.Fprintf(w, "  Output: %s\n", res.OutputDirectory)
	fmt.Fprintln(w, "  Categories:")
	for _, label := range res.Downloads.Labels() {
		n, _ := res.Downloads.Get(label)
		fmt.Fprintf(w, "    - %s: %d files\n", label, n)
	}
	fmt.Fprintf(w, "  Total: %d files\n", res.TotalFiles)
}

// reportError writes err as JSON when asked to and returns the error main
// should exit with.
func reportError(w io.Writer, asJSON bool, err error) error {
	if !asJSON {
		return err
	}
	_ = writeJSON(w, errorResult{Success: false, Error: err.Error()})
	return errReported
}

var downloadCmd = &cobra.Command{
	Use:   "download SYMBOL",
	Short: "Download company filings from NSE",
	Example: "  filings download HDFCBANK --from 2023-01-01 --to 2025-01-26\n" +
		"  filings download INFY --from 2020-01-01 --to 2025-01-26 --categories transcripts,credit_rating\n" +
		"  filings download RELIANCE --from 2020-01-01 --to 2025-01-26 --annual-reports-all --json",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if err := cfg.Validate("download"); err != nil {
			return reportError(out, downloadJSON, err)
		}

		d, err := newDownloader(cfg)
		if err != nil {
			return reportError(out, downloadJSON, err)
		}

		res, err := d.run(cmd.Context(), downloadRequest{
			Symbol:           args[0],
			From:             downloadFrom,
			To:               downloadTo,
			Categories:       downloadCategories,
			Output:           downloadOutput,
			AnnualReportsAll: downloadAnnualReportsAll,
		})
		if err != nil {
			return reportError(out, downloadJSON, err)
		}

		if downloadJSON {
			return writeJSON(out, res)
		}
		printDownloadResult(out, res)
		return nil
	},
}

func init() {
	downloadCmd.Flags().StringVar(&downloadFrom, "from", "", "start date (YYYY-MM-DD)")
	downloadCmd.Flags().StringVar(&downloadTo, "to", "", "end date (YYYY-MM-DD)")
	downloadCmd.Flags().StringVar(&downloadCategories, "categories", "all", "comma-separated categories or 'all'")
	downloadCmd.Flags().StringVarP(&downloadOutput, "output", "o", "", "output directory (default ./<SYMBOL>_filings)")
	downloadCmd.Flags().BoolVar(&downloadAnnualReportsAll, "annual-reports-all", false, "download every annual report regardless of date range")
	downloadCmd.Flags().BoolVar(&downloadJSON, "json", false, "print the result as JSON")
	_ = downloadCmd.MarkFlagRequired("from")
	_ = downloadCmd.MarkFlagRequired("to")
	rootCmd.AddCommand(downloadCmd)
}
