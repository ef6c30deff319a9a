package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/filings-cli/internal/config"
	"github.com/sells-group/filings-cli/internal/forum"
	"github.com/sells-group/filings-cli/pkg/render"
)

var (
	forumSymbol string
	forumOutput string
	forumJSON   bool
)

// forumResult is the machine-readable outcome of a thread export.
type forumResult struct {
	Success        bool   `json:"success"`
	Title          string `json:"title"`
	PostsCount     int    `json:"posts_count"`
	OutputPath     string `json:"output_path"`
	ReferencesPath string `json:"references_path"`
}

// exporter saves forum threads as a PDF plus a reference list.
type exporter struct {
	client  *forum.Client
	printer forum.Printer
	baseDir string
}

func newExporter(c *config.Config) (*exporter, error) {
	client, err := forum.NewClient(
		forum.WithBaseURL(c.Forum.BaseURL),
		forum.WithTimeout(time.Duration(c.Forum.TimeoutSecs)*time.Second),
		forum.WithRequestsPerSecond(c.Forum.RequestsPerSecond),
		forum.WithBatchSize(c.Forum.BatchSize),
	)
	if err != nil {
		return nil, eris.Wrap(err, "create forum client")
	}
	return &exporter{
		client: client,
		printer: render.NewChrome(render.Options{
			ExecPath: c.Render.ChromePath,
			Settle:   time.Duration(c.Render.SettleSecs) * time.Second,
			Timeout:  time.Duration(c.Render.TimeoutSecs) * time.Second,
		}),
		baseDir: c.Download.BaseDir,
	}, nil
}

// outputDir returns where a thread is written. Without an explicit output
// the folder is <SYMBOL>_valuepickr (or <slug>_valuepickr) under baseDir.
func (e *exporter) outputDir(symbol, slug, output string) string {
	if output = strings.TrimSpace(output); output != "" {
		return filepath.Clean(output)
	}
	name := slug
	if s := strings.ToUpper(strings.TrimSpace(symbol)); s != "" {
		name = s
	}
	return filepath.Join(e.baseDir, name+"_valuepickr")
}

func (e *exporter) run(ctx context.Context, topicURL, symbol, output string) (*forumResult, error) {
	slug, _, err := forum.ParseTopicURL(topicURL)
	if err != nil {
		return nil, err
	}
	thread, err := e.client.Thread(ctx, topicURL)
	if err != nil {
		return nil, err
	}
	if len(thread.Posts) == 0 {
		return nil, eris.Errorf("no posts found in %s", topicURL)
	}

	dir := e.outputDir(symbol, slug, output)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "forum: create %s", dir)
	}

	pdfPath, err := forum.SavePDF(ctx, e.printer, thread, dir)
	if err != nil {
		return nil, err
	}

	res := &forumResult{
		Success:    true,
		Title:      thread.Title,
		PostsCount: len(thread.Posts),
		OutputPath: absPath(pdfPath),
	}
	refPath, err := forum.SaveReferences(thread, dir)
	if err != nil {
		zap.L().Warn("forum: references not saved", zap.String("slug", slug), zap.Error(err))
	} else {
		res.ReferencesPath = absPath(refPath)
	}
	return res, nil
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

func printForumResult(w io.Writer, res *forumResult) {
	fmt.Fprintf(w, "Exported %s\n", res.Title)
	fmt.Fprintf(w, "  Posts: %d\n", res.PostsCount)
	fmt.Fprintf(w, "  PDF: %s\n", res.OutputPath)
	if res.ReferencesPath != "" {
		fmt.Fprintf(w, "  References: %s\n", res.ReferencesPath)
	}
}

var forumCmd = &cobra.Command{
	Use:   "forum URL",
	Short: "Export a ValuePickr forum thread to PDF",
	Example: "  filings forum https://forum.valuepickr.com/t/hdfc-bank-ltd/1234\n" +
		"  filings forum https://forum.valuepickr.com/t/hdfc-bank-ltd/1234 --symbol HDFCBANK --json",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if err := cfg.Validate("forum"); err != nil {
			return reportError(out, forumJSON, err)
		}

		e, err := newExporter(cfg)
		if err != nil {
			return reportError(out, forumJSON, err)
		}

		res, err := e.run(cmd.Context(), args[0], forumSymbol, forumOutput)
		if err != nil {
			return reportError(out, forumJSON, err)
		}

		if forumJSON {
			return writeJSON(out, res)
		}
		printForumResult(out, res)
		return nil
	},
}

func init() {
	forumCmd.Flags().StringVarP(&forumSymbol, "symbol", "s", "", "stock symbol used to name the output folder")
	forumCmd.Flags().StringVarP(&forumOutput, "output", "o", "", "output directory (default ./<SYMBOL>_valuepickr)")
	forumCmd.Flags().BoolVar(&forumJSON, "json", false, "print the result as JSON")
	rootCmd.AddCommand(forumCmd)
}
