// Package render prints web pages to PDF with headless Chrome.
package render

import (
	"context"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// A4 paper in inches, with 0.4in margins.
const (
	paperWidth  = 8.27
	paperHeight = 11.69
	margin      = 0.4
)

// Options configures Chrome rendering.
type Options struct {
	// ExecPath is the Chrome binary. Empty uses chromedp's lookup.
	ExecPath string
	// Settle is how long to wait after load for scripts to draw the page.
	Settle time.Duration
	// Timeout bounds one render, browser start included.
	Timeout time.Duration
}

// Chrome renders pages and HTML documents by starting a headless browser
// per call.
type Chrome struct {
	opts Options
}

// NewChrome creates a Chrome renderer.
func NewChrome(opts Options) *Chrome {
	if opts.Settle == 0 {
		opts.Settle = 5 * time.Second
	}
	if opts.Timeout == 0 {
		opts.Timeout = 60 * time.Second
	}
	return &Chrome{opts: opts}
}

func (c *Chrome) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Flag("log-level", "3"),
	)
	if c.opts.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(c.opts.ExecPath))
	}
	return opts
}

// printParams returns the print-to-PDF request. With cssPageSize the
// document's own @page rules win over the default A4 layout.
func printParams(cssPageSize bool) *page.PrintToPDFParams {
	return page.PrintToPDF().
		WithPrintBackground(true).
		WithPaperWidth(paperWidth).
		WithPaperHeight(paperHeight).
		WithMarginTop(margin).
		WithMarginBottom(margin).
		WithMarginLeft(margin).
		WithMarginRight(margin).
		WithPreferCSSPageSize(cssPageSize)
}

// RenderPDF loads url, waits for it to settle and prints it to PDF.
func (c *Chrome) RenderPDF(ctx context.Context, url string) ([]byte, error) {
	zap.L().Debug("render: printing page", zap.String("url", url))
	pdf, err := c.print(ctx, false, chromedp.Navigate(url))
	if err != nil {
		return nil, eris.Wrapf(err, "render: print %s", url)
	}
	return pdf, nil
}

// PrintHTML loads an HTML document into a blank page, waits for its
// images to settle and prints it to PDF.
func (c *Chrome) PrintHTML(ctx context.Context, html string) ([]byte, error) {
	zap.L().Debug("render: printing document", zap.Int("bytes", len(html)))
	pdf, err := c.print(ctx, true,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
	)
	if err != nil {
		return nil, eris.Wrap(err, "render: print document")
	}
	return pdf, nil
}

// print runs load in a fresh browser, then settles and prints.
func (c *Chrome) print(ctx context.Context, cssPageSize bool, load ...chromedp.Action) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, c.allocatorOptions()...)
	defer cancelAlloc()

	taskCtx, cancelTask := chromedp.NewContext(allocCtx)
	defer cancelTask()

	var pdf []byte
	actions := append(load,
		chromedp.Sleep(c.opts.Settle),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := printParams(cssPageSize).Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		}),
	)
	if err := chromedp.Run(taskCtx, actions...); err != nil {
		return nil, err
	}
	if len(pdf) == 0 {
		return nil, eris.New("empty pdf")
	}
	return pdf, nil
}
