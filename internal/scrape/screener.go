package scrape

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/filings-cli/internal/fetcher"
	"github.com/sells-group/filings-cli/internal/pipeline"
	"github.com/sells-group/filings-cli/internal/resilience"
)

const (
	docAccept   = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	maxPageSize = 4 << 20
)

// ScreenerOptions configures a Screener.
type ScreenerOptions struct {
	BaseURL     string
	PageTimeout time.Duration
	DocTimeout  time.Duration
	UserAgent   string
}

// Screener downloads credit-rating documents listed on a screener.in company
// page. Linked PDFs are saved as-is; other pages are printed to PDF.
type Screener struct {
	baseURL  string
	page     fetcher.Fetcher
	docs     fetcher.Fetcher
	renderer Renderer
}

// NewScreener creates a Screener. renderer may be nil, in which case
// non-PDF documents are skipped.
func NewScreener(opts ScreenerOptions, renderer Renderer) *Screener {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://www.screener.in"
	}
	if opts.PageTimeout == 0 {
		opts.PageTimeout = 15 * time.Second
	}
	if opts.DocTimeout == 0 {
		opts.DocTimeout = 30 * time.Second
	}
	return &Screener{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		page: fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
			UserAgent: opts.UserAgent,
			Timeout:   opts.PageTimeout,
		}),
		// Rating agencies often serve broken certificate chains.
		docs: fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
			UserAgent:          opts.UserAgent,
			Timeout:            opts.DocTimeout,
			InsecureSkipVerify: true,
		}),
		renderer: renderer,
	}
}

// ProfileURL returns the company page for symbol.
func (s *Screener) ProfileURL(symbol string) string {
	return s.baseURL + "/company/" + url.PathEscape(symbol) + "/"
}

// CreditRatings saves every listed credit-rating document into dir and
// returns how many were written. A page that cannot be fetched returns an
// error; a page without a ratings section returns 0.
func (s *Screener) CreditRatings(ctx context.Context, symbol, dir string) (int, error) {
	profile := s.ProfileURL(symbol)
	log := zap.L().With(zap.String("symbol", symbol), zap.String("source", "screener"))

	links, err := s.ratingLinks(ctx, profile)
	if err != nil {
		return 0, err
	}
	if len(links) == 0 {
		log.Info("screener: no credit ratings listed")
		return 0, nil
	}

	seen, err := pipeline.NewDeduper(dir)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, link := range links {
		ok, err := s.saveLink(ctx, link, profile, dir, seen)
		if err != nil {
			log.Warn("screener: credit rating skipped",
				zap.String("url", link.URL),
				zap.String("transient", resilience.Classify(err)),
				zap.Error(err),
			)
			continue
		}
		if ok {
			count++
		}
	}
	log.Info("screener: credit ratings saved", zap.Int("count", count))
	return count, nil
}

func (s *Screener) ratingLinks(ctx context.Context, profile string) ([]RatingLink, error) {
	resp, err := s.page.Get(ctx, profile, nil)
	if err != nil {
		return nil, eris.Wrap(err, "screener: fetch profile")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return nil, eris.Wrap(err, "screener: read profile")
	}
	if blocked, bt := fetcher.DetectBlock(resp, body); blocked {
		return nil, eris.Errorf("screener: blocked (%s)", bt)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Wrap(resilience.NewStatusError(resp.StatusCode, profile), "screener: fetch profile")
	}

	base, err := url.Parse(profile)
	if err != nil {
		return nil, eris.Wrap(err, "screener: parse profile url")
	}
	return ParseRatingLinks(bytes.NewReader(body), base)
}

// ParseRatingLinks extracts the documents listed under the "Credit ratings"
// heading of a company page. Relative links are resolved against base.
func ParseRatingLinks(r io.Reader, base *url.URL) ([]RatingLink, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, eris.Wrap(err, "screener: parse html")
	}

	var section *goquery.Selection
	doc.Find("div.documents.credit-ratings").EachWithBreak(func(_ int, div *goquery.Selection) bool {
		h3 := div.Find("h3").First()
		if h3.Length() > 0 && strings.Contains(strings.ToLower(strings.TrimSpace(h3.Text())), "credit ratings") {
			section = div
			return false
		}
		return true
	})
	if section == nil {
		return nil, nil
	}

	var links []RatingLink
	section.Find("ul.list-links").First().Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}
		if ref, err := url.Parse(href); err == nil && base != nil {
			href = base.ResolveReference(ref).String()
		}
		label := strings.TrimSpace(a.Find("div.ink-600.smaller").First().Text())
		links = append(links, RatingLink{
			URL:      href,
			Label:    label,
			Filename: RatingFilename(label),
		})
	})
	return links, nil
}

// saveLink fetches one listed document. ok is false when the file name was
// already present.
func (s *Screener) saveLink(ctx context.Context, link RatingLink, referer, dir string, seen *pipeline.Deduper) (bool, error) {
	target := link.URL
	if pdfURL, ok := ICRAPDFURL(link.URL); ok {
		target = pdfURL
	}

	resp, err := s.docs.Get(ctx, target, http.Header{
		"Accept":  {docAccept},
		"Referer": {referer},
	})
	if err != nil {
		return false, eris.Wrap(err, "screener: fetch document")
	}
	if resp.StatusCode >= http.StatusBadRequest {
		_ = resp.Body.Close()
		return false, eris.Wrap(resilience.NewStatusError(resp.StatusCode, target), "screener: fetch document")
	}

	path := filepath.Join(dir, link.Filename)
	contentType := strings.ToLower(resp.Header.Get("Content-Type"))

	if strings.Contains(contentType, "application/pdf") {
		defer resp.Body.Close() //nolint:errcheck
		if seen.Seen(link.Filename) {
			return false, nil
		}
		if _, err := fetcher.WriteFileAtomic(path, resp.Body); err != nil {
			return false, eris.Wrap(err, "screener: save pdf")
		}
		seen.Add(link.Filename)
		return true, nil
	}

	_ = resp.Body.Close()
	if seen.Seen(link.Filename) {
		return false, nil
	}
	if s.renderer == nil {
		return false, eris.Errorf("screener: %s is not a pdf and rendering is disabled", target)
	}
	pdf, err := s.renderer.RenderPDF(ctx, target)
	if err != nil {
		return false, eris.Wrap(err, "screener: render page")
	}
	if _, err := fetcher.WriteFileAtomic(path, bytes.NewReader(pdf)); err != nil {
		return false, eris.Wrap(err, "screener: save rendered pdf")
	}
	seen.Add(link.Filename)
	return true, nil
}
