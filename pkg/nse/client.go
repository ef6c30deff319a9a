// Package nse provides a client for the National Stock Exchange of India
// public JSON API and its document archives.
package nse

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"

	"github.com/sells-group/filings-cli/internal/fetcher"
	"github.com/sells-group/filings-cli/internal/model"
	"github.com/sells-group/filings-cli/internal/resilience"
)

const (
	dateLayout  = "02-01-2006"
	maxBodySize = 64 << 20
	jsonAccept  = "application/json, text/plain, */*"
	htmlAccept  = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
)

// Option configures the NSE client.
type Option func(*Client)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithRequestsPerSecond sets the API request rate.
func WithRequestsPerSecond(rps float64) Option {
	return func(c *Client) {
		c.rps = rps
	}
}

// WithUserAgent overrides the browser User-Agent.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithMetaTTL sets how long company metadata is cached.
func WithMetaTTL(d time.Duration) Option {
	return func(c *Client) {
		c.metaTTL = d
	}
}

// Client talks to the exchange API. The API rejects requests without the
// session cookies its home page sets, so the first call visits it.
type Client struct {
	baseURL   string
	timeout   time.Duration
	rps       float64
	userAgent string
	metaTTL   time.Duration

	http *fetcher.HTTPFetcher
	meta *cache.Cache

	mu     sync.Mutex
	warmed bool
}

// NewClient creates an NSE client.
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		baseURL: "https://www.nseindia.com",
		timeout: 15 * time.Second,
		rps:     3,
		metaTTL: time.Hour,
	}
	for _, opt := range opts {
		opt(c)
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, eris.Wrap(err, "nse: parse base url")
	}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, eris.Wrap(err, "nse: create cookie jar")
	}

	c.http = fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent: c.userAgent,
		Timeout:   c.timeout,
		Headers: http.Header{
			"Accept-Language": {"en-US,en;q=0.9"},
		},
		AdaptiveLimiters: map[string]*fetcher.AdaptiveLimiter{
			u.Host: fetcher.NewAdaptiveLimiter(rate.Limit(c.rps), 1),
		},
		Jar: jar,
	})
	c.meta = cache.New(c.metaTTL, 2*c.metaTTL)
	return c, nil
}

// warmUp visits the home page once to collect session cookies.
func (c *Client) warmUp(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.warmed {
		return nil
	}

	resp, err := c.http.Get(ctx, c.baseURL+"/", http.Header{"Accept": {htmlAccept}})
	if err != nil {
		return eris.Wrap(err, "nse: session warm-up")
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
	_ = resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return eris.Wrap(resilience.NewStatusError(resp.StatusCode, c.baseURL+"/"), "nse: session warm-up")
	}

	c.warmed = true
	zap.L().Debug("nse: session established")
	return nil
}

func (c *Client) expireSession() {
	c.mu.Lock()
	c.warmed = false
	c.mu.Unlock()
}

// Get issues a GET against an API path (relative to /api) and returns the
// raw JSON body.
func (c *Client) Get(ctx context.Context, path string, params map[string]string) ([]byte, error) {
	if err := c.warmUp(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}
	reqURL := c.baseURL + "/api/" + strings.TrimLeft(path, "/")
	if len(q) > 0 {
		reqURL += "?" + q.Encode()
	}

	resp, err := c.http.Get(ctx, reqURL, http.Header{
		"Accept":  {jsonAccept},
		"Referer": {c.baseURL + "/"},
	})
	if err != nil {
		return nil, eris.Wrapf(err, "nse: get %s", path)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, eris.Wrapf(err, "nse: read %s", path)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		// Cookies expired or were refused; the next call starts a new session.
		c.expireSession()
	}
	if blocked, bt := fetcher.DetectBlock(resp, body); blocked {
		return nil, eris.Errorf("nse: get %s: blocked (%s)", path, bt)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Wrapf(resilience.NewStatusError(resp.StatusCode, reqURL), "nse: get %s", path)
	}
	return body, nil
}

// Announcements returns corporate announcements for symbol between from
// and to, inclusive.
func (c *Client) Announcements(ctx context.Context, symbol string, from, to time.Time) ([]model.Filing, error) {
	raw, err := c.Get(ctx, "/corporate-announcements", map[string]string{
		"index":     "equities",
		"symbol":    symbol,
		"from_date": from.Format(dateLayout),
		"to_date":   to.Format(dateLayout),
	})
	if err != nil {
		return nil, err
	}
	filings, err := fetcher.DecodeJSONRecords[model.Filing](raw)
	if err != nil {
		return nil, eris.Wrap(err, "nse: decode announcements")
	}
	return filings, nil
}

// EquityQuote returns the quote payload for symbol. Unknown symbols yield
// an empty map: the API answers them without info or priceInfo.
func (c *Client) EquityQuote(ctx context.Context, symbol string) (map[string]any, error) {
	raw, err := c.Get(ctx, "/quote-equity", map[string]string{"symbol": symbol})
	if err != nil {
		return nil, err
	}
	var quote map[string]any
	if err := json.Unmarshal(raw, &quote); err != nil {
		return nil, eris.Wrap(err, "nse: decode quote")
	}
	_, hasInfo := quote["info"]
	_, hasPrice := quote["priceInfo"]
	if !hasInfo && !hasPrice {
		return map[string]any{}, nil
	}
	return quote, nil
}

// CompanyMeta returns the metadata record for symbol. Results are cached.
func (c *Client) CompanyMeta(ctx context.Context, symbol string) (*model.CompanyMeta, error) {
	key := strings.ToUpper(symbol)
	if v, ok := c.meta.Get(key); ok {
		return v.(*model.CompanyMeta), nil
	}

	raw, err := c.Get(ctx, "/equity-meta-info", map[string]string{"symbol": symbol})
	if err != nil {
		return nil, err
	}
	meta, err := fetcher.DecodeJSONObject[model.CompanyMeta](bytes.NewReader(raw))
	if err != nil {
		return nil, eris.Wrap(err, "nse: decode company meta")
	}
	if strings.TrimSpace(meta.CompanyName) == "" {
		return nil, eris.Errorf("nse: no company name for %s", symbol)
	}
	c.meta.SetDefault(key, meta)
	return meta, nil
}

// AnnualReports returns annual report documents grouped by response key.
// A bare array is grouped under "data".
func (c *Client) AnnualReports(ctx context.Context, symbol string) (model.AnnualReports, error) {
	raw, err := c.Get(ctx, "/annual-reports", map[string]string{
		"index":  "equities",
		"symbol": symbol,
	})
	if err != nil {
		return nil, err
	}
	return decodeAnnualReports(raw)
}

func decodeAnnualReports(raw []byte) (model.AnnualReports, error) {
	raw = []byte(strings.TrimSpace(string(raw)))
	out := model.AnnualReports{}
	if len(raw) == 0 || string(raw) == "null" {
		return out, nil
	}

	if raw[0] == '[' {
		var docs []model.AnnualReportDoc
		if err := json.Unmarshal(raw, &docs); err != nil {
			return nil, eris.Wrap(err, "nse: decode annual reports")
		}
		out["data"] = docs
		return out, nil
	}

	var groups map[string]json.RawMessage
	if err := json.Unmarshal(raw, &groups); err != nil {
		return nil, eris.Wrap(err, "nse: decode annual reports")
	}
	for key, group := range groups {
		var docs []model.AnnualReportDoc
		if err := json.Unmarshal(group, &docs); err != nil {
			// Not a document list (counts, messages).
			continue
		}
		out[key] = docs
	}
	return out, nil
}

// DownloadDocument saves url into dir under the URL's final path segment
// and returns the written path.
func (c *Client) DownloadDocument(ctx context.Context, docURL, dir string) (string, error) {
	name := fetcher.FilenameFromURL(docURL)
	if name == "" || name == "." || name == "/" {
		return "", eris.Errorf("nse: no file name in %s", docURL)
	}
	path := filepath.Join(dir, name)
	if _, err := c.http.DownloadToFile(ctx, docURL, path); err != nil {
		return "", eris.Wrap(err, "nse: download document")
	}
	zap.L().Debug("nse: document saved", zap.String("path", path))
	return path, nil
}

// DownloadAndExtract saves url into dir. ZIP archives are expanded into dir
// and removed; other files are returned as saved.
func (c *Client) DownloadAndExtract(ctx context.Context, docURL, dir string) ([]string, error) {
	path, err := c.DownloadDocument(ctx, docURL, dir)
	if err != nil {
		return nil, err
	}

	isZip, err := fetcher.IsZIP(path)
	if err != nil {
		return nil, eris.Wrap(err, "nse: inspect download")
	}
	if !isZip {
		return []string{path}, nil
	}

	files, err := fetcher.ExtractZIP(path, dir)
	if err != nil {
		return nil, eris.Wrap(err, "nse: extract archive")
	}
	if err := os.Remove(path); err != nil {
		zap.L().Warn("nse: could not remove archive", zap.String("path", path), zap.Error(err))
	}
	return files, nil
}
