package forum

import (
	"context"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/filings-cli/internal/fetcher"
)

// ErrInvalidTopicURL is returned for URLs without a /t/<slug>/<id> path.
var ErrInvalidTopicURL = eris.New("forum: invalid topic url")

var topicPath = regexp.MustCompile(`/t/([^/]+)/(\d+)`)

// ParseTopicURL extracts the slug and topic id from a topic URL. Post
// suffixes (/t/slug/id/42) are ignored.
func ParseTopicURL(raw string) (string, int, error) {
	m := topicPath.FindStringSubmatch(raw)
	if m == nil {
		return "", 0, eris.Wrapf(ErrInvalidTopicURL,
			"%s: expected https://forum.valuepickr.com/t/<slug>/<topic_id>", raw)
	}
	id, err := strconv.Atoi(m[2])
	if err != nil {
		return "", 0, eris.Wrapf(ErrInvalidTopicURL, "%s: topic id out of range", raw)
	}
	return m[1], id, nil
}

func itoa(n int) string { return strconv.Itoa(n) }

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets a custom forum URL (for testing).
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

// WithRequestsPerSecond sets the request rate against the forum.
func WithRequestsPerSecond(rps float64) Option {
	return func(c *Client) {
		c.rps = rps
	}
}

// WithBatchSize sets how many post ids are requested at once.
func WithBatchSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// Client reads topics from the Discourse JSON API.
type Client struct {
	baseURL   string
	timeout   time.Duration
	rps       float64
	batchSize int

	http *fetcher.HTTPFetcher
}

// NewClient creates a forum client.
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		baseURL:   "https://forum.valuepickr.com",
		timeout:   30 * time.Second,
		rps:       2,
		batchSize: 200,
	}
	for _, opt := range opts {
		opt(c)
	}

	u, err := url.Parse(c.baseURL)
	if err != nil || u.Host == "" {
		return nil, eris.Errorf("forum: invalid base url %q", c.baseURL)
	}
	c.http = fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		Timeout: c.timeout,
		Headers: map[string][]string{"Accept": {"application/json"}},
		RateLimiters: map[string]*rate.Limiter{
			u.Host: rate.NewLimiter(rate.Limit(c.rps), 1),
		},
	})
	return c, nil
}

// BaseURL returns the forum the client reads from.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type topicResponse struct {
	Title      string `json:"title"`
	PostStream struct {
		Posts  []Post `json:"posts"`
		Stream []int  `json:"stream"`
	} `json:"post_stream"`
	Details struct {
		Links []Link `json:"links"`
	} `json:"details"`
}

func getJSON[T any](ctx context.Context, c *Client, reqURL string) (*T, error) {
	body, err := c.http.Download(ctx, reqURL)
	if err != nil {
		return nil, err
	}
	defer body.Close() //nolint:errcheck
	return fetcher.DecodeJSONObject[T](body)
}

func (c *Client) fetchTopic(ctx context.Context, slug string, id int) (*topicResponse, error) {
	reqURL := c.baseURL + "/t/" + url.PathEscape(slug) + "/" + itoa(id) + ".json"
	topic, err := getJSON[topicResponse](ctx, c, reqURL)
	if err != nil {
		return nil, eris.Wrapf(err, "forum: fetch topic %d", id)
	}
	return topic, nil
}

func (c *Client) fetchPosts(ctx context.Context, id int, postIDs []int) ([]Post, error) {
	q := url.Values{}
	for _, pid := range postIDs {
		q.Add("post_ids[]", itoa(pid))
	}
	reqURL := c.baseURL + "/t/" + itoa(id) + "/posts.json?" + q.Encode()
	resp, err := getJSON[topicResponse](ctx, c, reqURL)
	if err != nil {
		return nil, eris.Wrapf(err, "forum: fetch posts of topic %d", id)
	}
	return resp.PostStream.Posts, nil
}

// Thread downloads a topic with every post in its stream. The first
// response carries the opening chunk of posts; the rest are fetched in
// batches. A failed batch is logged and its posts are left out. Posts are
// ordered by creation time.
func (c *Client) Thread(ctx context.Context, topicURL string) (*Thread, error) {
	slug, id, err := ParseTopicURL(topicURL)
	if err != nil {
		return nil, err
	}
	log := zap.L().With(zap.String("slug", slug), zap.Int("topic_id", id))

	topic, err := c.fetchTopic(ctx, slug, id)
	if err != nil {
		return nil, err
	}

	thread := &Thread{
		ID:      id,
		Slug:    slug,
		Title:   topic.Title,
		Links:   topic.Details.Links,
		BaseURL: c.baseURL,
	}
	if len(topic.PostStream.Stream) == 0 {
		log.Warn("forum: topic has no posts")
		return thread, nil
	}
	log.Info("forum: topic fetched",
		zap.String("title", topic.Title),
		zap.Int("posts", len(topic.PostStream.Stream)),
	)

	have := make(map[int]bool, len(topic.PostStream.Posts))
	for _, p := range topic.PostStream.Posts {
		have[p.ID] = true
	}
	var missing []int
	for _, pid := range topic.PostStream.Stream {
		if !have[pid] {
			missing = append(missing, pid)
		}
	}

	posts := append([]Post(nil), topic.PostStream.Posts...)
	for start := 0; start < len(missing); start += c.batchSize {
		end := min(start+c.batchSize, len(missing))
		batch, err := c.fetchPosts(ctx, id, missing[start:end])
		if err != nil {
			log.Error("forum: post batch failed", zap.Int("from", start), zap.Int("to", end), zap.Error(err))
			continue
		}
		posts = append(posts, batch...)
	}

	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].CreatedAt < posts[j].CreatedAt
	})
	thread.Posts = posts
	return thread, nil
}
