// Package forum exports Discourse discussion threads (ValuePickr by
// default) as a printable document plus a list of the external links the
// posts cite.
package forum

import (
	"strings"
	"time"
)

// Post is one reply in a thread.
type Post struct {
	ID         int    `json:"id"`
	PostNumber int    `json:"post_number"`
	CreatedAt  string `json:"created_at"`
	Cooked     string `json:"cooked"`
	Hidden     bool   `json:"hidden"`
}

// Link is an outbound link Discourse recorded for a thread.
type Link struct {
	URL        string `json:"url"`
	Title      string `json:"title"`
	PostNumber int    `json:"post_number"`
	Clicks     int    `json:"clicks"`
	Internal   bool   `json:"internal"`
	Reflection bool   `json:"reflection"`
}

// Thread is a fully fetched topic.
type Thread struct {
	ID    int
	Slug  string
	Title string
	Posts []Post
	Links []Link
	// BaseURL is the forum the thread was read from.
	BaseURL string
}

// PostURL returns the permalink of post n.
func (t *Thread) PostURL(n int) string {
	return strings.TrimRight(t.BaseURL, "/") + "/t/" + t.Slug + "/" + itoa(t.ID) + "/" + itoa(n)
}

// PostByNumber returns the post with the given number.
func (t *Thread) PostByNumber(n int) (Post, bool) {
	for _, p := range t.Posts {
		if p.PostNumber == n {
			return p, true
		}
	}
	return Post{}, false
}

// parseCreated parses Discourse's RFC 3339 timestamps.
func parseCreated(raw string) (time.Time, bool) {
	ts, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// formatCreated formats a post timestamp with layout, falling back to the
// raw value.
func formatCreated(raw, layout string) string {
	ts, ok := parseCreated(raw)
	if !ok {
		return raw
	}
	return ts.Format(layout)
}
