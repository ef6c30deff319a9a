package forum

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func post(id int, created string) string {
	return fmt.Sprintf(`{"id":%d,"post_number":%d,"created_at":%q,"cooked":"<p>post %d</p>"}`, id, id, created, id)
}

func newTestClient(t *testing.T, baseURL string, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithBaseURL(baseURL), WithTimeout(5 * time.Second), WithRequestsPerSecond(100)}, opts...)
	c, err := NewClient(opts...)
	require.NoError(t, err)
	return c
}

func TestParseTopicURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		slug string
		id   int
	}{
		{"https://forum.valuepickr.com/t/hdfc-bank/1234", "hdfc-bank", 1234},
		{"https://forum.valuepickr.com/t/hdfc-bank/1234/56", "hdfc-bank", 1234},
		{"https://forum.valuepickr.com/t/hdfc-bank/1234?page=2", "hdfc-bank", 1234},
	}
	for _, tt := range tests {
		slug, id, err := ParseTopicURL(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.slug, slug)
		assert.Equal(t, tt.id, id)
	}

	for _, bad := range []string{"", "https://forum.valuepickr.com/c/stocks", "https://forum.valuepickr.com/t/slug-only"} {
		_, _, err := ParseTopicURL(bad)
		assert.ErrorIs(t, err, ErrInvalidTopicURL, bad)
	}
}

func TestNewClient_InvalidBaseURL(t *testing.T) {
	t.Parallel()

	_, err := NewClient(WithBaseURL("not a url"))
	require.Error(t, err)
}

func TestThread_FetchesRemainingPostsInBatches(t *testing.T) {
	t.Parallel()

	var batches atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/t/acme-corp/77.json", func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("Accept"), "application/json")
		fmt.Fprintf(w, `{"title":"Acme Corp","post_stream":{"stream":[1,2,3,4,5],"posts":[%s,%s]},`+
			`"details":{"links":[{"url":"https://example.com/a","title":"A","post_number":3,"clicks":2}]}}`,
			post(2, "2024-01-02T10:00:00.000Z"), post(1, "2024-01-01T10:00:00.000Z"))
	})
	mux.HandleFunc("/t/77/posts.json", func(w http.ResponseWriter, r *http.Request) {
		batches.Add(1)
		var items []string
		for _, raw := range r.URL.Query()["post_ids[]"] {
			var id int
			fmt.Sscanf(raw, "%d", &id)
			items = append(items, post(id, fmt.Sprintf("2024-01-%02dT10:00:00.000Z", 10-id)))
		}
		fmt.Fprintf(w, `{"post_stream":{"posts":[%s]}}`, strings.Join(items, ","))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := newTestClient(t, srv.URL, WithBatchSize(2))
	thread, err := c.Thread(context.Background(), srv.URL+"/t/acme-corp/77/3")
	require.NoError(t, err)

	assert.Equal(t, "Acme Corp", thread.Title)
	assert.Equal(t, "acme-corp", thread.Slug)
	assert.Equal(t, 77, thread.ID)
	assert.Equal(t, int32(2), batches.Load())
	require.Len(t, thread.Posts, 5)

	var order []int
	for _, p := range thread.Posts {
		order = append(order, p.ID)
	}
	assert.Equal(t, []int{1, 2, 5, 4, 3}, order, "ordered by created_at")
	require.Len(t, thread.Links, 1)
	assert.Equal(t, 2, thread.Links[0].Clicks)
	assert.Equal(t, srv.URL+"/t/acme-corp/77/3", thread.PostURL(3))
}

func TestThread_FailedBatchSkipped(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/t/acme/9.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"title":"Acme","post_stream":{"stream":[1,2,3],"posts":[%s]}}`, post(1, "2024-01-01T00:00:00Z"))
	})
	mux.HandleFunc("/t/9/posts.json", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("post_ids[]") == "2" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprintf(w, `{"post_stream":{"posts":[%s]}}`, post(3, "2024-01-03T00:00:00Z"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := newTestClient(t, srv.URL, WithBatchSize(1))
	thread, err := c.Thread(context.Background(), srv.URL+"/t/acme/9")
	require.NoError(t, err)
	require.Len(t, thread.Posts, 2)
	assert.Equal(t, 1, thread.Posts[0].ID)
	assert.Equal(t, 3, thread.Posts[1].ID)
}

func TestThread_EmptyStream(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"title":"Quiet","post_stream":{"stream":[],"posts":[]}}`))
	}))
	t.Cleanup(srv.Close)

	thread, err := newTestClient(t, srv.URL).Thread(context.Background(), srv.URL+"/t/quiet/1")
	require.NoError(t, err)
	assert.Equal(t, "Quiet", thread.Title)
	assert.Empty(t, thread.Posts)
}

func TestThread_TopicErrors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/t/broken/") {
			w.Write([]byte(`{"title":`))
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)
	c := newTestClient(t, srv.URL)

	_, err := c.Thread(context.Background(), srv.URL+"/t/missing/5")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch topic 5")

	_, err = c.Thread(context.Background(), srv.URL+"/t/broken/6")
	require.Error(t, err)

	_, err = c.Thread(context.Background(), srv.URL+"/c/stocks")
	assert.ErrorIs(t, err, ErrInvalidTopicURL)
}
