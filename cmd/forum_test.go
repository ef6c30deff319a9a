package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/filings-cli/internal/forum"
)

type fakePrinter struct {
	calls int
	err   error
}

func (f *fakePrinter) PrintHTML(_ context.Context, _ string) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.7"), nil
}

func newForumServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/t/hdfc-bank-ltd/1234.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"title":"HDFC Bank Ltd","post_stream":{"stream":[1,2],"posts":[`+
			`{"id":1,"post_number":1,"created_at":"2024-01-01T10:00:00Z","cooked":"<p>hello</p>"},`+
			`{"id":2,"post_number":2,"created_at":"2024-01-02T10:00:00Z","cooked":"<p>world</p>"}]},`+
			`"details":{"links":[{"url":"https://example.com/ar.pdf","title":"AR","post_number":2}]}}`)
	})
	mux.HandleFunc("/t/empty/1.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"title":"Empty","post_stream":{"stream":[],"posts":[]}}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestExporter(t *testing.T, baseURL string, p forum.Printer) *exporter {
	t.Helper()
	client, err := forum.NewClient(forum.WithBaseURL(baseURL), forum.WithTimeout(5*time.Second), forum.WithRequestsPerSecond(100))
	require.NoError(t, err)
	return &exporter{client: client, printer: p, baseDir: t.TempDir()}
}

func TestExporter_Run(t *testing.T) {
	srv := newForumServer(t)
	p := &fakePrinter{}
	e := newTestExporter(t, srv.URL, p)

	res, err := e.run(context.Background(), srv.URL+"/t/hdfc-bank-ltd/1234", "hdfcbank", "")
	require.NoError(t, err)

	dir := filepath.Join(e.baseDir, "HDFCBANK_valuepickr")
	assert.True(t, res.Success)
	assert.Equal(t, "HDFC Bank Ltd", res.Title)
	assert.Equal(t, 2, res.PostsCount)
	assert.Equal(t, filepath.Join(dir, "hdfc-bank-ltd_valuepickr_forum.pdf"), res.OutputPath)
	assert.Equal(t, filepath.Join(dir, "hdfc-bank-ltd_ValuePickr_references.md"), res.ReferencesPath)
	assert.Equal(t, 1, p.calls)

	refs, err := os.ReadFile(res.ReferencesPath)
	require.NoError(t, err)
	assert.Contains(t, string(refs), "- [AR](https://example.com/ar.pdf)")
}

func TestExporter_Run_SlugFolderAndOutput(t *testing.T) {
	srv := newForumServer(t)
	e := newTestExporter(t, srv.URL, &fakePrinter{})

	res, err := e.run(context.Background(), srv.URL+"/t/hdfc-bank-ltd/1234", "", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(e.baseDir, "hdfc-bank-ltd_valuepickr"), filepath.Dir(res.OutputPath))

	custom := filepath.Join(t.TempDir(), "threads", "hdfc")
	res, err = e.run(context.Background(), srv.URL+"/t/hdfc-bank-ltd/1234", "HDFCBANK", custom)
	require.NoError(t, err)
	assert.Equal(t, custom, filepath.Dir(res.OutputPath))
	assert.FileExists(t, res.OutputPath)
}

func TestExporter_Run_Errors(t *testing.T) {
	srv := newForumServer(t)

	e := newTestExporter(t, srv.URL, &fakePrinter{})
	_, err := e.run(context.Background(), "https://forum.valuepickr.com/c/stocks", "", "")
	assert.ErrorIs(t, err, forum.ErrInvalidTopicURL)

	_, err = e.run(context.Background(), srv.URL+"/t/empty/1", "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no posts found")
	assert.NoDirExists(t, filepath.Join(e.baseDir, "empty_valuepickr"))

	e = newTestExporter(t, srv.URL, &fakePrinter{err: errors.New("chrome not found")})
	_, err = e.run(context.Background(), srv.URL+"/t/hdfc-bank-ltd/1234", "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chrome not found")
}

func TestPrintForumResult(t *testing.T) {
	var buf bytes.Buffer
	printForumResult(&buf, &forumResult{Title: "HDFC Bank Ltd", PostsCount: 2, OutputPath: "/x/a.pdf", ReferencesPath: "/x/a.md"})
	assert.Contains(t, buf.String(), "Exported HDFC Bank Ltd")
	assert.Contains(t, buf.String(), "Posts: 2")
	assert.Contains(t, buf.String(), "References: /x/a.md")

	var js bytes.Buffer
	require.NoError(t, writeJSON(&js, &forumResult{Success: true, Title: "T", PostsCount: 1, OutputPath: "/x/a.pdf"}))
	var m map[string]any
	require.NoError(t, json.Unmarshal(js.Bytes(), &m))
	for _, k := range []string{"success", "title", "posts_count", "output_path", "references_path"} {
		assert.Contains(t, m, k)
	}
}

func TestForumCommand_Flags(t *testing.T) {
	for _, name := range []string{"symbol", "output", "json"} {
		assert.NotNil(t, forumCmd.Flags().Lookup(name), "forum should have --%s flag", name)
	}
	assert.Equal(t, "s", forumCmd.Flags().Lookup("symbol").Shorthand)
	assert.Equal(t, "o", forumCmd.Flags().Lookup("output").Shorthand)
}
