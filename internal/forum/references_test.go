package forum

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleThread() *Thread {
	return &Thread{
		ID:      77,
		Slug:    "acme-corp",
		Title:   "Acme Corp",
		BaseURL: "https://forum.valuepickr.com",
		Posts: []Post{
			{ID: 1, PostNumber: 1, CreatedAt: "2024-03-05T09:30:00.000Z", Cooked: "<p>first</p>"},
			{ID: 2, PostNumber: 4, CreatedAt: "2024-04-01T18:15:00.000Z", Cooked: "<p>second</p>"},
		},
	}
}

func TestReferences_RecordedLinks(t *testing.T) {
	t.Parallel()

	th := sampleThread()
	th.Links = []Link{
		{URL: "https://example.com/report", Title: "Annual\nReport", PostNumber: 4, Clicks: 3},
		{URL: "https://example.com/deck", Title: "Deck", PostNumber: 1},
		{URL: "https://forum.valuepickr.com/t/other/1", Title: "Other thread", PostNumber: 1},
		{URL: "https://example.com/internal", PostNumber: 1, Internal: true},
		{URL: "https://example.com/back", PostNumber: 1, Reflection: true},
		{URL: "https://example.com/untitled", PostNumber: 4},
	}

	md, err := References(th)
	require.NoError(t, err)

	want := "# References for Acme Corp\n\n" +
		"## Post #1 (Mar 05, 2024)\n" +
		"[View Post](https://forum.valuepickr.com/t/acme-corp/77/1)\n\n" +
		"- [Deck](https://example.com/deck)\n\n" +
		"## Post #4 (Apr 01, 2024)\n" +
		"[View Post](https://forum.valuepickr.com/t/acme-corp/77/4)\n\n" +
		"- [Annual Report](https://example.com/report) (Clicks: 3)\n" +
		"- [https://example.com/untitled](https://example.com/untitled)"
	assert.Equal(t, want, md)
}

func TestReferences_LongTitleShortened(t *testing.T) {
	t.Parallel()

	th := sampleThread()
	th.Links = []Link{{URL: "https://example.com/x", Title: strings.Repeat("é", 120), PostNumber: 1}}

	md, err := References(th)
	require.NoError(t, err)
	assert.Contains(t, md, "- ["+strings.Repeat("é", 100)+"...](https://example.com/x)")
}

func TestReferences_FromPostBodies(t *testing.T) {
	t.Parallel()

	th := sampleThread()
	th.Posts[0].Cooked = `<p>See <a href="https://example.com/q3">Q3 results</a> and ` +
		`<a href="https://example.com/q3">again</a>, <a href="/u/someone">@someone</a>, ` +
		`<a href="https://forum.valuepickr.com/t/x/2">a thread</a> and <a href="https://example.com/img"><img src="x.png"></a></p>`
	th.Posts[1].Hidden = true
	th.Posts[1].Cooked = `<a href="https://example.com/hidden">hidden</a>`

	md, err := References(th)
	require.NoError(t, err)
	assert.Contains(t, md, "## Post #1 (Mar 05, 2024)")
	assert.Contains(t, md, "- [Q3 results](https://example.com/q3)\n- [Link](https://example.com/img)")
	assert.Equal(t, 1, strings.Count(md, "https://example.com/q3)"))
	assert.NotContains(t, md, "someone")
	assert.NotContains(t, md, "a thread")
	assert.NotContains(t, md, "hidden")
}

func TestReferences_None(t *testing.T) {
	t.Parallel()

	th := sampleThread()
	th.Title = ""
	md, err := References(th)
	require.NoError(t, err)
	assert.Equal(t, "# References for ValuePickr Thread\n\nNo external references found in this thread.", md)
}
