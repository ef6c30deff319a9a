package forum

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
)

const (
	referenceDateLayout = "Jan 02, 2006"
	maxTitleRunes       = 100
)

// References lists the external links cited in a thread as markdown,
// grouped by post. Discourse's recorded links are used when present;
// otherwise links are read from the post bodies. Links back to the forum
// itself are left out.
func References(t *Thread) (string, error) {
	title := t.Title
	if title == "" {
		title = "ValuePickr Thread"
	}

	byPost := recordedLinks(t)
	if len(t.Links) == 0 {
		var err error
		if byPost, err = cookedLinks(t); err != nil {
			return "", err
		}
	}
	if len(byPost) == 0 {
		return "# References for " + title + "\n\nNo external references found in this thread.", nil
	}

	nums := make([]int, 0, len(byPost))
	for n := range byPost {
		nums = append(nums, n)
	}
	sort.Ints(nums)

	var b strings.Builder
	fmt.Fprintf(&b, "# References for %s\n\n", title)
	for _, n := range nums {
		header := fmt.Sprintf("## Post #%d", n)
		if p, ok := t.PostByNumber(n); ok && p.CreatedAt != "" {
			header += " (" + formatCreated(p.CreatedAt, referenceDateLayout) + ")"
		}
		b.WriteString(header + "\n")
		fmt.Fprintf(&b, "[View Post](%s)\n\n", t.PostURL(n))

		for _, l := range byPost[n] {
			label := l.Title
			if strings.TrimSpace(label) == "" {
				label = l.URL
			}
			line := fmt.Sprintf("- [%s](%s)", shortTitle(label), l.URL)
			if l.Clicks > 0 {
				line += fmt.Sprintf(" (Clicks: %d)", l.Clicks)
			}
			b.WriteString(line + "\n")
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func shortTitle(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) > maxTitleRunes {
		return string(r[:maxTitleRunes]) + "..."
	}
	return s
}

func forumHost(t *Thread) string {
	u, err := url.Parse(t.BaseURL)
	if err != nil {
		return ""
	}
	return u.Host
}

func isForumLink(t *Thread, href string) bool {
	host := forumHost(t)
	return host != "" && strings.Contains(href, host)
}

// recordedLinks groups Discourse's link records by post number. Links
// without a post number land under 0.
func recordedLinks(t *Thread) map[int][]Link {
	out := make(map[int][]Link)
	for _, l := range t.Links {
		if l.Internal || l.Reflection || isForumLink(t, l.URL) {
			continue
		}
		out[l.PostNumber] = append(out[l.PostNumber], l)
	}
	return out
}

// cookedLinks extracts absolute http(s) links from visible post bodies,
// once per post.
func cookedLinks(t *Thread) (map[int][]Link, error) {
	out := make(map[int][]Link)
	for _, p := range t.Posts {
		if p.Hidden || strings.TrimSpace(p.Cooked) == "" {
			continue
		}
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(p.Cooked))
		if err != nil {
			return nil, eris.Wrapf(err, "forum: parse post %d", p.PostNumber)
		}
		seen := make(map[string]bool)
		doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
			href, _ := a.Attr("href")
			href = strings.TrimSpace(href)
			if !strings.HasPrefix(href, "http") || seen[href] || isForumLink(t, href) {
				return
			}
			seen[href] = true
			label := strings.TrimSpace(a.Text())
			if label == "" {
				label = "Link"
			}
			out[p.PostNumber] = append(out[p.PostNumber], Link{URL: href, Title: label, PostNumber: p.PostNumber})
		})
	}
	return out, nil
}
