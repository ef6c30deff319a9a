package forum

import (
	"bytes"
	"context"
	"html/template"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/sells-group/filings-cli/internal/fetcher"
)

const postDateLayout = "January 02, 2006 at 03:04 PM"

// Printer turns an HTML document into PDF bytes.
type Printer interface {
	PrintHTML(ctx context.Context, html string) ([]byte, error)
}

var threadTemplate = template.Must(template.New("thread").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
@page { size: A4; margin: 20mm; }
body { font-family: Georgia, "Times New Roman", Times, serif; line-height: 1.6; color: #1a1a1a; font-size: 16px; }
h1 { font-family: -apple-system, "Segoe UI", Roboto, Helvetica, Arial, sans-serif; font-size: 28px; color: #2c3e50; border-bottom: 2px solid #eee; padding-bottom: 10px; margin-bottom: 30px; }
.post { margin-bottom: 30px; padding-bottom: 20px; border-bottom: 1px solid #eee; page-break-inside: avoid; }
.post-header { margin-bottom: 15px; color: #7f8c8d; font-size: 12px; font-weight: 500; }
.post-content { font-size: 14px; }
.post-content img { max-width: 100%; height: auto; margin: 10px 0; border: 1px solid #eee; border-radius: 4px; }
blockquote { border-left: 4px solid #ddd; margin: 0; padding-left: 15px; color: #666; }
code { background: #f4f4f4; padding: 2px 4px; border-radius: 3px; font-family: monospace; }
pre { background: #f4f4f4; padding: 10px; border-radius: 5px; overflow-x: auto; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<div class="thread-container">
{{- range .Posts}}
<div class="post">
<div class="post-header">{{.Date}}</div>
<div class="post-content">{{.Content}}</div>
</div>
{{- end}}
</div>
</body>
</html>
`))

type htmlPost struct {
	Date    string
	Content template.HTML
}

// HTML renders the visible posts of a thread as a standalone document.
// Post bodies are the forum's own rendered HTML and are embedded as is.
func HTML(t *Thread) (string, error) {
	title := t.Title
	if title == "" {
		title = "ValuePickr Thread"
	}
	data := struct {
		Title string
		Posts []htmlPost
	}{Title: title}
	for _, p := range t.Posts {
		if p.Hidden {
			continue
		}
		data.Posts = append(data.Posts, htmlPost{
			Date:    formatCreated(p.CreatedAt, postDateLayout),
			Content: template.HTML(p.Cooked), //nolint:gosec
		})
	}

	var buf bytes.Buffer
	if err := threadTemplate.Execute(&buf, data); err != nil {
		return "", eris.Wrap(err, "forum: render html")
	}
	return buf.String(), nil
}

// PDFName returns the file name a thread's PDF is saved under.
func PDFName(slug string) string {
	return slug + "_valuepickr_forum.pdf"
}

// ReferencesName returns the file name a thread's reference list is saved under.
func ReferencesName(slug string) string {
	return slug + "_ValuePickr_references.md"
}

// SavePDF prints the thread and writes <dir>/<slug>_valuepickr_forum.pdf.
func SavePDF(ctx context.Context, p Printer, t *Thread, dir string) (string, error) {
	html, err := HTML(t)
	if err != nil {
		return "", err
	}
	pdf, err := p.PrintHTML(ctx, html)
	if err != nil {
		return "", eris.Wrap(err, "forum: print thread")
	}
	path := filepath.Join(dir, PDFName(t.Slug))
	if _, err := fetcher.WriteFileAtomic(path, bytes.NewReader(pdf)); err != nil {
		return "", eris.Wrap(err, "forum: write pdf")
	}
	return path, nil
}

// SaveReferences writes <dir>/<slug>_ValuePickr_references.md.
func SaveReferences(t *Thread, dir string) (string, error) {
	md, err := References(t)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, ReferencesName(t.Slug))
	if err := os.WriteFile(path, []byte(md), 0o644); err != nil {
		return "", eris.Wrap(err, "forum: write references")
	}
	return path, nil
}
