// Package scrape collects credit-rating documents from a company's public
// profile page.
package scrape

import (
	"context"
)

// Renderer prints a web page to PDF.
type Renderer interface {
	RenderPDF(ctx context.Context, url string) ([]byte, error)
}

// RatingLink is one document listed in the credit ratings section.
type RatingLink struct {
	URL      string
	Label    string
	Filename string
}
