package scrape

import (
	"net/url"
	"strings"
)

const icraPDFTemplate = "https://www.icra.in/Rating/ShowRationalReportFilePdf/"

// ICRAPDFURL rewrites an ICRA rationale viewer link to the agency's direct
// PDF endpoint. ok is false when raw is not a viewer link with a numeric Id.
func ICRAPDFURL(raw string) (string, bool) {
	if !strings.Contains(raw, "icra.in") || !strings.Contains(raw, "ShowRationaleReport") {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	id := strings.TrimSpace(u.Query().Get("Id"))
	if id == "" || strings.TrimLeft(id, "0123456789") != "" {
		return "", false
	}
	return icraPDFTemplate + id, true
}
