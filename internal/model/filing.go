package model

import "strings"

// Filing is one announcement record from the exchange disclosure feed.
type Filing struct {
	Symbol         string `json:"symbol,omitempty"`
	CompanyName    string `json:"sm_name,omitempty"`
	Description    string `json:"desc"`
	AttachmentText string `json:"attchmntText"`
	AttachmentURL  string `json:"attchmntFile,omitempty"`
	AnnouncedAt    string `json:"an_dt"`
	SortDate       string `json:"sort_date,omitempty"`
}

// HasAttachment reports whether the filing carries a downloadable document.
func (f Filing) HasAttachment() bool {
	return strings.TrimSpace(f.AttachmentURL) != ""
}

// CompanyMeta is the exchange's metadata record for a listed symbol.
type CompanyMeta struct {
	Symbol      string `json:"symbol"`
	CompanyName string `json:"companyName"`
	Industry    string `json:"industry,omitempty"`
	ISIN        string `json:"isin,omitempty"`
}
