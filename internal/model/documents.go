package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FlexString decodes a JSON string, number or null into a string. Feed
// payloads are inconsistent about quoting years and identifiers.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = FlexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("flexstring: unsupported value %s", string(data))
	}
	*s = FlexString(n.String())
	return nil
}

// String returns the trimmed value.
func (s FlexString) String() string {
	return strings.TrimSpace(string(s))
}

// AnnualReportDoc describes one annual report published by the exchange.
type AnnualReportDoc struct {
	CompanyName string     `json:"companyName,omitempty"`
	FromYr      FlexString `json:"fromYr,omitempty"`
	ToYr        FlexString `json:"toYr,omitempty"`
	FileName    string     `json:"fileName,omitempty"`
	URL         string     `json:"url,omitempty"`
	FileURL     string     `json:"fileUrl,omitempty"`
	DocumentURL string     `json:"documentUrl,omitempty"`
}

// ResolveURL returns the first non-empty of fileName, url, fileUrl and
// documentUrl.
func (d AnnualReportDoc) ResolveURL() string {
	for _, u := range []string{d.FileName, d.URL, d.FileURL, d.DocumentURL} {
		if u = strings.TrimSpace(u); u != "" {
			return u
		}
	}
	return ""
}

// ToYear parses toYr. ok is false when it is blank or not an integer.
func (d AnnualReportDoc) ToYear() (year int, ok bool) {
	raw := d.ToYr.String()
	if raw == "" {
		return 0, false
	}
	y, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return y, true
}

// AnnualReports groups annual report documents under the feed's keys
// (usually a year label or "data").
type AnnualReports map[string][]AnnualReportDoc

// IssueDocSpec configures one issue-document endpoint.
type IssueDocSpec struct {
	Key              string            `yaml:"key" json:"key"`
	Label            string            `yaml:"label" json:"label"`
	APIPath          string            `yaml:"api_path" json:"api_path"`
	APIParams        map[string]string `yaml:"api_params" json:"api_params,omitempty"`
	AttachmentFields []string          `yaml:"attachment_fields" json:"attachment_fields"`
	Subfolder        string            `yaml:"subfolder" json:"subfolder"`
	SymbolReliable   bool              `yaml:"symbol_reliable" json:"symbol_reliable"`
}

// IssueRecord is one untyped record returned by an issue-document endpoint.
type IssueRecord map[string]any

// Field returns the named field as a trimmed string. Non-string scalars are
// formatted; missing and null fields are empty.
func (r IssueRecord) Field(name string) string {
	v, ok := r[name]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}
