package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// CategoryKey identifies a document category.
type CategoryKey string

const (
	CategoryTranscripts           CategoryKey = "transcripts"
	CategoryInvestorPresentations CategoryKey = "investor_presentations"
	CategoryPressReleases         CategoryKey = "press_releases"
	CategoryCreditRating          CategoryKey = "credit_rating"
	CategoryRelatedPartyTxns      CategoryKey = "related_party_txns"
	CategoryAnnualReports         CategoryKey = "annual_reports"
	CategoryIssueDocuments        CategoryKey = "issue_documents"
)

// AllCategories returns every category in processing order.
func AllCategories() []CategoryKey {
	return []CategoryKey{
		CategoryTranscripts,
		CategoryInvestorPresentations,
		CategoryPressReleases,
		CategoryCreditRating,
		CategoryRelatedPartyTxns,
		CategoryAnnualReports,
		CategoryIssueDocuments,
	}
}

// Label returns the singular human-readable name used in download counts.
func (k CategoryKey) Label() string {
	switch k {
	case CategoryTranscripts:
		return "transcript"
	case CategoryInvestorPresentations:
		return "investor presentation"
	case CategoryPressReleases:
		return "press release"
	case CategoryCreditRating:
		return "credit rating"
	case CategoryRelatedPartyTxns:
		return "related party transaction"
	case CategoryAnnualReports:
		return "annual report"
	case CategoryIssueDocuments:
		return "issue document"
	}
	return string(k)
}

// Folder returns the subfolder name documents of this category land in.
func (k CategoryKey) Folder() string {
	return string(k)
}

// ConfigKey returns the option name the category is toggled by.
func (k CategoryKey) ConfigKey() string {
	return "download_" + string(k)
}

// Valid reports whether k is a known category.
func (k CategoryKey) Valid() bool {
	for _, c := range AllCategories() {
		if c == k {
			return true
		}
	}
	return false
}

// ParseCategoryKey parses a category key, ignoring case and surrounding space.
func ParseCategoryKey(s string) (CategoryKey, error) {
	k := CategoryKey(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", eris.Errorf("model: unknown category %q", s)
	}
	return k, nil
}

// ParseCategoryList parses "all" or a comma-separated list of category keys.
// Unknown keys are collected into a single error.
func ParseCategoryList(s string) ([]CategoryKey, error) {
	if strings.EqualFold(strings.TrimSpace(s), "all") {
		return AllCategories(), nil
	}

	var (
		keys    []CategoryKey
		invalid []string
	)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k, err := ParseCategoryKey(part)
		if err != nil {
			invalid = append(invalid, part)
			continue
		}
		keys = append(keys, k)
	}

	if len(invalid) > 0 {
		valid := make([]string, 0, len(AllCategories()))
		for _, c := range AllCategories() {
			valid = append(valid, string(c))
		}
		return nil, eris.Errorf("invalid categories: %s. Valid: %s",
			strings.Join(invalid, ", "), strings.Join(valid, ", "))
	}
	if len(keys) == 0 {
		return nil, eris.New("no categories selected")
	}
	return keys, nil
}

// CategorySet is the set of categories enabled for a run.
type CategorySet map[CategoryKey]bool

// NewCategorySet builds a set from keys.
func NewCategorySet(keys ...CategoryKey) CategorySet {
	s := make(CategorySet, len(keys))
	for _, k := range keys {
		s[k] = true
	}
	return s
}

// Enabled reports whether k is in the set.
func (s CategorySet) Enabled(k CategoryKey) bool {
	return s[k]
}
