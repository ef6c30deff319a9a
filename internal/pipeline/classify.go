package pipeline

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/sells-group/filings-cli/internal/model"
)

const (
	descConCall               = "analysts/institutional investor meet/con. call updates"
	descInvestorPresentation  = "investor presentation"
	descPressRelease          = "press release"
	descPressReleaseRevised   = "press release (revised)"
	descCreditRating          = "credit rating"
	descRelatedPartyTxn       = "related party transaction"
	descRelatedPartyTxnPlural = "related party transactions"
)

var fold = cases.Fold()

func normalize(s string) string {
	return fold.String(strings.TrimSpace(s))
}

// Matches reports whether a filing belongs to the category. Filings without
// an attachment never match. Categories with bespoke fetch logic
// (annual_reports, issue_documents) have no predicate and never match.
func Matches(key model.CategoryKey, f model.Filing) bool {
	if !f.HasAttachment() {
		return false
	}

	desc := normalize(f.Description)
	switch key {
	case model.CategoryTranscripts:
		return desc == descConCall &&
			strings.Contains(fold.String(f.AttachmentText), "transcript")
	case model.CategoryInvestorPresentations:
		return desc == descInvestorPresentation
	case model.CategoryPressReleases:
		return desc == descPressRelease || desc == descPressReleaseRevised
	case model.CategoryCreditRating:
		return desc == descCreditRating
	case model.CategoryRelatedPartyTxns:
		return desc == descRelatedPartyTxn || desc == descRelatedPartyTxnPlural
	case model.CategoryAnnualReports, model.CategoryIssueDocuments:
		return false
	}
	return false
}

// Filter returns the filings matching key, in input order.
func Filter(key model.CategoryKey, filings []model.Filing) []model.Filing {
	var out []model.Filing
	for _, f := range filings {
		if Matches(key, f) {
			out = append(out, f)
		}
	}
	return out
}
