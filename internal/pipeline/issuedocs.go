package pipeline

import (
	"context"
	_ "embed"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/filings-cli/internal/fetcher"
	"github.com/sells-group/filings-cli/internal/model"
)

const issueDocsFolder = "issue_documents"

//go:embed issue_docs.yaml
var defaultIssueDocsYAML []byte

type issueDocsFile struct {
	IssueDocs []model.IssueDocSpec `yaml:"issue_docs"`
}

// DefaultIssueDocSpecs returns the built-in issue-document endpoints.
func DefaultIssueDocSpecs() []model.IssueDocSpec {
	specs, err := ParseIssueDocSpecs(defaultIssueDocsYAML)
	if err != nil {
		panic(err)
	}
	return specs
}

// LoadIssueDocSpecs reads endpoint specs from path, or the built-in list
// when path is empty.
func LoadIssueDocSpecs(path string) ([]model.IssueDocSpec, error) {
	if path == "" {
		return DefaultIssueDocSpecs(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: read issue doc specs %s", path)
	}
	return ParseIssueDocSpecs(data)
}

// ParseIssueDocSpecs decodes and validates an issue_docs YAML document.
func ParseIssueDocSpecs(data []byte) ([]model.IssueDocSpec, error) {
	var f issueDocsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "pipeline: parse issue doc specs")
	}
	if len(f.IssueDocs) == 0 {
		return nil, eris.New("pipeline: no issue doc specs defined")
	}

	keys := make(map[string]bool, len(f.IssueDocs))
	for i := range f.IssueDocs {
		spec := &f.IssueDocs[i]
		switch {
		case spec.Key == "":
			return nil, eris.Errorf("pipeline: issue doc spec %d has no key", i)
		case spec.Label == "":
			return nil, eris.Errorf("pipeline: issue doc spec %s has no label", spec.Key)
		case spec.APIPath == "":
			return nil, eris.Errorf("pipeline: issue doc spec %s has no api_path", spec.Key)
		case len(spec.AttachmentFields) == 0:
			return nil, eris.Errorf("pipeline: issue doc spec %s has no attachment_fields", spec.Key)
		case keys[spec.Key]:
			return nil, eris.Errorf("pipeline: duplicate issue doc spec %s", spec.Key)
		}
		keys[spec.Key] = true
		if spec.Subfolder == "" {
			spec.Subfolder = spec.Key
		}
		if spec.APIParams == nil {
			spec.APIParams = map[string]string{}
		}
	}
	return f.IssueDocs, nil
}

// placeholderAttachment reports values the feed uses for "no document".
func placeholderAttachment(v string) bool {
	return v == "" || v == "-" || strings.EqualFold(v, "null")
}

// MatchIssueRecord reports whether rec belongs to the company. Reliable
// endpoints compare the symbol field; the rest fall back to case-insensitive
// containment of the company name in either direction. A blank name on
// either side never matches.
func MatchIssueRecord(spec model.IssueDocSpec, rec model.IssueRecord, symbol, companyName string) bool {
	if spec.SymbolReliable {
		return strings.EqualFold(rec.Field("symbol"), strings.TrimSpace(symbol))
	}

	name := normalize(companyName)
	company := normalize(rec.Field("company"))
	if name == "" || company == "" {
		return false
	}
	return strings.Contains(company, name) || strings.Contains(name, company)
}

// downloadIssueDocuments queries every endpoint spec and downloads each
// attachment of every matching record. The returned counts hold every spec
// label, zero when nothing was found. The counts are valid even when an
// error is returned.
func (s *Service) downloadIssueDocuments(ctx context.Context, log *zap.Logger, symbol, root string) (*model.CategoryCounts, error) {
	counts := model.NewCategoryCounts()
	for _, spec := range s.issueDocs {
		counts.Set(spec.Label, 0)
	}

	issueDir := filepath.Join(root, issueDocsFolder)
	if err := os.MkdirAll(issueDir, 0o755); err != nil {
		return counts, eris.Wrapf(err, "pipeline: create %s", issueDir)
	}

	companyName := s.resolveCompanyName(ctx, log, symbol)

	for _, spec := range s.issueDocs {
		specLog := log.With(zap.String("issue_doc", spec.Key))

		raw, err := s.feed.Get(ctx, spec.APIPath, spec.APIParams)
		if err != nil {
			specLog.Warn("pipeline: issue doc endpoint failed", zap.Error(err))
			continue
		}
		records, err := fetcher.DecodeJSONRecords[model.IssueRecord](raw)
		if err != nil {
			specLog.Warn("pipeline: issue doc response not decodable", zap.Error(err))
			continue
		}
		if len(records) == 0 {
			specLog.Info("pipeline: no issue doc records returned")
			continue
		}

		var matching []model.IssueRecord
		for _, rec := range records {
			if MatchIssueRecord(spec, rec, symbol, companyName) {
				matching = append(matching, rec)
			}
		}
		if len(matching) == 0 {
			specLog.Info("pipeline: no issue docs for company")
			continue
		}

		dir := filepath.Join(issueDir, spec.Subfolder)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			specLog.Error("pipeline: issue doc folder unavailable", zap.String("dir", dir), zap.Error(err))
			continue
		}

		n := 0
		for _, rec := range matching {
			for _, field := range spec.AttachmentFields {
				u := rec.Field(field)
				if placeholderAttachment(u) {
					continue
				}
				if _, err := s.feed.DownloadAndExtract(ctx, u, dir); err != nil {
					logSkip(specLog, "pipeline: issue doc download failed", u, err)
					continue
				}
				n++
			}
		}
		counts.Set(spec.Label, n)
		specLog.Info("pipeline: issue docs downloaded", zap.Int("count", n))
	}
	return counts, nil
}

func (s *Service) resolveCompanyName(ctx context.Context, log *zap.Logger, symbol string) string {
	meta, err := s.feed.CompanyMeta(ctx, symbol)
	if err != nil || meta == nil {
		log.Warn("pipeline: company name lookup failed", zap.Error(err))
		return ""
	}
	name := strings.TrimSpace(meta.CompanyName)
	log.Info("pipeline: resolved company name", zap.String("company_name", name))
	return name
}
