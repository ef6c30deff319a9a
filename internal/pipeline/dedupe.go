package pipeline

import (
	"os"

	"github.com/rotisserie/eris"

	"github.com/sells-group/filings-cli/internal/fetcher"
)

// Deduper tracks file names already present in one destination folder.
// It is seeded from the folder listing and grows as files land; nothing is
// persisted between runs.
type Deduper struct {
	seen map[string]struct{}
}

// NewDeduper lists dir. A missing dir yields an empty set.
func NewDeduper(dir string) (*Deduper, error) {
	d := &Deduper{seen: make(map[string]struct{})}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return d, nil
		}
		return nil, eris.Wrapf(err, "pipeline: list %s", dir)
	}
	for _, e := range entries {
		d.seen[e.Name()] = struct{}{}
	}
	return d, nil
}

// Seen reports whether name is already present.
func (d *Deduper) Seen(name string) bool {
	_, ok := d.seen[name]
	return ok
}

// Add marks name as present.
func (d *Deduper) Add(name string) {
	d.seen[name] = struct{}{}
}

// Len returns the number of known names.
func (d *Deduper) Len() int {
	return len(d.seen)
}

// FilenameFromURL returns the final path segment of a document URL, the
// name the feed client saves it under.
func FilenameFromURL(raw string) string {
	return fetcher.FilenameFromURL(raw)
}
