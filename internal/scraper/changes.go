package scraper

import (
	"time"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// ChangeSummary describes how content differs from the previous scrape of
// the same URL. Counts are in runes.
type ChangeSummary struct {
	Changed           bool      `json:"changed"`
	Inserted          int       `json:"inserted"`
	Deleted           int       `json:"deleted"`
	Equal             int       `json:"equal"`
	PreviousFetchedAt time.Time `json:"previous_fetched_at,omitzero"`
}

// CompareContent diffs prev against cur at character level.
func CompareContent(prev, cur string, prevFetchedAt time.Time) *ChangeSummary {
	sum := &ChangeSummary{PreviousFetchedAt: prevFetchedAt}
	if prev == cur {
		sum.Equal = utf8.RuneCountInString(cur)
		return sum
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(prev, cur, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	for _, d := range diffs {
		n := utf8.RuneCountInString(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			sum.Inserted += n
		case diffmatchpatch.DiffDelete:
			sum.Deleted += n
		case diffmatchpatch.DiffEqual:
			sum.Equal += n
		}
	}
	sum.Changed = sum.Inserted > 0 || sum.Deleted > 0
	return sum
}
