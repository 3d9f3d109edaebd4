package history

import (
	"sort"

	"github.com/rverma/hyperliquid-data/internal/model"
)

// MergeRecords returns the union of existing and page, unique by timestamp
// and sorted ascending. Overlap at page boundaries is collapsed; the existing
// record wins on a timestamp collision (stored history is immutable).
func MergeRecords(existing, page []model.FundingRecord) []model.FundingRecord {
	if len(page) == 0 {
		return existing
	}

	merged := make([]model.FundingRecord, 0, len(existing)+len(page))
	seen := make(map[int64]struct{}, len(existing)+len(page))

	for _, r := range existing {
		if _, dup := seen[r.Time]; dup {
			continue
		}
		seen[r.Time] = struct{}{}
		merged = append(merged, r)
	}
	for _, r := range page {
		if _, dup := seen[r.Time]; dup {
			continue
		}
		seen[r.Time] = struct{}{}
		merged = append(merged, r)
	}

	sort.Slice(merged, func(i, j int) bool { return merged[i].Time < merged[j].Time })
	return merged
}
