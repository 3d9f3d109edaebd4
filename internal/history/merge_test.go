package history

import (
	"testing"

	"github.com/rverma/hyperliquid-data/internal/model"
)

func hourly(from, count int) []model.FundingRecord {
	out := make([]model.FundingRecord, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, model.FundingRecord{
			Time: int64(from+i) * 3600_000,
			Rate: 0.0001,
		})
	}
	return out
}

func TestMergeRecords(t *testing.T) {
	t.Run("overlapping pages deduplicate", func(t *testing.T) {
		pageA := hourly(0, 500)   // hours 0..499
		pageB := hourly(400, 500) // hours 400..899

		merged := MergeRecords(pageA, pageB)
		if len(merged) != 900 {
			t.Fatalf("merged length = %d, want 900", len(merged))
		}

		for i := 1; i < len(merged); i++ {
			if merged[i].Time <= merged[i-1].Time {
				t.Fatalf("not strictly ascending at %d: %d <= %d", i, merged[i].Time, merged[i-1].Time)
			}
		}
		if merged[0].Time != 0 || merged[899].Time != 899*3600_000 {
			t.Errorf("bounds = %d..%d", merged[0].Time, merged[899].Time)
		}
	})

	t.Run("existing record wins on collision", func(t *testing.T) {
		existing := []model.FundingRecord{{Time: 1000, Rate: 0.5}}
		page := []model.FundingRecord{{Time: 1000, Rate: 0.9}}

		merged := MergeRecords(existing, page)
		if len(merged) != 1 || merged[0].Rate != 0.5 {
			t.Errorf("merged = %+v, want the stored record kept", merged)
		}
	})

	t.Run("empty page is a no-op", func(t *testing.T) {
		existing := hourly(0, 3)
		merged := MergeRecords(existing, nil)
		if len(merged) != 3 {
			t.Errorf("merged length = %d, want 3", len(merged))
		}
	})

	t.Run("out-of-order input gets sorted", func(t *testing.T) {
		page := []model.FundingRecord{{Time: 3000}, {Time: 1000}, {Time: 2000}}
		merged := MergeRecords(nil, page)
		if merged[0].Time != 1000 || merged[2].Time != 3000 {
			t.Errorf("merged = %+v, want ascending", merged)
		}
	})
}
