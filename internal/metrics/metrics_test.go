package metrics

import (
	"math"
	"testing"

	"github.com/rverma/hyperliquid-data/internal/model"
)

func approx(t *testing.T, name string, got *float64, want float64) {
	t.Helper()
	if got == nil {
		t.Fatalf("%s = nil, want %v", name, want)
	}
	if math.Abs(*got-want) > 1e-12 {
		t.Errorf("%s = %v, want %v", name, *got, want)
	}
}

func TestCompute_SingleRecord(t *testing.T) {
	series := &model.FundingSeries{
		Coin:    "BTC",
		History: []model.FundingRecord{{Time: 1_700_000_000_000, Rate: 0.0001}},
	}

	m := Compute(series)

	if m.Coin != "BTC" {
		t.Errorf("coin = %q", m.Coin)
	}
	approx(t, "currentFunding", m.CurrentFunding, 0.0001)
	approx(t, "currentApr", m.CurrentAPR, 87.6)
	approx(t, "avg24h", m.Avg24h, 0.0001)
	approx(t, "avg7d", m.Avg7d, 0.0001)
	approx(t, "avg30d", m.Avg30d, 0.0001)
	approx(t, "avgAll", m.AvgAll, 0.0001)
	if m.Periods != 1 {
		t.Errorf("periods = %d, want 1", m.Periods)
	}
}

func TestCompute_EmptySeries(t *testing.T) {
	for name, series := range map[string]*model.FundingSeries{
		"nil":        nil,
		"no history": {Coin: "ETH"},
	} {
		t.Run(name, func(t *testing.T) {
			m := Compute(series)
			for field, v := range map[string]*float64{
				"currentFunding": m.CurrentFunding,
				"currentApr":     m.CurrentAPR,
				"avg24h":         m.Avg24h,
				"avg7d":          m.Avg7d,
				"avg30d":         m.Avg30d,
				"avgAll":         m.AvgAll,
			} {
				if v != nil {
					t.Errorf("%s = %v, want nil", field, *v)
				}
			}
			if m.Periods != 0 {
				t.Errorf("periods = %d, want 0", m.Periods)
			}
		})
	}
}

func TestCompute_WindowsAnchoredToLatest(t *testing.T) {
	const hour = int64(3_600_000)
	latest := int64(1_700_000_000_000)

	// One record per hour for 31 days ending at latest, rate 0.001 inside
	// the final 24h and 0.0005 for everything older.
	var history []model.FundingRecord
	for h := 31 * 24; h >= 0; h-- {
		ts := latest - int64(h)*hour
		rate := 0.0005
		if latest-ts <= 24*hour {
			rate = 0.001
		}
		history = append(history, model.FundingRecord{Time: ts, Rate: rate})
	}
	series := &model.FundingSeries{Coin: "BTC", History: history}

	m := Compute(series)

	// 25 records fall inside the inclusive 24h window.
	approx(t, "avg24h", m.Avg24h, 0.001)
	// 7d window: 169 records, 25 at 0.001 and 144 at 0.0005.
	approx(t, "avg7d", m.Avg7d, (25*0.001+144*0.0005)/169)
	// 30d window: 721 records.
	approx(t, "avg30d", m.Avg30d, (25*0.001+696*0.0005)/721)
	// All-time covers the full 745 records.
	approx(t, "avgAll", m.AvgAll, (25*0.001+720*0.0005)/745)
	if m.Periods != 745 {
		t.Errorf("periods = %d, want 745", m.Periods)
	}
	approx(t, "currentFunding", m.CurrentFunding, 0.001)
}

func TestCompute_NegativeRates(t *testing.T) {
	series := &model.FundingSeries{
		Coin: "SOL",
		History: []model.FundingRecord{
			{Time: 1_000, Rate: -0.0002},
			{Time: 2_000, Rate: 0.0002},
		},
	}

	m := Compute(series)

	approx(t, "currentFunding", m.CurrentFunding, 0.0002)
	approx(t, "avgAll", m.AvgAll, 0)
	approx(t, "currentApr", m.CurrentAPR, 0.0002*24*365*100)
}
