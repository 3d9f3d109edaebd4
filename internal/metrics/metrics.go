package metrics

import "github.com/rverma/hyperliquid-data/internal/model"

// APR conversion: hourly funding fraction to annualized percent.
const aprMultiplier = 24 * 365 * 100

// Window spans in milliseconds, matching FundingRecord timestamps.
const (
	day   int64 = 24 * 60 * 60 * 1000
	week        = 7 * day
	month       = 30 * day
)

// Metrics summarizes one symbol's funding history. Pointer fields are nil
// when the underlying window holds no records; an empty window is not a
// zero average.
type Metrics struct {
	Coin           string   `json:"coin"`
	CurrentFunding *float64 `json:"currentFunding"`
	CurrentAPR     *float64 `json:"currentApr"`
	Avg24h         *float64 `json:"avg24h"`
	Avg7d          *float64 `json:"avg7d"`
	Avg30d         *float64 `json:"avg30d"`
	AvgAll         *float64 `json:"avgAll"`
	Periods        int      `json:"periods"`
}

// Compute derives Metrics from a series. It is deterministic and leaves the
// series untouched. A nil or empty series yields nil rates and zero periods.
func Compute(series *model.FundingSeries) Metrics {
	if series == nil || len(series.History) == 0 {
		if series != nil {
			return Metrics{Coin: series.Coin}
		}
		return Metrics{}
	}

	latest := series.History[len(series.History)-1]
	current := latest.Rate
	apr := current * aprMultiplier

	return Metrics{
		Coin:           series.Coin,
		CurrentFunding: &current,
		CurrentAPR:     &apr,
		Avg24h:         windowMean(series.History, latest.Time-day),
		Avg7d:          windowMean(series.History, latest.Time-week),
		Avg30d:         windowMean(series.History, latest.Time-month),
		AvgAll:         windowMean(series.History, 0),
		Periods:        len(series.History),
	}
}

// windowMean averages the rates of records at or after cutoff. Records are
// sorted ascending, so the window is the tail of the slice.
func windowMean(history []model.FundingRecord, cutoff int64) *float64 {
	start := len(history)
	for start > 0 && history[start-1].Time >= cutoff {
		start--
	}
	if start == len(history) {
		return nil
	}

	var sum float64
	for _, r := range history[start:] {
		sum += r.Rate
	}
	mean := sum / float64(len(history)-start)
	return &mean
}
