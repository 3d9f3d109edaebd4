package api

import (
	"strconv"
	"strings"

	"github.com/rverma/hyperliquid-data/internal/model"
)

// ParseDecimal parses an upstream decimal string. Returns 0 for empty or
// malformed input; the upstream omits fields rather than sending garbage.
func ParseDecimal(s string) float64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

// ToRecord converts a fundingHistory row to a model record.
func (e FundingHistoryEntry) ToRecord() model.FundingRecord {
	return model.FundingRecord{
		Time: e.Time,
		Rate: ParseDecimal(e.FundingRate),
	}
}

// Instruments zips a snapshot's parallel arrays into raw instruments tagged
// with the given venue. Symbols from auxiliary venues are namespaced as
// "venue:NAME" unless the upstream already did so. Delisted assets are
// skipped.
func (m *MetaAndAssetCtxs) Instruments(venue string) []model.Instrument {
	out := make([]model.Instrument, 0, len(m.Universe))
	for i, meta := range m.Universe {
		if meta.IsDelisted {
			continue
		}

		symbol := meta.Name
		if venue != "" && !strings.Contains(symbol, model.NamespaceSeparator) {
			symbol = venue + model.NamespaceSeparator + symbol
		}

		ctx := m.Ctxs[i]
		out = append(out, model.Instrument{
			Symbol:       symbol,
			DisplayName:  model.DisplayName(symbol),
			Venue:        venue,
			FundingRate:  ParseDecimal(ctx.Funding),
			OpenInterest: ParseDecimal(ctx.OpenInterest),
			Volume24h:    ParseDecimal(ctx.DayNtlVlm),
			MarkPrice:    ParseDecimal(ctx.MarkPx),
			MaxLeverage:  meta.MaxLeverage,
		})
	}
	return out
}
