package market

import (
	"strings"

	"github.com/rverma/hyperliquid-data/internal/model"
)

// TradFiSet is the injected set of known traditional-finance symbols, matched
// against the namespace-stripped name.
type TradFiSet map[string]struct{}

// NewTradFiSet builds a set from a symbol list, case-insensitively.
func NewTradFiSet(symbols []string) TradFiSet {
	set := make(TradFiSet, len(symbols))
	for _, s := range symbols {
		set[strings.ToUpper(s)] = struct{}{}
	}
	return set
}

// Contains reports whether name (already namespace-stripped) is a known
// TradFi symbol.
func (s TradFiSet) Contains(name string) bool {
	_, ok := s[strings.ToUpper(name)]
	return ok
}

// Categorize classifies a raw symbol:
//   - known TradFi name, from any venue -> TradFi
//   - bare (non-namespaced) symbol -> Perps
//   - anything else -> HIP3
func Categorize(symbol string, tradfi TradFiSet) model.Category {
	if tradfi.Contains(model.DisplayName(symbol)) {
		return model.CategoryTradFi
	}
	if !strings.Contains(symbol, model.NamespaceSeparator) {
		return model.CategoryPerps
	}
	return model.CategoryHIP3
}

// Dedupe keeps exactly one instrument per display name: the first occurrence
// in input order wins. Callers order the input primary venue first, then
// auxiliary venues in discovery order, which makes the primary instance win
// whenever it exists and drops crypto re-listings on auxiliary venues.
func Dedupe(instruments []model.Instrument) []model.Instrument {
	seen := make(map[string]struct{}, len(instruments))
	out := make([]model.Instrument, 0, len(instruments))
	for _, inst := range instruments {
		if _, dup := seen[inst.DisplayName]; dup {
			continue
		}
		seen[inst.DisplayName] = struct{}{}
		out = append(out, inst)
	}
	return out
}
