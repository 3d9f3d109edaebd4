package model

import "strings"

// NamespaceSeparator splits an auxiliary venue tag from an asset name.
const NamespaceSeparator = ":"

// Category classifies an instrument by origin and asset class.
type Category string

const (
	// CategoryPerps is a crypto perpetual on the primary venue.
	CategoryPerps Category = "Perps"
	// CategoryTradFi is a traditional-finance asset listed on an auxiliary venue.
	CategoryTradFi Category = "TradFi"
	// CategoryHIP3 is any other builder-deployed auxiliary-venue asset.
	CategoryHIP3 Category = "HIP3"
)

// -----------------------------------------------------------------------------
// Market Snapshot Types
// -----------------------------------------------------------------------------

// Instrument is one tradable symbol as retained after cross-venue dedup.
type Instrument struct {
	Symbol       string   `json:"coin"`        // Namespaced form, valid against the history endpoint
	DisplayName  string   `json:"displayName"` // Namespace-stripped, for presentation
	Venue        string   `json:"dex"`         // Empty for the primary venue
	Category     Category `json:"category"`
	FundingRate  float64  `json:"fundingRate"` // Signed fraction per funding interval
	OpenInterest float64  `json:"openInterest"`
	Volume24h    float64  `json:"volume24h"`
	MarkPrice    float64  `json:"markPrice"`
	MaxLeverage  int      `json:"maxLeverage"`
}

// DisplayName strips the venue namespace from a raw symbol.
// "xyz:TSLA" -> "TSLA", "BTC" -> "BTC".
func DisplayName(symbol string) string {
	if i := strings.Index(symbol, NamespaceSeparator); i >= 0 {
		return symbol[i+1:]
	}
	return symbol
}

// -----------------------------------------------------------------------------
// Funding History Types
// -----------------------------------------------------------------------------

// FundingRecord is one hourly funding observation. Immutable once stored.
type FundingRecord struct {
	Time int64   `json:"time"`        // ms since epoch, hour-aligned by source
	Rate float64 `json:"fundingRate"` // Signed fraction for the interval
}

// FundingSeries is the per-instrument funding history.
//
// Records are unique by timestamp and sorted ascending. RecordCount always
// equals len(History).
type FundingSeries struct {
	Coin        string          `json:"coin"` // Namespaced symbol used against the API
	History     []FundingRecord `json:"history"`
	LastUpdate  int64           `json:"lastUpdate"` // ms since epoch
	RecordCount int             `json:"recordCount"`
}

// Latest returns the most recent record, or false for an empty series.
func (s *FundingSeries) Latest() (FundingRecord, bool) {
	if s == nil || len(s.History) == 0 {
		return FundingRecord{}, false
	}
	return s.History[len(s.History)-1], true
}

// FirstTime returns the earliest known timestamp, or 0 for an empty series.
func (s *FundingSeries) FirstTime() int64 {
	if s == nil || len(s.History) == 0 {
		return 0
	}
	return s.History[0].Time
}

// -----------------------------------------------------------------------------
// Metadata Keys
// -----------------------------------------------------------------------------

// Well-known scalar metadata keys.
const (
	MetaMarketDataLastUpdate = "marketDataLastUpdate"
	MetaCacheVersion         = "cacheVersion"
)
