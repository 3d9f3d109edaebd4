package api

import (
	"encoding/json"
	"fmt"
)

// AssetMeta is one entry of the universe array from metaAndAssetCtxs.
type AssetMeta struct {
	Name         string `json:"name"`
	SzDecimals   int    `json:"szDecimals"`
	MaxLeverage  int    `json:"maxLeverage"`
	IsDelisted   bool   `json:"isDelisted,omitempty"`
	OnlyIsolated bool   `json:"onlyIsolated,omitempty"`
}

// AssetCtx is the per-asset market context parallel to the universe array.
// Numeric fields arrive as decimal strings.
type AssetCtx struct {
	Funding      string `json:"funding"`
	OpenInterest string `json:"openInterest"`
	DayNtlVlm    string `json:"dayNtlVlm"`
	MarkPx       string `json:"markPx"`
	MidPx        string `json:"midPx"`
	OraclePx     string `json:"oraclePx"`
}

// MetaAndAssetCtxs is the metaAndAssetCtxs response.
//
// On the wire it is a two-element array: [{universe: [...]}, [...ctxs]],
// with Universe[i] and Ctxs[i] describing the same asset.
type MetaAndAssetCtxs struct {
	Universe []AssetMeta
	Ctxs     []AssetCtx
}

func (m *MetaAndAssetCtxs) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	if len(parts) != 2 {
		return fmt.Errorf("expected 2-element response, got %d", len(parts))
	}

	var meta struct {
		Universe []AssetMeta `json:"universe"`
	}
	if err := json.Unmarshal(parts[0], &meta); err != nil {
		return fmt.Errorf("decode universe: %w", err)
	}

	var ctxs []AssetCtx
	if err := json.Unmarshal(parts[1], &ctxs); err != nil {
		return fmt.Errorf("decode asset contexts: %w", err)
	}

	m.Universe = meta.Universe
	m.Ctxs = ctxs
	return nil
}

// PerpDex is one auxiliary venue descriptor from perpDexs.
type PerpDex struct {
	Name     string `json:"name"`
	FullName string `json:"full_name"`
	Deployer string `json:"deployer"`
}

// FundingHistoryEntry is one row of a fundingHistory page.
type FundingHistoryEntry struct {
	Coin        string `json:"coin"`
	FundingRate string `json:"fundingRate"`
	Premium     string `json:"premium"`
	Time        int64  `json:"time"` // ms since epoch
}
