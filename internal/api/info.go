package api

import (
	"context"
	"fmt"
)

// MaxHistoryPage is the most rows one fundingHistory call returns. A shorter
// page signals end-of-history.
const MaxHistoryPage = 500

// MetaAndAssetCtxs fetches the market snapshot. An empty dex selects the
// primary venue; otherwise the snapshot is scoped to that auxiliary venue.
func (c *Client) MetaAndAssetCtxs(ctx context.Context, dex string) (*MetaAndAssetCtxs, error) {
	var resp MetaAndAssetCtxs
	if err := c.post(ctx, "metaAndAssetCtxs", infoRequest{Type: "metaAndAssetCtxs", Dex: dex}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Universe) != len(resp.Ctxs) {
		return nil, fmt.Errorf("universe/ctx length mismatch: %d vs %d", len(resp.Universe), len(resp.Ctxs))
	}
	return &resp, nil
}

// PerpDexs fetches the auxiliary venue list. The upstream response includes a
// null placeholder for the primary venue; entries without a name are dropped.
func (c *Client) PerpDexs(ctx context.Context) ([]PerpDex, error) {
	var raw []*PerpDex
	if err := c.post(ctx, "perpDexs", infoRequest{Type: "perpDexs"}, &raw); err != nil {
		return nil, err
	}

	dexs := make([]PerpDex, 0, len(raw))
	for _, d := range raw {
		if d == nil || d.Name == "" {
			continue
		}
		dexs = append(dexs, *d)
	}
	return dexs, nil
}

// FundingHistory fetches one page of funding history for coin, starting at
// startTime (ms, inclusive). Callers paginate by advancing startTime past the
// last returned row until a page comes back shorter than MaxHistoryPage.
//
// coin must be the namespaced symbol for auxiliary-venue instruments; the
// endpoint does not accept the stripped display name.
func (c *Client) FundingHistory(ctx context.Context, coin string, startTime int64) ([]FundingHistoryEntry, error) {
	var resp []FundingHistoryEntry
	if err := c.post(ctx, "fundingHistory", historyRequest{Type: "fundingHistory", Coin: coin, StartTime: startTime}, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}
