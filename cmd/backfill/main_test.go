package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rverma/hyperliquid-data/internal/api"
	"github.com/rverma/hyperliquid-data/internal/history"
	"github.com/rverma/hyperliquid-data/internal/ingest"
	"github.com/rverma/hyperliquid-data/internal/market"
	"github.com/rverma/hyperliquid-data/internal/model"
	"github.com/rverma/hyperliquid-data/internal/store"
)

func testServiceWithUpstream(t *testing.T) (*ingest.Service, *store.Memory) {
	t.Helper()
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Type string `json:"type"`
		}
		json.NewDecoder(r.Body).Decode(&req)

		switch req.Type {
		case "perpDexs":
			w.Write([]byte(`[null]`))
		case "metaAndAssetCtxs":
			w.Write([]byte(`[
				{"universe": [{"name": "BTC", "maxLeverage": 40}, {"name": "ETH", "maxLeverage": 25}]},
				[
					{"funding": "0.0001", "openInterest": "100", "dayNtlVlm": "5000", "markPx": "60000"},
					{"funding": "0.0002", "openInterest": "200", "dayNtlVlm": "3000", "markPx": "3000"}
				]
			]`))
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	t.Cleanup(upstream.Close)

	client := api.NewClient(upstream.URL)
	db := store.NewMemory()
	fetcher := market.NewFetcher(market.DefaultConfig(), client, market.NewTradFiSet(nil), nil)
	scheduler := history.New(history.Config{BatchSize: 3, PageSize: 500}, client, db, nil)
	return ingest.NewService(fetcher, scheduler, db, nil), db
}

func TestResolveTargets_ExplicitCoins(t *testing.T) {
	svc, db := testServiceWithUpstream(t)

	targets, err := resolveTargets(context.Background(), svc, "BTC, xyz:TSLA,,ETH ")
	if err != nil {
		t.Fatalf("resolveTargets: %v", err)
	}
	if len(targets) != 3 || targets[1] != "xyz:TSLA" {
		t.Fatalf("targets = %v, want [BTC xyz:TSLA ETH]", targets)
	}

	// An explicit coin list leaves the store untouched.
	if snap, _ := db.GetSnapshot(context.Background()); len(snap) != 0 {
		t.Errorf("snapshot = %d instruments, want none stored", len(snap))
	}
}

func TestResolveTargets_RefreshesSnapshotAndMetadata(t *testing.T) {
	svc, db := testServiceWithUpstream(t)
	ctx := context.Background()

	// A stale timestamp from an earlier refresh must be superseded, or a
	// missing-only run would filter staleness against the wrong snapshot.
	db.PutMeta(ctx, model.MetaMarketDataLastUpdate, "1000")

	targets, err := resolveTargets(ctx, svc, "")
	if err != nil {
		t.Fatalf("resolveTargets: %v", err)
	}
	if len(targets) != 2 {
		t.Fatalf("targets = %v, want BTC and ETH", targets)
	}

	stored, _ := db.GetSnapshot(ctx)
	if len(stored) != 2 {
		t.Fatalf("stored snapshot = %d instruments, want 2", len(stored))
	}

	v, ok, _ := db.GetMeta(ctx, model.MetaMarketDataLastUpdate)
	if !ok || v == "1000" {
		t.Errorf("marketDataLastUpdate = %q ok=%v, want updated alongside the snapshot", v, ok)
	}
	if _, ok, _ := db.GetMeta(ctx, model.MetaCacheVersion); !ok {
		t.Error("cacheVersion should be bumped alongside the snapshot")
	}
}
