package market

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rverma/hyperliquid-data/internal/api"
	"github.com/rverma/hyperliquid-data/internal/model"
)

// fakeInfo serves metaAndAssetCtxs / perpDexs requests for a fixed universe.
func fakeInfo(t *testing.T) *httptest.Server {
	t.Helper()

	type venueData struct {
		names []string
	}
	venues := map[string]venueData{
		"":    {names: []string{"BTC", "ETH"}},
		"xyz": {names: []string{"BTC", "TSLA", "NEWTOKEN"}},
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Type string `json:"type"`
			Dex  string `json:"dex"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}

		switch req.Type {
		case "perpDexs":
			// Null placeholder first, then aux venues; "down" always fails.
			w.Write([]byte(`[null, {"name": "xyz"}, {"name": "down"}]`))
		case "metaAndAssetCtxs":
			data, ok := venues[req.Dex]
			if !ok {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			universe := make([]map[string]any, 0, len(data.names))
			ctxs := make([]map[string]any, 0, len(data.names))
			for _, name := range data.names {
				universe = append(universe, map[string]any{"name": name, "maxLeverage": 20})
				ctxs = append(ctxs, map[string]any{
					"funding":      "0.0000125",
					"openInterest": "1000",
					"dayNtlVlm":    "50000",
					"markPx":       "10.5",
				})
			}
			json.NewEncoder(w).Encode([]any{map[string]any{"universe": universe}, ctxs})
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
}

func TestFetcher_FetchSnapshot(t *testing.T) {
	server := fakeInfo(t)
	defer server.Close()

	client := api.NewClient(server.URL)
	f := NewFetcher(DefaultConfig(), client, testTradFiSet(), nil)

	snap, err := f.FetchSnapshot(context.Background())
	if err != nil {
		t.Fatalf("FetchSnapshot failed: %v", err)
	}

	// BTC, ETH from primary; TSLA, NEWTOKEN from xyz; xyz:BTC dropped.
	if len(snap.Instruments) != 4 {
		t.Fatalf("instruments = %d, want 4: %+v", len(snap.Instruments), snap.Instruments)
	}

	byName := make(map[string]model.Instrument)
	for _, inst := range snap.Instruments {
		byName[inst.DisplayName] = inst
	}

	btc, ok := byName["BTC"]
	if !ok {
		t.Fatal("BTC missing from snapshot")
	}
	if btc.Venue != "" || btc.Symbol != "BTC" {
		t.Errorf("BTC sourced from %+v, want primary venue", btc)
	}
	if btc.Category != model.CategoryPerps {
		t.Errorf("BTC category = %q, want Perps", btc.Category)
	}

	tsla := byName["TSLA"]
	if tsla.Symbol != "xyz:TSLA" {
		t.Errorf("TSLA symbol = %q, want namespaced xyz:TSLA", tsla.Symbol)
	}
	if tsla.Category != model.CategoryTradFi {
		t.Errorf("TSLA category = %q, want TradFi", tsla.Category)
	}

	newtoken := byName["NEWTOKEN"]
	if newtoken.Category != model.CategoryHIP3 {
		t.Errorf("NEWTOKEN category = %q, want HIP3", newtoken.Category)
	}

	// The "down" venue failed; snapshot still completed with its error noted.
	if len(snap.Errors) != 1 || snap.Errors[0].Venue != "down" {
		t.Errorf("venue errors = %+v, want one for venue down", snap.Errors)
	}

	if snap.FetchedAt == 0 {
		t.Error("FetchedAt should be set")
	}
}

func TestFetcher_ListVenues_DegradesToEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	f := NewFetcher(DefaultConfig(), api.NewClient(server.URL), testTradFiSet(), nil)
	if venues := f.ListVenues(context.Background()); len(venues) != 0 {
		t.Errorf("venues = %v, want empty on discovery failure", venues)
	}
}

func TestFetcher_PrimaryFailureIsFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	f := NewFetcher(DefaultConfig(), api.NewClient(server.URL), testTradFiSet(), nil)
	if _, err := f.FetchSnapshot(context.Background()); err == nil {
		t.Error("expected error when the primary venue is unreachable")
	}
}
