package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rverma/hyperliquid-data/internal/api"
	"github.com/rverma/hyperliquid-data/internal/history"
	"github.com/rverma/hyperliquid-data/internal/ingest"
	"github.com/rverma/hyperliquid-data/internal/market"
	"github.com/rverma/hyperliquid-data/internal/model"
	"github.com/rverma/hyperliquid-data/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeUpstream answers the three /info request types with one BTC
// instrument and two hourly funding records.
func fakeUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Type      string `json:"type"`
			Coin      string `json:"coin"`
			StartTime int64  `json:"startTime"`
		}
		json.NewDecoder(r.Body).Decode(&req)

		switch req.Type {
		case "perpDexs":
			w.Write([]byte(`[null]`))
		case "metaAndAssetCtxs":
			w.Write([]byte(`[
				{"universe": [{"name": "BTC", "maxLeverage": 40}]},
				[{"funding": "0.0001", "openInterest": "100", "dayNtlVlm": "5000", "markPx": "60000"}]
			]`))
		case "fundingHistory":
			var page []map[string]any
			for h := int64(0); h < 2; h++ {
				ts := h * 3_600_000
				if ts < req.StartTime {
					continue
				}
				page = append(page, map[string]any{"coin": req.Coin, "fundingRate": "0.0001", "time": ts})
			}
			json.NewEncoder(w).Encode(page)
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func testRouter(t *testing.T) (*gin.Engine, *store.Memory) {
	t.Helper()
	upstream := fakeUpstream(t)
	client := api.NewClient(upstream.URL)
	db := store.NewMemory()
	fetcher := market.NewFetcher(market.DefaultConfig(), client, market.NewTradFiSet(nil), nil)
	scheduler := history.New(history.Config{BatchSize: 3, PageSize: 500}, client, db, nil)
	svc := ingest.NewService(fetcher, scheduler, db, nil)
	return New(svc, db, nil).Router(), db
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var decoded map[string]any
	json.Unmarshal(rec.Body.Bytes(), &decoded)
	return rec, decoded
}

func TestHealth(t *testing.T) {
	router, _ := testRouter(t)
	rec, body := doJSON(t, router, http.MethodGet, "/api/health", nil)
	if rec.Code != http.StatusOK || body["status"] != "healthy" {
		t.Fatalf("health = %d %v", rec.Code, body)
	}
}

func TestMarketData(t *testing.T) {
	router, db := testRouter(t)

	rec, _ := doJSON(t, router, http.MethodGet, "/api/market-data", nil)
	var instruments []model.Instrument
	json.Unmarshal(rec.Body.Bytes(), &instruments)
	if rec.Code != http.StatusOK || len(instruments) != 0 {
		t.Fatalf("empty store: %d, %d instruments", rec.Code, len(instruments))
	}

	db.ReplaceSnapshot(context.Background(), []model.Instrument{
		{Symbol: "BTC", DisplayName: "BTC", Category: model.CategoryPerps, FundingRate: 0.0001},
		{Symbol: "xyz:TSLA", DisplayName: "TSLA", Venue: "xyz", Category: model.CategoryTradFi},
	})

	rec, _ = doJSON(t, router, http.MethodGet, "/api/market-data", nil)
	json.Unmarshal(rec.Body.Bytes(), &instruments)
	if len(instruments) != 2 {
		t.Fatalf("instruments = %d, want 2", len(instruments))
	}
}

func TestFundingHistoryRoutes(t *testing.T) {
	router, db := testRouter(t)
	ctx := context.Background()

	db.PutSeries(ctx, &model.FundingSeries{
		Coin:        "BTC",
		History:     []model.FundingRecord{{Time: 1_000, Rate: 0.0001}},
		LastUpdate:  42,
		RecordCount: 1,
	})

	t.Run("one coin", func(t *testing.T) {
		rec, _ := doJSON(t, router, http.MethodGet, "/api/funding-history/BTC", nil)
		var series model.FundingSeries
		json.Unmarshal(rec.Body.Bytes(), &series)
		if rec.Code != http.StatusOK || series.RecordCount != 1 || series.Coin != "BTC" {
			t.Fatalf("got %d %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("absent coin is null", func(t *testing.T) {
		rec, _ := doJSON(t, router, http.MethodGet, "/api/funding-history/NOPE", nil)
		if rec.Code != http.StatusOK || rec.Body.String() != "null" {
			t.Fatalf("got %d %q, want null", rec.Code, rec.Body.String())
		}
	})

	t.Run("all coins", func(t *testing.T) {
		rec, _ := doJSON(t, router, http.MethodGet, "/api/funding-history", nil)
		var all map[string][]model.FundingRecord
		json.Unmarshal(rec.Body.Bytes(), &all)
		if len(all) != 1 || len(all["BTC"]) != 1 {
			t.Fatalf("got %s", rec.Body.String())
		}
	})

	t.Run("timestamps", func(t *testing.T) {
		rec, _ := doJSON(t, router, http.MethodGet, "/api/funding-history-timestamps", nil)
		var stamps map[string]int64
		json.Unmarshal(rec.Body.Bytes(), &stamps)
		if stamps["BTC"] != 42 {
			t.Fatalf("got %s", rec.Body.String())
		}
	})
}

func TestMetricsRoute(t *testing.T) {
	router, db := testRouter(t)

	rec, _ := doJSON(t, router, http.MethodGet, "/api/metrics/BTC", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing series code = %d, want 404", rec.Code)
	}

	db.PutSeries(context.Background(), &model.FundingSeries{
		Coin:        "BTC",
		History:     []model.FundingRecord{{Time: 1_000, Rate: 0.0001}},
		RecordCount: 1,
	})

	rec, body := doJSON(t, router, http.MethodGet, "/api/metrics/BTC", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	if apr, ok := body["currentApr"].(float64); !ok || apr < 87 || apr > 88 {
		t.Errorf("currentApr = %v, want ~87.6", body["currentApr"])
	}
}

func TestMetaRoute(t *testing.T) {
	router, db := testRouter(t)

	_, body := doJSON(t, router, http.MethodGet, "/api/meta/cacheVersion", nil)
	if body["value"] != nil {
		t.Fatalf("unset key value = %v, want null", body["value"])
	}

	db.PutMeta(context.Background(), "cacheVersion", "7")
	_, body = doJSON(t, router, http.MethodGet, "/api/meta/cacheVersion", nil)
	if body["value"] != "7" {
		t.Fatalf("value = %v, want 7", body["value"])
	}
}

func TestPreferences(t *testing.T) {
	router, _ := testRouter(t)

	t.Run("unknown list", func(t *testing.T) {
		rec, _ := doJSON(t, router, http.MethodGet, "/api/preferences/bogus", nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("code = %d, want 404", rec.Code)
		}
	})

	t.Run("empty list", func(t *testing.T) {
		rec, _ := doJSON(t, router, http.MethodGet, "/api/preferences/favorites", nil)
		if rec.Code != http.StatusOK || rec.Body.String() != "[]" {
			t.Fatalf("got %d %q, want []", rec.Code, rec.Body.String())
		}
	})

	t.Run("roundtrip", func(t *testing.T) {
		rec, _ := doJSON(t, router, http.MethodPut, "/api/preferences/favorites", []string{"BTC", "ETH"})
		if rec.Code != http.StatusOK {
			t.Fatalf("put code = %d", rec.Code)
		}

		rec, _ = doJSON(t, router, http.MethodGet, "/api/preferences/favorites", nil)
		var values []string
		json.Unmarshal(rec.Body.Bytes(), &values)
		if len(values) != 2 || values[0] != "BTC" {
			t.Fatalf("got %v", values)
		}
	})

	t.Run("bad body", func(t *testing.T) {
		rec, _ := doJSON(t, router, http.MethodPut, "/api/preferences/blacklist", map[string]string{"not": "a list"})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("code = %d, want 400", rec.Code)
		}
	})
}

func TestRefreshAndClear(t *testing.T) {
	router, db := testRouter(t)
	ctx := context.Background()

	rec, body := doJSON(t, router, http.MethodPost, "/api/refresh", nil)
	if rec.Code != http.StatusOK || body["instruments"] != float64(1) {
		t.Fatalf("refresh = %d %v", rec.Code, body)
	}
	if stored, _ := db.GetSnapshot(ctx); len(stored) != 1 {
		t.Fatalf("stored snapshot = %d, want 1", len(stored))
	}

	db.PutPreference(ctx, "favorites", []string{"BTC"})

	rec, _ = doJSON(t, router, http.MethodDelete, "/api/data", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("clear code = %d", rec.Code)
	}
	if stored, _ := db.GetSnapshot(ctx); len(stored) != 0 {
		t.Error("snapshot survived clear")
	}
	if favs, _ := db.GetPreference(ctx, "favorites"); len(favs) != 1 {
		t.Error("preferences should survive clear")
	}
}

func TestStartHistories(t *testing.T) {
	router, db := testRouter(t)

	// No snapshot yet.
	rec, _ := doJSON(t, router, http.MethodPost, "/api/histories", map[string]string{"mode": "force-all"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("no-snapshot code = %d, want 409", rec.Code)
	}

	rec, _ = doJSON(t, router, http.MethodPost, "/api/histories", map[string]string{"mode": "sideways"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad mode code = %d, want 400", rec.Code)
	}

	if rec, _ := doJSON(t, router, http.MethodPost, "/api/refresh", nil); rec.Code != http.StatusOK {
		t.Fatalf("refresh failed: %d", rec.Code)
	}

	rec, _ = doJSON(t, router, http.MethodPost, "/api/histories", map[string]string{"mode": "force-all"})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("start code = %d, want 202", rec.Code)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		_, body := doJSON(t, router, http.MethodGet, "/api/histories", nil)
		if run, ok := body["run"].(map[string]any); ok && run["done"] == true {
			if run["completed"] != float64(1) {
				t.Fatalf("run = %v, want 1 completed", run)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("run never finished")
		}
		time.Sleep(5 * time.Millisecond)
	}

	series, _ := db.GetSeries(context.Background(), "BTC")
	if series == nil || series.RecordCount != 2 {
		t.Fatalf("series = %+v, want 2 records", series)
	}
}
