// Package api provides the Hyperliquid info-endpoint client.
//
// All requests are POSTs to a single /info endpoint with a JSON body
// discriminated by "type":
//   - metaAndAssetCtxs: market snapshot (parallel meta + context arrays)
//   - perpDexs: auxiliary venue discovery
//   - fundingHistory: paginated funding history, up to 500 rows per page
//
// The client tries an ordered chain of transports (direct endpoint first, then
// fallback relays) and distinguishes upstream rate limiting from transport
// failure. Rate-limit responses are never retried here; callers own the
// cooldown policy.
package api
