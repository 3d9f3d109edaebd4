// Package market implements venue discovery and the market snapshot fetcher.
//
// A snapshot is built from the primary venue plus every auxiliary venue the
// upstream reports. One venue failing never aborts the snapshot; its error is
// collected and the rest proceed. Instruments are categorized (Perps, TradFi,
// HIP3) and deduplicated by display name: the primary venue wins, otherwise
// the first auxiliary venue in discovery order.
package market
