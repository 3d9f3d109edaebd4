// Package store defines the keyed persistence contract shared by the
// ingestion pipeline and the HTTP read path, plus its adapters.
//
// Three logical collections are persisted:
//   - scalar metadata (key/value, overwritten in place)
//   - the instrument snapshot (replaced wholesale on every refresh)
//   - per-symbol funding series (whole-value replacement, last write wins)
//
// User preference lists ride along in a fourth collection. All writes are
// whole-entity replacement, so adapters need no partial-update support.
package store
