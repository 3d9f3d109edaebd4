// Package model defines shared data types used across the funding data gatherer.
//
// Conventions:
//   - Funding rates: signed fraction per funding interval (one hour upstream)
//   - Timestamps: int64 milliseconds since Unix epoch (the upstream unit)
//   - Symbols: fully namespaced ("venue:NAME") for auxiliary-venue instruments,
//     bare name for the primary venue; DisplayName is always the stripped form
package model
