// Package metrics computes funding-rate statistics from stored series.
//
// All computations are pure functions over a FundingSeries. Window
// boundaries are anchored to the series' latest record, not to wall-clock
// time, so results are reproducible against a frozen series.
package metrics
