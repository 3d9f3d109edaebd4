// Package server exposes the stored market data and ingestion operations
// over a JSON HTTP API for the presentation layer.
package server
