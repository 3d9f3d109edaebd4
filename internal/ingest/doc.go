// Package ingest ties the snapshot fetcher, history scheduler, metrics
// engine, and store together behind one Service. Both the daemon's periodic
// jobs and the HTTP API drive ingestion through it.
package ingest
