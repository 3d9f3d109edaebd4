// Package history implements the funding-history batch scheduler.
//
// Targets are processed in fixed-size batches with a delay between batch
// starts; within one symbol, pages are fetched strictly sequentially until a
// short page signals end-of-history. Each page is merged into the stored
// series by timestamp-deduplicating union and the whole series written back,
// so an interrupted run resumes where it left off.
//
// An upstream rate limit suspends all dispatch for a cooldown and re-queues
// the interrupted symbol; a transport failure fails only that symbol.
// Progress is emitted as an event stream that never blocks the workers.
package history
