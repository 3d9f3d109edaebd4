package history

import "github.com/google/uuid"

// Mode selects which targets a run actually fetches.
type Mode int

const (
	// MissingOnly skips symbols whose stored series is already fresh
	// relative to the current market snapshot.
	MissingOnly Mode = iota
	// ForceAll refetches every target from its earliest known record, or
	// from time zero when nothing is stored.
	ForceAll
)

func (m Mode) String() string {
	switch m {
	case ForceAll:
		return "force-all"
	default:
		return "missing-only"
	}
}

// Status is the progress state of one symbol within a run.
type Status string

const (
	StatusStarted     Status = "started"
	StatusPageFetched Status = "page_fetched"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
)

// ProgressEvent reports one symbol's progress. Completed and Failed are
// terminal; the run's event stream closes once every target is terminal.
type ProgressEvent struct {
	RunID   uuid.UUID `json:"runId"`
	Coin    string    `json:"coin"`
	Status  Status    `json:"status"`
	Pages   int       `json:"pages,omitempty"`   // Pages fetched so far this run
	Records int       `json:"records,omitempty"` // Series length after the last merge
	Err     error     `json:"-"`                 // Set for StatusFailed
}
