package types

// LineStopStatus is the lifecycle state of a line-stop justification.
type LineStopStatus string

const (
	LineStopOpen                 LineStopStatus = "OPEN"
	LineStopWaitingJustification LineStopStatus = "WAITING_JUSTIFICATION"
	LineStopWaitingSignature     LineStopStatus = "WAITING_SIGNATURE"
	LineStopCompleted            LineStopStatus = "COMPLETED"
)

// LineStop represents a justified halt of a production line.
// A record is created once and then mutated in place as the justification
// and the signed document arrive.
type LineStop struct {
	// ID is either supplied by the client or generated on first save.
	ID string `json:"id"`

	// UserID is the matricula of the user who opened the stop.
	UserID string `json:"userId"`

	// UserName is the opener's name.
	UserName string `json:"userName"`

	// UserRole is the opener's role.
	UserRole string `json:"userRole"`

	// Line is the stopped production line.
	Line string `json:"line"`

	// Date is the stop date as sent by the client.
	Date string `json:"date"`

	// Status defaults to WAITING_JUSTIFICATION.
	Status LineStopStatus `json:"status"`

	// Data holds the stop details (model, times, reason, justification...).
	Data map[string]any `json:"data"`

	// SignedDocURL references the photo of the signed justification sheet.
	SignedDocURL *string `json:"signedDocUrl"`
}

// LineStopEvent is published to the message broker whenever a line stop is
// saved.
type LineStopEvent struct {
	Kind   string         `json:"kind"`
	ID     string         `json:"id"`
	Line   string         `json:"line"`
	Status LineStopStatus `json:"status"`
	UserID string         `json:"userId"`
	Date   string         `json:"date"`
}

const (
	LineStopEventCreated = "line_stop.created"
	LineStopEventUpdated = "line_stop.updated"
)
