package types

// LogType tags an entry of the merged log stream with its origin.
type LogType string

const (
	LogTypeProduction  LogType = "PRODUCTION"
	LogTypeMaintenance LogType = "MAINTENANCE"
	LogTypeLineStop    LogType = "LINE_STOP"
)

// ItemType tags a checklist item with the checklist it belongs to.
type ItemType string

const (
	ItemTypeLeader      ItemType = "LEADER"
	ItemTypeMaintenance ItemType = "MAINTENANCE"
)

// ChecklistLog is one submitted checklist.
// Logs are immutable once written; Type is derived from the partition the
// row was read from.
type ChecklistLog struct {
	// ID is the row identifier rendered as a string.
	ID string `json:"id"`

	// UserID is the matricula of the submitter.
	UserID string `json:"userId"`

	// UserName is the submitter's name at submission time.
	UserName string `json:"userName"`

	// UserRole is the submitter's role at submission time.
	UserRole string `json:"userRole"`

	// Line is the production line the checklist was taken on.
	Line string `json:"line"`

	// Date is the submission timestamp as sent by the client (ISO 8601).
	Date string `json:"date"`

	// ItemsCount is the number of items answered.
	ItemsCount int `json:"itemsCount"`

	// NgCount is the number of items answered NG.
	NgCount int `json:"ngCount"`

	// Observation is the free-text remark of the submitter.
	Observation string `json:"observation"`

	// Data holds the per-item answers.
	Data any `json:"data"`

	// EvidenceData holds comments and photos attached to NG answers.
	EvidenceData map[string]any `json:"evidenceData"`

	// Type is PRODUCTION or MAINTENANCE.
	Type LogType `json:"type"`

	// MaintenanceTarget names the machine of a maintenance checklist.
	MaintenanceTarget string `json:"maintenanceTarget,omitempty"`

	// ItemsSnapshot is the checklist configuration active at submission time.
	ItemsSnapshot []any `json:"itemsSnapshot"`
}

// ChecklistItem is one configurable checklist question.
type ChecklistItem struct {
	ID       string   `json:"id"`
	Category string   `json:"category"`
	Text     string   `json:"text"`
	Evidence string   `json:"evidence"`
	ImageURL string   `json:"imageUrl"`
	Type     ItemType `json:"type"`
}
