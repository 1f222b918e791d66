package types

// Scrap is one rejected-material record.
type Scrap struct {
	ID             int64   `json:"id"`
	UserID         string  `json:"userId"`
	Date           string  `json:"date"`
	Time           string  `json:"time"`
	Week           *int    `json:"week"`
	Shift          string  `json:"shift"`
	LeaderName     string  `json:"leaderName"`
	PQC            string  `json:"pqc"`
	Model          string  `json:"model"`
	Qty            int     `json:"qty"`
	Item           string  `json:"item"`
	Status         string  `json:"status"`
	Code           string  `json:"code"`
	Description    string  `json:"description"`
	UnitValue      float64 `json:"unitValue"`
	TotalValue     float64 `json:"totalValue"`
	UsedModel      string  `json:"usedModel"`
	Responsible    string  `json:"responsible"`
	Station        string  `json:"station"`
	Reason         string  `json:"reason"`
	RootCause      string  `json:"rootCause"`
	Countermeasure string  `json:"countermeasure"`
	Line           string  `json:"line"`
}

// ScrapPatch carries the fields a scrap may be corrected on after insert.
// Nil fields are left untouched.
type ScrapPatch struct {
	Countermeasure *string
	Reason         *string
	Status         *string
	LeaderName     *string
	Qty            *int
	TotalValue     *float64
}

// Empty reports whether the patch changes nothing.
func (p ScrapPatch) Empty() bool {
	return p.Countermeasure == nil && p.Reason == nil && p.Status == nil &&
		p.LeaderName == nil && p.Qty == nil && p.TotalValue == nil
}

// MaterialPatch carries the material fields to merge into a stored material.
// Nil fields keep the stored value.
type MaterialPatch struct {
	Model       *string
	Description *string
	Item        *string
	Plant       *string
	Price       *float64
}

// Material is a priced part, keyed by its code.
type Material struct {
	Code        string  `json:"code"`
	Model       string  `json:"model"`
	Description string  `json:"description"`
	Item        string  `json:"item"`
	Plant       string  `json:"plant"`
	Price       float64 `json:"price"`
}
