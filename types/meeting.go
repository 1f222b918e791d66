package types

// Meeting holds the minutes of a shop-floor meeting.
type Meeting struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Date         string   `json:"date"`
	StartTime    string   `json:"startTime"`
	EndTime      string   `json:"endTime"`
	PhotoURL     string   `json:"photoUrl"`
	Participants []string `json:"participants"`
	Topics       string   `json:"topics"`
	CreatedBy    string   `json:"createdBy"`
}

// MeetingPatch carries the meeting fields to merge into a stored meeting.
// Nil fields keep the stored value.
type MeetingPatch struct {
	Title        *string
	Date         *string
	StartTime    *string
	EndTime      *string
	PhotoURL     *string
	Participants *[]string
	Topics       *string
	CreatedBy    *string
}
