package entity

import "github.com/joseph-ayodele/punchlog/constants"

// PunchRecord is one clock-in/clock-out event extracted from a line of page text.
// Date and PunchTime are kept as their canonical text renderings
// (DD/MM/YYYY and HH:MM:SS); an empty value marks a missing or invalid field.
type PunchRecord struct {
	Date      string              `json:"date"`
	UserID    string              `json:"user_id"`
	Name      string              `json:"name"`
	PunchTime string              `json:"punch_time"`
	Direction constants.Direction `json:"direction"`
}

// Row renders the record in export column order.
func (r PunchRecord) Row() []string {
	return []string{r.Date, r.UserID, r.Name, r.PunchTime, r.Direction.Cell()}
}
