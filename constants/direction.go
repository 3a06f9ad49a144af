package constants

// Direction tells whether a punch clocks a person in or out.
type Direction string

const (
	DirectionIn      Direction = "IN"
	DirectionOut     Direction = "OUT"
	DirectionUnknown Direction = "UNKNOWN"
)

// ParseDirection maps a matched token to a Direction. Anything other than
// IN or OUT is UNKNOWN.
func ParseDirection(token string) Direction {
	switch Direction(token) {
	case DirectionIn:
		return DirectionIn
	case DirectionOut:
		return DirectionOut
	default:
		return DirectionUnknown
	}
}

// Known reports whether d is IN or OUT.
func (d Direction) Known() bool {
	return d == DirectionIn || d == DirectionOut
}

// Cell is the spreadsheet rendering of d. UNKNOWN is written as an empty cell.
func (d Direction) Cell() string {
	if !d.Known() {
		return ""
	}
	return string(d)
}
