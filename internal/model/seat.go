package model

import "fmt"

// SeatPosition identifies a single seat inside a screening's venue grid.
// It is not a persisted entity: positions are derived from the geometry
// and validated against it on every operation.  Both coordinates are
// 1-based.
type SeatPosition struct {
	Row  uint32 `json:"row"`
	Seat uint32 `json:"seat"`
}

// Label renders the position in the conventional "A1" form, with the row
// encoded as letters (A, B, ..., Z, AA, AB, ...) and the seat number
// appended.  Row 1 maps to "A".
func (p SeatPosition) Label() string {
	return rowLabel(int(p.Row)-1) + fmt.Sprintf("%d", p.Seat)
}

// rowLabel converts a zero-based row index into an alphabetical label.
func rowLabel(i int) string {
	if i < 0 {
		return ""
	}
	var res []rune
	for {
		res = append(res, rune('A'+i%26))
		i = i/26 - 1
		if i < 0 {
			break
		}
	}
	for j, k := 0, len(res)-1; j < k; j, k = j+1, k-1 {
		res[j], res[k] = res[k], res[j]
	}
	return string(res)
}

// SeatStatus is the state of a seat as reported by the inventory view.
type SeatStatus string

const (
	SeatAvailable SeatStatus = "AVAILABLE" // no reservation and no live hold
	SeatHeld      SeatStatus = "HELD"      // an active, unexpired hold exists
	SeatReserved  SeatStatus = "RESERVED"  // a committed reservation exists
)
