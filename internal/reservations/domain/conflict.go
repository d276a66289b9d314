package domain

// DetectConflict returns the first active reservation whose slot overlaps slot.
func DetectConflict(reservations []*Reservation, slot TimeSlot) (*Reservation, bool) {
	for _, r := range reservations {
		if !r.state.Active() {
			continue
		}
		if r.slot.Overlaps(slot) {
			return r, true
		}
	}
	return nil, false
}
