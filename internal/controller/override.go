package controller

// IsOverride reports whether the jump between two consecutive observed
// brightness levels indicates a manual adjustment by the user. A nil reading
// on either side yields false: no override can be asserted without two
// comparable values. Stateless; the control loop owns the previous value.
func IsOverride(current, previous *int, threshold int) bool {
	if current == nil || previous == nil {
		return false
	}

	delta := *current - *previous
	if delta < 0 {
		delta = -delta
	}
	return delta > threshold
}
