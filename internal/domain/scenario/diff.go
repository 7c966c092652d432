package scenario

import "time"

// ChangedIndices compares two participant snapshots and returns the indices
// whose editable fields differ.
//
// When the lists have different lengths, positional identity is unreliable
// (an insertion shifts every later index), so every index of the new list is
// reported as changed and the caller falls back to a full re-sync.
//
// Only editable inputs are compared. Derived outputs (monthly payment, loan
// share, portage price) are recomputed constantly by the calculation engine
// and would otherwise mark every participant dirty on each recalculation.
func ChangedIndices(old, new []Participant) []int {
	if len(old) != len(new) {
		all := make([]int, len(new))
		for i := range new {
			all[i] = i
		}
		return all
	}

	var changed []int
	for i := range new {
		if !equalEditable(old[i], new[i]) {
			changed = append(changed, i)
		}
	}
	return changed
}

func equalEditable(a, b Participant) bool {
	if a.Name != b.Name || a.Enabled != b.Enabled {
		return false
	}
	if a.Contribution != b.Contribution ||
		a.MonthlyIncome != b.MonthlyIncome ||
		a.PersonalLoan != b.PersonalLoan ||
		a.Surface != b.Surface {
		return false
	}
	if a.RoomCount != b.RoomCount {
		return false
	}
	// Dates compare by instant, not representation.
	if !a.EntryDate.Equal(b.EntryDate) {
		return false
	}
	if !equalOptionalTime(a.ExitDate, b.ExitDate) {
		return false
	}
	if !equalOptionalFloat(a.InterestRateOverride, b.InterestRateOverride) {
		return false
	}
	if !equalOptionalFloat(a.InsuranceRateOverride, b.InsuranceRateOverride) {
		return false
	}
	if !equalLots(a.LotsOwned, b.LotsOwned) {
		return false
	}
	if !equalPurchase(a.Purchase, b.Purchase) {
		return false
	}
	return true
}

func equalLots(a, b []Lot) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalPurchase(a, b *PurchaseDetails) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalOptionalFloat(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalOptionalTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
