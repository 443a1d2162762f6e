package bill

// Filter returns the bills whose status equals the target, excluding bills
// owned by the service accounts or by the viewer itself, so a manager never
// triages their own submissions. Input order is preserved and the input slice
// is never mutated. A nil or empty input yields an empty result.
func Filter(bills []Bill, status Status, viewer string) []Bill {
	filtered := make([]Bill, 0, len(bills))
	for _, b := range bills {
		if b.Status != status {
			continue
		}
		if b.Email == viewer || isServiceAccount(b.Email) {
			continue
		}
		filtered = append(filtered, b)
	}
	return filtered
}

func isServiceAccount(email string) bool {
	for _, account := range ServiceAccounts {
		if email == account {
			return true
		}
	}
	return false
}
