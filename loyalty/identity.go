/*
identity.go - Customer identifier validation

PURPOSE:
  Validates the national-ID format before any ledger or history operation
  keyed by customer ID. Pure function, no I/O.

FORMAT:
  - 7 or 8 ASCII digits, nothing else
  - No leading zero (a valid national ID never starts with 0)
*/
package loyalty

// ValidateCustomerID reports whether id is a well-formed customer
// identifier. It is used as a precondition gate before every store
// operation keyed by customer ID.
func ValidateCustomerID(id string) bool {
	if len(id) < 7 || len(id) > 8 {
		return false
	}
	if id[0] == '0' {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < '0' || id[i] > '9' {
			return false
		}
	}
	return true
}
