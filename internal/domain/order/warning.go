package order

// WarningKind names a category of duplicate finding.
type WarningKind string

const (
	// KindPotentialDuplicate flags an exact re-encounter: an existing record
	// with the same identifier and the same name, or a recent similar order.
	KindPotentialDuplicate WarningKind = "potential_duplicate_order"
	// KindDataMismatch flags an identifier that already belongs to a
	// different name than the one entered.
	KindDataMismatch WarningKind = "data_mismatch"
	// KindPossibleDuplicate flags a softer signal worth a second look.
	KindPossibleDuplicate WarningKind = "possible_duplicate_order"
)

// Warning is a single duplicate finding. Warnings never block on their own;
// the caller decides to proceed by acknowledging them.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Field   string      `json:"field"`
	Message string      `json:"message"`
}

// Ref returns the identity of the warning used for acknowledgment matching.
// The message text is presentational and excluded, so wording changes do not
// invalidate an acknowledgment.
func (w Warning) Ref() WarningRef {
	return WarningRef{Kind: w.Kind, Field: w.Field}
}

// WarningRef identifies a warning a caller has already seen.
type WarningRef struct {
	Kind  WarningKind `json:"kind"`
	Field string      `json:"field"`
}

// WarningSet is the ordered list of findings from one detection pass.
type WarningSet []Warning

// AcknowledgedBy reports whether every warning in the set appears among the
// given refs. A fresh warning that the caller has not seen keeps the
// submission blocked; stale refs with no matching warning are ignored.
func (ws WarningSet) AcknowledgedBy(refs []WarningRef) bool {
	seen := make(map[WarningRef]bool, len(refs))
	for _, r := range refs {
		seen[r] = true
	}
	for _, w := range ws {
		if !seen[w.Ref()] {
			return false
		}
	}
	return true
}
