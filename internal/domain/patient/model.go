package patient

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Patient maps to the patient table. Identity (MRN) is immutable once the
// row exists; name edits have no path through this service.
type Patient struct {
	ID        uuid.UUID `db:"id" json:"id"`
	MRN       string    `db:"mrn" json:"mrn"`
	FirstName string    `db:"first_name" json:"first_name"`
	LastName  string    `db:"last_name" json:"last_name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// FullName returns the display name.
func (p *Patient) FullName() string {
	return p.FirstName + " " + p.LastName
}

// NameMatches compares the stored name against a submitted one,
// case-insensitively and ignoring surrounding whitespace.
func (p *Patient) NameMatches(firstName, lastName string) bool {
	return strings.EqualFold(strings.TrimSpace(p.FirstName), strings.TrimSpace(firstName)) &&
		strings.EqualFold(strings.TrimSpace(p.LastName), strings.TrimSpace(lastName))
}
