package provider

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Provider maps to the provider table (ordering physician).
type Provider struct {
	ID        uuid.UUID `db:"id" json:"id"`
	NPI       string    `db:"npi" json:"npi"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// NameMatches compares the stored name against a submitted one,
// case-insensitively and ignoring surrounding whitespace.
func (p *Provider) NameMatches(name string) bool {
	return strings.EqualFold(strings.TrimSpace(p.Name), strings.TrimSpace(name))
}
