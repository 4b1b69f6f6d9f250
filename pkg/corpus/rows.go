// Package corpus encodes batches of (name, email) and (firm, domain) rows
// into templates and vocabulary id sequences, and derives the per-template
// and per-firm statistics used downstream.
package corpus

import "strings"

// PersonRow pairs a full name with an email address. Firm is optional and
// only used for firm-level template statistics.
type PersonRow struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Firm  string `json:"firm,omitempty"`
}

// FirmRow pairs a firm name with its email domain (or a bare domain root).
type FirmRow struct {
	ID     string `json:"id"`
	Firm   string `json:"firm"`
	Domain string `json:"domain"`
}

// SplitEmail splits an address at its last @. ok is false when either side
// is empty.
func SplitEmail(email string) (local, domain string, ok bool) {
	email = strings.TrimSpace(email)
	i := strings.LastIndexByte(email, '@')
	if i <= 0 || i == len(email)-1 {
		return "", "", false
	}
	return email[:i], email[i+1:], true
}

// Kind names the identifier a corpus was built from.
type Kind string

const (
	KindEmail  Kind = "email"
	KindDomain Kind = "domain"
)

// ParseKind accepts "email" or "domain".
func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindEmail, KindDomain:
		return Kind(s), true
	}
	return "", false
}

// Status is the outcome of one row.
type Status string

const (
	StatusOK                  Status = "ok"
	StatusUnknown             Status = "unknown"              // a character matched nothing
	StatusDecompositionFailed Status = "decomposition_failed" // the full name has no given name
	StatusInvalidInput        Status = "invalid_input"        // missing name, email or domain
)
