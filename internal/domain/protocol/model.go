// Package protocol is the decision-support layer: a curated, ordered rule
// table mapping diagnosis keywords to default prescriptions, advice and
// investigations. Matching is deterministic keyword lookup, kept behind a
// small interface-shaped API so a smarter matcher can replace it later.
package protocol

import (
	"github.com/clinicdesk/clinicdesk/internal/domain/rx"
)

// DefaultCondition names the reserved fallback entry. It carries no
// keywords and is only returned when nothing else matches.
const DefaultCondition = "DEFAULT"

// Protocol is one knowledge-base entry. Entries are immutable after
// process start; the matcher never mutates the table.
type Protocol struct {
	Condition      string    `json:"condition"`
	Category       string    `json:"category"`
	Keywords       []string  `json:"keywords"`
	Rx             []rx.Item `json:"rx"`
	Advice         string    `json:"advice"`
	Investigations string    `json:"investigations"`
}

// IsDefault reports whether p is the fallback entry.
func (p Protocol) IsDefault() bool {
	return p.Condition == DefaultCondition
}
