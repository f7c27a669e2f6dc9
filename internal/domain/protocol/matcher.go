package protocol

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinicdesk/internal/domain/rx"
	"github.com/clinicdesk/clinicdesk/internal/domain/visit"
)

// Matcher selects protocols from a fixed table. The table is read-only
// after construction.
type Matcher struct {
	table  []Protocol
	delay  time.Duration
	logger zerolog.Logger
}

// NewMatcher builds a matcher over the given table. delay is the simulated
// thinking window applied by Suggest; zero disables it (tests, batch use).
func NewMatcher(table []Protocol, delay time.Duration, logger zerolog.Logger) *Matcher {
	return &Matcher{
		table:  table,
		delay:  delay,
		logger: logger.With().Str("component", "protocol_matcher").Logger(),
	}
}

// Match lowercases the diagnosis text and walks the table in declaration
// order, returning the first protocol with a keyword that is a substring of
// the text. No keyword match falls back to the DEFAULT entry. Match never
// fails: the fallback is the defined result, not an error.
func (m *Matcher) Match(diagnosisText string) Protocol {
	text := strings.ToLower(diagnosisText)

	var fallback Protocol
	for _, p := range m.table {
		if p.IsDefault() {
			fallback = p
			continue
		}
		for _, kw := range p.Keywords {
			if kw == "" {
				continue
			}
			if strings.Contains(text, kw) {
				return p
			}
		}
	}
	return fallback
}

// Suggest runs Match after the configured delay. The delay exists only for
// pacing; cancelling the context before it elapses returns ctx.Err() with
// no state touched.
func (m *Matcher) Suggest(ctx context.Context, diagnosisText string) (Protocol, error) {
	if m.delay > 0 {
		timer := time.NewTimer(m.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Protocol{}, ctx.Err()
		case <-timer.C:
		}
	}

	p := m.Match(diagnosisText)
	m.logger.Debug().Str("condition", p.Condition).Msg("protocol matched")
	return p, nil
}

// Apply merges a protocol into the visit. Advice and investigations are
// appended idempotently: set verbatim when the field is empty, skipped when
// the protocol text is already a substring of the field, appended with a
// separator otherwise. Rx template lines are always appended to the editor,
// bypassing the edit slot and the interactive allergy gate.
func Apply(p Protocol, notes *visit.Notes, ed *rx.Editor) {
	notes.Advice = appendUnique(notes.Advice, p.Advice)
	notes.Investigations = appendUnique(notes.Investigations, p.Investigations)
	ed.Append(p.Rx...)
}

func appendUnique(existing, text string) string {
	if text == "" {
		return existing
	}
	if existing == "" {
		return text
	}
	if strings.Contains(existing, text) {
		return existing
	}
	return existing + "\n" + text
}
