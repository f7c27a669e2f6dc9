package protocol

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinicdesk/internal/domain/rx"
	"github.com/clinicdesk/clinicdesk/internal/domain/visit"
)

func newTestMatcher() *Matcher {
	return NewMatcher(DefaultTable(), 0, zerolog.Nop())
}

// ── Match ──

func TestMatch_FirstMatchWinsInTableOrder(t *testing.T) {
	m := newTestMatcher()
	// Both "htn" and "chest pain" occur; the chest-pain protocol precedes
	// hypertension in the table, so it must win.
	p := m.Match("patient has htn and chest pain")
	if p.Condition != "Acute Coronary Syndrome (suspected)" {
		t.Errorf("expected the earlier table entry to win, got %q", p.Condition)
	}
}

func TestMatch_KeywordSelectsProtocol(t *testing.T) {
	cases := []struct {
		text      string
		condition string
	}{
		{"known htn on treatment", "Hypertension"},
		{"HIGH BP noted today", "Hypertension"},
		{"fever since 2 days", "Viral Fever"},
		{"c/o loose stools x 3 days", "Acute Gastroenteritis"},
		{"burning micturition", "Urinary Tract Infection"},
		{"throbbing pain left side of head", "Migraine"},
	}
	m := newTestMatcher()
	for _, tc := range cases {
		if p := m.Match(tc.text); p.Condition != tc.condition {
			t.Errorf("Match(%q) = %q, expected %q", tc.text, p.Condition, tc.condition)
		}
	}
}

func TestMatch_NoKeywordFallsBackToDefault(t *testing.T) {
	m := newTestMatcher()
	for _, text := range []string{"xyz-nonsense-term", "", "   "} {
		p := m.Match(text)
		if !p.IsDefault() {
			t.Errorf("Match(%q) = %q, expected the DEFAULT fallback", text, p.Condition)
		}
	}
}

func TestMatch_DefaultNeverMatchedByKeyword(t *testing.T) {
	// A table whose only non-default entry cannot match must still return
	// DEFAULT, and an empty keyword must never act as a match-everything.
	table := []Protocol{
		{Condition: "Narrow", Keywords: []string{"zzz", ""}},
		{Condition: DefaultCondition},
	}
	m := NewMatcher(table, 0, zerolog.Nop())
	if p := m.Match("anything at all"); !p.IsDefault() {
		t.Errorf("expected DEFAULT, got %q", p.Condition)
	}
}

func TestMatch_TableIsNotMutated(t *testing.T) {
	m := newTestMatcher()
	before := len(m.table)
	m.Match("fever")
	m.Match("chest pain")
	if len(m.table) != before {
		t.Error("matching must never mutate the table")
	}
}

// ── Suggest ──

func TestSuggest_ZeroDelayReturnsImmediately(t *testing.T) {
	m := newTestMatcher()
	p, err := m.Suggest(context.Background(), "fever")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Condition != "Viral Fever" {
		t.Errorf("expected Viral Fever, got %q", p.Condition)
	}
}

func TestSuggest_CancelledBeforeDelay(t *testing.T) {
	m := NewMatcher(DefaultTable(), time.Minute, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := m.Suggest(ctx, "fever"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

// ── Apply ──

func TestApply_SetsEmptyFieldsVerbatim(t *testing.T) {
	m := newTestMatcher()
	p := m.Match("htn")

	var notes visit.Notes
	ed := rx.NewEditor()
	Apply(p, &notes, ed)

	if notes.Advice != p.Advice {
		t.Errorf("advice not set verbatim: %q", notes.Advice)
	}
	if notes.Investigations != p.Investigations {
		t.Errorf("investigations not set verbatim: %q", notes.Investigations)
	}
	if ed.Len() != len(p.Rx) {
		t.Errorf("expected %d rx lines, got %d", len(p.Rx), ed.Len())
	}
}

func TestApply_SameProtocolTwiceDoesNotDuplicateAdvice(t *testing.T) {
	m := newTestMatcher()
	p := m.Match("htn")

	var notes visit.Notes
	ed := rx.NewEditor()
	Apply(p, &notes, ed)
	Apply(p, &notes, ed)

	if notes.Advice != p.Advice {
		t.Errorf("repeated apply duplicated advice: %q", notes.Advice)
	}
	// Rx lines are appended unconditionally; duplicates are permitted.
	if ed.Len() != 2*len(p.Rx) {
		t.Errorf("expected %d rx lines after double apply, got %d", 2*len(p.Rx), ed.Len())
	}
}

func TestApply_DifferentAdviceIsAppendedDistinctly(t *testing.T) {
	m := newTestMatcher()
	first := m.Match("htn")
	second := m.Match("diabetes")

	var notes visit.Notes
	ed := rx.NewEditor()
	Apply(first, &notes, ed)
	Apply(second, &notes, ed)

	want := first.Advice + "\n" + second.Advice
	if notes.Advice != want {
		t.Errorf("expected both advice blocks separated, got %q", notes.Advice)
	}
}

func TestApply_AssignsIDsToTemplateLines(t *testing.T) {
	m := newTestMatcher()
	p := m.Match("fever")

	var notes visit.Notes
	ed := rx.NewEditor()
	Apply(p, &notes, ed)

	for _, it := range ed.Items() {
		if it.ID.String() == "00000000-0000-0000-0000-000000000000" {
			t.Error("applied template line must receive an id")
		}
	}
}

func TestApply_BypassesAllergyGate(t *testing.T) {
	// Bulk application never routes through the interactive confirmation;
	// the aspirin line lands even for an aspirin-allergic patient.
	m := newTestMatcher()
	p := m.Match("chest pain")

	var notes visit.Notes
	ed := rx.NewEditor()
	Apply(p, &notes, ed)

	found := false
	for _, it := range ed.Items() {
		if it.Drug == "Tab. Aspirin 325mg" {
			found = true
		}
	}
	if !found {
		t.Error("protocol rx lines must be appended without the safety gate")
	}
}

func TestDefaultTable_EndsWithDefault(t *testing.T) {
	table := DefaultTable()
	last := table[len(table)-1]
	if !last.IsDefault() {
		t.Fatalf("last entry must be the DEFAULT fallback, got %q", last.Condition)
	}
	if len(last.Keywords) != 0 {
		t.Error("DEFAULT must have no keywords")
	}
	for _, p := range table[:len(table)-1] {
		if len(p.Keywords) == 0 {
			t.Errorf("entry %q has no keywords and would be unreachable", p.Condition)
		}
	}
}
