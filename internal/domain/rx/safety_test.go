package rx

import "testing"

func TestCheck_MatchesGenericToken(t *testing.T) {
	if !Check("Tab. Aspirin 75mg", "aspirin, penicillin") {
		t.Error("expected conflict for aspirin")
	}
}

func TestCheck_NoMatch(t *testing.T) {
	if Check("Tab. Aspirin 75mg", "penicillin") {
		t.Error("expected no conflict for penicillin-only allergies")
	}
}

func TestCheck_EmptyAllergiesNeverConflict(t *testing.T) {
	if Check("Tab. Aspirin 75mg", "") {
		t.Error("empty allergies must not conflict")
	}
	if Check("Tab. Aspirin 75mg", "   ") {
		t.Error("whitespace allergies must not conflict")
	}
}

func TestCheck_CaseInsensitive(t *testing.T) {
	if !Check("Tab. ASPIRIN 75mg", "Aspirin") {
		t.Error("expected case-insensitive conflict")
	}
}

func TestCheck_NoDosageFormPrefix(t *testing.T) {
	if !Check("Amoxicillin 500mg", "amoxicillin") {
		t.Error("expected conflict without a form prefix")
	}
}

func TestCheck_PrefixOnlyDrugName(t *testing.T) {
	// A bare form token has nothing past the prefix; the token itself is
	// compared.
	if Check("Tab.", "aspirin") {
		t.Error("bare prefix should not conflict with unrelated allergies")
	}
}

func TestCheck_EmptyDrugName(t *testing.T) {
	if Check("", "aspirin") {
		t.Error("empty drug name must not conflict")
	}
}
