package rx

import (
	"fmt"
	"strings"
)

// SafetyConflictError reports an allergy match on an Rx append. It is a
// confirmation checkpoint, not a hard failure: the caller may retry with
// an explicit override.
type SafetyConflictError struct {
	Drug      string
	Allergies string
}

func (e *SafetyConflictError) Error() string {
	return fmt.Sprintf("possible allergy conflict: %q against recorded allergies %q", e.Drug, e.Allergies)
}

// Check reports whether the drug name conflicts with the patient's
// recorded allergies. Both sides are lowercased; the drug's identifying
// token (the first whitespace-delimited word after any dosage-form prefix
// like "Tab.") is searched for as a substring of the allergy text. A
// coarse heuristic by design: empty allergies never conflict.
func Check(drugName, patientAllergies string) bool {
	allergies := strings.ToLower(strings.TrimSpace(patientAllergies))
	if allergies == "" {
		return false
	}

	fields := strings.Fields(strings.ToLower(drugName))
	if len(fields) == 0 {
		return false
	}
	token := fields[0]
	if strings.HasSuffix(token, ".") && len(fields) > 1 {
		token = fields[1]
	}

	return strings.Contains(allergies, token)
}
