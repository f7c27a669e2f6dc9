// Package rx implements the prescription-line editor and the allergy
// safety gate for the active visit.
package rx

import "github.com/google/uuid"

// Item is one prescription line. Drug carries a dosage-form prefix by
// convention ("Tab.", "Cap.", "Syr.", "Inj."); Freq is a frequency code
// (OD/BD/TDS/HS/SOS).
type Item struct {
	ID       uuid.UUID `json:"id"`
	Drug     string    `json:"drug"`
	Dose     string    `json:"dose"`
	Freq     string    `json:"freq"`
	Duration string    `json:"duration"`
	Remarks  string    `json:"remarks"`
}
