// Package visit implements the encounter lifecycle: one draft visit per
// loaded patient context, saved into an upsert-by-id visit collection.
package visit

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/internal/domain/rx"
)

// Visit statuses.
const (
	StatusDraft = "draft"
	StatusSaved = "saved"
)

// Notes are the free-text clinical note fields of a visit.
type Notes struct {
	Complaint      string `json:"complaint"`
	Exam           string `json:"exam"`
	Diagnosis      string `json:"diagnosis"`
	Advice         string `json:"advice"`
	Investigations string `json:"investigations"`
}

// Vitals are captured as entered; numeric parsing happens only where a
// computation needs it (BMI).
type Vitals struct {
	BP     string `json:"bp"`
	Pulse  string `json:"pulse"`
	Temp   string `json:"temp"`
	SpO2   string `json:"spo2"`
	Weight string `json:"weight"`
	Height string `json:"height"`
}

// Visit is one encounter. PatientID is a weak reference: lookup only, no
// cascading delete. Rx is the prescription snapshot taken at save time.
type Visit struct {
	ID        uuid.UUID `json:"id"`
	PatientID uuid.UUID `json:"patient_id"`
	Date      time.Time `json:"date"`
	Status    string    `json:"status"`
	Notes     Notes     `json:"notes"`
	Vitals    Vitals    `json:"vitals"`
	Rx        []rx.Item `json:"rx"`
}

func (v *Visit) clone() *Visit {
	cp := *v
	cp.Rx = make([]rx.Item, len(v.Rx))
	copy(cp.Rx, v.Rx)
	return &cp
}
