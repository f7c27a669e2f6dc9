package visit

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinicdesk/internal/domain/registry"
	"github.com/clinicdesk/clinicdesk/internal/domain/rx"
	"github.com/clinicdesk/clinicdesk/internal/platform/storage"
)

// Session states.
const (
	StateUnloaded = "unloaded"
	StateDraft    = "draft"
	StateSaved    = "saved"
)

var (
	ErrNoActivePatient = errors.New("no active patient")
	ErrVisitNotFound   = errors.New("visit not found")
)

// SaveResult reports the outcome of a Save. Persisted is false when the
// in-memory state is valid but the gateway write failed.
type SaveResult struct {
	Visit     *Visit `json:"visit"`
	Persisted bool   `json:"persisted"`
}

// Session is the single active encounter context. All state transitions go
// through it: loading a patient opens a fresh draft, loading history resumes
// a stored visit, and Save snapshots the prescription list into the visit
// collection. A Session holds at most one current visit.
type Session struct {
	mu       sync.Mutex
	registry *registry.Service
	store    storage.Gateway
	logger   zerolog.Logger

	patient *registry.Patient
	current *Visit
	editor  *rx.Editor
	visits  []*Visit
}

// NewSession restores the visit collection from the gateway. A missing key
// means a first run and starts empty; a corrupt payload is an error.
func NewSession(ctx context.Context, reg *registry.Service, store storage.Gateway, logger zerolog.Logger) (*Session, error) {
	s := &Session{
		registry: reg,
		store:    store,
		logger:   logger.With().Str("component", "visit_session").Logger(),
		editor:   rx.NewEditor(),
	}

	raw, err := store.Load(ctx, storage.KeyVisits)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return s, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(raw, &s.visits); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadPatient makes the given patient active and opens a fresh draft visit.
// Any unsaved work from a previous context is discarded without prompting.
func (s *Session) LoadPatient(ctx context.Context, patientID uuid.UUID) (*Visit, error) {
	p, err := s.registry.Get(patientID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.patient = p
	s.current = &Visit{
		ID:        uuid.New(),
		PatientID: p.ID,
		Date:      time.Now().UTC(),
		Status:    StatusDraft,
	}
	s.editor.Clear()
	return s.current.clone(), nil
}

// LoadHistory resumes a stored visit for review or amendment. The session
// fields are overwritten from the stored record, the visit keeps its original
// id and status, and the prescription editor is loaded with the stored lines.
// Saving afterwards updates the same record in place.
func (s *Session) LoadHistory(ctx context.Context, visitID uuid.UUID) (*Visit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stored *Visit
	for _, v := range s.visits {
		if v.ID == visitID {
			stored = v
			break
		}
	}
	if stored == nil {
		return nil, ErrVisitNotFound
	}

	p, err := s.registry.Get(stored.PatientID)
	if err != nil {
		return nil, err
	}

	s.patient = p
	s.current = stored.clone()
	s.editor.Load(stored.Rx)
	return s.current.clone(), nil
}

// SetNotes replaces the free-text note fields of the current visit.
func (s *Session) SetNotes(n Notes) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return ErrNoActivePatient
	}
	s.current.Notes = n
	return nil
}

// SetVitals replaces the vitals of the current visit.
func (s *Session) SetVitals(v Vitals) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return ErrNoActivePatient
	}
	s.current.Vitals = v
	return nil
}

// SetPatientSnapshot edits the active patient's allergy and chronic-condition
// text in the session. The edit takes effect immediately for safety checks;
// it is written through to the registry on the next Save.
func (s *Session) SetPatientSnapshot(allergies, chronic string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.patient == nil {
		return ErrNoActivePatient
	}
	s.patient.Allergies = allergies
	s.patient.Chronic = chronic
	return nil
}

// AddRx runs a line through the editor, gating appends against the active
// patient's current allergy text. Updates to an existing line bypass the gate.
func (s *Session) AddRx(item rx.Item, override bool) (rx.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.patient == nil {
		return rx.Item{}, ErrNoActivePatient
	}
	return s.editor.Add(item, s.patient.Allergies, override)
}

// BeginEditRx moves a line into the edit slot. Unknown ids are a no-op.
func (s *Session) BeginEditRx(id uuid.UUID) (rx.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editor.BeginEdit(id)
}

// CancelEditRx clears the edit slot without touching the list.
func (s *Session) CancelEditRx() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editor.CancelEdit()
}

// DeleteRx removes a line by id.
func (s *Session) DeleteRx(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editor.Delete(id)
}

// WithCurrent runs fn with the current visit and editor under the session
// lock. It is the extension point for multi-field mutations such as applying
// a protocol template.
func (s *Session) WithCurrent(fn func(v *Visit, ed *rx.Editor) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return ErrNoActivePatient
	}
	return fn(s.current, s.editor)
}

// Save snapshots the prescription list into the current visit, marks it
// saved, and upserts it into the visit collection by id. The patient
// snapshot is written through to the registry. A gateway failure is reported
// through SaveResult.Persisted, not as an error: the in-memory state stays
// valid and a later Save retries the write.
func (s *Session) Save(ctx context.Context) (*SaveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.patient == nil || s.current == nil {
		return nil, ErrNoActivePatient
	}

	s.current.Rx = s.editor.Items()
	s.current.Status = StatusSaved

	stored := s.current.clone()
	replaced := false
	for i, v := range s.visits {
		if v.ID == stored.ID {
			s.visits[i] = stored
			replaced = true
			break
		}
	}
	if !replaced {
		s.visits = append(s.visits, stored)
	}

	if err := s.registry.UpdateSnapshot(ctx, s.patient.ID, s.patient.Allergies, s.patient.Chronic); err != nil {
		s.logger.Warn().Err(err).Str("patient_id", s.patient.ID.String()).Msg("patient snapshot write-through failed")
	}

	persisted := s.persistLocked(ctx)
	return &SaveResult{Visit: s.current.clone(), Persisted: persisted}, nil
}

// Clear drops the active patient and draft, returning to the unloaded state.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patient = nil
	s.current = nil
	s.editor.Clear()
}

// State reports unloaded, draft, or saved.
func (s *Session) State() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.current == nil:
		return StateUnloaded
	case s.current.Status == StatusSaved:
		return StateSaved
	default:
		return StateDraft
	}
}

// ActivePatient returns a copy of the active patient, or nil when unloaded.
// The copy reflects unsaved snapshot edits.
func (s *Session) ActivePatient() *registry.Patient {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.patient == nil {
		return nil
	}
	cp := *s.patient
	return &cp
}

// Current returns a copy of the current visit with the live prescription
// list, or nil when unloaded.
func (s *Session) Current() *Visit {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	cp := s.current.clone()
	cp.Rx = s.editor.Items()
	return cp
}

// RxItems returns the live prescription list.
func (s *Session) RxItems() []rx.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editor.Items()
}

// EditingID returns the id in the edit slot, or uuid.Nil.
func (s *Session) EditingID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editor.EditingID()
}

// VisitsFor returns stored visits for a patient in insertion order.
func (s *Session) VisitsFor(patientID uuid.UUID) []*Visit {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Visit
	for _, v := range s.visits {
		if v.PatientID == patientID {
			out = append(out, v.clone())
		}
	}
	return out
}

// GetVisit returns a stored visit by id.
func (s *Session) GetVisit(id uuid.UUID) (*Visit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.visits {
		if v.ID == id {
			return v.clone(), nil
		}
	}
	return nil, ErrVisitNotFound
}

func (s *Session) persistLocked(ctx context.Context) bool {
	raw, err := json.Marshal(s.visits)
	if err != nil {
		s.logger.Warn().Err(err).Msg("marshal visits failed")
		return false
	}
	if err := s.store.Save(ctx, storage.KeyVisits, raw); err != nil {
		s.logger.Warn().Err(err).Msg("persist visits failed")
		return false
	}
	return true
}
