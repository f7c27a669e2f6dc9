package visit

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinicdesk/internal/domain/registry"
	"github.com/clinicdesk/clinicdesk/internal/domain/rx"
	"github.com/clinicdesk/clinicdesk/internal/platform/storage"
)

func newTestSession(t *testing.T) (*Session, *registry.Service, storage.Gateway) {
	t.Helper()
	store := storage.NewMemoryStore()
	reg := registry.NewService(context.Background(), store, zerolog.Nop())
	sess, err := NewSession(context.Background(), reg, store, zerolog.Nop())
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return sess, reg, store
}

func registerPatient(t *testing.T, reg *registry.Service, in registry.RegisterInput) *registry.Patient {
	t.Helper()
	p, err := reg.Register(nil, in)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return p
}

// ── Loading ──

func TestLoadPatient_OpensFreshDraft(t *testing.T) {
	sess, reg, _ := newTestSession(t)
	p := registerPatient(t, reg, registry.RegisterInput{Name: "Asha Rao"})

	v, err := sess.LoadPatient(nil, p.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Status != StatusDraft {
		t.Errorf("expected draft status, got %q", v.Status)
	}
	if v.PatientID != p.ID {
		t.Error("draft must reference the loaded patient")
	}
	if v.ID == uuid.Nil {
		t.Error("draft must have an id")
	}
	if sess.State() != StateDraft {
		t.Errorf("expected state draft, got %q", sess.State())
	}
}

func TestLoadPatient_UnknownID(t *testing.T) {
	sess, _, _ := newTestSession(t)
	if _, err := sess.LoadPatient(nil, uuid.New()); !errors.Is(err, registry.ErrNotFound) {
		t.Errorf("expected registry.ErrNotFound, got %v", err)
	}
	if sess.State() != StateUnloaded {
		t.Error("failed load must leave the session unloaded")
	}
}

func TestLoadPatient_DiscardsUnsavedWork(t *testing.T) {
	sess, reg, _ := newTestSession(t)
	a := registerPatient(t, reg, registry.RegisterInput{Name: "Asha"})
	b := registerPatient(t, reg, registry.RegisterInput{Name: "Ravi"})

	sess.LoadPatient(nil, a.ID)
	sess.SetNotes(Notes{Complaint: "fever"})
	sess.AddRx(rx.Item{Drug: "Tab. Paracetamol 500mg"}, false)

	sess.LoadPatient(nil, b.ID)
	cur := sess.Current()
	if cur.Notes.Complaint != "" {
		t.Error("new draft must not carry the previous draft's notes")
	}
	if len(sess.RxItems()) != 0 {
		t.Error("loading a patient must clear the prescription editor")
	}
	if cur.PatientID != b.ID {
		t.Error("current draft must belong to the newly loaded patient")
	}
}

// ── Notes, vitals, snapshot ──

func TestMutations_RequireActivePatient(t *testing.T) {
	sess, _, _ := newTestSession(t)

	if err := sess.SetNotes(Notes{Complaint: "x"}); !errors.Is(err, ErrNoActivePatient) {
		t.Errorf("SetNotes: expected ErrNoActivePatient, got %v", err)
	}
	if err := sess.SetVitals(Vitals{BP: "120/80"}); !errors.Is(err, ErrNoActivePatient) {
		t.Errorf("SetVitals: expected ErrNoActivePatient, got %v", err)
	}
	if err := sess.SetPatientSnapshot("aspirin", ""); !errors.Is(err, ErrNoActivePatient) {
		t.Errorf("SetPatientSnapshot: expected ErrNoActivePatient, got %v", err)
	}
	if _, err := sess.AddRx(rx.Item{Drug: "Tab. Aspirin"}, false); !errors.Is(err, ErrNoActivePatient) {
		t.Errorf("AddRx: expected ErrNoActivePatient, got %v", err)
	}
	if _, err := sess.Save(nil); !errors.Is(err, ErrNoActivePatient) {
		t.Errorf("Save: expected ErrNoActivePatient, got %v", err)
	}
}

func TestSetPatientSnapshot_AffectsSafetyGateImmediately(t *testing.T) {
	sess, reg, _ := newTestSession(t)
	p := registerPatient(t, reg, registry.RegisterInput{Name: "Asha"})
	sess.LoadPatient(nil, p.ID)

	if _, err := sess.AddRx(rx.Item{Drug: "Tab. Aspirin 75mg"}, false); err != nil {
		t.Fatalf("no allergies recorded yet, add should pass: %v", err)
	}

	sess.SetPatientSnapshot("aspirin", "")
	_, err := sess.AddRx(rx.Item{Drug: "Tab. Aspirin 75mg"}, false)
	var conflict *rx.SafetyConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("unsaved snapshot edit must gate adds, got %v", err)
	}
}

func TestSetPatientSnapshot_WrittenThroughOnSave(t *testing.T) {
	sess, reg, _ := newTestSession(t)
	p := registerPatient(t, reg, registry.RegisterInput{Name: "Asha"})
	sess.LoadPatient(nil, p.ID)
	sess.SetPatientSnapshot("penicillin", "diabetes")

	if got, _ := reg.Get(p.ID); got.Allergies != "" {
		t.Fatal("snapshot edit must not reach the registry before save")
	}

	if _, err := sess.Save(nil); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, _ := reg.Get(p.ID)
	if got.Allergies != "penicillin" || got.Chronic != "diabetes" {
		t.Errorf("snapshot not written through: %+v", got)
	}
}

// ── Save ──

func TestSave_SnapshotsRxAndMarksSaved(t *testing.T) {
	sess, reg, _ := newTestSession(t)
	p := registerPatient(t, reg, registry.RegisterInput{Name: "Asha"})
	sess.LoadPatient(nil, p.ID)
	sess.SetNotes(Notes{Complaint: "fever", Diagnosis: "viral fever"})
	sess.AddRx(rx.Item{Drug: "Tab. Paracetamol 500mg", Freq: "1-0-1"}, false)

	res, err := sess.Save(nil)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !res.Persisted {
		t.Error("memory store save must report persisted")
	}
	if res.Visit.Status != StatusSaved {
		t.Errorf("expected saved status, got %q", res.Visit.Status)
	}
	if len(res.Visit.Rx) != 1 || res.Visit.Rx[0].Drug != "Tab. Paracetamol 500mg" {
		t.Errorf("rx snapshot wrong: %+v", res.Visit.Rx)
	}
	if sess.State() != StateSaved {
		t.Errorf("expected state saved, got %q", sess.State())
	}

	visits := sess.VisitsFor(p.ID)
	if len(visits) != 1 {
		t.Fatalf("expected 1 stored visit, got %d", len(visits))
	}
}

func TestSave_TwiceUpsertsSameVisit(t *testing.T) {
	sess, reg, _ := newTestSession(t)
	p := registerPatient(t, reg, registry.RegisterInput{Name: "Asha"})
	sess.LoadPatient(nil, p.ID)

	first, _ := sess.Save(nil)
	sess.SetNotes(Notes{Complaint: "updated"})
	second, _ := sess.Save(nil)

	if first.Visit.ID != second.Visit.ID {
		t.Fatal("re-saving the current visit must keep its id")
	}
	visits := sess.VisitsFor(p.ID)
	if len(visits) != 1 {
		t.Fatalf("double save must upsert, got %d visits", len(visits))
	}
	if visits[0].Notes.Complaint != "updated" {
		t.Errorf("stored visit not updated: %+v", visits[0].Notes)
	}
}

func TestSave_ContinuesEditingAfterSave(t *testing.T) {
	sess, reg, _ := newTestSession(t)
	p := registerPatient(t, reg, registry.RegisterInput{Name: "Asha"})
	sess.LoadPatient(nil, p.ID)
	sess.Save(nil)

	sess.AddRx(rx.Item{Drug: "Tab. Amoxicillin 500mg"}, false)
	res, _ := sess.Save(nil)
	if len(res.Visit.Rx) != 1 {
		t.Errorf("post-save edits must land in the same visit, got %d lines", len(res.Visit.Rx))
	}
}

type failingStore struct {
	storage.Gateway
}

func (f failingStore) Save(context.Context, string, []byte) error {
	return errors.New("disk full")
}

func TestSave_GatewayFailureIsNotAnError(t *testing.T) {
	store := failingStore{Gateway: storage.NewMemoryStore()}
	reg := registry.NewService(context.Background(), store, zerolog.Nop())
	sess, err := NewSession(context.Background(), reg, store, zerolog.Nop())
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	p := registerPatient(t, reg, registry.RegisterInput{Name: "Asha"})
	sess.LoadPatient(nil, p.ID)

	res, err := sess.Save(nil)
	if err != nil {
		t.Fatalf("gateway failure must not fail the save: %v", err)
	}
	if res.Persisted {
		t.Error("persisted flag must be false when the gateway write fails")
	}
	if len(sess.VisitsFor(p.ID)) != 1 {
		t.Error("in-memory visit collection must stay authoritative")
	}
}

// ── History ──

func TestLoadHistory_ResumesStoredVisit(t *testing.T) {
	sess, reg, _ := newTestSession(t)
	p := registerPatient(t, reg, registry.RegisterInput{Name: "Asha"})
	sess.LoadPatient(nil, p.ID)
	sess.SetNotes(Notes{Diagnosis: "migraine"})
	sess.AddRx(rx.Item{Drug: "Tab. Naproxen 250mg"}, false)
	saved, _ := sess.Save(nil)

	sess.Clear()
	if sess.State() != StateUnloaded {
		t.Fatal("clear must unload the session")
	}

	v, err := sess.LoadHistory(nil, saved.Visit.ID)
	if err != nil {
		t.Fatalf("load history: %v", err)
	}
	if v.ID != saved.Visit.ID {
		t.Error("history load must reuse the stored visit id")
	}
	if v.Status != StatusSaved {
		t.Errorf("history load must keep saved status, got %q", v.Status)
	}
	if v.Notes.Diagnosis != "migraine" {
		t.Errorf("notes not restored: %+v", v.Notes)
	}
	items := sess.RxItems()
	if len(items) != 1 || items[0].Drug != "Tab. Naproxen 250mg" {
		t.Errorf("editor not loaded from stored rx: %+v", items)
	}
	if got := sess.ActivePatient(); got == nil || got.ID != p.ID {
		t.Error("history load must activate the visit's patient")
	}
}

func TestLoadHistory_SaveOverwritesInPlace(t *testing.T) {
	sess, reg, _ := newTestSession(t)
	p := registerPatient(t, reg, registry.RegisterInput{Name: "Asha"})
	sess.LoadPatient(nil, p.ID)
	saved, _ := sess.Save(nil)

	sess.Clear()
	sess.LoadHistory(nil, saved.Visit.ID)
	sess.SetNotes(Notes{Advice: "rest and fluids"})
	sess.Save(nil)

	visits := sess.VisitsFor(p.ID)
	if len(visits) != 1 {
		t.Fatalf("amending a historical visit must not create a new record, got %d", len(visits))
	}
	if visits[0].Notes.Advice != "rest and fluids" {
		t.Errorf("amendment not stored: %+v", visits[0].Notes)
	}
}

func TestLoadHistory_UnknownVisit(t *testing.T) {
	sess, _, _ := newTestSession(t)
	if _, err := sess.LoadHistory(nil, uuid.New()); !errors.Is(err, ErrVisitNotFound) {
		t.Errorf("expected ErrVisitNotFound, got %v", err)
	}
}

// ── Persistence across sessions ──

func TestVisits_SurviveRestart(t *testing.T) {
	store := storage.NewMemoryStore()
	reg := registry.NewService(context.Background(), store, zerolog.Nop())
	sess, _ := NewSession(context.Background(), reg, store, zerolog.Nop())
	p := registerPatient(t, reg, registry.RegisterInput{Name: "Asha"})
	sess.LoadPatient(nil, p.ID)
	sess.SetVitals(Vitals{BP: "130/85", Weight: "70", Height: "175"})
	saved, _ := sess.Save(nil)

	reborn, err := NewSession(context.Background(), reg, store, zerolog.Nop())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	v, err := reborn.GetVisit(saved.Visit.ID)
	if err != nil {
		t.Fatalf("stored visit lost across restart: %v", err)
	}
	if v.Vitals.BP != "130/85" {
		t.Errorf("vitals not restored: %+v", v.Vitals)
	}
}

// ── Copies ──

func TestCurrent_ReturnsCopy(t *testing.T) {
	sess, reg, _ := newTestSession(t)
	p := registerPatient(t, reg, registry.RegisterInput{Name: "Asha"})
	sess.LoadPatient(nil, p.ID)

	cur := sess.Current()
	cur.Notes.Complaint = "tampered"
	if sess.Current().Notes.Complaint != "" {
		t.Error("Current must return a copy")
	}

	pat := sess.ActivePatient()
	pat.Allergies = "tampered"
	if sess.ActivePatient().Allergies != "" {
		t.Error("ActivePatient must return a copy")
	}
}

func TestVisitsFor_ReturnsCopies(t *testing.T) {
	sess, reg, _ := newTestSession(t)
	p := registerPatient(t, reg, registry.RegisterInput{Name: "Asha"})
	sess.LoadPatient(nil, p.ID)
	sess.Save(nil)

	visits := sess.VisitsFor(p.ID)
	visits[0].Notes.Complaint = "tampered"
	if sess.VisitsFor(p.ID)[0].Notes.Complaint != "" {
		t.Error("VisitsFor must return copies")
	}
}
