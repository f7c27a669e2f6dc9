package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinicdesk/internal/platform/storage"
)

// ErrNameRequired is returned by Register when the patient name is empty
// or whitespace.
var ErrNameRequired = errors.New("patient name is required")

// ErrNotFound is returned when no patient exists for the id.
var ErrNotFound = errors.New("patient not found")

// SearchLimit caps the number of results Search returns.
const SearchLimit = 10

// Service owns the patient collection. The collection lives in memory in
// registration order and is written through the persistence gateway after
// every mutation; a gateway failure is logged and the in-memory state
// stays authoritative.
type Service struct {
	mu       sync.RWMutex
	store    storage.Gateway
	logger   zerolog.Logger
	patients []*Patient
}

func NewService(ctx context.Context, store storage.Gateway, logger zerolog.Logger) *Service {
	s := &Service{store: store, logger: logger}
	s.load(ctx)
	return s
}

func (s *Service) load(ctx context.Context) {
	data, err := s.store.Load(ctx, storage.KeyPatients)
	if errors.Is(err, storage.ErrNotFound) {
		return
	}
	if err != nil {
		s.logger.Warn().Err(err).Msg("loading patient collection failed, starting empty")
		return
	}
	if err := json.Unmarshal(data, &s.patients); err != nil {
		s.logger.Warn().Err(err).Msg("patient collection is corrupt, starting empty")
		s.patients = nil
	}
}

type RegisterInput struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Age       string `json:"age"`
	Sex       string `json:"sex"`
	Allergies string `json:"allergies"`
	Chronic   string `json:"chronic"`
}

// Register appends a new patient. Duplicate names and phones are allowed;
// only a blank name is rejected.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Patient, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, ErrNameRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	id := uuid.New()
	p := &Patient{
		ID:           id,
		UHID:         newUHID(id, now),
		Name:         strings.TrimSpace(in.Name),
		Phone:        strings.TrimSpace(in.Phone),
		Age:          strings.TrimSpace(in.Age),
		Sex:          in.Sex,
		Allergies:    strings.TrimSpace(in.Allergies),
		Chronic:      strings.TrimSpace(in.Chronic),
		RegisteredAt: now,
	}
	s.patients = append(s.patients, p)
	s.persist(ctx)

	out := *p
	return &out, nil
}

// Search returns patients whose name, phone or UHID contains the query,
// case- and accent-insensitively, in registration order, capped at
// SearchLimit. An empty query returns no results.
func (s *Service) Search(query string) []*Patient {
	q := fold(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Patient
	for _, p := range s.patients {
		if strings.Contains(fold(p.Name), q) ||
			strings.Contains(fold(p.Phone), q) ||
			strings.Contains(fold(p.UHID), q) ||
			strings.Contains(p.ID.String(), q) {
			cp := *p
			out = append(out, &cp)
			if len(out) == SearchLimit {
				break
			}
		}
	}
	return out
}

func (s *Service) Get(id uuid.UUID) (*Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.patients {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

// UpdateSnapshot overwrites the allergy and chronic-condition snapshot of
// a patient. Called on visit save; there is no standalone patient edit.
func (s *Service) UpdateSnapshot(ctx context.Context, id uuid.UUID, allergies, chronic string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.patients {
		if p.ID == id {
			p.Allergies = strings.TrimSpace(allergies)
			p.Chronic = strings.TrimSpace(chronic)
			s.persist(ctx)
			return nil
		}
	}
	return ErrNotFound
}

// All returns a copy of the collection in registration order.
func (s *Service) All() []*Patient {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Patient, 0, len(s.patients))
	for _, p := range s.patients {
		cp := *p
		out = append(out, &cp)
	}
	return out
}

// persist writes the collection through the gateway. Failures are warnings:
// the user must not lose in-memory work over a storage hiccup. Callers hold
// the write lock.
func (s *Service) persist(ctx context.Context) {
	data, err := json.Marshal(s.patients)
	if err != nil {
		s.logger.Warn().Err(err).Msg("marshal patient collection failed")
		return
	}
	if err := s.store.Save(ctx, storage.KeyPatients, data); err != nil {
		s.logger.Warn().Err(fmt.Errorf("persist patients: %w", err)).Msg("patient collection not persisted")
	}
}
