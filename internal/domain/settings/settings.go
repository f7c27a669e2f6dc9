// Package settings holds the clinic configuration record: the letterhead
// fields printed on every prescription document.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinicdesk/internal/platform/storage"
)

// Clinic is the single settings record.
type Clinic struct {
	ClinicName string `json:"clinic_name"`
	DoctorName string `json:"doctor_name"`
	Address    string `json:"address"`
	FooterNote string `json:"footer_note"`
}

// Defaults used until the record is first saved.
func defaults() Clinic {
	return Clinic{
		ClinicName: "ClinicDesk",
		DoctorName: "Doctor",
		FooterNote: "Get well soon",
	}
}

// Service owns the settings record, persisted under its own gateway key.
type Service struct {
	mu     sync.RWMutex
	store  storage.Gateway
	logger zerolog.Logger
	clinic Clinic
}

func NewService(ctx context.Context, store storage.Gateway, logger zerolog.Logger) *Service {
	s := &Service{store: store, logger: logger, clinic: defaults()}

	raw, err := store.Load(ctx, storage.KeySettings)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			logger.Warn().Err(err).Msg("loading settings failed, using defaults")
		}
		return s
	}
	if err := json.Unmarshal(raw, &s.clinic); err != nil {
		logger.Warn().Err(err).Msg("settings record is corrupt, using defaults")
		s.clinic = defaults()
	}
	return s
}

func (s *Service) Get() Clinic {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clinic
}

// Update replaces the record and writes it through the gateway. A gateway
// failure is a warning; the in-memory record stays authoritative.
func (s *Service) Update(ctx context.Context, c Clinic) Clinic {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.ClinicName = strings.TrimSpace(c.ClinicName)
	c.DoctorName = strings.TrimSpace(c.DoctorName)
	c.Address = strings.TrimSpace(c.Address)
	c.FooterNote = strings.TrimSpace(c.FooterNote)
	s.clinic = c

	raw, err := json.Marshal(s.clinic)
	if err != nil {
		s.logger.Warn().Err(err).Msg("marshal settings failed")
		return s.clinic
	}
	if err := s.store.Save(ctx, storage.KeySettings, raw); err != nil {
		s.logger.Warn().Err(err).Msg("settings not persisted")
	}
	return s.clinic
}
