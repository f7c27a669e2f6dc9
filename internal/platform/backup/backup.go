// Package backup periodically snapshots the persistence gateway to JSON
// files on disk, so a misbehaving backend never costs more than one
// interval of clinic data.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinicdesk/internal/platform/storage"
)

var snapshotKeys = []string{storage.KeyPatients, storage.KeyVisits, storage.KeySettings}

// Scheduler runs the periodic snapshot job.
type Scheduler struct {
	store     storage.Gateway
	dir       string
	interval  time.Duration
	logger    zerolog.Logger
	scheduler *gocron.Scheduler
}

func NewScheduler(store storage.Gateway, dir string, interval time.Duration, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		store:     store,
		dir:       dir,
		interval:  interval,
		logger:    logger,
		scheduler: gocron.NewScheduler(time.Local),
	}
}

// Start schedules snapshots at the configured interval and runs them in
// the background. The first snapshot fires after one full interval.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(s.interval).Do(func() {
		if _, err := s.Snapshot(context.Background()); err != nil {
			s.logger.Error().Err(err).Msg("backup snapshot failed")
		}
	})
	if err != nil {
		return fmt.Errorf("schedule backup: %w", err)
	}

	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// Snapshot writes one timestamped JSON file containing every gateway key
// that currently has a value, and returns its path.
func (s *Scheduler) Snapshot(ctx context.Context) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	dump := make(map[string]json.RawMessage, len(snapshotKeys))
	for _, key := range snapshotKeys {
		value, err := s.store.Load(ctx, key)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("load %s: %w", key, err)
		}
		dump[key] = json.RawMessage(value)
	}

	data, err := json.MarshalIndent(dump, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	path := filepath.Join(s.dir, fmt.Sprintf("backup-%s.json", time.Now().Format("20060102-150405")))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	s.logger.Info().Str("path", path).Int("keys", len(dump)).Msg("backup snapshot written")
	return path, nil
}
