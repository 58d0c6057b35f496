/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package store holds the device inventory together with the liveness view
// from the most recent scan.
package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/carverauto/dvrwatch/pkg/logger"
	"github.com/carverauto/dvrwatch/pkg/metrics"
	"github.com/carverauto/dvrwatch/pkg/models"
	"github.com/carverauto/dvrwatch/pkg/records"
	"github.com/carverauto/dvrwatch/pkg/scan"
)

var errNotLoaded = errors.New("records not loaded")

// DataStore is safe for concurrent use. Readers never observe a partially
// published scan: the liveness map is only ever replaced whole.
type DataStore struct {
	source   records.Source
	scanner  scan.Scanner
	recorder metrics.Recorder
	logger   logger.Logger
	now      func() time.Time

	mu       sync.RWMutex
	rows     []models.DeviceRecord
	loaded   bool
	liveness map[string]bool
	lastScan *time.Time
}

type Option func(*DataStore)

// WithClock overrides the time source used to stamp scans.
func WithClock(now func() time.Time) Option {
	return func(s *DataStore) {
		s.now = now
	}
}

func WithRecorder(rec metrics.Recorder) Option {
	return func(s *DataStore) {
		s.recorder = rec
	}
}

func NewDataStore(source records.Source, scanner scan.Scanner, log logger.Logger, opts ...Option) *DataStore {
	s := &DataStore{
		source:   source,
		scanner:  scanner,
		recorder: metrics.Nop{},
		logger:   log,
		now:      time.Now,
		liveness: make(map[string]bool),
	}

	for _, o := range opts {
		o(s)
	}

	return s
}

// Load replaces the inventory with the rows read from the source. A missing
// column error from the source is returned unchanged so callers can treat it
// as fatal.
func (s *DataStore) Load(ctx context.Context) error {
	rows, err := s.source.Load(ctx)
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}

	for i := range rows {
		rows[i].Serial = records.NormalizeSerial(rows[i].Serial)
	}

	s.mu.Lock()
	s.rows = rows
	s.loaded = true
	s.mu.Unlock()

	s.logger.Info().Int("total", len(rows)).Msg("Loaded device records")

	return nil
}

// Stats counts the inventory against the current liveness view.
func (s *DataStore) Stats() models.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.statsLocked()
}

func (s *DataStore) statsLocked() models.Stats {
	stats := models.Stats{Total: len(s.rows)}

	for _, rec := range s.rows {
		if s.onlineLocked(rec.Serial) {
			stats.Online++
		} else {
			stats.Offline++
		}
	}

	if s.lastScan != nil {
		epoch := float64(s.lastScan.UnixNano()) / float64(time.Second)
		stats.LastUpdated = &epoch
	}

	return stats
}

func (s *DataStore) onlineLocked(serial string) bool {
	return serial != "" && s.liveness[serial]
}

// ListByStatus returns a copy of the records passing filter, in inventory
// order.
func (s *DataStore) ListByStatus(filter models.StatusFilter) []models.DeviceStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.DeviceStatus, 0, len(s.rows))

	for _, rec := range s.rows {
		online := s.onlineLocked(rec.Serial)
		if !filter.Matches(online) {
			continue
		}

		out = append(out, models.DeviceStatus{DeviceRecord: rec, Status: models.StatusLabel(online)})
	}

	return out
}

// FindBySite returns the first record whose trimmed site equals the trimmed
// argument.
func (s *DataStore) FindBySite(site string) (models.DeviceStatus, bool) {
	site = strings.TrimSpace(site)

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.rows {
		if strings.TrimSpace(rec.Site) == site {
			return models.DeviceStatus{
				DeviceRecord: rec,
				Status:       models.StatusLabel(s.onlineLocked(rec.Serial)),
			}, true
		}
	}

	return models.DeviceStatus{}, false
}

// UpdateSerial rewrites the serial of every record at site and persists the
// inventory. It reports false when no record matches. On success the new
// serial reads as offline and the scan timestamp is cleared until the next
// refresh. A persistence failure leaves the store unchanged.
func (s *DataStore) UpdateSerial(ctx context.Context, site, rawSerial string) (bool, error) {
	site = strings.TrimSpace(site)
	serial := records.NormalizeSerial(rawSerial)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return false, errNotLoaded
	}

	updated := slices.Clone(s.rows)
	matched := 0

	for i := range updated {
		if strings.TrimSpace(updated[i].Site) == site {
			updated[i].Serial = serial
			matched++
		}
	}

	if matched == 0 {
		return false, nil
	}

	if err := s.source.Save(ctx, updated); err != nil {
		return false, fmt.Errorf("persist records: %w", err)
	}

	s.rows = updated

	if serial != "" {
		delete(s.liveness, serial)
	}

	s.lastScan = nil

	s.logger.Info().
		Str("site", site).
		Str("serial", serial).
		Int("records", matched).
		Msg("Updated device serial")

	return true, nil
}

// Serials snapshots the distinct non-empty serials in the inventory.
func (s *DataStore) Serials() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	serials := make([]string, 0, len(s.rows))
	for _, rec := range s.rows {
		serials = append(serials, rec.Serial)
	}

	return scan.Dedupe(serials)
}

// Refresh scans every serial and publishes the result. Network I/O happens
// outside the lock; the new map and timestamp are swapped in together.
func (s *DataStore) Refresh(ctx context.Context) models.Stats {
	serials := s.Serials()
	result := s.scanner.Scan(ctx, serials)
	finished := s.now()

	if result == nil {
		result = make(map[string]bool)
	}

	s.mu.Lock()
	s.liveness = result
	s.lastScan = &finished
	stats := s.statsLocked()
	s.mu.Unlock()

	s.recorder.SetDevices(stats.Total, stats.Online, stats.Offline)

	s.logger.Info().
		Int("total", stats.Total).
		Int("online", stats.Online).
		Int("offline", stats.Offline).
		Int("serials", len(serials)).
		Msg("Refreshed device liveness")

	return stats
}
