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

// Package scan checks many devices concurrently.
package scan

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/carverauto/dvrwatch/pkg/logger"
	"github.com/carverauto/dvrwatch/pkg/metrics"
	"github.com/carverauto/dvrwatch/pkg/models"
)

// LivenessChecker decides whether one device is reachable.
type LivenessChecker interface {
	IsOnline(ctx context.Context, serial string) bool
}

// BulkScanner fans liveness checks out over a bounded worker pool.
type BulkScanner struct {
	checker     LivenessChecker
	concurrency int
	recorder    metrics.Recorder
	logger      logger.Logger
}

var _ Scanner = (*BulkScanner)(nil)

func NewBulkScanner(checker LivenessChecker, concurrency int, recorder metrics.Recorder, log logger.Logger) *BulkScanner {
	if concurrency <= 0 {
		concurrency = models.DefaultConcurrency
	}

	if recorder == nil {
		recorder = metrics.Nop{}
	}

	return &BulkScanner{
		checker:     checker,
		concurrency: concurrency,
		recorder:    recorder,
		logger:      log,
	}
}

// Scan checks every distinct non-empty serial and returns once all checks
// have finished. The result has exactly one entry per such serial; a check
// that fails for any reason reads as false.
func (s *BulkScanner) Scan(ctx context.Context, serials []string) map[string]bool {
	unique := Dedupe(serials)
	results := make(map[string]bool, len(unique))

	if len(unique) == 0 {
		return results
	}

	start := time.Now()

	var mu sync.Mutex

	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)

	for _, serial := range unique {
		g.Go(func() error {
			online := s.check(ctx, serial)

			mu.Lock()
			results[serial] = online
			mu.Unlock()

			s.recorder.IncCheck(online)

			return nil
		})
	}

	_ = g.Wait()

	elapsed := time.Since(start)
	s.recorder.ObserveScanDuration(elapsed)

	s.logger.Debug().
		Int("total", len(unique)).
		Dur("duration", elapsed).
		Msg("Bulk scan finished")

	return results
}

func (s *BulkScanner) check(ctx context.Context, serial string) (online bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn().Str("serial", serial).Interface("panic", r).Msg("Recovered panic in scan worker")

			online = false
		}
	}()

	return s.checker.IsOnline(ctx, serial)
}

// Dedupe returns the distinct non-empty serials in first-seen order.
func Dedupe(serials []string) []string {
	seen := make(map[string]struct{}, len(serials))
	out := make([]string, 0, len(serials))

	for _, serial := range serials {
		if serial == "" {
			continue
		}

		if _, ok := seen[serial]; ok {
			continue
		}

		seen[serial] = struct{}{}
		out = append(out, serial)
	}

	return out
}
