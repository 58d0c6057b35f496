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

// Package poller drives periodic and on-demand fleet refreshes. Every
// refresh runs on the poller goroutine, so at most one is in flight.
package poller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/carverauto/dvrwatch/pkg/logger"
	"github.com/carverauto/dvrwatch/pkg/metrics"
	"github.com/carverauto/dvrwatch/pkg/models"
)

type refreshResult struct {
	stats models.Stats
	err   error
}

type refreshRequest struct {
	reply chan refreshResult
}

type Poller struct {
	refresher Refresher
	interval  time.Duration
	clock     Clock
	recorder  metrics.Recorder
	logger    logger.Logger

	requests  chan refreshRequest
	triggers  chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	// mu orders wg.Add in Start against wg.Wait in Stop.
	mu      sync.Mutex
	running bool
}

func New(refresher Refresher, interval time.Duration, clock Clock, recorder metrics.Recorder, log logger.Logger) (*Poller, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInterval, interval)
	}

	if clock == nil {
		clock = realClock{}
	}

	if recorder == nil {
		recorder = metrics.Nop{}
	}

	return &Poller{
		refresher: refresher,
		interval:  interval,
		clock:     clock,
		recorder:  recorder,
		logger:    log,
		requests:  make(chan refreshRequest),
		triggers:  make(chan struct{}, 1),
		done:      make(chan struct{}),
	}, nil
}

// Start refreshes once, then on every tick and on every manual request,
// until ctx is cancelled or Stop is called. A failed refresh is logged and
// the loop carries on. Start after Stop returns nil without refreshing.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()

	select {
	case <-p.done:
		p.mu.Unlock()
		return nil
	default:
	}

	if p.running {
		p.mu.Unlock()
		return ErrAlreadyRunning
	}

	p.running = true
	p.wg.Add(1)
	p.mu.Unlock()

	defer p.wg.Done()

	ticker := p.clock.Ticker(p.interval)
	defer ticker.Stop()

	p.logger.Info().Dur("interval", p.interval).Msg("Starting poller")

	if _, err := p.refresh(ctx, metrics.TriggerInitial); err != nil {
		p.logger.Error().Err(err).Msg("Error during initial refresh")
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.done:
			return nil
		case <-ticker.Chan():
			if _, err := p.refresh(ctx, metrics.TriggerInterval); err != nil {
				p.logger.Error().Err(err).Msg("Error during scheduled refresh")
			}
		case <-p.triggers:
			if _, err := p.refresh(ctx, metrics.TriggerManual); err != nil {
				p.logger.Error().Err(err).Msg("Error during triggered refresh")
			}
		case req := <-p.requests:
			stats, err := p.refresh(ctx, metrics.TriggerManual)
			if err != nil {
				p.logger.Error().Err(err).Msg("Error during requested refresh")
			}

			req.reply <- refreshResult{stats: stats, err: err}
		}
	}
}

// RefreshNow asks the running loop for a refresh and waits for its result.
func (p *Poller) RefreshNow(ctx context.Context) (models.Stats, error) {
	req := refreshRequest{reply: make(chan refreshResult, 1)}

	select {
	case p.requests <- req:
	case <-p.done:
		return models.Stats{}, ErrStopped
	case <-ctx.Done():
		return models.Stats{}, ctx.Err()
	}

	select {
	case res := <-req.reply:
		return res.stats, res.err
	case <-p.done:
		return models.Stats{}, ErrStopped
	case <-ctx.Done():
		return models.Stats{}, ctx.Err()
	}
}

// Trigger schedules a refresh without waiting for it. It reports false when
// one is already queued.
func (p *Poller) Trigger() bool {
	select {
	case p.triggers <- struct{}{}:
		return true
	default:
		return false
	}
}

// Stop ends the loop and waits for an in-flight refresh to finish.
func (p *Poller) Stop(ctx context.Context) error {
	p.mu.Lock()
	p.closeOnce.Do(func() {
		close(p.done)
	})
	p.mu.Unlock()

	waited := make(chan struct{})

	go func() {
		p.wg.Wait()
		close(waited)
	}()

	select {
	case <-waited:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Poller) refresh(ctx context.Context, trigger string) (stats models.Stats, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errRefreshPanicked, r)
		}
	}()

	start := p.clock.Now()

	stats = p.refresher.Refresh(ctx)

	p.recorder.IncScan(trigger)

	p.logger.Debug().
		Str("trigger", trigger).
		Dur("duration", p.clock.Now().Sub(start)).
		Int("online", stats.Online).
		Int("total", stats.Total).
		Msg("Refresh completed")

	return stats, nil
}
