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

package poller

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/dvrwatch/pkg/logger"
	"github.com/carverauto/dvrwatch/pkg/metrics"
	"github.com/carverauto/dvrwatch/pkg/models"
)

const testInterval = time.Minute

type fakeRefresher struct {
	calls     atomic.Int32
	panicNext atomic.Bool
	refreshed chan struct{}
}

func newFakeRefresher() *fakeRefresher {
	return &fakeRefresher{refreshed: make(chan struct{}, 16)}
}

func (f *fakeRefresher) Refresh(context.Context) models.Stats {
	n := f.calls.Add(1)

	defer func() { f.refreshed <- struct{}{} }()

	if f.panicNext.CompareAndSwap(true, false) {
		panic("scan exploded")
	}

	return models.Stats{Total: int(n), Online: int(n)}
}

type triggerRecorder struct {
	metrics.Nop
	mu    sync.Mutex
	scans map[string]int
}

func (r *triggerRecorder) IncScan(trigger string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.scans[trigger]++
}

func (r *triggerRecorder) count(trigger string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.scans[trigger]
}

type pollerHarness struct {
	poller    *Poller
	refresher *fakeRefresher
	recorder  *triggerRecorder
	ticks     chan time.Time
	errCh     chan error
	cancel    context.CancelFunc
}

func startPoller(t *testing.T) *pollerHarness {
	t.Helper()

	ctrl := gomock.NewController(t)

	clock := NewMockClock(ctrl)
	ticker := NewMockTicker(ctrl)
	ticks := make(chan time.Time)

	clock.EXPECT().Ticker(testInterval).Return(ticker)
	clock.EXPECT().Now().Return(time.Unix(0, 0)).AnyTimes()
	ticker.EXPECT().Chan().Return((<-chan time.Time)(ticks)).AnyTimes()
	ticker.EXPECT().Stop()

	h := &pollerHarness{
		refresher: newFakeRefresher(),
		recorder:  &triggerRecorder{scans: make(map[string]int)},
		ticks:     ticks,
		errCh:     make(chan error, 1),
	}

	p, err := New(h.refresher, testInterval, clock, h.recorder, logger.NewTestLogger())
	require.NoError(t, err)

	h.poller = p

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel

	go func() { h.errCh <- p.Start(ctx) }()

	h.waitRefresh(t)

	return h
}

func (h *pollerHarness) waitRefresh(t *testing.T) {
	t.Helper()

	select {
	case <-h.refreshed():
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for refresh")
	}
}

func (h *pollerHarness) refreshed() <-chan struct{} {
	return h.refresher.refreshed
}

func (h *pollerHarness) stop(t *testing.T) {
	t.Helper()

	require.NoError(t, h.poller.Stop(context.Background()))

	select {
	case err := <-h.errCh:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop")
	}

	h.cancel()
}

func TestPollerInitialAndScheduledRefresh(t *testing.T) {
	h := startPoller(t)

	h.ticks <- time.Now()
	h.waitRefresh(t)

	h.stop(t)

	assert.Equal(t, int32(2), h.refresher.calls.Load())
	assert.Equal(t, 1, h.recorder.count(metrics.TriggerInitial))
	assert.Equal(t, 1, h.recorder.count(metrics.TriggerInterval))
}

func TestPollerRefreshNow(t *testing.T) {
	h := startPoller(t)

	stats, err := h.poller.RefreshNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, h.recorder.count(metrics.TriggerManual))

	h.stop(t)
}

func TestPollerTrigger(t *testing.T) {
	h := startPoller(t)

	assert.True(t, h.poller.Trigger())
	h.waitRefresh(t)

	h.stop(t)

	assert.Equal(t, int32(2), h.refresher.calls.Load())
}

func TestPollerSurvivesPanickingRefresh(t *testing.T) {
	h := startPoller(t)

	h.refresher.panicNext.Store(true)

	_, err := h.poller.RefreshNow(context.Background())
	require.ErrorIs(t, err, errRefreshPanicked)

	h.ticks <- time.Now()
	h.waitRefresh(t)
	h.waitRefresh(t)

	stats, err := h.poller.RefreshNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Total)

	h.stop(t)
}

func TestPollerRefreshNowAfterStop(t *testing.T) {
	h := startPoller(t)
	h.stop(t)

	_, err := h.poller.RefreshNow(context.Background())
	require.ErrorIs(t, err, ErrStopped)

	require.NoError(t, h.poller.Stop(context.Background()))
}

func TestPollerStartAfterStopDoesNothing(t *testing.T) {
	ctrl := gomock.NewController(t)
	refresher := newFakeRefresher()

	p, err := New(refresher, testInterval, NewMockClock(ctrl), nil, logger.NewTestLogger())
	require.NoError(t, err)

	require.NoError(t, p.Stop(context.Background()))
	require.NoError(t, p.Start(context.Background()))
	assert.Equal(t, int32(0), refresher.calls.Load())
}

func TestPollerRejectsSecondStart(t *testing.T) {
	h := startPoller(t)

	require.ErrorIs(t, h.poller.Start(context.Background()), ErrAlreadyRunning)

	h.stop(t)
}

func TestPollerStopsOnContextCancel(t *testing.T) {
	h := startPoller(t)

	h.cancel()

	select {
	case err := <-h.errCh:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop on cancel")
	}
}

func TestNewRejectsInvalidInterval(t *testing.T) {
	_, err := New(newFakeRefresher(), 0, nil, nil, logger.NewTestLogger())
	require.ErrorIs(t, err, ErrInvalidInterval)
}
