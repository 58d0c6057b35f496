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

package liveness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/carverauto/dvrwatch/pkg/logger"
	"github.com/carverauto/dvrwatch/pkg/models"
)

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) Resolve(ctx context.Context, serial string) (models.RelayEndpoint, bool, error) {
	args := m.Called(ctx, serial)

	return args.Get(0).(models.RelayEndpoint), args.Bool(1), args.Error(2)
}

type mockProber struct {
	mock.Mock
}

func (m *mockProber) Probe(ctx context.Context, endpoint models.RelayEndpoint, serial string) bool {
	args := m.Called(ctx, endpoint, serial)

	return args.Bool(0)
}

type panicProber struct{}

func (panicProber) Probe(context.Context, models.RelayEndpoint, string) bool {
	panic("relay exploded")
}

func TestCheckerOnline(t *testing.T) {
	resolver := &mockResolver{}
	prober := &mockProber{}

	resolver.On("Resolve", mock.Anything, "111").Return(testRelay, true, nil)
	prober.On("Probe", mock.Anything, testRelay, "111").Return(true)

	checker := NewChecker(resolver, prober, logger.NewTestLogger())

	result := checker.Check(context.Background(), "111")
	assert.True(t, result.Online)
	assert.Equal(t, models.StageOnline, result.Stage)
	assert.Equal(t, &testRelay, result.Relay)
	assert.True(t, checker.IsOnline(context.Background(), "111"))

	resolver.AssertExpectations(t)
	prober.AssertExpectations(t)
}

func TestCheckerUnresolvedSkipsProbe(t *testing.T) {
	resolver := &mockResolver{}
	prober := &mockProber{}

	resolver.On("Resolve", mock.Anything, "222").Return(models.RelayEndpoint{}, false, nil)

	checker := NewChecker(resolver, prober, logger.NewTestLogger())

	result := checker.Check(context.Background(), "222")
	assert.False(t, result.Online)
	assert.Equal(t, models.StageUnresolved, result.Stage)
	assert.Nil(t, result.Relay)

	prober.AssertNotCalled(t, "Probe", mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckerResolveError(t *testing.T) {
	resolver := &mockResolver{}
	prober := &mockProber{}

	resolver.On("Resolve", mock.Anything, "333").Return(models.RelayEndpoint{}, false, errNetDown)

	checker := NewChecker(resolver, prober, logger.NewTestLogger())

	result := checker.Check(context.Background(), "333")
	assert.False(t, result.Online)
	assert.Equal(t, models.StageResolveError, result.Stage)
	assert.Contains(t, result.Error, "network down")
	assert.False(t, checker.IsOnline(context.Background(), "333"))
}

func TestCheckerProbeFailed(t *testing.T) {
	resolver := &mockResolver{}
	prober := &mockProber{}

	resolver.On("Resolve", mock.Anything, "444").Return(testRelay, true, nil)
	prober.On("Probe", mock.Anything, testRelay, "444").Return(false)

	checker := NewChecker(resolver, prober, logger.NewTestLogger())

	result := checker.Check(context.Background(), "444")
	assert.False(t, result.Online)
	assert.Equal(t, models.StageProbeFailed, result.Stage)
}

func TestCheckerRecoversPanics(t *testing.T) {
	resolver := &mockResolver{}
	resolver.On("Resolve", mock.Anything, "555").Return(testRelay, true, nil)

	checker := NewChecker(resolver, panicProber{}, logger.NewTestLogger())

	var result models.CheckResult

	assert.NotPanics(t, func() {
		result = checker.Check(context.Background(), "555")
	})

	assert.False(t, result.Online)
	assert.Equal(t, models.StageProbeFailed, result.Stage)
	assert.Contains(t, result.Error, "relay exploded")
}
