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
	"fmt"

	"github.com/carverauto/dvrwatch/pkg/logger"
	"github.com/carverauto/dvrwatch/pkg/models"
)

// EndpointResolver finds the relay serving a device.
type EndpointResolver interface {
	Resolve(ctx context.Context, serial string) (models.RelayEndpoint, bool, error)
}

// DeviceProber checks a device on a relay.
type DeviceProber interface {
	Probe(ctx context.Context, endpoint models.RelayEndpoint, serial string) bool
}

// Checker chains resolution and probing into a single liveness verdict.
type Checker struct {
	resolver EndpointResolver
	prober   DeviceProber
	logger   logger.Logger
}

func NewChecker(resolver EndpointResolver, prober DeviceProber, log logger.Logger) *Checker {
	return &Checker{resolver: resolver, prober: prober, logger: log}
}

// IsOnline reports whether serial is reachable. It never fails and never
// panics: every failure reads as offline.
func (c *Checker) IsOnline(ctx context.Context, serial string) bool {
	return c.Check(ctx, serial).Online
}

// Check runs the resolve and probe chain and records how far it got.
func (c *Checker) Check(ctx context.Context, serial string) (result models.CheckResult) {
	result = models.CheckResult{Serial: serial, Stage: models.StageUnresolved}

	defer func() {
		if r := recover(); r != nil {
			c.logger.Debug().Str("serial", serial).Interface("panic", r).Msg("Recovered panic during liveness check")

			result.Online = false
			result.Error = fmt.Sprintf("panic: %v", r)
		}
	}()

	endpoint, ok, err := c.resolver.Resolve(ctx, serial)
	if err != nil {
		c.logger.Debug().Err(err).Str("serial", serial).Msg("Directory lookup failed")

		result.Stage = models.StageResolveError
		result.Error = err.Error()

		return result
	}

	if !ok {
		return result
	}

	result.Relay = &endpoint
	result.Stage = models.StageProbeFailed

	if !c.prober.Probe(ctx, endpoint, serial) {
		return result
	}

	result.Stage = models.StageOnline
	result.Online = true

	return result
}
