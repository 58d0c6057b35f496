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
	"github.com/carverauto/dvrwatch/pkg/transport"
)

const (
	probePathFmt = "/probe/device/%s"
	infoPathFmt  = "/info/device/%s"
)

// Prober checks a device against the relay that serves it.
type Prober struct {
	dialer transport.Dialer
	logger logger.Logger
}

func NewProber(dialer transport.Dialer, log logger.Logger) *Prober {
	return &Prober{dialer: dialer, logger: log}
}

// Probe sends the probe request and then the info request to endpoint. The
// device is reachable when both succeed and info returns a payload. Probe
// never fails: every error reads as unreachable.
func (p *Prober) Probe(ctx context.Context, endpoint models.RelayEndpoint, serial string) bool {
	online, err := p.probe(ctx, endpoint, serial)
	if err != nil {
		p.logger.Debug().Err(err).Str("serial", serial).Str("relay", endpoint.Address()).Msg("Probe failed")
		return false
	}

	return online
}

func (p *Prober) probe(ctx context.Context, endpoint models.RelayEndpoint, serial string) (bool, error) {
	client, err := p.dialer.Dial(ctx, endpoint.Host, endpoint.Port)
	if err != nil {
		return false, fmt.Errorf("dial relay: %w", err)
	}

	defer func() {
		if closeErr := client.Close(); closeErr != nil {
			p.logger.Debug().Err(closeErr).Msg("Failed to close relay client")
		}
	}()

	probeResp, err := transport.Request(ctx, client, fmt.Sprintf(probePathFmt, serial))
	if err != nil {
		return false, fmt.Errorf("probe: %w", err)
	}

	infoResp, err := transport.Request(ctx, client, fmt.Sprintf(infoPathFmt, serial))
	if err != nil {
		return false, fmt.Errorf("info: %w", err)
	}

	if probeResp.Code >= successCodeLimit || infoResp.Code >= successCodeLimit {
		p.logger.Debug().Str("serial", serial).Int("probe_code", probeResp.Code).
			Int("info_code", infoResp.Code).Msg("Relay rejected device")

		return false, nil
	}

	return hasPayload(infoResp.Data), nil
}
