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

// Package liveness decides whether a device is reachable on the P2P relay
// network: a directory lookup finds the relay serving the device, then the
// relay is probed for the device.
package liveness

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/carverauto/dvrwatch/pkg/logger"
	"github.com/carverauto/dvrwatch/pkg/models"
	"github.com/carverauto/dvrwatch/pkg/transport"
)

const (
	directoryPathFmt = "/online/p2psrv/%s"
	successCodeLimit = 400
	maxPort          = 65535
)

// Resolver asks the directory server which relay currently serves a device.
type Resolver struct {
	dialer    transport.Dialer
	directory models.DirectoryConfig
	logger    logger.Logger
}

func NewResolver(dialer transport.Dialer, directory models.DirectoryConfig, log logger.Logger) *Resolver {
	return &Resolver{dialer: dialer, directory: directory, logger: log}
}

// Resolve returns the relay endpoint for serial. ok is false when the
// directory answered but the answer does not name a usable endpoint. Transport
// failures are returned as errors.
func (r *Resolver) Resolve(ctx context.Context, serial string) (endpoint models.RelayEndpoint, ok bool, err error) {
	client, err := r.dialer.Dial(ctx, r.directory.Host, r.directory.Port)
	if err != nil {
		return models.RelayEndpoint{}, false, fmt.Errorf("dial directory: %w", err)
	}

	defer func() {
		if closeErr := client.Close(); closeErr != nil {
			r.logger.Debug().Err(closeErr).Msg("Failed to close directory client")
		}
	}()

	resp, err := transport.Request(ctx, client, fmt.Sprintf(directoryPathFmt, serial))
	if err != nil {
		return models.RelayEndpoint{}, false, fmt.Errorf("query directory for %s: %w", serial, err)
	}

	endpoint, ok = parseDirectoryResponse(resp)
	if !ok {
		r.logger.Debug().Str("serial", serial).Int("code", resp.Code).Msg("Directory did not resolve device")
	}

	return endpoint, ok, nil
}

// parseDirectoryResponse extracts data.body.US ("host:port").
func parseDirectoryResponse(resp *transport.Response) (models.RelayEndpoint, bool) {
	if resp == nil || resp.Code >= successCodeLimit || !hasPayload(resp.Data) {
		return models.RelayEndpoint{}, false
	}

	data, ok := resp.Data.(map[string]any)
	if !ok {
		return models.RelayEndpoint{}, false
	}

	body, ok := data["body"].(map[string]any)
	if !ok {
		return models.RelayEndpoint{}, false
	}

	us, ok := body["US"].(string)
	if !ok {
		return models.RelayEndpoint{}, false
	}

	return parseHostPort(us)
}

func parseHostPort(value string) (models.RelayEndpoint, bool) {
	host, portStr, found := strings.Cut(strings.TrimSpace(value), ":")
	if !found {
		return models.RelayEndpoint{}, false
	}

	host = strings.TrimSpace(host)
	if host == "" {
		return models.RelayEndpoint{}, false
	}

	port, err := strconv.Atoi(strings.TrimSpace(portStr))
	if err != nil || port <= 0 || port > maxPort {
		return models.RelayEndpoint{}, false
	}

	return models.RelayEndpoint{Host: host, Port: port}, true
}
