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

// Package transport implements the request/response datagram client used to
// talk to the P2P directory and relay servers.
package transport

//go:generate mockgen -destination=mock_transport.go -package=transport github.com/carverauto/dvrwatch/pkg/transport Client,Dialer

import (
	"context"
	"errors"
)

var (
	ErrTimeout          = errors.New("request timed out")
	ErrNoPendingRequest = errors.New("receive called without a pending request")
	ErrRequestInFlight  = errors.New("a request is already in flight")
	ErrClosed           = errors.New("client closed")
	errUnknownCodec     = errors.New("unknown codec")
	errMissingCode      = errors.New("reply carries no code")
)

// Response is a correlated reply from a server. Data holds the decoded
// structured payload, or nil when the server sent none.
type Response struct {
	Code int
	Data any
}

// Client sends one request and reads its reply. Exactly one Receive follows
// each Send; a client never has more than one request outstanding.
type Client interface {
	Send(ctx context.Context, path string) error
	Receive(ctx context.Context) (*Response, error)
	Close() error
}

// Dialer opens clients directed at a server endpoint.
type Dialer interface {
	Dial(ctx context.Context, host string, port int) (Client, error)
}

// Request issues path on c and waits for the reply.
func Request(ctx context.Context, c Client, path string) (*Response, error) {
	if err := c.Send(ctx, path); err != nil {
		return nil, err
	}

	return c.Receive(ctx)
}
