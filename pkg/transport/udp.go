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

package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/carverauto/dvrwatch/pkg/logger"
	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
)

const (
	defaultAttemptTimeout = 2 * time.Second
	defaultMaxAttempts    = 3
	maxDatagramSize       = 64 * 1024
	retryInitialInterval  = 100 * time.Millisecond
	retryMaxInterval      = time.Second
)

var errAttemptTimeout = errors.New("attempt timed out")

// Options configures UDP clients.
type Options struct {
	// AttemptTimeout bounds the wait for a reply to one transmission.
	AttemptTimeout time.Duration
	// MaxAttempts is the number of transmissions of the same request,
	// including the first one.
	MaxAttempts int
	Codec       Codec
	Logger      logger.Logger
}

// UDPDialer opens one UDP socket per client.
type UDPDialer struct {
	opts Options
}

var _ Dialer = (*UDPDialer)(nil)

// NewUDPDialer returns a Dialer that applies opts to every client it opens.
func NewUDPDialer(opts Options) *UDPDialer {
	if opts.AttemptTimeout <= 0 {
		opts.AttemptTimeout = defaultAttemptTimeout
	}

	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}

	if opts.Codec == nil {
		opts.Codec = jsonCodec{}
	}

	if opts.Logger == nil {
		opts.Logger = logger.NewTestLogger()
	}

	return &UDPDialer{opts: opts}
}

func (d *UDPDialer) Dial(ctx context.Context, host string, port int) (Client, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	var dialer net.Dialer

	conn, err := dialer.DialContext(ctx, "udp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	return &udpClient{
		conn:   conn,
		addr:   addr,
		opts:   d.opts,
		buf:    make([]byte, maxDatagramSize),
		logger: d.opts.Logger,
	}, nil
}

type pendingRequest struct {
	id      string
	path    string
	payload []byte
}

// udpClient is not safe for concurrent Send/Receive; Close may be called
// from any goroutine and unblocks a pending Receive.
type udpClient struct {
	conn   net.Conn
	addr   string
	opts   Options
	buf    []byte
	logger logger.Logger

	mu      sync.Mutex
	pending *pendingRequest
	closed  bool

	// lastMalformed is the most recent undecodable or codeless reply seen
	// by the current Receive.
	lastMalformed error
}

func (c *udpClient) Send(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	if c.pending != nil {
		return ErrRequestInFlight
	}

	req := envelope{ID: uuid.NewString(), Path: path}

	payload, err := c.opts.Codec.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode request %s: %w", path, err)
	}

	if _, err := c.conn.Write(payload); err != nil {
		return fmt.Errorf("send %s to %s: %w", path, c.addr, err)
	}

	c.pending = &pendingRequest{id: req.ID, path: path, payload: payload}

	return nil
}

func (c *udpClient) Receive(ctx context.Context) (*Response, error) {
	c.mu.Lock()
	req := c.pending
	c.pending = nil
	closed := c.closed
	c.mu.Unlock()

	if closed {
		return nil, ErrClosed
	}

	if req == nil {
		return nil, ErrNoPendingRequest
	}

	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = retryInitialInterval
	bo.MaxInterval = retryMaxInterval

	c.lastMalformed = nil
	attempt := 0

	resp, err := backoff.Retry(ctx, func() (*Response, error) {
		attempt++

		if attempt > 1 {
			c.logger.Debug().Str("path", req.path).Str("addr", c.addr).Int("attempt", attempt).
				Msg("Retransmitting request")

			if _, err := c.conn.Write(req.payload); err != nil {
				return nil, backoff.Permanent(fmt.Errorf("resend %s to %s: %w", req.path, c.addr, err))
			}
		}

		resp, err := c.readReply(ctx, req.id)
		if errors.Is(err, errAttemptTimeout) {
			return nil, err
		}

		if err != nil {
			return nil, backoff.Permanent(err)
		}

		return resp, nil
	}, backoff.WithBackOff(bo), backoff.WithMaxTries(uint(c.opts.MaxAttempts)))
	if err == nil {
		return resp, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	if errors.Is(err, errAttemptTimeout) {
		if c.lastMalformed != nil {
			return nil, fmt.Errorf("%w: %s to %s after %d attempts: last reply malformed: %w",
				ErrTimeout, req.path, c.addr, attempt, c.lastMalformed)
		}

		return nil, fmt.Errorf("%w: %s to %s after %d attempts", ErrTimeout, req.path, c.addr, attempt)
	}

	return nil, err
}

// readReply reads datagrams until one carries id or the attempt deadline
// passes. Undecodable datagrams, replies without a code and replies to
// other ids are skipped.
func (c *udpClient) readReply(ctx context.Context, id string) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	deadline := time.Now().Add(c.opts.AttemptTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return nil, err
	}

	for {
		n, err := c.conn.Read(c.buf)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}

			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				return nil, errAttemptTimeout
			}

			return nil, fmt.Errorf("read from %s: %w", c.addr, err)
		}

		var reply envelope
		if err := c.opts.Codec.Unmarshal(c.buf[:n], &reply); err != nil {
			c.lastMalformed = err
			c.logger.Debug().Err(err).Str("addr", c.addr).Msg("Discarding malformed datagram")

			continue
		}

		if reply.ID != id {
			c.logger.Debug().Str("addr", c.addr).Str("id", reply.ID).Msg("Discarding stale reply")
			continue
		}

		if reply.Code == nil {
			c.lastMalformed = errMissingCode
			c.logger.Debug().Str("addr", c.addr).Str("id", reply.ID).Msg("Discarding reply without code")

			continue
		}

		return &Response{Code: *reply.Code, Data: reply.Data}, nil
	}
}

func (c *udpClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true

	return c.conn.Close()
}
