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

package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/carverauto/dvrwatch/pkg/logger"
)

const defaultShutdownTimeout = 10 * time.Second

var errNoService = errors.New("no service or HTTP server to run")

// Service is a component with a blocking Start and a Stop that ends it.
type Service interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// ServerOptions describes what RunServer runs.
type ServerOptions struct {
	ServiceName     string
	Service         Service
	HTTPServer      *http.Server
	ShutdownTimeout time.Duration
	Logger          logger.Logger
}

// RunServer runs the service and the HTTP server until ctx is cancelled, a
// SIGINT or SIGTERM arrives, or either of them fails. Both are then shut
// down within the shutdown timeout.
func RunServer(ctx context.Context, opts *ServerOptions) error {
	if opts.Service == nil && opts.HTTPServer == nil {
		return errNoService
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewTestLogger()
	}

	timeout := opts.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	if opts.Service != nil {
		g.Go(func() error {
			if err := opts.Service.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("%s service: %w", opts.ServiceName, err)
			}

			return nil
		})
	}

	if opts.HTTPServer != nil {
		g.Go(func() error {
			log.Info().Str("addr", opts.HTTPServer.Addr).Msg("HTTP server listening")

			if err := opts.HTTPServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}

			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()

		log.Info().Str("service", opts.ServiceName).Msg("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()

		var errs []error

		if opts.HTTPServer != nil {
			if err := opts.HTTPServer.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("http shutdown: %w", err))
			}
		}

		if opts.Service != nil {
			if err := opts.Service.Stop(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("%s stop: %w", opts.ServiceName, err))
			}
		}

		return errors.Join(errs...)
	})

	return g.Wait()
}
