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

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/carverauto/dvrwatch/pkg/api"
	"github.com/carverauto/dvrwatch/pkg/cli"
	"github.com/carverauto/dvrwatch/pkg/config"
	"github.com/carverauto/dvrwatch/pkg/lifecycle"
	"github.com/carverauto/dvrwatch/pkg/liveness"
	"github.com/carverauto/dvrwatch/pkg/logger"
	"github.com/carverauto/dvrwatch/pkg/metrics"
	"github.com/carverauto/dvrwatch/pkg/models"
	"github.com/carverauto/dvrwatch/pkg/poller"
	"github.com/carverauto/dvrwatch/pkg/records"
	"github.com/carverauto/dvrwatch/pkg/scan"
	"github.com/carverauto/dvrwatch/pkg/store"
	"github.com/carverauto/dvrwatch/pkg/transport"
	"github.com/carverauto/dvrwatch/pkg/version"
)

const (
	exitOffline = 1
	exitUsage   = 2
)

var errFailedToLoadConfig = errors.New("failed to load config")

func main() {
	cfg, err := cli.ParseFlags(os.Args[1:])
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		cli.ShowHelp(os.Stderr)
		os.Exit(exitUsage)
	}

	if cfg.Help {
		cli.ShowHelp(os.Stdout)
		return
	}

	ctx := context.Background()

	switch cfg.SubCmd {
	case cli.SubcmdVersion:
		fmt.Println(version.GetFullVersion())
	case cli.SubcmdCheck:
		online, err := runCheck(ctx, cfg)
		if err != nil {
			log.Fatalf("Fatal error: %v", err)
		}

		if !online {
			os.Exit(exitOffline)
		}
	case cli.SubcmdOffline:
		if err := runOffline(ctx, cfg); err != nil {
			log.Fatalf("Fatal error: %v", err)
		}
	default:
		if err := runServe(ctx, cfg.ConfigFile); err != nil {
			log.Fatalf("Fatal error: %v", err)
		}
	}
}

func runServe(ctx context.Context, configPath string) error {
	cfgLoader := config.NewConfig(nil)

	var cfg models.ServiceConfig

	if err := cfgLoader.LoadAndValidate(ctx, configPath, &cfg); err != nil {
		return fmt.Errorf("%w: %w", errFailedToLoadConfig, err)
	}

	dvrLogger, err := lifecycle.CreateComponentLogger("dvrwatch", cfg.Logging)
	if err != nil {
		return err
	}

	source, err := records.OpenSource(cfg.RecordsPath)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	recorder, err := metrics.NewPrometheus(registry)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	checker, err := newChecker(&cfg, dvrLogger)
	if err != nil {
		return err
	}

	scanner := scan.NewBulkScanner(checker, cfg.Scan.Concurrency, recorder, dvrLogger)
	dataStore := store.NewDataStore(source, scanner, dvrLogger, store.WithRecorder(recorder))

	if err := dataStore.Load(ctx); err != nil {
		return fmt.Errorf("failed to load %s: %w", cfg.RecordsPath, err)
	}

	p, err := poller.New(dataStore, time.Duration(cfg.PollInterval), nil, recorder, dvrLogger)
	if err != nil {
		return err
	}

	server := api.NewAPIServer(cfg.CORS,
		api.WithDeviceStore(dataStore),
		api.WithRefreshRunner(p),
		api.WithMetricsGatherer(registry),
		api.WithWebDir(cfg.WebDir),
		api.WithLogger(dvrLogger),
	)

	dvrLogger.Info().
		Str("version", version.GetVersion()).
		Str("listen_addr", cfg.ListenAddr).
		Str("records", cfg.RecordsPath).
		Msg("Starting dvrwatch")

	return lifecycle.RunServer(ctx, &lifecycle.ServerOptions{
		ServiceName: "dvrwatch",
		Service:     p,
		HTTPServer:  server.NewHTTPServer(cfg.ListenAddr),
		Logger:      dvrLogger,
	})
}

func runCheck(ctx context.Context, cfg *cli.CmdConfig) (bool, error) {
	probeCfg := cfg.ProbeConfig()

	checker, err := newChecker(&probeCfg, cliLogger(cfg.Verbose))
	if err != nil {
		return false, err
	}

	return cli.RunCheck(ctx, checker, records.NormalizeSerial(cfg.Serial), cfg.Verbose, os.Stdout), nil
}

func runOffline(ctx context.Context, cfg *cli.CmdConfig) error {
	probeCfg := cfg.ProbeConfig()
	offlineLog := cliLogger(cfg.Verbose)

	source, err := records.OpenSource(cfg.RecordsFile)
	if err != nil {
		return err
	}

	rows, err := source.Load(ctx)
	if err != nil {
		return err
	}

	checker, err := newChecker(&probeCfg, offlineLog)
	if err != nil {
		return err
	}

	scanner := scan.NewBulkScanner(checker, probeCfg.Scan.Concurrency, nil, offlineLog)

	return cli.RenderOfflineTable(os.Stdout, cli.OfflineRows(ctx, rows, scanner))
}

func newChecker(cfg *models.ServiceConfig, log logger.Logger) (*liveness.Checker, error) {
	codec, err := transport.NewCodec(cfg.Transport.Codec)
	if err != nil {
		return nil, err
	}

	dialer := transport.NewUDPDialer(transport.Options{
		AttemptTimeout: time.Duration(cfg.Transport.AttemptTimeout),
		MaxAttempts:    cfg.Transport.MaxAttempts,
		Codec:          codec,
		Logger:         log,
	})

	return liveness.NewChecker(
		liveness.NewResolver(dialer, cfg.Directory, log),
		liveness.NewProber(dialer, log),
		log,
	), nil
}

// cliLogger logs to stderr so stdout carries only the verdict or table.
func cliLogger(verbose bool) logger.Logger {
	level := "warn"
	if verbose {
		level = "debug"
	}

	l, err := logger.New(&logger.Config{Level: level, Output: "stderr"})
	if err != nil {
		return logger.NewTestLogger()
	}

	return l
}
