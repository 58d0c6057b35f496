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

// Package cli parses the dvrwatch command line and implements the one-shot
// check and offline subcommands.
package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/carverauto/dvrwatch/pkg/models"
)

const (
	SubcmdServe   = "serve"
	SubcmdCheck   = "check"
	SubcmdOffline = "offline"
	SubcmdVersion = "version"

	defaultConfigFile = "/etc/dvrwatch/dvrwatch.json"
)

// SubcommandHandler defines the interface for parsing subcommand flags.
type SubcommandHandler interface {
	Parse(args []string, cfg *CmdConfig) error
}

// ServeHandler handles flags for the serve subcommand.
type ServeHandler struct{}

func (ServeHandler) Parse(args []string, cfg *CmdConfig) error {
	fs := newFlagSet(SubcmdServe, cfg)
	fs.StringVarP(&cfg.ConfigFile, "config", "c", defaultConfigFile, "path to the dvrwatch JSON config file")

	return parse(fs, args, cfg)
}

// CheckHandler handles flags for the check subcommand.
type CheckHandler struct{}

func (CheckHandler) Parse(args []string, cfg *CmdConfig) error {
	fs := newFlagSet(SubcmdCheck, cfg)
	addProbeFlags(fs, cfg)

	if err := parse(fs, args, cfg); err != nil || cfg.Help {
		return err
	}

	if len(cfg.Args) != 1 {
		return errSerialRequired
	}

	cfg.Serial = cfg.Args[0]

	return nil
}

// OfflineHandler handles flags for the offline subcommand.
type OfflineHandler struct{}

func (OfflineHandler) Parse(args []string, cfg *CmdConfig) error {
	fs := newFlagSet(SubcmdOffline, cfg)
	addProbeFlags(fs, cfg)
	fs.StringVarP(&cfg.RecordsFile, "excel", "x", "", "inventory file with columns P2P NUMBER, SITE, STORE NAME (.xlsx or .csv)")
	fs.IntVar(&cfg.Concurrency, "concurrency", models.DefaultConcurrency, "number of devices checked in parallel")

	if err := parse(fs, args, cfg); err != nil || cfg.Help {
		return err
	}

	if cfg.RecordsFile == "" {
		return errRecordsRequired
	}

	return nil
}

type versionHandler struct{}

func (versionHandler) Parse(args []string, cfg *CmdConfig) error {
	return parse(newFlagSet(SubcmdVersion, cfg), args, cfg)
}

func newFlagSet(name string, cfg *CmdConfig) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.BoolVarP(&cfg.Help, "help", "h", false, "show help message")
	fs.Usage = func() {}

	return fs
}

func addProbeFlags(fs *pflag.FlagSet, cfg *CmdConfig) {
	fs.StringVar(&cfg.DirectoryHost, "directory-host", models.DefaultDirectoryHost, "directory server host")
	fs.IntVar(&cfg.DirectoryPort, "directory-port", models.DefaultDirectoryPort, "directory server port")
	fs.StringVar(&cfg.Codec, "codec", models.CodecJSON, "datagram codec (json or cbor)")
	fs.DurationVar(&cfg.AttemptTimeout, "timeout", models.DefaultAttemptTimeout, "per-attempt reply timeout")
	fs.IntVar(&cfg.MaxAttempts, "attempts", models.DefaultMaxAttempts, "attempts per request")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", false, "print resolution details and debug logs")
}

func parse(fs *pflag.FlagSet, args []string, cfg *CmdConfig) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			cfg.Help = true
			return nil
		}

		return fmt.Errorf("parsing %s flags: %w", fs.Name(), err)
	}

	cfg.Args = fs.Args()

	return nil
}

// ParseFlags parses the arguments that follow the program name. Without a
// subcommand, or when the first argument is a flag, serve is assumed.
func ParseFlags(args []string) (*CmdConfig, error) {
	cfg := &CmdConfig{SubCmd: SubcmdServe}

	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cfg.SubCmd = args[0]
		args = args[1:]
	}

	subcommands := map[string]SubcommandHandler{
		SubcmdServe:   ServeHandler{},
		SubcmdCheck:   CheckHandler{},
		SubcmdOffline: OfflineHandler{},
		SubcmdVersion: versionHandler{},
	}

	handler, ok := subcommands[cfg.SubCmd]
	if !ok {
		return cfg, fmt.Errorf("%w: %s", errUnknownSubcommand, cfg.SubCmd)
	}

	if err := handler.Parse(args, cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// ProbeConfig turns the probe flags into the service configuration used to
// build the transport and liveness chain.
func (c *CmdConfig) ProbeConfig() models.ServiceConfig {
	cfg := models.ServiceConfig{
		Directory: models.DirectoryConfig{Host: c.DirectoryHost, Port: c.DirectoryPort},
		Transport: models.TransportConfig{
			Codec:          c.Codec,
			AttemptTimeout: models.Duration(c.AttemptTimeout),
			MaxAttempts:    c.MaxAttempts,
		},
		Scan: models.ScanConfig{Concurrency: c.Concurrency},
	}

	cfg.ApplyDefaults()

	return cfg
}
