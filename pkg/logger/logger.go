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

// Package logger provides JSON structured logging using zerolog
package logger

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var errUnknownOutput = errors.New("unknown log output")

// Config controls how log events are rendered.
type Config struct {
	Level      string `json:"level"`
	Debug      bool   `json:"debug"`
	Output     string `json:"output"`
	TimeFormat string `json:"time_format"`
}

// Logger is the logging surface injected into every dvrwatch component.
type Logger interface {
	Trace() *zerolog.Event
	Debug() *zerolog.Event
	Info() *zerolog.Event
	Warn() *zerolog.Event
	Error() *zerolog.Event
	Fatal() *zerolog.Event
	With() zerolog.Context
	WithComponent(component string) zerolog.Logger
	SetLevel(level zerolog.Level)
}

type zeroLogger struct {
	logger zerolog.Logger
}

// New builds a Logger writing JSON lines to the configured output.
func New(config *Config) (Logger, error) {
	if config == nil {
		config = DefaultConfig()
	}

	output, err := outputFor(config.Output)
	if err != nil {
		return nil, err
	}

	level, err := levelFor(config)
	if err != nil {
		return nil, err
	}

	if config.TimeFormat != "" {
		zerolog.TimeFieldFormat = config.TimeFormat
	} else {
		zerolog.TimeFieldFormat = time.RFC3339
	}

	return &zeroLogger{
		logger: zerolog.New(output).Level(level).With().Timestamp().Logger(),
	}, nil
}

// Wrap adapts an already configured zerolog.Logger.
func Wrap(l zerolog.Logger) Logger {
	return &zeroLogger{logger: l}
}

func outputFor(name string) (io.Writer, error) {
	switch name {
	case "", "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownOutput, name)
	}
}

func levelFor(config *Config) (zerolog.Level, error) {
	if config.Debug {
		return zerolog.DebugLevel, nil
	}

	if config.Level == "" {
		return zerolog.InfoLevel, nil
	}

	return zerolog.ParseLevel(config.Level)
}

func (z *zeroLogger) Trace() *zerolog.Event { return z.logger.Trace() }
func (z *zeroLogger) Debug() *zerolog.Event { return z.logger.Debug() }
func (z *zeroLogger) Info() *zerolog.Event  { return z.logger.Info() }
func (z *zeroLogger) Warn() *zerolog.Event  { return z.logger.Warn() }
func (z *zeroLogger) Error() *zerolog.Event { return z.logger.Error() }
func (z *zeroLogger) Fatal() *zerolog.Event { return z.logger.Fatal() }
func (z *zeroLogger) With() zerolog.Context { return z.logger.With() }

func (z *zeroLogger) WithComponent(component string) zerolog.Logger {
	return z.logger.With().Str("component", component).Logger()
}

func (z *zeroLogger) SetLevel(level zerolog.Level) {
	z.logger = z.logger.Level(level)
}

// NewTestLogger creates a no-op logger for testing that discards all output
func NewTestLogger() Logger {
	return &zeroLogger{logger: zerolog.New(io.Discard).Level(zerolog.Disabled)}
}
