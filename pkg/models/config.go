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

package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/carverauto/dvrwatch/pkg/logger"
)

var (
	errInvalidDuration     = errors.New("invalid duration")
	errRecordsPathRequired = errors.New("records_path is required")
	errDirectoryRequired   = errors.New("directory host and port are required")
	errInvalidCodec        = errors.New("transport codec must be json or cbor")
	errInvalidConcurrency  = errors.New("scan concurrency must be positive")
)

const (
	DefaultListenAddr     = ":8000"
	DefaultDirectoryHost  = "www.easy4ipcloud.com"
	DefaultDirectoryPort  = 8800
	DefaultConcurrency    = 20
	DefaultPollInterval   = 2 * time.Minute
	DefaultAttemptTimeout = 2 * time.Second
	DefaultMaxAttempts    = 3

	CodecJSON = "json"
	CodecCBOR = "cbor"
)

// Duration is a time.Duration that unmarshals from a Go duration string or
// a number of nanoseconds.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		dur, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%w: %w", errInvalidDuration, err)
		}

		*d = Duration(dur)

		return nil
	default:
		return errInvalidDuration
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// DirectoryConfig addresses the well-known directory server.
type DirectoryConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// TransportConfig tunes the datagram client.
type TransportConfig struct {
	Codec          string   `json:"codec"`
	AttemptTimeout Duration `json:"attempt_timeout"`
	MaxAttempts    int      `json:"max_attempts"`
}

// ScanConfig bounds the bulk scanner.
type ScanConfig struct {
	Concurrency int `json:"concurrency"`
}

// CORSConfig represents CORS configuration for the HTTP API.
type CORSConfig struct {
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowCredentials bool     `json:"allow_credentials"`
}

// ServiceConfig is the dvrwatch service configuration.
type ServiceConfig struct {
	ListenAddr   string          `json:"listen_addr"`
	RecordsPath  string          `json:"records_path"`
	WebDir       string          `json:"web_dir,omitempty"`
	Directory    DirectoryConfig `json:"directory"`
	Transport    TransportConfig `json:"transport"`
	Scan         ScanConfig      `json:"scan"`
	PollInterval Duration        `json:"poll_interval"`
	CORS         CORSConfig      `json:"cors"`
	Logging      *logger.Config  `json:"logging,omitempty"`
}

// Validate implements config.Validator. Zero values are replaced by defaults
// before the remaining fields are checked.
func (c *ServiceConfig) Validate() error {
	c.ApplyDefaults()

	if strings.TrimSpace(c.RecordsPath) == "" {
		return errRecordsPathRequired
	}

	if c.Directory.Host == "" || c.Directory.Port <= 0 {
		return errDirectoryRequired
	}

	switch c.Transport.Codec {
	case CodecJSON, CodecCBOR:
	default:
		return fmt.Errorf("%w: %q", errInvalidCodec, c.Transport.Codec)
	}

	if c.Scan.Concurrency < 0 {
		return errInvalidConcurrency
	}

	return nil
}

// ApplyDefaults fills zero-valued fields with their defaults.
func (c *ServiceConfig) ApplyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}

	if c.Directory.Host == "" && c.Directory.Port == 0 {
		c.Directory = DirectoryConfig{Host: DefaultDirectoryHost, Port: DefaultDirectoryPort}
	}

	if c.Transport.Codec == "" {
		c.Transport.Codec = CodecJSON
	}

	c.Transport.Codec = strings.ToLower(c.Transport.Codec)

	if c.Transport.AttemptTimeout == 0 {
		c.Transport.AttemptTimeout = Duration(DefaultAttemptTimeout)
	}

	if c.Transport.MaxAttempts == 0 {
		c.Transport.MaxAttempts = DefaultMaxAttempts
	}

	if c.Scan.Concurrency == 0 {
		c.Scan.Concurrency = DefaultConcurrency
	}

	if c.PollInterval == 0 {
		c.PollInterval = Duration(DefaultPollInterval)
	}

	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"*"}
	}
}
