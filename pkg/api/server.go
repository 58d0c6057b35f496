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

// Package api provides the HTTP API server for dvrwatch.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	dwhttp "github.com/carverauto/dvrwatch/pkg/http"
	"github.com/carverauto/dvrwatch/pkg/logger"
	"github.com/carverauto/dvrwatch/pkg/models"
)

const (
	defaultReadTimeout  = 10 * time.Second
	defaultWriteTimeout = 5 * time.Minute
	defaultIdleTimeout  = 60 * time.Second
	maxRequestBody      = 1 << 20

	uiMissingMessage = "UI not found. API is running."
)

// NewAPIServer creates a new API server instance with the given configuration
func NewAPIServer(config models.CORSConfig, options ...func(server *APIServer)) *APIServer {
	s := &APIServer{
		router:     mux.NewRouter(),
		corsConfig: config,
		logger:     logger.NewTestLogger(),
	}

	for _, o := range options {
		o(s)
	}

	s.setupRoutes()

	return s
}

// WithDeviceStore sets the inventory served by the API.
func WithDeviceStore(st DeviceStore) func(server *APIServer) {
	return func(server *APIServer) {
		server.store = st
	}
}

// WithRefreshRunner sets the component that performs on-demand scans.
func WithRefreshRunner(r RefreshRunner) func(server *APIServer) {
	return func(server *APIServer) {
		server.refresher = r
	}
}

// WithMetricsGatherer exposes g on /metrics.
func WithMetricsGatherer(g prometheus.Gatherer) func(server *APIServer) {
	return func(server *APIServer) {
		server.gatherer = g
	}
}

// WithWebDir serves the dashboard from dir.
func WithWebDir(dir string) func(server *APIServer) {
	return func(server *APIServer) {
		server.webDir = dir
	}
}

func WithLogger(log logger.Logger) func(server *APIServer) {
	return func(server *APIServer) {
		server.logger = log
	}
}

func (s *APIServer) setupRoutes() {
	s.router.Use(func(next http.Handler) http.Handler {
		return dwhttp.CommonMiddleware(next, s.corsConfig, s.logger)
	})

	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	if s.gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	// Full paths on the root router so a wrong method gets 405, not 404.
	s.router.HandleFunc("/api/stats", s.handleStats).Methods(http.MethodGet)
	s.router.HandleFunc("/api/dvrs", s.handleListDevices).Methods(http.MethodGet)
	s.router.HandleFunc("/api/search", s.handleSearch).Methods(http.MethodGet)
	s.router.HandleFunc("/api/update-p2p", s.handleUpdateSerial).Methods(http.MethodPost, http.MethodOptions)
	s.router.HandleFunc("/api/refresh", s.handleRefresh).Methods(http.MethodPost, http.MethodOptions)
	s.router.HandleFunc("/api/download.csv", s.handleDownloadCSV).Methods(http.MethodGet)

	if s.webDir != "" {
		s.router.PathPrefix("/static/").Handler(
			http.StripPrefix("/static/", http.FileServer(http.Dir(s.webDir))),
		).Methods(http.MethodGet)
	}

	s.router.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
}

// ServeHTTP makes APIServer an http.Handler.
func (s *APIServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// NewHTTPServer returns an http.Server serving the API on addr.
func (s *APIServer) NewHTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout, // on-demand scans hold the request open
		IdleTimeout:  defaultIdleTimeout,
	}
}

func (s *APIServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	if err := s.encodeJSONResponse(w, healthResponse{Status: "ok"}); err != nil {
		s.logger.Error().Err(err).Msg("Error encoding health response")
	}
}

func (s *APIServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	if s.webDir != "" {
		index := filepath.Join(s.webDir, "index.html")

		if info, err := os.Stat(index); err == nil && !info.IsDir() {
			http.ServeFile(w, r, index)
			return
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn().Err(err).Str("path", index).Msg("Cannot stat dashboard index")
		}
	}

	if err := s.encodeJSONResponse(w, messageResponse{Message: uiMissingMessage}); err != nil {
		s.logger.Error().Err(err).Msg("Error encoding root response")
	}
}

func (*APIServer) encodeJSONResponse(w http.ResponseWriter, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(data); err != nil {
		return err
	}

	return nil
}

func writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")

	w.WriteHeader(statusCode)

	errResponse := models.ErrorResponse{
		Message: message,
		Status:  statusCode,
	}

	if err := json.NewEncoder(w).Encode(errResponse); err != nil {
		http.Error(w, "Failed to encode error response", http.StatusInternalServerError)
	}
}
