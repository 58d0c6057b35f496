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

// Package http provides middleware shared by the HTTP API.
package http

import (
	"net/http"
	"slices"
	"time"

	"github.com/carverauto/dvrwatch/pkg/logger"
	"github.com/carverauto/dvrwatch/pkg/models"
)

const wildcardOrigin = "*"

// CommonMiddleware wraps next with request logging and CORS handling.
func CommonMiddleware(next http.Handler, cors models.CORSConfig, log logger.Logger) http.Handler {
	return RequestLogger(log)(CORSMiddleware(cors)(next))
}

// CORSMiddleware answers preflight requests and sets the CORS headers for
// allowed origins. Requests from other origins pass through without them.
func CORSMiddleware(cfg models.CORSConfig) func(http.Handler) http.Handler {
	allowAny := slices.Contains(cfg.AllowedOrigins, wildcardOrigin)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if origin != "" && (allowAny || slices.Contains(cfg.AllowedOrigins, origin)) {
				if allowAny && !cfg.AllowCredentials {
					w.Header().Set("Access-Control-Allow-Origin", wildcardOrigin)
				} else {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Add("Vary", "Origin")
				}

				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
				w.Header().Set("Access-Control-Max-Age", "3600")

				if cfg.AllowCredentials {
					w.Header().Set("Access-Control-Allow-Credentials", "true")
				}
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}

	n, err := s.ResponseWriter.Write(b)
	s.bytes += n

	return n, err
}

// RequestLogger logs one line per request at debug level, or warn for
// server errors.
func RequestLogger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}

			next.ServeHTTP(rec, r)

			if rec.status == 0 {
				rec.status = http.StatusOK
			}

			event := log.Debug()
			if rec.status >= http.StatusInternalServerError {
				event = log.Warn()
			}

			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", rec.status).
				Int("bytes", rec.bytes).
				Dur("duration", time.Since(start)).
				Msg("HTTP request")
		})
	}
}
