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

package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/carverauto/dvrwatch/pkg/models"
	"github.com/carverauto/dvrwatch/pkg/records"
)

// handleStats returns the fleet counts and the last scan time.
func (s *APIServer) handleStats(w http.ResponseWriter, _ *http.Request) {
	if err := s.encodeJSONResponse(w, s.store.Stats()); err != nil {
		s.logger.Error().Err(err).Msg("Error encoding stats response")
	}
}

func (s *APIServer) handleListDevices(w http.ResponseWriter, r *http.Request) {
	filter, err := models.ParseStatusFilter(r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, "status must be one of all, online, offline", http.StatusBadRequest)
		return
	}

	resp := models.ListResponse{Items: s.store.ListByStatus(filter)}

	if err := s.encodeJSONResponse(w, resp); err != nil {
		s.logger.Error().Err(err).Msg("Error encoding device list")
	}
}

func (s *APIServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if !query.Has("site") {
		writeError(w, "site query parameter is required", http.StatusBadRequest)
		return
	}

	device, ok := s.store.FindBySite(query.Get("site"))
	if !ok {
		writeError(w, "SITE not found", http.StatusNotFound)
		return
	}

	if err := s.encodeJSONResponse(w, device); err != nil {
		s.logger.Error().Err(err).Msg("Error encoding search response")
	}
}

// handleUpdateSerial rewrites the serial of a site and persists the change.
func (s *APIServer) handleUpdateSerial(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateSerialRequest

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Site) == "" || req.P2PNumber == nil {
		writeError(w, "Missing 'site' or 'p2pNumber'", http.StatusBadRequest)
		return
	}

	updated, err := s.store.UpdateSerial(r.Context(), req.Site, *req.P2PNumber)
	if err != nil {
		s.logger.Error().Err(err).Str("site", req.Site).Msg("Failed to update serial")
		writeError(w, "Failed to persist update", http.StatusInternalServerError)

		return
	}

	if !updated {
		writeError(w, "SITE not found", http.StatusNotFound)
		return
	}

	// The new serial has no liveness until the next scan; queue one early.
	if s.refresher != nil && !s.refresher.Trigger() {
		s.logger.Debug().Str("site", req.Site).Msg("Rescan already queued")
	}

	if err := s.encodeJSONResponse(w, models.OKResponse{OK: true}); err != nil {
		s.logger.Error().Err(err).Msg("Error encoding update response")
	}
}

// handleRefresh runs a scan now and returns the resulting stats.
func (s *APIServer) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.refresher == nil {
		writeError(w, "Refresh is not available", http.StatusServiceUnavailable)
		return
	}

	stats, err := s.refresher.RefreshNow(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("On-demand refresh failed")
		writeError(w, "Refresh failed", http.StatusServiceUnavailable)

		return
	}

	if err := s.encodeJSONResponse(w, models.RefreshResponse{OK: true, Stats: stats}); err != nil {
		s.logger.Error().Err(err).Msg("Error encoding refresh response")
	}
}

func (s *APIServer) handleDownloadCSV(w http.ResponseWriter, r *http.Request) {
	filter, err := models.ParseStatusFilter(r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, "status must be one of all, online, offline", http.StatusBadRequest)
		return
	}

	items := s.store.ListByStatus(filter)

	rows := make([]models.DeviceRecord, len(items))
	for i, item := range items {
		rows[i] = item.DeviceRecord
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=dvrs_%s.csv", filter))

	if err := records.WriteCSV(w, rows); err != nil {
		s.logger.Error().Err(err).Msg("Error writing CSV export")
	}
}
