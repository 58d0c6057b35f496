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
	"context"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/carverauto/dvrwatch/pkg/logger"
	"github.com/carverauto/dvrwatch/pkg/models"
)

// DeviceStore is the read/write view of the device inventory.
type DeviceStore interface {
	Stats() models.Stats
	ListByStatus(filter models.StatusFilter) []models.DeviceStatus
	FindBySite(site string) (models.DeviceStatus, bool)
	UpdateSerial(ctx context.Context, site, serial string) (bool, error)
}

// RefreshRunner performs on-demand scans, either waiting for the result or
// queueing one in the background.
type RefreshRunner interface {
	RefreshNow(ctx context.Context) (models.Stats, error)
	Trigger() bool
}

type APIServer struct {
	router     *mux.Router
	store      DeviceStore
	refresher  RefreshRunner
	gatherer   prometheus.Gatherer
	webDir     string
	corsConfig models.CORSConfig
	logger     logger.Logger
}

type messageResponse struct {
	Message string `json:"message"`
}

type healthResponse struct {
	Status string `json:"status"`
}
