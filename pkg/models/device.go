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
	"net"
	"strconv"
)

// DeviceRecord is one row of the fleet inventory.
type DeviceRecord struct {
	Serial    string `json:"P2P NUMBER" csv:"P2P NUMBER"`
	Site      string `json:"SITE" csv:"SITE"`
	StoreName string `json:"STORE NAME" csv:"STORE NAME"`
}

// DeviceStatus is a DeviceRecord with its computed liveness attached.
type DeviceStatus struct {
	DeviceRecord
	Status string `json:"status"`
}

const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// StatusLabel maps a liveness flag to its API label.
func StatusLabel(online bool) string {
	if online {
		return StatusOnline
	}

	return StatusOffline
}

// RelayEndpoint is the relay server currently serving a device. It is only
// valid for the probe calls that immediately follow its resolution.
type RelayEndpoint struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

func (e RelayEndpoint) Address() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// CheckStage records how far a single-device check got.
type CheckStage string

const (
	StageUnresolved   CheckStage = "unresolved"
	StageResolveError CheckStage = "resolve_error"
	StageProbeFailed  CheckStage = "probe_failed"
	StageOnline       CheckStage = "online"
)

// CheckResult is the detailed outcome of checking one serial.
type CheckResult struct {
	Serial string         `json:"serial"`
	Online bool           `json:"online"`
	Stage  CheckStage     `json:"stage"`
	Relay  *RelayEndpoint `json:"relay,omitempty"`
	Error  string         `json:"error,omitempty"`
}
