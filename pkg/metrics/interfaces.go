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

// Package metrics exposes scan and fleet health as Prometheus collectors.
package metrics

import "time"

const (
	TriggerInitial  = "initial"
	TriggerInterval = "interval"
	TriggerManual   = "manual"
)

// Recorder receives scan and fleet measurements.
type Recorder interface {
	IncScan(trigger string)
	ObserveScanDuration(d time.Duration)
	IncCheck(online bool)
	SetDevices(total, online, offline int)
}

// Nop discards every measurement.
type Nop struct{}

func (Nop) IncScan(string) {}
func (Nop) ObserveScanDuration(time.Duration) {}
func (Nop) IncCheck(bool) {}
func (Nop) SetDevices(int, int, int) {}

var _ Recorder = Nop{}
