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

package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()

	p, err := NewPrometheus(reg)
	require.NoError(t, err)

	p.IncScan(TriggerInitial)
	p.IncScan(TriggerManual)
	p.IncScan(TriggerManual)
	p.IncCheck(true)
	p.IncCheck(false)
	p.IncCheck(false)
	p.ObserveScanDuration(1500 * time.Millisecond)
	p.SetDevices(10, 7, 3)

	assert.InDelta(t, 1, testutil.ToFloat64(p.scans.WithLabelValues(TriggerInitial)), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(p.scans.WithLabelValues(TriggerManual)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(p.checks.WithLabelValues("online")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(p.checks.WithLabelValues("offline")), 0)
	assert.InDelta(t, 7, testutil.ToFloat64(p.devices.WithLabelValues("online")), 0)
	assert.InDelta(t, 10, testutil.ToFloat64(p.devices.WithLabelValues("total")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(p.scanDuration))

	expected := `
# HELP dvrwatch_devices Devices in the inventory by state at the last scan.
# TYPE dvrwatch_devices gauge
dvrwatch_devices{state="offline"} 3
dvrwatch_devices{state="online"} 7
dvrwatch_devices{state="total"} 10
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "dvrwatch_devices"))
}

func TestNewPrometheusDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()

	_, err := NewPrometheus(reg)
	require.NoError(t, err)

	_, err = NewPrometheus(reg)
	require.Error(t, err)
}
