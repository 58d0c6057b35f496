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
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "dvrwatch"

// Prometheus records measurements into Prometheus collectors.
type Prometheus struct {
	scans        *prometheus.CounterVec
	scanDuration prometheus.Histogram
	checks       *prometheus.CounterVec
	devices      *prometheus.GaugeVec
}

var _ Recorder = (*Prometheus)(nil)

// NewPrometheus creates the collectors and registers them on reg.
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	p := &Prometheus{
		scans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scans_total",
			Help:      "Completed fleet scans by what triggered them.",
		}, []string{"trigger"}),
		scanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scan_duration_seconds",
			Help:      "Wall time of a full fleet scan.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		checks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checks_total",
			Help:      "Per-device liveness checks by result.",
		}, []string{"result"}),
		devices: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "devices",
			Help:      "Devices in the inventory by state at the last scan.",
		}, []string{"state"}),
	}

	for _, c := range []prometheus.Collector{p.scans, p.scanDuration, p.checks, p.devices} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return p, nil
}

func (p *Prometheus) IncScan(trigger string) {
	p.scans.WithLabelValues(trigger).Inc()
}

func (p *Prometheus) ObserveScanDuration(d time.Duration) {
	p.scanDuration.Observe(d.Seconds())
}

func (p *Prometheus) IncCheck(online bool) {
	result := "offline"
	if online {
		result = "online"
	}

	p.checks.WithLabelValues(result).Inc()
}

func (p *Prometheus) SetDevices(total, online, offline int) {
	p.devices.WithLabelValues("total").Set(float64(total))
	p.devices.WithLabelValues("online").Set(float64(online))
	p.devices.WithLabelValues("offline").Set(float64(offline))
}
