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
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidStatusFilter = errors.New("invalid status filter")

// Stats is the aggregate fleet view. Online+Offline always equals Total.
// LastUpdated is the completion time of the last scan in epoch seconds, or
// nil when no scan has completed since the last invalidation.
type Stats struct {
	Total       int      `json:"total"`
	Online      int      `json:"online"`
	Offline     int      `json:"offline"`
	LastUpdated *float64 `json:"lastUpdated"`
}

// StatusFilter selects records by liveness.
type StatusFilter string

const (
	FilterAll     StatusFilter = "all"
	FilterOnline  StatusFilter = "online"
	FilterOffline StatusFilter = "offline"
)

// ParseStatusFilter accepts "all", "online" or "offline". An empty value
// means "all".
func ParseStatusFilter(raw string) (StatusFilter, error) {
	switch f := StatusFilter(strings.ToLower(strings.TrimSpace(raw))); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterOnline, FilterOffline:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatusFilter, raw)
	}
}

// Matches reports whether a device with the given liveness passes the filter.
func (f StatusFilter) Matches(online bool) bool {
	switch f {
	case FilterOnline:
		return online
	case FilterOffline:
		return !online
	default:
		return true
	}
}
