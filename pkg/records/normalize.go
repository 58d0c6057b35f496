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

// Package records loads the device inventory from a tabular file, persists
// edits back to it and exports it as CSV.
package records

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// NormalizeSerial turns a raw cell value into a canonical serial. Missing,
// NaN and "nan" values become "", whitespace is trimmed and a trailing ".0"
// left behind by float-typed spreadsheet columns is stripped once.
func NormalizeSerial(v any) string {
	var s string

	switch val := v.(type) {
	case nil:
		return ""
	case string:
		s = val
	case *string:
		if val == nil {
			return ""
		}

		s = *val
	case float64:
		if math.IsNaN(val) {
			return ""
		}

		s = strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		if math.IsNaN(float64(val)) {
			return ""
		}

		s = strconv.FormatFloat(float64(val), 'f', -1, 32)
	default:
		s = fmt.Sprint(val)
	}

	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "nan") {
		return ""
	}

	return strings.TrimSuffix(s, ".0")
}
