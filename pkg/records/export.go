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

package records

import (
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/carverauto/dvrwatch/pkg/models"
)

// WriteCSV writes rows as a CSV export with a header line. Commas inside
// values are replaced by spaces so the output stays one cell per column for
// naive consumers.
func WriteCSV(w io.Writer, rows []models.DeviceRecord) error {
	sanitized := make([]models.DeviceRecord, len(rows))

	for i, rec := range rows {
		sanitized[i] = models.DeviceRecord{
			Serial:    stripCommas(rec.Serial),
			Site:      stripCommas(rec.Site),
			StoreName: stripCommas(rec.StoreName),
		}
	}

	if err := gocsv.Marshal(sanitized, w); err != nil {
		return fmt.Errorf("export csv: %w", err)
	}

	return nil
}

func stripCommas(s string) string {
	return strings.ReplaceAll(s, ",", " ")
}
