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

package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/carverauto/dvrwatch/pkg/models"
	"github.com/carverauto/dvrwatch/pkg/records"
	"github.com/carverauto/dvrwatch/pkg/scan"
)

const noOfflineMessage = "No offline entries found."

// BatchScanner checks many serials at once.
type BatchScanner interface {
	Scan(ctx context.Context, serials []string) map[string]bool
}

// OfflineRows scans every serial in rows and returns, in file order, the
// rows whose serial is empty or was not found online.
func OfflineRows(ctx context.Context, rows []models.DeviceRecord, scanner BatchScanner) []models.DeviceRecord {
	serials := make([]string, 0, len(rows))
	for _, rec := range rows {
		serials = append(serials, rec.Serial)
	}

	online := scanner.Scan(ctx, scan.Dedupe(serials))

	var offline []models.DeviceRecord

	for _, rec := range rows {
		if rec.Serial == "" || !online[rec.Serial] {
			offline = append(offline, rec)
		}
	}

	return offline
}

// RenderOfflineTable writes rows as a bordered table. The header is always
// printed; an empty table is followed by a notice.
func RenderOfflineTable(out io.Writer, rows []models.DeviceRecord) error {
	st := newStyles()

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(st.border).
		Headers(records.Columns...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return st.header
			}

			return st.cell
		})

	for _, rec := range rows {
		t.Row(rec.Serial, rec.Site, rec.StoreName)
	}

	if _, err := fmt.Fprintln(out, t.Render()); err != nil {
		return err
	}

	if len(rows) == 0 {
		_, err := fmt.Fprintln(out, noOfflineMessage)
		return err
	}

	return nil
}
