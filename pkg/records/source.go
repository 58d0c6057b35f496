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
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/carverauto/dvrwatch/pkg/models"
)

var (
	// ErrMissingColumns is returned by Load when the header row lacks a
	// required column.
	ErrMissingColumns    = errors.New("missing required columns")
	ErrUnsupportedFormat = errors.New("unsupported records format")
)

const (
	ColumnSerial    = "P2P NUMBER"
	ColumnSite      = "SITE"
	ColumnStoreName = "STORE NAME"
)

// Columns lists the required columns in file order.
var Columns = []string{ColumnSerial, ColumnSite, ColumnStoreName}

// Source reads and rewrites the device inventory.
type Source interface {
	Load(ctx context.Context) ([]models.DeviceRecord, error)
	Save(ctx context.Context, rows []models.DeviceRecord) error
}

// OpenSource picks a Source implementation from the file extension.
func OpenSource(path string) (Source, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return NewXLSXSource(path), nil
	case ".csv":
		return NewCSVSource(path), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// columnIndex maps each required column to its position in header. Header
// cells are matched after trimming and upper-casing.
func columnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(Columns))

	for i, cell := range header {
		name := strings.ToUpper(strings.TrimSpace(cell))
		if _, seen := idx[name]; !seen {
			idx[name] = i
		}
	}

	var missing []string

	for _, col := range Columns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}

	if len(missing) > 0 {
		slices.Sort(missing)

		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	return idx, nil
}

// rowsToRecords converts data rows using idx. Blank rows between data rows
// are kept as empty records; trailing blank rows are dropped.
func rowsToRecords(rows [][]string, idx map[string]int) []models.DeviceRecord {
	for len(rows) > 0 && isBlankRow(rows[len(rows)-1]) {
		rows = rows[:len(rows)-1]
	}

	out := make([]models.DeviceRecord, 0, len(rows))

	for _, row := range rows {
		out = append(out, models.DeviceRecord{
			Serial:    NormalizeSerial(cell(row, idx[ColumnSerial])),
			Site:      cell(row, idx[ColumnSite]),
			StoreName: cell(row, idx[ColumnStoreName]),
		})
	}

	return out
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}

	return true
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}

	return ""
}
