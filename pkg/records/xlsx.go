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
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/carverauto/dvrwatch/pkg/models"
)

const defaultSheet = "Sheet1"

// XLSXSource is a Source backed by the first sheet of an Excel workbook.
type XLSXSource struct {
	path  string
	sheet string
}

func NewXLSXSource(path string) *XLSXSource {
	return &XLSXSource{path: path, sheet: defaultSheet}
}

func (s *XLSXSource) Load(ctx context.Context) ([]models.DeviceRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", s.path, err)
	}

	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook %s has no sheets", ErrMissingColumns, s.path)
	}

	s.sheet = sheets[0]

	rows, err := f.GetRows(s.sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", s.sheet, err)
	}

	if len(rows) == 0 {
		_, err = columnIndex(nil)

		return nil, err
	}

	idx, err := columnIndex(rows[0])
	if err != nil {
		return nil, err
	}

	return rowsToRecords(rows[1:], idx), nil
}

// Save rewrites the whole workbook with the three inventory columns. The new
// file replaces the old one only after it was written completely.
func (s *XLSXSource) Save(ctx context.Context, rows []models.DeviceRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if s.sheet != defaultSheet {
		if err := f.SetSheetName(defaultSheet, s.sheet); err != nil {
			return fmt.Errorf("name sheet: %w", err)
		}
	}

	header := make([]any, len(Columns))
	for i, col := range Columns {
		header[i] = col
	}

	if err := f.SetSheetRow(s.sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, rec := range rows {
		addr, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}

		values := []any{rec.Serial, rec.Site, rec.StoreName}
		if err := f.SetSheetRow(s.sheet, addr, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".records-*.xlsx")
	if err != nil {
		return fmt.Errorf("create temp workbook: %w", err)
	}

	tmpName := tmp.Name()

	if _, err := f.WriteTo(tmp); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)

		return fmt.Errorf("write workbook: %w", err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("close workbook: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("replace workbook %s: %w", s.path, err)
	}

	return nil
}
