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
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/carverauto/dvrwatch/pkg/models"
)

// CSVSource is a Source backed by a comma separated file with a header row.
type CSVSource struct {
	path string
}

func NewCSVSource(path string) *CSVSource {
	return &CSVSource{path: path}
}

func (s *CSVSource) Load(ctx context.Context) ([]models.DeviceRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open records %s: %w", s.path, err)
	}

	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		_, err = columnIndex(nil)

		return nil, err
	}

	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	if len(header) > 0 {
		header[0] = trimBOM(header[0])
	}

	idx, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}

	return rowsToRecords(rows, idx), nil
}

// Save rewrites the file with the three inventory columns.
func (s *CSVSource) Save(ctx context.Context, rows []models.DeviceRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".records-*.csv")
	if err != nil {
		return fmt.Errorf("create temp records: %w", err)
	}

	tmpName := tmp.Name()

	if err := gocsv.Marshal(rows, tmp); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)

		return fmt.Errorf("write records: %w", err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("close records: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("replace records %s: %w", s.path, err)
	}

	return nil
}

func trimBOM(s string) string {
	return strings.TrimPrefix(s, "\ufeff")
}
