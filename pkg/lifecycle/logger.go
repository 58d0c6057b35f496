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

// Package lifecycle wires logging and signal handling around long-running
// dvrwatch services.
package lifecycle

import (
	"fmt"

	"github.com/carverauto/dvrwatch/pkg/logger"
)

// CreateLogger creates a new logger instance with the provided configuration.
// A nil config falls back to logger.DefaultConfig.
func CreateLogger(config *logger.Config) (logger.Logger, error) {
	log, err := logger.New(config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return log, nil
}

// CreateComponentLogger creates a logger whose events carry a component field.
func CreateComponentLogger(component string, config *logger.Config) (logger.Logger, error) {
	base, err := CreateLogger(config)
	if err != nil {
		return nil, err
	}

	return logger.Wrap(base.WithComponent(component)), nil
}
