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
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/carverauto/dvrwatch/pkg/models"
)

type fixedChecker struct {
	result models.CheckResult
}

func (f fixedChecker) Check(_ context.Context, serial string) models.CheckResult {
	r := f.result
	r.Serial = serial

	return r
}

func TestRunCheckOnline(t *testing.T) {
	var out bytes.Buffer

	checker := fixedChecker{result: models.CheckResult{
		Online: true,
		Stage:  models.StageOnline,
		Relay:  &models.RelayEndpoint{Host: "10.0.0.1", Port: 8800},
	}}

	online := RunCheck(context.Background(), checker, "ABC", true, &out)

	assert.True(t, online)
	assert.Contains(t, out.String(), "ONLINE")
	assert.Contains(t, out.String(), "stage=online")
	assert.Contains(t, out.String(), "relay=10.0.0.1:8800")
}

func TestRunCheckOffline(t *testing.T) {
	var out bytes.Buffer

	checker := fixedChecker{result: models.CheckResult{Stage: models.StageResolveError, Error: "timeout"}}

	online := RunCheck(context.Background(), checker, "ABC", false, &out)

	assert.False(t, online)
	assert.Contains(t, out.String(), "OFFLINE")
	assert.NotContains(t, out.String(), "stage=")
}

func TestDescribeResult(t *testing.T) {
	got := describeResult(models.CheckResult{Serial: "X", Stage: models.StageResolveError, Error: "boom"})
	assert.Equal(t, "serial=X stage=resolve_error error=boom", got)
}
