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

	"github.com/carverauto/dvrwatch/pkg/models"
)

// SerialChecker runs a single resolve and probe chain.
type SerialChecker interface {
	Check(ctx context.Context, serial string) models.CheckResult
}

// RunCheck prints ONLINE or OFFLINE for serial and reports whether the
// device is online. With verbose set the stage reached and the relay are
// printed below the verdict.
func RunCheck(ctx context.Context, checker SerialChecker, serial string, verbose bool, out io.Writer) bool {
	result := checker.Check(ctx, serial)
	st := newStyles()

	if result.Online {
		_, _ = fmt.Fprintln(out, st.online.Render("ONLINE"))
	} else {
		_, _ = fmt.Fprintln(out, st.offline.Render("OFFLINE"))
	}

	if verbose {
		_, _ = fmt.Fprintln(out, st.detail.Render(describeResult(result)))
	}

	return result.Online
}

func describeResult(r models.CheckResult) string {
	desc := fmt.Sprintf("serial=%s stage=%s", r.Serial, r.Stage)

	if r.Relay != nil {
		desc += " relay=" + r.Relay.Address()
	}

	if r.Error != "" {
		desc += " error=" + r.Error
	}

	return desc
}
