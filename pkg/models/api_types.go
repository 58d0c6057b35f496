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

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// ListResponse wraps the device rows returned by the list endpoint.
type ListResponse struct {
	Items []DeviceStatus `json:"items"`
}

// UpdateSerialRequest is the body of the serial update endpoint. P2PNumber is
// a pointer so an explicitly empty value can be told apart from a missing one.
type UpdateSerialRequest struct {
	Site      string  `json:"site"`
	P2PNumber *string `json:"p2pNumber"`
}

// OKResponse acknowledges a write.
type OKResponse struct {
	OK bool `json:"ok"`
}

// RefreshResponse is returned after an on-demand scan.
type RefreshResponse struct {
	OK bool `json:"ok"`
	Stats
}
