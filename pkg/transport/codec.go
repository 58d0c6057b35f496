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

package transport

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// envelope is the datagram body for both directions. Requests fill ID and
// Path; replies fill ID, Code and Data. A reply without a code is malformed.
type envelope struct {
	ID   string `json:"id" cbor:"id"`
	Path string `json:"path,omitempty" cbor:"path,omitempty"`
	Code *int   `json:"code,omitempty" cbor:"code,omitempty"`
	Data any    `json:"data,omitempty" cbor:"data,omitempty"`
}

// Codec encodes and decodes datagram envelopes.
type Codec interface {
	Name() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

type jsonCodec struct{}

func (jsonCodec) Name() string                       { return "json" }
func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

type cborCodec struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

func newCBORCodec() (*cborCodec, error) {
	enc, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return nil, err
	}

	// Maps decode with string keys so payloads look the same as with JSON.
	dec, err := cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		return nil, err
	}

	return &cborCodec{enc: enc, dec: dec}, nil
}

func (*cborCodec) Name() string                         { return "cbor" }
func (c *cborCodec) Marshal(v any) ([]byte, error)      { return c.enc.Marshal(v) }
func (c *cborCodec) Unmarshal(data []byte, v any) error { return c.dec.Unmarshal(data, v) }

// NewCodec returns the codec registered under name ("json" or "cbor").
func NewCodec(name string) (Codec, error) {
	switch name {
	case "", "json":
		return jsonCodec{}, nil
	case "cbor":
		return newCBORCodec()
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownCodec, name)
	}
}
