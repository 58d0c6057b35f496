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

package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/carverauto/dvrwatch/pkg/logger"
)

var (
	// ErrDstMustBeNonNilPointer indicates that the destination must be a non-nil pointer.
	ErrDstMustBeNonNilPointer = errors.New("dst must be a non-nil pointer")
	// ErrDstMustBePointerToStruct indicates that the destination must be a pointer to a struct.
	ErrDstMustBePointerToStruct = errors.New("dst must be a pointer to a struct")
)

var (
	durationType    = reflect.TypeOf(time.Duration(0))
	unmarshalerType = reflect.TypeOf((*json.Unmarshaler)(nil)).Elem()
)

// EnvConfigLoader loads configuration from environment variables. Nested
// fields join their JSON names with underscores, so with prefix DVRWATCH_
// the directory host is read from DVRWATCH_DIRECTORY_HOST. A whole JSON
// document in <prefix>CONFIG_JSON takes precedence over individual variables.
type EnvConfigLoader struct {
	logger logger.Logger
	prefix string
}

func NewEnvConfigLoader(log logger.Logger, prefix string) *EnvConfigLoader {
	return &EnvConfigLoader{
		logger: log,
		prefix: prefix,
	}
}

// Load implements ConfigLoader. The path argument is ignored.
func (e *EnvConfigLoader) Load(_ context.Context, _ string, dst interface{}) error {
	if jsonConfig := os.Getenv(e.prefix + "CONFIG_JSON"); jsonConfig != "" {
		if err := json.Unmarshal([]byte(jsonConfig), dst); err != nil {
			return fmt.Errorf("failed to unmarshal %sCONFIG_JSON: %w", e.prefix, err)
		}

		e.logger.Info().Msg("Loaded configuration from CONFIG_JSON environment variable")

		return nil
	}

	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return ErrDstMustBeNonNilPointer
	}

	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return ErrDstMustBePointerToStruct
	}

	if _, err := e.loadStruct(v, e.prefix); err != nil {
		return err
	}

	e.logger.Info().Msg("Loaded configuration from environment variables")

	return nil
}

// loadStruct fills the exported, JSON-tagged fields of v and reports whether
// any variable was found.
func (e *EnvConfigLoader) loadStruct(v reflect.Value, prefix string) (bool, error) {
	t := v.Type()
	found := false

	for i := 0; i < t.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if !field.CanSet() {
			continue
		}

		name, _, _ := strings.Cut(fieldType.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			continue
		}

		envName := prefix + strings.ToUpper(strings.ReplaceAll(name, ".", "_"))

		set, err := e.loadField(field, envName)
		if err != nil {
			return found, err
		}

		found = found || set
	}

	return found, nil
}

func (e *EnvConfigLoader) loadField(field reflect.Value, envName string) (bool, error) {
	if isNestedStruct(field.Type()) {
		if field.Kind() == reflect.Ptr {
			nested := reflect.New(field.Type().Elem())

			set, err := e.loadStruct(nested.Elem(), envName+"_")
			if err != nil || !set {
				return false, err
			}

			if !field.IsNil() {
				return e.loadStruct(field.Elem(), envName+"_")
			}

			field.Set(nested)

			return true, nil
		}

		return e.loadStruct(field, envName+"_")
	}

	envValue, ok := os.LookupEnv(envName)
	if !ok || envValue == "" {
		return false, nil
	}

	if err := setFieldValue(field, envValue); err != nil {
		return false, fmt.Errorf("%s: %w", envName, err)
	}

	e.logger.Debug().Str("env", envName).Msg("Loaded value from environment variable")

	return true, nil
}

// isNestedStruct reports whether t is a struct (or pointer to one) that is
// decoded field by field rather than as a single value.
func isNestedStruct(t reflect.Type) bool {
	if reflect.PointerTo(t).Implements(unmarshalerType) {
		return false
	}

	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	return t.Kind() == reflect.Struct && t != reflect.TypeOf(time.Time{})
}

func setFieldValue(field reflect.Value, raw string) error {
	if reflect.PointerTo(field.Type()).Implements(unmarshalerType) {
		return setViaJSON(field, raw)
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid boolean value: %w", err)
		}

		field.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == durationType {
			d, err := time.ParseDuration(raw)
			if err != nil {
				return fmt.Errorf("invalid duration value: %w", err)
			}

			field.SetInt(int64(d))

			return nil
		}

		i, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer value: %w", err)
		}

		field.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid unsigned integer value: %w", err)
		}

		field.SetUint(u)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("invalid float value: %w", err)
		}

		field.SetFloat(f)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return setViaJSON(field, raw)
		}

		values := strings.Split(raw, ",")
		slice := reflect.MakeSlice(field.Type(), len(values), len(values))

		for i, v := range values {
			slice.Index(i).SetString(strings.TrimSpace(v))
		}

		field.Set(slice)
	default:
		return setViaJSON(field, raw)
	}

	return nil
}

// setViaJSON decodes raw as JSON, falling back to a JSON string so that
// values such as "2m" reach custom unmarshalers unquoted in the environment.
func setViaJSON(field reflect.Value, raw string) error {
	target := field.Addr().Interface()

	if err := json.Unmarshal([]byte(raw), target); err == nil {
		return nil
	}

	quoted, err := json.Marshal(raw)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(quoted, target); err != nil {
		return fmt.Errorf("unsupported value for %s: %w", field.Type(), err)
	}

	return nil
}
