// Package config loads pool configuration from YAML or JSON files with
// environment variable overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Validator validates configuration
type Validator interface {
	Validate(config any) error
}

// ValidatorFunc is a function that validates configuration
type ValidatorFunc func(config any) error

func (f ValidatorFunc) Validate(config any) error {
	return f(config)
}

// Load loads configuration from a file, detecting YAML or JSON by
// extension. Unknown extensions default to YAML.
func Load(path string, target any) error {
	if strings.HasSuffix(path, ".json") {
		return loadJSON(path, target)
	}
	return loadYAML(path, target)
}

// LoadWithEnv loads configuration from a file and applies environment
// variable overrides of the form PREFIX_FIELD_SUBFIELD.
func LoadWithEnv(path string, prefix string, target any) error {
	if err := Load(path, target); err != nil {
		return fmt.Errorf("failed to load config file: %w", err)
	}
	if err := ApplyEnvOverrides(prefix, target); err != nil {
		return fmt.Errorf("failed to apply env overrides: %w", err)
	}
	return nil
}

func loadYAML(path string, target any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to parse YAML %s: %w", path, err)
	}
	return nil
}

func loadJSON(path string, target any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to parse JSON %s: %w", path, err)
	}
	return nil
}

// ApplyEnvOverrides applies environment variable overrides to a
// configuration struct via reflection.
func ApplyEnvOverrides(prefix string, target any) error {
	if prefix == "" {
		prefix = "POOLKIT"
	}

	val := reflect.ValueOf(target)
	if val.Kind() != reflect.Ptr || val.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("target must be a pointer to a struct")
	}

	return applyEnvToStruct(prefix, val.Elem())
}

func applyEnvToStruct(prefix string, val reflect.Value) error {
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)

		if !field.CanSet() {
			continue
		}

		envKey := prefix + "_" + strings.ToUpper(fieldType.Name)
		envKey = strings.ReplaceAll(envKey, "-", "_")

		if field.Kind() == reflect.Struct {
			if err := applyEnvToStruct(envKey, field); err != nil {
				return err
			}
			continue
		}

		envValue := os.Getenv(envKey)
		if envValue == "" {
			continue
		}

		if err := setFieldFromEnv(field, envValue); err != nil {
			return fmt.Errorf("failed to set field %s from env %s: %w", fieldType.Name, envKey, err)
		}
	}

	return nil
}

func setFieldFromEnv(field reflect.Value, envValue string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(envValue)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		intVal, err := strconv.ParseInt(envValue, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer value: %s", envValue)
		}
		field.SetInt(intVal)
	case reflect.Float32, reflect.Float64:
		floatVal, err := strconv.ParseFloat(envValue, 64)
		if err != nil {
			return fmt.Errorf("invalid float value: %s", envValue)
		}
		field.SetFloat(floatVal)
	case reflect.Bool:
		field.SetBool(strings.EqualFold(envValue, "true") || envValue == "1")
	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// Validate validates configuration using the given validators.
func Validate(config any, validators ...Validator) error {
	for _, validator := range validators {
		if err := validator.Validate(config); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
	}
	return nil
}
