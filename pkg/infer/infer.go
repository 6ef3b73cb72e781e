// Package infer maps raw sample values from screener responses to OpenAPI
// scalar type tags. Inference never fails: ambiguous or missing input
// defaults to "string".
package infer

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// OpenAPI type tags produced by TypeOf.
const (
	TypeString  = "string"
	TypeNumber  = "number"
	TypeInteger = "integer"
	TypeBoolean = "boolean"
	TypeArray   = "array"
	TypeObject  = "object"
)

// hintTypes maps upstream declared field types to OpenAPI type tags.
// Unknown hints fall through to sample-based inference.
var hintTypes = map[string]string{
	"number":            TypeNumber,
	"price":             TypeNumber,
	"fundamental_price": TypeNumber,
	"percent":           TypeNumber,
	"percentage":        TypeNumber,
	"float":             TypeNumber,
	"duration":          TypeNumber,
	"integer":           TypeInteger,
	"bool":              TypeBoolean,
	"boolean":           TypeBoolean,
	"string":            TypeString,
	"text":              TypeString,
	"time":              TypeString,
	"time-yyyymmdd":     TypeString,
	"map":               TypeObject,
	"interface":         TypeObject,
	"set":               TypeArray,
	"num_slice":         TypeArray,
	"array":             TypeArray,
}

// hintFormats maps upstream declared types to OpenAPI string formats.
var hintFormats = map[string]string{
	"time":          "date-time",
	"time-yyyymmdd": "date",
}

// TypeOf returns the OpenAPI type tag for a sample value, preferring the
// upstream-declared type hint when it maps to a known tag.
//
// Checks are applied in order, first match wins: hint, boolean text,
// integer literal, float literal, sequence, mapping. Everything else,
// including nil and empty input, classifies as "string".
func TypeOf(sample any, hint string) string {
	if t, ok := hintTypes[strings.ToLower(hint)]; ok {
		return t
	}
	return sampleType(sample)
}

// FormatOf returns the OpenAPI string format implied by an upstream type
// hint ("date-time" for time, "date" for time-yyyymmdd), or "".
func FormatOf(hint string) string {
	return hintFormats[strings.ToLower(hint)]
}

func sampleType(sample any) string {
	switch v := sample.(type) {
	case nil:
		return TypeString

	case bool:
		return TypeBoolean

	case string:
		return textType(v)

	case json.Number:
		// The literal form survives json.Number, so "50000.0" stays a
		// float and "42" an integer.
		return textType(v.String())

	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return TypeInteger

	case float64:
		// Without the literal we cannot tell 1.0 from 1.
		if math.Trunc(v) == v && !math.IsInf(v, 0) && !math.IsNaN(v) {
			return TypeInteger
		}
		return TypeNumber

	case float32:
		return sampleType(float64(v))

	case []any:
		return TypeArray

	case map[string]any:
		return TypeObject

	default:
		return TypeString
	}
}

func textType(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "false":
		return TypeBoolean
	}
	if _, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
		return TypeInteger
	}
	if _, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		return TypeNumber
	}
	return TypeString
}
