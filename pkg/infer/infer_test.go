package infer

import (
	"encoding/json"
	"testing"
)

func TestTypeOf_Hints(t *testing.T) {
	tests := []struct {
		hint     string
		expected string
	}{
		{"number", "number"},
		{"price", "number"},
		{"percent", "number"},
		{"fundamental_price", "number"},
		{"integer", "integer"},
		{"bool", "boolean"},
		{"text", "string"},
		{"time", "string"},
		{"map", "object"},
		{"set", "array"},
		{"num_slice", "array"},
		{"interface", "object"},
	}

	for _, tt := range tests {
		t.Run(tt.hint, func(t *testing.T) {
			// Sample deliberately contradicts the hint: the hint wins.
			if got := TypeOf("some text", tt.hint); got != tt.expected {
				t.Errorf("TypeOf(_, %q) = %q, want %q", tt.hint, got, tt.expected)
			}
		})
	}
}

func TestTypeOf_BooleanText(t *testing.T) {
	for _, s := range []string{"true", "false", "TRUE", "False", " true "} {
		if got := TypeOf(s, ""); got != "boolean" {
			t.Errorf("TypeOf(%q) = %q, want boolean", s, got)
		}
	}
	if got := TypeOf(true, ""); got != "boolean" {
		t.Errorf("TypeOf(true) = %q, want boolean", got)
	}
}

func TestTypeOf_NumberLiterals(t *testing.T) {
	tests := []struct {
		sample   any
		expected string
	}{
		{"42", "integer"},
		{"-7", "integer"},
		{"0", "integer"},
		{"3.14", "number"},
		{"-0.5", "number"},
		{"1e6", "number"},
		{json.Number("50000.0"), "number"},
		{json.Number("42"), "integer"},
		{json.Number("-7"), "integer"},
		{int64(9), "integer"},
		{float64(1.5), "number"},
	}

	for _, tt := range tests {
		if got := TypeOf(tt.sample, ""); got != tt.expected {
			t.Errorf("TypeOf(%v) = %q, want %q", tt.sample, got, tt.expected)
		}
	}
}

func TestTypeOf_WholeFloat(t *testing.T) {
	// A bare float64 has no literal form left, whole values count as integer.
	if got := TypeOf(float64(50000), ""); got != "integer" {
		t.Errorf("TypeOf(50000.0 as float64) = %q, want integer", got)
	}
}

func TestTypeOf_Containers(t *testing.T) {
	if got := TypeOf([]any{1, 2}, ""); got != "array" {
		t.Errorf("slice = %q, want array", got)
	}
	if got := TypeOf(map[string]any{"a": 1}, ""); got != "object" {
		t.Errorf("map = %q, want object", got)
	}
}

func TestTypeOf_DefaultsToString(t *testing.T) {
	tests := []any{nil, "", "BINANCE", "not a number", struct{}{}}
	for _, sample := range tests {
		if got := TypeOf(sample, ""); got != "string" {
			t.Errorf("TypeOf(%v) = %q, want string", sample, got)
		}
	}
	// Unknown hint falls back to the sample.
	if got := TypeOf("BINANCE", "mystery_type"); got != "string" {
		t.Errorf("unknown hint = %q, want string", got)
	}
	if got := TypeOf(nil, "mystery_type"); got != "string" {
		t.Errorf("unknown hint with nil sample = %q, want string", got)
	}
}

func TestFormatOf(t *testing.T) {
	if got := FormatOf("time"); got != "date-time" {
		t.Errorf("FormatOf(time) = %q", got)
	}
	if got := FormatOf("time-yyyymmdd"); got != "date" {
		t.Errorf("FormatOf(time-yyyymmdd) = %q", got)
	}
	if got := FormatOf("number"); got != "" {
		t.Errorf("FormatOf(number) = %q, want empty", got)
	}
}
