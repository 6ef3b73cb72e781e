// Package query runs jq expressions against collected market dumps, so
// upstream payloads can be explored without re-fetching them.
package query

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/itchyny/gojq"
)

// Result holds the values a jq expression produced over one input.
type Result struct {
	Values   []any    `json:"values"`
	Errors   []string `json:"errors,omitempty"`
	RawCount int      `json:"raw_count"`
}

// Run executes a jq expression against a JSON document. Nil outputs are
// skipped; duplicate values are collapsed when deduplicate is set, and
// maxResults bounds the output (0 means unbounded).
func Run(data []byte, expression string, deduplicate bool, maxResults int) (*Result, error) {
	code, err := compile(expression)
	if err != nil {
		return nil, err
	}

	var input any
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("invalid JSON data: %w", err)
	}

	result := &Result{Values: make([]any, 0)}
	seen := make(map[string]bool)
	iter := code.Run(input)

	for {
		v, ok := iter.Next()
		if !ok {
			break
		}

		if err, isErr := v.(error); isErr {
			result.Errors = append(result.Errors, formatJQError(err))
			continue
		}
		if v == nil {
			continue
		}

		result.RawCount++

		if deduplicate {
			key := valueKey(v)
			if seen[key] {
				continue
			}
			seen[key] = true
		}

		result.Values = append(result.Values, v)

		if maxResults > 0 && len(result.Values) >= maxResults {
			break
		}
	}

	return result, nil
}

// RunFile executes a jq expression against a JSON file, typically a
// market dump saved by the collector.
func RunFile(path, expression string, deduplicate bool, maxResults int) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Run(data, expression, deduplicate, maxResults)
}

// ValidateExpression checks a jq expression without executing it.
func ValidateExpression(expression string) error {
	_, err := compile(expression)
	return err
}

func compile(expression string) (*gojq.Code, error) {
	query, err := gojq.Parse(expression)
	if err != nil {
		var parseErr *gojq.ParseError
		if errors.As(err, &parseErr) {
			return nil, fmt.Errorf("invalid jq expression at position %d: %w", parseErr.Offset, err)
		}
		return nil, fmt.Errorf("invalid jq expression: %w", err)
	}

	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("failed to compile jq expression: %w", err)
	}
	return code, nil
}

// formatJQError decorates common runtime errors with a hint. gojq
// returns these as plain errors, so string matching is the only handle.
func formatJQError(err error) string {
	var haltErr *gojq.HaltError
	if errors.As(err, &haltErr) {
		if haltErr.Value() == nil {
			return "query halted"
		}
		return fmt.Sprintf("query halted with: %v", haltErr.Value())
	}

	errStr := err.Error()

	var hint string
	switch {
	case strings.Contains(errStr, "cannot iterate over: null"):
		hint = " (the path may not exist in this dump)"
	case strings.Contains(errStr, "cannot index") && strings.Contains(errStr, "with"):
		hint = " (field not found or wrong type)"
	case strings.Contains(errStr, "object") && strings.Contains(errStr, "cannot be iterated"):
		hint = " (expected array but got object, try removing '[]')"
	case strings.Contains(errStr, "array") && strings.Contains(errStr, "cannot be indexed"):
		hint = " (expected object but got array, try adding '[]')"
	}

	return errStr + hint
}

// valueKey builds a deduplication key for a jq output value.
func valueKey(v any) string {
	switch val := v.(type) {
	case string:
		return "s:" + val
	case float64:
		return fmt.Sprintf("n:%v", val)
	case bool:
		return fmt.Sprintf("b:%v", val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("?:%v", val)
		}
		return "j:" + string(b)
	}
}
