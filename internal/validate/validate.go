// Package validate checks generated documents: every component schema
// must compile as a JSON Schema and every $ref must resolve.
package validate

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"github.com/usestring/screener-openapi/pkg/openapi"
)

// Report accumulates validation findings for one document.
type Report struct {
	Schemas int
	Errors  []string
}

func (r *Report) Valid() bool { return len(r.Errors) == 0 }

// Document validates an in-memory document: ref integrity first, then a
// compile pass over every component schema.
func Document(doc *openapi.Document) (*Report, error) {
	report := &Report{}

	for _, err := range doc.CheckRefs() {
		report.Errors = append(report.Errors, err.Error())
	}

	value, err := toJSONValue(doc)
	if err != nil {
		return nil, err
	}

	var names []string
	if doc.Components.Schemas != nil {
		for pair := doc.Components.Schemas.Oldest(); pair != nil; pair = pair.Next() {
			names = append(names, pair.Key)
		}
	}

	compileSchemas(value, names, report)
	return report, nil
}

// File validates a document previously written to disk, in either YAML
// or JSON form.
func File(path string) (*Report, error) {
	value, err := fileValue(path)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	compileSchemas(value, schemaNames(value), report)
	return report, nil
}

// Row validates a sample data value against one named component schema,
// typically a scan row object against <Market>Fields.
func Row(doc *openapi.Document, schema string, value any) ([]string, error) {
	docValue, err := toJSONValue(doc)
	if err != nil {
		return nil, err
	}
	return validateAgainst(docValue, schema, value)
}

// FileRow validates a sample data value against one named component
// schema in a document file.
func FileRow(path, schema string, value any) ([]string, error) {
	docValue, err := fileValue(path)
	if err != nil {
		return nil, err
	}
	return validateAgainst(docValue, schema, value)
}

func validateAgainst(docValue any, schema string, value any) ([]string, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("spec.json", docValue); err != nil {
		return nil, fmt.Errorf("adding document resource: %w", err)
	}

	compiled, err := compiler.Compile("spec.json#/components/schemas/" + schema)
	if err != nil {
		return nil, fmt.Errorf("compiling %s: %w", schema, err)
	}

	if err := compiled.Validate(value); err != nil {
		return extractValidationErrors(err), nil
	}
	return nil, nil
}

// fileValue parses a document file into the plain value form the
// compiler expects.
func fileValue(path string) (any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var value any
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &value); err != nil {
			return nil, fmt.Errorf("parsing YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(raw, &value); err != nil {
			return nil, fmt.Errorf("parsing JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported document extension %q", ext)
	}
	return value, nil
}

// toJSONValue round-trips the document through JSON to get the plain
// value form the compiler expects.
func toJSONValue(doc *openapi.Document) (any, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshaling document: %w", err)
	}
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, fmt.Errorf("unmarshaling document: %w", err)
	}
	return value, nil
}

func compileSchemas(docValue any, names []string, report *Report) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("spec.json", docValue); err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("adding document resource: %s", err))
		return
	}

	for _, name := range names {
		report.Schemas++
		if _, err := compiler.Compile("spec.json#/components/schemas/" + name); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("schema %s: %s", name, err))
		}
	}
}

// schemaNames pulls component schema names out of a parsed document.
func schemaNames(docValue any) []string {
	root, ok := docValue.(map[string]any)
	if !ok {
		return nil
	}
	components, ok := root["components"].(map[string]any)
	if !ok {
		return nil
	}
	schemas, ok := components["schemas"].(map[string]any)
	if !ok {
		return nil
	}
	names := make([]string, 0, len(schemas))
	for name := range schemas {
		names = append(names, name)
	}
	return names
}

// printer renders validation errors in English.
var printer = message.NewPrinter(language.English)

func extractValidationErrors(err error) []string {
	if err == nil {
		return nil
	}

	var validationErr *jsonschema.ValidationError
	if errors.As(err, &validationErr) {
		var msgs []string
		collectErrors(validationErr, &msgs)
		if len(msgs) > 0 {
			return msgs
		}
	}
	return []string{err.Error()}
}

// collectErrors walks the cause tree and keeps only leaf messages.
func collectErrors(err *jsonschema.ValidationError, msgs *[]string) {
	if err.ErrorKind != nil && len(err.Causes) == 0 {
		msg := err.ErrorKind.LocalizedString(printer)
		if !strings.HasPrefix(msg, "$ref ") && !strings.HasPrefix(msg, "doesn't validate with") {
			if len(err.InstanceLocation) > 0 {
				msg = "/" + strings.Join(err.InstanceLocation, "/") + ": " + msg
			}
			*msgs = append(*msgs, msg)
		}
	}
	for _, cause := range err.Causes {
		collectErrors(cause, msgs)
	}
}
