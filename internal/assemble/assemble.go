// Package assemble builds per-market OpenAPI documents from field
// descriptors. Assembly is a pure transform: one MarketSpec in, one
// document out, no I/O.
package assemble

import (
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"

	"github.com/usestring/screener-openapi/pkg/infer"
	"github.com/usestring/screener-openapi/pkg/openapi"
)

// Endpoint is one generated endpoint group member.
type Endpoint string

const (
	EndpointScan     Endpoint = "scan"
	EndpointSearch   Endpoint = "search"
	EndpointHistory  Endpoint = "history"
	EndpointSummary  Endpoint = "summary"
	EndpointMetainfo Endpoint = "metainfo"
)

// AllEndpoints lists every endpoint in generation order.
var AllEndpoints = []Endpoint{
	EndpointScan, EndpointSearch, EndpointHistory, EndpointSummary, EndpointMetainfo,
}

// FieldDescriptor describes one market field: its name, a sample value
// from scan data, the upstream-declared type hint, and optional metadata.
// Descriptors are immutable once built.
type FieldDescriptor struct {
	Name         string
	Sample       any
	DeclaredType string
	Description  string
	EnumValues   []string
	HasTimeframe bool
	Undocumented bool // present in scan data but absent from metainfo
}

// NewFieldDescriptor builds a descriptor, deriving HasTimeframe from the
// field name suffix.
func NewFieldDescriptor(name, declaredType string, sample any) FieldDescriptor {
	_, code := splitTimeframe(name)
	return FieldDescriptor{
		Name:         name,
		Sample:       sample,
		DeclaredType: declaredType,
		HasTimeframe: code != "",
	}
}

// MarketSpec is the input to assembly: a market name plus its fields in
// upstream order. Field names must be unique.
type MarketSpec struct {
	Market    string
	Fields    []FieldDescriptor
	Endpoints []Endpoint
}

// DuplicateFieldError reports a field-name collision after normalization.
// Assembly for the affected market aborts; other markets are unaffected.
type DuplicateFieldError struct {
	Market string
	Field  string
}

func (e *DuplicateFieldError) Error() string {
	return fmt.Sprintf("duplicate field %q in market %q", e.Field, e.Market)
}

// fieldChunkSize bounds the property count per Fields schema. Larger field
// sets split into FieldsPartNN schemas joined by allOf, which keeps
// individual schemas digestible for downstream tooling.
const fieldChunkSize = 64

// Assembler produces OpenAPI documents for markets.
type Assembler struct {
	Title     string
	Version   string
	ServerURL string
}

// New creates an Assembler with the given document metadata.
func New(title, version, serverURL string) *Assembler {
	return &Assembler{Title: title, Version: version, ServerURL: serverURL}
}

// Assemble builds the OpenAPI document for one market. The returned
// document satisfies ref integrity: every $ref under paths resolves to a
// component schema.
func (a *Assembler) Assemble(spec MarketSpec) (*openapi.Document, error) {
	market := strings.ToLower(strings.TrimSpace(spec.Market))
	prefix := capitalize(market)

	doc := openapi.New(openapi.Info{
		Title:       fmt.Sprintf("%s (%s)", a.Title, market),
		Description: describeDocument(market),
		Version:     a.Version,
	}, a.ServerURL)

	// Shared scalar aliases, identical across every market spec.
	doc.AddSchema("Num", &jsonschema.Schema{Type: "number"})
	doc.AddSchema("Str", &jsonschema.Schema{Type: "string"})
	doc.AddSchema("Bool", &jsonschema.Schema{Type: "boolean"})
	doc.AddSchema("Time", &jsonschema.Schema{Type: "string", Format: "date-time"})
	doc.AddSchema("Array", &jsonschema.Schema{Type: "array", Items: &jsonschema.Schema{}})

	if err := a.addFieldSchemas(doc, market, prefix, spec.Fields); err != nil {
		return nil, err
	}
	a.addNumericFieldNames(doc, spec.Fields)

	endpoints := spec.Endpoints
	if len(endpoints) == 0 {
		endpoints = AllEndpoints
	}
	for _, ep := range AllEndpoints {
		if !containsEndpoint(endpoints, ep) {
			continue
		}
		a.addEndpoint(doc, market, prefix, ep)
	}

	return doc, nil
}

// addFieldSchemas emits the <Market>Fields schema, split into parts when
// the field set is large.
func (a *Assembler) addFieldSchemas(doc *openapi.Document, market, prefix string, fields []FieldDescriptor) error {
	seen := make(map[string]bool, len(fields))
	props := jsonschema.NewProperties()
	for _, fd := range fields {
		name := strings.TrimSpace(fd.Name)
		if seen[name] {
			return &DuplicateFieldError{Market: market, Field: name}
		}
		seen[name] = true
		props.Set(name, fieldSchema(fd))
	}

	fieldsName := prefix + "Fields"
	if props.Len() <= fieldChunkSize {
		doc.AddSchema(fieldsName, &jsonschema.Schema{
			Type:       "object",
			Properties: props,
		})
		return nil
	}

	// Chunk into parts of fieldChunkSize, joined by allOf.
	var parts []*jsonschema.Schema
	partProps := jsonschema.NewProperties()
	partNum := 0
	flush := func() {
		if partProps.Len() == 0 {
			return
		}
		partNum++
		partName := fmt.Sprintf("%sFieldsPart%02d", prefix, partNum)
		doc.AddSchema(partName, &jsonschema.Schema{Type: "object", Properties: partProps})
		parts = append(parts, openapi.Ref(partName))
		partProps = jsonschema.NewProperties()
	}
	for pair := props.Oldest(); pair != nil; pair = pair.Next() {
		partProps.Set(pair.Key, pair.Value)
		if partProps.Len() == fieldChunkSize {
			flush()
		}
	}
	flush()

	// Rows stay open objects: under 2020-12 semantics a false
	// additionalProperties next to allOf would reject every property, and
	// scan rows can carry columns excluded from the documented set.
	doc.AddSchema(fieldsName, &jsonschema.Schema{AllOf: parts})
	return nil
}

// fieldSchema builds the property schema for one field descriptor.
func fieldSchema(fd FieldDescriptor) *jsonschema.Schema {
	s := &jsonschema.Schema{
		Type: infer.TypeOf(fd.Sample, fd.DeclaredType),
	}
	if format := infer.FormatOf(fd.DeclaredType); format != "" {
		s.Format = format
	}
	if len(fd.EnumValues) > 0 {
		s.Enum = make([]any, len(fd.EnumValues))
		for i, v := range fd.EnumValues {
			s.Enum[i] = v
		}
	}

	base, code := splitTimeframe(fd.Name)
	desc := fmt.Sprintf("%s for %s.", displayName(base), describeTimeframe(code))
	if fd.Description != "" {
		desc += "\n" + fd.Description
	}
	s.Description = desc

	timeframe := code
	if timeframe == "" {
		timeframe = "1D"
	}
	s.Extras = map[string]any{
		"x-category":  categorize(base),
		"x-timeframe": timeframe,
	}
	if fd.Undocumented {
		s.Extras["x-undocumented"] = true
	}
	return s
}

// addNumericFieldNames emits the two field-name helper schemas: an enum of
// numeric fields without a timeframe suffix and a pattern for suffixed
// indicator names.
func (a *Assembler) addNumericFieldNames(doc *openapi.Document, fields []FieldDescriptor) {
	noTimeframe := &jsonschema.Schema{Type: "string"}
	for _, fd := range fields {
		if fd.HasTimeframe {
			continue
		}
		switch infer.TypeOf(fd.Sample, fd.DeclaredType) {
		case infer.TypeNumber, infer.TypeInteger:
			noTimeframe.Enum = append(noTimeframe.Enum, strings.TrimSpace(fd.Name))
		}
	}
	doc.AddSchema("NumericFieldNoTimeframe", noTimeframe)
	doc.AddSchema("NumericFieldWithTimeframe", &jsonschema.Schema{
		Type:    "string",
		Pattern: TimeframePattern,
	})
}

// addEndpoint emits the path entry and request/response schemas for one
// endpoint.
func (a *Assembler) addEndpoint(doc *openapi.Document, market, prefix string, ep Endpoint) {
	name := string(ep)
	epCap := capitalize(name)
	reqName := prefix + epCap + "Request"
	respName := prefix + epCap + "Response"

	switch ep {
	case EndpointScan:
		doc.AddSchema(reqName, scanRequestSchema())
		doc.AddSchema(respName, scanResponseSchema(prefix))
	case EndpointMetainfo:
		doc.AddSchema(reqName, &jsonschema.Schema{Type: "object"})
		doc.AddSchema(respName, metainfoResponseSchema())
	default:
		doc.AddSchema(reqName, &jsonschema.Schema{Type: "object"})
		doc.AddSchema(respName, &jsonschema.Schema{Type: "object"})
	}

	consequential := false
	doc.AddPath(fmt.Sprintf("/%s/%s", market, name), &openapi.PathItem{
		Post: &openapi.Operation{
			Tags:            []string{name},
			Summary:         fmt.Sprintf("%s %s", epCap, market),
			Description:     fmt.Sprintf("%s the %s market.", epCap, market),
			OperationID:     prefix + epCap,
			IsConsequential: &consequential,
			RequestBody: &openapi.RequestBody{
				Content: openapi.JSONMedia(openapi.Ref(reqName)),
			},
			Responses: map[string]*openapi.Response{
				"200": {
					Description: "Successful response",
					Content:     openapi.JSONMedia(openapi.Ref(respName)),
				},
				"400": {Description: "Bad Request"},
				"500": {Description: "Server Error"},
			},
		},
	})
}

// scanRequestSchema is the shared scan request template: symbol selection,
// requested columns, and free-form filter/sort/range objects.
func scanRequestSchema() *jsonschema.Schema {
	queryProps := jsonschema.NewProperties()
	queryProps.Set("types", &jsonschema.Schema{Type: "array", Items: &jsonschema.Schema{Type: "string"}})

	symbolProps := jsonschema.NewProperties()
	symbolProps.Set("tickers", &jsonschema.Schema{Type: "array", Items: &jsonschema.Schema{Type: "string"}})
	symbolProps.Set("query", &jsonschema.Schema{Type: "object", Properties: queryProps})

	props := jsonschema.NewProperties()
	props.Set("symbols", &jsonschema.Schema{Type: "object", Properties: symbolProps})
	props.Set("columns", &jsonschema.Schema{Type: "array", Items: &jsonschema.Schema{Type: "string"}})
	props.Set("filter", &jsonschema.Schema{Type: "object"})
	props.Set("filter2", &jsonschema.Schema{Type: "object"})
	props.Set("sort", &jsonschema.Schema{Type: "object"})
	props.Set("range", &jsonschema.Schema{Type: "object"})

	return &jsonschema.Schema{
		Type:       "object",
		Properties: props,
		Required:   []string{"symbols", "columns"},
	}
}

func scanResponseSchema(prefix string) *jsonschema.Schema {
	props := jsonschema.NewProperties()
	props.Set("totalCount", &jsonschema.Schema{Type: "integer"})
	props.Set("data", &jsonschema.Schema{
		Type:  "array",
		Items: openapi.Ref(prefix + "Fields"),
	})
	return &jsonschema.Schema{Type: "object", Properties: props}
}

func metainfoResponseSchema() *jsonschema.Schema {
	props := jsonschema.NewProperties()
	props.Set("fields", &jsonschema.Schema{
		Type:  "array",
		Items: &jsonschema.Schema{Type: "string"},
	})
	return &jsonschema.Schema{Type: "object", Properties: props}
}

func describeDocument(market string) string {
	return fmt.Sprintf(
		"Auto-generated specification for the %s market.\n"+
			"Field names may carry a timeframe suffix: 'RSI|15' is RSI on 15-minute candles, "+
			"a bare 'RSI' is the daily (1D) value. Every field is annotated with x-category "+
			"and x-timeframe for UI grouping.", market)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func containsEndpoint(list []Endpoint, ep Endpoint) bool {
	for _, e := range list {
		if e == ep {
			return true
		}
	}
	return false
}
