// Package openapi holds a minimal OpenAPI 3.1 document model, sufficient
// for the per-market specifications this repository generates. Schema nodes
// reuse invopop's JSON Schema type so property order is preserved.
package openapi

import (
	"github.com/invopop/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Version is the OpenAPI version written into generated documents.
const Version = "3.1.0"

// SchemaPrefix is the ref prefix for component schemas.
const SchemaPrefix = "#/components/schemas/"

// Document is the root OpenAPI object.
type Document struct {
	OpenAPI    string                                    `json:"openapi"`
	Info       Info                                      `json:"info"`
	Servers    []Server                                  `json:"servers,omitempty"`
	Tags       []Tag                                     `json:"tags,omitempty"`
	Paths      *orderedmap.OrderedMap[string, *PathItem] `json:"paths"`
	Components Components                                `json:"components"`
}

// Info carries document metadata.
type Info struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Version     string `json:"version"`
}

// Server describes an upstream server.
type Server struct {
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// Tag groups operations for documentation tooling.
type Tag struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Components holds reusable schemas, keyed by name in insertion order.
type Components struct {
	Schemas *orderedmap.OrderedMap[string, *jsonschema.Schema] `json:"schemas"`
}

// PathItem describes the operations available on one path. The screener
// API is POST-only, but GET is kept for health-style endpoints.
type PathItem struct {
	Get  *Operation `json:"get,omitempty"`
	Post *Operation `json:"post,omitempty"`
}

// Operation is a single API operation on a path.
type Operation struct {
	Tags            []string             `json:"tags,omitempty"`
	Summary         string               `json:"summary,omitempty"`
	Description     string               `json:"description,omitempty"`
	OperationID     string               `json:"operationId"`
	IsConsequential *bool                `json:"x-openai-isConsequential,omitempty"`
	RequestBody     *RequestBody         `json:"requestBody,omitempty"`
	Responses       map[string]*Response `json:"responses"`
}

// RequestBody describes a request payload.
type RequestBody struct {
	Required bool              `json:"required,omitempty"`
	Content  map[string]*Media `json:"content"`
}

// Response describes one response status.
type Response struct {
	Description string            `json:"description"`
	Content     map[string]*Media `json:"content,omitempty"`
}

// Media binds a schema to a content type.
type Media struct {
	Schema *jsonschema.Schema `json:"schema,omitempty"`
}

// New returns an empty document with the given info and server URL.
func New(info Info, serverURL string) *Document {
	return &Document{
		OpenAPI: Version,
		Info:    info,
		Servers: []Server{{URL: serverURL}},
		Paths:   orderedmap.New[string, *PathItem](),
		Components: Components{
			Schemas: orderedmap.New[string, *jsonschema.Schema](),
		},
	}
}

// AddSchema registers a component schema under name, overwriting any
// previous entry with the same name.
func (d *Document) AddSchema(name string, schema *jsonschema.Schema) {
	d.Components.Schemas.Set(name, schema)
}

// HasSchema reports whether a component schema with the name exists.
func (d *Document) HasSchema(name string) bool {
	_, ok := d.Components.Schemas.Get(name)
	return ok
}

// AddPath registers a path item, overwriting any previous entry.
func (d *Document) AddPath(path string, item *PathItem) {
	d.Paths.Set(path, item)
}

// Ref returns a schema node referencing the named component schema.
func Ref(name string) *jsonschema.Schema {
	return &jsonschema.Schema{Ref: SchemaPrefix + name}
}

// JSONMedia wraps a schema as application/json content.
func JSONMedia(schema *jsonschema.Schema) map[string]*Media {
	return map[string]*Media{"application/json": {Schema: schema}}
}
