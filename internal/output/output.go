// Package output serializes assembled documents to YAML or JSON files,
// one file per market.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/usestring/screener-openapi/pkg/openapi"
)

// Formats accepted by Write.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// MarshalJSON renders a document as indented JSON.
func MarshalJSON(doc *openapi.Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

// MarshalYAML renders a document as YAML. The document is marshaled to
// JSON first and re-decoded through a yaml.Node, which keeps the schema
// property order intact (yaml.v3 would otherwise sort map keys and the
// ordered maps only implement JSON marshaling).
func MarshalYAML(doc *openapi.Document) ([]byte, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("re-reading document: %w", err)
	}
	clearStyle(&node)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// clearStyle drops the JSON styling (flow collections, quoted strings)
// carried over from the intermediate form so the encoder emits block YAML.
func clearStyle(n *yaml.Node) {
	n.Style = 0
	for _, child := range n.Content {
		clearStyle(child)
	}
}

// Write serializes the document for a market into dir, returning the
// written path. Existing files are overwritten.
func Write(dir, market, format string, doc *openapi.Document) (string, error) {
	var data []byte
	var err error
	var ext string

	switch format {
	case FormatJSON:
		data, err = MarshalJSON(doc)
		ext = "json"
	case FormatYAML, "":
		data, err = MarshalYAML(doc)
		ext = "yaml"
	default:
		return "", fmt.Errorf("unknown output format %q", format)
	}
	if err != nil {
		return "", fmt.Errorf("serializing spec for %s: %w", market, err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_openapi.%s", market, ext))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}
