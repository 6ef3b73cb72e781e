package openapi

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/invopop/jsonschema"
)

func testDoc() *Document {
	doc := New(Info{Title: "Test API", Version: "1.0.0"}, "https://scanner.example.com")
	doc.AddSchema("Num", &jsonschema.Schema{Type: "number"})

	props := jsonschema.NewProperties()
	props.Set("data", &jsonschema.Schema{Type: "array", Items: Ref("Num")})
	doc.AddSchema("ScanResponse", &jsonschema.Schema{Type: "object", Properties: props})

	doc.AddPath("/crypto/scan", &PathItem{
		Post: &Operation{
			OperationID: "CryptoScan",
			RequestBody: &RequestBody{Content: JSONMedia(Ref("ScanResponse"))},
			Responses: map[string]*Response{
				"200": {Description: "Successful response", Content: JSONMedia(Ref("ScanResponse"))},
				"400": {Description: "Bad Request"},
			},
		},
	})
	return doc
}

func TestCheckRefs_Clean(t *testing.T) {
	doc := testDoc()
	if errs := doc.CheckRefs(); len(errs) != 0 {
		t.Fatalf("expected no ref errors, got %v", errs)
	}
}

func TestCheckRefs_Dangling(t *testing.T) {
	doc := testDoc()
	doc.AddPath("/crypto/search", &PathItem{
		Post: &Operation{
			OperationID: "CryptoSearch",
			Responses: map[string]*Response{
				"200": {Description: "ok", Content: JSONMedia(Ref("Missing"))},
			},
		},
	})
	errs := doc.CheckRefs()
	if len(errs) != 1 {
		t.Fatalf("expected 1 ref error, got %d: %v", len(errs), errs)
	}
	if !strings.Contains(errs[0].Error(), "Missing") {
		t.Errorf("error should name the dangling ref: %v", errs[0])
	}
}

func TestDocument_MarshalOrder(t *testing.T) {
	doc := New(Info{Title: "T", Version: "0"}, "https://example.com")
	doc.AddSchema("Zeta", &jsonschema.Schema{Type: "string"})
	doc.AddSchema("Alpha", &jsonschema.Schema{Type: "string"})

	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(data)
	if strings.Index(s, "Zeta") > strings.Index(s, "Alpha") {
		t.Errorf("schemas should keep insertion order, got: %s", s)
	}
}

func TestRef(t *testing.T) {
	if got := Ref("CoinFields").Ref; got != "#/components/schemas/CoinFields" {
		t.Errorf("Ref = %q", got)
	}
}
