package openapi

import (
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
)

// CheckRefs verifies that every $ref in the document resolves to a key in
// components.schemas. Returns one error per dangling ref, nil when clean.
func (d *Document) CheckRefs() []error {
	var errs []error
	seen := make(map[*jsonschema.Schema]bool)

	check := func(where string, s *jsonschema.Schema) {
		walkSchema(s, seen, func(ref string) {
			name, ok := strings.CutPrefix(ref, SchemaPrefix)
			if !ok {
				errs = append(errs, fmt.Errorf("%s: external ref %q", where, ref))
				return
			}
			if !d.HasSchema(name) {
				errs = append(errs, fmt.Errorf("%s: unresolved ref %q", where, ref))
			}
		})
	}

	for pair := d.Paths.Oldest(); pair != nil; pair = pair.Next() {
		for _, op := range []*Operation{pair.Value.Get, pair.Value.Post} {
			if op == nil {
				continue
			}
			if op.RequestBody != nil {
				for _, media := range op.RequestBody.Content {
					check(pair.Key, media.Schema)
				}
			}
			for status, resp := range op.Responses {
				for _, media := range resp.Content {
					check(pair.Key+" "+status, media.Schema)
				}
			}
		}
	}

	for pair := d.Components.Schemas.Oldest(); pair != nil; pair = pair.Next() {
		check("schema "+pair.Key, pair.Value)
	}

	return errs
}

// walkSchema visits every $ref reachable from s. The seen set guards
// against cycles through shared nodes.
func walkSchema(s *jsonschema.Schema, seen map[*jsonschema.Schema]bool, visit func(ref string)) {
	if s == nil || seen[s] {
		return
	}
	seen[s] = true

	if s.Ref != "" {
		visit(s.Ref)
	}
	walkSchema(s.Items, seen, visit)
	walkSchema(s.AdditionalProperties, seen, visit)
	walkSchema(s.Not, seen, visit)
	for _, sub := range s.AllOf {
		walkSchema(sub, seen, visit)
	}
	for _, sub := range s.AnyOf {
		walkSchema(sub, seen, visit)
	}
	for _, sub := range s.OneOf {
		walkSchema(sub, seen, visit)
	}
	if s.Properties != nil {
		for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
			walkSchema(pair.Value, seen, visit)
		}
	}
}
