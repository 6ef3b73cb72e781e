package collect

import (
	"github.com/usestring/screener-openapi/internal/assemble"
)

// skipFlags marks metainfo fields excluded from generated specs.
var skipFlags = map[string]bool{
	"deprecated": true,
	"private":    true,
}

// BuildMarketSpec converts market data into the assembler's input. Fields
// keep metainfo order; columns present only in the scan sample (recorded
// dumps can carry more columns than metainfo documents) are appended with
// inferred types and marked undocumented.
func BuildMarketSpec(data *MarketData) (assemble.MarketSpec, error) {
	if err := data.validate(); err != nil {
		return assemble.MarketSpec{}, err
	}

	samples := make(map[string]any, len(data.Columns))
	for i, col := range data.Columns {
		if i < len(data.Row) {
			samples[col] = data.Row[i]
		}
	}

	spec := assemble.MarketSpec{Market: data.Market}
	known := make(map[string]bool, len(data.Metainfo.Fields))
	for _, f := range data.Metainfo.Fields {
		if f.Name == "" {
			continue
		}
		known[f.Name] = true
		if skipField(f.Flags) {
			continue
		}

		fd := assemble.NewFieldDescriptor(f.Name, f.Type, samples[f.Name])
		fd.Description = f.Description
		fd.EnumValues = stringValues(f.Values)
		spec.Fields = append(spec.Fields, fd)
	}

	for i, col := range data.Columns {
		if col == "" || known[col] {
			continue
		}
		var sample any
		if i < len(data.Row) {
			sample = data.Row[i]
		}
		fd := assemble.NewFieldDescriptor(col, "", sample)
		fd.Undocumented = true
		spec.Fields = append(spec.Fields, fd)
	}

	return spec, nil
}

func skipField(flags []string) bool {
	for _, f := range flags {
		if skipFlags[f] {
			return true
		}
	}
	return false
}

// stringValues keeps only plain string enum values. Upstream sometimes
// ships id/name objects in "r"; those are not valid enum members.
func stringValues(values []any) []string {
	var out []string
	for _, v := range values {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
