package client

import "encoding/json"

// MetaField is one field definition from a metainfo response.
type MetaField struct {
	Name        string   `json:"n"`
	Type        string   `json:"t"`
	Values      []any    `json:"r,omitempty"`
	Flags       []string `json:"flags,omitempty"`
	Description string   `json:"d,omitempty"`
}

// MetainfoResponse holds the field definitions for one market.
//
// The upstream payload is not stable across markets: the fields array may
// sit at the top level or be nested under "body" or "data". UnmarshalJSON
// flattens all three shapes.
type MetainfoResponse struct {
	Fields []MetaField `json:"fields"`
}

func (m *MetainfoResponse) UnmarshalJSON(data []byte) error {
	var env metainfoEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	m.Fields = env.flatten()
	return nil
}

type metainfoEnvelope struct {
	Fields []MetaField       `json:"fields"`
	Body   *metainfoEnvelope `json:"body,omitempty"`
	Data   *metainfoEnvelope `json:"data,omitempty"`
}

func (e *metainfoEnvelope) flatten() []MetaField {
	if e == nil {
		return nil
	}
	if len(e.Fields) > 0 {
		return e.Fields
	}
	if f := e.Body.flatten(); len(f) > 0 {
		return f
	}
	return e.Data.flatten()
}

// ScanRow is one instrument row from a scan response: the symbol plus its
// values in column order.
type ScanRow struct {
	Symbol string `json:"s"`
	Data   []any  `json:"d"`
}

// ScanResponse is the result of a scan request.
type ScanResponse struct {
	TotalCount int       `json:"totalCount"`
	Data       []ScanRow `json:"data"`
}

// SymbolQuery narrows a scan to specific instrument types.
type SymbolQuery struct {
	Types []string `json:"types"`
}

// Symbols selects the instruments for a scan.
type Symbols struct {
	Tickers []string    `json:"tickers"`
	Query   SymbolQuery `json:"query"`
}

// ScanRequest is the payload for POST /{market}/scan.
type ScanRequest struct {
	Symbols Symbols  `json:"symbols"`
	Columns []string `json:"columns"`
	Filter  any      `json:"filter,omitempty"`
	Filter2 any      `json:"filter2,omitempty"`
	Sort    any      `json:"sort,omitempty"`
	Range   []int    `json:"range,omitempty"`
}

// NewScanRequest builds a scan payload for the given columns covering the
// whole market (no ticker restriction), limited to count rows.
func NewScanRequest(columns []string, count int) *ScanRequest {
	return &ScanRequest{
		Symbols: Symbols{Tickers: []string{}, Query: SymbolQuery{Types: []string{}}},
		Columns: columns,
		Range:   []int{0, count},
	}
}
