package collect

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// SaveDump writes market data to <dir>/<market>.json so generation can run
// offline against recorded data.
func SaveDump(dir string, data *MarketData) (string, error) {
	if err := data.validate(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return "", fmt.Errorf("encoding dump for %s: %w", data.Market, err)
	}

	path := filepath.Join(dir, data.Market+".json")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", err
	}
	return path, nil
}

// LoadDump reads a market dump written by SaveDump. Numbers decode as
// json.Number so sample literals keep their form for type inference.
func LoadDump(dir, market string) (*MarketData, error) {
	path := filepath.Join(dir, market+".json")
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var data MarketData
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("decoding dump %s: %w", path, err)
	}
	if err := data.validate(); err != nil {
		return nil, err
	}
	return &data, nil
}
