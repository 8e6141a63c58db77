package telemetry

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
)

const (
	BatchContentType     = "application/json"
	BatchContentEncoding = "gzip"
)

//SerializeBatch sanitizes items and writes them as a gzip compressed JSON array
func SerializeBatch(items []*Item) ([]byte, error) {
	for _, item := range items {
		Sanitize(item)
	}

	buf := &bytes.Buffer{}
	gz := gzip.NewWriter(buf)
	if err := json.NewEncoder(gz).Encode(items); err != nil {
		gz.Close()
		return nil, fmt.Errorf("Error serializing telemetry batch: %v", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("Error compressing telemetry batch: %v", err)
	}

	return buf.Bytes(), nil
}

//DeserializeBatch is the reverse of SerializeBatch. Payloads are decoded into generic maps
func DeserializeBatch(content []byte) ([]map[string]interface{}, error) {
	gz, err := gzip.NewReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	defer gz.Close()

	var items []map[string]interface{}
	if err := json.NewDecoder(gz).Decode(&items); err != nil {
		return nil, err
	}
	return items, nil
}
