package asset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

func EncodeRecords(records []Record) ([]byte, error) {
	if records == nil {
		records = []Record{}
	}
	buf := bytes.NewBuffer(nil)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	err := enc.Encode(records)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func WriteRecords(path string, records []Record) error {
	encoded, err := EncodeRecords(records)
	if err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	err = os.MkdirAll(filepath.Dir(path), 0777)
	if err != nil {
		return err
	}
	return os.WriteFile(path, encoded, 0644)
}

// ReadRecords reads a record set, the returned error satisfies
// os.IsNotExist when the file is missing.
func ReadRecords(path string) ([]Record, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []Record
	err = json.Unmarshal(contents, &records)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return records, nil
}
