package table

import (
	"bytes"
	"encoding/base64"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// LoadError reports a CSV that could not be parsed into a table.
type LoadError struct {
	Message string
	Cause   error
}

func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("csv load error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("csv load error: %s", e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// LoadCSV reads a CSV with a header row into a Table.
// Short records are padded so every row has a value for every column;
// duplicate header names are disambiguated with a numeric suffix.
func LoadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &LoadError{Message: "empty file"}
	}
	if err != nil {
		return nil, &LoadError{Message: "failed to read header", Cause: err}
	}

	seen := make(map[string]int, len(header))
	columns := make([]string, 0, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		if n := seen[name]; n > 0 {
			seen[name] = n + 1
			name = fmt.Sprintf("%s_%d", name, n+1)
		}
		seen[name]++
		columns = append(columns, name)
	}

	t := New(columns...)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &LoadError{Message: fmt.Sprintf("failed to read row %d", t.Len()+1), Cause: err}
		}
		row := Row{}
		for i, col := range columns {
			if i < len(record) {
				row[col] = record[i]
			} else {
				row[col] = ""
			}
		}
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}

// WriteCSV serializes the full table, columns in order, rows by index.
func (t *Table) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	record := make([]string, len(t.Columns))
	for i, row := range t.Rows {
		for j, col := range t.Columns {
			record[j] = row[col]
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// CSVBytes returns the serialized table.
func (t *Table) CSVBytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := t.WriteCSV(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DownloadLink returns a base64 data URI suitable for a browser download link.
func (t *Table) DownloadLink() (string, error) {
	data, err := t.CSVBytes()
	if err != nil {
		return "", err
	}
	return "data:text/csv;base64," + base64.StdEncoding.EncodeToString(data), nil
}
