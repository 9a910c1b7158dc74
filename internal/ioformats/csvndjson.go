package ioformats

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type Format int

const (
	FormatAuto Format = iota
	FormatCSV
	FormatNDJSON
)

var (
	ErrNoURLColumn = errors.New("csv must contain a 'url' header column")
	ErrNoURLs      = errors.New("no urls found")
)

// FormatFor picks a format from a file name's extension.
func FormatFor(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return FormatCSV
	case ".ndjson", ".jsonl":
		return FormatNDJSON
	default:
		return FormatAuto
	}
}

// ReadURLs reads URLs from a CSV (expects header with "url") or NDJSON file.
func ReadURLs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f, FormatFor(path))
}

// Decode reads a URL list from r. FormatAuto tries CSV first then NDJSON.
func Decode(r io.Reader, format Format) ([]string, error) {
	switch format {
	case FormatCSV:
		return decodeCSV(r)
	case FormatNDJSON:
		return decodeNDJSON(r)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if urls, err := decodeCSV(bytes.NewReader(data)); err == nil && len(urls) > 0 {
		return urls, nil
	}
	return decodeNDJSON(bytes.NewReader(data))
}

func decodeCSV(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.New("empty csv")
	}
	col := -1
	for i, h := range rows[0] {
		if strings.EqualFold(strings.TrimSpace(h), "url") {
			col = i
			break
		}
	}
	if col == -1 {
		return nil, ErrNoURLColumn
	}
	var out []string
	for _, row := range rows[1:] {
		if col < len(row) {
			if u := strings.TrimSpace(row[col]); u != "" {
				out = append(out, u)
			}
		}
	}
	return out, nil
}

func decodeNDJSON(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		// allow raw string or {"url": "..."}
		if strings.HasPrefix(line, "{") {
			var obj struct {
				URL string `json:"url"`
			}
			if err := json.Unmarshal([]byte(line), &obj); err == nil && obj.URL != "" {
				out = append(out, obj.URL)
				continue
			}
		}
		out = append(out, strings.Trim(line, `"`))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNoURLs
	}
	return out, nil
}

// WriteNDJSON writes each item as one JSON line.
func WriteNDJSON[T any](w io.Writer, items []T) error {
	enc := json.NewEncoder(w)
	for _, it := range items {
		if err := enc.Encode(it); err != nil {
			return err
		}
	}
	return nil
}
