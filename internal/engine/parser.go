package engine

import (
	"strings"

	"github.com/titoih/mi-municipio/internal/models"
)

// The source files are semi-structured: some use commas, some semicolons,
// and at least one mixes line endings. The parser is deliberately lenient:
// it never fails, it produces the best row set it can.
//
// Known limitation, preserved from the upstream data contract: comma and
// semicolon are both treated as delimiters per character, not per file. A
// file using one of them as literal content inside an unquoted field will be
// split at that character.

// ParseRecords parses raw delimited text into records plus the header row.
// The first row supplies field names; every later row is zipped against it
// in order, with cells trimmed and missing trailing cells defaulting to "".
// Rows that are entirely empty after trimming are dropped. Header-only or
// empty input yields no records.
func ParseRecords(raw string) ([]models.Record, []string) {
	rows := parseRows(raw)
	if len(rows) == 0 {
		return nil, nil
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimPrefix(h, "\uFEFF")
	}

	var records []models.Record
	for _, row := range rows[1:] {
		if !rowHasContent(row) {
			continue
		}
		rec := make(models.Record, len(headers))
		for i, h := range headers {
			v := ""
			if i < len(row) {
				v = row[i]
			}
			rec[h] = v
		}
		records = append(records, rec)
	}
	return records, headers
}

// parseRows scans the whole input once, byte by byte. Double-quoted fields
// may contain delimiters, line breaks and doubled quotes (one literal quote).
// An unterminated quote simply runs to end of input.
func parseRows(text string) [][]string {
	var rows [][]string
	var row []string
	var cur strings.Builder
	inQuotes := false

	for i := 0; i < len(text); i++ {
		c := text[i]

		if c == '"' {
			if inQuotes && i+1 < len(text) && text[i+1] == '"' {
				cur.WriteByte('"')
				i++
				continue
			}
			inQuotes = !inQuotes
			continue
		}

		if !inQuotes && (c == ',' || c == ';') {
			row = append(row, strings.TrimSpace(cur.String()))
			cur.Reset()
			continue
		}

		if !inQuotes && (c == '\n' || c == '\r') {
			if cur.Len() > 0 || len(row) > 0 {
				row = append(row, strings.TrimSpace(cur.String()))
				rows = append(rows, row)
			}
			cur.Reset()
			row = nil
			// CRLF counts as one terminator
			if c == '\r' && i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
			continue
		}

		cur.WriteByte(c)
	}

	if cur.Len() > 0 || len(row) > 0 {
		row = append(row, strings.TrimSpace(cur.String()))
		rows = append(rows, row)
	}
	return rows
}

func rowHasContent(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return true
		}
	}
	return false
}
