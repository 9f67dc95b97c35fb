package engine

import (
	"encoding/csv"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/titoih/mi-municipio/internal/models"
)

// WriteCSV writes a filtered view as CSV in header order. Cells are quoted
// where needed, so the output reparses to identical field maps. The
// transient distance annotation is not part of the header and is therefore
// not exported.
func WriteCSV(w io.Writer, headers []string, records []models.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(headers); err != nil {
		return err
	}
	row := make([]string, len(headers))
	for _, r := range records {
		for i, h := range headers {
			row[i] = r[h]
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes a filtered view as a single-sheet workbook using the
// stream writer.
func WriteXLSX(w io.Writer, sheet string, headers []string, records []models.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheet)
	if err != nil {
		return err
	}
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return err
	}

	headerRow := make([]interface{}, len(headers))
	for i, h := range headers {
		headerRow[i] = h
	}
	if err := sw.SetRow("A1", headerRow); err != nil {
		return err
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := make([]interface{}, len(headers))
		for j, h := range headers {
			row[j] = r[h]
		}
		if err := sw.SetRow(cell, row); err != nil {
			return err
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}

	f.SetActiveSheet(index)
	if sheet != "Sheet1" {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return err
		}
	}
	return f.Write(w)
}
