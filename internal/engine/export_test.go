package engine

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/titoih/mi-municipio/internal/models"
)

var exportHeaders = []string{"nombre", "municipio", "descripcion"}

var exportRecords = []models.Record{
	{"nombre": "Sendero A", "municipio": "La Laguna", "descripcion": "con, coma"},
	{"nombre": "Sendero B", "municipio": "Arona", "descripcion": "línea\npartida"},
}

func TestWriteCSVRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, exportHeaders, exportRecords))

	records, headers := ParseRecords(buf.String())
	assert.Equal(t, exportHeaders, headers)
	assert.Equal(t, exportRecords, records)
}

func TestWriteCSVDropsDistanceAnnotation(t *testing.T) {
	annotated := models.Record{"nombre": "cerca", DistanceKey: "1.2"}
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []string{"nombre"}, []models.Record{annotated}))
	assert.Equal(t, "nombre\ncerca\n", buf.String())
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, "Naturaleza", exportHeaders, exportRecords))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Naturaleza"}, f.GetSheetList())

	v, err := f.GetCellValue("Naturaleza", "A1")
	require.NoError(t, err)
	assert.Equal(t, "nombre", v)

	v, err = f.GetCellValue("Naturaleza", "B3")
	require.NoError(t, err)
	assert.Equal(t, "Arona", v)
}
