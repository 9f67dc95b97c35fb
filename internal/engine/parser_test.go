package engine

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/titoih/mi-municipio/internal/models"
)

func TestParseRecordsBasic(t *testing.T) {
	recs, headers := ParseRecords("nombre,municipio\nSendero A,La Laguna\nSendero B,Arona\n")

	require.Equal(t, []string{"nombre", "municipio"}, headers)
	require.Len(t, recs, 2)
	assert.Equal(t, models.Record{"nombre": "Sendero A", "municipio": "La Laguna"}, recs[0])
	assert.Equal(t, models.Record{"nombre": "Sendero B", "municipio": "Arona"}, recs[1])
}

func TestParseRecordsQuoting(t *testing.T) {
	raw := `nombre,notas
"Sendero, largo","Dice ""cuidado"" en el cartel"
"Multi
línea",ok`

	recs, _ := ParseRecords(raw)
	require.Len(t, recs, 2)
	assert.Equal(t, "Sendero, largo", recs[0]["nombre"])
	assert.Equal(t, `Dice "cuidado" en el cartel`, recs[0]["notas"])
	assert.Equal(t, "Multi\nlínea", recs[1]["nombre"])
}

func TestParseRecordsDelimiterLeniency(t *testing.T) {
	// semicolons and commas both split, even mixed inside one file
	recs, headers := ParseRecords("a;b,c\n1;2,3\n")
	require.Equal(t, []string{"a", "b", "c"}, headers)
	require.Len(t, recs, 1)
	assert.Equal(t, models.Record{"a": "1", "b": "2", "c": "3"}, recs[0])
}

func TestParseRecordsLineEndings(t *testing.T) {
	for name, raw := range map[string]string{
		"LF":   "a,b\n1,2\n3,4\n",
		"CRLF": "a,b\r\n1,2\r\n3,4\r\n",
		"CR":   "a,b\r1,2\r3,4\r",
	} {
		t.Run(name, func(t *testing.T) {
			recs, _ := ParseRecords(raw)
			require.Len(t, recs, 2)
			assert.Equal(t, "3", recs[1]["a"])
		})
	}
}

func TestParseRecordsBOM(t *testing.T) {
	recs, headers := ParseRecords("\uFEFFnombre,zona\nX,Y\n")
	require.Equal(t, []string{"nombre", "zona"}, headers)
	assert.Equal(t, "X", recs[0]["nombre"])
}

func TestParseRecordsEdgeCases(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		recs, headers := ParseRecords("")
		assert.Empty(t, recs)
		assert.Empty(t, headers)
	})

	t.Run("header only", func(t *testing.T) {
		recs, headers := ParseRecords("a,b\n")
		assert.Empty(t, recs)
		assert.Equal(t, []string{"a", "b"}, headers)
	})

	t.Run("blank lines skipped", func(t *testing.T) {
		recs, _ := ParseRecords("a,b\n\n\n1,2\n\n")
		require.Len(t, recs, 1)
	})

	t.Run("empty rows dropped", func(t *testing.T) {
		recs, _ := ParseRecords("a,b\n,\n1,2\n")
		require.Len(t, recs, 1)
		assert.Equal(t, "1", recs[0]["a"])
	})

	t.Run("missing trailing cell defaults empty", func(t *testing.T) {
		recs, _ := ParseRecords("a,b,c\n1,2\n")
		require.Len(t, recs, 1)
		assert.Equal(t, "", recs[0]["c"])
	})

	t.Run("cells trimmed", func(t *testing.T) {
		recs, _ := ParseRecords("a,b\n  1  ,  2  \n")
		assert.Equal(t, "1", recs[0]["a"])
		assert.Equal(t, "2", recs[0]["b"])
	})

	t.Run("unterminated quote runs to end of input", func(t *testing.T) {
		recs, _ := ParseRecords("a,b\n\"sin cerrar,2\n3,4\n")
		require.Len(t, recs, 1)
		assert.Equal(t, "sin cerrar,2\n3,4", recs[0]["a"])
	})
}

// Reparsing a quoted-where-needed serialization of the parsed records must
// yield identical field maps.
func TestParseRecordsRoundTrip(t *testing.T) {
	raw := "nombre,descripcion;municipio\n" +
		"\"Roque, el alto\",\"Mirador \"\"isla baja\"\"\",Garachico\n" +
		"Sendero B,llano,Arona\n"

	recs, headers := ParseRecords(raw)
	require.Len(t, recs, 2)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, headers, recs))

	again, headersAgain := ParseRecords(buf.String())
	assert.Equal(t, headers, headersAgain)
	assert.Equal(t, recs, again)
}
