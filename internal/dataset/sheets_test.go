package dataset

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"arvaiapulse/internal/shared/testutil"
)

const sheetsResponse = `{
  "range": "Distribuzione!A1:H6",
  "majorDimension": "ROWS",
  "values": [
    ["Data", "Prodotto", "Peso_kg", "Settimana", "Temperatura media", "Temperatura massima", "Temperatura minima", "Precipitazioni"],
    ["07/01/2025", "Cavolo nero", "12,5", "2", "4,0", "8,0", "0,0", "1,2"],
    ["07/01/2025", "Patate", "30,0", "2", "4,0", "8,0", "0,0", "1,2"],
    [],
    ["14/01/2025", "Cavolo nero", "10,0", "3", "6,0", "10,0", "2,0", "0,0"],
    ["14/01/2025", "Porri", "8,5", "3", "6,0", "10,0", "2,0", "0,0"],
    ["21/01/2025", "Patate", "1.020,0", "4", "5,0", "9,0", "1,0", "3,4"]
  ]
}`

func TestSheetsSource_Load(t *testing.T) {
	var gotPath, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sheetsResponse))
	}))
	defer srv.Close()

	src := NewSheetsSource("sheet-123", "Distribuzione", "A:H", "test-key")
	src.Options = []option.ClientOption{option.WithEndpoint(srv.URL + "/")}

	records, info, err := src.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, testutil.SampleRecords(), records)
	assert.Equal(t, KindSheets, info.Source)
	assert.True(t, strings.Contains(gotPath, "sheet-123"))
	assert.Equal(t, "test-key", gotKey)
}

func TestSheetsSource_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"forbidden"}}`, http.StatusForbidden)
	}))
	defer srv.Close()

	src := NewSheetsSource("sheet-123", "", "A:H", "test-key")
	src.Options = []option.ClientOption{option.WithEndpoint(srv.URL + "/")}

	_, _, err := src.Load(context.Background())
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestNewSheetsSource_Range(t *testing.T) {
	assert.Equal(t, "'Distribuzione'!A:H", NewSheetsSource("id", "Distribuzione", "A:H", "").Range)
	assert.Equal(t, "A:H", NewSheetsSource("id", "", "A:H", "").Range)
}
