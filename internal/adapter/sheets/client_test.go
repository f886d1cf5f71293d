package sheets

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"agendasync/internal/domain"
	"agendasync/internal/observability"
)

const (
	testSpreadsheetID = "sheet-1"
	testSheetName     = "Agendamentos"
)

func testClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	svc, err := sheetsapi.NewService(context.Background(),
		option.WithoutAuthentication(),
		option.WithEndpoint(baseURL),
	)
	require.NoError(t, err)

	return &Client{
		svc:           svc,
		spreadsheetID: testSpreadsheetID,
		sheetName:     testSheetName,
		metrics:       observability.NewMetricsForTesting(),
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestClient_Append(t *testing.T) {
	var gotPath string
	var gotBody struct {
		Values [][]any `json:"values"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.Equal(t, "USER_ENTERED", r.URL.Query().Get("valueInputOption"))
		assert.Equal(t, "INSERT_ROWS", r.URL.Query().Get("insertDataOption"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	err := c.Append(context.Background(), domain.Row{"Ana", "João", "10/03/2024 11:00:00"})
	require.NoError(t, err)

	assert.Contains(t, gotPath, "spreadsheets/"+testSpreadsheetID+"/values/")
	assert.Contains(t, gotPath, "'"+testSheetName+"'")
	require.Len(t, gotBody.Values, 1)
	assert.Equal(t, []any{"Ana", "João", "10/03/2024 11:00:00"}, gotBody.Values[0])
}

func TestClient_Append_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"message":"no access"}}`))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	err := c.Append(context.Background(), domain.Row{"Ana"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "append row")
}

func TestClient_List(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "'"+testSheetName+"'")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"range": "Agendamentos!A1:C3",
			"values": [
				["vistoriador", "locatario", "dataHoraInicio"],
				["Ana", "João", "10/03/2024 11:00:00"],
				["Beto"]
			]
		}`))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	records, err := c.List(context.Background())
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, domain.StoredRecord{
		"vistoriador":    "Ana",
		"locatario":      "João",
		"dataHoraInicio": "10/03/2024 11:00:00",
	}, records[0])
	// Short rows are padded so every header key is present.
	assert.Equal(t, domain.StoredRecord{
		"vistoriador":    "Beto",
		"locatario":      "",
		"dataHoraInicio": "",
	}, records[1])
}

func TestClient_List_HeaderOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"values": [["vistoriador", "locatario"]]}`))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	records, err := c.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestClient_List_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"message":"not found"}}`))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	_, err := c.List(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read rows")
}

func TestClient_CheckReadiness(t *testing.T) {
	t.Run("reachable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Contains(t, r.URL.Path, "spreadsheets/"+testSpreadsheetID)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"spreadsheetId":"sheet-1"}`))
		}))
		defer srv.Close()

		assert.NoError(t, testClient(t, srv.URL).CheckReadiness(context.Background()))
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		err := testClient(t, srv.URL).CheckReadiness(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unreachable")
	})
}

func TestRangeRef_QuotesSheetName(t *testing.T) {
	c := &Client{sheetName: "Planilha Agendamento Devolus"}
	assert.Equal(t, "'Planilha Agendamento Devolus'", c.rangeRef())

	c = &Client{sheetName: "Ana's"}
	assert.Equal(t, "'Ana''s'", c.rangeRef())
}
