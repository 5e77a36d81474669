package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientAttachesBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(Health{Status: "ok"})
	}))
	defer srv.Close()

	client := New(srv.URL)

	// Unbound client sends no Authorization header
	_, err := client.Health(context.Background())
	require.NoError(t, err)
	assert.Empty(t, gotAuth)

	// Bound copy sends the token; the original stays unbound
	_, err = client.Bound("tok-123").Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", gotAuth)

	_, err = client.Health(context.Background())
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestClientDecodesErrorDetail(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantDetail string
	}{
		{
			name:       "detail body surfaces verbatim",
			status:     http.StatusConflict,
			body:       `{"detail": "Dataset is locked"}`,
			wantDetail: "Dataset is locked",
		},
		{
			name:       "non-json body falls back to raw text",
			status:     http.StatusBadGateway,
			body:       "upstream exploded",
			wantDetail: "upstream exploded",
		},
		{
			name:       "empty body falls back to status text",
			status:     http.StatusServiceUnavailable,
			body:       "",
			wantDetail: "Service Unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := New(srv.URL).Overview(context.Background())
			require.Error(t, err)

			apiErr, ok := AsError(err)
			require.True(t, ok, "error should be a backend *Error")
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.wantDetail, apiErr.Detail)
		})
	}
}

func TestClientErrorPredicates(t *testing.T) {
	assert.True(t, IsUnauthorized(&Error{Status: http.StatusUnauthorized, Detail: "Not authenticated"}))
	assert.False(t, IsUnauthorized(&Error{Status: http.StatusForbidden, Detail: "Forbidden"}))
	assert.True(t, IsNotFound(&Error{Status: http.StatusNotFound, Detail: "Not found"}))
	assert.False(t, IsUnauthorized(io.ErrUnexpectedEOF))
}

func TestClientDecodesPaginationEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/datasets", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "10", r.URL.Query().Get("size"))
		assert.Equal(t, "orders", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(`{
			"items": [{"id": "d1", "name": "orders", "row_count": 120}],
			"total": 31, "page": 2, "size": 10, "pages": 4
		}`))
	}))
	defer srv.Close()

	page, err := New(srv.URL).Datasets(context.Background(), DatasetListOptions{Page: 2, Size: 10, Query: "orders"})
	require.NoError(t, err)

	assert.Equal(t, 31, page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 10, page.Size)
	assert.Equal(t, 4, page.Pages)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "orders", page.Items[0].Name)
	assert.Equal(t, 120, page.Items[0].RowCount)
}

func TestCreateExecutionPayloadShape(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"id": "e1", "status": "queued"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).CreateExecution(context.Background(), CreateExecutionRequest{
		DatasetID: "d1",
		RuleIDs:   []string{"r1", "r2"},
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"dataset_id": "d1",
		"rule_ids":   []any{"r1", "r2"},
	}, gotBody)
}

func TestUploadDatasetSendsMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Customer orders", r.FormValue("name"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer func() { _ = file.Close() }()

		contents, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, "orders.csv", header.Filename)
		assert.Equal(t, "id,amount\n1,9.99\n", string(contents))

		_ = json.NewEncoder(w).Encode(Dataset{ID: "d1", Name: "Customer orders"})
	}))
	defer srv.Close()

	ds, err := New(srv.URL).UploadDataset(context.Background(),
		"Customer orders", "orders.csv", strings.NewReader("id,amount\n1,9.99\n"))
	require.NoError(t, err)
	assert.Equal(t, "d1", ds.ID)
}

func TestDownloadExportStreamsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reports/exports/x1/download", r.URL.Path)
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="issues.csv"`)
		_, _ = w.Write([]byte("rule,severity\nno_nulls,high\n"))
	}))
	defer srv.Close()

	dl, err := New(srv.URL).DownloadExport(context.Background(), "x1")
	require.NoError(t, err)
	defer func() { _ = dl.Body.Close() }()

	body, err := io.ReadAll(dl.Body)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", dl.ContentType)
	assert.Equal(t, "issues.csv", dl.Filename)
	assert.Equal(t, "rule,severity\nno_nulls,high\n", string(body))
}

func TestClientWrapsTransportErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	_, err := New(srv.URL).Overview(context.Background())
	require.Error(t, err)

	_, ok := AsError(err)
	assert.False(t, ok, "transport failures should not be backend errors")
	assert.Contains(t, err.Error(), "request GET /advanced/overview failed")
}

func TestExecutionTerminal(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{ExecutionQueued, false},
		{ExecutionRunning, false},
		{ExecutionSucceeded, true},
		{ExecutionFailed, true},
		{ExecutionPartiallySucceeded, true},
		{ExecutionCancelled, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExecutionTerminal(tt.status), "status %q", tt.status)
	}
}
