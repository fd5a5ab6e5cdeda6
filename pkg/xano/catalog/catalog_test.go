package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashicorp-forge/xano-meta/pkg/xano/dispatch"
)

// recordedRequest is one request seen by the fake API.
type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   []byte
}

// fakeAPI records every request before handing it to handler.
type fakeAPI struct {
	mu       sync.Mutex
	requests []recordedRequest
}

func (f *fakeAPI) Requests() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]recordedRequest, len(f.requests))
	copy(out, f.requests)
	return out
}

func (f *fakeAPI) Last(t *testing.T) recordedRequest {
	t.Helper()
	reqs := f.Requests()
	require.NotEmpty(t, reqs, "no request reached the API")
	return reqs[len(reqs)-1]
}

type testEnv struct {
	catalog *Catalog
	api     *fakeAPI
	fs      afero.Fs
}

func newTestEnv(t *testing.T, handler http.HandlerFunc, opts ...func(*Options)) *testEnv {
	t.Helper()

	api := &fakeAPI{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		api.mu.Lock()
		api.requests = append(api.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Header: r.Header.Clone(),
			Body:   body,
		})
		api.mu.Unlock()

		r.Body = io.NopCloser(bytes.NewReader(body))
		if handler == nil {
			w.Write([]byte(`{}`))
			return
		}
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	fs := afero.NewMemMapFs()
	d, err := dispatch.New(&dispatch.Config{
		Token:   "test-token",
		BaseURL: server.URL + "/api:meta",
		FS:      fs,
		Logger:  hclog.NewNullLogger(),
	})
	require.NoError(t, err)

	o := Options{
		GlobalAPI: server.URL + "/global",
		Logger:    hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &testEnv{catalog: New(d, o), api: api, fs: fs}
}

func tableArgs(extra map[string]any) map[string]any {
	args := map[string]any{
		"instance_name": "xnwv-v1z6-dvnr",
		"workspace_id":  1,
		"table_id":      2,
	}
	for k, v := range extra {
		args[k] = v
	}
	return args
}

func workspaceArgs(extra map[string]any) map[string]any {
	args := map[string]any{
		"instance_name": "xnwv-v1z6-dvnr",
		"workspace_id":  1,
	}
	for k, v := range extra {
		args[k] = v
	}
	return args
}

func TestCatalog_Registry(t *testing.T) {
	env := newTestEnv(t, nil)
	c := env.catalog

	names := c.Names()
	assert.Len(t, names, 47)
	assert.Len(t, c.Operations(), len(names))
	for _, name := range names {
		assert.True(t, strings.HasPrefix(name, NamePrefix), name)
		op, ok := c.Lookup(name)
		require.True(t, ok, name)
		assert.NotEmpty(t, op.Synopsis, name)
		assert.NotEmpty(t, op.Family, name)
	}

	for _, alias := range []string{"xano_list_tables", "list_tables", "list-tables", "ListTables"} {
		op, ok := c.Lookup(alias)
		require.True(t, ok, alias)
		assert.Equal(t, "xano_list_tables", op.Name)
	}

	assert.Equal(t, "add-field-to-schema", CommandName("xano_add_field_to_schema"))
}

func TestOperation_Params(t *testing.T) {
	env := newTestEnv(t, nil)
	op, ok := env.catalog.Lookup("xano_add_field_to_schema")
	require.True(t, ok)

	params := map[string]Param{}
	for _, p := range op.Params() {
		params[p.Name] = p
	}

	require.Contains(t, params, "instance_name")
	require.Contains(t, params, "table_id")
	assert.Equal(t, "public", params["access"].Default)
	assert.Equal(t, "single", params["style"].Default)
	assert.Nil(t, params["nullable"].Default)
	assert.Equal(t, "boolean", params["nullable"].Type)
	assert.NotEmpty(t, params["field_type"].Description)
}

func TestCatalog_Invoke_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		operation string
		args      map[string]any
		wantMsg   string
	}{
		{
			name:      "unknown operation",
			operation: "xano_drop_everything",
			wantMsg:   "unknown operation",
		},
		{
			name:      "missing instance",
			operation: "xano_list_tables",
			args:      map[string]any{"workspace_id": 1},
			wantMsg:   "instance_name",
		},
		{
			name:      "quoted empty id",
			operation: "xano_get_table_details",
			args:      tableArgs(map[string]any{"table_id": `""`}),
			wantMsg:   "table_id",
		},
		{
			name:      "unknown argument",
			operation: "xano_get_table_details",
			args:      tableArgs(map[string]any{"tabel_id": 3}),
			wantMsg:   "tabel_id",
		},
		{
			name:      "bad sort direction",
			operation: "xano_search_table_content",
			args:      tableArgs(map[string]any{"sort": map[string]any{"created_at": "sideways"}}),
			wantMsg:   "sort",
		},
		{
			name:      "update with nothing to change",
			operation: "xano_update_table",
			args:      tableArgs(nil),
			wantMsg:   "at least one of",
		},
		{
			name:      "unknown index kind",
			operation: "xano_create_index",
			args:      tableArgs(map[string]any{"type": "hash", "fields": []any{map[string]any{"name": "email"}}}),
			wantMsg:   "type",
		},
		{
			name:      "index without fields",
			operation: "xano_create_btree_index",
			args:      tableArgs(nil),
			wantMsg:   "at least one field",
		},
		{
			name:      "bad field access",
			operation: "xano_add_field_to_schema",
			args:      tableArgs(map[string]any{"field_name": "a", "field_type": "text", "access": "secret"}),
			wantMsg:   "access",
		},
		{
			name:      "empty field access",
			operation: "xano_add_field_to_schema",
			args:      tableArgs(map[string]any{"field_name": "a", "field_type": "text", "access": ""}),
			wantMsg:   "access",
		},
		{
			name:      "empty field style",
			operation: "xano_add_field_to_schema",
			args:      tableArgs(map[string]any{"field_name": "a", "field_type": "text", "style": ""}),
			wantMsg:   "style",
		},
		{
			name:      "search delete without conditions",
			operation: "xano_search_and_delete_records",
			args:      tableArgs(map[string]any{"search_conditions": []any{}}),
			wantMsg:   "search_conditions: cannot be blank",
		},
		{
			name:      "search update without conditions",
			operation: "xano_search_and_update_records",
			args:      tableArgs(map[string]any{"search_conditions": []any{}, "updates": map[string]any{"status": "x"}}),
			wantMsg:   "search_conditions",
		},
		{
			name:      "zero page",
			operation: "xano_browse_table_content",
			args:      tableArgs(map[string]any{"page": 0}),
			wantMsg:   "page: must be no less than 1",
		},
		{
			name:      "zero per_page",
			operation: "xano_browse_table_content",
			args:      tableArgs(map[string]any{"per_page": 0}),
			wantMsg:   "per_page: must be no less than 1",
		},
		{
			name:      "zero search page",
			operation: "xano_search_table_content",
			args:      tableArgs(map[string]any{"page": 0}),
			wantMsg:   "page",
		},
		{
			name:      "negative file page",
			operation: "xano_list_files",
			args:      workspaceArgs(map[string]any{"per_page": -5}),
			wantMsg:   "per_page",
		},
		{
			name:      "zero history page",
			operation: "xano_browse_request_history",
			args:      workspaceArgs(map[string]any{"page": 0}),
			wantMsg:   "page",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			result := env.catalog.Invoke(context.Background(), tt.operation, tt.args)

			require.False(t, result.OK())
			assert.Equal(t, dispatch.FailureInvalid, result.Failure.Kind)
			assert.Contains(t, result.Failure.Message, tt.wantMsg)
			assert.Empty(t, env.api.Requests(), "invalid calls must not reach the API")
		})
	}
}

func TestCatalog_ListTables_UnwrapsItems(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{name: "paginated", response: `{"items":[{"id":1,"name":"users"}],"curPage":1}`},
		{name: "plain list", response: `[{"id":1,"name":"users"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.response))
			})

			result := env.catalog.Invoke(context.Background(), "xano_list_tables", map[string]any{
				"instance_name": "inst",
				"database_name": `"5"`,
			})
			require.True(t, result.OK(), "unexpected failure: %v", result.Err())

			req := env.api.Last(t)
			assert.Equal(t, http.MethodGet, req.Method)
			assert.Equal(t, "/api:meta/workspace/5/table", req.Path)
			assert.JSONEq(t, `{"tables":[{"id":1,"name":"users"}]}`, string(result.Data))
		})
	}
}

func TestCatalog_GetTableSchema_Wraps(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"name":"id","type":"int"}]`))
	})

	result := env.catalog.Invoke(context.Background(), "xano_get_table_schema", tableArgs(nil))
	require.True(t, result.OK())
	assert.JSONEq(t, `{"schema":[{"name":"id","type":"int"}]}`, string(result.Data))

	req := env.api.Last(t)
	assert.Equal(t, "/api:meta/workspace/1/table/2/schema", req.Path)
	assert.Empty(t, req.Header.Get("X-Data-Source"))
	assert.Empty(t, req.Header.Get("Content-Type"))
}

// schemaStore is a fake table API that keeps one table's schema in memory.
type schemaStore struct {
	mu     sync.Mutex
	schema json.RawMessage
}

func (s *schemaStore) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api:meta/workspace/1/table":
			s.schema = json.RawMessage(`[{"name":"id","type":"int"},{"name":"created_at","type":"timestamp"}]`)
			w.Write([]byte(`{"id":7,"name":"orders"}`))
		case r.Method == http.MethodGet && r.URL.Path == "/api:meta/workspace/1/table/7/schema":
			w.Write(s.schema)
		case r.Method == http.MethodPut && r.URL.Path == "/api:meta/workspace/1/table/7/schema":
			var body struct {
				Schema json.RawMessage `json:"schema"`
			}
			if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&body)) {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			s.schema = body.Schema
			w.Write(s.schema)
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message":"not found"}`))
		}
	}
}

func (s *schemaStore) fields(t *testing.T) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []map[string]any
	require.NoError(t, json.Unmarshal(s.schema, &out))
	return out
}

func TestCatalog_CreateTableThenAddField(t *testing.T) {
	store := &schemaStore{}
	env := newTestEnv(t, store.handler(t))
	ctx := context.Background()

	created := env.catalog.Invoke(ctx, "xano_create_table", workspaceArgs(map[string]any{
		"name":        "orders",
		"description": "Customer orders",
	}))
	require.True(t, created.OK(), "create failed: %v", created.Err())
	assert.JSONEq(t, `{"name":"orders","description":"Customer orders","docs":"","auth":false}`,
		string(env.api.Last(t).Body))

	var table struct {
		ID int `json:"id"`
	}
	require.NoError(t, created.Decode(&table))

	before := store.fields(t)

	added := env.catalog.Invoke(ctx, "xano_add_field_to_schema", workspaceArgs(map[string]any{
		"table_id":    table.ID,
		"field_name":  "status",
		"field_type":  "text",
		"description": "Order status",
		"default":     "pending",
		"validators":  map[string]any{"max_length": 32},
	}))
	require.True(t, added.OK(), "add field failed: %v", added.Err())

	after := store.fields(t)
	require.Len(t, after, len(before)+1)
	assert.Equal(t, before, after[:len(before)])
	assert.Equal(t, map[string]any{
		"name":        "status",
		"type":        "text",
		"description": "Order status",
		"nullable":    false,
		"required":    false,
		"access":      "public",
		"sensitive":   false,
		"style":       "single",
		"default":     "pending",
		"validators":  map[string]any{"max_length": float64(32)},
	}, after[len(after)-1])

	reqs := env.api.Requests()
	require.Len(t, reqs, 3)
	assert.Equal(t, http.MethodGet, reqs[1].Method)
	assert.Equal(t, http.MethodPut, reqs[2].Method)
	assert.Equal(t, "application/json", reqs[2].Header.Get("Content-Type"))
}

func TestCatalog_AddField_ValidatorsOnlyForText(t *testing.T) {
	store := &schemaStore{schema: json.RawMessage(`[]`)}
	env := newTestEnv(t, store.handler(t))

	result := env.catalog.Invoke(context.Background(), "xano_add_field_to_schema", workspaceArgs(map[string]any{
		"table_id":   7,
		"field_name": "total",
		"field_type": "decimal",
		"validators": map[string]any{"max_length": 32},
	}))
	require.True(t, result.OK(), "add field failed: %v", result.Err())

	fields := store.fields(t)
	require.Len(t, fields, 1)
	assert.NotContains(t, fields[0], "validators")
	assert.NotContains(t, fields[0], "default")
}

func TestCatalog_AddField_ReadFailureStops(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"no such table"}`))
	})

	result := env.catalog.Invoke(context.Background(), "xano_add_field_to_schema", tableArgs(map[string]any{
		"field_name": "status",
		"field_type": "text",
	}))
	require.False(t, result.OK())
	assert.Equal(t, dispatch.FailureRejected, result.Failure.Kind)
	assert.Equal(t, http.StatusNotFound, result.Failure.StatusCode)
	assert.Len(t, env.api.Requests(), 1, "no write after a failed read")
}

func TestCatalog_UpdateTable_Partial(t *testing.T) {
	env := newTestEnv(t, nil)

	result := env.catalog.Invoke(context.Background(), "xano_update_table", tableArgs(map[string]any{
		"name": "renamed",
		"auth": "true",
	}))
	require.True(t, result.OK())

	req := env.api.Last(t)
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/api:meta/workspace/1/table/2/meta", req.Path)
	assert.JSONEq(t, `{"name":"renamed","auth":true}`, string(req.Body))
}

func TestCatalog_SearchTableContent_Body(t *testing.T) {
	env := newTestEnv(t, nil)

	result := env.catalog.Invoke(context.Background(), "xano_search_table_content", tableArgs(map[string]any{
		"search_conditions": []any{
			map[string]any{"field": "status", "op": "eq", "value": "active"},
		},
	}))
	require.True(t, result.OK())

	req := env.api.Last(t)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/api:meta/workspace/1/table/2/content/search", req.Path)
	assert.Equal(t, "live", req.Header.Get("X-Data-Source"))
	assert.Equal(t, `{"page":1,"per_page":50,"search":[{"field":"status","op":"eq","value":"active"}]}`, string(req.Body))
}

func TestCatalog_BrowseTableContent_Query(t *testing.T) {
	env := newTestEnv(t, nil)

	result := env.catalog.Invoke(context.Background(), "xano_browse_table_content", tableArgs(map[string]any{
		"page": "3",
	}))
	require.True(t, result.OK())

	req := env.api.Last(t)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/api:meta/workspace/1/table/2/content", req.Path)
	assert.Equal(t, "page=3&per_page=50", req.Query)
	assert.Equal(t, "live", req.Header.Get("X-Data-Source"))
	assert.Empty(t, req.Body)
}

func TestCatalog_ContentOperations(t *testing.T) {
	tests := []struct {
		operation string
		args      map[string]any
		method    string
		path      string
		body      string
	}{
		{
			operation: "xano_get_table_record",
			args:      tableArgs(map[string]any{"record_id": 9}),
			method:    http.MethodGet,
			path:      "/api:meta/workspace/1/table/2/content/9",
		},
		{
			operation: "xano_create_table_record",
			args:      tableArgs(map[string]any{"record_data": map[string]any{"status": "new"}}),
			method:    http.MethodPost,
			path:      "/api:meta/workspace/1/table/2/content",
			body:      `{"status":"new"}`,
		},
		{
			operation: "xano_update_table_record",
			args:      tableArgs(map[string]any{"record_id": `"9"`, "record_data": map[string]any{"status": "done"}}),
			method:    http.MethodPut,
			path:      "/api:meta/workspace/1/table/2/content/9",
			body:      `{"status":"done"}`,
		},
		{
			operation: "xano_delete_table_record",
			args:      tableArgs(map[string]any{"record_id": 9}),
			method:    http.MethodDelete,
			path:      "/api:meta/workspace/1/table/2/content/9",
		},
		{
			operation: "xano_search_and_update_records",
			args: tableArgs(map[string]any{
				"search_conditions": []any{map[string]any{"field": "status", "op": "eq", "value": "new"}},
				"updates":           map[string]any{"status": "seen"},
			}),
			method: http.MethodPost,
			path:   "/api:meta/workspace/1/table/2/content/search/patch",
			body:   `{"search":[{"field":"status","op":"eq","value":"new"}],"updates":{"status":"seen"}}`,
		},
		{
			operation: "xano_search_and_delete_records",
			args: tableArgs(map[string]any{
				"search_conditions": []any{map[string]any{"field": "status", "op": "eq", "value": "old"}},
			}),
			method: http.MethodPost,
			path:   "/api:meta/workspace/1/table/2/content/search/delete",
			body:   `{"search":[{"field":"status","op":"eq","value":"old"}]}`,
		},
		{
			operation: "xano_bulk_create_records",
			args:      tableArgs(map[string]any{"records": []any{map[string]any{"status": "a"}}}),
			method:    http.MethodPost,
			path:      "/api:meta/workspace/1/table/2/content/bulk",
			body:      `{"items":[{"status":"a"}],"allow_id_field":false}`,
		},
		{
			operation: "xano_bulk_update_records",
			args:      tableArgs(map[string]any{"updates": []any{map[string]any{"row_id": 1, "updates": map[string]any{"status": "b"}}}}),
			method:    http.MethodPost,
			path:      "/api:meta/workspace/1/table/2/content/bulk/patch",
			body:      `{"items":[{"row_id":1,"updates":{"status":"b"}}]}`,
		},
		{
			operation: "xano_bulk_delete_records",
			args:      tableArgs(map[string]any{"record_ids": []any{1, `"2"`}}),
			method:    http.MethodPost,
			path:      "/api:meta/workspace/1/table/2/content/bulk/delete",
			body:      `{"row_ids":["1","2"]}`,
		},
		{
			operation: "xano_truncate_table",
			args:      tableArgs(map[string]any{"reset": true}),
			method:    http.MethodDelete,
			path:      "/api:meta/workspace/1/table/2/truncate",
			body:      `{"reset":true}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.operation, func(t *testing.T) {
			env := newTestEnv(t, nil)
			result := env.catalog.Invoke(context.Background(), tt.operation, tt.args)
			require.True(t, result.OK(), "unexpected failure: %v", result.Err())

			req := env.api.Last(t)
			assert.Equal(t, tt.method, req.Method)
			assert.Equal(t, tt.path, req.Path)
			assert.Equal(t, "live", req.Header.Get("X-Data-Source"))
			assert.Equal(t, "Bearer test-token", req.Header.Get("Authorization"))
			if tt.body == "" {
				assert.Empty(t, req.Body)
				assert.Empty(t, req.Header.Get("Content-Type"))
				return
			}
			assert.JSONEq(t, tt.body, string(req.Body))
			assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
		})
	}
}

func TestCatalog_BulkDeleteFiles(t *testing.T) {
	env := newTestEnv(t, nil)

	result := env.catalog.Invoke(context.Background(), "xano_bulk_delete_files", workspaceArgs(map[string]any{
		"file_ids": []any{1, "2"},
	}))
	require.True(t, result.OK())

	req := env.api.Last(t)
	assert.Equal(t, http.MethodDelete, req.Method)
	assert.Equal(t, "/api:meta/workspace/1/file/bulk_delete", req.Path)
	assert.Equal(t, `{"ids":["1","2"]}`, string(req.Body))
	assert.Equal(t, "live", req.Header.Get("X-Data-Source"))
}

func TestCatalog_ListFiles_Query(t *testing.T) {
	tests := []struct {
		name  string
		args  map[string]any
		query string
	}{
		{
			name:  "defaults",
			query: "page=1&per_page=50",
		},
		{
			name:  "order only with sort",
			args:  map[string]any{"order": "asc"},
			query: "page=1&per_page=50",
		},
		{
			name:  "every filter",
			args:  map[string]any{"search": "logo", "access": "private", "sort": "name"},
			query: "page=1&per_page=50&search=logo&access=private&sort=name&order=desc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			result := env.catalog.Invoke(context.Background(), "xano_list_files", workspaceArgs(tt.args))
			require.True(t, result.OK(), "unexpected failure: %v", result.Err())

			req := env.api.Last(t)
			assert.Equal(t, "/api:meta/workspace/1/file", req.Path)
			assert.Equal(t, tt.query, req.Query)
		})
	}
}

// multipartParts parses a recorded multipart request into plain fields and
// file parts keyed by form field name.
func multipartParts(t *testing.T, req recordedRequest) (map[string]string, map[string]*multipart.Part, map[string][]byte) {
	t.Helper()

	mediaType, params, err := mime.ParseMediaType(req.Header.Get("Content-Type"))
	require.NoError(t, err)
	require.Equal(t, "multipart/form-data", mediaType)

	fields := map[string]string{}
	parts := map[string]*multipart.Part{}
	contents := map[string][]byte{}

	reader := multipart.NewReader(bytes.NewReader(req.Body), params["boundary"])
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		data, err := io.ReadAll(part)
		require.NoError(t, err)
		if part.FileName() == "" {
			fields[part.FormName()] = string(data)
			continue
		}
		parts[part.FormName()] = part
		contents[part.FormName()] = data
	}
	return fields, parts, contents
}

func TestCatalog_UploadFile_Multipart(t *testing.T) {
	env := newTestEnv(t, nil)
	require.NoError(t, afero.WriteFile(env.fs, "/uploads/logo.png", []byte("PNGDATA"), 0o644))

	result := env.catalog.Invoke(context.Background(), "xano_upload_file", workspaceArgs(map[string]any{
		"file_path": "/uploads/logo.png",
		"file_type": "image",
	}))
	require.True(t, result.OK(), "unexpected failure: %v", result.Err())

	req := env.api.Last(t)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/api:meta/workspace/1/file", req.Path)
	assert.Equal(t, "live", req.Header.Get("X-Data-Source"))

	fields, parts, contents := multipartParts(t, req)
	assert.Equal(t, map[string]string{"type": "image", "access": "public"}, fields)
	require.Len(t, parts, 1)
	require.Contains(t, parts, "content")
	assert.Equal(t, "logo.png", parts["content"].FileName())
	assert.Equal(t, []byte("PNGDATA"), contents["content"])
}

func TestCatalog_UploadFile_MissingFile(t *testing.T) {
	env := newTestEnv(t, nil)

	result := env.catalog.Invoke(context.Background(), "xano_upload_file", workspaceArgs(map[string]any{
		"file_path": "/uploads/missing.png",
	}))
	require.False(t, result.OK())
	assert.Equal(t, dispatch.FailureRequest, result.Failure.Kind)
	assert.Empty(t, env.api.Requests())
}

func TestCatalog_ImportWorkspaceSchema_Multipart(t *testing.T) {
	env := newTestEnv(t, nil)
	require.NoError(t, afero.WriteFile(env.fs, "/exports/schema.tar.gz", []byte("SCHEMA"), 0o644))

	result := env.catalog.Invoke(context.Background(), "xano_import_workspace_schema", workspaceArgs(map[string]any{
		"file_path":  "/exports/schema.tar.gz",
		"new_branch": "feature-x",
		"password":   "s3cret",
	}))
	require.True(t, result.OK(), "unexpected failure: %v", result.Err())

	req := env.api.Last(t)
	assert.Equal(t, "/api:meta/workspace/1/import-schema", req.Path)
	assert.Empty(t, req.Header.Get("X-Data-Source"))

	fields, parts, contents := multipartParts(t, req)
	assert.Equal(t, map[string]string{"newbranch": "feature-x", "setlive": "false", "password": "s3cret"}, fields)
	require.Contains(t, parts, "file")
	assert.Equal(t, "schema.tar.gz", parts["file"].FileName())
	assert.Equal(t, []byte("SCHEMA"), contents["file"])
}

func TestCatalog_ImportWorkspace_NoPassword(t *testing.T) {
	env := newTestEnv(t, nil)
	require.NoError(t, afero.WriteFile(env.fs, "/exports/ws.tar.gz", []byte("WS"), 0o644))

	result := env.catalog.Invoke(context.Background(), "xano_import_workspace", workspaceArgs(map[string]any{
		"file_path": "/exports/ws.tar.gz",
	}))
	require.True(t, result.OK(), "unexpected failure: %v", result.Err())

	req := env.api.Last(t)
	assert.Equal(t, "/api:meta/workspace/1/import", req.Path)
	fields, parts, _ := multipartParts(t, req)
	assert.Empty(t, fields)
	assert.Contains(t, parts, "file")
}

func TestCatalog_ExportWorkspace_Body(t *testing.T) {
	env := newTestEnv(t, nil)

	result := env.catalog.Invoke(context.Background(), "xano_export_workspace", workspaceArgs(nil))
	require.True(t, result.OK())
	assert.Equal(t, `{}`, string(env.api.Last(t).Body))

	result = env.catalog.Invoke(context.Background(), "xano_export_workspace_schema", workspaceArgs(map[string]any{
		"branch": "v2",
	}))
	require.True(t, result.OK())

	req := env.api.Last(t)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/api:meta/workspace/1/export-schema", req.Path)
	assert.Equal(t, `{"branch":"v2"}`, string(req.Body))
}

func TestCatalog_RequestHistory(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	result := env.catalog.Invoke(ctx, "xano_browse_request_history", workspaceArgs(map[string]any{
		"branch":         "main",
		"api_id":         `"12"`,
		"include_output": true,
	}))
	require.True(t, result.OK())
	req := env.api.Last(t)
	assert.Equal(t, "/api:meta/workspace/1/request_history", req.Path)
	assert.Equal(t, "page=1&per_page=50&branch=main&api_id=12&include_output=true", req.Query)

	result = env.catalog.Invoke(ctx, "xano_search_request_history", workspaceArgs(map[string]any{
		"branch_id": 3,
		"sort":      map[string]any{"created_at": "desc"},
	}))
	require.True(t, result.OK())
	req = env.api.Last(t)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/api:meta/workspace/1/request_history/search", req.Path)
	assert.Equal(t, `{"page":1,"per_page":50,"search":[],"sort":{"created_at":"desc"},"branch_id":"3"}`, string(req.Body))
}

func TestCatalog_Indexes(t *testing.T) {
	tests := []struct {
		name      string
		operation string
		args      map[string]any
		method    string
		path      string
		body      string
	}{
		{
			name:      "btree",
			operation: "xano_create_btree_index",
			args:      tableArgs(map[string]any{"fields": []any{map[string]any{"name": "email", "op": "asc"}}}),
			method:    http.MethodPost,
			path:      "/api:meta/workspace/1/table/2/index/btree",
			body:      `{"fields":[{"name":"email","op":"asc"}]}`,
		},
		{
			name:      "search",
			operation: "xano_create_search_index",
			args: tableArgs(map[string]any{
				"name":   "by_title",
				"fields": []any{map[string]any{"name": "title", "priority": 1}},
			}),
			method: http.MethodPost,
			path:   "/api:meta/workspace/1/table/2/index/search",
			body:   `{"name":"by_title","lang":"english","fields":[{"name":"title","priority":1}]}`,
		},
		{
			name:      "tagged vector",
			operation: "xano_create_index",
			args: tableArgs(map[string]any{
				"type":   "vector",
				"fields": []any{map[string]any{"name": "embedding", "op": "vector_cosine_ops"}},
			}),
			method: http.MethodPost,
			path:   "/api:meta/workspace/1/table/2/index/vector",
			body:   `{"fields":[{"name":"embedding","op":"vector_cosine_ops"}]}`,
		},
		{
			name:      "tagged search",
			operation: "xano_create_index",
			args: tableArgs(map[string]any{
				"type":   "search",
				"name":   "by_body",
				"lang":   "spanish",
				"fields": []any{map[string]any{"name": "body", "priority": "2"}},
			}),
			method: http.MethodPost,
			path:   "/api:meta/workspace/1/table/2/index/search",
			body:   `{"name":"by_body","lang":"spanish","fields":[{"name":"body","priority":2}]}`,
		},
		{
			name:      "replace all",
			operation: "xano_update_all_indexes",
			args:      tableArgs(map[string]any{"indexes": []any{map[string]any{"type": "primary"}}}),
			method:    http.MethodPut,
			path:      "/api:meta/workspace/1/table/2/index",
			body:      `{"index":[{"type":"primary"}]}`,
		},
		{
			name:      "delete",
			operation: "xano_delete_index",
			args:      tableArgs(map[string]any{"index_id": "idx 1"}),
			method:    http.MethodDelete,
			path:      "/api:meta/workspace/1/table/2/index/idx 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			result := env.catalog.Invoke(context.Background(), tt.operation, tt.args)
			require.True(t, result.OK(), "unexpected failure: %v", result.Err())

			req := env.api.Last(t)
			assert.Equal(t, tt.method, req.Method)
			assert.Equal(t, tt.path, req.Path)
			assert.Empty(t, req.Header.Get("X-Data-Source"))
			if tt.body == "" {
				assert.Empty(t, req.Body)
				return
			}
			assert.JSONEq(t, tt.body, string(req.Body))
		})
	}
}

func TestIndexSpec_Validate(t *testing.T) {
	tests := []struct {
		name    string
		spec    IndexSpec
		wantErr string
	}{
		{name: "btree", spec: BTreeIndex(IndexField{Name: "email", Op: "asc"})},
		{name: "unique", spec: UniqueIndex(IndexField{Name: "email"})},
		{name: "spatial", spec: SpatialIndex(IndexField{Name: "location", Op: "gist_geometry_ops_2d"})},
		{name: "vector", spec: VectorIndex(IndexField{Name: "embedding", Op: "vector_l2_ops"})},
		{name: "search", spec: SearchIndex("s", "english", SearchField{Name: "title", Priority: 1})},
		{name: "no fields", spec: BTreeIndex(), wantErr: "btree index requires at least one field"},
		{name: "unnamed field", spec: UniqueIndex(IndexField{Op: "asc"}), wantErr: "unique index field 0 has no name"},
		{name: "search without name", spec: SearchIndex("", "english", SearchField{Name: "t"}), wantErr: "requires a name"},
		{name: "search without lang", spec: SearchIndex("s", "", SearchField{Name: "t"}), wantErr: "requires a language"},
		{name: "zero value", spec: IndexSpec{}, wantErr: "unknown index kind"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCatalog_ListInstances(t *testing.T) {
	t.Run("discovered", func(t *testing.T) {
		env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/global/auth/me", r.URL.Path)
			w.Write([]byte(`{"name":"Robert","instances":[{"name":"abcd-1234"}]}`))
		})

		result := env.catalog.Invoke(context.Background(), "xano_list_instances", nil)
		require.True(t, result.OK())
		assert.JSONEq(t, `{"instances":[{"name":"abcd-1234"}]}`, string(result.Data))
	})

	t.Run("fallback is flagged", func(t *testing.T) {
		env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}, func(o *Options) {
			o.FallbackInstances = []FallbackInstance{{Name: "xnwv-v1z6-dvnr", Display: "Robert"}}
		})

		result := env.catalog.Invoke(context.Background(), "xano_list_instances", nil)
		require.True(t, result.OK())

		var out struct {
			Instances   []InstanceDetails `json:"instances"`
			Synthesized bool              `json:"synthesized"`
			Error       string            `json:"discovery_error"`
		}
		require.NoError(t, result.Decode(&out))
		assert.True(t, out.Synthesized)
		assert.Contains(t, out.Error, "401")
		require.Len(t, out.Instances, 1)
		assert.Equal(t, "Robert", out.Instances[0].Display)
		assert.Equal(t, "https://xnwv-v1z6-dvnr.n7c.xano.io/api:meta", out.Instances[0].MetaAPI)
	})

	t.Run("no fallback surfaces the failure", func(t *testing.T) {
		env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})

		result := env.catalog.Invoke(context.Background(), "xano_list_instances", nil)
		require.False(t, result.OK())
		assert.Equal(t, dispatch.FailureRejected, result.Failure.Kind)
	})

	t.Run("no instance data", func(t *testing.T) {
		env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"name":"Robert"}`))
		})

		result := env.catalog.Invoke(context.Background(), "xano_list_instances", nil)
		require.False(t, result.OK())
		assert.Equal(t, dispatch.FailureDecode, result.Failure.Kind)
	})
}

func TestCatalog_GetInstanceDetails_NoNetwork(t *testing.T) {
	env := newTestEnv(t, nil)

	result := env.catalog.Invoke(context.Background(), "xano_get_instance_details", map[string]any{
		"instance_name": `"xnwv-v1z6-dvnr"`,
	})
	require.True(t, result.OK())
	assert.Empty(t, env.api.Requests())
	assert.JSONEq(t, `{
		"name": "xnwv-v1z6-dvnr",
		"display": "XNWV",
		"xano_domain": "xnwv-v1z6-dvnr.n7c.xano.io",
		"rate_limit": false,
		"meta_api": "https://xnwv-v1z6-dvnr.n7c.xano.io/api:meta",
		"meta_swagger": "https://xnwv-v1z6-dvnr.n7c.xano.io/apispec:meta?type=json"
	}`, string(result.Data))
}

func TestCatalog_Concurrent(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"path":"` + r.URL.Path + `"}`))
	})

	var wg sync.WaitGroup
	results := make([]dispatch.Result, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = env.catalog.Invoke(context.Background(), "xano_get_table_details", tableArgs(map[string]any{
				"table_id": i + 1,
			}))
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.True(t, r.OK())
	}
	assert.Len(t, env.api.Requests(), len(results))
}
