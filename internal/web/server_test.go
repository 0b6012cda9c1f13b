package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/JonMunkholm/csvmaps/internal/audit"
	"github.com/JonMunkholm/csvmaps/internal/census"
	"github.com/JonMunkholm/csvmaps/internal/config"
	"github.com/JonMunkholm/csvmaps/internal/core"
	"github.com/JonMunkholm/csvmaps/internal/dataset"
	"github.com/JonMunkholm/csvmaps/internal/geo"
)

const starsCSV = "StarID,ProperName,X,Y,Z\n" +
	"0,Sol,0,0,0\n" +
	"1,,282.43485,0.00449,5.36884\n" +
	"2,Proxima_Centauri,-0.47175,-0.36132,-1.15037\n"

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadFrom(func(string) string { return "" })
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	cfg.Rate.Enabled = false
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config, opts core.Options) *Server {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"stars.csv":  starsCSV,
		"ragged.csv": "a,b\n1\n",
		"notes.txt":  "hello",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if opts.Loader == nil {
		opts.Loader = dataset.NewLoader(dir, 0, dataset.NewLoadLimiter(2, 0))
	}

	srv := NewServer(core.NewService(opts), cfg)
	t.Cleanup(func() { srv.Shutdown(context.Background()) })
	return srv
}

func get(t *testing.T, srv *Server, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("GET %s: decode %q: %v", target, rec.Body.String(), err)
	}
	return rec, body
}

func rows(t *testing.T, body map[string]any) [][]string {
	t.Helper()
	raw, err := json.Marshal(body["data"])
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out [][]string
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("data is not a table: %s", raw)
	}
	return out
}

func TestViewBeforeLoad(t *testing.T) {
	srv := newTestServer(t, testConfig(t), core.Options{})

	for _, path := range []string{"/view", "/search?target=sol"} {
		rec, body := get(t, srv, path)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s status = %d, want %d", path, rec.Code, http.StatusNotFound)
		}
		if body["type"] != "error" || body["code"] != "CSV004" || body["error_type"] != "error_not_loaded" {
			t.Errorf("%s body = %v", path, body)
		}
	}
}

func TestLoadViewSearch(t *testing.T) {
	srv := newTestServer(t, testConfig(t), core.Options{})

	rec, body := get(t, srv, "/load?filepath=stars.csv")
	if rec.Code != http.StatusOK {
		t.Fatalf("load status = %d, body %v", rec.Code, body)
	}
	if body["type"] != "success" || body["data"] != "stars.csv" || body["rows"] != float64(4) {
		t.Errorf("load body = %v", body)
	}
	if rec.Header().Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %q", rec.Header().Get("Content-Type"))
	}

	_, body = get(t, srv, "/view")
	if got := rows(t, body); len(got) != 4 || got[0][1] != "ProperName" {
		t.Errorf("view = %q", got)
	}

	tests := []struct {
		name  string
		query string
		want  [][]string
	}{
		{
			name:  "by name",
			query: "/search?target=sol&header=true&name=ProperName",
			want:  [][]string{{"0", "Sol", "0", "0", "0"}},
		},
		{
			name:  "by index matches by name",
			query: "/search?target=sol&header=true&index=1",
			want:  [][]string{{"0", "Sol", "0", "0", "0"}},
		},
		{
			name:  "underscore normalization",
			query: "/search?target=proxima%20centauri&header=true&name=propername",
			want:  [][]string{{"2", "Proxima_Centauri", "-0.47175", "-0.36132", "-1.15037"}},
		},
		{
			name:  "legacy column integer",
			query: "/search?target=sol&header=true&column=1",
			want:  [][]string{{"0", "Sol", "0", "0", "0"}},
		},
		{
			name:  "no match",
			query: "/search?target=vega&header=true&name=ProperName",
			want:  [][]string{},
		},
		{
			name:  "whole rows without header",
			query: "/search?target=propername",
			want:  [][]string{{"StarID", "ProperName", "X", "Y", "Z"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := get(t, srv, tt.query)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body %v", rec.Code, body)
			}
			if got := rows(t, body); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSearch_UnknownColumnSuggestion(t *testing.T) {
	srv := newTestServer(t, testConfig(t), core.Options{})
	get(t, srv, "/load?filepath=stars.csv")

	rec, body := get(t, srv, "/search?target=sol&header=true&name=ProperNme")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(rows(t, body)) != 0 {
		t.Errorf("expected no rows, got %v", body["data"])
	}
	details, _ := body["details"].(string)
	if !strings.Contains(details, `"ProperName"`) {
		t.Errorf("details = %q, want suggestion", details)
	}
}

func TestSearch_Errors(t *testing.T) {
	srv := newTestServer(t, testConfig(t), core.Options{})
	get(t, srv, "/load?filepath=stars.csv")

	tests := []struct {
		name   string
		query  string
		status int
		code   string
	}{
		{"missing target", "/search?header=true", http.StatusBadRequest, "SRCH004"},
		{"index and name", "/search?target=a&header=true&index=1&name=X", http.StatusBadRequest, "SRCH004"},
		{"bad index", "/search?target=a&index=one", http.StatusBadRequest, "SRCH004"},
		{"bad header", "/search?target=a&header=maybe", http.StatusBadRequest, "SRCH004"},
		{"name without header", "/search?target=a&name=X", http.StatusBadRequest, "SRCH003"},
		{"index out of range", "/search?target=a&header=true&index=9", http.StatusUnprocessableEntity, "SRCH001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := get(t, srv, tt.query)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if body["code"] != tt.code {
				t.Errorf("code = %v, want %s", body["code"], tt.code)
			}
		})
	}
}

func TestSearch_RaggedTable(t *testing.T) {
	srv := newTestServer(t, testConfig(t), core.Options{})
	get(t, srv, "/load?filepath=ragged.csv")

	rec, body := get(t, srv, "/search?target=1&header=true")
	if rec.Code != http.StatusUnprocessableEntity || body["code"] != "SRCH002" {
		t.Errorf("status = %d, body = %v", rec.Code, body)
	}
	if body["error_type"] != "error_bad_json" {
		t.Errorf("error_type = %v", body["error_type"])
	}
}

func TestLoad_Errors(t *testing.T) {
	srv := newTestServer(t, testConfig(t), core.Options{})

	tests := []struct {
		name   string
		query  string
		status int
		code   string
	}{
		{"missing path", "/load", http.StatusBadRequest, "CSV009"},
		{"not found", "/load?filepath=missing.csv", http.StatusNotFound, "CSV003"},
		{"escapes root", "/load?filepath=../../etc/passwd.csv", http.StatusBadRequest, "CSV005"},
		{"wrong format", "/load?filepath=notes.txt", http.StatusBadRequest, "CSV006"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := get(t, srv, tt.query)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if body["code"] != tt.code {
				t.Errorf("code = %v, want %s", body["code"], tt.code)
			}
		})
	}

	// A failed load leaves nothing loaded.
	if rec, _ := get(t, srv, "/view"); rec.Code != http.StatusNotFound {
		t.Errorf("view status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func testMaps(t *testing.T) *geo.FeatureCollection {
	t.Helper()
	fc, err := geo.LoadFile(filepath.Join("..", "geo", "testdata", "areas.json"))
	if err != nil {
		t.Fatalf("load maps: %v", err)
	}
	return fc
}

func TestMaps(t *testing.T) {
	srv := newTestServer(t, testConfig(t), core.Options{Maps: testMaps(t)})

	rec, body := get(t, srv, "/mapsKeyWord?Area=industry")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %v", rec.Code, body)
	}
	fc := body["data"].(map[string]any)
	if n := len(fc["features"].([]any)); n != 1 {
		t.Errorf("keyword features = %d, want 1", n)
	}

	rec, body = get(t, srv, "/mapsBoundingBox?lowerLatitude=41.81&upperLatitude=41.84&lowerLongitude=-71.41&upperLongitude=-71.385")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %v", rec.Code, body)
	}
	fc = body["data"].(map[string]any)
	for _, f := range fc["features"].([]any) {
		props := f.(map[string]any)["properties"].(map[string]any)
		if props["name"] == "Olneyville" || props["name"] == "Unmapped" {
			t.Errorf("feature %v should be outside the box", props["name"])
		}
	}

	_, body = get(t, srv, "/mapsKeyWord/history")
	hist := body["data"].([]any)
	if len(hist) != 1 || hist[0].(map[string]any)["keyword"] != "industry" {
		t.Errorf("history = %v", hist)
	}
}

func TestMaps_Errors(t *testing.T) {
	srv := newTestServer(t, testConfig(t), core.Options{Maps: testMaps(t)})

	tests := []struct {
		name   string
		query  string
		status int
		code   string
	}{
		{"missing keyword", "/mapsKeyWord", http.StatusBadRequest, "GEO002"},
		{"missing bound", "/mapsBoundingBox?lowerLatitude=1&upperLatitude=2&lowerLongitude=3", http.StatusBadRequest, "GEO001"},
		{"bound not a number", "/mapsBoundingBox?lowerLatitude=a&upperLatitude=2&lowerLongitude=3&upperLongitude=4", http.StatusBadRequest, "GEO001"},
		{"inverted", "/mapsBoundingBox?lowerLatitude=5&upperLatitude=2&lowerLongitude=3&upperLongitude=4", http.StatusBadRequest, "GEO001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := get(t, srv, tt.query)
			if rec.Code != tt.status || body["code"] != tt.code {
				t.Errorf("status = %d code = %v, want %d %s", rec.Code, body["code"], tt.status, tt.code)
			}
		})
	}

	none := newTestServer(t, testConfig(t), core.Options{})
	if rec, body := get(t, none, "/mapsKeyWord?Area=x"); rec.Code != http.StatusServiceUnavailable || body["code"] != "GEO003" {
		t.Errorf("status = %d, body = %v", rec.Code, body)
	}
}

func TestBroadband(t *testing.T) {
	data := census.BroadbandData{Rows: [][]string{
		{"NAME", "S2802_C03_022E", "state", "county"},
		{"Kent County, Rhode Island", "91.1", "44", "003"},
	}}
	srv := newTestServer(t, testConfig(t), core.Options{Census: census.StaticSource{Data: data}})

	rec, body := get(t, srv, "/broadband?state=Rhode%20Island&county=Kent")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %v", rec.Code, body)
	}
	if body["state"] != "Rhode Island" || body["county"] != "Kent" || body["percent"] != "91.1" {
		t.Errorf("body = %v", body)
	}
	if body["retrieved"] == "" || body["retrieved"] == nil {
		t.Error("missing retrieved timestamp")
	}

	rec, body = get(t, srv, "/broadband?state=Rhode%20Island")
	if rec.Code != http.StatusBadRequest || body["code"] != "CEN001" {
		t.Errorf("status = %d, body = %v", rec.Code, body)
	}
}

func TestBroadband_Upstream(t *testing.T) {
	src := census.StaticSource{Err: &census.DatasourceError{Op: "broadband", StatusCode: 500}}
	srv := newTestServer(t, testConfig(t), core.Options{Census: src})

	rec, body := get(t, srv, "/broadband?state=a&county=b")
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadGateway)
	}
	if body["error_type"] != "error_datasource" {
		t.Errorf("error_type = %v", body["error_type"])
	}
}

func TestAuditLog(t *testing.T) {
	store := audit.NewMemoryStore(10)
	srv := newTestServer(t, testConfig(t), core.Options{Audit: store})

	req := httptest.NewRequest(http.MethodGet, "/load?filepath=stars.csv", nil)
	req.Header.Set("User-Agent", "audit-test")
	req.RemoteAddr = "192.0.2.10:5555"
	srv.Router().ServeHTTP(httptest.NewRecorder(), req)

	_, body := get(t, srv, "/audit?limit=5")
	entries := body["data"].([]any)
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	e := entries[0].(map[string]any)
	if e["action"] != "load" || e["ipAddress"] != "192.0.2.10" || e["userAgent"] != "audit-test" {
		t.Errorf("entry = %v", e)
	}
}

func TestStatus(t *testing.T) {
	srv := newTestServer(t, testConfig(t), core.Options{})

	_, body := get(t, srv, "/status")
	if body["loaded"] != false {
		t.Errorf("loaded = %v, want false", body["loaded"])
	}

	get(t, srv, "/load?filepath=stars.csv")
	_, body = get(t, srv, "/status")
	if body["loaded"] != true || body["rows"] != float64(4) {
		t.Errorf("status = %v", body)
	}
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 2, LoadLimit: 1}
	srv := newTestServer(t, cfg, core.Options{})

	for i := 0; i < 2; i++ {
		if rec, _ := get(t, srv, "/status"); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, rec.Code)
		}
	}
	rec, body := get(t, srv, "/status")
	if rec.Code != http.StatusTooManyRequests || body["code"] != "RATE001" {
		t.Errorf("status = %d, body = %v", rec.Code, body)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
}

func TestAPIKeyRequired(t *testing.T) {
	cfg := testConfig(t)
	cfg.Security.RequireAPIKey = true
	cfg.Security.APIKeys = []string{"secret"}
	srv := newTestServer(t, cfg, core.Options{})

	if rec, _ := get(t, srv, "/status"); rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("X-API-Key", "secret")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestHeaders(t *testing.T) {
	srv := newTestServer(t, testConfig(t), core.Options{})

	rec, _ := get(t, srv, "/status")
	want := map[string]string{
		"Access-Control-Allow-Origin": "*",
		"X-Content-Type-Options":      "nosniff",
		"X-Frame-Options":             "DENY",
	}
	for k, v := range want {
		if got := rec.Header().Get(k); got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}
}

func TestCORS_Preflight(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.CORSOrigins = []string{"https://maps.example.com"}
	srv := newTestServer(t, cfg, core.Options{})

	req := httptest.NewRequest(http.MethodOptions, "/view", nil)
	req.Header.Set("Origin", "https://maps.example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://maps.example.com" {
		t.Errorf("Allow-Origin = %q", got)
	}
}

func TestNotFound(t *testing.T) {
	srv := newTestServer(t, testConfig(t), core.Options{})

	rec, body := get(t, srv, "/nope")
	if rec.Code != http.StatusNotFound || body["type"] != "error" {
		t.Errorf("status = %d, body = %v", rec.Code, body)
	}
}
