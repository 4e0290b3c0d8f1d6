package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/artpar/toolgate/adapters/metrics"
	"github.com/artpar/toolgate/core/schema"
	"github.com/artpar/toolgate/core/tools"
)

// newTestServer builds a router over a registry with a search tool and a
// user type.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	sr := schema.NewRegistry()
	sr.RegisterField("search_args", "query", schema.FieldAttrs{Type: schema.String()})
	sr.RegisterRule("search_args", "query", schema.Rule{Kind: schema.RuleMinLength, Value: 1})
	opt := true
	sr.RegisterField("search_args", "limit", schema.FieldAttrs{Type: schema.Number(), Optional: &opt})

	sr.RegisterField("user", "email", schema.FieldAttrs{Type: schema.String()})
	sr.RegisterRule("user", "email", schema.Rule{Kind: schema.RuleEmail})
	sr.SetDescription("user", "a registered account")

	sr.RegisterField("broken", "v", schema.FieldAttrs{})

	compiler := schema.NewCompiler(sr)
	registry := tools.NewRegistry(compiler, zerolog.Nop())
	if err := registry.Register(tools.Tool{
		Name:        "search",
		Description: "find things",
		ArgsType:    "search_args",
	}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	h := NewHandler(Deps{Tools: registry, Compiler: compiler, Metrics: m, Logger: zerolog.Nop()})
	srv := httptest.NewServer(NewRouter(h, zerolog.Nop(), RouterConfig{Metrics: m}))
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
	return resp, body
}

func post(t *testing.T, url, payload string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
	return resp, body
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	resp, body := get(t, srv.URL+"/health")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}

	resp, _ = get(t, srv.URL+"/health/ready")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("readiness status = %d, want 200", resp.StatusCode)
	}
}

func TestListTools(t *testing.T) {
	srv := newTestServer(t)

	resp, body := get(t, srv.URL+"/tools")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	list, ok := body["tools"].([]any)
	if !ok || len(list) != 1 {
		t.Fatalf("tools = %v, want one entry", body["tools"])
	}
	entry := list[0].(map[string]any)
	if entry["name"] != "search" || entry["args_type"] != "search_args" {
		t.Errorf("entry = %v", entry)
	}
}

func TestGetTool(t *testing.T) {
	srv := newTestServer(t)

	t.Run("known tool includes schema", func(t *testing.T) {
		resp, body := get(t, srv.URL+"/tools/search")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}

		inputSchema, ok := body["input_schema"].(map[string]any)
		if !ok {
			t.Fatalf("input_schema = %v, want object", body["input_schema"])
		}
		if inputSchema["type"] != "object" {
			t.Errorf("type = %v, want object", inputSchema["type"])
		}
		props, _ := inputSchema["properties"].(map[string]any)
		if _, ok := props["query"]; !ok {
			t.Errorf("properties = %v, want query", props)
		}
		if ap, ok := inputSchema["additionalProperties"].(bool); !ok || ap {
			t.Error("additionalProperties should serialize as false")
		}
	})

	t.Run("unknown tool is 404", func(t *testing.T) {
		resp, _ := get(t, srv.URL+"/tools/missing")
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("status = %d, want 404", resp.StatusCode)
		}
	})
}

func TestValidateArguments(t *testing.T) {
	srv := newTestServer(t)

	t.Run("valid arguments", func(t *testing.T) {
		resp, body := post(t, srv.URL+"/tools/search/validate", `{"query":"go","limit":5}`)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		if body["success"] != true {
			t.Errorf("success = %v, want true: %v", body["success"], body)
		}
		value := body["value"].(map[string]any)
		if value["limit"] != float64(5) {
			t.Errorf("limit = %v, want 5", value["limit"])
		}
	})

	t.Run("violations are success=false, not an HTTP error", func(t *testing.T) {
		resp, body := post(t, srv.URL+"/tools/search/validate", `{"query":"","extra":1}`)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		if body["success"] != false {
			t.Fatalf("success = %v, want false", body["success"])
		}
		violations := body["violations"].([]any)
		if len(violations) != 2 {
			t.Errorf("violations = %v, want 2 entries", violations)
		}
	})

	t.Run("malformed body is 400", func(t *testing.T) {
		resp, _ := post(t, srv.URL+"/tools/search/validate", `{"query":`)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
	})

	t.Run("unknown tool is 404", func(t *testing.T) {
		resp, _ := post(t, srv.URL+"/tools/missing/validate", `{}`)
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("status = %d, want 404", resp.StatusCode)
		}
	})
}

func TestTypes(t *testing.T) {
	srv := newTestServer(t)

	t.Run("list", func(t *testing.T) {
		resp, body := get(t, srv.URL+"/types")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		types := body["types"].([]any)
		if len(types) != 3 {
			t.Errorf("types = %v, want 3 identities", types)
		}
	})

	t.Run("known type", func(t *testing.T) {
		resp, body := get(t, srv.URL+"/types/user")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		if body["description"] != "a registered account" {
			t.Errorf("description = %v", body["description"])
		}
		s := body["schema"].(map[string]any)
		props := s["properties"].(map[string]any)
		email := props["email"].(map[string]any)
		if email["format"] != "email" {
			t.Errorf("email format = %v, want email", email["format"])
		}
	})

	t.Run("unknown type is 404", func(t *testing.T) {
		resp, _ := get(t, srv.URL+"/types/never_declared")
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("status = %d, want 404", resp.StatusCode)
		}
	})

	t.Run("broken declaration is 422", func(t *testing.T) {
		resp, body := get(t, srv.URL+"/types/broken")
		if resp.StatusCode != http.StatusUnprocessableEntity {
			t.Errorf("status = %d, want 422", resp.StatusCode)
		}
		errBody := body["error"].(map[string]any)
		if errBody["code"] != "definition_error" {
			t.Errorf("code = %v, want definition_error", errBody["code"])
		}
	})
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	// Generate some traffic first.
	get(t, srv.URL+"/tools")
	post(t, srv.URL+"/tools/search/validate", `{"query":""}`)

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	out := string(raw)
	for _, want := range []string{"toolgate_requests_total", "toolgate_parses_total", "toolgate_violations_total"} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics output missing %s", want)
		}
	}
}
