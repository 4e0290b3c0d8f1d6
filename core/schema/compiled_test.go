package schema

import (
	"errors"
	"testing"
)

// registerUser declares the user/address pair used by the end-to-end tests.
func registerUser(r *Registry) {
	r.RegisterField("address", "city", FieldAttrs{Type: String()})
	r.RegisterField("address", "zipCode", FieldAttrs{Type: String()})
	r.RegisterRule("address", "zipCode", Rule{Kind: RulePattern, Value: `^\d{5}$`})

	r.RegisterField("user", "email", FieldAttrs{Type: String()})
	r.RegisterRule("user", "email", Rule{Kind: RuleEmail})
	r.RegisterField("user", "age", FieldAttrs{Type: Number()})
	r.RegisterRule("user", "age", Rule{Kind: RuleMinimum, Value: 0})
	r.RegisterRule("user", "age", Rule{Kind: RuleMaximum, Value: 150})
	r.RegisterField("user", "tags", FieldAttrs{Type: ArrayOf(String())})
	r.RegisterRule("user", "tags", Rule{Kind: RuleMinItems, Value: 1})
	r.RegisterField("user", "nickname", FieldAttrs{Type: String(), Optional: boolPtr(true)})
	r.RegisterField("user", "home", FieldAttrs{Type: Ref("address"), Optional: boolPtr(true)})
}

func TestCompiled_Parse(t *testing.T) {
	r, c := newTestCompiler()
	registerUser(r)
	user, err := c.Compile("user")
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	t.Run("accepts a conforming value", func(t *testing.T) {
		out, err := user.Parse(map[string]any{
			"email": "a@example.com",
			"age":   30,
			"tags":  []any{"x"},
		})
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if out["email"] != "a@example.com" {
			t.Errorf("email = %v, want a@example.com", out["email"])
		}
		if out["age"] != float64(30) {
			t.Errorf("age = %v (%T), want float64(30)", out["age"], out["age"])
		}
	})

	t.Run("reports every violation, not just the first", func(t *testing.T) {
		_, err := user.Parse(map[string]any{
			"email": "a@example.com",
			"age":   200,
			"tags":  []any{},
		})
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("Parse() error = %v, want *ValidationError", err)
		}
		if len(verr.Violations) != 2 {
			t.Fatalf("Violations length = %d, want 2: %v", len(verr.Violations), verr)
		}
		byPath := make(map[string]string)
		for _, v := range verr.Violations {
			byPath[v.Path] = v.Rule
		}
		if byPath["age"] != "maximum" {
			t.Errorf("age violation rule = %q, want maximum", byPath["age"])
		}
		if byPath["tags"] != "min_items" {
			t.Errorf("tags violation rule = %q, want min_items", byPath["tags"])
		}
	})

	t.Run("missing required fields are violations", func(t *testing.T) {
		_, err := user.Parse(map[string]any{})
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("Parse() error = %v, want *ValidationError", err)
		}
		paths := make(map[string]bool)
		for _, v := range verr.Violations {
			if v.Rule == "required" {
				paths[v.Path] = true
			}
		}
		for _, want := range []string{"email", "age", "tags"} {
			if !paths[want] {
				t.Errorf("missing required violation for %q; got %v", want, verr)
			}
		}
		if paths["nickname"] || paths["home"] {
			t.Error("optional fields must not be required")
		}
	})

	t.Run("optional field skips rules when absent", func(t *testing.T) {
		out, err := user.Parse(map[string]any{
			"email": "a@example.com",
			"age":   30,
			"tags":  []any{"x"},
		})
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if _, present := out["nickname"]; present {
			t.Error("absent optional field appeared in output")
		}
	})

	t.Run("optional field is validated when present", func(t *testing.T) {
		_, err := user.Parse(map[string]any{
			"email":    "a@example.com",
			"age":      30,
			"tags":     []any{"x"},
			"nickname": 7,
		})
		if err == nil {
			t.Error("Parse() error = nil, want type violation for present optional field")
		}
	})

	t.Run("nested violations carry dotted paths", func(t *testing.T) {
		_, err := user.Parse(map[string]any{
			"email": "a@example.com",
			"age":   30,
			"tags":  []any{"x"},
			"home":  map[string]any{"city": "Pune", "zipCode": "abc"},
		})
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("Parse() error = %v, want *ValidationError", err)
		}
		if len(verr.Violations) != 1 {
			t.Fatalf("Violations = %v, want exactly one", verr.Violations)
		}
		if got := verr.Violations[0].Path; got != "home.zipCode" {
			t.Errorf("Path = %q, want home.zipCode", got)
		}
	})

	t.Run("array element violations carry indexed paths", func(t *testing.T) {
		_, err := user.Parse(map[string]any{
			"email": "a@example.com",
			"age":   30,
			"tags":  []any{"ok", 5},
		})
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("Parse() error = %v, want *ValidationError", err)
		}
		if got := verr.Violations[0].Path; got != "tags[1]" {
			t.Errorf("Path = %q, want tags[1]", got)
		}
	})

	t.Run("unknown fields are rejected", func(t *testing.T) {
		_, err := user.Parse(map[string]any{
			"email":  "a@example.com",
			"age":    30,
			"tags":   []any{"x"},
			"rogue":  true,
			"rogue2": 1,
		})
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("Parse() error = %v, want *ValidationError", err)
		}
		unknown := 0
		for _, v := range verr.Violations {
			if v.Rule == "unknown_field" {
				unknown++
			}
		}
		if unknown != 2 {
			t.Errorf("unknown_field violations = %d, want 2", unknown)
		}
	})

	t.Run("non-object input is a violation", func(t *testing.T) {
		if _, err := user.Parse("not an object"); err == nil {
			t.Error("Parse() error = nil, want object type violation")
		}
	})
}

func TestCompiled_NumericEnumRoundTrip(t *testing.T) {
	r, c := newTestCompiler()
	r.RegisterField("job", "priority", FieldAttrs{Type: Enum(1, 2, 3)})
	job, err := c.Compile("job")
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	tests := []struct {
		name    string
		value   any
		want    float64
		wantErr bool
	}{
		{"numeric form", 2, 2, false},
		{"string form of a literal", "2", 2, false},
		{"non-member number", 4, 0, true},
		{"non-member string", "4", 0, true},
		{"arbitrary string", "two", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := job.Parse(map[string]any{"priority": tt.value})
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%v) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			// Both input forms project back to the numeric value.
			if out["priority"] != tt.want {
				t.Errorf("priority = %v (%T), want float64(%v)", out["priority"], out["priority"], tt.want)
			}
		})
	}
}

func TestCompiled_StringEnum(t *testing.T) {
	r, c := newTestCompiler()
	r.RegisterField("job", "state", FieldAttrs{Type: Enum("queued", "running", "done")})
	job, err := c.Compile("job")
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	if _, err := job.Parse(map[string]any{"state": "running"}); err != nil {
		t.Errorf("Parse(running) error = %v", err)
	}
	if _, err := job.Parse(map[string]any{"state": "paused"}); err == nil {
		t.Error("Parse(paused) error = nil, want membership violation")
	}
}

func TestCompiled_ParseJSON(t *testing.T) {
	r, c := newTestCompiler()
	registerUser(r)
	user, err := c.Compile("user")
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	t.Run("valid document", func(t *testing.T) {
		out, err := user.ParseJSON([]byte(`{"email":"a@example.com","age":30,"tags":["x"]}`))
		if err != nil {
			t.Fatalf("ParseJSON() error = %v", err)
		}
		if out["age"] != float64(30) {
			t.Errorf("age = %v, want 30", out["age"])
		}
	})

	t.Run("malformed document is a validation error", func(t *testing.T) {
		_, err := user.ParseJSON([]byte(`{"email":`))
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("ParseJSON() error = %v, want *ValidationError", err)
		}
		if verr.Violations[0].Rule != "json" {
			t.Errorf("Rule = %q, want json", verr.Violations[0].Rule)
		}
	})
}

func TestCompiled_SafeParse(t *testing.T) {
	r, c := newTestCompiler()
	registerUser(r)
	user, err := c.Compile("user")
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	ok := user.SafeParse(map[string]any{"email": "a@example.com", "age": 30, "tags": []any{"x"}})
	if !ok.Success || ok.Error != nil || ok.Value == nil {
		t.Errorf("SafeParse() = %+v, want success with value", ok)
	}

	bad := user.SafeParse(map[string]any{"email": "nope", "age": 30, "tags": []any{"x"}})
	if bad.Success || bad.Error == nil {
		t.Errorf("SafeParse() = %+v, want failure with error", bad)
	}
	if bad.Value != nil {
		t.Error("failed SafeParse carried a value")
	}
}

func TestCompiled_DescribeIsStable(t *testing.T) {
	r, c := newTestCompiler()
	registerUser(r)
	user, err := c.Compile("user")
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	first := user.Describe()
	second := user.Describe()
	if first != second {
		t.Error("Describe() returned distinct trees across calls")
	}
	if first.Type != "object" {
		t.Errorf("Type = %q, want object", first.Type)
	}
	if first.AdditionalProperties == nil || *first.AdditionalProperties {
		t.Error("registry-compiled schemas must close additionalProperties")
	}
}
