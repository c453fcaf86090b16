package pact

import (
	"strings"
	"testing"
)

func TestParseSchema_Malformed(t *testing.T) {
	if _, err := ParseSchema([]byte(`{"type":`)); err == nil {
		t.Fatal("expected error for malformed schema")
	}
}

func TestMustSchema_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on malformed schema")
		}
	}()
	MustSchema(`not json`)
}

func TestValidatePayload(t *testing.T) {
	e := MustDefine("addHero", "POST", "/hero",
		WithRequestSchema(MustSchema(`{
			"type": "object",
			"required": ["name", "rescues"],
			"properties": {
				"name": {"type": "string", "minLength": 1},
				"rescues": {"type": "integer", "minimum": 0}
			}
		}`)))

	tests := []struct {
		name    string
		payload map[string]any
		valid   bool
	}{
		{"conforming", map[string]any{"name": "A", "rescues": float64(0)}, true},
		{"missing field", map[string]any{"name": "A"}, false},
		{"wrong type", map[string]any{"name": "A", "rescues": "many"}, false},
		{"negative rescues", map[string]any{"name": "A", "rescues": float64(-1)}, false},
		{"empty name", map[string]any{"name": "", "rescues": float64(1)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verr := validatePayload(e.requestRS, e.name, KindRequest, tt.payload)
			if tt.valid && verr != nil {
				t.Errorf("expected valid, got %v", verr)
			}
			if !tt.valid {
				if verr == nil {
					t.Fatal("expected validation error")
				}
				if verr.Endpoint != "addHero" || verr.Kind != KindRequest {
					t.Errorf("unexpected error context: %s %s", verr.Endpoint, verr.Kind)
				}
				if len(verr.Violations) == 0 {
					t.Error("expected at least one violation")
				}
				if !strings.Contains(verr.Error(), "addHero") {
					t.Errorf("error should name the endpoint: %s", verr.Error())
				}
			}
		})
	}
}

func TestValidatePayload_NilSchema(t *testing.T) {
	if verr := validatePayload(nil, "x", KindRequest, map[string]any{"anything": true}); verr != nil {
		t.Errorf("nil schema must accept everything, got %v", verr)
	}
}

func TestGeneralize(t *testing.T) {
	type hero struct {
		Name    string `json:"name"`
		Rescues int    `json:"rescues"`
	}
	got, err := generalize(hero{Name: "A", Rescues: 2})
	if err != nil {
		t.Fatalf("generalize error: %v", err)
	}
	m, ok := got.(map[string]any)
	if !ok {
		t.Fatalf("expected map, got %T", got)
	}
	if m["name"] != "A" || m["rescues"] != float64(2) {
		t.Errorf("unexpected generic form: %v", m)
	}
}

func TestGeneralize_PassThrough(t *testing.T) {
	in := map[string]any{"k": "v"}
	got, err := generalize(in)
	if err != nil {
		t.Fatal(err)
	}
	if m, ok := got.(map[string]any); !ok || m["k"] != "v" {
		t.Errorf("expected pass-through, got %v", got)
	}
}

func TestSchemaFor(t *testing.T) {
	type addHeroRequest struct {
		Name    string `json:"name"`
		Rescues int    `json:"rescues"`
	}
	s, err := SchemaFor[addHeroRequest]()
	if err != nil {
		t.Fatalf("SchemaFor error: %v", err)
	}
	if s == nil {
		t.Fatal("expected schema")
	}
}
