// Package manifest loads declarative endpoint catalogs from YAML and
// compiles them into a contract registry. A catalog in configuration and a
// catalog in code construct identical registries; the YAML form exists so
// the endpoint surface can ship next to deployment config.
package manifest

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/martzmakes/pact"
)

var validate = validator.New()

// Catalog is a named set of endpoint contracts.
type Catalog struct {
	Name        string         `yaml:"name" validate:"required"`
	Description string         `yaml:"description"`
	Endpoints   []EndpointSpec `yaml:"endpoints" validate:"required,min=1,dive"`
}

// EndpointSpec is one contract entry. Request and Response carry inline JSON
// Schema documents in YAML form.
type EndpointSpec struct {
	Name        string         `yaml:"name" validate:"required"`
	Description string         `yaml:"description"`
	Method      string         `yaml:"method" validate:"required,oneof=GET POST PUT DELETE"`
	Path        string         `yaml:"path" validate:"required,startswith=/"`
	Request     map[string]any `yaml:"request"`
	Response    map[string]any `yaml:"response"`
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("manifest: unmarshal catalog: %w", err)
	}
	setDefaults(&c)
	if err := validate.Struct(&c); err != nil {
		return nil, fmt.Errorf("manifest: invalid catalog: %w", err)
	}
	return &c, nil
}

// Load reads and parses a catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: read catalog: %w", err)
	}
	return Parse(data)
}

func setDefaults(c *Catalog) {
	for i := range c.Endpoints {
		if c.Endpoints[i].Method == "" {
			c.Endpoints[i].Method = http.MethodPost
		}
	}
}

// Registry compiles the catalog into a contract registry.
func (c *Catalog) Registry(logger *slog.Logger) (*pact.Registry, error) {
	reg := pact.NewRegistry()
	if logger != nil {
		reg.WithLogger(logger)
	}
	for _, spec := range c.Endpoints {
		opts := []pact.EndpointOption{}
		if spec.Description != "" {
			opts = append(opts, pact.WithDescription(spec.Description))
		}
		if spec.Request != nil {
			s, err := schemaFromMap(spec.Request)
			if err != nil {
				return nil, fmt.Errorf("manifest: endpoint %q: request schema: %w", spec.Name, err)
			}
			opts = append(opts, pact.WithRequestSchema(s))
		}
		if spec.Response != nil {
			s, err := schemaFromMap(spec.Response)
			if err != nil {
				return nil, fmt.Errorf("manifest: endpoint %q: response schema: %w", spec.Name, err)
			}
			opts = append(opts, pact.WithResponseSchema(s))
		}
		e, err := pact.Define(spec.Name, spec.Method, spec.Path, opts...)
		if err != nil {
			return nil, err
		}
		reg.Register(e)
	}
	return reg, nil
}

// schemaFromMap converts the YAML-decoded schema document into the JSON
// Schema model through its JSON form.
func schemaFromMap(m map[string]any) (*pact.Schema, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return pact.ParseSchema(data)
}
