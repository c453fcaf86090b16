// Package heroes is the reference consumer of the contract system: a small
// hero/rescue API whose catalog, handlers, and store exercise the full
// client and server paths.
package heroes

import (
	"github.com/martzmakes/pact"
)

var heroSchema = pact.MustSchema(`{
	"type": "object",
	"required": ["name", "rescues"],
	"properties": {
		"name": {"type": "string", "minLength": 1},
		"rescues": {"type": "integer", "minimum": 0}
	},
	"additionalProperties": false
}`)

var heroListSchema = pact.MustSchema(`{
	"type": "object",
	"required": ["heroes"],
	"properties": {
		"heroes": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["name", "rescues"],
				"properties": {
					"name": {"type": "string"},
					"rescues": {"type": "integer"}
				}
			}
		}
	}
}`)

var deletedSchema = pact.MustSchema(`{
	"type": "object",
	"required": ["deleted"],
	"properties": {
		"deleted": {"type": "string"}
	}
}`)

// Catalog builds the hero endpoint registry. Both the generated client and
// the server mount are constructed from this single definition.
func Catalog() *pact.Registry {
	reg := pact.NewRegistry()
	reg.Register(pact.MustDefine("addHero", "POST", "/hero",
		pact.WithDescription("Add a hero; adding the same hero twice is a no-op"),
		pact.WithRequestSchema(heroSchema),
		pact.WithResponseSchema(heroSchema)))
	reg.Register(pact.MustDefine("getHero", "GET", "/hero/{hero}",
		pact.WithDescription("Fetch a single hero by name"),
		pact.WithResponseSchema(heroSchema)))
	reg.Register(pact.MustDefine("listHeroes", "GET", "/heroes",
		pact.WithDescription("List heroes, optionally limited via the limit query parameter"),
		pact.WithResponseSchema(heroListSchema)))
	reg.Register(pact.MustDefine("addRescue", "POST", "/hero/{hero}/rescue",
		pact.WithDescription("Record a rescue for a hero"),
		pact.WithResponseSchema(heroSchema)))
	reg.Register(pact.MustDefine("deleteHero", "DELETE", "/hero/{hero}",
		pact.WithDescription("Remove a hero"),
		pact.WithResponseSchema(deletedSchema)))
	return reg
}
