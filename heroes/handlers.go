package heroes

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/martzmakes/pact"
)

// notFoundBody is pre-serialized so the 404 passes through the wrapper
// unvalidated; it is not a hero shape.
const notFoundBody = `{"message":"Hero not found"}`

// Handlers binds the business handlers for every catalog endpoint to a
// store.
func Handlers(store *Store) map[string]pact.Handler {
	return map[string]pact.Handler{
		"addHero":    addHero(store),
		"getHero":    getHero(store),
		"listHeroes": listHeroes(store),
		"addRescue":  addRescue(store),
		"deleteHero": deleteHero(store),
	}
}

func addHero(store *Store) pact.Handler {
	return func(ctx context.Context, in *pact.HandlerInput) (*pact.HandlerOutput, error) {
		// The body has already passed the request schema.
		h := Hero{
			Name:    stringField(in.Body, "name"),
			Rescues: intField(in.Body, "rescues"),
		}
		if _, err := store.Add(ctx, h); err != nil {
			return nil, err
		}
		stored, err := store.Get(ctx, h.Name)
		if err != nil {
			return nil, err
		}
		return &pact.HandlerOutput{Data: stored, StatusCode: http.StatusOK}, nil
	}
}

func getHero(store *Store) pact.Handler {
	return func(ctx context.Context, in *pact.HandlerInput) (*pact.HandlerOutput, error) {
		h, err := store.Get(ctx, in.PathParams["hero"])
		if errors.Is(err, ErrHeroNotFound) {
			return &pact.HandlerOutput{Data: notFoundBody, StatusCode: http.StatusNotFound}, nil
		}
		if err != nil {
			return nil, err
		}
		return &pact.HandlerOutput{Data: h}, nil
	}
}

func listHeroes(store *Store) pact.Handler {
	return func(ctx context.Context, in *pact.HandlerInput) (*pact.HandlerOutput, error) {
		limit := 0
		if raw := in.Query["limit"]; raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				return &pact.HandlerOutput{
					Data:       `{"message":"limit must be a non-negative integer"}`,
					StatusCode: http.StatusBadRequest,
				}, nil
			}
			limit = n
		}
		heroes, err := store.List(ctx, limit)
		if err != nil {
			return nil, err
		}
		return &pact.HandlerOutput{Data: map[string]any{"heroes": heroes}}, nil
	}
}

func addRescue(store *Store) pact.Handler {
	return func(ctx context.Context, in *pact.HandlerInput) (*pact.HandlerOutput, error) {
		h, err := store.AddRescue(ctx, in.PathParams["hero"])
		if errors.Is(err, ErrHeroNotFound) {
			return &pact.HandlerOutput{Data: notFoundBody, StatusCode: http.StatusNotFound}, nil
		}
		if err != nil {
			return nil, err
		}
		return &pact.HandlerOutput{Data: h}, nil
	}
}

func deleteHero(store *Store) pact.Handler {
	return func(ctx context.Context, in *pact.HandlerInput) (*pact.HandlerOutput, error) {
		name := in.PathParams["hero"]
		if err := store.Delete(ctx, name); err != nil {
			return nil, err
		}
		return &pact.HandlerOutput{Data: map[string]string{"deleted": name}}, nil
	}
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func intField(m map[string]any, key string) int {
	// JSON numbers decode to float64.
	f, _ := m[key].(float64)
	return int(f)
}
