// herod serves the hero API: the contract catalog mounted behind the
// gateway adapter, backed by the SQLite store.
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/cors"
	"github.com/spf13/viper"

	"github.com/martzmakes/pact/gateway"
	"github.com/martzmakes/pact/heroes"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "herod:", err)
		os.Exit(1)
	}
}

func run() error {
	v := viper.New()
	v.SetDefault("addr", ":8080")
	v.SetDefault("db", "file:heroes.db?cache=shared")
	v.SetDefault("log_level", "info")
	v.SetEnvPrefix("HEROD")
	v.AutomaticEnv()

	v.SetConfigName("herod")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("read config: %w", err)
		}
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(v.GetString("log_level")),
	}))
	slog.SetDefault(logger)

	store, err := heroes.Open(v.GetString("db"))
	if err != nil {
		return err
	}
	defer store.Close()

	gw := gateway.New(
		gateway.WithLogger(logger),
		gateway.WithCORS(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE"},
			AllowedHeaders: []string{"*"},
		}),
	)
	if err := gw.Mount(heroes.Catalog(), heroes.Handlers(store)); err != nil {
		return err
	}

	addr := v.GetString("addr")
	logger.Info("listening", slog.String("addr", addr))
	return http.ListenAndServe(addr, gw.Handler())
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
