package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
)

const envPrefix = "ASAMBLEA_"

type Config struct {
	HTTPAddr       string
	GRPCHealthAddr string // "" disables the gRPC health server

	// DB
	Env    string // "dev" | "prod"
	Store  string // "sqlite" | "memory"
	DBPath string // e.g. "./data/asamblea.db"
	// SeedDev creates a small dev assembly on startup. Ignored in prod.
	SeedDev bool

	// Location door times and date filters are interpreted in.
	Location *time.Location

	LedgerMaxAttempts int
	QuorumRefresh     time.Duration // 0 disables the quorum monitor

	OTelEndpoint string // OTLP/HTTP endpoint; "" keeps tracing local
	OTelStdout   bool   // print spans to stdout

	ShutdownTimeout time.Duration
}

// rawEnv is the tagged view of the environment. Field names are prefixed
// with ASAMBLEA_.
type rawEnv struct {
	HTTPAddr             string        `env:"HTTP_ADDR"              envDefault:":8080"`
	GRPCHealthAddr       string        `env:"GRPC_HEALTH_ADDR"`
	Env                  string        `env:"ENV"                    envDefault:"dev"`
	Store                string        `env:"STORE"                  envDefault:"sqlite"`
	DBPath               string        `env:"DB_PATH"                envDefault:"./data/asamblea.db"`
	SeedDev              bool          `env:"SEED_DEV"`
	Timezone             string        `env:"TIMEZONE"               envDefault:"Local"`
	LedgerMaxAttempts    int           `env:"LEDGER_MAX_ATTEMPTS"    envDefault:"3"`
	QuorumRefreshSeconds int           `env:"QUORUM_REFRESH_SECONDS" envDefault:"30"`
	OTelEndpoint         string        `env:"OTEL_ENDPOINT"`
	OTelStdout           bool          `env:"OTEL_STDOUT"`
	ShutdownTimeout      time.Duration `env:"SHUTDOWN_TIMEOUT"       envDefault:"5s"`
}

// FromEnv reads the process environment.
func FromEnv() (Config, error) {
	return Load(nil)
}

// Load reads configuration from environ, or from the process environment
// when environ is nil. Values that do not parse are an error; values that
// parse but are out of range fall back to their defaults.
func Load(environ map[string]string) (Config, error) {
	var raw rawEnv
	opts := env.Options{Prefix: envPrefix, Environment: environ}
	if err := env.ParseWithOptions(&raw, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	envName := strings.ToLower(strings.TrimSpace(raw.Env))
	if envName != "dev" && envName != "prod" {
		// fail-soft: treat unknown as dev
		envName = "dev"
	}

	storeKind := strings.ToLower(strings.TrimSpace(raw.Store))
	if storeKind != "sqlite" && storeKind != "memory" {
		storeKind = "sqlite"
	}

	loc, err := time.LoadLocation(strings.TrimSpace(raw.Timezone))
	if err != nil {
		loc = time.Local
	}

	attempts := raw.LedgerMaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	refresh := raw.QuorumRefreshSeconds
	if refresh < 0 {
		refresh = 30
	}
	shutdown := raw.ShutdownTimeout
	if shutdown <= 0 {
		shutdown = 5 * time.Second
	}

	return Config{
		HTTPAddr:       strings.TrimSpace(raw.HTTPAddr),
		GRPCHealthAddr: strings.TrimSpace(raw.GRPCHealthAddr),

		Env:     envName,
		Store:   storeKind,
		DBPath:  raw.DBPath,
		SeedDev: raw.SeedDev && envName == "dev",

		Location: loc,

		LedgerMaxAttempts: attempts,
		QuorumRefresh:     time.Duration(refresh) * time.Second,

		OTelEndpoint: strings.TrimSpace(raw.OTelEndpoint),
		OTelStdout:   raw.OTelStdout,

		ShutdownTimeout: shutdown,
	}, nil
}
