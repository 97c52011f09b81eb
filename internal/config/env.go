package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvAddr          = "POPDYN_ADDR"
	EnvCORSOrigins   = "POPDYN_CORS_ORIGINS"
	EnvMaxResolution = "POPDYN_MAX_RESOLUTION"
)

// LoadEnv reads an optional dotenv file and applies the POPDYN_* server
// overrides to cfg. Variables already set in the environment win over the
// file.
func LoadEnv(cfg *Config, path string) error {
	if path != "" {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}

	if addr := os.Getenv(EnvAddr); addr != "" {
		cfg.Server.Addr = addr
	}
	if origins := os.Getenv(EnvCORSOrigins); origins != "" {
		cfg.Server.CORSOrigins = splitList(origins)
	}
	if raw := os.Getenv(EnvMaxResolution); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return fmt.Errorf("%s: expected an integer >= 1, got %q", EnvMaxResolution, raw)
		}
		cfg.Server.MaxResolution = n
	}
	return nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
