package server

import (
	"fmt"
	"os"
	"strconv"
)

const (
	serverAddrEnvName = "FACESEG_SERVER_ADDRESS"
	maxUploadEnvName  = "FACESEG_MAX_UPLOAD_MB"

	defaultAddr        = ":8080"
	defaultMaxUploadMB = 32
)

// Config holds the HTTP server settings.
type Config struct {
	Addr        string
	MaxUploadMB int64
}

// LoadConfig reads the server settings from the environment.
func LoadConfig() (Config, error) {
	cfg := Config{
		Addr:        getEnv(serverAddrEnvName, defaultAddr),
		MaxUploadMB: defaultMaxUploadMB,
	}
	if v := getEnv(maxUploadEnvName, ""); v != "" {
		mb, err := strconv.ParseInt(v, 10, 64)
		if err != nil || mb <= 0 {
			return Config{}, fmt.Errorf("%s must be a positive integer, got %q", maxUploadEnvName, v)
		}
		cfg.MaxUploadMB = mb
	}
	return cfg, nil
}

func (c Config) maxUploadBytes() int64 {
	if c.MaxUploadMB <= 0 {
		return defaultMaxUploadMB << 20
	}
	return c.MaxUploadMB << 20
}

func getEnv(k, d string) string {
	if val, ok := os.LookupEnv(k); ok {
		return val
	}
	return d
}
