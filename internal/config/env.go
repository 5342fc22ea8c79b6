package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const EnvPrefix = "PLANETS_"

// ApplyEnv loads the given .env files (".env" when none are given) and then
// overlays PLANETS_* variables onto cfg. Variables already present in the
// process environment win over the files. A missing .env file is not an
// error.
func ApplyEnv(cfg *Config, files ...string) error {
	if err := godotenv.Load(files...); err != nil {
		slog.Debug("no .env file loaded, using process environment", "component", "config", "error", err)
	}

	var err error
	setFloat := func(name string, dst *float64) {
		if v, ok := lookup(name); ok && err == nil {
			var f float64
			if f, err = strconv.ParseFloat(v, 64); err != nil {
				err = fmt.Errorf("config: %s%s: %w", EnvPrefix, name, err)
				return
			}
			*dst = f
		}
	}
	setInt := func(name string, dst *int) {
		if v, ok := lookup(name); ok && err == nil {
			var n int
			if n, err = strconv.Atoi(v); err != nil {
				err = fmt.Errorf("config: %s%s: %w", EnvPrefix, name, err)
				return
			}
			*dst = n
		}
	}

	setFloat("SPEED", &cfg.Simulation.Speed)
	setInt("STEPS_PER_FRAME", &cfg.Simulation.StepsPerFrame)
	setInt("WORKERS", &cfg.Simulation.Workers)
	setInt("RANDOM_COUNT", &cfg.Random.Count)
	setInt("SERVER_FPS", &cfg.Server.FPS)
	setFloat("COMMANDS_PER_SECOND", &cfg.Server.CommandsPerSecond)
	setInt("COMMAND_BURST", &cfg.Server.CommandBurst)
	if err != nil {
		return err
	}

	if v, ok := lookup("SEED"); ok {
		seed, perr := strconv.ParseUint(v, 10, 64)
		if perr != nil {
			return fmt.Errorf("config: %sSEED: %w", EnvPrefix, perr)
		}
		cfg.Simulation.Seed = seed
	}
	if v, ok := lookup("SERVER_ADDR"); ok {
		cfg.Server.Addr = v
	}
	if v, ok := lookup("ALLOWED_ORIGINS"); ok {
		cfg.Server.AllowedOrigins = splitList(v)
	}
	if v, ok := lookup("LOG_LEVEL"); ok {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v, ok := lookup("LOG_JSON"); ok {
		cfg.Logging.JSON = v == "true" || v == "1"
	}
	if v, ok := lookup("THEME"); ok {
		cfg.Viewer.Theme = v
	}

	return cfg.Validate()
}

func lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + name)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
