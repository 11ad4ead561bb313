// Package config loads server settings from an optional config.json and
// DRAFTI_* environment variables.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidConfig = errors.New("invalid config")

// Duration reads either a Go duration string ("250ms") or whole seconds.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var secs float64
	if err := json.Unmarshal(data, &secs); err == nil {
		d.Duration = time.Duration(secs * float64(time.Second))
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("duration must be a string or a number of seconds: %s", data)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

type Config struct {
	Addr            string   `json:"addr"`
	AllowedOrigins  string   `json:"allowedOrigins"`
	LogLevel        string   `json:"logLevel"`
	InitialClock    Duration `json:"initialClock"`
	MatchmakingTick Duration `json:"matchmakingTick"`
	ClockSweep      Duration `json:"clockSweep"`
	AILevel         int      `json:"aiLevel"`
	AIMoveDelay     Duration `json:"aiMoveDelay"`
}

func Default() Config {
	return Config{
		Addr:            ":3000",
		AllowedOrigins:  "http://localhost:5173",
		LogLevel:        "info",
		InitialClock:    Duration{600 * time.Second},
		MatchmakingTick: Duration{time.Second},
		ClockSweep:      Duration{250 * time.Millisecond},
		AILevel:         3,
		AIMoveDelay:     Duration{300 * time.Millisecond},
	}
}

// Load starts from Default, overlays the JSON file at path (skipped when path
// is empty) and then the environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type lookupFunc func(key string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	if v, ok := lookup("DRAFTI_ADDR"); ok {
		c.Addr = v
	}
	if v, ok := lookup("DRAFTI_ALLOWED_ORIGINS"); ok {
		c.AllowedOrigins = v
	}
	if v, ok := lookup("DRAFTI_LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	durations := []struct {
		key string
		dst *Duration
	}{
		{"DRAFTI_INITIAL_CLOCK", &c.InitialClock},
		{"DRAFTI_MATCHMAKING_TICK", &c.MatchmakingTick},
		{"DRAFTI_CLOCK_SWEEP", &c.ClockSweep},
		{"DRAFTI_AI_MOVE_DELAY", &c.AIMoveDelay},
	}
	for _, d := range durations {
		v, ok := lookup(d.key)
		if !ok {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, d.key, err)
		}
		d.dst.Duration = parsed
	}
	if v, ok := lookup("DRAFTI_AI_LEVEL"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: DRAFTI_AI_LEVEL: %v", ErrInvalidConfig, err)
		}
		c.AILevel = n
	}
	return nil
}

var logLevels = []string{"trace", "debug", "info", "warn", "error", "fatal", "panic"}

func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: empty addr", ErrInvalidConfig)
	}
	if c.AILevel < 1 || c.AILevel > 7 {
		return fmt.Errorf("%w: ai level %d not in 1..7", ErrInvalidConfig, c.AILevel)
	}
	for name, d := range map[string]Duration{
		"initialClock":    c.InitialClock,
		"matchmakingTick": c.MatchmakingTick,
		"clockSweep":      c.ClockSweep,
	} {
		if d.Duration <= 0 {
			return fmt.Errorf("%w: %s must be positive", ErrInvalidConfig, name)
		}
	}
	if c.AIMoveDelay.Duration < 0 {
		return fmt.Errorf("%w: aiMoveDelay must not be negative", ErrInvalidConfig)
	}
	level := strings.ToLower(c.LogLevel)
	for _, l := range logLevels {
		if l == level {
			return nil
		}
	}
	return fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, c.LogLevel)
}
