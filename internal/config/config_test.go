package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/drafti/drafti-backend/internal/testutil"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, cfg, Default())
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `{
		"addr": ":8080",
		"initialClock": 300,
		"clockSweep": "100ms",
		"aiLevel": 7
	}`)

	cfg, err := Load(path)
	testutil.AssertNoError(t, err)

	want := Default()
	want.Addr = ":8080"
	want.InitialClock = Duration{5 * time.Minute}
	want.ClockSweep = Duration{100 * time.Millisecond}
	want.AILevel = 7
	testutil.AssertEqual(t, cfg, want)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `{"addr": ":8080", "aiLevel": 2}`)
	t.Setenv("DRAFTI_ADDR", ":9090")
	t.Setenv("DRAFTI_AI_LEVEL", "5")
	t.Setenv("DRAFTI_AI_MOVE_DELAY", "0s")

	cfg, err := Load(path)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, cfg.Addr, ":9090")
	testutil.AssertEqual(t, cfg.AILevel, 5)
	testutil.AssertEqual(t, cfg.AIMoveDelay.Duration, time.Duration(0))
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		env  map[string]string
	}{
		{name: "malformed json", body: `{"addr":`},
		{name: "bad duration", body: `{"clockSweep": "soon"}`},
		{name: "zero tick", body: `{"matchmakingTick": 0}`},
		{name: "level too high", body: `{"aiLevel": 8}`},
		{name: "unknown log level", body: `{"logLevel": "loud"}`},
		{name: "env level", body: `{}`, env: map[string]string{"DRAFTI_AI_LEVEL": "hard"}},
		{name: "env duration", body: `{}`, env: map[string]string{"DRAFTI_CLOCK_SWEEP": "-"}},
		{name: "negative delay", body: `{"aiMoveDelay": "-1s"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeConfig(t, tt.body))
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Load error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load error = %v, want os.ErrNotExist", err)
	}
}
