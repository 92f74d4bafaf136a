package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cronexpr"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, defaultListen, cfg.Listen)
	assert.Equal(t, "UTC", cfg.Timezone)
	require.Len(t, cfg.Schedules, 1)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadNormalizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
timezone: Asia/Shanghai
schedules:
  - name: report
    expr: "  0  9 *  * MON-FRI "
    summary: Daily report
    duration_minutes: 45
  - name: cleanup
    expr: "@daily UTC"
basic_auth:
  username: admin
  password: secret
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, defaultListen, cfg.Listen)
	assert.Equal(t, defaultHorizonDays, cfg.HorizonDays)
	assert.Equal(t, defaultMaxHorizonDays, cfg.MaxHorizonDays)
	assert.Equal(t, defaultMaxOccurrences, cfg.MaxOccurrences)
	assert.Equal(t, "0 9 * * MON-FRI", cfg.Schedules[0].Expr)
	require.NotNil(t, cfg.BasicAuth)
	assert.Equal(t, "admin", cfg.BasicAuth.Username)

	entries, err := cfg.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "report", entries[0].Name)
	assert.Equal(t, 45*time.Minute, entries[0].Duration)
	assert.Equal(t, "Asia/Shanghai", entries[0].Schedule.Location().String())
	assert.Equal(t, 30*time.Minute, entries[1].Duration)
	assert.Equal(t, "UTC", entries[1].Schedule.Location().String())
}

func TestLoadEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: 127.0.0.1:9000\nhorizon_days: 3\n"), 0o600))

	t.Setenv("CRONEXPR_LISTEN", ":7000")
	t.Setenv("CRONEXPR_TIMEZONE", "Europe/Berlin")
	t.Setenv("CRONEXPR_HORIZON_DAYS", "14")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Listen)
	assert.Equal(t, "Europe/Berlin", cfg.Timezone)
	assert.Equal(t, 14, cfg.HorizonDays)
	assert.Nil(t, cfg.BasicAuth)
}

func TestLoadEnvInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: :8080\n"), 0o600))
	t.Setenv("CRONEXPR_HORIZON_DAYS", "soon")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("schedules: [\n"), 0o600))
	_, err := Load(path)
	assert.Error(t, err)

	_, err = Load("")
	assert.Error(t, err)
}

func TestEntriesErrors(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantParse bool
	}{
		{"bad timezone", Config{Timezone: "Mars/Olympus"}, false},
		{"missing name", Config{Timezone: "UTC", Schedules: []ScheduleConfig{{Expr: "* * * * *"}}}, false},
		{"duplicate", Config{Timezone: "UTC", Schedules: []ScheduleConfig{
			{Name: "a", Expr: "* * * * *"}, {Name: "a", Expr: "0 * * * *"},
		}}, false},
		{"bad expression", Config{Timezone: "UTC", Schedules: []ScheduleConfig{
			{Name: "ok", Expr: "* * * * *"}, {Name: "broken", Expr: "61 * * * *"},
		}}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.cfg.Entries()
			require.Error(t, err)
			var perr *cronexpr.ParseError
			assert.Equal(t, tc.wantParse, errors.As(err, &perr))
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.Schedules = append(cfg.Schedules, ScheduleConfig{Name: "hourly", Expr: "@hourly"})
	cfg.BasicAuth = &BasicAuthConfig{Username: "u", Password: "p"}
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	assert.Error(t, Save(path, nil))
}

func TestNormalizeClampsHorizon(t *testing.T) {
	cfg := &Config{HorizonDays: 90, MaxHorizonDays: 30}
	cfg.Normalize()
	assert.Equal(t, 30, cfg.HorizonDays)
	assert.Equal(t, 30, cfg.MaxHorizonDays)
}
