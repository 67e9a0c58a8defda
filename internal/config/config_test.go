package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaults() Config {
	var c Config
	c.LoadDefaults()
	return c
}

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	c := defaults()

	assert.Equal(t, ":8080", c.HTTPAddr)
	assert.Equal(t, ":50051", c.GRPCAddr)
	assert.Equal(t, "ec-key.json", c.KeyFile)
	assert.Equal(t, 24*time.Hour, c.AccessTokenExpire)
	assert.Equal(t, 24*time.Hour, c.RefreshTokenExpire)
	assert.Equal(t, 24*time.Hour, c.MaxRefreshTokenLifetime)
	assert.Equal(t, 60*time.Second, c.ClockSkew)
	assert.Equal(t, "PBKDF2WithHmacSHA512", c.HashAlgorithm)
	assert.Equal(t, 10000, c.Iterations)
	assert.Equal(t, 512, c.OutputBits)
	assert.Equal(t, 16, c.SaltLength)
	assert.Equal(t, "SuperSecretPassword", c.DemoPassword)
	assert.NoError(t, c.Validate())
}

func TestLoadConfig_NoArgs(t *testing.T) {
	c, err := LoadConfig(nil)
	require.NoError(t, err)

	want := defaults()
	assert.Empty(t, cmp.Diff(want, *c))
}

func TestLoadConfig_Precedence(t *testing.T) {
	path := writeTempJSON(t, map[string]any{
		"http_addr":           ":9090",
		"key_file":            "/etc/keys/ec-key.json",
		"access_token_expire": "15m",
		"clock_skew":          int64(5 * time.Second),
		"iterations":          20000,
		"demo_password":       "from-file",
	})

	c, err := LoadConfig([]string{"-config", path, "-http", ":7070", "-access-ttl=1h"})
	require.NoError(t, err)

	want := defaults()
	want.HTTPAddr = ":7070"
	want.KeyFile = "/etc/keys/ec-key.json"
	want.AccessTokenExpire = time.Hour
	want.ClockSkew = 5 * time.Second
	want.Iterations = 20000
	want.DemoPassword = "from-file"

	assert.Empty(t, cmp.Diff(want, *c))
}

func TestLoadConfig_Errors(t *testing.T) {
	badJSON := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(badJSON, []byte("{not json"), 0o600))

	badDuration := writeTempJSON(t, map[string]any{"access_token_expire": "soon"})

	tests := []struct {
		name string
		args []string
	}{
		{"missing file", []string{"-c", filepath.Join(t.TempDir(), "absent.json")}},
		{"invalid json", []string{"-config", badJSON}},
		{"invalid duration", []string{"-config", badDuration}},
		{"unknown algorithm", []string{"-alg", "PBKDF2WithHmacMD5"}},
		{"odd output bits", []string{"-bits", "100"}},
		{"zero iterations", []string{"-iterations", "0"}},
		{"zero lifetime", []string{"-access-ttl", "0s"}},
		{"bad log level", []string{"-log-level", "loud"}},
		{"bad flag value", []string{"-salt", "many"}},
		{"no key file", []string{"-key", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := LoadConfig(tt.args)
			assert.Error(t, err)
			assert.Nil(t, c)
		})
	}
}

func TestLoadConfig_EphemeralKey(t *testing.T) {
	assert.False(t, defaults().EphemeralKey)

	c, err := LoadConfig([]string{"-ephemeral-key", "-key", ""})
	require.NoError(t, err)
	assert.True(t, c.EphemeralKey)
	assert.Empty(t, c.KeyFile)

	path := writeTempJSON(t, map[string]any{"ephemeral_key": true, "key_file": ""})
	c, err = LoadConfig([]string{"-config", path})
	require.NoError(t, err)
	assert.True(t, c.EphemeralKey)

	c, err = LoadConfig([]string{"-config", path, "-ephemeral-key=false"})
	assert.Error(t, err)
	assert.Nil(t, c)
}

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{
			name:    "separate value",
			args:    []string{"-c", "conf.json", "-http", ":1"},
			allowed: []string{"-c", "-config"},
			want:    []string{"-c", "conf.json"},
		},
		{
			name:    "double dash with equals",
			args:    []string{"--config=alt.json", "-http", ":1"},
			allowed: []string{"-config"},
			want:    []string{"--config=alt.json"},
		},
		{
			name:    "unknown flags ignored",
			args:    []string{"-x", "1", "positional"},
			allowed: []string{"-c"},
			want:    []string{},
		},
		{
			name:    "flag followed by another flag",
			args:    []string{"-c", "-http"},
			allowed: []string{"-c"},
			want:    []string{"-c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, filterArgs(tt.args, tt.allowed))
		})
	}
}

func TestDuration_JSON(t *testing.T) {
	var d Duration
	require.NoError(t, json.Unmarshal([]byte(`"1h30m"`), &d))
	assert.Equal(t, 90*time.Minute, d.Duration)

	require.NoError(t, json.Unmarshal([]byte(`1000000000`), &d))
	assert.Equal(t, time.Second, d.Duration)

	assert.Error(t, json.Unmarshal([]byte(`true`), &d))

	b, err := json.Marshal(Duration{Duration: 2 * time.Minute})
	require.NoError(t, err)
	assert.JSONEq(t, `"2m0s"`, string(b))
}

func TestSlogLevel(t *testing.T) {
	c := defaults()
	c.LogLevel = "debug"
	level, err := c.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestHasher(t *testing.T) {
	c := defaults()
	c.SaltLength = 32
	h, err := c.Hasher()
	require.NoError(t, err)
	assert.Equal(t, 32, h.SaltLength())
	assert.Equal(t, 10000, h.Iterations())
}
