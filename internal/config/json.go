package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"
)

// Duration wraps time.Duration so JSON files may use either
// a string such as "24h" or an integer count of nanoseconds.
type Duration struct {
	time.Duration
}

// UnmarshalJSON implements json.Unmarshaler
func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
		return nil
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		d.Duration = parsed
		return nil
	default:
		return fmt.Errorf("invalid duration %s", string(b))
	}
}

// MarshalJSON implements json.Marshaler
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// JsonConfig is the on-disk shape of the configuration file. Absent fields
// leave the current value untouched.
type JsonConfig struct {
	HTTPAddr                *string   `json:"http_addr"`
	GRPCAddr                *string   `json:"grpc_addr"`
	KeyFile                 *string   `json:"key_file"`
	KeyID                   *string   `json:"key_id"`
	EphemeralKey            *bool     `json:"ephemeral_key"`
	Issuer                  *string   `json:"issuer"`
	AccessTokenExpire       *Duration `json:"access_token_expire"`
	RefreshTokenExpire      *Duration `json:"refresh_token_expire"`
	MaxRefreshTokenLifetime *Duration `json:"max_refresh_token_lifetime"`
	ClockSkew               *Duration `json:"clock_skew"`
	HashAlgorithm           *string   `json:"hash_algorithm"`
	Iterations              *int      `json:"iterations"`
	OutputBits              *int      `json:"output_bits"`
	SaltLength              *int      `json:"salt_length"`
	DemoPassword            *string   `json:"demo_password"`
	LogLevel                *string   `json:"log_level"`
}

// jsonConfigFile returns the value of -c or -config in args, or "".
func jsonConfigFile(args []string) string {
	var path string

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&path, "config", "", "Path to config file")
	fs.StringVar(&path, "c", "", "Path to config file (short)")
	_ = fs.Parse(filterArgs(args, []string{"-c", "-config"}))

	return path
}

// parseJson overlays values from the JSON file named by -config onto config.
// Without the flag nothing is loaded.
func parseJson(config *Config, args []string) error {
	path := jsonConfigFile(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.GRPCAddr, c.GRPCAddr)
	setString(&config.KeyFile, c.KeyFile)
	setString(&config.KeyID, c.KeyID)
	setBool(&config.EphemeralKey, c.EphemeralKey)
	setString(&config.Issuer, c.Issuer)
	setDuration(&config.AccessTokenExpire, c.AccessTokenExpire)
	setDuration(&config.RefreshTokenExpire, c.RefreshTokenExpire)
	setDuration(&config.MaxRefreshTokenLifetime, c.MaxRefreshTokenLifetime)
	setDuration(&config.ClockSkew, c.ClockSkew)
	setString(&config.HashAlgorithm, c.HashAlgorithm)
	setInt(&config.Iterations, c.Iterations)
	setInt(&config.OutputBits, c.OutputBits)
	setInt(&config.SaltLength, c.SaltLength)
	setString(&config.DemoPassword, c.DemoPassword)
	setString(&config.LogLevel, c.LogLevel)

	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
