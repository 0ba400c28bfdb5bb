// Package config loads client configuration from a YAML, TOML or JSON file
// and applies SIRC_* environment variable overrides.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config represents the client configuration
type Config struct {
	// Server settings
	Server struct {
		Host string `yaml:"host" toml:"host" json:"host" env:"SIRC_SERVER_HOST"`
		Port int    `yaml:"port" toml:"port" json:"port" env:"SIRC_SERVER_PORT"`
	} `yaml:"server" toml:"server" json:"server"`

	// Login settings
	Nick     string `yaml:"nick" toml:"nick" json:"nick" env:"SIRC_NICK"`
	Password string `yaml:"password" toml:"password" json:"password" env:"SIRC_PASSWORD"`

	// Channels are joined right after connecting.
	Channels []string `yaml:"channels" toml:"channels" json:"channels" env:"SIRC_CHANNELS"`

	// Rate limiting and timeouts
	FlushInterval Duration `yaml:"flush_interval" toml:"flush_interval" json:"flush_interval" env:"SIRC_FLUSH_INTERVAL"`
	LoginTimeout  Duration `yaml:"login_timeout" toml:"login_timeout" json:"login_timeout" env:"SIRC_LOGIN_TIMEOUT"`

	// Malformed-line limit; disabled when Burst is zero.
	Malformed struct {
		PerMinute float64 `yaml:"per_minute" toml:"per_minute" json:"per_minute" env:"SIRC_MALFORMED_PER_MINUTE"`
		Burst     int     `yaml:"burst" toml:"burst" json:"burst" env:"SIRC_MALFORMED_BURST"`
	} `yaml:"malformed" toml:"malformed" json:"malformed"`

	// Observability
	LogLevel    string `yaml:"log_level" toml:"log_level" json:"log_level" env:"SIRC_LOG_LEVEL"`
	MetricsAddr string `yaml:"metrics_addr" toml:"metrics_addr" json:"metrics_addr" env:"SIRC_METRICS_ADDR"`

	// Configuration source, empty when only defaults and the environment were used
	Source string `yaml:"-" toml:"-" json:"-"`
}

// Duration is a time.Duration that decodes from strings like "1.5s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler, used by toml and json.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	return d.UnmarshalText([]byte(value.Value))
}

// Default returns a configuration for the Twitch chat server.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Host = "irc.chat.twitch.tv"
	cfg.Server.Port = 6667
	cfg.FlushInterval = Duration{1500 * time.Millisecond}
	cfg.Malformed.PerMinute = 60
	cfg.LogLevel = "info"
	return cfg
}

// Load loads configuration from a file. An empty source uses the defaults.
// Environment variables override values from the file.
func Load(source string) (*Config, error) {
	cfg := Default()

	if source != "" {
		if err := cfg.loadFromFile(source); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile loads configuration from a file
func (c *Config) loadFromFile(source string) error {
	data, err := os.ReadFile(source)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// Determine the format based on file extension
	switch {
	case strings.HasSuffix(source, ".yaml") || strings.HasSuffix(source, ".yml"):
		err = yaml.Unmarshal(data, c)
	case strings.HasSuffix(source, ".toml"):
		err = toml.Unmarshal(data, c)
	case strings.HasSuffix(source, ".json"):
		err = json.Unmarshal(data, c)
	default:
		// Default to YAML
		err = yaml.Unmarshal(data, c)
	}

	if err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	c.Source = source
	return nil
}

// Validate reports the first setting that would prevent a connection.
func (c *Config) Validate() error {
	switch {
	case c.Nick == "":
		return errors.New("config: nick is required")
	case strings.ContainsAny(c.Nick, " \r\n"):
		return fmt.Errorf("config: nick %q contains whitespace", c.Nick)
	case c.Server.Host == "":
		return errors.New("config: server host is required")
	case c.Server.Port <= 0 || c.Server.Port > 65535:
		return fmt.Errorf("config: invalid server port %d", c.Server.Port)
	case c.FlushInterval.Duration <= 0:
		return fmt.Errorf("config: flush interval must be positive, got %s", c.FlushInterval)
	case c.Malformed.Burst < 0:
		return fmt.Errorf("config: malformed burst must not be negative, got %d", c.Malformed.Burst)
	}
	for _, ch := range c.Channels {
		if !strings.HasPrefix(ch, "#") || strings.ContainsAny(ch, " ,\r\n") {
			return fmt.Errorf("config: invalid channel name %q", ch)
		}
	}
	return nil
}

// Addr returns the host:port address of the server.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// applyEnvOverrides applies environment variable overrides to the configuration
func applyEnvOverrides(cfg *Config) {
	applyEnvOverridesRecursive(reflect.ValueOf(cfg).Elem())
}

var durationType = reflect.TypeOf(Duration{})

// applyEnvOverridesRecursive recursively applies environment variable overrides
func applyEnvOverridesRecursive(v reflect.Value) {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldValue := v.Field(i)

		// Skip unexported fields
		if field.PkgPath != "" {
			continue
		}

		envTag := field.Tag.Get("env")

		if envTag != "" {
			if envValue, exists := os.LookupEnv(envTag); exists {
				setFieldFromEnv(fieldValue, envValue)
			}
		} else if field.Type.Kind() == reflect.Struct {
			applyEnvOverridesRecursive(fieldValue)
		}
	}
}

// setFieldFromEnv sets a field's value from an environment variable.
// Values that fail to parse leave the field unchanged.
func setFieldFromEnv(field reflect.Value, envValue string) {
	if field.Type() == durationType {
		var d Duration
		if err := d.UnmarshalText([]byte(envValue)); err == nil {
			field.Set(reflect.ValueOf(d))
		}
		return
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(envValue)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if v, err := strconv.ParseInt(envValue, 10, 64); err == nil {
			field.SetInt(v)
		}
	case reflect.Float32, reflect.Float64:
		if v, err := strconv.ParseFloat(envValue, 64); err == nil {
			field.SetFloat(v)
		}
	case reflect.Bool:
		if v, err := strconv.ParseBool(envValue); err == nil {
			field.SetBool(v)
		}
	case reflect.Slice:
		// Handle string slices
		if field.Type().Elem().Kind() == reflect.String {
			values := strings.Split(envValue, ",")
			slice := reflect.MakeSlice(field.Type(), len(values), len(values))
			for i, v := range values {
				slice.Index(i).SetString(strings.TrimSpace(v))
			}
			field.Set(slice)
		}
	}
}
