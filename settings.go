package lambda

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Environment variables read at process start.
const (
	EnvSecretARN      = "DB_CREDENTIALS_SECRET_ARN"
	EnvDebug          = "DEBUG"
	EnvLogLevel       = "LOG_LEVEL"
	EnvEnvironment    = "ENVIRONMENT"
	EnvConnectTimeout = "DB_CONNECT_TIMEOUT"
	EnvHTTPAddr       = "HTTP_ADDR"
)

// Settings holds the process configuration.
type Settings struct {
	SecretARN      string        `koanf:"db_credentials_secret_arn"`
	Debug          string        `koanf:"debug"`
	LogLevel       string        `koanf:"log_level"`
	Environment    string        `koanf:"environment"`
	ConnectTimeout time.Duration `koanf:"db_connect_timeout"`
	HTTPAddr       string        `koanf:"http_addr"`
}

// LoadSettings reads the settings from the environment once, on top of the defaults.
// Empty variables keep the defaults.
// A missing secret reference is not an error here; it is reported on invocation.
func LoadSettings() (Settings, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"log_level":          "info",
		"environment":        "production",
		"db_connect_timeout": "5s",
		"http_addr":          ":8080",
	}, "."), nil); err != nil {
		return Settings{}, fmt.Errorf("failed to load defaults: %w", err)
	}

	known := map[string]struct{}{
		EnvSecretARN: {}, EnvDebug: {}, EnvLogLevel: {}, EnvEnvironment: {}, EnvConnectTimeout: {}, EnvHTTPAddr: {},
	}
	if err := k.Load(env.ProviderWithValue("", ".", func(key, value string) (string, interface{}) {
		if _, ok := known[key]; !ok || value == "" {
			return "", nil
		}
		return strings.ToLower(key), value
	}), nil); err != nil {
		return Settings{}, fmt.Errorf("failed to load env vars: %w", err)
	}

	var s Settings
	if err := k.Unmarshal("", &s); err != nil {
		return Settings{}, fmt.Errorf("unable to decode config: %w", err)
	}
	return s, nil
}

// DebugEnabled reports whether the debug logs are requested.
func (s Settings) DebugEnabled() bool {
	return StrToBool(s.Debug)
}

// EffectiveLogLevel returns the log level, forced to debug when DEBUG is set.
func (s Settings) EffectiveLogLevel() string {
	if s.DebugEnabled() {
		return "debug"
	}
	return s.LogLevel
}
