package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"boardcheck/pkg/logging"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load reads the settings file and resolves overrides. A missing or
// unreadable file is a fatal *ConfigurationError.
func Load(opts LoadOptions) (*Config, error) {
	path := opts.Path
	if path == "" {
		path = DefaultFileName
	}

	if opts.EnvFile != "" {
		if err := loadEnvFile(opts.EnvFile); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logging.Error("ConfigLoader", err, "Cannot read settings file %s", path)
		return nil, newIOError(path, err)
	}

	values, err := parseSettings(data)
	if err != nil {
		return nil, newParseError(path, err)
	}

	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}

	cfg := &Config{
		path:            path,
		values:          values,
		env:             make(map[string]string),
		browserOverride: strings.TrimSpace(opts.BrowserOverride),
	}

	if v, ok := lookup(CIEnvVar); ok {
		cfg.ciMode, _ = strconv.ParseBool(strings.TrimSpace(v))
	}
	if cfg.ciMode {
		cfg.lookupEnv = lookup
		for _, key := range cfg.knownKeys() {
			if v, ok := lookup(EnvKey(key)); ok && strings.TrimSpace(v) != "" {
				cfg.env[key] = v
			}
		}
		logging.Info("ConfigLoader", "CI mode: %d settings overridden from environment", len(cfg.env))
	}

	logging.Info("ConfigLoader", "Loaded %d settings from %s", len(values), path)
	return cfg, nil
}

// FromMap builds a Config from literal values, bypassing the file. It is
// meant for tests and for embedding boardcheck in other programs.
func FromMap(values map[string]string) *Config {
	copied := make(map[string]string, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return &Config{path: "<memory>", values: copied, env: map[string]string{}}
}

func loadEnvFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Debug("ConfigLoader", "No env file at %s, skipping", path)
			return nil
		}
		return newIOError(path, err)
	}
	// godotenv.Load never overrides variables already present in the process.
	if err := godotenv.Load(path); err != nil {
		return newParseError(path, err)
	}
	logging.Debug("ConfigLoader", "Loaded env file %s", path)
	return nil
}

// parseSettings accepts nested YAML maps as well as flat dotted keys.
func parseSettings(data []byte) (map[string]string, error) {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	values := make(map[string]string)
	flatten("", raw, values)
	return values, nil
}

func flatten(prefix string, in map[string]interface{}, out map[string]string) {
	for k, v := range in {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch typed := v.(type) {
		case map[string]interface{}:
			flatten(key, typed, out)
		case nil:
			out[key] = ""
		default:
			out[key] = fmt.Sprint(typed)
		}
	}
}

// EnvKey derives the environment variable name for a settings key:
// upper-cased with separators replaced by underscores.
func EnvKey(key string) string {
	r := strings.NewReplacer(".", "_", "-", "_")
	return strings.ToUpper(r.Replace(key))
}

func (c *Config) knownKeys() []string {
	seen := make(map[string]bool)
	var keys []string
	for k := range c.values {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	for k := range defaults {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	for _, k := range []string{KeyAPIKey, KeyToken, KeyUsername, KeyPassword} {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Path returns the settings file this Config was loaded from.
func (c *Config) Path() string {
	return c.path
}

// CIMode reports whether environment overrides were consulted.
func (c *Config) CIMode() bool {
	return c.ciMode
}

// Get resolves key. In CI mode a non-blank value of the EnvKey(key)
// variable wins over the file, for any key; otherwise the file value, then
// the built-in default, is used.
func (c *Config) Get(key string) (string, bool) {
	if v, ok := c.env[key]; ok {
		return v, true
	}
	if c.lookupEnv != nil {
		if v, ok := c.lookupEnv(EnvKey(key)); ok && strings.TrimSpace(v) != "" {
			return v, true
		}
	}
	if v, ok := c.values[key]; ok {
		return v, true
	}
	if v, ok := defaults[key]; ok {
		return v, true
	}
	return "", false
}

// GetOr returns the resolved value or def when the key is absent or blank.
func (c *Config) GetOr(key, def string) string {
	if v, ok := c.Get(key); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

// Browser resolves the web browser selector. A per-run override beats the
// environment and the file.
func (c *Config) Browser() string {
	if c.browserOverride != "" {
		return strings.ToLower(c.browserOverride)
	}
	return strings.ToLower(c.GetOr(KeyBrowser, "chrome"))
}

// Duration parses key as a Go duration, falling back to def.
func (c *Config) Duration(key string, def time.Duration) time.Duration {
	v, ok := c.Get(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		logging.Warn("Config", "Invalid duration %q for %s, using %s", v, key, def)
		return def
	}
	return d
}

// Bool parses key as a boolean, falling back to def.
func (c *Config) Bool(key string, def bool) bool {
	v, ok := c.Get(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		logging.Warn("Config", "Invalid boolean %q for %s, using %t", v, key, def)
		return def
	}
	return b
}

// Int parses key as an integer, falling back to def.
func (c *Config) Int(key string, def int) int {
	v, ok := c.Get(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		logging.Warn("Config", "Invalid integer %q for %s, using %d", v, key, def)
		return def
	}
	return n
}

// Waits returns the element wait budgets.
func (c *Config) Waits() WaitSettings {
	return WaitSettings{
		Timeout:       c.Duration(KeyWaitTimeout, 10*time.Second),
		MobileTimeout: c.Duration(KeyWaitMobileTimeout, 20*time.Second),
		PollInterval:  c.Duration(KeyWaitPollInterval, 250*time.Millisecond),
	}
}
