// Package config resolves lit settings from ~/.config/lit/config.yml, a
// .env file and the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// GlobalConfig represents configuration stored in ~/.config/lit/config.yml.
type GlobalConfig struct {
	Crossref  CrossrefConfig `yaml:"crossref,omitempty"`
	LLM       LLMConfig      `yaml:"llm,omitempty"`
	Springer  SpringerConfig `yaml:"springer,omitempty"`
	Stopwords []string       `yaml:"stopwords,omitempty"`
	Database  string         `yaml:"database,omitempty"`
}

// CrossrefConfig configures the Crossref tools. Delays are in seconds.
type CrossrefConfig struct {
	Mailto     string  `yaml:"mailto,omitempty"`
	BaseURL    string  `yaml:"base_url,omitempty"`
	CheckDelay float64 `yaml:"check_delay,omitempty"`
	FindDelay  float64 `yaml:"find_delay,omitempty"`
}

// LLMConfig configures the chat completion endpoint.
type LLMConfig struct {
	Endpoint string  `yaml:"endpoint,omitempty"`
	Model    string  `yaml:"model,omitempty"`
	APIKey   string  `yaml:"api_key,omitempty"`
	Delay    float64 `yaml:"delay,omitempty"`
}

// SpringerConfig configures the feed crawler.
type SpringerConfig struct {
	UserAgent string  `yaml:"user_agent,omitempty"`
	Delay     float64 `yaml:"delay,omitempty"`
	MaxPages  int     `yaml:"max_pages,omitempty"`
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "lit"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"
)

var globalConfigCache *GlobalConfig

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/lit/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// LoadGlobalConfig loads the global configuration file.
// Returns an empty config (not an error) if the file doesn't exist.
func LoadGlobalConfig() (*GlobalConfig, error) {
	if globalConfigCache != nil {
		return globalConfigCache, nil
	}

	path := GlobalConfigPath()
	if path == "" {
		return &GlobalConfig{}, nil
	}

	cfg, err := ReadGlobalConfig(path)
	if err != nil {
		return nil, err
	}
	globalConfigCache = cfg
	return cfg, nil
}

// ReadGlobalConfig parses the config file at path. A missing file yields
// an empty config.
func ReadGlobalConfig(path string) (*GlobalConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &GlobalConfig{}, nil
		}
		return nil, fmt.Errorf("reading global config: %w", err)
	}

	var cfg GlobalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing global config: %w", err)
	}
	if cfg.Database != "" {
		cfg.Database = ExpandPath(cfg.Database)
	}
	return &cfg, nil
}

// SaveGlobalConfig writes cfg to path, creating the directory. The file may
// hold an API key, so it is only readable by its owner.
func SaveGlobalConfig(path string, cfg *GlobalConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding global config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing global config: %w", err)
	}
	ResetGlobalConfigCache()
	return nil
}

type configKey struct {
	get func(*GlobalConfig) string
	set func(*GlobalConfig, string) error
}

func stringKey(field func(*GlobalConfig) *string) configKey {
	return configKey{
		get: func(c *GlobalConfig) string { return *field(c) },
		set: func(c *GlobalConfig, v string) error { *field(c) = v; return nil },
	}
}

func secondsKey(field func(*GlobalConfig) *float64) configKey {
	return configKey{
		get: func(c *GlobalConfig) string {
			if *field(c) == 0 {
				return ""
			}
			return strconv.FormatFloat(*field(c), 'f', -1, 64)
		},
		set: func(c *GlobalConfig, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil || f < 0 {
				return fmt.Errorf("invalid number of seconds: %q", v)
			}
			*field(c) = f
			return nil
		},
	}
}

var configKeys = map[string]configKey{
	"crossref.mailto":      stringKey(func(c *GlobalConfig) *string { return &c.Crossref.Mailto }),
	"crossref.base_url":    stringKey(func(c *GlobalConfig) *string { return &c.Crossref.BaseURL }),
	"crossref.check_delay": secondsKey(func(c *GlobalConfig) *float64 { return &c.Crossref.CheckDelay }),
	"crossref.find_delay":  secondsKey(func(c *GlobalConfig) *float64 { return &c.Crossref.FindDelay }),
	"llm.endpoint":         stringKey(func(c *GlobalConfig) *string { return &c.LLM.Endpoint }),
	"llm.model":            stringKey(func(c *GlobalConfig) *string { return &c.LLM.Model }),
	"llm.api_key":          stringKey(func(c *GlobalConfig) *string { return &c.LLM.APIKey }),
	"llm.delay":            secondsKey(func(c *GlobalConfig) *float64 { return &c.LLM.Delay }),
	"springer.user_agent":  stringKey(func(c *GlobalConfig) *string { return &c.Springer.UserAgent }),
	"springer.delay":       secondsKey(func(c *GlobalConfig) *float64 { return &c.Springer.Delay }),
	"springer.max_pages": {
		get: func(c *GlobalConfig) string {
			if c.Springer.MaxPages == 0 {
				return ""
			}
			return strconv.Itoa(c.Springer.MaxPages)
		},
		set: func(c *GlobalConfig, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return fmt.Errorf("invalid page count: %q", v)
			}
			c.Springer.MaxPages = n
			return nil
		},
	},
	"database": stringKey(func(c *GlobalConfig) *string { return &c.Database }),
	"stopwords": {
		get: func(c *GlobalConfig) string { return strings.Join(c.Stopwords, ",") },
		set: func(c *GlobalConfig, v string) error {
			c.Stopwords = nil
			for _, w := range strings.Split(v, ",") {
				if w = strings.TrimSpace(w); w != "" {
					c.Stopwords = append(c.Stopwords, w)
				}
			}
			return nil
		},
	},
}

// ConfigKeys lists the keys accepted by GetValue and SetValue.
func ConfigKeys() []string {
	keys := make([]string, 0, len(configKeys))
	for k := range configKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GetValue returns the file value of a dotted key such as "llm.model".
func (c *GlobalConfig) GetValue(key string) (string, error) {
	k, ok := configKeys[key]
	if !ok {
		return "", fmt.Errorf("unknown config key: %s (valid: %s)", key, strings.Join(ConfigKeys(), ", "))
	}
	return k.get(c), nil
}

// SetValue sets a dotted key. Numbers are validated; stopwords take a
// comma-separated list.
func (c *GlobalConfig) SetValue(key, value string) error {
	k, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("unknown config key: %s (valid: %s)", key, strings.Join(ConfigKeys(), ", "))
	}
	return k.set(c, strings.TrimSpace(value))
}

// ResetGlobalConfigCache clears the cached global config.
// Useful for testing.
func ResetGlobalConfigCache() {
	globalConfigCache = nil
}

// ExpandPath expands ~ to the user's home directory.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

// HelpfulConfigMessage explains where settings can be placed.
func HelpfulConfigMessage() string {
	configPath := GlobalConfigPath()
	return fmt.Sprintf(`Settings are read from %s, a .env file in the working directory,
and the environment (OPENAI_API_KEY, LIT_OPENAI_MODEL, LIT_OPENAI_ENDPOINT,
LIT_CROSSREF_MAILTO, LIT_CROSSREF_BASE_URL, LIT_DATABASE).

Example:
  mkdir -p %s
  printf 'crossref:\n  mailto: you@example.org\n' > %s`,
		configPath,
		filepath.Dir(configPath),
		configPath)
}
