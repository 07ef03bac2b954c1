package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"xtags/internal/errors"
)

// Config is the complete xtags configuration, read from
// .xtags/config.toml and overridable via XTAGS_* environment variables
// and CLI flags (flags win, applied by the command layer).
type Config struct {
	// Parser is the external parser command line, split on whitespace.
	Parser string `toml:"parser" mapstructure:"parser"`

	// Kinds is a clause string: kind[:letter[:role[:prefix[:summary]]]],
	// comma separated.
	Kinds string `toml:"kinds" mapstructure:"kinds"`

	// KindsFile points at a YAML or TOML kind manifest. Manifest entries
	// are applied before the Kinds clause string.
	KindsFile string `toml:"kinds_file" mapstructure:"kinds_file"`

	// Xformat overrides the xref output template for the run.
	Xformat string `toml:"xformat" mapstructure:"xformat"`

	Backward           bool `toml:"backward" mapstructure:"backward"`
	PatternLengthLimit int  `toml:"pattern_length_limit" mapstructure:"pattern_length_limit"`

	// Fields lists extra fields (encodedName, summary) to enable.
	Fields []string `toml:"fields" mapstructure:"fields"`

	Output  OutputConfig  `toml:"output" mapstructure:"output"`
	Store   StoreConfig   `toml:"store" mapstructure:"store"`
	Watch   WatchConfig   `toml:"watch" mapstructure:"watch"`
	Logging LoggingConfig `toml:"logging" mapstructure:"logging"`
}

// OutputConfig controls how emitted tags are rendered.
type OutputConfig struct {
	// Format is one of xref, json, none.
	Format string `toml:"format" mapstructure:"format"`

	// Sort orders flushed entries by name, file, line. When false,
	// submission order is kept.
	Sort bool `toml:"sort" mapstructure:"sort"`
}

// StoreConfig controls the SQLite tag store.
type StoreConfig struct {
	Enabled bool `toml:"enabled" mapstructure:"enabled"`

	// Path is relative to the .xtags directory unless absolute.
	Path string `toml:"path" mapstructure:"path"`
}

// WatchConfig controls watch mode.
type WatchConfig struct {
	DebounceMs int      `toml:"debounce_ms" mapstructure:"debounce_ms"`
	Ignore     []string `toml:"ignore" mapstructure:"ignore"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Format string `toml:"format" mapstructure:"format"`
	Level  string `toml:"level" mapstructure:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Parser:             "",
		Kinds:              "",
		KindsFile:          "",
		Xformat:            "",
		Backward:           false,
		PatternLengthLimit: 96,
		Fields:             []string{},
		Output: OutputConfig{
			Format: "xref",
			Sort:   true,
		},
		Store: StoreConfig{
			Enabled: true,
			Path:    "tags.db",
		},
		Watch: WatchConfig{
			DebounceMs: 200,
			Ignore:     []string{".git", ".xtags", "node_modules", "vendor"},
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// EnvOverride records one applied environment variable override.
type EnvOverride struct {
	EnvVar string `json:"envVar"`
	Path   string `json:"path"`
	Value  string `json:"value"`
}

// LoadResult carries the loaded configuration plus provenance details.
type LoadResult struct {
	Config       *Config
	ConfigPath   string
	UsedDefaults bool
	EnvOverrides []EnvOverride
}

// Load reads .xtags/config.toml under repoRoot (or the file named by
// XTAGS_CONFIG_PATH) and applies environment overrides.
func Load(repoRoot string) (*Config, error) {
	result, err := LoadWithDetails(repoRoot)
	if err != nil {
		return nil, err
	}
	return result.Config, nil
}

// LoadWithDetails is Load plus provenance: which file was read, whether
// defaults were used, and which environment overrides applied.
func LoadWithDetails(repoRoot string) (*LoadResult, error) {
	result := &LoadResult{}

	if envPath := os.Getenv("XTAGS_CONFIG_PATH"); envPath != "" {
		cfg, err := loadConfigFromPath(envPath)
		if err != nil {
			return nil, err
		}
		result.Config = cfg
		result.ConfigPath = envPath
	} else {
		v := viper.New()
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(filepath.Join(repoRoot, ".xtags"))

		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, errors.NewXtagsError(errors.ConfigInvalid,
					"cannot read config file", err)
			}
			result.Config = DefaultConfig()
			result.UsedDefaults = true
		} else {
			cfg := DefaultConfig()
			if err := v.Unmarshal(cfg); err != nil {
				return nil, errors.NewXtagsError(errors.ConfigInvalid,
					"cannot decode config file", err)
			}
			result.Config = cfg
			result.ConfigPath = v.ConfigFileUsed()
		}
	}

	result.EnvOverrides = applyEnvOverrides(result.Config)

	if err := result.Config.Validate(); err != nil {
		return nil, err
	}
	return result, nil
}

func loadConfigFromPath(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.NewXtagsError(errors.ConfigInvalid,
			fmt.Sprintf("cannot read config file %s", path), err)
	}
	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.NewXtagsError(errors.ConfigInvalid,
			fmt.Sprintf("cannot decode config file %s", path), err)
	}
	return cfg, nil
}

// Save writes the configuration to .xtags/config.toml under repoRoot.
// The .xtags directory must already exist.
func (c *Config) Save(repoRoot string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return errors.NewXtagsError(errors.ConfigInvalid,
			"cannot encode config", err)
	}
	configPath := filepath.Join(repoRoot, ".xtags", "config.toml")
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return errors.NewXtagsError(errors.ConfigInvalid,
			fmt.Sprintf("cannot write %s", configPath), err)
	}
	return nil
}

// Validate checks enum fields and numeric ranges.
func (c *Config) Validate() error {
	switch c.Output.Format {
	case "xref", "json", "none":
	default:
		return errors.NewXtagsError(errors.ConfigInvalid,
			fmt.Sprintf("output.format %q is not one of xref, json, none", c.Output.Format), nil)
	}
	switch c.Logging.Format {
	case "human", "json":
	default:
		return errors.NewXtagsError(errors.ConfigInvalid,
			fmt.Sprintf("logging.format %q is not one of human, json", c.Logging.Format), nil)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.NewXtagsError(errors.ConfigInvalid,
			fmt.Sprintf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level), nil)
	}
	if c.PatternLengthLimit < 0 {
		return errors.NewXtagsError(errors.ConfigInvalid,
			"pattern_length_limit must be zero or positive", nil)
	}
	if c.Watch.DebounceMs < 0 {
		return errors.NewXtagsError(errors.ConfigInvalid,
			"watch.debounce_ms must be zero or positive", nil)
	}
	for _, f := range c.Fields {
		if f != "encodedName" && f != "summary" {
			return errors.NewXtagsError(errors.ConfigInvalid,
				fmt.Sprintf("unknown extra field %q", f), nil)
		}
	}
	return nil
}

// envVarMappings maps supported environment variables to config paths.
var envVarMappings = map[string]string{
	"XTAGS_PARSER":               "parser",
	"XTAGS_KINDS":                "kinds",
	"XTAGS_KINDS_FILE":           "kinds_file",
	"XTAGS_XFORMAT":              "xformat",
	"XTAGS_BACKWARD":             "backward",
	"XTAGS_PATTERN_LENGTH_LIMIT": "pattern_length_limit",
	"XTAGS_OUTPUT_FORMAT":        "output.format",
	"XTAGS_OUTPUT_SORT":          "output.sort",
	"XTAGS_STORE_ENABLED":        "store.enabled",
	"XTAGS_STORE_PATH":           "store.path",
	"XTAGS_WATCH_DEBOUNCE_MS":    "watch.debounce_ms",
	"XTAGS_LOG_LEVEL":            "logging.level",
	"XTAGS_LOG_FORMAT":           "logging.format",
}

// GetSupportedEnvVars lists the environment variables Load honors.
func GetSupportedEnvVars() []string {
	vars := make([]string, 0, len(envVarMappings)+1)
	vars = append(vars, "XTAGS_CONFIG_PATH")
	for v := range envVarMappings {
		vars = append(vars, v)
	}
	return vars
}

func applyEnvOverrides(cfg *Config) []EnvOverride {
	var overrides []EnvOverride
	for envVar, path := range envVarMappings {
		value, ok := os.LookupEnv(envVar)
		if !ok {
			continue
		}
		if applyOverride(cfg, path, value) {
			overrides = append(overrides, EnvOverride{
				EnvVar: envVar,
				Path:   path,
				Value:  value,
			})
		}
	}
	return overrides
}

// applyOverride sets one dotted config path from a string value.
// Unparseable values are skipped, keeping the prior setting.
func applyOverride(cfg *Config, path, value string) bool {
	switch path {
	case "parser":
		cfg.Parser = value
	case "kinds":
		cfg.Kinds = value
	case "kinds_file":
		cfg.KindsFile = value
	case "xformat":
		cfg.Xformat = value
	case "backward":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return false
		}
		cfg.Backward = b
	case "pattern_length_limit":
		n, err := strconv.Atoi(value)
		if err != nil {
			return false
		}
		cfg.PatternLengthLimit = n
	case "output.format":
		cfg.Output.Format = value
	case "output.sort":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return false
		}
		cfg.Output.Sort = b
	case "store.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return false
		}
		cfg.Store.Enabled = b
	case "store.path":
		cfg.Store.Path = value
	case "watch.debounce_ms":
		n, err := strconv.Atoi(value)
		if err != nil {
			return false
		}
		cfg.Watch.DebounceMs = n
	case "logging.level":
		cfg.Logging.Level = value
	case "logging.format":
		cfg.Logging.Format = value
	default:
		return false
	}
	return true
}
