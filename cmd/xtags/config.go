package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"xtags/internal/config"
)

var (
	configShow   bool
	configEnv    bool
	configFormat string
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect xtags configuration",
	Long: `Display the effective configuration and where it came from.

Examples:
  xtags config --show                 # Effective config with provenance
  xtags config --show --format json   # Machine-readable form
  xtags config --env                  # Supported environment variables`,
	RunE: runConfig,
}

func init() {
	configCmd.Flags().BoolVar(&configShow, "show", false, "Show the effective configuration")
	configCmd.Flags().BoolVar(&configEnv, "env", false, "List supported environment variables")
	configCmd.Flags().StringVar(&configFormat, "format", "human", "Output format (human, json)")
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	if configEnv {
		printEnvVars(os.Stdout)
		return nil
	}
	if !configShow {
		return cmd.Help()
	}

	repoRoot := mustRepoRoot()
	result, err := config.LoadWithDetails(repoRoot)
	if err != nil {
		return err
	}

	if configFormat == "json" {
		return printConfigJSON(os.Stdout, result)
	}
	return printConfigHuman(os.Stdout, result)
}

// configShowResponse is the machine-readable config show form.
type configShowResponse struct {
	ConfigPath   string                 `json:"configPath,omitempty"`
	UsedDefaults bool                   `json:"usedDefaults"`
	EnvOverrides []config.EnvOverride   `json:"envOverrides,omitempty"`
	Config       map[string]interface{} `json:"config"`
}

func printConfigJSON(w io.Writer, result *config.LoadResult) error {
	cfgMap, err := configAsMap(result.Config)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(configShowResponse{
		ConfigPath:   result.ConfigPath,
		UsedDefaults: result.UsedDefaults,
		EnvOverrides: result.EnvOverrides,
		Config:       cfgMap,
	}, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func printConfigHuman(w io.Writer, result *config.LoadResult) error {
	fmt.Fprintln(w, "xtags configuration")
	fmt.Fprintln(w, strings.Repeat("─", 50))

	if result.UsedDefaults {
		fmt.Fprintln(w, "Source: defaults (no config file found)")
	} else {
		fmt.Fprintf(w, "Source: %s\n", result.ConfigPath)
	}

	if len(result.EnvOverrides) > 0 {
		fmt.Fprintln(w, "\nEnvironment overrides:")
		for _, ov := range result.EnvOverrides {
			fmt.Fprintf(w, "  %s=%s (%s)\n", ov.EnvVar, ov.Value, ov.Path)
		}
	}

	data, err := toml.Marshal(result.Config)
	if err != nil {
		return err
	}
	fmt.Fprintln(w)
	_, err = w.Write(data)
	return err
}

// configAsMap round-trips the config through TOML so the JSON form
// uses the same snake_case keys as the config file.
func configAsMap(cfg *config.Config) (map[string]interface{}, error) {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

var envVarHelp = []struct {
	name    string
	desc    string
	varType string
}{
	{"XTAGS_CONFIG_PATH", "Path to config file", "string"},
	{"XTAGS_PARSER", "External parser command", "string"},
	{"XTAGS_KINDS", "Kind clause string", "string"},
	{"XTAGS_KINDS_FILE", "Kind manifest path", "string"},
	{"XTAGS_XFORMAT", "Xref line template", "string"},
	{"XTAGS_BACKWARD", "Emit backward search patterns", "bool"},
	{"XTAGS_PATTERN_LENGTH_LIMIT", "Pattern length cap in bytes", "int"},
	{"XTAGS_OUTPUT_FORMAT", "Output format (xref, json, none)", "string"},
	{"XTAGS_OUTPUT_SORT", "Sort emitted tags", "bool"},
	{"XTAGS_STORE_ENABLED", "Persist tags to the store", "bool"},
	{"XTAGS_STORE_PATH", "Tag database path", "string"},
	{"XTAGS_WATCH_DEBOUNCE_MS", "Watch debounce window", "int"},
	{"XTAGS_LOG_LEVEL", "Log level (debug, info, warn, error)", "string"},
	{"XTAGS_LOG_FORMAT", "Log format (human, json)", "string"},
}

func printEnvVars(w io.Writer) {
	fmt.Fprintln(w, "Supported environment variables")
	fmt.Fprintln(w, strings.Repeat("─", 50))
	fmt.Fprintln(w)
	for _, v := range envVarHelp {
		fmt.Fprintf(w, "  %-28s %s (%s)\n", v.name, v.desc, v.varType)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Example usage:")
	fmt.Fprintln(w, "  XTAGS_LOG_LEVEL=debug xtags index src/main.c")
	fmt.Fprintln(w, "  XTAGS_PARSER='python3 tags.py' xtags index -L -")
}
