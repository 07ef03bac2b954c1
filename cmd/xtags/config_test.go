package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"xtags/internal/config"
)

func TestEnvVarHelpMatchesSupportedVars(t *testing.T) {
	supported := config.GetSupportedEnvVars()

	listed := make(map[string]bool, len(envVarHelp))
	for _, v := range envVarHelp {
		listed[v.name] = true
	}

	for _, name := range supported {
		if !listed[name] {
			t.Errorf("supported env var %s missing from help table", name)
		}
	}
	if len(envVarHelp) != len(supported) {
		t.Errorf("help table lists %d vars, config supports %d", len(envVarHelp), len(supported))
	}
}

func TestConfigAsMap(t *testing.T) {
	m, err := configAsMap(config.DefaultConfig())
	if err != nil {
		t.Fatalf("configAsMap() error = %v", err)
	}

	if _, ok := m["pattern_length_limit"]; !ok {
		t.Error("map missing pattern_length_limit")
	}
	out, ok := m["output"].(map[string]interface{})
	if !ok {
		t.Fatalf("output section missing or wrong type: %v", m["output"])
	}
	if out["format"] != "xref" {
		t.Errorf("output.format = %v, want xref", out["format"])
	}
}

func TestPrintConfigHuman(t *testing.T) {
	result := &config.LoadResult{
		Config:       config.DefaultConfig(),
		UsedDefaults: true,
		EnvOverrides: []config.EnvOverride{
			{EnvVar: "XTAGS_PARSER", Path: "parser", Value: "python3 tags.py"},
		},
	}

	var buf bytes.Buffer
	if err := printConfigHuman(&buf, result); err != nil {
		t.Fatalf("printConfigHuman() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"Source: defaults",
		"XTAGS_PARSER=python3 tags.py",
		"pattern_length_limit",
		"[output]",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintConfigJSON(t *testing.T) {
	result := &config.LoadResult{
		Config:     config.DefaultConfig(),
		ConfigPath: "/repo/.xtags/config.toml",
	}

	var buf bytes.Buffer
	if err := printConfigJSON(&buf, result); err != nil {
		t.Fatalf("printConfigJSON() error = %v", err)
	}

	var resp struct {
		ConfigPath   string                 `json:"configPath"`
		UsedDefaults bool                   `json:"usedDefaults"`
		Config       map[string]interface{} `json:"config"`
	}
	if err := json.Unmarshal(buf.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.ConfigPath != "/repo/.xtags/config.toml" {
		t.Errorf("configPath = %q", resp.ConfigPath)
	}
	if resp.Config["output"] == nil {
		t.Error("config.output missing from JSON form")
	}
}

func TestPrintEnvVarsListsEverything(t *testing.T) {
	var buf bytes.Buffer
	printEnvVars(&buf)
	out := buf.String()
	for _, name := range config.GetSupportedEnvVars() {
		if !strings.Contains(out, name) {
			t.Errorf("env listing missing %s", name)
		}
	}
}
