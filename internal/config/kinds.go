package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	bstoml "github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"xtags/internal/errors"
	"xtags/internal/registry"
)

// kindsManifest is the on-disk shape of a kinds file:
//
//	kinds:
//	  - name: function
//	    letter: f
//	    role: d
//	    prefix: "F."
//	    summary: "%N at %n"
type kindsManifest struct {
	Kinds []registry.KindDef `yaml:"kinds" toml:"kinds"`
}

// LoadKindsFile reads a kind manifest in YAML (.yaml, .yml) or TOML
// (.toml) form. Entries are returned in file order so later clause
// strings can merge over them.
func LoadKindsFile(path string) ([]registry.KindDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewXtagsError(errors.KindsInvalid,
			fmt.Sprintf("cannot read kinds file %s", path), err)
	}

	var manifest kindsManifest
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &manifest); err != nil {
			return nil, errors.NewXtagsError(errors.KindsInvalid,
				fmt.Sprintf("cannot parse kinds file %s", path), err)
		}
	case ".toml":
		if err := bstoml.Unmarshal(data, &manifest); err != nil {
			return nil, errors.NewXtagsError(errors.KindsInvalid,
				fmt.Sprintf("cannot parse kinds file %s", path), err)
		}
	default:
		return nil, errors.NewXtagsError(errors.KindsInvalid,
			fmt.Sprintf("kinds file %s must be .yaml, .yml or .toml", path), nil)
	}

	return manifest.Kinds, nil
}
