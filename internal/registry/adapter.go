package registry

import (
	"fmt"
	"strings"

	"xtags/internal/errors"
)

// Role tables shared by every kind configured through a clause.
var (
	referenceRole = Role{Name: "reference", Description: "reference", Enabled: true}
	otherRole     = Role{Name: "other", Description: "other symbol", Enabled: true}
)

// ApplyKindsOption parses a kinds option value of the form
//
//	name:letter[:role[:prefix[:summaryTemplate]]][,name:letter...]
//
// defining each kind and recording its prefix and summary rule. The
// option may be given several times; later clauses for a known kind
// merge into its earlier rule.
//
// The role field is read from its first byte: 'd' defines a
// definition kind, 'r' a reference kind with one enabled "reference"
// role, 'o' a reference kind with one enabled "other" role. Anything
// else, including an absent or empty field, yields a reference-only
// kind with no roles.
func ApplyKindsOption(reg *Registry, rules *FormatRules, value string) error {
	for _, clause := range strings.Split(value, ",") {
		if err := applyClause(reg, rules, clause); err != nil {
			return err
		}
	}
	return nil
}

func applyClause(reg *Registry, rules *FormatRules, clause string) error {
	// At most five fields; a summary template may itself contain
	// colons, so the tail is never split further.
	fields := strings.SplitN(clause, ":", 5)

	name := fields[0]
	if name == "" {
		return errors.NewXtagsError(errors.KindsInvalid,
			fmt.Sprintf("kind clause %q has an empty name", clause), nil)
	}
	if len(fields) < 2 || fields[1] == "" {
		return errors.NewXtagsError(errors.KindsInvalid,
			fmt.Sprintf("kind %q has no letter", name), nil)
	}

	var role, prefix, summary string
	if len(fields) > 2 {
		role = fields[2]
	}
	if len(fields) > 3 {
		prefix = fields[3]
	}
	if len(fields) > 4 {
		summary = fields[4]
	}

	reg.Define(kindForClause(name, fields[1][0], role))
	rules.Upsert(name, prefix, summary)
	return nil
}

// KindDef is a declarative kind definition as read from a kinds
// manifest file. Role, Prefix and Summary follow clause semantics.
type KindDef struct {
	Name    string `yaml:"name" toml:"name"`
	Letter  string `yaml:"letter" toml:"letter"`
	Role    string `yaml:"role,omitempty" toml:"role,omitempty"`
	Prefix  string `yaml:"prefix,omitempty" toml:"prefix,omitempty"`
	Summary string `yaml:"summary,omitempty" toml:"summary,omitempty"`
}

// ApplyKindDefs registers kinds from a manifest, merging format rules
// the same way repeated clauses do.
func ApplyKindDefs(reg *Registry, rules *FormatRules, defs []KindDef) error {
	for _, d := range defs {
		if d.Name == "" {
			return errors.NewXtagsError(errors.KindsInvalid,
				"kind definition has an empty name", nil)
		}
		if d.Letter == "" {
			return errors.NewXtagsError(errors.KindsInvalid,
				fmt.Sprintf("kind %q has no letter", d.Name), nil)
		}
		reg.Define(kindForClause(d.Name, d.Letter[0], d.Role))
		rules.Upsert(d.Name, d.Prefix, d.Summary)
	}
	return nil
}

func kindForClause(name string, letter byte, role string) *Kind {
	k := &Kind{
		Letter:        letter,
		Name:          name,
		Description:   name,
		ReferenceOnly: true,
	}

	var roleChar byte
	if role != "" {
		roleChar = role[0]
	}
	switch roleChar {
	case 'd':
		k.ReferenceOnly = false
	case 'r':
		k.Roles = []Role{referenceRole}
	case 'o':
		k.Roles = []Role{otherRole}
	}
	return k
}
