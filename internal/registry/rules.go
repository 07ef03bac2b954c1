package registry

import "strings"

// FormatRule carries the name decoration settings for one kind: an
// optional prefix prepended to encoded tag names and an optional
// summary template.
type FormatRule struct {
	KindName string
	Prefix   string
	Summary  string
}

// FormatRules is an ordered rule list. Order matters: prefix shadow
// checks walk the rules in registration order and stop at the first
// match.
type FormatRules struct {
	rules  []*FormatRule
	byKind map[string]*FormatRule
}

// NewFormatRules creates an empty rule list.
func NewFormatRules() *FormatRules {
	return &FormatRules{byKind: make(map[string]*FormatRule)}
}

// Upsert merges prefix and summary into the rule for kindName,
// creating the rule on first use. Empty fields leave the stored value
// untouched, so partial clauses can augment an earlier rule without
// clobbering it. A call with neither field does nothing.
func (fr *FormatRules) Upsert(kindName, prefix, summary string) {
	if prefix == "" && summary == "" {
		return
	}
	rule, ok := fr.byKind[kindName]
	if !ok {
		rule = &FormatRule{KindName: kindName}
		fr.byKind[kindName] = rule
		fr.rules = append(fr.rules, rule)
	}
	if prefix != "" {
		rule.Prefix = prefix
	}
	if summary != "" {
		rule.Summary = summary
	}
}

// Lookup returns the rule for kindName. Kinds without a rule get the
// zero value, meaning no prefix and the default summary template.
func (fr *FormatRules) Lookup(kindName string) FormatRule {
	if rule, ok := fr.byKind[kindName]; ok {
		return *rule
	}
	return FormatRule{KindName: kindName}
}

// Shadowed reports whether name starts with a prefix registered for a
// kind other than kindName. The first rule with a non-empty prefix
// that matches decides; later rules are not consulted.
func (fr *FormatRules) Shadowed(kindName, name string) bool {
	for _, rule := range fr.rules {
		if rule.KindName == kindName || rule.Prefix == "" {
			continue
		}
		if strings.HasPrefix(name, rule.Prefix) {
			return true
		}
	}
	return false
}

// All returns the rules in registration order. The slice is shared;
// callers must not modify it.
func (fr *FormatRules) All() []*FormatRule {
	return fr.rules
}
