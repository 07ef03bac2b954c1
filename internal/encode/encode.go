// Package encode builds the two escaped text forms attached to tags:
// percent-encoded tag names safe for sorted tag files, and vi-style
// search patterns quoting a source line.
package encode

import "xtags/internal/registry"

const hexDigits = "0123456789ABCDEF"

// appendPercent appends s to dst, percent-encoding every byte outside
// the printable ASCII range 0x21..0x7E and the escape byte '%' itself.
// With force set, every byte is encoded.
func appendPercent(dst []byte, s string, force bool) []byte {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if force || c < 0x21 || c > 0x7E || c == '%' {
			dst = append(dst, '%', hexDigits[c>>4], hexDigits[c&0x0F])
		} else {
			dst = append(dst, c)
		}
	}
	return dst
}

// Name returns the encoded form of a tag name under the given format
// rule. The rule's prefix, if any, is prepended unencoded. A leading
// '!' is always percent-encoded so the name cannot collide with
// pseudo-tags in sorted tag files. Otherwise, when the kind has no
// prefix of its own and shadowed is set (the name starts with some
// other kind's prefix), the first byte is percent-encoded to keep the
// name distinguishable from a prefixed one.
func Name(name string, rule registry.FormatRule, shadowed bool) string {
	dst := make([]byte, 0, len(rule.Prefix)+3*len(name))
	dst = append(dst, rule.Prefix...)

	rest := name
	if len(name) > 0 {
		if name[0] == '!' {
			dst = appendPercent(dst, name[:1], true)
			rest = name[1:]
		} else if rule.Prefix == "" && shadowed {
			dst = appendPercent(dst, name[:1], true)
			rest = name[1:]
		}
	}

	return string(appendPercent(dst, rest, false))
}

// EncodedName resolves the format rule and shadow state for a kind and
// encodes name. The shadow check only runs when the kind has no prefix
// of its own.
func EncodedName(name string, kindName string, rules *registry.FormatRules) string {
	rule := rules.Lookup(kindName)
	shadowed := false
	if rule.Prefix == "" && len(name) > 0 && name[0] != '!' {
		shadowed = rules.Shadowed(kindName, name)
	}
	return Name(name, rule, shadowed)
}

// SearchPattern converts a source line into a vi-style search pattern:
// forward (/.../) by default, backward (?...?) when requested.
//
// Backslashes and the delimiter are always escaped. '^' is escaped
// only as the first pattern byte and '$' only when it is the final
// input byte or lands exactly at the length limit. A carriage return
// or newline becomes a space, except a final one, which is dropped.
//
// A non-zero limit caps the pattern length, counting the leading
// delimiter but not the trailing one. The cut never splits a UTF-8
// sequence: up to three continuation bytes may run past the limit
// before the pattern is cut unconditionally.
func SearchPattern(line string, backward bool, limit int) string {
	delim := byte('/')
	if backward {
		delim = '?'
	}

	pattern := make([]byte, 0, 2*len(line)+2)
	pattern = append(pattern, delim)
	extra := 0

	for i := 0; i < len(line); i++ {
		c := line[i]

		if limit != 0 && len(pattern) > limit {
			if c&0xC0 != 0x80 {
				break
			}
			extra++
			if extra > 3 {
				break
			}
		}

		final := i == len(line)-1
		if c == '\\' || c == delim ||
			(c == '^' && len(pattern) == 1) ||
			(c == '$' && (final || len(pattern) == limit)) {
			// An escape that would land on the limit is dropped
			// together with its character.
			if len(pattern) == limit {
				break
			}
			pattern = append(pattern, '\\')
		}

		if c == '\r' || c == '\n' {
			if final {
				break
			}
			pattern = append(pattern, ' ')
		} else {
			pattern = append(pattern, c)
		}
	}

	return string(append(pattern, delim))
}
