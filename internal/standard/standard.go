// Package standard resolves which coding standard (ruleset) to pass to
// the formatter for a given file.
package standard

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Default is the built-in fallback standard, matching phpcs' own default
// behavior when nothing is configured.
const Default = "PSR2"

// Keys a standard map may use for its fallback entry. "_default" is what
// the Sublime plugin ecosystem uses; plain "default" is accepted too.
const (
	DefaultKey    = "_default"
	AltDefaultKey = "default"
)

// ErrNoStandard means the configuration names no standard for the file.
// Callers recover by falling back to Default.
var ErrNoStandard = errors.New("no coding standard configured for path")

// Standard is the phpcs_standard setting: either a single ruleset name
// (or ruleset file path), or a map from project prefixes/names to
// ruleset names. Exactly one of Name and ByPath is set.
type Standard struct {
	Name   string
	ByPath map[string]string
}

// IsZero reports whether no standard is configured at all.
func (s Standard) IsZero() bool {
	return s.Name == "" && len(s.ByPath) == 0
}

// UnmarshalTOML accepts either a plain string or a table of strings.
func (s *Standard) UnmarshalTOML(v interface{}) error {
	switch val := v.(type) {
	case string:
		s.Name = val
		s.ByPath = nil
		return nil
	case map[string]interface{}:
		m := make(map[string]string, len(val))
		for key, raw := range val {
			str, ok := raw.(string)
			if !ok {
				return fmt.Errorf("phpcs_standard entry '%s' must be a string, got %T", key, raw)
			}
			m[key] = str
		}
		s.Name = ""
		s.ByPath = m
		return nil
	default:
		return fmt.Errorf("phpcs_standard must be a string or a table, got %T", v)
	}
}

// Resolve picks the ruleset identifier for filePath. A scalar setting is
// returned unconditionally. A map resolves deterministically in this
// precedence order:
//
//  1. longest path-prefix key matching filePath,
//  2. exact base-name match of any ancestor directory of filePath,
//  3. the "_default" (or "default") entry.
//
// No match yields ErrNoStandard.
func Resolve(filePath string, std Standard) (string, error) {
	if std.Name != "" {
		return std.Name, nil
	}
	if len(std.ByPath) == 0 {
		return "", ErrNoStandard
	}

	clean := filepath.Clean(filePath)

	// Longest path-prefix match. Prefixes only match at path separator
	// boundaries so "/proj" doesn't claim "/project2".
	best, bestLen := "", -1
	for key, name := range std.ByPath {
		if key == DefaultKey || key == AltDefaultKey {
			continue
		}
		k := filepath.Clean(key)
		if !isPathPrefix(k, clean) {
			continue
		}
		if len(k) > bestLen {
			best, bestLen = name, len(k)
		}
	}
	if bestLen >= 0 {
		return best, nil
	}

	// Project-name match: any ancestor directory whose base name is a key.
	for dir := filepath.Dir(clean); ; {
		if name, ok := std.ByPath[filepath.Base(dir)]; ok {
			return name, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	if name, ok := std.ByPath[DefaultKey]; ok {
		return name, nil
	}
	if name, ok := std.ByPath[AltDefaultKey]; ok {
		return name, nil
	}
	return "", fmt.Errorf("%w: %s", ErrNoStandard, filePath)
}

// isPathPrefix reports whether prefix is path itself or one of its
// ancestor directories.
func isPathPrefix(prefix, path string) bool {
	if prefix == path {
		return true
	}
	if prefix == string(filepath.Separator) {
		return strings.HasPrefix(path, prefix)
	}
	return strings.HasPrefix(path, prefix+string(filepath.Separator))
}
