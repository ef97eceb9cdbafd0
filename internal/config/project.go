// internal/config/project.go
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bethropolis/phpcbf/internal/logger"
	"github.com/bethropolis/phpcbf/internal/standard"
	"github.com/tidwall/gjson"
)

// ForFile resolves the effective configuration for one file: the nearest
// ancestor .phpcbf.json overlay (if any) applied on top of c, and the
// Folder field set to the project root for ${folder} expansion. The
// receiver is not mutated; each fix operation gets its own value.
func (c Config) ForFile(filePath string) Config {
	out := c
	if filePath == "" {
		return out
	}

	dir := filepath.Dir(filePath)
	root, data := findProjectFile(dir)
	if root == "" {
		out.Folder = dir
		return out
	}
	out.Folder = root
	if data == nil {
		return out
	}
	out.applyOverlay(data)
	out.validate()
	return out
}

// findProjectFile walks up from dir looking for ProjectFileName. It
// returns the directory containing it and the file contents.
func findProjectFile(dir string) (string, []byte) {
	for {
		candidate := filepath.Join(dir, ProjectFileName)
		data, err := os.ReadFile(candidate)
		if err == nil {
			if !gjson.ValidBytes(data) {
				logger.Warnf("config: ignoring malformed %s", candidate)
				return dir, nil
			}
			return dir, data
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// applyOverlay copies the keys present in the project JSON onto c.
// The schema mirrors the TOML file; only scalars, additional_args and
// phpcs_standard are recognized.
func (c *Config) applyOverlay(data []byte) {
	if v := gjson.GetBytes(data, "php_path"); v.Exists() {
		c.PHPPath = v.String()
	}
	if v := gjson.GetBytes(data, "phpcbf_path"); v.Exists() {
		c.PHPCBFPath = v.String()
	}
	if v := gjson.GetBytes(data, "fix_on_save"); v.Exists() {
		c.FixOnSave = v.Bool()
	}
	if v := gjson.GetBytes(data, "validate_output"); v.Exists() {
		c.ValidateOutput = v.Bool()
	}
	if v := gjson.GetBytes(data, "loop_guard_bytes"); v.Exists() {
		c.LoopGuardBytes = int(v.Int())
	}
	if v := gjson.GetBytes(data, "timeout"); v.Exists() {
		if parsed, err := time.ParseDuration(v.String()); err == nil && parsed > 0 {
			c.Timeout = Duration{parsed}
		} else {
			logger.Warnf("config: invalid project timeout '%s', keeping %v", v.String(), c.Timeout.Duration)
		}
	}
	if v := gjson.GetBytes(data, "additional_args"); v.IsArray() {
		args := make([]string, 0, len(v.Array()))
		for _, item := range v.Array() {
			args = append(args, item.String())
		}
		c.AdditionalArgs = args
	}
	if v := gjson.GetBytes(data, "phpcs_standard"); v.Exists() {
		switch {
		case v.Type == gjson.String:
			c.Standard = standard.Standard{Name: v.String()}
		case v.IsObject():
			m := make(map[string]string)
			v.ForEach(func(key, value gjson.Result) bool {
				m[key.String()] = value.String()
				return true
			})
			c.Standard = standard.Standard{ByPath: m}
		}
	}
}

// ExpandFolder substitutes ${folder} with the resolved project root.
func (c *Config) ExpandFolder(s string) string {
	if c.Folder == "" {
		return s
	}
	return strings.ReplaceAll(s, FolderVar, c.Folder)
}
