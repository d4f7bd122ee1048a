// Package workspace loads a fix-all solution from disk (fixall.toml or a bare
// directory) and writes merged documents back.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"fixall/internal/diag"
)

// ManifestName is the file searched for when loading a workspace.
const ManifestName = "fixall.toml"

// ErrInvalidManifest wraps every validation failure of fixall.toml.
var ErrInvalidManifest = errors.New("invalid fixall.toml")

// Manifest is a parsed fixall.toml together with its location.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

// Config mirrors the fixall.toml layout.
//
//	jobs = 4
//
//	[rules]
//	disabled = ["FA1003"]
//	severity = { FA1004 = "warning" }
//
//	[[project]]
//	name = "api"
//	language = "go"
//	dir = "services/api"
//	include = ["*.go"]
//	generated = ["*.pb.go"]
//	header = "// Copyright Example\n"
type Config struct {
	Jobs     int             `toml:"jobs"`
	Rules    RulesConfig     `toml:"rules"`
	Projects []ProjectConfig `toml:"project"`
}

// RulesConfig enables, disables and re-grades rules.
type RulesConfig struct {
	Disabled []string          `toml:"disabled"`
	Severity map[string]string `toml:"severity"`
}

// ProjectConfig declares one project of the workspace.
type ProjectConfig struct {
	Name      string   `toml:"name"`
	Language  string   `toml:"language"`
	Dir       string   `toml:"dir"`
	Include   []string `toml:"include"`
	Exclude   []string `toml:"exclude"`
	Generated []string `toml:"generated"`
	Header    string   `toml:"header"`
}

// FindManifest walks up from startDir looking for fixall.toml.
func FindManifest(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ManifestName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// LoadManifest finds and parses fixall.toml. The boolean is false when no
// manifest exists above startDir.
func LoadManifest(startDir string) (*Manifest, bool, error) {
	path, ok, err := FindManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := ParseManifest(path)
	if err != nil {
		return nil, true, err
	}
	return &Manifest{
		Path:   path,
		Root:   filepath.Dir(path),
		Config: cfg,
	}, true, nil
}

// ParseManifest decodes and validates one fixall.toml.
func ParseManifest(path string) (Config, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s: failed to parse TOML: %w", ErrInvalidManifest, path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%w: %s: unknown key %q", ErrInvalidManifest, path, undecoded[0].String())
	}
	if !meta.IsDefined("project") || len(cfg.Projects) == 0 {
		return Config{}, fmt.Errorf("%w: %s: missing [[project]]", ErrInvalidManifest, path)
	}
	if meta.IsDefined("jobs") && cfg.Jobs < 0 {
		return Config{}, fmt.Errorf("%w: %s: jobs must not be negative", ErrInvalidManifest, path)
	}

	seen := make(map[string]struct{}, len(cfg.Projects))
	for i := range cfg.Projects {
		p := &cfg.Projects[i]
		p.Name = strings.TrimSpace(p.Name)
		if p.Name == "" {
			return Config{}, fmt.Errorf("%w: %s: [[project]] #%d: missing name", ErrInvalidManifest, path, i+1)
		}
		if _, dup := seen[p.Name]; dup {
			return Config{}, fmt.Errorf("%w: %s: duplicate project %q", ErrInvalidManifest, path, p.Name)
		}
		seen[p.Name] = struct{}{}
		if strings.TrimSpace(p.Language) == "" {
			return Config{}, fmt.Errorf("%w: %s: project %q: missing language", ErrInvalidManifest, path, p.Name)
		}
		for _, pattern := range append(append(append([]string(nil), p.Include...), p.Exclude...), p.Generated...) {
			if _, err := filepath.Match(pattern, ""); err != nil {
				return Config{}, fmt.Errorf("%w: %s: project %q: bad pattern %q", ErrInvalidManifest, path, p.Name, pattern)
			}
		}
	}

	if _, err := cfg.Rules.DisabledCodes(); err != nil {
		return Config{}, fmt.Errorf("%w: %s: [rules].disabled: %w", ErrInvalidManifest, path, err)
	}
	if _, err := cfg.Rules.SeverityOverrides(); err != nil {
		return Config{}, fmt.Errorf("%w: %s: [rules].severity: %w", ErrInvalidManifest, path, err)
	}
	return cfg, nil
}

// DisabledCodes parses the disabled rule ids.
func (r RulesConfig) DisabledCodes() (diag.CodeSet, error) {
	return diag.ParseCodes(r.Disabled)
}

// SeverityOverrides parses the per-rule severities.
func (r RulesConfig) SeverityOverrides() (map[diag.Code]diag.Severity, error) {
	out := make(map[diag.Code]diag.Severity, len(r.Severity))
	for id, name := range r.Severity {
		code, err := diag.ParseCode(id)
		if err != nil {
			return nil, err
		}
		sev, err := diag.ParseSeverity(name)
		if err != nil {
			return nil, err
		}
		out[code] = sev
	}
	return out, nil
}
