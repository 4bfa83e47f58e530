package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Paths helper for default/variant files.
type Paths struct {
	BaseDir string // base directory, e.g., /opt/app/configs
}

func (p Paths) DefaultPath() string {
	return filepath.Join(p.BaseDir, "theory", "default.yaml")
}
func (p Paths) VariantPath(variant string) string {
	return filepath.Join(p.BaseDir, "theory", variant+".yaml")
}

// Files lists every file that contributes to variant, for the watcher.
func (p Paths) Files(variant string) []string {
	files := []string{p.DefaultPath()}
	if variant != "" {
		files = append(files, p.VariantPath(variant))
	}
	return files
}

// Loader reads YAML configs and merges default → variant.
type Loader struct {
	paths Paths

	mu    sync.RWMutex
	cache map[string]RawConfig // key: variant, "" for default only
}

// NewLoader creates a config loader with the given base directory.
func NewLoader(baseDir string) *Loader {
	return &Loader{
		paths: Paths{BaseDir: baseDir},
		cache: make(map[string]RawConfig),
	}
}

// Paths returns the file layout the loader reads from.
func (l *Loader) Paths() Paths { return l.paths }

// LoadMerged loads and merges default → variant (variant optional).
// It returns the merged RawConfig (without normalization).
func (l *Loader) LoadMerged(variant string) (RawConfig, error) {
	l.mu.RLock()
	if cfg, ok := l.cache[variant]; ok {
		l.mu.RUnlock()
		return cfg, nil
	}
	l.mu.RUnlock()

	defCfg, err := readYAML(l.paths.DefaultPath())
	if err != nil {
		return RawConfig{}, fmt.Errorf("read default: %w", err)
	}
	merged := defCfg
	if variant != "" {
		varCfg, err := readYAML(l.paths.VariantPath(variant))
		if err != nil {
			return RawConfig{}, fmt.Errorf("read variant %s: %w", variant, err)
		}
		merged = mergeRaw(defCfg, varCfg)
	}

	l.mu.Lock()
	l.cache[""] = defCfg
	l.cache[variant] = merged
	l.mu.Unlock()

	return merged, nil
}

// Invalidate clears loader's cache. Call after hot-reload detects changes.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = make(map[string]RawConfig)
}

// readYAML loads a YAML file into RawConfig. Missing files return zero cfg, no error.
func readYAML(path string) (RawConfig, error) {
	var cfg RawConfig
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return RawConfig{}, nil
		}
		return RawConfig{}, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return RawConfig{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// mergeRaw performs a deep merge: 'b' overrides 'a' where non-zero/non-nil.
// Slices and requirement maps in 'b' replace those of 'a' wholesale.
func mergeRaw(a, b RawConfig) RawConfig {
	out := a

	if b.Version != "" {
		out.Version = b.Version
	}
	if b.Notes != "" {
		out.Notes = b.Notes
	}
	if b.TauMultiplier != nil {
		out.TauMultiplier = b.TauMultiplier
	}
	if b.ClampBase != nil {
		out.ClampBase = b.ClampBase
	}

	// upgrades, field by field per key
	if len(b.Upgrades) > 0 {
		ups := make(map[string]*UpgradeCfg, len(a.Upgrades)+len(b.Upgrades))
		for k, u := range a.Upgrades {
			if u != nil {
				c := *u
				ups[k] = &c
			}
		}
		for k, u := range b.Upgrades {
			if u == nil {
				continue
			}
			cur, ok := ups[k]
			if !ok {
				c := *u
				ups[k] = &c
				continue
			}
			mergeUpgrade(cur, u)
		}
		out.Upgrades = ups
	}

	// milestones
	switch {
	case out.Milestones == nil && b.Milestones != nil:
		c := *b.Milestones
		out.Milestones = &c
	case out.Milestones != nil && b.Milestones != nil:
		c := *out.Milestones
		if b.Milestones.CostFormula != "" {
			c.CostFormula = b.Milestones.CostFormula
		}
		c.C1Exp = mergeLadder(c.C1Exp, b.Milestones.C1Exp)
		c.Q1Exp = mergeLadder(c.Q1Exp, b.Milestones.Q1Exp)
		if b.Milestones.Sigma != nil {
			c.Sigma = b.Milestones.Sigma
		}
		if b.Milestones.Time != nil {
			c.Time = b.Milestones.Time
		}
		out.Milestones = &c
	}

	// permanents
	switch {
	case out.Permanents == nil && b.Permanents != nil:
		c := *b.Permanents
		out.Permanents = &c
	case out.Permanents != nil && b.Permanents != nil:
		c := *out.Permanents
		if b.Permanents.Publication != nil {
			c.Publication = b.Permanents.Publication
		}
		if b.Permanents.BuyAll != nil {
			c.BuyAll = b.Permanents.BuyAll
		}
		if b.Permanents.AutoBuyer != nil {
			c.AutoBuyer = b.Permanents.AutoBuyer
		}
		out.Permanents = &c
	}

	return out
}

// mergeUpgrade overlays b onto a. A formula and a base/progress pair are
// alternatives, so setting one clears the other.
func mergeUpgrade(a, b *UpgradeCfg) {
	if b.Formula != "" {
		a.Formula = b.Formula
		a.Base, a.Progress = nil, nil
	}
	if b.Base != nil || b.Progress != nil {
		a.Formula = ""
		if b.Base != nil {
			a.Base = b.Base
		}
		if b.Progress != nil {
			a.Progress = b.Progress
		}
	}
	if b.FirstFree != nil {
		a.FirstFree = b.FirstFree
	}
	if b.MaxLevel != nil {
		a.MaxLevel = b.MaxLevel
	}
}

func mergeLadder(a, b *LadderCfg) *LadderCfg {
	switch {
	case b == nil:
		return a
	case a == nil:
		c := *b
		return &c
	}
	c := *a
	if len(b.Steps) > 0 {
		c.Steps = append([]float64(nil), b.Steps...)
	}
	if b.MaxLevel != nil {
		c.MaxLevel = b.MaxLevel
	}
	if b.Requires != nil {
		c.Requires = b.Requires
	}
	return &c
}
