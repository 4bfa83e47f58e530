// resolve.go
package config

import "github.com/xtding233/binomial-theory/internal/theory"

// Resolver merges default → variant into a ready theory config.
type Resolver interface {
	// Returns merged RawConfig and normalized theory.Config
	Resolve(variant string) (RawConfig, theory.Config, error)
}

var _ Resolver = (*Loader)(nil)

// Resolve loads, validates and normalizes variant.
func (l *Loader) Resolve(variant string) (RawConfig, theory.Config, error) {
	raw, err := l.LoadMerged(variant)
	if err != nil {
		return RawConfig{}, theory.Config{}, err
	}
	if err := ValidateRaw(raw); err != nil {
		return raw, theory.Config{}, err
	}
	cfg, err := Normalize(raw)
	if err != nil {
		return raw, theory.Config{}, err
	}
	return raw, cfg, nil
}
