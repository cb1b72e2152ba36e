package formula

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

var (
	// ErrNoSuchOption is returned when a choice names an undeclared option.
	ErrNoSuchOption = errors.New("no such option")
	// ErrBadValue is returned when a value is outside the option's domain.
	ErrBadValue = errors.New("value not allowed")
	// ErrMissingDefault is returned when a declared option has no valid default.
	ErrMissingDefault = errors.New("option has no valid default")
)

// Matrix declares the option domain of a recipe: every option lists its
// allowed values and names one of them as default.
type Matrix struct {
	Options        map[string][]string
	DefaultOptions map[string]string
}

// Validate checks that every option has a non-empty domain and a default
// inside it, and that no default is declared for an unknown option.
func (m *Matrix) Validate() error {
	for _, name := range m.names() {
		values := m.Options[name]
		if len(values) == 0 {
			return fmt.Errorf("option %q: empty domain", name)
		}
		def, ok := m.DefaultOptions[name]
		if !ok || !slices.Contains(values, def) {
			return fmt.Errorf("option %q: %w (domain %v)", name, ErrMissingDefault, values)
		}
	}
	for name := range m.DefaultOptions {
		if _, ok := m.Options[name]; !ok {
			return fmt.Errorf("default for %q: %w", name, ErrNoSuchOption)
		}
	}
	return nil
}

// Defaults returns the option set made only of declared defaults.
func (m *Matrix) Defaults() OptionSet {
	out := make(OptionSet, len(m.Options))
	for name := range m.Options {
		out[name] = m.DefaultOptions[name]
	}
	return out
}

// Resolve overlays choices on the defaults. Every choice must name a
// declared option and a value of its domain.
func (m *Matrix) Resolve(choices map[string]string) (OptionSet, error) {
	out := m.Defaults()
	for _, name := range slices.Sorted(maps.Keys(choices)) {
		values, ok := m.Options[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrNoSuchOption, name)
		}
		v, ok := matchValue(values, choices[name])
		if !ok {
			return nil, fmt.Errorf("option %q: %w: %q (domain %v)", name, ErrBadValue, choices[name], values)
		}
		out[name] = v
	}
	return out, nil
}

// matchValue finds v in values. Boolean spellings ("true", "1", "False")
// match their canonical domain value.
func matchValue(values []string, v string) (string, bool) {
	if slices.Contains(values, v) {
		return v, true
	}
	want, err := strconv.ParseBool(v)
	if err != nil {
		return "", false
	}
	for _, cand := range values {
		if b, err := strconv.ParseBool(cand); err == nil && b == want {
			return cand, true
		}
	}
	return "", false
}

// IsBool reports whether every value in the domain of name is a boolean
// spelling. Only boolean options can be Enabled.
func (m *Matrix) IsBool(name string) bool {
	values := m.Options[name]
	if len(values) == 0 {
		return false
	}
	for _, v := range values {
		if _, err := strconv.ParseBool(v); err != nil {
			return false
		}
	}
	return true
}

// Combinations returns every option set of the domain. Options are
// walked in name order and values in declaration order.
func (m *Matrix) Combinations() []OptionSet {
	names := m.names()
	if len(names) == 0 {
		return nil
	}
	result := []OptionSet{{}}
	for _, name := range names {
		next := make([]OptionSet, 0, len(result)*len(m.Options[name]))
		for _, prev := range result {
			for _, v := range m.Options[name] {
				set := maps.Clone(prev)
				set[name] = v
				next = append(next, set)
			}
		}
		result = next
	}
	return result
}

// CombinationCount returns len(m.Combinations()) without building them.
func (m *Matrix) CombinationCount() int {
	if len(m.Options) == 0 {
		return 0
	}
	count := 1
	for _, v := range m.Options {
		count *= len(v)
	}
	return count
}

func (m *Matrix) names() []string {
	return slices.Sorted(maps.Keys(m.Options))
}

// -----------------------------------------------------------------------------

// OptionSet maps option names to their chosen values.
type OptionSet map[string]string

// Get returns the value of an option.
func (o OptionSet) Get(name string) (string, bool) {
	v, ok := o[name]
	return v, ok
}

// Enabled reports whether a boolean option is set to a true value.
func (o OptionSet) Enabled(name string) bool {
	b, err := strconv.ParseBool(o[name])
	return err == nil && b
}

// String renders the set as "k=v" pairs in name order, joined by ",".
func (o OptionSet) String() string {
	keys := slices.Sorted(maps.Keys(o))
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + o[k]
	}
	return strings.Join(parts, ",")
}
