// Package parser loads migration definitions from YAML and validates them
// before any session runs. Ordering violations — a rule referencing a name no
// earlier rule introduces — are rejected here, at load time, never detected
// at runtime.
package parser

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"refan/pkg/migrate"
)

// OrderingError reports a rule that references a name before any rule
// introduces it. Executing such a migration would synthesize references to
// undeclared identifiers, so the load fails instead.
type OrderingError struct {
	Rule string
	Ref  string
}

func (e *OrderingError) Error() string {
	return fmt.Sprintf("rule %q references %q before any rule introduces it", e.Rule, e.Ref)
}

// Load reads and validates a migration definition from path.
func Load(path string) (*migrate.Migration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration %s: %w", path, err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Parse decodes and validates a migration definition.
func Parse(data []byte) (*migrate.Migration, error) {
	var m migrate.Migration
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("invalid migration yaml: %w", err)
	}
	applyDefaults(&m)
	if err := Validate(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

func applyDefaults(m *migrate.Migration) {
	for i := range m.Variants {
		if m.Variants[i].Ident == "" {
			m.Variants[i].Ident = strings.ToLower(m.Variants[i].Name)
		}
	}
}

// Validate checks the variant set, each rule's parameters for its kind, and
// the cross-rule ordering invariant.
func Validate(m *migrate.Migration) error {
	if len(m.Variants) == 0 {
		return fmt.Errorf("migration %q declares no variants", m.Name)
	}
	seen := make(map[string]bool)
	for _, r := range m.Rules {
		if r.Name == "" {
			return fmt.Errorf("migration %q has an unnamed rule", m.Name)
		}
		if seen[r.Name] {
			return fmt.Errorf("duplicate rule name %q", r.Name)
		}
		seen[r.Name] = true
		if err := validateRule(r); err != nil {
			return fmt.Errorf("rule %q: %w", r.Name, err)
		}
	}
	return validateOrdering(m)
}

func validateRule(r migrate.RuleSpec) error {
	switch r.Kind {
	case migrate.KindFieldFanout:
		return requireFields(map[string]string{
			"block":    r.Block,
			"template": r.Template,
			"dedupe":   r.Dedupe,
		}, requireMatch(r))
	case migrate.KindCallFanout:
		err := requireFields(map[string]string{
			"template":   r.Template,
			"collection": r.Collection,
		}, requireMatch(r))
		if err != nil {
			return err
		}
		if r.Combine != nil && (r.Combine.Name == "" || r.Combine.Elem == "" || r.Combine.Before == "") {
			return fmt.Errorf("combine needs name, elem and before")
		}
		return nil
	case migrate.KindAggregate:
		return requireFields(map[string]string{
			"accumulator": r.Accumulator,
			"collection":  r.Collection,
			"field":       r.Field,
		}, requireMatch(r))
	case migrate.KindPlaceholder, migrate.KindRewrite:
		return requireFields(map[string]string{
			"find":    r.Find,
			"replace": r.Replace,
		}, nil)
	case "":
		return fmt.Errorf("missing kind")
	default:
		return fmt.Errorf("unknown kind %q", r.Kind)
	}
}

func requireMatch(r migrate.RuleSpec) error {
	if len(r.Match) == 0 {
		return fmt.Errorf("missing match")
	}
	return nil
}

func requireFields(fields map[string]string, err error) error {
	if err != nil {
		return err
	}
	for name, val := range fields {
		if val == "" {
			return fmt.Errorf("missing %s", name)
		}
	}
	return nil
}

// validateOrdering walks the rules in declared order, tracking the names each
// rule provides, and fails on the first forward reference.
func validateOrdering(m *migrate.Migration) error {
	provided := make(map[string]bool)
	for _, r := range m.Rules {
		for _, ref := range m.RequiredBy(r) {
			if !provided[ref] {
				return &OrderingError{Rule: r.Name, Ref: ref}
			}
		}
		for _, name := range m.ProvidedBy(r) {
			provided[name] = true
		}
	}
	return nil
}
