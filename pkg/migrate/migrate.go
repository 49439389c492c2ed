package migrate

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Rule kinds understood by the engine.
const (
	KindFieldFanout = "field-fanout"
	KindCallFanout  = "call-fanout"
	KindAggregate   = "aggregate"
	KindPlaceholder = "placeholder"
	KindRewrite     = "rewrite"
)

// Variant is one sibling of the repeated construct a migration fans out to,
// e.g. "Scope1". Ident is the lower-cased form used for local identifiers
// ("scope1"); it defaults to strings.ToLower(Name) when left empty.
type Variant struct {
	Name  string `yaml:"name"`
	Ident string `yaml:"ident,omitempty"`
}

// Expand substitutes the {variant} and {ident} placeholders in a rule template.
func (v Variant) Expand(template string) string {
	s := strings.ReplaceAll(template, "{variant}", v.Name)
	return strings.ReplaceAll(s, "{ident}", v.Ident)
}

// CombineSpec describes the concatenation step emitted after a call fan-out:
// a superset collection built from the per-variant collections in declared
// variant order, inserted immediately before the Before anchor line.
type CombineSpec struct {
	Name   string `yaml:"name"`
	Elem   string `yaml:"elem"`
	Before string `yaml:"before"`
}

// RuleSpec is one declarative mutation rule. Which fields are meaningful
// depends on Kind; internal/parser validates the combination at load time.
type RuleSpec struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`

	// Anchoring. Block locates the structural block for region-bound rules;
	// Match holds the anchor alternates for the trigger line itself.
	Block string   `yaml:"block,omitempty"`
	Match []string `yaml:"match,omitempty"`
	Exact bool     `yaml:"exact,omitempty"`

	// Fan-out parameters. Template is expanded once per variant; Dedupe is
	// the per-variant key used to detect already-present declarations.
	// In call fan-out templates, {err} resolves to "err" for ErrVariant and
	// "_" for every other variant.
	Template   string       `yaml:"template,omitempty"`
	Dedupe     string       `yaml:"dedupe,omitempty"`
	ErrVariant string       `yaml:"err_variant,omitempty"`
	Collection string       `yaml:"collection,omitempty"`
	Combine    *CombineSpec `yaml:"combine,omitempty"`
	Window     int          `yaml:"window,omitempty"`

	// Aggregation parameters. Consume lists obsolete collection names whose
	// summation loops are replaced along with the accumulator declaration.
	Accumulator string   `yaml:"accumulator,omitempty"`
	Field       string   `yaml:"field,omitempty"`
	AccType     string   `yaml:"acc_type,omitempty"`
	ElemVar     string   `yaml:"elem_var,omitempty"`
	Consume     []string `yaml:"consume,omitempty"`

	// Replacement parameters for placeholder and rewrite rules.
	Find    string `yaml:"find,omitempty"`
	Replace string `yaml:"replace,omitempty"`
	All     bool   `yaml:"all,omitempty"`

	// Names this rule references that an earlier rule must introduce.
	Requires []string `yaml:"requires,omitempty"`
}

// Migration is the declarative unit of work: an ordered rule list
// parameterized over the variant set, applied to each target file as an
// independent session.
type Migration struct {
	Name     string     `yaml:"name"`
	Variants []Variant  `yaml:"variants"`
	Targets  []string   `yaml:"targets,omitempty"`
	Rules    []RuleSpec `yaml:"rules"`
}

// ProvidedBy returns the identifier names rule r introduces into patched
// files: per-variant collections and the combine name for call fan-out,
// per-variant accumulators for aggregation.
func (m *Migration) ProvidedBy(r RuleSpec) []string {
	var names []string
	switch r.Kind {
	case KindCallFanout:
		for _, v := range m.Variants {
			if r.Collection != "" {
				names = append(names, v.Expand(r.Collection))
			}
		}
		if r.Combine != nil && r.Combine.Name != "" {
			names = append(names, r.Combine.Name)
		}
	case KindAggregate:
		for _, v := range m.Variants {
			if r.Accumulator != "" {
				names = append(names, v.Expand(r.Accumulator))
			}
		}
	}
	return names
}

// RequiredBy returns the identifier names rule r references, which some
// earlier rule must provide. Aggregation implicitly requires its per-variant
// collections; every kind may add explicit Requires entries.
func (m *Migration) RequiredBy(r RuleSpec) []string {
	var names []string
	if r.Kind == KindAggregate && r.Collection != "" {
		for _, v := range m.Variants {
			names = append(names, v.Expand(r.Collection))
		}
	}
	names = append(names, r.Requires...)
	return names
}

// Hash generates a stable identity for the migration, used by the journal to
// record which definition produced a given file state.
func (m *Migration) Hash() string {
	var sb strings.Builder
	sb.WriteString(m.Name)
	for _, v := range m.Variants {
		fmt.Fprintf(&sb, "|%s/%s", v.Name, v.Ident)
	}
	for _, r := range m.Rules {
		fmt.Fprintf(&sb, "|%s:%s", r.Kind, r.Name)
	}
	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}

// String returns a one-line description of the migration.
func (m *Migration) String() string {
	variants := make([]string, len(m.Variants))
	for i, v := range m.Variants {
		variants[i] = v.Name
	}
	return fmt.Sprintf("%s [%s] (%d rules)", m.Name, strings.Join(variants, ", "), len(m.Rules))
}
