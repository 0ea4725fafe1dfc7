// Package fieldpattern declares how each hemogram field is recognized, in
// free text and as a column label. Adding a parameter or a spelling variant is
// a change to the tables in this package, not to the extraction code.
package fieldpattern

import (
	"regexp"
	"sync"
)

// Kind separates clinical parameters from patient attributes
type Kind int

const (
	Clinical Kind = iota
	Patient
)

// String returns the name of the kind
func (k Kind) String() string {
	switch k {
	case Clinical:
		return "clinical"
	case Patient:
		return "patient"
	default:
		return "unknown"
	}
}

// Rule recognizes one field. Pattern has exactly one capture group holding the
// value. Aliases are folded column labels (see normalize.FoldKey) that name the
// same field in tabular input.
type Rule struct {
	Key     string
	Label   string
	Kind    Kind
	Pattern *regexp.Regexp
	Aliases []string
}

// Library is a read-only, ordered set of rules
type Library struct {
	clinical []Rule
	patient  []Rule
	byAlias  map[string]Rule
	byKey    map[string]Rule
}

var (
	defaultOnce    sync.Once
	defaultLibrary *Library
)

// Default returns the built-in library
func Default() *Library {
	defaultOnce.Do(func() {
		defaultLibrary = New(clinicalDefinitions, patientDefinitions)
	})
	return defaultLibrary
}

// New compiles a library from rule definitions. It panics on an invalid
// pattern, as the definitions are static.
func New(clinical, patient []Definition) *Library {
	lib := &Library{
		byAlias: make(map[string]Rule),
		byKey:   make(map[string]Rule),
	}
	for _, def := range clinical {
		lib.clinical = append(lib.clinical, lib.add(def, Clinical))
	}
	for _, def := range patient {
		lib.patient = append(lib.patient, lib.add(def, Patient))
	}
	return lib
}

func (l *Library) add(def Definition, kind Kind) Rule {
	rule := Rule{
		Key:     def.Key,
		Label:   def.Label,
		Kind:    kind,
		Pattern: regexp.MustCompile(def.pattern(kind)),
		Aliases: append([]string{def.Key}, def.Aliases...),
	}
	l.byKey[rule.Key] = rule
	for _, alias := range rule.Aliases {
		if _, taken := l.byAlias[alias]; !taken {
			l.byAlias[alias] = rule
		}
	}
	return rule
}

// PatternsFor returns the ordered rules of a kind. The slice is a copy.
func (l *Library) PatternsFor(kind Kind) []Rule {
	var src []Rule
	switch kind {
	case Clinical:
		src = l.clinical
	case Patient:
		src = l.patient
	}
	out := make([]Rule, len(src))
	copy(out, src)
	return out
}

// Resolve maps a folded column label to its rule
func (l *Library) Resolve(foldedLabel string) (Rule, bool) {
	rule, ok := l.byAlias[foldedLabel]
	return rule, ok
}

// Rule returns the rule of a canonical key
func (l *Library) Rule(key string) (Rule, bool) {
	rule, ok := l.byKey[key]
	return rule, ok
}

// Label returns the display label of a key, or the key itself when unknown
func (l *Library) Label(key string) string {
	if rule, ok := l.byKey[key]; ok {
		return rule.Label
	}
	return key
}

// Keys returns the canonical keys of a kind in declaration order
func (l *Library) Keys(kind Kind) []string {
	rules := l.PatternsFor(kind)
	keys := make([]string, 0, len(rules))
	for _, r := range rules {
		keys = append(keys, r.Key)
	}
	return keys
}

// PatternsFor returns the ordered rules of a kind from the built-in library
func PatternsFor(kind Kind) []Rule {
	return Default().PatternsFor(kind)
}
