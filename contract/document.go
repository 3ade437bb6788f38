// Package contract loads the YAML contract documents that describe test
// suites, categories, tests and steps, resolving !include directives
// along the way.
package contract

import (
	"fmt"
	"path/filepath"

	"github.com/PostHog/posthog-sdk-test-harness/harness"
)

// Step is one action invocation within a test.
type Step struct {
	Action string         `yaml:"action"`
	Params map[string]any `yaml:"params"`
}

// Test is one named scenario: an ordered sequence of steps, optionally
// restricted to a subset of SDK flavours.
type Test struct {
	Name     string   `yaml:"name"`
	SDKTypes []string `yaml:"sdk_types"`
	Steps    []Step   `yaml:"steps"`
}

// AppliesTo reports whether t should run for the given SDK type tag. An
// empty SDKTypes list means the test applies to every flavour.
func (t Test) AppliesTo(sdkType string) bool {
	if len(t.SDKTypes) == 0 {
		return true
	}
	for _, s := range t.SDKTypes {
		if s == sdkType {
			return true
		}
	}
	return false
}

// Category groups related tests under one document-order bucket.
type Category struct {
	Name  string `yaml:"-"`
	Tests []Test `yaml:"tests"`
}

// Suite is a named collection of categories plus the advisory list of
// adapter endpoints its tests are expected to exercise.
//
// RequiredAdapterEndpoints preserves the original source's
// ContractTestSuite.required_adapter_endpoints property: it is never
// enforced by the harness, only exposed for a CLI's own pre-flight use.
type Suite struct {
	Name                     string              `yaml:"-"`
	Categories               map[string]Category `yaml:"categories"`
	RequiredAdapterEndpoints []string            `yaml:"required_adapter_endpoints"`
	order                    []string
}

// CategoryNames returns the suite's category names in document order.
func (s Suite) CategoryNames() []string {
	return s.order
}

// NewSuite builds a Suite from categories given in the order they should
// run in, for callers (tests, generated fixtures) that aren't going
// through the YAML loader.
func NewSuite(name string, categories ...Category) Suite {
	s := Suite{Name: name, Categories: make(map[string]Category, len(categories))}
	for _, c := range categories {
		s.Categories[c.Name] = c
		s.order = append(s.order, c.Name)
	}
	return s
}

type rawSuite struct {
	Categories               map[string]rawCategory `yaml:"categories"`
	RequiredAdapterEndpoints []string               `yaml:"required_adapter_endpoints"`
}

type rawCategory struct {
	Tests []Test `yaml:"tests"`
}

// document is the raw top-level shape of a contract YAML file, before
// suite/category name ordering is recovered.
type document struct {
	TestSuites     map[string]rawSuite       `yaml:"test_suites"`
	AdapterActions map[string]Step           `yaml:"adapter_actions"`
	TestActions    map[string]Step           `yaml:"test_actions"`
}

// Catalogue is the result of loading one contract document (and everything
// it !includes): the suites it defines, and the merged action-alias table
// (test_actions shadows adapter_actions on name collision).
type Catalogue struct {
	suites  map[string]Suite
	actions map[string]Step
	order   []string
}

// Suites returns every suite defined by the document, keyed by name.
func (c *Catalogue) Suites() map[string]Suite {
	return c.suites
}

// SuiteNames returns suite names in the order they were first encountered.
func (c *Catalogue) SuiteNames() []string {
	return append([]string(nil), c.order...)
}

// ActionCatalogue returns the merged adapter_actions/test_actions alias
// table: step templates a contract can refer to by name instead of
// repeating action+params inline.
func (c *Catalogue) ActionCatalogue() map[string]Step {
	return c.actions
}

// Resolve looks up name in the action-alias catalogue, returning the
// aliased step template and true if name is an alias rather than a
// built-in action name.
func (c *Catalogue) Resolve(name string) (Step, bool) {
	s, ok := c.actions[name]
	return s, ok
}

// NewCatalogue returns an empty Catalogue, ready for Merge.
func NewCatalogue() *Catalogue {
	return &Catalogue{suites: make(map[string]Suite), actions: make(map[string]Step)}
}

// Merge folds other's suites and action aliases into c. A suite or alias
// name already present in c is replaced by other's definition — the
// caller controls load order, so later files win.
func (c *Catalogue) Merge(other *Catalogue) {
	for name, suite := range other.suites {
		if _, exists := c.suites[name]; !exists {
			c.order = append(c.order, name)
		}
		c.suites[name] = suite
	}
	for name, step := range other.actions {
		c.actions[name] = step
	}
}

func newBadContract(path, format string, a ...any) error {
	return &harness.BadContractError{Path: path, Message: fmt.Sprintf(format, a...)}
}

func absPath(base, rel string) string {
	if filepath.IsAbs(rel) {
		return filepath.Clean(rel)
	}
	return filepath.Clean(filepath.Join(filepath.Dir(base), rel))
}
