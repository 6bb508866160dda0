package harness

import (
	"bytes"
	"fmt"
	"os"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/roach88/hostval/internal/ir"
)

// Expected error names.
const (
	ExpectBudgetExceeded = "budget_exceeded"
	ExpectDuplicateKey   = "duplicate_key"
)

// Scenario pins concrete value pairs and their expected ordering.
type Scenario struct {
	// Name uniquely identifies this scenario. Used as the golden file name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Budget is the default comparison budget of every case.
	// Zero means budget.DefaultLimit.
	Budget uint64 `yaml:"budget,omitempty"`

	// RawStrings keeps string literals byte for byte. By default they are
	// NFC-normalized, which makes canonically equivalent spellings equal.
	RawStrings bool `yaml:"raw_strings,omitempty"`

	// Cases are checked in order.
	Cases []ScenarioCase `yaml:"cases"`
}

// ScenarioCase is one pair of values and what comparing them must produce.
type ScenarioCase struct {
	Name string `yaml:"name"`

	// Left and Right are values in canonical value syntax.
	Left  any `yaml:"left"`
	Right any `yaml:"right"`

	// Expect is the ordering of left relative to right: less, equal, greater.
	Expect string `yaml:"expect,omitempty"`

	// ExpectError is the expected failure instead of an ordering:
	// budget_exceeded or duplicate_key.
	ExpectError string `yaml:"expect_error,omitempty"`

	// Budget overrides the scenario budget for this case.
	Budget uint64 `yaml:"budget,omitempty"`

	left, right ir.Value
	expect      ir.Ordering
}

// Values returns the decoded operands. Only valid after loading.
func (c *ScenarioCase) Values() (left, right ir.Value) {
	return c.left, c.right
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "expected:" vs "expect:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks required fields and decodes every operand.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Cases) == 0 {
		return fmt.Errorf("cases list is required and must be non-empty")
	}

	seen := make(map[string]bool, len(s.Cases))
	for i := range s.Cases {
		c := &s.Cases[i]
		if c.Name == "" {
			return fmt.Errorf("cases[%d]: name is required", i)
		}
		if seen[c.Name] {
			return fmt.Errorf("cases[%d]: duplicate case name %q", i, c.Name)
		}
		seen[c.Name] = true

		if err := validateCase(c, !s.RawStrings); err != nil {
			return fmt.Errorf("cases[%d] (%s): %w", i, c.Name, err)
		}
	}
	return nil
}

func validateCase(c *ScenarioCase, nfc bool) error {
	switch {
	case c.Expect == "" && c.ExpectError == "":
		return fmt.Errorf("one of expect or expect_error is required")
	case c.Expect != "" && c.ExpectError != "":
		return fmt.Errorf("expect and expect_error are mutually exclusive")
	case c.Expect != "":
		o, err := ir.ParseOrdering(c.Expect)
		if err != nil {
			return fmt.Errorf("expect: %w", err)
		}
		c.expect = o
	default:
		if c.ExpectError != ExpectBudgetExceeded && c.ExpectError != ExpectDuplicateKey {
			return fmt.Errorf("expect_error: unknown error %q (valid: %s, %s)",
				c.ExpectError, ExpectBudgetExceeded, ExpectDuplicateKey)
		}
	}

	if c.Left == nil || c.Right == nil {
		return fmt.Errorf("left and right are required")
	}
	left, err := ir.FromNative(c.Left)
	if err != nil {
		return fmt.Errorf("left: %w", err)
	}
	right, err := ir.FromNative(c.Right)
	if err != nil {
		return fmt.Errorf("right: %w", err)
	}
	if nfc {
		left, right = normalizeStrings(left), normalizeStrings(right)
	}
	c.left, c.right = left, right
	return nil
}

// normalizeStrings puts every string literal in NFC, so that a scenario's
// meaning does not depend on how its file was edited.
func normalizeStrings(v ir.Value) ir.Value {
	switch val := v.(type) {
	case ir.String:
		return ir.String(norm.NFC.String(string(val)))
	case ir.Vec:
		out := make(ir.Vec, len(val))
		for i, elem := range val {
			out[i] = normalizeStrings(elem)
		}
		return out
	case ir.Map:
		out := make(ir.Map, len(val))
		for i, e := range val {
			out[i] = ir.MapEntry{Key: normalizeStrings(e.Key), Val: normalizeStrings(e.Val)}
		}
		return out
	}
	return v
}
