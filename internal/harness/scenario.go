package harness

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Scenario defines a domain scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Classifier maps analyzed content to the verdict the stub classifier
	// returns. Unlisted content classifies as low/other.
	Classifier map[string]Verdict `yaml:"classifier,omitempty"`

	// Verifiers lists principals the verifier authority accepts.
	Verifiers []string `yaml:"verifiers,omitempty"`

	// Steps are executed in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Verdict is a canned classifier response.
type Verdict struct {
	Level string `yaml:"level"`
	Type  string `yaml:"type"`
}

// Step invokes one domain operation.
type Step struct {
	// Op is the operation name (see Ops).
	Op string `yaml:"op"`

	// As is the principal: a saved alias or a literal principal id.
	// Empty means anonymous.
	As string `yaml:"as,omitempty"`

	// Args are decoded into the operation's argument struct.
	Args yaml.Node `yaml:"args,omitempty"`

	// Save stores the id the operation returns under an alias.
	Save string `yaml:"save,omitempty"`

	// Expect is the expected outcome. Nil expects success.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect specifies the expected outcome of a step.
type Expect struct {
	// Outcome is "ok" or an error kind (VALIDATION, AUTHORIZATION, ...).
	Outcome string `yaml:"outcome"`

	// Field, when set, must equal the failing field.
	Field string `yaml:"field,omitempty"`

	// SameAs, when set, names an alias whose id the step must return.
	SameAs string `yaml:"same_as,omitempty"`
}

// Assertion validates the final state.
type Assertion struct {
	// Type is "row_count" or "delivered".
	Type string `yaml:"type"`

	// Table is the table to count rows in (row_count).
	Table string `yaml:"table,omitempty"`

	// Where filters rows by column equality (row_count).
	Where map[string]any `yaml:"where,omitempty"`

	// User and Notification filter delivered notifications (delivered).
	User         string `yaml:"user,omitempty"`
	Notification string `yaml:"notification,omitempty"`

	// Count is the expected number of rows or deliveries.
	Count int `yaml:"count"`
}

// Assertion type constants.
const (
	AssertRowCount  = "row_count"
	AssertDelivered = "delivered"
)

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

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
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

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if step.Op == "" {
			return fmt.Errorf("steps[%d]: op is required", i)
		}
		if _, ok := ops[step.Op]; !ok {
			return fmt.Errorf("steps[%d]: unknown op %q (known: %v)", i, step.Op, Ops())
		}
		if step.Expect != nil && step.Expect.Outcome == "" {
			return fmt.Errorf("steps[%d].expect: outcome is required", i)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Count < 0 {
		return fmt.Errorf("assertions[%d]: count must be non-negative", index)
	}
	switch a.Type {
	case AssertRowCount:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for row_count", index)
		}
	case AssertDelivered:
		if a.User == "" {
			return fmt.Errorf("assertions[%d]: user is required for delivered", index)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

// Ops returns the supported operation names, sorted.
func Ops() []string {
	names := make([]string, 0, len(ops))
	for name := range ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
