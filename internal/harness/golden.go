package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RunWithGolden executes a scenario, fails the test on any expectation or
// assertion failure, and compares the rendered trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) *Result {
	t.Helper()

	result, h, err := Run(context.Background(), scenario, nil)
	if err != nil {
		t.Fatalf("run scenario %s: %v", scenario.Name, err)
	}
	for _, e := range result.Errors {
		t.Errorf("%s: %s", scenario.Name, e)
	}

	AssertGolden(t, scenario.Name, result.Render(h.Aliases()))
	return result
}

// AssertGolden compares rendered trace text against a golden file.
func AssertGolden(t *testing.T, name, rendered string) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(rendered))
}
