package harness

import (
	"fmt"
	"strings"
)

// TraceEvent is one executed step.
type TraceEvent struct {
	Step      int        `json:"step"`
	Op        string     `json:"op"`
	Principal string     `json:"principal,omitempty"`
	Outcome   string     `json:"outcome"`
	Field     string     `json:"field,omitempty"`
	ID        string     `json:"id,omitempty"`
	Delivered []Delivery `json:"delivered,omitempty"`
}

// Delivery is a notification handed to the dispatcher during a step.
type Delivery struct {
	UserID   string `json:"user_id"`
	Type     string `json:"type"`
	Priority string `json:"priority"`
	Title    string `json:"title"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every step matched its expectation and every
	// assertion held.
	Pass bool `json:"pass"`

	// Trace holds the executed steps in order.
	Trace []TraceEvent `json:"trace"`

	// Errors holds expectation and assertion failures.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Render formats the trace as stable text, one line per step followed by
// one indented line per delivered notification. Ids are shown as their
// saved aliases where aliases exist.
func (r *Result) Render(aliases map[string]string) string {
	name := func(id string) string {
		if a, ok := aliases[id]; ok {
			return "$" + a
		}
		return id
	}

	var b strings.Builder
	for _, ev := range r.Trace {
		principal := "-"
		if ev.Principal != "" {
			principal = name(ev.Principal)
		}
		fmt.Fprintf(&b, "%02d %s by=%s outcome=%s", ev.Step, ev.Op, principal, ev.Outcome)
		if ev.Field != "" {
			fmt.Fprintf(&b, " field=%s", ev.Field)
		}
		if ev.ID != "" {
			fmt.Fprintf(&b, " id=%s", name(ev.ID))
		}
		b.WriteByte('\n')
		for _, d := range ev.Delivered {
			fmt.Fprintf(&b, "   notify %s %s priority=%s %q\n", name(d.UserID), d.Type, d.Priority, d.Title)
		}
	}
	return b.String()
}
