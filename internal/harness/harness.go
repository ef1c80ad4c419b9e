package harness

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/roach88/safeline/internal/apperr"
	"github.com/roach88/safeline/internal/collab"
	"github.com/roach88/safeline/internal/metrics"
	"github.com/roach88/safeline/internal/model"
	"github.com/roach88/safeline/internal/service"
	"github.com/roach88/safeline/internal/store"
	"github.com/roach88/safeline/internal/testutil"
)

// Harness is the scenario execution engine.
// It runs steps with a deterministic clock and sequential ids.
type Harness struct {
	store   *store.Store
	svc     *service.Service
	outbox  *outbox
	logger  *zap.Logger
	aliases map[string]string // alias -> id
	names   map[string]string // id -> alias
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation. A nil
// logger discards logs.
//
// Execution flow:
// 1. Create fresh in-memory database and service
// 2. Execute steps, checking each against its expectation
// 3. Evaluate assertions against the final state
func Run(ctx context.Context, scenario *Scenario, logger *zap.Logger) (*Result, *Harness, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:   st,
		outbox:  &outbox{},
		logger:  logger.Named("harness"),
		aliases: map[string]string{},
		names:   map[string]string{},
	}
	h.svc = service.New(st, service.Options{
		Clock:      testutil.NewStepClock(),
		IDs:        testutil.NewSeqIDs("id"),
		Classifier: newScriptedClassifier(scenario.Classifier),
		Verifiers:  collab.NewStaticVerifiers(scenario.Verifiers...),
		Dispatcher: h.outbox,
		Metrics:    metrics.New(prometheus.NewRegistry()),
		Logger:     logger,
	})

	result := NewResult()
	for i, step := range scenario.Steps {
		h.executeStep(ctx, i+1, step, result)
	}

	for _, errMsg := range EvaluateAssertions(ctx, h, scenario.Assertions) {
		result.AddError(errMsg)
	}
	return result, h, nil
}

// Aliases returns the id -> alias map of saved ids, for rendering.
func (h *Harness) Aliases() map[string]string {
	out := make(map[string]string, len(h.names))
	for id, alias := range h.names {
		out[id] = alias
	}
	return out
}

// executeStep runs one step, appends its trace event and records any
// mismatch with the step's expectation.
func (h *Harness) executeStep(ctx context.Context, n int, step Step, result *Result) {
	principal := h.principal(step.As)
	ev := TraceEvent{Step: n, Op: step.Op, Principal: principal}

	before := h.outbox.len()
	id, err := h.invoke(ctx, step, principal)
	for _, d := range h.outbox.since(before) {
		ev.Delivered = append(ev.Delivered, Delivery{
			UserID:   d.UserID,
			Type:     string(d.Type),
			Priority: string(d.Priority),
			Title:    d.Title,
		})
	}

	ev.Outcome = "ok"
	if err != nil {
		ev.Outcome = string(apperr.KindOf(err))
		ev.Field = apperr.FieldOf(err)
	} else {
		ev.ID = id
		if step.Save != "" && id != "" {
			h.aliases[step.Save] = id
			h.names[id] = step.Save
		}
	}
	result.Trace = append(result.Trace, ev)

	h.logger.Debug("step completed",
		zap.Int("step", n),
		zap.String("op", step.Op),
		zap.String("outcome", ev.Outcome),
		zap.Error(err),
	)

	expect := step.Expect
	if expect == nil {
		expect = &Expect{Outcome: "ok"}
	}
	if ev.Outcome != expect.Outcome {
		msg := fmt.Sprintf("step %d (%s): expected outcome %s, got %s", n, step.Op, expect.Outcome, ev.Outcome)
		if err != nil {
			msg += ": " + err.Error()
		}
		result.AddError(msg)
		return
	}
	if expect.Field != "" && ev.Field != expect.Field {
		result.AddError(fmt.Sprintf("step %d (%s): expected field %q, got %q", n, step.Op, expect.Field, ev.Field))
	}
	if expect.SameAs != "" && h.aliases[expect.SameAs] != id {
		result.AddError(fmt.Sprintf("step %d (%s): expected id of $%s (%s), got %s", n, step.Op, expect.SameAs, h.aliases[expect.SameAs], id))
	}
}

// invoke decodes the step's arguments and calls the operation.
func (h *Harness) invoke(ctx context.Context, step Step, principal string) (string, error) {
	op, ok := ops[step.Op]
	if !ok {
		return "", fmt.Errorf("unknown op %q", step.Op)
	}
	return op(ctx, h, principal, &step.Args)
}

// principal resolves the "as" field of a step.
func (h *Harness) principal(as string) string {
	if id, ok := h.aliases[strings.TrimPrefix(as, "$")]; ok {
		return id
	}
	return as
}

// ref resolves a "$alias" argument to its saved id. Other strings are
// returned unchanged; an unknown alias resolves to itself so the
// operation fails the way it would for any missing id.
func (h *Harness) ref(s string) string {
	if !strings.HasPrefix(s, "$") {
		return s
	}
	if id, ok := h.aliases[s[1:]]; ok {
		return id
	}
	return s
}

// outbox records notifications the service hands over after commit.
type outbox struct {
	mu  sync.Mutex
	got []model.Notification
}

func (o *outbox) Enqueue(ns ...model.Notification) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.got = append(o.got, ns...)
}

func (o *outbox) len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.got)
}

func (o *outbox) since(i int) []model.Notification {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]model.Notification(nil), o.got[i:]...)
}

// scriptedClassifier answers from the scenario's verdict table.
type scriptedClassifier map[string]collab.Classification

func newScriptedClassifier(verdicts map[string]Verdict) scriptedClassifier {
	c := scriptedClassifier{}
	for text, v := range verdicts {
		c[text] = collab.Classification{
			ThreatType:         model.ThreatType(v.Type),
			ThreatLevel:        model.ThreatLevel(v.Level),
			ConfidenceScore:    0.9,
			Explanation:        "scripted",
			RecommendedActions: []string{},
		}
	}
	return c
}

func (c scriptedClassifier) Classify(_ context.Context, text string) (collab.Classification, error) {
	if v, ok := c[text]; ok {
		return v, nil
	}
	return collab.Classification{
		ThreatType:         model.ThreatOther,
		ThreatLevel:        model.ThreatLow,
		ConfidenceScore:    0.1,
		RecommendedActions: []string{},
	}, nil
}
