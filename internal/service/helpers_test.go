package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/roach88/safeline/internal/collab"
	"github.com/roach88/safeline/internal/metrics"
	"github.com/roach88/safeline/internal/model"
	"github.com/roach88/safeline/internal/store"
	"github.com/roach88/safeline/internal/testutil"
)

// fakeClassifier returns canned verdicts keyed by content.
type fakeClassifier struct {
	mu       sync.Mutex
	verdicts map[string]collab.Classification
	err      error
	delay    time.Duration
	calls    int
}

func (f *fakeClassifier) Classify(ctx context.Context, text string) (collab.Classification, error) {
	f.mu.Lock()
	f.calls++
	verdict, ok := f.verdicts[text]
	err, delay := f.err, f.delay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return collab.Classification{}, ctx.Err()
		}
	}
	if err != nil {
		return collab.Classification{}, err
	}
	if !ok {
		return collab.Classification{ThreatType: model.ThreatOther, ThreatLevel: model.ThreatLow, ConfidenceScore: 0.1}, nil
	}
	return verdict, nil
}

func (f *fakeClassifier) set(text string, level model.ThreatLevel, typ model.ThreatType) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verdicts[text] = collab.Classification{
		ThreatType:         typ,
		ThreatLevel:        level,
		ConfidenceScore:    0.9,
		Explanation:        "canned",
		RecommendedActions: []string{"block"},
	}
}

// recordingDispatcher captures what the service hands over after commit.
type recordingDispatcher struct {
	mu  sync.Mutex
	got []model.Notification
}

func (d *recordingDispatcher) Enqueue(ns ...model.Notification) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.got = append(d.got, ns...)
}

func (d *recordingDispatcher) all() []model.Notification {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]model.Notification(nil), d.got...)
}

func (d *recordingDispatcher) ofType(t model.NotificationType) []model.Notification {
	var out []model.Notification
	for _, n := range d.all() {
		if n.Type == t {
			out = append(out, n)
		}
	}
	return out
}

type env struct {
	svc        *Service
	store      *store.Store
	clock      *testutil.StepClock
	classifier *fakeClassifier
	dispatcher *recordingDispatcher
	metrics    *metrics.Metrics
	logs       *observer.ObservedLogs
}

func newEnv(t *testing.T) *env {
	t.Helper()

	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	core, logs := observer.New(zap.DebugLevel)
	e := &env{
		store:      st,
		clock:      testutil.NewStepClock(),
		classifier: &fakeClassifier{verdicts: map[string]collab.Classification{}},
		dispatcher: &recordingDispatcher{},
		metrics:    metrics.New(prometheus.NewRegistry()),
		logs:       logs,
	}
	e.svc = New(st, Options{
		Clock:               e.clock,
		IDs:                 testutil.NewSeqIDs("id"),
		Classifier:          e.classifier,
		Storage:             collab.NewDiskStorage(filepath.Join(dir, "files")),
		Verifiers:           collab.NewStaticVerifiers("verifier"),
		Dispatcher:          e.dispatcher,
		Metrics:             e.metrics,
		Logger:              zap.New(core),
		CollaboratorTimeout: time.Second,
	})
	return e
}

var adultDOB = time.Date(2000, time.March, 15, 0, 0, 0, 0, time.UTC)

func registerInput(name, email, phone string) RegisterUserInput {
	return RegisterUserInput{
		Name:        name,
		Email:       email,
		Phone:       phone,
		UserType:    model.UserTypeStudent,
		Gender:      model.GenderFemale,
		DateOfBirth: adultDOB,
	}
}

// register creates a user and fails the test on error.
func (e *env) register(t *testing.T, name, email, phone string) model.User {
	t.Helper()
	u, err := e.svc.RegisterUser(context.Background(), registerInput(name, email, phone))
	require.NoError(t, err)
	return u
}

// users registers alice, bob and carol, in that id order.
func (e *env) users(t *testing.T) (alice, bob, carol model.User) {
	t.Helper()
	alice = e.register(t, "Alice", "alice@example.com", "+15550001")
	bob = e.register(t, "Bob", "bob@example.com", "+15550002")
	carol = e.register(t, "Carol", "carol@example.com", "+15550003")
	return alice, bob, carol
}

// verifiedProfile creates a verified professional profile for owner.
func (e *env) verifiedProfile(t *testing.T, owner string) model.ProfessionalProfile {
	t.Helper()
	ctx := context.Background()
	p, err := e.svc.CreateProfessionalProfile(ctx, owner, ProfileInput{
		Profession:        model.ProfessionCounselor,
		YearsOfExperience: 5,
		IsAvailable:       true,
	})
	require.NoError(t, err)
	p, err = e.svc.VerifyProfessional(ctx, "verifier", p.ID, model.VerificationVerified)
	require.NoError(t, err)
	return p
}

// countRows runs a COUNT(*) query directly against the database.
func (e *env) countRows(t *testing.T, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, e.store.DB().QueryRow(query, args...).Scan(&n))
	return n
}

var errUnavailable = errors.New("model unavailable")
