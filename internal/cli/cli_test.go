package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/safeline/internal/model"
	"github.com/roach88/safeline/internal/service"
	"github.com/roach88/safeline/internal/store"
)

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// isolate points configuration at a temp database and clears variables
// that would leak in from the environment.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("APP_ENV", "test")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("JWT_SIGNING_KEY", "cli-test-key")
	t.Setenv("STORAGE_DIR", filepath.Join(dir, "evidence"))
	t.Setenv("VERIFIER_IDS", "")
	return filepath.Join(dir, "safeline.db")
}

func decodeResponse(t *testing.T, out string) map[string]any {
	t.Helper()
	var resp struct {
		Status string         `json:"status"`
		Data   map[string]any `json:"data"`
		Error  map[string]any `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	if resp.Status == "error" {
		return resp.Error
	}
	return resp.Data
}

func registerUser(t *testing.T, db, email, phone string) string {
	t.Helper()
	out, err := execute(t, "--db", db, "--format", "json", "register-user",
		"--name", "Test User", "--email", email, "--phone", phone, "--dob", "1999-05-01")
	require.NoError(t, err, out)
	id, _ := decodeResponse(t, out)["id"].(string)
	require.NotEmpty(t, id)
	return id
}

func issueToken(t *testing.T, db, userID string) string {
	t.Helper()
	out, err := execute(t, "--db", db, "token", userID)
	require.NoError(t, err, out)
	return strings.TrimSpace(out)
}

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := NewRootCommand()

	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"migrate", "seed", "scenario", "token", "register-user", "delete-user", "verify-professional", "analyze"} {
		assert.Contains(t, names, want)
	}

	for _, flag := range []string{"db", "format", "verbose", "token", "env-file", "metrics-file"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), flag)
	}
}

func TestRootCommand_InvalidFormat(t *testing.T) {
	isolate(t)
	_, err := execute(t, "--format", "xml", "migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(assert.AnError))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad")))

	wrapped := WrapExitError(ExitFailure, "op failed", assert.AnError)
	assert.ErrorIs(t, wrapped, assert.AnError)
	assert.Equal(t, "op failed: "+assert.AnError.Error(), wrapped.Error())
}

func TestMigrate(t *testing.T) {
	db := isolate(t)

	out, err := execute(t, "--db", db, "--format", "json", "migrate")
	require.NoError(t, err)
	data := decodeResponse(t, out)
	assert.EqualValues(t, 1, data["schema_version"])
	assert.Equal(t, db, data["database"])

	// Reopening an existing database is a no-op.
	out, err = execute(t, "--db", db, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Schema version 1")
}

func TestMigrate_UnopenableDatabase(t *testing.T) {
	isolate(t)
	_, err := execute(t, "--db", filepath.Join(t.TempDir(), "missing", "dir", "x.db"), "migrate")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSeed(t *testing.T) {
	db := isolate(t)
	seedFile := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(seedFile, []byte(`
legal_guidance:
  - id: lg-1
    title: Restraining orders
    category: protection
    content: How to apply for a protective order.
    is_active: true
support_resources:
  - id: sr-1
    name: National Helpline
    resource_type: helpline
    contact_phone: "+1 (800) 555-0100"
    is_emergency: true
    is_active: true
`), 0o644))

	out, err := execute(t, "--db", db, "seed", seedFile)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Seeded 2 reference rows")

	// Seeding again upserts the same rows.
	out, err = execute(t, "--db", db, "--format", "json", "seed", seedFile)
	require.NoError(t, err, out)
	assert.EqualValues(t, 2, decodeResponse(t, out)["rows"])
}

func TestSeed_Errors(t *testing.T) {
	db := isolate(t)
	dir := t.TempDir()

	_, err := execute(t, "--db", db, "seed", filepath.Join(dir, "nope.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	unknown := filepath.Join(dir, "unknown.yaml")
	require.NoError(t, os.WriteFile(unknown, []byte("shelters: []\n"), 0o644))
	_, err = execute(t, "--db", db, "seed", unknown)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("support_resources:\n  - name: No type\n"), 0o644))
	out, err := execute(t, "--db", db, "--format", "json", "seed", invalid)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	desc := decodeResponse(t, out)
	assert.Equal(t, "VALIDATION", desc["kind"])
	assert.Equal(t, "resource_type", desc["field"])
}

func TestScenario(t *testing.T) {
	isolate(t)

	out, err := execute(t, "scenario",
		"../harness/testdata/scenarios/core_flow.yaml",
		"../harness/testdata/scenarios/professional_reviews.yaml")
	require.NoError(t, err, out)
	assert.Contains(t, out, "PASS core_flow")
	assert.Contains(t, out, "PASS professional_reviews")
	assert.Contains(t, out, "notify $a threat_alert priority=urgent")
}

func TestScenario_Failure(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "failing.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`name: failing
description: expects the wrong outcome
steps:
  - op: register_user
    args: {name: Alice, email: a@x.com, phone: "+1000"}
    expect: {outcome: VALIDATION}
`), 0o644))

	out, err := execute(t, "--format", "json", "scenario", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Data []scenarioReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 1)
	assert.False(t, resp.Data[0].Pass)
	assert.NotEmpty(t, resp.Data[0].Errors)
}

func TestRegisterAndDeleteUser(t *testing.T) {
	db := isolate(t)
	alice := registerUser(t, db, "alice@example.com", "+15550001001")
	bob := registerUser(t, db, "bob@example.com", "+15550001002")
	aliceToken := issueToken(t, db, alice)

	// Duplicate email is reported on its field.
	out, err := execute(t, "--db", db, "--format", "json", "register-user",
		"--name", "Copy", "--email", "alice@example.com", "--phone", "+15550001003", "--dob", "1999-05-01")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "email", decodeResponse(t, out)["field"])

	// Deleting someone else is denied.
	out, err = execute(t, "--db", db, "--token", aliceToken, "delete-user", bob)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [AUTHORIZATION]")

	out, err = execute(t, "--db", db, "--token", aliceToken, "delete-user", alice)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Deleted user "+alice)

	// The credential outlives the user but the user is gone.
	_, err = execute(t, "--db", db, "token", alice)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestMetricsFile(t *testing.T) {
	db := isolate(t)
	path := filepath.Join(t.TempDir(), "safeline.prom")

	out, err := execute(t, "--db", db, "--metrics-file", path, "register-user",
		"--name", "Test User", "--email", "m@example.com", "--phone", "+15550003001", "--dob", "1999-05-01")
	require.NoError(t, err, out)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `safeline_operations_total{operation="register_user",outcome="ok"} 1`)
	assert.Contains(t, string(data), "# TYPE safeline_operation_duration_seconds histogram")
}

func TestRegisterUser_BadDate(t *testing.T) {
	db := isolate(t)
	out, err := execute(t, "--db", db, "register-user",
		"--name", "A", "--email", "a@example.com", "--phone", "+15550001001", "--dob", "01/02/1999")
	require.Error(t, err)
	assert.Contains(t, out, "field: date_of_birth")
}

func TestDeleteUser_Credentials(t *testing.T) {
	db := isolate(t)
	alice := registerUser(t, db, "alice@example.com", "+15550001001")

	_, err := execute(t, "--db", db, "delete-user", alice)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	out, err := execute(t, "--db", db, "--token", "not-a-token", "delete-user", alice)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [AUTHORIZATION]")
}

func TestVerifyProfessional(t *testing.T) {
	db := isolate(t)
	pro := registerUser(t, db, "pro@example.com", "+15550002001")
	verifier := registerUser(t, db, "verifier@example.com", "+15550002002")
	t.Setenv("VERIFIER_IDS", verifier)

	st, err := store.Open(db)
	require.NoError(t, err)
	profile, err := service.New(st, service.Options{}).CreateProfessionalProfile(context.Background(), pro, service.ProfileInput{
		Profession:        model.ProfessionCounselor,
		YearsOfExperience: 4,
	})
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, err := execute(t, "--db", db, "--token", issueToken(t, db, pro), "verify-professional", profile.ID, "verified")
	require.Error(t, err)
	assert.Contains(t, out, "Error [AUTHORIZATION]")

	verifierToken := issueToken(t, db, verifier)
	out, err = execute(t, "--db", db, "--token", verifierToken, "verify-professional", profile.ID, "verified")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Profile "+profile.ID+" is verified")

	out, err = execute(t, "--db", db, "--token", verifierToken, "verify-professional", profile.ID, "rejected")
	require.Error(t, err)
	assert.Contains(t, out, "field: verification_status")
}
