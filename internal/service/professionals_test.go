package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/safeline/internal/apperr"
	"github.com/roach88/safeline/internal/model"
	"github.com/roach88/safeline/internal/store"
)

func TestProfessionalProfile_VisibilityFollowsVerification(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice, bob, _ := e.users(t)

	p, err := e.svc.CreateProfessionalProfile(ctx, alice.ID, ProfileInput{Profession: model.ProfessionLegalAid, YearsOfExperience: 3})
	require.NoError(t, err)
	assert.Equal(t, model.VerificationPending, p.VerificationStatus)
	assert.Zero(t, p.TotalReviews)

	_, err = e.svc.CreateProfessionalProfile(ctx, alice.ID, ProfileInput{Profession: model.ProfessionOther})
	assert.True(t, apperr.IsConflict(err))

	// Pending profiles are visible to their owner only.
	_, err = e.svc.GetProfessionalProfile(ctx, alice.ID, p.ID)
	require.NoError(t, err)
	_, err = e.svc.GetProfessionalProfile(ctx, bob.ID, p.ID)
	assert.True(t, apperr.IsAuthorization(err))
	listed, err := e.svc.ListVerifiedProfessionals(ctx, bob.ID, store.ProfileFilter{})
	require.NoError(t, err)
	assert.Empty(t, listed)

	verified, err := e.svc.VerifyProfessional(ctx, "verifier", p.ID, model.VerificationVerified)
	require.NoError(t, err)
	assert.Equal(t, model.VerificationVerified, verified.VerificationStatus)

	got, err := e.svc.GetProfessionalProfile(ctx, bob.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	listed, err = e.svc.ListVerifiedProfessionals(ctx, "", store.ProfileFilter{Profession: model.ProfessionLegalAid})
	require.NoError(t, err)
	require.Len(t, listed, 1)

	_, err = e.svc.ListVerifiedProfessionals(ctx, "", store.ProfileFilter{Profession: "Wizard"})
	assert.Equal(t, "profession", apperr.FieldOf(err))

	// Only the owner edits, and the edit leaves status and rating alone.
	_, err = e.svc.UpdateProfessionalProfile(ctx, bob.ID, p.ID, ProfileInput{Profession: model.ProfessionOther})
	assert.True(t, apperr.IsAuthorization(err))
	edited, err := e.svc.UpdateProfessionalProfile(ctx, alice.ID, p.ID, ProfileInput{Profession: model.ProfessionLegalAid, YearsOfExperience: 4, ConsultationFee: 25})
	require.NoError(t, err)
	assert.Equal(t, model.VerificationVerified, edited.VerificationStatus)
	assert.Equal(t, 4, edited.YearsOfExperience)
}

func TestVerifyProfessional_Rules(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice, bob, _ := e.users(t)

	p, err := e.svc.CreateProfessionalProfile(ctx, alice.ID, ProfileInput{Profession: model.ProfessionCounselor})
	require.NoError(t, err)

	_, err = e.svc.VerifyProfessional(ctx, bob.ID, p.ID, model.VerificationVerified)
	assert.True(t, apperr.IsAuthorization(err))
	_, err = e.svc.VerifyProfessional(ctx, alice.ID, p.ID, model.VerificationVerified)
	assert.True(t, apperr.IsAuthorization(err))
	assert.Equal(t, 2.0, promtest.ToFloat64(e.metrics.PolicyDenials.WithLabelValues("professional_profile", "verify")))

	_, err = e.svc.VerifyProfessional(ctx, "verifier", p.ID, model.VerificationPending)
	assert.Equal(t, "verification_status", apperr.FieldOf(err))

	_, err = e.svc.VerifyProfessional(ctx, "verifier", "id-missing", model.VerificationVerified)
	assert.True(t, apperr.IsNotFound(err))

	rejected, err := e.svc.VerifyProfessional(ctx, "verifier", p.ID, model.VerificationRejected)
	require.NoError(t, err)
	assert.Equal(t, model.VerificationRejected, rejected.VerificationStatus)

	_, err = e.svc.VerifyProfessional(ctx, "verifier", p.ID, model.VerificationVerified)
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))

	// The owner is told, but system updates are off by default.
	assert.Equal(t, 1, e.countRows(t, `SELECT COUNT(*) FROM notifications WHERE user_id = ? AND notification_type = 'system_update'`, alice.ID))
	assert.Empty(t, e.dispatcher.ofType(model.NotifySystemUpdate))
}

func TestCreateReview_Rules(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice, bob, carol := e.users(t)

	p := e.verifiedProfile(t, carol.ID)

	r, err := e.svc.CreateReview(ctx, alice.ID, ReviewInput{ProfessionalID: p.ID, Rating: 4, Text: "helpful"})
	require.NoError(t, err)
	assert.Equal(t, alice.ID, r.ReviewerID)

	_, err = e.svc.CreateReview(ctx, alice.ID, ReviewInput{ProfessionalID: p.ID, Rating: 2})
	assert.True(t, apperr.IsConflict(err))

	_, err = e.svc.CreateReview(ctx, carol.ID, ReviewInput{ProfessionalID: p.ID, Rating: 5})
	assert.Equal(t, "professional_id", apperr.FieldOf(err))

	_, err = e.svc.CreateReview(ctx, bob.ID, ReviewInput{ProfessionalID: p.ID, Rating: 6})
	assert.Equal(t, "rating", apperr.FieldOf(err))

	pending, err := e.svc.CreateProfessionalProfile(ctx, alice.ID, ProfileInput{Profession: model.ProfessionDoctor})
	require.NoError(t, err)
	_, err = e.svc.CreateReview(ctx, bob.ID, ReviewInput{ProfessionalID: pending.ID, Rating: 5})
	assert.True(t, apperr.IsAuthorization(err))
	_, err = e.svc.CreateReview(ctx, bob.ID, ReviewInput{ProfessionalID: "id-missing", Rating: 5})
	assert.True(t, apperr.IsAuthorization(err))

	got, err := e.svc.GetProfessionalProfile(ctx, bob.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.TotalReviews)
	assert.InDelta(t, 4.0, got.Rating, 1e-9)
}

func TestCreateReview_ConcurrentAggregate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	owner := e.register(t, "Owner", "owner@example.com", "+15559000")
	p := e.verifiedProfile(t, owner.ID)

	const n = 12
	reviewers := make([]model.User, n)
	for i := range reviewers {
		reviewers[i] = e.register(t, fmt.Sprintf("Reviewer %d", i),
			fmt.Sprintf("r%d@example.com", i), fmt.Sprintf("+1555800%02d", i))
	}

	var (
		wg  sync.WaitGroup
		sum int
	)
	errs := make([]error, n)
	for i, u := range reviewers {
		rating := i%5 + 1
		sum += rating
		wg.Add(1)
		go func(i int, reviewer string, rating int) {
			defer wg.Done()
			_, errs[i] = e.svc.CreateReview(ctx, reviewer, ReviewInput{ProfessionalID: p.ID, Rating: rating})
		}(i, u.ID, rating)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	got, err := e.svc.GetProfessionalProfile(ctx, owner.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, n, got.TotalReviews)
	assert.InDelta(t, float64(sum)/n, got.Rating, 1e-9)
}

func TestListReviews_RedactsAnonymousReviewers(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice, bob, carol := e.users(t)
	p := e.verifiedProfile(t, carol.ID)

	_, err := e.svc.CreateReview(ctx, alice.ID, ReviewInput{ProfessionalID: p.ID, Rating: 5, IsAnonymous: true})
	require.NoError(t, err)
	_, err = e.svc.CreateReview(ctx, bob.ID, ReviewInput{ProfessionalID: p.ID, Rating: 3})
	require.NoError(t, err)

	reviewerIDs := func(principal string) map[string]bool {
		t.Helper()
		rows, err := e.svc.ListReviews(ctx, principal, p.ID)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		ids := map[string]bool{}
		for _, r := range rows {
			ids[r.ReviewerID] = true
		}
		return ids
	}

	assert.Equal(t, map[string]bool{"": true, bob.ID: true}, reviewerIDs(carol.ID))
	assert.Equal(t, map[string]bool{"": true, bob.ID: true}, reviewerIDs(""))
	assert.Equal(t, map[string]bool{alice.ID: true, bob.ID: true}, reviewerIDs(alice.ID))
}

func TestDeleteProfessionalProfile_CascadesReviews(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice, bob, _ := e.users(t)
	p := e.verifiedProfile(t, alice.ID)

	_, err := e.svc.CreateReview(ctx, bob.ID, ReviewInput{ProfessionalID: p.ID, Rating: 5})
	require.NoError(t, err)

	assert.True(t, apperr.IsAuthorization(e.svc.DeleteProfessionalProfile(ctx, bob.ID, p.ID)))
	require.NoError(t, e.svc.DeleteProfessionalProfile(ctx, alice.ID, p.ID))
	assert.Zero(t, e.countRows(t, `SELECT COUNT(*) FROM reviews`))
}
