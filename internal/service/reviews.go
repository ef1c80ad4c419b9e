package service

import (
	"context"

	"github.com/roach88/safeline/internal/apperr"
	"github.com/roach88/safeline/internal/integrity"
	"github.com/roach88/safeline/internal/model"
	"github.com/roach88/safeline/internal/policy"
	"github.com/roach88/safeline/internal/store"
	"github.com/roach88/safeline/internal/trigger"
)

// ReviewInput is a new review.
type ReviewInput struct {
	ProfessionalID string
	Rating         int
	Text           string
	IsAnonymous    bool
}

// CreateReview records the principal's review of a professional they can
// see and recomputes the profile's rating and total_reviews in the same
// transaction. One review per reviewer and professional; no self-reviews.
func (s *Service) CreateReview(ctx context.Context, principal string, in ReviewInput) (model.Review, error) {
	var out model.Review
	err := s.run(ctx, "create_review", principal, func(ctx context.Context, tx *store.Tx, fx *trigger.Effects) error {
		r := model.Review{
			ID:             fx.NewID(),
			ReviewerID:     principal,
			ProfessionalID: in.ProfessionalID,
			Rating:         in.Rating,
			Text:           integrity.Text(in.Text),
			IsAnonymous:    in.IsAnonymous,
			CreatedAt:      fx.Now(),
		}
		if err := s.authorize(principal, policy.OpCreate, r, r.ID); err != nil {
			return err
		}
		if err := integrity.Validate("review", &r); err != nil {
			return err
		}
		p, err := s.readableProfile(ctx, tx, principal, in.ProfessionalID, policy.OpRead)
		if err != nil {
			return err
		}
		if p.UserID == principal {
			return apperr.Validation("review", "professional_id", "cannot review your own profile")
		}

		if err := tx.InsertReview(ctx, r); err != nil {
			return integrity.FromStoreError("review", r.ID, err)
		}
		if _, _, err := fx.RecomputeRating(ctx, tx, p.ID); err != nil {
			return integrity.FromStoreError("professional_profile", p.ID, err)
		}
		out = r
		return nil
	})
	return out, err
}

// ListReviews returns a professional's reviews, newest first. Anyone may
// read reviews; anonymous reviewers are hidden from everyone but
// themselves.
func (s *Service) ListReviews(ctx context.Context, principal, professionalID string) ([]model.Review, error) {
	var out []model.Review
	err := s.run(ctx, "list_reviews", principal, func(ctx context.Context, tx *store.Tx, _ *trigger.Effects) error {
		rows, err := tx.ListReviews(ctx, professionalID)
		if err != nil {
			return err
		}
		out = make([]model.Review, 0, len(rows))
		for _, r := range rows {
			if !policy.Authorize(principal, policy.OpRead, r) {
				continue
			}
			if r.IsAnonymous && r.ReviewerID != principal {
				r.ReviewerID = ""
			}
			out = append(out, r)
		}
		return nil
	})
	return out, err
}
