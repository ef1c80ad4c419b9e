package store

import (
	"context"
	"fmt"

	"github.com/roach88/safeline/internal/model"
)

const reviewColumns = `id, reviewer_id, professional_id, rating, review_text, is_anonymous, created_at`

// InsertReview inserts a review.
// A second review of the same professional by the same reviewer fails with a
// UNIQUE *ConstraintError.
func (t *Tx) InsertReview(ctx context.Context, r model.Review) error {
	_, err := t.exec(ctx, `
		INSERT INTO reviews (`+reviewColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.ReviewerID, r.ProfessionalID, r.Rating, r.Text, r.IsAnonymous, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

// ListReviews returns the reviews of a professional, newest first.
func (t *Tx) ListReviews(ctx context.Context, professionalID string) ([]model.Review, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT `+reviewColumns+` FROM reviews
		WHERE professional_id = ?
		ORDER BY created_at DESC, id DESC
	`, professionalID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	out := []model.Review{}
	for rows.Next() {
		var r model.Review
		if err := rows.Scan(&r.ID, &r.ReviewerID, &r.ProfessionalID, &r.Rating, &r.Text, &r.IsAnonymous, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reviews: %w", err)
	}
	return out, nil
}

// ReviewAggregate returns the mean rating and count of a professional's
// reviews. Both are zero when there are none.
func (t *Tx) ReviewAggregate(ctx context.Context, professionalID string) (float64, int, error) {
	var (
		avg   float64
		count int
	)
	err := t.tx.QueryRowContext(ctx, `
		SELECT COALESCE(AVG(rating), 0), COUNT(*) FROM reviews WHERE professional_id = ?
	`, professionalID).Scan(&avg, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("review aggregate: %w", err)
	}
	return avg, count, nil
}

// ProfilesReviewedBy returns the ids of the profiles reviewerID has reviewed.
func (t *Tx) ProfilesReviewedBy(ctx context.Context, reviewerID string) ([]string, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT DISTINCT professional_id FROM reviews WHERE reviewer_id = ? ORDER BY professional_id
	`, reviewerID)
	if err != nil {
		return nil, fmt.Errorf("reviewed profiles: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan profile id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profile ids: %w", err)
	}
	return ids, nil
}
