package store

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/safeline/internal/model"
)

const profileColumns = `id, user_id, profession, license_number, organization, specialization,
	years_of_experience, verification_status, verification_documents, availability_hours,
	consultation_fee, rating, total_reviews, is_available, created_at, updated_at`

// InsertProfile inserts a professional profile.
// A second profile for the same user fails with a UNIQUE *ConstraintError.
func (t *Tx) InsertProfile(ctx context.Context, p model.ProfessionalProfile) error {
	docs, hours, err := marshalProfile(p)
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	_, err = t.exec(ctx, `
		INSERT INTO professional_profiles (`+profileColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.ID, p.UserID, string(p.Profession), p.LicenseNumber, p.Organization, p.Specialization,
		p.YearsOfExperience, string(p.VerificationStatus), docs, hours,
		p.ConsultationFee, p.Rating, p.TotalReviews, p.IsAvailable, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

// GetProfile reads a profile by id.
func (t *Tx) GetProfile(ctx context.Context, id string) (model.ProfessionalProfile, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM professional_profiles WHERE id = ?`, id)
	return scanProfile(row)
}

// GetProfileByUser reads the profile owned by userID.
func (t *Tx) GetProfileByUser(ctx context.Context, userID string) (model.ProfessionalProfile, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM professional_profiles WHERE user_id = ?`, userID)
	return scanProfile(row)
}

// UpdateProfile writes the owner-editable columns of a profile.
// Verification status and the rating aggregate have their own writers.
func (t *Tx) UpdateProfile(ctx context.Context, p model.ProfessionalProfile) error {
	docs, hours, err := marshalProfile(p)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	err = t.execOne(ctx, `
		UPDATE professional_profiles
		SET profession = ?, license_number = ?, organization = ?, specialization = ?,
		    years_of_experience = ?, verification_documents = ?, availability_hours = ?,
		    consultation_fee = ?, is_available = ?, updated_at = ?
		WHERE id = ?
	`,
		string(p.Profession), p.LicenseNumber, p.Organization, p.Specialization,
		p.YearsOfExperience, docs, hours, p.ConsultationFee, p.IsAvailable, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

// UpdateVerification sets the verification status. The schema trigger
// rejects any change once the status has left pending.
func (t *Tx) UpdateVerification(ctx context.Context, id string, status model.VerificationStatus, at time.Time) error {
	err := t.execOne(ctx, `
		UPDATE professional_profiles SET verification_status = ?, updated_at = ? WHERE id = ?
	`, string(status), at, id)
	if err != nil {
		return fmt.Errorf("update verification: %w", err)
	}
	return nil
}

// UpdateRating stores a recomputed rating aggregate.
func (t *Tx) UpdateRating(ctx context.Context, id string, rating float64, total int, at time.Time) error {
	err := t.execOne(ctx, `
		UPDATE professional_profiles SET rating = ?, total_reviews = ?, updated_at = ? WHERE id = ?
	`, rating, total, at, id)
	if err != nil {
		return fmt.Errorf("update rating: %w", err)
	}
	return nil
}

// DeleteProfile deletes a profile. Its reviews cascade.
func (t *Tx) DeleteProfile(ctx context.Context, id string) error {
	if err := t.execOne(ctx, `DELETE FROM professional_profiles WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	return nil
}

// ProfileFilter narrows ListVerifiedProfiles. Empty fields match everything.
type ProfileFilter struct {
	Profession    model.Profession
	AvailableOnly bool
}

// ListVerifiedProfiles returns verified profiles, best rated first.
func (t *Tx) ListVerifiedProfiles(ctx context.Context, f ProfileFilter) ([]model.ProfessionalProfile, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT `+profileColumns+` FROM professional_profiles
		WHERE verification_status = 'verified'
		  AND (? = '' OR profession = ?)
		  AND (? = 0 OR is_available = 1)
		ORDER BY rating DESC, total_reviews DESC, id ASC
	`, string(f.Profession), string(f.Profession), f.AvailableOnly)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	out := []model.ProfessionalProfile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}
	return out, nil
}

func marshalProfile(p model.ProfessionalProfile) (docs, hours string, err error) {
	if docs, err = marshalJSON("verification_documents", p.VerificationDocuments); err != nil {
		return "", "", err
	}
	if hours, err = marshalJSON("availability_hours", p.AvailabilityHours); err != nil {
		return "", "", err
	}
	return docs, hours, nil
}

func scanProfile(row scanner) (model.ProfessionalProfile, error) {
	var (
		p                   model.ProfessionalProfile
		profession, status string
		docs, hours         string
	)
	err := row.Scan(
		&p.ID, &p.UserID, &profession, &p.LicenseNumber, &p.Organization, &p.Specialization,
		&p.YearsOfExperience, &status, &docs, &hours,
		&p.ConsultationFee, &p.Rating, &p.TotalReviews, &p.IsAvailable, &p.CreatedAt, &p.UpdatedAt,
	)
	if err := scanOne(err, "profile"); err != nil {
		return model.ProfessionalProfile{}, err
	}
	p.Profession = model.Profession(profession)
	p.VerificationStatus = model.VerificationStatus(status)
	if err := unmarshalJSON("verification_documents", docs, &p.VerificationDocuments); err != nil {
		return model.ProfessionalProfile{}, err
	}
	if err := unmarshalJSON("availability_hours", hours, &p.AvailabilityHours); err != nil {
		return model.ProfessionalProfile{}, err
	}
	return p, nil
}
