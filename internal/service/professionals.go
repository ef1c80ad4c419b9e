package service

import (
	"context"

	"github.com/roach88/safeline/internal/apperr"
	"github.com/roach88/safeline/internal/collab"
	"github.com/roach88/safeline/internal/integrity"
	"github.com/roach88/safeline/internal/model"
	"github.com/roach88/safeline/internal/policy"
	"github.com/roach88/safeline/internal/store"
	"github.com/roach88/safeline/internal/trigger"
)

// ProfileInput is the owner-editable part of a professional profile.
type ProfileInput struct {
	Profession            model.Profession
	LicenseNumber         string
	Organization          string
	Specialization        string
	YearsOfExperience     int
	VerificationDocuments []string
	AvailabilityHours     model.AvailabilityHours
	ConsultationFee       float64
	IsAvailable           bool
}

func (in ProfileInput) apply(p *model.ProfessionalProfile) {
	p.Profession = in.Profession
	p.LicenseNumber = integrity.Text(in.LicenseNumber)
	p.Organization = integrity.Text(in.Organization)
	p.Specialization = integrity.Text(in.Specialization)
	p.YearsOfExperience = in.YearsOfExperience
	p.VerificationDocuments = append([]string{}, in.VerificationDocuments...)
	p.AvailabilityHours = in.AvailabilityHours
	p.ConsultationFee = in.ConsultationFee
	p.IsAvailable = in.IsAvailable
}

// CreateProfessionalProfile creates the principal's profile, pending
// verification and unrated. A user has at most one profile.
func (s *Service) CreateProfessionalProfile(ctx context.Context, principal string, in ProfileInput) (model.ProfessionalProfile, error) {
	var out model.ProfessionalProfile
	err := s.run(ctx, "create_professional_profile", principal, func(ctx context.Context, tx *store.Tx, fx *trigger.Effects) error {
		now := fx.Now()
		p := model.ProfessionalProfile{
			ID:                 fx.NewID(),
			UserID:             principal,
			VerificationStatus: model.VerificationPending,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		in.apply(&p)
		if err := s.authorize(principal, policy.OpCreate, p, p.ID); err != nil {
			return err
		}
		if err := integrity.Validate("professional_profile", &p); err != nil {
			return err
		}
		if err := requireUser(ctx, tx, "professional_profile", "user_id", principal); err != nil {
			return err
		}
		if err := tx.InsertProfile(ctx, p); err != nil {
			return integrity.FromStoreError("professional_profile", p.ID, err)
		}
		out = p
		return nil
	})
	return out, err
}

// GetProfessionalProfile returns a verified profile, or the principal's own
// profile in any state.
func (s *Service) GetProfessionalProfile(ctx context.Context, principal, id string) (model.ProfessionalProfile, error) {
	var out model.ProfessionalProfile
	err := s.run(ctx, "get_professional_profile", principal, func(ctx context.Context, tx *store.Tx, _ *trigger.Effects) error {
		p, err := s.readableProfile(ctx, tx, principal, id, policy.OpRead)
		if err != nil {
			return err
		}
		out = p
		return nil
	})
	return out, err
}

func (s *Service) readableProfile(ctx context.Context, tx *store.Tx, principal, id string, op policy.Operation) (model.ProfessionalProfile, error) {
	p, err := tx.GetProfile(ctx, id)
	if err != nil {
		return model.ProfessionalProfile{}, s.denied("professional_profile", id, string(op), err)
	}
	if err := s.authorize(principal, op, p, id); err != nil {
		return model.ProfessionalProfile{}, err
	}
	return p, nil
}

// ListVerifiedProfessionals returns verified profiles, best rated first.
// Anyone may call it.
func (s *Service) ListVerifiedProfessionals(ctx context.Context, principal string, f store.ProfileFilter) ([]model.ProfessionalProfile, error) {
	var out []model.ProfessionalProfile
	err := s.run(ctx, "list_verified_professionals", principal, func(ctx context.Context, tx *store.Tx, _ *trigger.Effects) error {
		if f.Profession != "" && !f.Profession.Valid() {
			return apperr.Validation("professional_profile", "profession", "invalid value \""+string(f.Profession)+"\"")
		}
		rows, err := tx.ListVerifiedProfiles(ctx, f)
		if err != nil {
			return err
		}
		out = make([]model.ProfessionalProfile, 0, len(rows))
		for _, p := range rows {
			if policy.Authorize(principal, policy.OpRead, p) {
				out = append(out, p)
			}
		}
		return nil
	})
	return out, err
}

// UpdateProfessionalProfile replaces the owner-editable fields of the
// principal's profile. Verification status and rating are not writable here.
func (s *Service) UpdateProfessionalProfile(ctx context.Context, principal, id string, in ProfileInput) (model.ProfessionalProfile, error) {
	var out model.ProfessionalProfile
	err := s.run(ctx, "update_professional_profile", principal, func(ctx context.Context, tx *store.Tx, fx *trigger.Effects) error {
		p, err := s.readableProfile(ctx, tx, principal, id, policy.OpUpdate)
		if err != nil {
			return err
		}
		in.apply(&p)
		fx.Touch(&p)
		if err := integrity.Validate("professional_profile", &p); err != nil {
			return err
		}
		if err := tx.UpdateProfile(ctx, p); err != nil {
			return integrity.FromStoreError("professional_profile", id, err)
		}
		out = p
		return nil
	})
	return out, err
}

// VerifyProfessional settles a pending profile as verified or rejected.
// Only principals the verifier authority accepts may call it, and the
// decision is final. The owner gets a system_update notification.
func (s *Service) VerifyProfessional(ctx context.Context, principal, id string, status model.VerificationStatus) (model.ProfessionalProfile, error) {
	var out model.ProfessionalProfile
	err := s.observed(ctx, "verify_professional", principal, func() error {
		if err := requireCollaborator("verifier", s.verifiers != nil); err != nil {
			return err
		}
		ok, err := collab.Do(ctx, s.timeout, "verifier", func(ctx context.Context) (bool, error) {
			return principal != "" && s.verifiers.AuthorizeVerifier(ctx, principal), nil
		})
		if err != nil {
			return err
		}
		if !ok {
			if s.metrics != nil {
				s.metrics.PolicyDenied("professional_profile", "verify")
			}
			return apperr.Denied("professional_profile", id)
		}
		if status != model.VerificationVerified && status != model.VerificationRejected {
			return apperr.Validation("professional_profile", "verification_status", "must be verified or rejected")
		}

		return s.transact(ctx, func(ctx context.Context, tx *store.Tx, fx *trigger.Effects) error {
			p, err := tx.GetProfile(ctx, id)
			if err != nil {
				return integrity.FromStoreError("professional_profile", id, err)
			}
			if p.VerificationStatus != model.VerificationPending {
				return apperr.Validation("professional_profile", "verification_status", "verification is final")
			}
			p.VerificationStatus = status
			now := fx.Touch(&p)
			if err := tx.UpdateVerification(ctx, id, status, now); err != nil {
				return integrity.FromStoreError("professional_profile", id, err)
			}

			body := "Your professional profile was verified."
			if status == model.VerificationRejected {
				body = "Your professional profile could not be verified."
			}
			if _, err := fx.Notify(ctx, tx, model.Notification{
				UserID:   p.UserID,
				Type:     model.NotifySystemUpdate,
				Title:    "Profile Verification Update",
				Body:     body,
				Priority: model.PriorityHigh,
				Metadata: map[string]string{"profile_id": id, "status": string(status)},
			}); err != nil {
				return err
			}
			out = p
			return nil
		})
	})
	return out, err
}

// DeleteProfessionalProfile deletes the principal's profile and its reviews.
func (s *Service) DeleteProfessionalProfile(ctx context.Context, principal, id string) error {
	return s.run(ctx, "delete_professional_profile", principal, func(ctx context.Context, tx *store.Tx, _ *trigger.Effects) error {
		if _, err := s.readableProfile(ctx, tx, principal, id, policy.OpDelete); err != nil {
			return err
		}
		return integrity.FromStoreError("professional_profile", id, tx.DeleteProfile(ctx, id))
	})
}
