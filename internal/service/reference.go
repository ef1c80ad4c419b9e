package service

import (
	"context"

	"github.com/roach88/safeline/internal/integrity"
	"github.com/roach88/safeline/internal/model"
	"github.com/roach88/safeline/internal/store"
	"github.com/roach88/safeline/internal/trigger"
)

// ListLegalGuidance returns active guidance. Anyone may call it.
func (s *Service) ListLegalGuidance(ctx context.Context, principal string, f store.GuidanceFilter) ([]model.LegalGuidance, error) {
	var out []model.LegalGuidance
	err := s.run(ctx, "list_legal_guidance", principal, func(ctx context.Context, tx *store.Tx, _ *trigger.Effects) error {
		rows, err := tx.ListLegalGuidance(ctx, f)
		if err != nil {
			return err
		}
		out = rows
		return nil
	})
	return out, err
}

// ListSupportResources returns active support resources. Anyone may call it.
func (s *Service) ListSupportResources(ctx context.Context, principal string, f store.ResourceFilter) ([]model.SupportResource, error) {
	var out []model.SupportResource
	err := s.run(ctx, "list_support_resources", principal, func(ctx context.Context, tx *store.Tx, _ *trigger.Effects) error {
		rows, err := tx.ListSupportResources(ctx, f)
		if err != nil {
			return err
		}
		out = rows
		return nil
	})
	return out, err
}

// ReferenceData is a batch of reference rows to load.
type ReferenceData struct {
	LegalGuidance    []model.LegalGuidance   `yaml:"legal_guidance"`
	SupportResources []model.SupportResource `yaml:"support_resources"`
}

// SeedReference upserts reference data by id. Principals have no write
// access to reference data, so this is a system operation for operators
// (the seed command) and takes no principal.
func (s *Service) SeedReference(ctx context.Context, data ReferenceData) (int, error) {
	var n int
	err := s.run(ctx, "seed_reference", "", func(ctx context.Context, tx *store.Tx, fx *trigger.Effects) error {
		n = 0
		for _, g := range data.LegalGuidance {
			if g.ID == "" {
				g.ID = fx.NewID()
			}
			g.Title = integrity.Text(g.Title)
			g.Category = integrity.Text(g.Category)
			g.Content = integrity.Text(g.Content)
			g.Jurisdiction = integrity.Text(g.Jurisdiction)
			now := fx.Touch(&g)
			if g.CreatedAt.IsZero() {
				g.CreatedAt = now
			}
			if err := integrity.Validate("legal_guidance", &g); err != nil {
				return err
			}
			if err := tx.UpsertLegalGuidance(ctx, g); err != nil {
				return integrity.FromStoreError("legal_guidance", g.ID, err)
			}
			n++
		}
		for _, r := range data.SupportResources {
			if r.ID == "" {
				r.ID = fx.NewID()
			}
			r.Name = integrity.Text(r.Name)
			r.ContactPhone = integrity.NormalizePhone(r.ContactPhone)
			r.ContactEmail = integrity.NormalizeEmail(r.ContactEmail)
			now := fx.Touch(&r)
			if r.CreatedAt.IsZero() {
				r.CreatedAt = now
			}
			if err := integrity.Validate("support_resource", &r); err != nil {
				return err
			}
			if err := tx.UpsertSupportResource(ctx, r); err != nil {
				return integrity.FromStoreError("support_resource", r.ID, err)
			}
			n++
		}
		return nil
	})
	return n, err
}
