package store

import (
	"context"
	"fmt"

	"github.com/roach88/safeline/internal/model"
)

const guidanceColumns = `id, title, category, content, jurisdiction, is_active, priority_order, created_at, updated_at`

const resourceColumns = `id, name, resource_type, description, contact_phone, contact_email, website_url,
	address, availability, is_emergency, country, state_province, city, is_active, created_at, updated_at`

// UpsertLegalGuidance inserts a guidance entry or replaces the content of an
// existing one with the same id. created_at is kept on replace.
func (t *Tx) UpsertLegalGuidance(ctx context.Context, g model.LegalGuidance) error {
	_, err := t.exec(ctx, `
		INSERT INTO legal_guidance (`+guidanceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			category = excluded.category,
			content = excluded.content,
			jurisdiction = excluded.jurisdiction,
			is_active = excluded.is_active,
			priority_order = excluded.priority_order,
			updated_at = excluded.updated_at
	`,
		g.ID, g.Title, g.Category, g.Content, g.Jurisdiction, g.IsActive, g.PriorityOrder,
		g.CreatedAt, g.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert legal guidance: %w", err)
	}
	return nil
}

// GuidanceFilter narrows ListLegalGuidance. Empty fields match everything.
type GuidanceFilter struct {
	Category     string
	Jurisdiction string
}

// ListLegalGuidance returns active guidance, highest priority_order first.
func (t *Tx) ListLegalGuidance(ctx context.Context, f GuidanceFilter) ([]model.LegalGuidance, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT `+guidanceColumns+` FROM legal_guidance
		WHERE is_active = 1
		  AND (? = '' OR category = ?)
		  AND (? = '' OR jurisdiction = ?)
		ORDER BY priority_order DESC, created_at DESC, id ASC
	`, f.Category, f.Category, f.Jurisdiction, f.Jurisdiction)
	if err != nil {
		return nil, fmt.Errorf("list legal guidance: %w", err)
	}
	defer rows.Close()

	out := []model.LegalGuidance{}
	for rows.Next() {
		var g model.LegalGuidance
		if err := rows.Scan(
			&g.ID, &g.Title, &g.Category, &g.Content, &g.Jurisdiction, &g.IsActive, &g.PriorityOrder,
			&g.CreatedAt, &g.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan legal guidance: %w", err)
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate legal guidance: %w", err)
	}
	return out, nil
}

// UpsertSupportResource inserts a support resource or replaces an existing
// one with the same id. created_at is kept on replace.
func (t *Tx) UpsertSupportResource(ctx context.Context, r model.SupportResource) error {
	_, err := t.exec(ctx, `
		INSERT INTO support_resources (`+resourceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			resource_type = excluded.resource_type,
			description = excluded.description,
			contact_phone = excluded.contact_phone,
			contact_email = excluded.contact_email,
			website_url = excluded.website_url,
			address = excluded.address,
			availability = excluded.availability,
			is_emergency = excluded.is_emergency,
			country = excluded.country,
			state_province = excluded.state_province,
			city = excluded.city,
			is_active = excluded.is_active,
			updated_at = excluded.updated_at
	`,
		r.ID, r.Name, r.ResourceType, r.Description, r.ContactPhone, r.ContactEmail, r.WebsiteURL,
		r.Address, r.Availability, r.IsEmergency, r.Country, r.StateProvince, r.City, r.IsActive,
		r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert support resource: %w", err)
	}
	return nil
}

// ResourceFilter narrows ListSupportResources. Empty fields match everything.
type ResourceFilter struct {
	ResourceType  string
	Country       string
	EmergencyOnly bool
}

// ListSupportResources returns active resources, emergency services first.
func (t *Tx) ListSupportResources(ctx context.Context, f ResourceFilter) ([]model.SupportResource, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT `+resourceColumns+` FROM support_resources
		WHERE is_active = 1
		  AND (? = '' OR resource_type = ?)
		  AND (? = '' OR country = ?)
		  AND (? = 0 OR is_emergency = 1)
		ORDER BY is_emergency DESC, name ASC
	`, f.ResourceType, f.ResourceType, f.Country, f.Country, f.EmergencyOnly)
	if err != nil {
		return nil, fmt.Errorf("list support resources: %w", err)
	}
	defer rows.Close()

	out := []model.SupportResource{}
	for rows.Next() {
		var r model.SupportResource
		if err := rows.Scan(
			&r.ID, &r.Name, &r.ResourceType, &r.Description, &r.ContactPhone, &r.ContactEmail, &r.WebsiteURL,
			&r.Address, &r.Availability, &r.IsEmergency, &r.Country, &r.StateProvince, &r.City, &r.IsActive,
			&r.CreatedAt, &r.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan support resource: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate support resources: %w", err)
	}
	return out, nil
}
