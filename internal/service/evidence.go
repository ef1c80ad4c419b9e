package service

import (
	"context"
	"fmt"

	"github.com/roach88/safeline/internal/apperr"
	"github.com/roach88/safeline/internal/collab"
	"github.com/roach88/safeline/internal/integrity"
	"github.com/roach88/safeline/internal/model"
	"github.com/roach88/safeline/internal/policy"
	"github.com/roach88/safeline/internal/store"
	"github.com/roach88/safeline/internal/trigger"
)

// UploadEvidenceInput is a file to store as evidence.
type UploadEvidenceInput struct {
	ThreatDetectionID string
	EvidenceType      model.EvidenceType
	FileName          string
	MimeType          string
	Description       string
	IsEncrypted       bool
	Data              []byte
}

// UploadEvidence stores the file through the storage collaborator and
// records it with the url, digest and size the collaborator returns. The
// digest never changes afterwards.
//
// A referenced detection must belong to the principal; it is checked
// before the upload and again in the transaction that records it.
func (s *Service) UploadEvidence(ctx context.Context, principal string, in UploadEvidenceInput) (model.Evidence, error) {
	var out model.Evidence
	err := s.observed(ctx, "upload_evidence", principal, func() error {
		e := model.Evidence{
			UserID:       principal,
			EvidenceType: in.EvidenceType,
			FileName:     integrity.Text(in.FileName),
			MimeType:     integrity.Text(in.MimeType),
			Description:  integrity.Text(in.Description),
			IsEncrypted:  in.IsEncrypted,
			// Replaced by the storage result; present so metadata validates first.
			FileURL:   "pending",
			HashValue: "00",
		}
		if in.ThreatDetectionID != "" {
			id := in.ThreatDetectionID
			e.ThreatDetectionID = &id
		}
		if err := s.authorize(principal, policy.OpCreate, e, ""); err != nil {
			return err
		}
		if err := integrity.Validate("evidence", &e); err != nil {
			return err
		}
		if len(in.Data) == 0 {
			return apperr.Validation("evidence", "file", "is required")
		}
		if err := requireCollaborator("storage", s.storage != nil); err != nil {
			return err
		}
		if e.ThreatDetectionID != nil {
			err := s.transact(ctx, func(ctx context.Context, tx *store.Tx, _ *trigger.Effects) error {
				_, err := s.ownedDetection(ctx, tx, principal, *e.ThreatDetectionID, policy.OpUpdate)
				return err
			})
			if err != nil {
				return err
			}
		}

		stored, err := collab.Do(ctx, s.timeout, "storage", func(ctx context.Context) (collab.StoredFile, error) {
			return s.storage.Store(ctx, in.Data, collab.FileMeta{
				FileName: e.FileName,
				MimeType: e.MimeType,
				OwnerID:  principal,
			})
		})
		if err != nil {
			return err
		}
		e.FileURL = stored.URL
		e.HashValue = stored.Hash
		e.FileSize = stored.Size

		return s.transact(ctx, func(ctx context.Context, tx *store.Tx, fx *trigger.Effects) error {
			if e.ThreatDetectionID != nil {
				if _, err := s.ownedDetection(ctx, tx, principal, *e.ThreatDetectionID, policy.OpUpdate); err != nil {
					return err
				}
			}
			e.ID = fx.NewID()
			e.CreatedAt = fx.Now()
			if err := integrity.Validate("evidence", &e); err != nil {
				return fmt.Errorf("storage returned invalid result: %w", err)
			}
			if err := tx.InsertEvidence(ctx, e); err != nil {
				return integrity.FromStoreError("evidence", e.ID, err)
			}
			out = e
			return nil
		})
	})
	return out, err
}

// GetEvidence returns one of the principal's evidence rows.
func (s *Service) GetEvidence(ctx context.Context, principal, id string) (model.Evidence, error) {
	var out model.Evidence
	err := s.run(ctx, "get_evidence", principal, func(ctx context.Context, tx *store.Tx, _ *trigger.Effects) error {
		e, err := s.ownedEvidence(ctx, tx, principal, id, policy.OpRead)
		if err != nil {
			return err
		}
		out = e
		return nil
	})
	return out, err
}

func (s *Service) ownedEvidence(ctx context.Context, tx *store.Tx, principal, id string, op policy.Operation) (model.Evidence, error) {
	e, err := tx.GetEvidence(ctx, id)
	if err != nil {
		return model.Evidence{}, s.denied("evidence", id, string(op), err)
	}
	if err := s.authorize(principal, op, e, id); err != nil {
		return model.Evidence{}, err
	}
	return e, nil
}

// EvidenceQuery filters ListEvidence. Zero fields match everything.
type EvidenceQuery struct {
	ThreatDetectionID string
	Type              model.EvidenceType
}

// ListEvidence returns the principal's evidence, newest first.
func (s *Service) ListEvidence(ctx context.Context, principal string, q EvidenceQuery) ([]model.Evidence, error) {
	var out []model.Evidence
	err := s.run(ctx, "list_evidence", principal, func(ctx context.Context, tx *store.Tx, _ *trigger.Effects) error {
		if principal == "" {
			return errEmptyPrincipal("evidence")
		}
		if q.Type != "" && !q.Type.Valid() {
			return apperr.Validation("evidence", "evidence_type", fmt.Sprintf("invalid value %q", q.Type))
		}
		rows, err := tx.ListEvidence(ctx, store.EvidenceFilter{
			UserID:            principal,
			ThreatDetectionID: q.ThreatDetectionID,
			Type:              q.Type,
		})
		if err != nil {
			return err
		}
		out = rows
		return nil
	})
	return out, err
}

// DeleteEvidence deletes an evidence row. The stored file is left to the
// storage collaborator's retention.
func (s *Service) DeleteEvidence(ctx context.Context, principal, id string) error {
	return s.run(ctx, "delete_evidence", principal, func(ctx context.Context, tx *store.Tx, _ *trigger.Effects) error {
		if _, err := s.ownedEvidence(ctx, tx, principal, id, policy.OpDelete); err != nil {
			return err
		}
		return integrity.FromStoreError("evidence", id, tx.DeleteEvidence(ctx, id))
	})
}
