package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/safeline/internal/model"
)

const evidenceColumns = `id, user_id, threat_detection_id, evidence_type, file_name, file_url, file_size,
	mime_type, description, is_encrypted, hash_value, created_at`

// InsertEvidence inserts an evidence record.
func (t *Tx) InsertEvidence(ctx context.Context, e model.Evidence) error {
	_, err := t.exec(ctx, `
		INSERT INTO evidence (`+evidenceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		e.ID, e.UserID, nullString(e.ThreatDetectionID), string(e.EvidenceType), e.FileName, e.FileURL,
		e.FileSize, e.MimeType, e.Description, e.IsEncrypted, e.HashValue, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert evidence: %w", err)
	}
	return nil
}

// GetEvidence reads an evidence record by id.
func (t *Tx) GetEvidence(ctx context.Context, id string) (model.Evidence, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+evidenceColumns+` FROM evidence WHERE id = ?`, id)
	return scanEvidence(row)
}

// UpdateEvidenceHash rewrites the stored hash. The schema trigger rejects
// any change, so this only succeeds when hash equals the stored value.
func (t *Tx) UpdateEvidenceHash(ctx context.Context, id, hash string) error {
	if err := t.execOne(ctx, `UPDATE evidence SET hash_value = ? WHERE id = ?`, hash, id); err != nil {
		return fmt.Errorf("update evidence hash: %w", err)
	}
	return nil
}

// DeleteEvidence deletes an evidence record.
func (t *Tx) DeleteEvidence(ctx context.Context, id string) error {
	if err := t.execOne(ctx, `DELETE FROM evidence WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete evidence: %w", err)
	}
	return nil
}

// EvidenceFilter narrows ListEvidence. Empty fields match everything.
type EvidenceFilter struct {
	UserID            string
	ThreatDetectionID string
	Type              model.EvidenceType
}

// ListEvidence returns a user's evidence, newest first.
func (t *Tx) ListEvidence(ctx context.Context, f EvidenceFilter) ([]model.Evidence, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT `+evidenceColumns+` FROM evidence
		WHERE user_id = ?
		  AND (? = '' OR threat_detection_id = ?)
		  AND (? = '' OR evidence_type = ?)
		ORDER BY created_at DESC, id DESC
	`, f.UserID, f.ThreatDetectionID, f.ThreatDetectionID, string(f.Type), string(f.Type))
	if err != nil {
		return nil, fmt.Errorf("list evidence: %w", err)
	}
	defer rows.Close()

	out := []model.Evidence{}
	for rows.Next() {
		e, err := scanEvidence(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate evidence: %w", err)
	}
	return out, nil
}

func scanEvidence(row scanner) (model.Evidence, error) {
	var (
		e           model.Evidence
		detectionID sql.NullString
		evType      string
	)
	err := row.Scan(
		&e.ID, &e.UserID, &detectionID, &evType, &e.FileName, &e.FileURL, &e.FileSize,
		&e.MimeType, &e.Description, &e.IsEncrypted, &e.HashValue, &e.CreatedAt,
	)
	if err := scanOne(err, "evidence"); err != nil {
		return model.Evidence{}, err
	}
	e.ThreatDetectionID = stringPtr(detectionID)
	e.EvidenceType = model.EvidenceType(evType)
	return e, nil
}
