package store

import (
	"context"
	"fmt"

	"github.com/roach88/safeline/internal/model"
)

const threatColumns = `id, user_id, threat_type, threat_level, content_analyzed, confidence_score,
	explanation, recommended_actions, source_platform, source_url, is_verified, action_taken,
	created_at, updated_at`

// InsertThreatDetection inserts a classifier result.
func (t *Tx) InsertThreatDetection(ctx context.Context, d model.ThreatDetection) error {
	actions, err := marshalJSON("recommended_actions", d.RecommendedActions)
	if err != nil {
		return fmt.Errorf("insert threat detection: %w", err)
	}
	_, err = t.exec(ctx, `
		INSERT INTO threat_detections (`+threatColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		d.ID, d.UserID, string(d.ThreatType), string(d.ThreatLevel), d.ContentAnalyzed, d.ConfidenceScore,
		d.Explanation, actions, d.SourcePlatform, d.SourceURL, d.IsVerified, string(d.ActionTaken),
		d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert threat detection: %w", err)
	}
	return nil
}

// GetThreatDetection reads a detection by id.
func (t *Tx) GetThreatDetection(ctx context.Context, id string) (model.ThreatDetection, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+threatColumns+` FROM threat_detections WHERE id = ?`, id)
	return scanThreatDetection(row)
}

// UpdateThreatDetection writes the user-editable columns of a detection.
// Classifier output is never rewritten.
func (t *Tx) UpdateThreatDetection(ctx context.Context, d model.ThreatDetection) error {
	err := t.execOne(ctx, `
		UPDATE threat_detections
		SET is_verified = ?, action_taken = ?, updated_at = ?
		WHERE id = ?
	`, d.IsVerified, string(d.ActionTaken), d.UpdatedAt, d.ID)
	if err != nil {
		return fmt.Errorf("update threat detection: %w", err)
	}
	return nil
}

// DeleteThreatDetection deletes a detection. Attached evidence is kept with
// its reference cleared.
func (t *Tx) DeleteThreatDetection(ctx context.Context, id string) error {
	if err := t.execOne(ctx, `DELETE FROM threat_detections WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete threat detection: %w", err)
	}
	return nil
}

// ThreatFilter narrows ListThreatDetections. Empty fields match everything.
type ThreatFilter struct {
	UserID string
	Level  model.ThreatLevel
	Type   model.ThreatType
}

// ListThreatDetections returns a user's detections, newest first.
func (t *Tx) ListThreatDetections(ctx context.Context, f ThreatFilter) ([]model.ThreatDetection, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT `+threatColumns+` FROM threat_detections
		WHERE user_id = ?
		  AND (? = '' OR threat_level = ?)
		  AND (? = '' OR threat_type = ?)
		ORDER BY created_at DESC, id DESC
	`, f.UserID, string(f.Level), string(f.Level), string(f.Type), string(f.Type))
	if err != nil {
		return nil, fmt.Errorf("list threat detections: %w", err)
	}
	defer rows.Close()

	out := []model.ThreatDetection{}
	for rows.Next() {
		d, err := scanThreatDetection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate threat detections: %w", err)
	}
	return out, nil
}

func scanThreatDetection(row scanner) (model.ThreatDetection, error) {
	var (
		d                          model.ThreatDetection
		threatType, level, action string
		actions                    string
	)
	err := row.Scan(
		&d.ID, &d.UserID, &threatType, &level, &d.ContentAnalyzed, &d.ConfidenceScore,
		&d.Explanation, &actions, &d.SourcePlatform, &d.SourceURL, &d.IsVerified, &action,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err := scanOne(err, "threat detection"); err != nil {
		return model.ThreatDetection{}, err
	}
	d.ThreatType = model.ThreatType(threatType)
	d.ThreatLevel = model.ThreatLevel(level)
	d.ActionTaken = model.ActionTaken(action)
	if err := unmarshalJSON("recommended_actions", actions, &d.RecommendedActions); err != nil {
		return model.ThreatDetection{}, err
	}
	return d, nil
}
