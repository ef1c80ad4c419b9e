package service

import (
	"context"
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/roach88/safeline/internal/apperr"
	"github.com/roach88/safeline/internal/collab"
	"github.com/roach88/safeline/internal/integrity"
	"github.com/roach88/safeline/internal/model"
	"github.com/roach88/safeline/internal/policy"
	"github.com/roach88/safeline/internal/store"
	"github.com/roach88/safeline/internal/trigger"
)

var titleCase = cases.Title(language.English)

// AnalyzeInput is content submitted for threat analysis.
type AnalyzeInput struct {
	Content        string
	SourcePlatform string
	SourceURL      string
}

// AnalyzeContent classifies content for the principal and stores the
// verdict as an unverified detection. High and critical detections raise
// exactly one urgent threat_alert notification.
//
// The classifier runs before the transaction opens, bounded by the
// collaborator timeout; its failure stores nothing.
func (s *Service) AnalyzeContent(ctx context.Context, principal string, in AnalyzeInput) (model.ThreatDetection, error) {
	var out model.ThreatDetection
	err := s.observed(ctx, "analyze_content", principal, func() error {
		d := model.ThreatDetection{
			UserID:          principal,
			ThreatType:      model.ThreatOther,
			ThreatLevel:     model.ThreatLow,
			ContentAnalyzed: integrity.Text(in.Content),
			SourcePlatform:  integrity.Text(in.SourcePlatform),
			SourceURL:       integrity.Text(in.SourceURL),
			ActionTaken:     model.ActionNone,
		}
		if err := s.authorize(principal, policy.OpCreate, d, ""); err != nil {
			return err
		}
		if err := integrity.Validate("threat_detection", &d); err != nil {
			return err
		}
		if err := requireCollaborator("classifier", s.classifier != nil); err != nil {
			return err
		}

		verdict, err := collab.Do(ctx, s.timeout, "classifier", func(ctx context.Context) (collab.Classification, error) {
			return s.classifier.Classify(ctx, d.ContentAnalyzed)
		})
		if err != nil {
			return err
		}
		d.ThreatType = verdict.ThreatType
		d.ThreatLevel = verdict.ThreatLevel
		d.ConfidenceScore = verdict.ConfidenceScore
		d.Explanation = integrity.Text(verdict.Explanation)
		d.RecommendedActions = verdict.RecommendedActions
		if d.RecommendedActions == nil {
			d.RecommendedActions = []string{}
		}

		return s.transact(ctx, func(ctx context.Context, tx *store.Tx, fx *trigger.Effects) error {
			if err := requireUser(ctx, tx, "threat_detection", "user_id", principal); err != nil {
				return err
			}
			now := fx.Now()
			d.ID = fx.NewID()
			d.CreatedAt = now
			d.UpdatedAt = now
			if err := integrity.Validate("threat_detection", &d); err != nil {
				return err
			}
			if err := tx.InsertThreatDetection(ctx, d); err != nil {
				return integrity.FromStoreError("threat_detection", d.ID, err)
			}
			if d.ThreatLevel.Alerting() {
				if _, err := fx.Notify(ctx, tx, model.Notification{
					UserID:   principal,
					Type:     model.NotifyThreatAlert,
					Title:    titleCase.String(string(d.ThreatLevel)) + " Threat Detected",
					Body:     fmt.Sprintf("We detected a %s level %s threat", d.ThreatLevel, d.ThreatType),
					Priority: model.PriorityUrgent,
					Metadata: map[string]string{"threat_id": d.ID},
				}); err != nil {
					return err
				}
			}
			out = d
			return nil
		})
	})
	return out, err
}

// GetThreatDetection returns one of the principal's detections.
func (s *Service) GetThreatDetection(ctx context.Context, principal, id string) (model.ThreatDetection, error) {
	var out model.ThreatDetection
	err := s.run(ctx, "get_threat_detection", principal, func(ctx context.Context, tx *store.Tx, _ *trigger.Effects) error {
		d, err := s.ownedDetection(ctx, tx, principal, id, policy.OpRead)
		if err != nil {
			return err
		}
		out = d
		return nil
	})
	return out, err
}

func (s *Service) ownedDetection(ctx context.Context, tx *store.Tx, principal, id string, op policy.Operation) (model.ThreatDetection, error) {
	d, err := tx.GetThreatDetection(ctx, id)
	if err != nil {
		return model.ThreatDetection{}, s.denied("threat_detection", id, string(op), err)
	}
	if err := s.authorize(principal, op, d, id); err != nil {
		return model.ThreatDetection{}, err
	}
	return d, nil
}

// ThreatQuery filters ListThreatDetections. Zero fields match everything.
type ThreatQuery struct {
	Level model.ThreatLevel
	Type  model.ThreatType
}

// ListThreatDetections returns the principal's detections, newest first.
func (s *Service) ListThreatDetections(ctx context.Context, principal string, q ThreatQuery) ([]model.ThreatDetection, error) {
	var out []model.ThreatDetection
	err := s.run(ctx, "list_threat_detections", principal, func(ctx context.Context, tx *store.Tx, _ *trigger.Effects) error {
		if principal == "" {
			return errEmptyPrincipal("threat_detection")
		}
		if q.Level != "" && !q.Level.Valid() {
			return apperr.Validation("threat_detection", "threat_level", fmt.Sprintf("invalid value %q", q.Level))
		}
		if q.Type != "" && !q.Type.Valid() {
			return apperr.Validation("threat_detection", "threat_type", fmt.Sprintf("invalid value %q", q.Type))
		}
		rows, err := tx.ListThreatDetections(ctx, store.ThreatFilter{UserID: principal, Level: q.Level, Type: q.Type})
		if err != nil {
			return err
		}
		out = rows
		return nil
	})
	return out, err
}

// UpdateThreatInput carries the user-editable fields of a detection.
type UpdateThreatInput struct {
	IsVerified  *bool
	ActionTaken *model.ActionTaken
}

// UpdateThreatDetection records the principal's review of a detection.
// The classifier's verdict itself is never edited.
func (s *Service) UpdateThreatDetection(ctx context.Context, principal, id string, in UpdateThreatInput) (model.ThreatDetection, error) {
	var out model.ThreatDetection
	err := s.run(ctx, "update_threat_detection", principal, func(ctx context.Context, tx *store.Tx, fx *trigger.Effects) error {
		d, err := s.ownedDetection(ctx, tx, principal, id, policy.OpUpdate)
		if err != nil {
			return err
		}
		if in.IsVerified != nil {
			d.IsVerified = *in.IsVerified
		}
		if in.ActionTaken != nil {
			d.ActionTaken = *in.ActionTaken
		}
		fx.Touch(&d)
		if err := integrity.Validate("threat_detection", &d); err != nil {
			return err
		}
		if err := tx.UpdateThreatDetection(ctx, d); err != nil {
			return integrity.FromStoreError("threat_detection", id, err)
		}
		out = d
		return nil
	})
	return out, err
}

// DeleteThreatDetection deletes a detection. Evidence attached to it is
// kept and loses its reference.
func (s *Service) DeleteThreatDetection(ctx context.Context, principal, id string) error {
	return s.run(ctx, "delete_threat_detection", principal, func(ctx context.Context, tx *store.Tx, _ *trigger.Effects) error {
		if _, err := s.ownedDetection(ctx, tx, principal, id, policy.OpDelete); err != nil {
			return err
		}
		return integrity.FromStoreError("threat_detection", id, tx.DeleteThreatDetection(ctx, id))
	})
}
