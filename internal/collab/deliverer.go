package collab

import (
	"context"

	"go.uber.org/zap"

	"github.com/roach88/safeline/internal/model"
)

// LogDeliverer "delivers" notifications by writing them to a structured log.
// It stands in for push or email providers.
type LogDeliverer struct {
	logger *zap.Logger
}

// NewLogDeliverer creates a deliverer writing to logger.
func NewLogDeliverer(logger *zap.Logger) *LogDeliverer {
	return &LogDeliverer{logger: logger}
}

// Deliver logs n.
func (d *LogDeliverer) Deliver(ctx context.Context, n model.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.logger.Info("notification delivered",
		zap.String("notification_id", n.ID),
		zap.String("user_id", n.UserID),
		zap.String("type", string(n.Type)),
		zap.String("priority", string(n.Priority)),
	)
	return nil
}
