// Package delivery pushes committed notifications to a collab.Deliverer.
//
// Delivery happens strictly after the creating transaction commits and never
// affects it: a notification row exists whether or not its push succeeded.
// Each notification is attempted up to MaxAttempts times with linear backoff;
// the final failure is logged and counted, never returned.
package delivery

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/roach88/safeline/internal/collab"
	"github.com/roach88/safeline/internal/metrics"
	"github.com/roach88/safeline/internal/model"
)

// Options tunes the dispatcher. Zero values get defaults.
type Options struct {
	// MaxAttempts per notification (default 3).
	MaxAttempts int
	// Backoff is multiplied by the attempt number between tries.
	Backoff time.Duration
	// Timeout bounds each Deliver call (0 = none).
	Timeout time.Duration
	// Rate limits deliveries per second across workers (0 = unlimited).
	Rate float64
	// Workers is the number of concurrent deliveries (default 1).
	Workers int
}

// Dispatcher drains a queue of committed notifications.
type Dispatcher struct {
	queue     *queue
	deliverer collab.Deliverer
	limiter   *rate.Limiter
	opts      Options
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// New creates a dispatcher. m and logger may be nil.
func New(d collab.Deliverer, opts Options, m *metrics.Metrics, logger *zap.Logger) *Dispatcher {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := rate.Inf
	burst := 1
	if opts.Rate > 0 {
		limit = rate.Limit(opts.Rate)
		burst = opts.Workers
	}
	return &Dispatcher{
		queue:     newQueue(),
		deliverer: d,
		limiter:   rate.NewLimiter(limit, burst),
		opts:      opts,
		metrics:   m,
		logger:    logger.Named("delivery"),
	}
}

// Enqueue schedules notifications for delivery. Notifications offered after
// Stop are dropped and counted as skipped.
func (d *Dispatcher) Enqueue(ns ...model.Notification) {
	for _, n := range ns {
		if !d.queue.Enqueue(n) {
			d.record(metrics.OutcomeSkip)
			d.logger.Warn("dispatcher stopped, notification not delivered",
				zap.String("notification_id", n.ID))
		}
	}
}

// Pending returns the number of notifications not yet picked up.
func (d *Dispatcher) Pending() int {
	return d.queue.Len()
}

// Run delivers queued notifications until ctx is cancelled or Stop is
// called. On Stop, notifications already queued are drained first; on
// cancellation they are dropped and counted as skipped. Run waits for
// in-flight deliveries before returning.
func (d *Dispatcher) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.Workers)

	d.logger.Info("dispatcher starting", zap.Int("workers", d.opts.Workers))
	defer d.logger.Info("dispatcher stopped")

	for {
		if ctx.Err() != nil {
			return d.abandon(ctx, g)
		}
		if n, ok := d.queue.TryDequeue(); ok {
			g.Go(func() error {
				d.deliver(gctx, n)
				return nil
			})
			continue
		}

		select {
		case <-ctx.Done():
			return d.abandon(ctx, g)

		case <-d.queue.Wait():
			// The signal channel is closed by Stop; an empty queue then
			// means there is nothing left to drain.
			if d.closedAndEmpty() {
				return g.Wait()
			}
		}
	}
}

// Stop closes the queue. Run drains what is queued and returns.
func (d *Dispatcher) Stop() {
	d.queue.Close()
}

// abandon closes the queue on cancellation and counts what was still
// queued as skipped. In-flight deliveries are awaited.
func (d *Dispatcher) abandon(ctx context.Context, g *errgroup.Group) error {
	d.queue.Close()
	dropped := 0
	for {
		if _, ok := d.queue.TryDequeue(); !ok {
			break
		}
		dropped++
		d.record(metrics.OutcomeSkip)
	}
	if dropped > 0 {
		d.logger.Warn("dispatcher cancelled, queued notifications not delivered",
			zap.Int("dropped", dropped))
	}
	_ = g.Wait()
	return ctx.Err()
}

func (d *Dispatcher) closedAndEmpty() bool {
	d.queue.mu.Lock()
	defer d.queue.mu.Unlock()
	return d.queue.closed && len(d.queue.items) == 0
}

// deliver tries one notification until it succeeds or attempts run out.
func (d *Dispatcher) deliver(ctx context.Context, n model.Notification) {
	log := d.logger.With(
		zap.String("notification_id", n.ID),
		zap.String("user_id", n.UserID),
		zap.String("type", string(n.Type)),
	)

	for attempt := 1; attempt <= d.opts.MaxAttempts; attempt++ {
		if err := d.limiter.Wait(ctx); err != nil {
			d.record(metrics.OutcomeFail)
			log.Warn("delivery abandoned", zap.Error(err))
			return
		}

		err := collab.Call(ctx, d.opts.Timeout, "delivery", func(ctx context.Context) error {
			return d.deliverer.Deliver(ctx, n)
		})
		if err == nil {
			d.record(metrics.OutcomeOK)
			return
		}

		if attempt == d.opts.MaxAttempts {
			d.record(metrics.OutcomeFail)
			log.Error("delivery failed", zap.Int("attempts", attempt), zap.Error(err))
			return
		}
		d.record(metrics.OutcomeRetry)
		log.Debug("delivery retry", zap.Int("attempt", attempt), zap.Error(err))

		select {
		case <-ctx.Done():
			d.record(metrics.OutcomeFail)
			log.Warn("delivery abandoned", zap.Error(ctx.Err()))
			return
		case <-time.After(d.opts.Backoff * time.Duration(attempt)):
		}
	}
}

func (d *Dispatcher) record(outcome string) {
	if d.metrics != nil {
		d.metrics.DeliveryAttempted(outcome)
	}
}
