package scheduler

import (
	"context"
	"time"

	"github.com/pepsfoods/checkout-backend/internal/repository"
	"github.com/pepsfoods/checkout-backend/internal/service"
	"github.com/pepsfoods/checkout-backend/pkg/logger"
)

// Reconciler sweeps orders that were created but never reached a payment
// session: the settlement crashed between the order insert and the gateway
// call, or the client went away. Each stale order is cancelled and any
// debited points are returned.
type Reconciler struct {
	orders   repository.OrderRepository
	points   service.PointsService
	log      *logger.Logger
	interval time.Duration
	maxAge   time.Duration
	quit     chan struct{}
}

func NewReconciler(orders repository.OrderRepository, points service.PointsService, maxAge time.Duration, log *logger.Logger) *Reconciler {
	return &Reconciler{
		orders:   orders,
		points:   points,
		log:      log,
		interval: 5 * time.Minute,
		maxAge:   maxAge,
		quit:     make(chan struct{}),
	}
}

func (r *Reconciler) Start() {
	go r.loop()
	r.log.Info("stale order reconciler started", "interval", r.interval, "max_age", r.maxAge)
}

func (r *Reconciler) Stop() {
	close(r.quit)
	r.log.Info("stale order reconciler stopped")
}

func (r *Reconciler) loop() {
	r.sweep()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.sweep()
		case <-r.quit:
			return
		}
	}
}

func (r *Reconciler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := time.Now().Add(-r.maxAge)
	stale, err := r.orders.ListStalePendingWithoutPayment(ctx, cutoff)
	if err != nil {
		r.log.Error("stale order sweep failed", "error", err)
		return
	}
	for _, order := range stale {
		cancelled, err := r.orders.CancelIfPending(ctx, order.ID)
		if err != nil {
			r.log.Error("stale order cancel failed", "order_id", order.ID, "error", err)
			continue
		}
		if !cancelled {
			// Raced with a late confirmation; leave it alone.
			continue
		}
		if order.PepsAmount > 0 {
			if err := r.points.Refund(ctx, order.UserUID, order.PepsAmount, order.ID); err != nil {
				r.log.Error("stale order points refund failed", "order_id", order.ID, "points", order.PepsAmount, "error", err)
				continue
			}
		}
		r.log.Info("stale order cancelled", "order_id", order.ID, "age", time.Since(order.CreatedAt), "points_returned", order.PepsAmount)
	}
}
