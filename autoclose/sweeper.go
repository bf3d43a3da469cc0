// Package autoclose runs the daily cutover: stale pending orders are
// cancelled and the previous day's cash register is closed.
package autoclose

import (
	"context"
	"fmt"
	"time"

	"food-order-bot/apperr"
	"food-order-bot/models"
	"food-order-bot/orders"

	"github.com/sirupsen/logrus"
)

type Tenants interface {
	ListActiveTenants(ctx context.Context) ([]models.Tenant, error)
}

type Orders interface {
	ListPending(ctx context.Context, tenantID string) ([]models.Order, error)
	Cancel(ctx context.Context, tenantID, id, changedBy, reason string) (*models.Order, error)
	Stats(ctx context.Context, tenantID string, from, to time.Time) (*orders.Stats, error)
	DayBounds(date time.Time) (time.Time, time.Time)
}

type Closures interface {
	Close(ctx context.Context, closure *models.CashClosure) (bool, error)
}

const (
	changedBy    = "autoclose"
	cancelReason = "cierre automático del día"
)

// Sweeper checks the clock every interval and runs once per day when the
// local hour equals the cutover hour.
type Sweeper struct {
	tenants  Tenants
	orders   Orders
	closures Closures
	hour     int
	interval time.Duration
	loc      *time.Location
	log      *logrus.Entry
	now      func() time.Time
	lastRun  string
}

func NewSweeper(tenants Tenants, o Orders, closures Closures, hour int, loc *time.Location, log *logrus.Entry) *Sweeper {
	return &Sweeper{
		tenants:  tenants,
		orders:   o,
		closures: closures,
		hour:     hour,
		interval: time.Hour,
		loc:      loc,
		log:      log,
		now:      time.Now,
	}
}

// Run blocks until ctx is done.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	s.log.WithFields(logrus.Fields{"hour": s.hour, "timezone": s.loc.String()}).Info("auto-close scheduled")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			now := s.now().In(s.loc)
			today := now.Format("2006-01-02")
			if now.Hour() != s.hour || s.lastRun == today {
				continue
			}
			s.lastRun = today
			if _, err := s.RunOnce(ctx, now); err != nil {
				s.log.WithError(err).Error("auto-close failed")
			}
		}
	}
}

// Report is what one sweep did.
type Report struct {
	Date      string
	Tenants   int
	Cancelled int
	Closed    int
}

// RunOnce cancels every tenant's pending orders created before the day of
// now and closes the register of the previous day. Running it twice for the
// same day cancels nothing new and writes no second closure.
func (s *Sweeper) RunOnce(ctx context.Context, now time.Time) (Report, error) {
	todayStart, _ := s.orders.DayBounds(now)
	dayStart, dayEnd := s.orders.DayBounds(todayStart.Add(-time.Hour))
	report := Report{Date: dayStart.Format("2006-01-02")}

	tenants, err := s.tenants.ListActiveTenants(ctx)
	if err != nil {
		return report, fmt.Errorf("list tenants: %w", err)
	}

	for _, tenant := range tenants {
		log := s.log.WithFields(logrus.Fields{"tenant_id": tenant.ID, "date": report.Date})
		cancelled, err := s.cancelStale(ctx, tenant.ID, todayStart, log)
		report.Cancelled += cancelled
		if err != nil {
			log.WithError(err).Error("could not cancel stale orders")
			continue
		}

		stats, err := s.orders.Stats(ctx, tenant.ID, dayStart, dayEnd)
		if err != nil {
			log.WithError(err).Error("could not compute day stats")
			continue
		}
		created, err := s.closures.Close(ctx, &models.CashClosure{
			TenantID:       tenant.ID,
			Date:           report.Date,
			OrdersCount:    stats.Orders,
			CancelledCount: stats.CancelledCount,
			Total:          stats.Revenue,
			CashTotal:      stats.CashTotal,
			TransferTotal:  stats.TransferTotal,
			ClosedAt:       s.now(),
		})
		if err != nil {
			log.WithError(err).Error("could not close cash register")
			continue
		}
		report.Tenants++
		if created {
			report.Closed++
			log.WithFields(logrus.Fields{
				"orders":    stats.Orders,
				"cancelled": cancelled,
				"total":     stats.Revenue,
			}).Info("cash register closed")
		}
	}
	return report, nil
}

func (s *Sweeper) cancelStale(ctx context.Context, tenantID string, before time.Time, log *logrus.Entry) (int, error) {
	pending, err := s.orders.ListPending(ctx, tenantID)
	if err != nil {
		return 0, err
	}
	cancelled := 0
	for _, o := range pending {
		if !o.CreatedAt.Before(before) {
			continue
		}
		_, err := s.orders.Cancel(ctx, tenantID, o.ID, changedBy, cancelReason)
		switch {
		case err == nil:
			cancelled++
		case apperr.IsDomain(err):
			// moved on since it was listed
			log.WithError(err).WithField("order_id", o.ID).Info("stale order skipped")
		default:
			return cancelled, err
		}
	}
	return cancelled, nil
}
