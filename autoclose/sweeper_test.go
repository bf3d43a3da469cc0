package autoclose_test

import (
	"context"
	"testing"
	"time"

	"food-order-bot/autoclose"
	"food-order-bot/models"
	"food-order-bot/notify"
	"food-order-bot/orders"
	"food-order-bot/pricing"
	"food-order-bot/store"
	"food-order-bot/testutil"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopNotifier struct{}

func (nopNotifier) Dispatch(notify.Message, logrus.Fields) {}

func TestRunOnceCancelsStaleOrdersAndClosesDay(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	fx := testutil.Seed(t, db, 10)
	catalog := store.NewCatalog(db)
	svc := orders.NewService(store.NewOrders(db), catalog, nopNotifier{}, nil, time.UTC, testutil.Logger())
	closures := store.NewCashClosures(db)

	place := func() *models.Order {
		o, err := svc.Create(ctx, orders.CreateInput{
			TenantID:      fx.Tenant.ID,
			CustomerName:  "Ana",
			CustomerPhone: "+5491122223333",
			Items:         []pricing.Line{{ProductID: fx.Burger.ID, Quantity: 1}},
			OrderType:     models.OrderTypePickup,
			PaymentMethod: models.PaymentCash,
		})
		require.NoError(t, err)
		return o
	}
	stale := place()
	confirmed := place()
	fresh := place()
	_, err := svc.Confirm(ctx, fx.Tenant.ID, confirmed.ID, "staff-1")
	require.NoError(t, err)

	now := time.Now().UTC()
	todayStart, _ := svc.DayBounds(now)
	yesterday := todayStart.Add(-12 * time.Hour)
	require.NoError(t, db.Model(&models.Order{}).
		Where("id IN ?", []string{stale.ID, confirmed.ID}).
		UpdateColumn("created_at", yesterday).Error)

	sweeper := autoclose.NewSweeper(catalog, svc, closures, 5, time.UTC, testutil.Logger())
	report, err := sweeper.RunOnce(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, yesterday.Format("2006-01-02"), report.Date)
	assert.Equal(t, 1, report.Cancelled)
	assert.Equal(t, 1, report.Closed)

	got, err := svc.Get(ctx, fx.Tenant.ID, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, got.Status)
	assert.Equal(t, "autoclose", got.StatusHistory[len(got.StatusHistory)-1].ChangedBy)

	got, err = svc.Get(ctx, fx.Tenant.ID, confirmed.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, got.Status)

	got, err = svc.Get(ctx, fx.Tenant.ID, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status, "today's orders stay open")

	closure, err := closures.Get(ctx, fx.Tenant.ID, report.Date)
	require.NoError(t, err)
	assert.Equal(t, 2, closure.OrdersCount)
	assert.Equal(t, 1, closure.CancelledCount)
	assert.Equal(t, 2500.0, closure.Total)
	assert.Equal(t, 2500.0, closure.CashTotal)
	assert.Zero(t, closure.TransferTotal)

	again, err := sweeper.RunOnce(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Cancelled)
	assert.Equal(t, 0, again.Closed)
	assert.Equal(t, 1, again.Tenants)

	var count int64
	require.NoError(t, db.Model(&models.CashClosure{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRunStopsWithContext(t *testing.T) {
	db := testutil.OpenDB(t)
	catalog := store.NewCatalog(db)
	svc := orders.NewService(store.NewOrders(db), catalog, nopNotifier{}, nil, time.UTC, testutil.Logger())
	sweeper := autoclose.NewSweeper(catalog, svc, store.NewCashClosures(db), 5, time.UTC, testutil.Logger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sweeper.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
