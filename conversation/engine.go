package conversation

import (
	"context"
	"fmt"
	"time"

	"food-order-bot/apperr"
	"food-order-bot/models"
	"food-order-bot/notify"
	"food-order-bot/orders"
	"food-order-bot/pricing"
	"food-order-bot/stock"

	"github.com/sirupsen/logrus"
)

type Catalog interface {
	GetTenant(ctx context.Context, id string) (*models.Tenant, error)
	ListAvailableProducts(ctx context.Context, tenantID string) ([]models.Product, error)
	GetProductByID(ctx context.Context, tenantID, id string) (*models.Product, error)
	ListActiveExtras(ctx context.Context, tenantID string) ([]models.Extra, error)
	ListActiveDeliveryZones(ctx context.Context, tenantID string) ([]models.DeliveryZone, error)
}

type OrderCreator interface {
	Create(ctx context.Context, in orders.CreateInput) (*models.Order, error)
}

type StockChecker interface {
	Verify(ctx context.Context, tenantID string, lines []pricing.Line) (stock.Result, error)
}

// Deps are the collaborators of an Engine. Deduper and Locker default to
// in-process implementations.
type Deps struct {
	Catalog     Catalog
	Orders      OrderCreator
	Stock       StockChecker
	States      StateStore
	Deduper     Deduper
	Locker      Locker
	Sender      notify.Sender
	SendTimeout time.Duration
	// Region is the libphonenumber region used to read customer numbers.
	Region string
	Log    *logrus.Entry
}

type Engine struct {
	Deps
	now func() time.Time
}

func NewEngine(d Deps) *Engine {
	if d.Deduper == nil {
		d.Deduper = NewMemoryDeduper()
	}
	if d.Locker == nil {
		d.Locker = NewLocalLocker()
	}
	if d.SendTimeout <= 0 {
		d.SendTimeout = 10 * time.Second
	}
	return &Engine{Deps: d, now: time.Now}
}

// turn is the handling of one event.
type turn struct {
	ctx     context.Context
	ev      Event
	input   string
	tenant  *models.Tenant
	state   *State
	replies []string
	reset   bool
}

func (t *turn) reply(msg string) {
	t.replies = append(t.replies, msg)
}

func (t *turn) replyf(format string, args ...interface{}) {
	t.replies = append(t.replies, fmt.Sprintf(format, args...))
}

// end replies and discards the conversation.
func (t *turn) end(msg string) {
	t.reply(msg)
	t.reset = true
}

func (t *turn) goTo(step Step, msg string) {
	t.state.Step = step
	t.reply(msg)
}

// Handle processes one inbound event end to end: dedupe, per-customer
// lock, step dispatch, state persistence and replies. Errors returned are
// infrastructure failures; the customer has already been answered when
// possible.
func (e *Engine) Handle(ctx context.Context, ev Event) error {
	log := e.Log.WithFields(logrus.Fields{
		"tenant_id":  ev.TenantID,
		"customer":   ev.CustomerChannelID,
		"message_id": ev.MessageID,
	})

	if ev.MessageID != "" {
		first, err := e.Deduper.FirstSeen(ctx, ev.MessageID)
		if err != nil {
			log.WithError(err).Warn("dedupe unavailable, processing anyway")
		} else if !first {
			log.Debug("duplicate message dropped")
			return nil
		}
	}

	key := Key(ev.TenantID, ev.CustomerChannelID)
	unlock, err := e.Locker.Lock(ctx, key)
	if err != nil {
		log.WithError(err).Error("could not lock conversation")
		return err
	}
	defer unlock()

	tenant, err := e.Catalog.GetTenant(ctx, ev.TenantID)
	if err != nil {
		log.WithError(err).Error("tenant lookup failed")
		return err
	}
	sender := tenant.WAPhoneNumberID

	state, err := e.States.Get(ctx, key)
	if err != nil {
		log.WithError(err).Error("conversation state unavailable")
		e.send(tenant, sender, ev.CustomerChannelID, []string{msgRetryLater}, log)
		return err
	}
	if state == nil {
		state = NewState()
	}
	if state.CustomerName == "" {
		state.CustomerName = ev.ContactName
	}

	t := &turn{ctx: ctx, ev: ev, input: normalize(ev.Text), tenant: tenant, state: state}
	from := state.Step
	if err := e.dispatch(t); err != nil {
		if apperr.IsDomain(err) {
			log.WithError(err).Info("conversation restarted after business error")
			t.replies = nil
			t.end(msgRestart)
		} else {
			log.WithError(err).Error("conversation step failed")
			e.send(tenant, sender, ev.CustomerChannelID, []string{msgRetryLater}, log)
			return err
		}
	}

	if t.reset {
		err = e.States.Delete(ctx, key)
	} else {
		state.UpdatedAt = e.now()
		err = e.States.Set(ctx, key, state)
	}
	if err != nil {
		log.WithError(err).Error("conversation state not saved")
	}

	log.WithFields(logrus.Fields{"from": from, "to": state.Step, "reset": t.reset}).Debug("conversation step")
	e.send(tenant, sender, ev.CustomerChannelID, t.replies, log)
	return err
}

// dispatch runs the global escape hatch and then the handler of the
// current step.
func (e *Engine) dispatch(t *turn) error {
	if cancelWords.match(t.input) {
		if t.state.Step == StepIdle && len(t.state.Cart) == 0 {
			t.end(msgNothingToCancel)
			return nil
		}
		t.end(msgCancelled)
		return nil
	}

	handler, ok := e.handlers()[t.state.Step]
	if !ok {
		*t.state = *NewState()
		handler = e.handleIdle
	}
	return handler(t)
}

func (e *Engine) handlers() map[Step]func(*turn) error {
	return map[Step]func(*turn) error{
		StepIdle:                       e.handleIdle,
		StepSelectingProduct:           e.handleSelectingProduct,
		StepSelectingQuantity:          e.handleSelectingQuantity,
		StepSelectingExtras:            e.handleSelectingExtras,
		StepAskingCustomization:        e.handleAskingCustomization,
		StepSelectingCustomizationType: e.handleSelectingCustomizationType,
		StepSelectingCustomization:     e.handleSelectingCustomization,
		StepAskingMoreProducts:         e.handleAskingMoreProducts,
		StepSelectingOrderType:         e.handleSelectingOrderType,
		StepSelectingDeliveryZone:      e.handleSelectingDeliveryZone,
		StepAwaitingAddress:            e.handleAwaitingAddress,
		StepAwaitingDeliveryNotes:      e.handleAwaitingDeliveryNotes,
		StepSelectingPayment:           e.handleSelectingPayment,
		StepConfirmingOrder:            e.handleConfirmingOrder,
	}
}

// send delivers replies in order. A failed send is logged and the rest are
// still attempted.
func (e *Engine) send(tenant *models.Tenant, from, to string, replies []string, log *logrus.Entry) {
	for _, text := range replies {
		ctx, cancel := context.WithTimeout(context.Background(), e.SendTimeout)
		_, err := e.Sender.Send(ctx, notify.Message{TenantID: tenant.ID, From: from, To: to, Text: text})
		cancel()
		if err != nil {
			log.WithError(err).Warn("reply not delivered")
		}
	}
}
