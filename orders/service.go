// Package orders owns the order lifecycle: creation, guarded status
// transitions and the stock movements tied to them.
package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"food-order-bot/apperr"
	"food-order-bot/models"
	"food-order-bot/notify"
	"food-order-bot/pricing"
	"food-order-bot/statemachine"
	"food-order-bot/stock"
	"food-order-bot/store"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

type Repository interface {
	Create(ctx context.Context, order *models.Order, changedBy, note string) error
	Get(ctx context.Context, tenantID, id string) (*models.Order, error)
	List(ctx context.Context, tenantID string, f store.OrderFilter) ([]models.Order, error)
	UpdateFields(ctx context.Context, tenantID, id string, fields map[string]interface{}) error
	ApplyStatusChange(ctx context.Context, c store.StatusChange) error
}

type Catalog interface {
	pricing.Catalog
	GetTenant(ctx context.Context, id string) (*models.Tenant, error)
	GetDeliveryZone(ctx context.Context, tenantID, id string) (*models.DeliveryZone, error)
}

type Notifier interface {
	Dispatch(msg notify.Message, fields logrus.Fields)
}

// Service is the only writer of order status.
type Service struct {
	repo     Repository
	catalog  Catalog
	notifier Notifier
	events   notify.EventPublisher
	validate *validator.Validate
	loc      *time.Location
	log      *logrus.Entry
	now      func() time.Time
}

func NewService(repo Repository, catalog Catalog, notifier Notifier, events notify.EventPublisher,
	loc *time.Location, log *logrus.Entry) *Service {
	if events == nil {
		events = notify.NopPublisher{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		repo:     repo,
		catalog:  catalog,
		notifier: notifier,
		events:   events,
		validate: validator.New(),
		loc:      loc,
		log:      log,
		now:      time.Now,
	}
}

// CreateInput is everything needed to place an order. DeliveryZoneID, when
// set, fixes the delivery cost to the zone price; otherwise DeliveryCost is
// used as given.
type CreateInput struct {
	TenantID        string               `json:"-" validate:"required"`
	CustomerName    string               `json:"customer_name" validate:"required,max=120"`
	CustomerPhone   string               `json:"customer_phone" validate:"required,max=32"`
	ChannelChatID   string               `json:"channel_chat_id"`
	Items           []pricing.Line       `json:"items" validate:"required,min=1,dive"`
	OrderType       models.OrderType     `json:"order_type" validate:"required,oneof=delivery pickup"`
	DeliveryZoneID  string               `json:"delivery_zone_id"`
	DeliveryAddress string               `json:"delivery_address" validate:"required_if=OrderType delivery"`
	DeliveryNotes   string               `json:"delivery_notes"`
	DeliveryCost    float64              `json:"delivery_cost" validate:"min=0"`
	PaymentMethod   models.PaymentMethod `json:"payment_method" validate:"required,oneof=efectivo transferencia"`
	// AwaitPayment creates the order in pendiente_pago until the payment is
	// approved.
	AwaitPayment bool   `json:"await_payment"`
	ChangedBy    string `json:"-"`
}

// Create prices the items against the current catalog, snapshots them and
// persists the order with its first history row. Stock is not touched.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Order, error) {
	if err := s.check(in); err != nil {
		return nil, err
	}

	items, err := pricing.BuildItems(ctx, s.catalog, in.TenantID, in.Items)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		TenantID:        in.TenantID,
		CustomerName:    strings.TrimSpace(in.CustomerName),
		CustomerPhone:   in.CustomerPhone,
		ChannelChatID:   in.ChannelChatID,
		Status:          models.StatusPending,
		OrderType:       in.OrderType,
		DeliveryAddress: strings.TrimSpace(in.DeliveryAddress),
		DeliveryNotes:   strings.TrimSpace(in.DeliveryNotes),
		PaymentMethod:   in.PaymentMethod,
		Items:           items,
	}
	if in.AwaitPayment {
		order.Status = models.StatusAwaitingPayment
		order.PaymentStatus = models.PaymentStatusPending
	}

	if in.OrderType == models.OrderTypeDelivery {
		order.DeliveryCost = in.DeliveryCost
		if in.DeliveryZoneID != "" {
			zone, err := s.catalog.GetDeliveryZone(ctx, in.TenantID, in.DeliveryZoneID)
			if err != nil {
				return nil, err
			}
			if !zone.Active {
				return nil, apperr.Unprocessable("delivery zone %s is not active", zone.Name)
			}
			order.DeliveryZoneID = zone.ID
			order.DeliveryZoneName = zone.Name
			order.DeliveryCost = zone.Price
		}
	}
	pricing.Apply(order)

	changedBy := in.ChangedBy
	if changedBy == "" {
		changedBy = "customer"
	}
	if err := s.repo.Create(ctx, order, changedBy, "order placed"); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"tenant_id": order.TenantID,
		"order_id":  order.ID,
		"status":    order.Status,
		"total":     order.Total,
	}).Info("order created")

	s.notifyTenant(ctx, order)
	s.publish(ctx, "created", order)
	return order, nil
}

// Patch is a partial update. Status, when present, goes through the same
// transition rules as Confirm and Cancel.
type Patch struct {
	Status          *models.OrderStatus   `json:"status"`
	DeliveryCost    *float64              `json:"delivery_cost" validate:"omitempty,min=0"`
	DeliveryAddress *string               `json:"delivery_address"`
	DeliveryNotes   *string               `json:"delivery_notes"`
	CourierID       *string               `json:"courier_id"`
	PaymentStatus   *models.PaymentStatus `json:"payment_status" validate:"omitempty,oneof=pending approved rejected"`
	Note            string                `json:"note"`
	ChangedBy       string                `json:"-"`
}

func (s *Service) Update(ctx context.Context, tenantID, id string, p Patch) (*models.Order, error) {
	if err := s.check(p); err != nil {
		return nil, err
	}
	order, err := s.repo.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if p.DeliveryAddress != nil {
		fields["delivery_address"] = strings.TrimSpace(*p.DeliveryAddress)
	}
	if p.DeliveryNotes != nil {
		fields["delivery_notes"] = strings.TrimSpace(*p.DeliveryNotes)
	}
	if p.CourierID != nil {
		fields["courier_id"] = *p.CourierID
	}
	if p.PaymentStatus != nil {
		fields["payment_status"] = *p.PaymentStatus
	}
	if p.DeliveryCost != nil {
		if statemachine.IsTerminal(order.Status) {
			return nil, apperr.Unprocessable("delivery cost of a %s order cannot change", order.Status)
		}
		order.DeliveryCost = *p.DeliveryCost
		pricing.Apply(order)
		fields["delivery_cost"] = order.DeliveryCost
		fields["subtotal"] = order.Subtotal
		fields["total"] = order.Total
	}

	if p.Status != nil {
		return s.transition(ctx, order, *p.Status, fields, p.ChangedBy, p.Note)
	}
	if len(fields) == 0 {
		return order, nil
	}
	if err := s.repo.UpdateFields(ctx, tenantID, id, fields); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, tenantID, id)
}

// Confirm moves a pendiente order to confirmado and debits the ingredients
// its items consume, atomically.
func (s *Service) Confirm(ctx context.Context, tenantID, id, changedBy string) (*models.Order, error) {
	return s.transitionByID(ctx, tenantID, id, models.StatusConfirmed, nil, changedBy, "")
}

// Cancel moves the order to cancelado. Stock is credited back only when the
// order had been confirmed.
func (s *Service) Cancel(ctx context.Context, tenantID, id, changedBy, reason string) (*models.Order, error) {
	return s.transitionByID(ctx, tenantID, id, models.StatusCancelled, nil, changedBy, reason)
}

// ApprovePayment releases a pendiente_pago order to the kitchen queue.
func (s *Service) ApprovePayment(ctx context.Context, tenantID, id, changedBy string) (*models.Order, error) {
	fields := map[string]interface{}{"payment_status": models.PaymentStatusApproved}
	return s.transitionByID(ctx, tenantID, id, models.StatusPending, fields, changedBy, "payment approved")
}

func (s *Service) RejectPayment(ctx context.Context, tenantID, id, changedBy string) (*models.Order, error) {
	fields := map[string]interface{}{"payment_status": models.PaymentStatusRejected}
	return s.transitionByID(ctx, tenantID, id, models.StatusCancelled, fields, changedBy, "payment rejected")
}

func (s *Service) transitionByID(ctx context.Context, tenantID, id string, to models.OrderStatus,
	fields map[string]interface{}, changedBy, note string) (*models.Order, error) {
	order, err := s.repo.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, order, to, fields, changedBy, note)
}

func (s *Service) transition(ctx context.Context, order *models.Order, to models.OrderStatus,
	fields map[string]interface{}, changedBy, note string) (*models.Order, error) {
	from := order.Status
	if err := statemachine.CanTransition(from, to); err != nil {
		return nil, err
	}

	change := store.StatusChange{
		TenantID:  order.TenantID,
		OrderID:   order.ID,
		From:      from,
		To:        to,
		Fields:    fields,
		ChangedBy: changedBy,
		Note:      note,
	}
	switch {
	case to == models.StatusConfirmed:
		change.Movements = stock.ForItems(order.Items).Movements()
		change.MovementType = models.MovementOut
		change.Reason = fmt.Sprintf("Pedido #%s confirmado", order.ShortID())
	case to == models.StatusCancelled && from == models.StatusConfirmed:
		change.Movements = stock.ForItems(order.Items).Movements()
		change.MovementType = models.MovementIn
		change.Reason = fmt.Sprintf("Pedido #%s cancelado", order.ShortID())
	}

	entry := s.log.WithFields(logrus.Fields{
		"tenant_id": order.TenantID,
		"order_id":  order.ID,
		"from":      from,
		"to":        to,
	})
	if err := s.repo.ApplyStatusChange(ctx, change); err != nil {
		if apperr.IsDomain(err) {
			entry.WithError(err).Warn("status change rejected")
			return nil, err
		}
		entry.WithError(err).Error("status change failed")
		return nil, fmt.Errorf("change order status: %w", err)
	}
	entry.WithField("movements", len(change.Movements)).Info("order status changed")

	updated, err := s.repo.Get(ctx, order.TenantID, order.ID)
	if err != nil {
		return nil, err
	}
	s.notifyCustomer(ctx, updated)
	s.publish(ctx, string(updated.Status), updated)
	return updated, nil
}

func (s *Service) Get(ctx context.Context, tenantID, id string) (*models.Order, error) {
	return s.repo.Get(ctx, tenantID, id)
}

func (s *Service) List(ctx context.Context, tenantID string, f store.OrderFilter) ([]models.Order, error) {
	return s.repo.List(ctx, tenantID, f)
}

func (s *Service) ListByStatus(ctx context.Context, tenantID string, status models.OrderStatus) ([]models.Order, error) {
	if !statemachine.IsKnown(status) {
		return nil, apperr.BadRequest("unknown status %q", status)
	}
	return s.repo.List(ctx, tenantID, store.OrderFilter{Statuses: []models.OrderStatus{status}})
}

// ListByDate returns the orders created on the calendar day of date in the
// service time zone.
func (s *Service) ListByDate(ctx context.Context, tenantID string, date time.Time) ([]models.Order, error) {
	from, to := s.DayBounds(date)
	return s.repo.List(ctx, tenantID, store.OrderFilter{From: from, To: to})
}

// ListPending returns the orders still waiting on the kitchen or on payment.
func (s *Service) ListPending(ctx context.Context, tenantID string) ([]models.Order, error) {
	return s.repo.List(ctx, tenantID, store.OrderFilter{
		Statuses: []models.OrderStatus{models.StatusAwaitingPayment, models.StatusPending},
	})
}

// DayBounds is [midnight, next midnight) of date's day in the service zone.
func (s *Service) DayBounds(date time.Time) (time.Time, time.Time) {
	d := date.In(s.loc)
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, s.loc)
	return start, start.AddDate(0, 0, 1)
}

func (s *Service) Location() *time.Location {
	return s.loc
}

func (s *Service) check(v interface{}) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.BadRequest("%v", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed on %s", fe.Namespace(), fe.Tag()))
	}
	return apperr.BadRequest("invalid order: %s", strings.Join(msgs, "; "))
}

func (s *Service) publish(ctx context.Context, kind string, order *models.Order) {
	ev := notify.OrderEvent{
		Type:       kind,
		TenantID:   order.TenantID,
		OrderID:    order.ID,
		Status:     string(order.Status),
		Total:      order.Total,
		OccurredAt: s.now(),
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.WithError(err).WithField("order_id", order.ID).Warn("order event not published")
	}
}
