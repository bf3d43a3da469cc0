package orders

import (
	"context"
	"fmt"
	"strings"

	"food-order-bot/models"
	"food-order-bot/notify"
	"food-order-bot/pricing"

	"github.com/sirupsen/logrus"
)

var statusMessages = map[models.OrderStatus]string{
	models.StatusPending:   "💳 Recibimos tu pago. Tu pedido #%s quedó a la espera de confirmación.",
	models.StatusConfirmed: "✅ ¡Tu pedido #%s fue confirmado! Ya lo estamos por preparar.",
	models.StatusPreparing: "👨‍🍳 Tu pedido #%s está en preparación.",
	models.StatusOnTheWay:  "🛵 Tu pedido #%s está en camino.",
	models.StatusDelivered: "🎉 Tu pedido #%s fue entregado. ¡Gracias por elegirnos!",
	models.StatusCancelled: "❌ Tu pedido #%s fue cancelado. Si tenés dudas respondé este mensaje.",
}

// CustomerMessage is the text a customer receives when order enters its
// current status. Empty means no message.
func CustomerMessage(order *models.Order) string {
	if order.Status == models.StatusReady {
		if order.OrderType == models.OrderTypePickup {
			return fmt.Sprintf("🍔 Tu pedido #%s está listo para retirar.", order.ShortID())
		}
		return fmt.Sprintf("🍔 Tu pedido #%s está listo y sale en breve.", order.ShortID())
	}
	tmpl, ok := statusMessages[order.Status]
	if !ok {
		return ""
	}
	return fmt.Sprintf(tmpl, order.ShortID())
}

// TenantMessage summarizes a new order for the shop.
func TenantMessage(order *models.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🛎️ Nuevo pedido #%s\n", order.ShortID())
	fmt.Fprintf(&b, "Cliente: %s (%s)\n", order.CustomerName, order.CustomerPhone)
	for _, it := range order.Items {
		fmt.Fprintf(&b, "• %dx %s", it.Quantity, it.ProductName)
		for _, c := range it.Customizations {
			if c.Type == models.CustomizationAdd {
				fmt.Fprintf(&b, " +%s", c.IngredientName)
			} else {
				fmt.Fprintf(&b, " sin %s", c.IngredientName)
			}
		}
		for _, e := range it.Extras {
			fmt.Fprintf(&b, " +%dx %s", e.Quantity, e.Name)
		}
		fmt.Fprintf(&b, " %s\n", pricing.Format(it.ItemTotal))
	}
	if order.OrderType == models.OrderTypeDelivery {
		fmt.Fprintf(&b, "Envío: %s", order.DeliveryAddress)
		if order.DeliveryZoneName != "" {
			fmt.Fprintf(&b, " (%s)", order.DeliveryZoneName)
		}
		if order.DeliveryNotes != "" {
			fmt.Fprintf(&b, " - %s", order.DeliveryNotes)
		}
		b.WriteString("\n")
	} else {
		b.WriteString("Retira en el local\n")
	}
	fmt.Fprintf(&b, "Pago: %s\n", order.PaymentMethod)
	fmt.Fprintf(&b, "Total: %s", pricing.Format(order.Total))
	return b.String()
}

// customerAddress prefers the chat the order came from.
func customerAddress(order *models.Order) string {
	if order.ChannelChatID != "" {
		return order.ChannelChatID
	}
	return strings.TrimPrefix(order.CustomerPhone, "+")
}

func (s *Service) notifyTenant(ctx context.Context, order *models.Order) {
	tenant, err := s.catalog.GetTenant(ctx, order.TenantID)
	if err != nil {
		s.log.WithError(err).WithField("tenant_id", order.TenantID).Warn("tenant lookup for notification failed")
		return
	}
	s.notifier.Dispatch(notify.Message{
		TenantID: tenant.ID,
		From:     tenant.WAPhoneNumberID,
		To:       tenant.NotificationPhone,
		Text:     TenantMessage(order),
	}, logrus.Fields{"order_id": order.ID, "kind": "new_order"})
}

func (s *Service) notifyCustomer(ctx context.Context, order *models.Order) {
	text := CustomerMessage(order)
	if text == "" {
		return
	}
	tenant, err := s.catalog.GetTenant(ctx, order.TenantID)
	if err != nil {
		s.log.WithError(err).WithField("tenant_id", order.TenantID).Warn("tenant lookup for notification failed")
		return
	}
	s.notifier.Dispatch(notify.Message{
		TenantID: tenant.ID,
		From:     tenant.WAPhoneNumberID,
		To:       customerAddress(order),
		Text:     text,
	}, logrus.Fields{"order_id": order.ID, "kind": "status", "status": order.Status})
}
