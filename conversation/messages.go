package conversation

import (
	"fmt"
	"strings"

	"food-order-bot/models"
	"food-order-bot/pricing"
)

const (
	msgHelp = "Estos son los comandos disponibles:\n" +
		"• *pedir*: armar un pedido\n" +
		"• *cancelar*: descartar el pedido en curso\n" +
		"• *menu*: ver esta ayuda\n" +
		"También podés mandar directamente el número de un producto."
	msgNotUnderstood   = "🤔 No te entendí. Escribí *pedir* para hacer un pedido o *menu* para ver la ayuda."
	msgNoProducts      = "😔 Por ahora no tenemos productos disponibles. Probá más tarde."
	msgCancelled       = "🗑️ Listo, cancelamos tu pedido. Escribí *pedir* cuando quieras empezar de nuevo."
	msgNothingToCancel = "No tenés ningún pedido en curso. Escribí *pedir* para empezar."
	msgInvalidOption   = "❗ Esa opción no es válida."
	msgAskQuantity     = "¿Cuántas unidades de *%s* querés? Respondé con un número del %d al %d."
	msgBadQuantity     = "❗ La cantidad tiene que ser un número del %d al %d."
	msgAskCustomize    = "¿Querés personalizar *%s*? (agregar o quitar ingredientes)\nRespondé *si* o *no*."
	msgNoCustomization = "Este producto no tiene ingredientes para personalizar."
	msgAskYesNo        = "Respondé *si* o *no*."
	msgCustomizeType   = "¿Qué querés hacer?\n1. Agregar ingrediente\n2. Quitar ingrediente\n3. Listo"
	msgNothingToAdd    = "Este producto no tiene ingredientes para agregar."
	msgNothingToRemove = "Este producto no tiene ingredientes para quitar."
	msgAlreadyChosen   = "Ya habías elegido esa opción."
	msgAskMore         = "¿Querés agregar otro producto? Respondé *si* o *no*."
	msgOrderType       = "¿Cómo querés recibir tu pedido?\n1. Envío a domicilio\n2. Retiro en el local"
	msgAskAddress      = "📍 Escribí la dirección de entrega (calle, número y piso/depto)."
	msgShortAddress    = "❗ La dirección parece incompleta. Escribí calle, número y piso/depto (mínimo %d caracteres)."
	msgAskNotes        = "¿Alguna indicación para el repartidor? (por ejemplo \"portón negro\"). Si no hay, escribí *sin notas*."
	msgShortNotes      = "❗ La indicación tiene que tener al menos %d caracteres. Si no hay, escribí *sin notas*."
	msgPayment         = "💰 ¿Cómo vas a pagar?\n1. Efectivo\n2. Transferencia"
	msgAskConfirm      = "Escribí *confirmar* para enviar el pedido o *cancelar* para descartarlo."
	msgRetryLater      = "⚠️ Tuvimos un problema para procesar tu mensaje. Probá de nuevo en unos minutos."
	msgRestart         = "😕 No pudimos continuar con tu pedido. Escribí *pedir* para empezar de nuevo."
	msgProductGone     = "😕 Ese producto ya no está disponible. Escribí *pedir* para ver el menú actualizado."
	msgOrderFailed     = "😕 No pudimos registrar tu pedido. Tu carrito fue descartado, escribí *pedir* para empezar de nuevo."
)

func greeting(tenant *models.Tenant) string {
	return fmt.Sprintf("¡Hola! 👋 Bienvenido a *%s*.\nEscribí *pedir* para hacer un pedido o *menu* para ver la ayuda.", tenant.Name)
}

func productMenu(products []models.Product) string {
	var b strings.Builder
	b.WriteString("🍔 *Menú*\n")
	for i, p := range products {
		fmt.Fprintf(&b, "%d. %s - %s\n", i+1, p.Name, pricing.Format(p.Price))
		if p.Description != "" {
			fmt.Fprintf(&b, "   _%s_\n", p.Description)
		}
	}
	b.WriteString("Respondé con el número del producto.")
	return b.String()
}

func extrasMenu(extras []models.Extra) string {
	var b strings.Builder
	b.WriteString("¿Querés sumar algún extra?\n")
	for i, e := range extras {
		fmt.Fprintf(&b, "%d. %s +%s\n", i+1, e.Name, pricing.Format(e.Price))
	}
	b.WriteString("Respondé con el número, o *listo* para seguir.")
	return b.String()
}

func extraAdded(e models.Extra, qty int) string {
	return fmt.Sprintf("➕ %s (x%d). ¿Otro extra? Respondé con el número o *listo*.", e.Name, qty)
}

func ingredientMenu(typ models.CustomizationType, options []models.ProductIngredient) string {
	var b strings.Builder
	if typ == models.CustomizationAdd {
		b.WriteString("¿Qué ingrediente querés agregar?\n")
	} else {
		b.WriteString("¿Qué ingrediente querés quitar?\n")
	}
	for i, ing := range options {
		if typ == models.CustomizationAdd && ing.ExtraPrice > 0 {
			fmt.Fprintf(&b, "%d. %s +%s\n", i+1, ing.Name, pricing.Format(ing.ExtraPrice))
			continue
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, ing.Name)
	}
	b.WriteString("Respondé con el número, o *listo* para volver.")
	return b.String()
}

func customizationAdded(c models.Customization) string {
	if c.Type == models.CustomizationAdd {
		return fmt.Sprintf("➕ Con %s extra. ¿Algo más? Respondé con el número o *listo*.", c.IngredientName)
	}
	return fmt.Sprintf("➖ Sin %s. ¿Algo más? Respondé con el número o *listo*.", c.IngredientName)
}

func itemAdded(it *CartItem) string {
	return fmt.Sprintf("✅ Agregamos %dx %s al pedido.", it.Quantity, it.Product.Name)
}

func zoneMenu(zones []models.DeliveryZone) string {
	var b strings.Builder
	b.WriteString("🛵 ¿En qué zona estás?\n")
	for i, z := range zones {
		fmt.Fprintf(&b, "%d. %s - %s\n", i+1, z.Name, pricing.Format(z.Price))
	}
	b.WriteString("Respondé con el número de la zona.")
	return b.String()
}

func zoneSelected(z models.DeliveryZone) string {
	return fmt.Sprintf("Envío a %s: %s.", z.Name, pricing.Format(z.Price))
}

func stockProblem(issues []string) string {
	var b strings.Builder
	b.WriteString("😔 No podemos tomar tu pedido en este momento:\n")
	for _, issue := range issues {
		fmt.Fprintf(&b, "• %s\n", issue)
	}
	b.WriteString("Tu carrito fue descartado. Escribí *pedir* para armar uno nuevo.")
	return b.String()
}

// summary is the last thing the customer sees before confirming.
func summary(s *State) string {
	var b strings.Builder
	b.WriteString("🧾 *Resumen de tu pedido*\n")
	for i := range s.Cart {
		it := &s.Cart[i]
		fmt.Fprintf(&b, "• %dx %s", it.Quantity, it.Product.Name)
		for _, c := range it.Customizations {
			if c.Type == models.CustomizationAdd {
				fmt.Fprintf(&b, ", con %s extra", c.IngredientName)
			} else {
				fmt.Fprintf(&b, ", sin %s", c.IngredientName)
			}
		}
		for _, e := range it.Extras {
			fmt.Fprintf(&b, ", +%dx %s", e.Quantity, e.Extra.Name)
		}
		fmt.Fprintf(&b, ": %s\n", pricing.Format(it.Total()))
	}

	subtotal := s.subtotal()
	cost := s.deliveryCost()
	fmt.Fprintf(&b, "Subtotal: %s\n", pricing.Format(subtotal))
	if s.OrderType == models.OrderTypeDelivery {
		fmt.Fprintf(&b, "Envío: %s\n", pricing.Format(cost))
		fmt.Fprintf(&b, "Dirección: %s\n", s.DeliveryAddress)
		if s.DeliveryNotes != "" {
			fmt.Fprintf(&b, "Indicaciones: %s\n", s.DeliveryNotes)
		}
	} else {
		b.WriteString("Retiro en el local\n")
	}
	fmt.Fprintf(&b, "Pago: %s\n", paymentLabel(s.PaymentMethod))
	fmt.Fprintf(&b, "*Total: %s*", pricing.Format(pricing.Total(subtotal, cost)))
	return b.String()
}

func paymentLabel(m models.PaymentMethod) string {
	if m == models.PaymentTransfer {
		return "Transferencia"
	}
	return "Efectivo"
}

func orderPlaced(o *models.Order) string {
	msg := fmt.Sprintf("🎉 ¡Recibimos tu pedido #%s! Total: %s.\nTe avisamos por acá cuando lo confirmemos.",
		o.ShortID(), pricing.Format(o.Total))
	if o.PaymentMethod == models.PaymentTransfer {
		msg += "\nPara pagar por transferencia respondé este mensaje con el comprobante."
	}
	return msg
}
