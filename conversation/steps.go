package conversation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"food-order-bot/apperr"
	"food-order-bot/models"
	"food-order-bot/orders"
	"food-order-bot/pricing"

	"github.com/sirupsen/logrus"
)

const (
	minAddressLength = 10
	minNotesLength   = 5
)

func (e *Engine) handleIdle(t *turn) error {
	switch {
	case greetingWords.match(t.input):
		t.reply(greeting(t.tenant))
	case helpWords.match(t.input):
		t.reply(msgHelp)
	case orderWords.match(t.input):
		return e.startOrder(t)
	case isNumber(t.input):
		// a bare number starts the order and picks that product in one go
		products, err := e.listMenu(t)
		if err != nil || products == nil {
			return err
		}
		idx, ok := parseIndex(t.input, len(products))
		if !ok {
			t.reply(msgInvalidOption)
			t.goTo(StepSelectingProduct, productMenu(products))
			return nil
		}
		return e.pickProduct(t, t.state.Menu[idx])
	default:
		t.reply(msgNotUnderstood)
	}
	return nil
}

// listMenu loads the available products and records their order in the
// state. It returns nil products, after replying, when there are none.
func (e *Engine) listMenu(t *turn) ([]models.Product, error) {
	products, err := e.Catalog.ListAvailableProducts(t.ctx, t.tenant.ID)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		t.end(msgNoProducts)
		return nil, nil
	}
	t.state.Menu = make([]string, len(products))
	for i, p := range products {
		t.state.Menu[i] = p.ID
	}
	return products, nil
}

func (e *Engine) startOrder(t *turn) error {
	products, err := e.listMenu(t)
	if err != nil || products == nil {
		return err
	}
	t.goTo(StepSelectingProduct, productMenu(products))
	return nil
}

func (e *Engine) handleSelectingProduct(t *turn) error {
	idx, ok := parseIndex(t.input, len(t.state.Menu))
	if !ok {
		t.reply(msgInvalidOption)
		return e.startOrder(t)
	}
	return e.pickProduct(t, t.state.Menu[idx])
}

func (e *Engine) pickProduct(t *turn, productID string) error {
	product, err := e.Catalog.GetProductByID(t.ctx, t.tenant.ID, productID)
	if apperr.IsNotFound(err) || (err == nil && !product.Available) {
		t.end(msgProductGone)
		return nil
	}
	if err != nil {
		return err
	}
	t.state.CurrentProduct = product
	t.state.CurrentQuantity = 0
	t.goTo(StepSelectingQuantity, fmt.Sprintf(msgAskQuantity, product.Name, pricing.MinQuantity, pricing.MaxQuantity))
	return nil
}

func (e *Engine) handleSelectingQuantity(t *turn) error {
	if t.state.CurrentProduct == nil {
		return e.startOrder(t)
	}
	qty, ok := parseIntIn(t.input, pricing.MinQuantity, pricing.MaxQuantity)
	if !ok {
		t.replyf(msgBadQuantity, pricing.MinQuantity, pricing.MaxQuantity)
		return nil
	}

	t.state.CurrentQuantity = qty
	t.state.Cart = append(t.state.Cart, CartItem{Product: *t.state.CurrentProduct, Quantity: qty})
	t.reply(itemAdded(t.state.currentItem()))

	extras, err := e.Catalog.ListActiveExtras(t.ctx, t.tenant.ID)
	if err != nil {
		return err
	}
	if len(extras) > 0 {
		t.state.AvailableExtras = extras
		t.goTo(StepSelectingExtras, extrasMenu(extras))
		return nil
	}
	e.askCustomization(t)
	return nil
}

func (e *Engine) handleSelectingExtras(t *turn) error {
	if doneWords.match(t.input) {
		e.askCustomization(t)
		return nil
	}
	idx, ok := parseIndex(t.input, len(t.state.AvailableExtras))
	item := t.state.currentItem()
	if !ok || item == nil {
		t.reply(msgInvalidOption)
		t.reply(extrasMenu(t.state.AvailableExtras))
		return nil
	}
	extra := t.state.AvailableExtras[idx]
	t.reply(extraAdded(extra, item.AddExtra(extra)))
	return nil
}

func (e *Engine) askCustomization(t *turn) {
	t.state.AvailableExtras = nil
	t.goTo(StepAskingCustomization, fmt.Sprintf(msgAskCustomize, t.state.currentItem().Product.Name))
}

func (e *Engine) handleAskingCustomization(t *turn) error {
	switch {
	case yesWords.match(t.input):
		product := t.state.currentItem().Product
		if len(product.Removable()) == 0 && len(product.Addable()) == 0 {
			t.reply(msgNoCustomization)
			t.goTo(StepAskingMoreProducts, msgAskMore)
			return nil
		}
		t.goTo(StepSelectingCustomizationType, msgCustomizeType)
	case noWords.match(t.input):
		t.goTo(StepAskingMoreProducts, msgAskMore)
	default:
		t.reply(msgAskYesNo)
	}
	return nil
}

func customizationOptions(product *models.Product, typ models.CustomizationType) []models.ProductIngredient {
	if typ == models.CustomizationAdd {
		return product.Addable()
	}
	return product.Removable()
}

func (e *Engine) handleSelectingCustomizationType(t *turn) error {
	var typ models.CustomizationType
	switch {
	case t.input == "1":
		typ = models.CustomizationAdd
	case t.input == "2":
		typ = models.CustomizationRemove
	case t.input == "3" || doneWords.match(t.input):
		t.goTo(StepAskingMoreProducts, msgAskMore)
		return nil
	default:
		t.reply(msgInvalidOption)
		t.reply(msgCustomizeType)
		return nil
	}

	options := customizationOptions(&t.state.currentItem().Product, typ)
	if len(options) == 0 {
		if typ == models.CustomizationAdd {
			t.reply(msgNothingToAdd)
		} else {
			t.reply(msgNothingToRemove)
		}
		t.reply(msgCustomizeType)
		return nil
	}
	t.state.CustomizationType = typ
	t.goTo(StepSelectingCustomization, ingredientMenu(typ, options))
	return nil
}

func (e *Engine) handleSelectingCustomization(t *turn) error {
	if doneWords.match(t.input) {
		t.state.CustomizationType = ""
		t.goTo(StepSelectingCustomizationType, msgCustomizeType)
		return nil
	}
	item := t.state.currentItem()
	typ := t.state.CustomizationType
	options := customizationOptions(&item.Product, typ)
	idx, ok := parseIndex(t.input, len(options))
	if !ok {
		t.reply(msgInvalidOption)
		t.reply(ingredientMenu(typ, options))
		return nil
	}

	ing := options[idx]
	c := models.Customization{IngredientID: ing.IngredientID, IngredientName: ing.Name, Type: typ}
	if typ == models.CustomizationAdd {
		c.ExtraPrice = ing.ExtraPrice
		c.StockQuantity = ing.AddQuantity()
	}
	if !item.AddCustomization(c) {
		t.reply(msgAlreadyChosen)
		return nil
	}
	t.reply(customizationAdded(c))
	return nil
}

func (e *Engine) handleAskingMoreProducts(t *turn) error {
	switch {
	case yesWords.match(t.input):
		t.state.CurrentProduct = nil
		t.state.CustomizationType = ""
		return e.startOrder(t)
	case noWords.match(t.input):
		return e.checkout(t)
	default:
		t.reply(msgAskYesNo)
		return nil
	}
}

// checkout branches on what the tenant offers.
func (e *Engine) checkout(t *turn) error {
	switch {
	case t.tenant.HasDelivery && t.tenant.HasPickup:
		t.goTo(StepSelectingOrderType, msgOrderType)
		return nil
	case t.tenant.HasDelivery:
		return e.startDelivery(t)
	default:
		t.state.OrderType = models.OrderTypePickup
		t.goTo(StepSelectingPayment, msgPayment)
		return nil
	}
}

func (e *Engine) startDelivery(t *turn) error {
	t.state.OrderType = models.OrderTypeDelivery
	zones, err := e.Catalog.ListActiveDeliveryZones(t.ctx, t.tenant.ID)
	if err != nil {
		return err
	}
	if len(zones) == 0 {
		t.goTo(StepAwaitingAddress, msgAskAddress)
		return nil
	}
	t.state.AvailableZones = zones
	t.goTo(StepSelectingDeliveryZone, zoneMenu(zones))
	return nil
}

func (e *Engine) handleSelectingOrderType(t *turn) error {
	switch t.input {
	case "1", "delivery", "envio":
		return e.startDelivery(t)
	case "2", "pickup", "retiro":
		t.state.OrderType = models.OrderTypePickup
		t.goTo(StepSelectingPayment, msgPayment)
	default:
		t.reply(msgInvalidOption)
		t.reply(msgOrderType)
	}
	return nil
}

func (e *Engine) handleSelectingDeliveryZone(t *turn) error {
	idx, ok := parseIndex(t.input, len(t.state.AvailableZones))
	if !ok {
		t.reply(msgInvalidOption)
		t.reply(zoneMenu(t.state.AvailableZones))
		return nil
	}
	zone := t.state.AvailableZones[idx]
	t.state.SelectedZone = &zone
	t.state.AvailableZones = nil
	t.reply(zoneSelected(zone))
	t.goTo(StepAwaitingAddress, msgAskAddress)
	return nil
}

func (e *Engine) handleAwaitingAddress(t *turn) error {
	address := strings.TrimSpace(t.ev.Text)
	if utf8.RuneCountInString(address) < minAddressLength {
		t.replyf(msgShortAddress, minAddressLength)
		return nil
	}
	t.state.DeliveryAddress = address
	t.goTo(StepAwaitingDeliveryNotes, msgAskNotes)
	return nil
}

func (e *Engine) handleAwaitingDeliveryNotes(t *turn) error {
	notes := strings.TrimSpace(t.ev.Text)
	if utf8.RuneCountInString(notes) < minNotesLength {
		t.replyf(msgShortNotes, minNotesLength)
		return nil
	}
	if t.input != "sin notas" {
		t.state.DeliveryNotes = notes
	}
	t.goTo(StepSelectingPayment, msgPayment)
	return nil
}

// handleSelectingPayment is the first stock gate: a cart that cannot be
// served is discarded before the summary is shown.
func (e *Engine) handleSelectingPayment(t *turn) error {
	switch t.input {
	case "1", "efectivo":
		t.state.PaymentMethod = models.PaymentCash
	case "2", "transferencia":
		t.state.PaymentMethod = models.PaymentTransfer
	default:
		t.reply(msgInvalidOption)
		t.reply(msgPayment)
		return nil
	}

	if ok, err := e.verifyStock(t); err != nil || !ok {
		return err
	}
	t.goTo(StepConfirmingOrder, summary(t.state))
	t.reply(msgAskConfirm)
	return nil
}

// verifyStock ends the conversation when the cart can no longer be served.
func (e *Engine) verifyStock(t *turn) (bool, error) {
	res, err := e.Stock.Verify(t.ctx, t.tenant.ID, t.state.lines())
	if err != nil {
		return false, err
	}
	if !res.OK {
		e.Log.WithFields(logrus.Fields{
			"tenant_id": t.tenant.ID,
			"customer":  t.ev.CustomerChannelID,
			"issues":    len(res.Issues),
		}).Info("cart rejected by stock check")
		t.end(stockProblem(res.Issues))
		return false, nil
	}
	return true, nil
}

func (e *Engine) handleConfirmingOrder(t *turn) error {
	if !confirmWords.match(t.input) {
		t.reply(msgAskConfirm)
		return nil
	}

	if ok, err := e.verifyStock(t); err != nil || !ok {
		return err
	}

	in := orders.CreateInput{
		TenantID:        t.tenant.ID,
		CustomerName:    t.state.CustomerName,
		CustomerPhone:   CustomerPhone(t.ev.CustomerChannelID, e.Region),
		ChannelChatID:   t.ev.CustomerChannelID,
		Items:           t.state.lines(),
		OrderType:       t.state.OrderType,
		DeliveryAddress: t.state.DeliveryAddress,
		DeliveryNotes:   t.state.DeliveryNotes,
		PaymentMethod:   t.state.PaymentMethod,
		ChangedBy:       "bot",
	}
	if in.CustomerName == "" {
		in.CustomerName = "Cliente"
	}
	if t.state.SelectedZone != nil {
		in.DeliveryZoneID = t.state.SelectedZone.ID
	}

	order, err := e.Orders.Create(t.ctx, in)
	if err != nil {
		entry := e.Log.WithError(err).WithField("tenant_id", t.tenant.ID)
		if apperr.IsDomain(err) {
			entry.Warn("order rejected at confirmation")
		} else {
			entry.Error("order creation failed")
		}
		t.end(msgOrderFailed)
		return nil
	}
	t.end(orderPlaced(order))
	return nil
}
