// Package conversation turns inbound chat messages into orders through a
// resumable step machine.
package conversation

import (
	"time"

	"food-order-bot/models"
	"food-order-bot/pricing"

	"github.com/shopspring/decimal"
)

type Step string

const (
	StepIdle                       Step = "idle"
	StepSelectingProduct           Step = "selectingProduct"
	StepSelectingQuantity          Step = "selectingQuantity"
	StepSelectingExtras            Step = "selectingExtras"
	StepAskingCustomization        Step = "askingCustomization"
	StepSelectingCustomizationType Step = "selectingCustomizationType"
	StepSelectingCustomization     Step = "selectingCustomization"
	StepAskingMoreProducts         Step = "askingMoreProducts"
	StepSelectingOrderType         Step = "selectingOrderType"
	StepSelectingDeliveryZone      Step = "selectingDeliveryZone"
	StepAwaitingAddress            Step = "awaitingAddress"
	StepAwaitingDeliveryNotes      Step = "awaitingDeliveryNotes"
	StepSelectingPayment           Step = "selectingPayment"
	StepConfirmingOrder            Step = "confirmingOrder"
)

// Event is one normalized inbound message.
type Event struct {
	TenantID          string
	CustomerChannelID string
	Text              string
	ContactName       string
	// MessageID is the channel's id for the message, used to drop
	// redeliveries. Empty disables the check.
	MessageID string
}

// State is everything the engine remembers about one customer between
// messages.
type State struct {
	Step Step       `json:"step"`
	Cart []CartItem `json:"cart"`

	// Menu holds the product ids in the order they were last listed.
	Menu              []string                 `json:"menu,omitempty"`
	CurrentProduct    *models.Product          `json:"current_product,omitempty"`
	CurrentQuantity   int                      `json:"current_quantity,omitempty"`
	AvailableExtras   []models.Extra           `json:"available_extras,omitempty"`
	CustomizationType models.CustomizationType `json:"customization_type,omitempty"`
	AvailableZones    []models.DeliveryZone    `json:"available_zones,omitempty"`
	OrderType         models.OrderType         `json:"order_type,omitempty"`
	SelectedZone      *models.DeliveryZone     `json:"selected_zone,omitempty"`
	DeliveryAddress   string                   `json:"delivery_address,omitempty"`
	DeliveryNotes     string                   `json:"delivery_notes,omitempty"`
	PaymentMethod     models.PaymentMethod     `json:"payment_method,omitempty"`
	CustomerName      string                   `json:"customer_name,omitempty"`
	UpdatedAt         time.Time                `json:"updated_at"`
}

func NewState() *State {
	return &State{Step: StepIdle}
}

// CartItem keeps the product as it was when picked.
type CartItem struct {
	Product        models.Product         `json:"product"`
	Quantity       int                    `json:"quantity"`
	Customizations []models.Customization `json:"customizations,omitempty"`
	Extras         []CartExtra            `json:"extras,omitempty"`
	Notes          string                 `json:"notes,omitempty"`
}

type CartExtra struct {
	Extra    models.Extra `json:"extra"`
	Quantity int          `json:"quantity"`
}

// AddExtra increments an extra already on the item or appends it.
func (it *CartItem) AddExtra(extra models.Extra) int {
	for i := range it.Extras {
		if it.Extras[i].Extra.ID == extra.ID {
			it.Extras[i].Quantity++
			return it.Extras[i].Quantity
		}
	}
	it.Extras = append(it.Extras, CartExtra{Extra: extra, Quantity: 1})
	return 1
}

// AddCustomization appends c unless the same ingredient and type is
// already there.
func (it *CartItem) AddCustomization(c models.Customization) bool {
	for _, existing := range it.Customizations {
		if existing.IngredientID == c.IngredientID && existing.Type == c.Type {
			return false
		}
	}
	it.Customizations = append(it.Customizations, c)
	return true
}

// Total prices the item from its snapshot.
func (it *CartItem) Total() float64 {
	return pricing.ItemTotal(it.Product.Price, it.Customizations, it.selectedExtras(), it.Quantity)
}

func (it *CartItem) selectedExtras() []models.SelectedExtra {
	out := make([]models.SelectedExtra, 0, len(it.Extras))
	for _, e := range it.Extras {
		out = append(out, models.SelectedExtra{ExtraID: e.Extra.ID, Name: e.Extra.Name, UnitPrice: e.Extra.Price, Quantity: e.Quantity})
	}
	return out
}

// Line converts the item into the id-only form the order pipeline prices.
func (it *CartItem) Line() pricing.Line {
	line := pricing.Line{ProductID: it.Product.ID, Quantity: it.Quantity, Notes: it.Notes}
	for _, c := range it.Customizations {
		line.Customizations = append(line.Customizations, pricing.LineCustomization{IngredientID: c.IngredientID, Type: c.Type})
	}
	for _, e := range it.Extras {
		line.Extras = append(line.Extras, pricing.LineExtra{ExtraID: e.Extra.ID, Quantity: e.Quantity})
	}
	return line
}

// currentItem is the item the customization and extras steps act on.
func (s *State) currentItem() *CartItem {
	if len(s.Cart) == 0 {
		return nil
	}
	return &s.Cart[len(s.Cart)-1]
}

func (s *State) lines() []pricing.Line {
	lines := make([]pricing.Line, 0, len(s.Cart))
	for i := range s.Cart {
		lines = append(lines, s.Cart[i].Line())
	}
	return lines
}

func (s *State) subtotal() float64 {
	sum := decimal.Zero
	for i := range s.Cart {
		sum = sum.Add(decimal.NewFromFloat(s.Cart[i].Total()))
	}
	return sum.InexactFloat64()
}

func (s *State) deliveryCost() float64 {
	if s.OrderType != models.OrderTypeDelivery || s.SelectedZone == nil {
		return 0
	}
	return s.SelectedZone.Price
}
