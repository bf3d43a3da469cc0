package models

import "time"

// OrderStatus represents all possible states of an order
type OrderStatus string

const (
	StatusAwaitingPayment OrderStatus = "pendiente_pago"
	StatusPending         OrderStatus = "pendiente"
	StatusConfirmed       OrderStatus = "confirmado"
	StatusPreparing       OrderStatus = "en_preparacion"
	StatusReady           OrderStatus = "listo"
	StatusOnTheWay        OrderStatus = "en_camino"
	StatusDelivered       OrderStatus = "entregado"
	StatusCancelled       OrderStatus = "cancelado"
)

type OrderType string

const (
	OrderTypeDelivery OrderType = "delivery"
	OrderTypePickup   OrderType = "pickup"
)

type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "efectivo"
	PaymentTransfer PaymentMethod = "transferencia"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusApproved PaymentStatus = "approved"
	PaymentStatusRejected PaymentStatus = "rejected"
)

type CustomizationType string

const (
	CustomizationAdd    CustomizationType = "add"
	CustomizationRemove CustomizationType = "remove"
)

type Order struct {
	ID               string               `json:"id" gorm:"primaryKey;size:36"`
	TenantID         string               `json:"tenant_id" gorm:"size:36;not null;index:idx_orders_tenant_status"`
	CustomerName     string               `json:"customer_name" gorm:"not null"`
	CustomerPhone    string               `json:"customer_phone" gorm:"not null"`
	ChannelChatID    string               `json:"channel_chat_id,omitempty"`
	Status           OrderStatus          `json:"status" gorm:"not null;default:'pendiente';index:idx_orders_tenant_status"`
	OrderType        OrderType            `json:"order_type" gorm:"not null"`
	DeliveryAddress  string               `json:"delivery_address,omitempty"`
	DeliveryZoneID   string               `json:"delivery_zone_id,omitempty"`
	DeliveryZoneName string               `json:"delivery_zone_name,omitempty"`
	DeliveryNotes    string               `json:"delivery_notes,omitempty"`
	CourierID        string               `json:"courier_id,omitempty"`
	DeliveryCost     float64              `json:"delivery_cost"`
	PaymentMethod    PaymentMethod        `json:"payment_method" gorm:"not null"`
	PaymentStatus    PaymentStatus        `json:"payment_status,omitempty"`
	Subtotal         float64              `json:"subtotal"`
	Total            float64              `json:"total"`
	Items            []OrderItem          `json:"items,omitempty" gorm:"foreignKey:OrderID"`
	StatusHistory    []OrderStatusHistory `json:"status_history,omitempty" gorm:"foreignKey:OrderID"`
	CreatedAt        time.Time            `json:"created_at" gorm:"index"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

// ShortID is the reference shown to customers and staff.
func (o *Order) ShortID() string {
	if len(o.ID) < 8 {
		return o.ID
	}
	return o.ID[:8]
}

// OrderItem is a priced snapshot of one cart line at order time. Later
// catalog edits never change it.
type OrderItem struct {
	ID             string          `json:"id" gorm:"primaryKey;size:36"`
	OrderID        string          `json:"order_id" gorm:"size:36;not null;index"`
	ProductID      string          `json:"product_id" gorm:"size:36;not null"`
	ProductName    string          `json:"product_name"`
	UnitPrice      float64         `json:"unit_price" gorm:"not null"`
	Quantity       int             `json:"quantity" gorm:"not null"`
	Customizations []Customization `json:"customizations" gorm:"serializer:json"`
	Extras         []SelectedExtra `json:"extras" gorm:"serializer:json"`
	Recipe         []RecipeLine    `json:"-" gorm:"serializer:json"`
	Notes          string          `json:"notes,omitempty"`
	ItemTotal      float64         `json:"item_total"`
}

type Customization struct {
	IngredientID   string            `json:"ingredient_id"`
	IngredientName string            `json:"ingredient_name"`
	Type           CustomizationType `json:"type"`
	ExtraPrice     float64           `json:"extra_price"`
	// StockQuantity is consumed per product unit when Type is add.
	StockQuantity float64 `json:"stock_quantity,omitempty"`
}

type SelectedExtra struct {
	ExtraID       string  `json:"extra_id"`
	Name          string  `json:"name"`
	UnitPrice     float64 `json:"unit_price"`
	Quantity      int     `json:"quantity"`
	IngredientID  string  `json:"ingredient_id,omitempty"`
	StockQuantity float64 `json:"stock_quantity,omitempty"`
}

// RecipeLine records how much of an ingredient one product unit consumes.
type RecipeLine struct {
	IngredientID string  `json:"ingredient_id"`
	Quantity     float64 `json:"quantity"`
}

// OrderStatusHistory tracks every status change
type OrderStatusHistory struct {
	ID         uint        `json:"id" gorm:"primaryKey"`
	OrderID    string      `json:"order_id" gorm:"size:36;not null;index"`
	FromStatus OrderStatus `json:"from_status"`
	ToStatus   OrderStatus `json:"to_status" gorm:"not null"`
	ChangedBy  string      `json:"changed_by"`
	Note       string      `json:"note"`
	CreatedAt  time.Time   `json:"created_at"`
}
