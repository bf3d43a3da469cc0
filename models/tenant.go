package models

import "time"

// Tenant is one independently configured shop sharing the platform.
type Tenant struct {
	ID                string    `json:"id" gorm:"primaryKey;size:36"`
	Name              string    `json:"name" gorm:"not null"`
	Active            bool      `json:"active"`
	HasDelivery       bool      `json:"has_delivery"`
	HasPickup         bool      `json:"has_pickup"`
	NotificationPhone string    `json:"notification_phone"`
	WAPhoneNumberID   string    `json:"wa_phone_number_id" gorm:"index"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
