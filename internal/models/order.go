package models

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusReview     OrderStatus = "review"
	OrderStatusInProgress OrderStatus = "in_progress"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusReadyPick  OrderStatus = "ready_pick_up"
	OrderStatusSent       OrderStatus = "sent"
	OrderStatusCanceled   OrderStatus = "canceled"
)

// OrderStatuses lists every status in pipeline order.
var OrderStatuses = []OrderStatus{
	OrderStatusReview,
	OrderStatusInProgress,
	OrderStatusCompleted,
	OrderStatusReadyPick,
	OrderStatusSent,
	OrderStatusCanceled,
}

// Ready reports whether the status means the customer can collect the
// translation. Entering this set triggers the order-ready email.
func (s OrderStatus) Ready() bool {
	switch s {
	case OrderStatusCompleted, OrderStatusReadyPick, OrderStatusSent:
		return true
	}
	return false
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusReview, OrderStatusInProgress, OrderStatusCompleted,
		OrderStatusReadyPick, OrderStatusSent, OrderStatusCanceled:
		return true
	}
	return false
}

type OrderType string

const (
	OrderTypeOrder        OrderType = "order"
	OrderTypeCostEstimate OrderType = "cost_estimate"
)

type Order struct {
	ID     uint       `gorm:"primaryKey" json:"id"`
	UserID *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`

	Name        string `gorm:"type:varchar(264);not null" json:"name"`
	Email       string `gorm:"type:varchar(264);not null" json:"email"`
	PhoneNumber string `gorm:"type:varchar(12)" json:"phone_number"`
	City        string `gorm:"type:varchar(264)" json:"city"`
	Street      string `gorm:"type:varchar(264)" json:"street"`
	Zip         string `gorm:"type:varchar(10)" json:"zip"`
	Message     string `gorm:"type:varchar(1000)" json:"message"`

	Status    OrderStatus `gorm:"type:varchar(40);default:'review'" json:"status"`
	OrderType OrderType   `gorm:"type:varchar(20);default:'order'" json:"order_type"`
	IsNew     bool        `gorm:"default:true" json:"is_new"`

	CreatedAt time.Time `json:"timestamp"`
	UpdatedAt time.Time `json:"updated_at"`

	User  *User  `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Files []File `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"files,omitempty"`
}

// ContactEmail is where order notifications go: the owning account if the
// order has one, otherwise the contact email typed into the form.
func (o *Order) ContactEmail() string {
	if o.User != nil && o.User.Email != "" {
		return o.User.Email
	}
	return o.Email
}
