package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type DeliveryType string

const (
	DeliveryTypePickup    DeliveryType = "pickup"
	DeliveryTypeDelivery  DeliveryType = "delivery"
	DeliveryTypeStockpile DeliveryType = "stockpile"
)

type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodPoints PaymentMethod = "points"
	PaymentMethodMixed  PaymentMethod = "mixed"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// Order is one customer purchase intent. Created pending/pending and moved
// to confirmed/paid either synchronously (full points cover) or by the
// payment verification step.
type Order struct {
	ID                uint64          `gorm:"primaryKey;autoIncrement"`
	Reference         string          `gorm:"column:reference;size:64;uniqueIndex;not null"`
	UserUID           string          `gorm:"column:user_uid;size:128;index;not null"`
	TotalAmount       decimal.Decimal `gorm:"column:total_amount;type:numeric(14,2);not null"`
	DeliveryType      DeliveryType    `gorm:"column:delivery_type;size:16;not null"`
	DeliveryAddressID *uint64         `gorm:"column:delivery_address_id"`
	PickupLocationID  *uint64         `gorm:"column:pickup_location_id"`
	DeliveryFee       decimal.Decimal `gorm:"column:delivery_fee;type:numeric(14,2);not null;default:0"`
	PepsAmount        int64           `gorm:"column:peps_amount;not null;default:0"`
	PaymentMethod     PaymentMethod   `gorm:"column:payment_method;size:16;not null"`
	Status            OrderStatus     `gorm:"column:status;size:16;index;not null"`
	PaymentStatus     PaymentStatus   `gorm:"column:payment_status;size:16;index;not null"`
	CreatedAt         time.Time       `gorm:"autoCreateTime"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderItem is a product line snapshot. Immutable once created.
type OrderItem struct {
	ID        uint64          `gorm:"primaryKey;autoIncrement"`
	OrderID   uint64          `gorm:"column:order_id;index;not null"`
	ProductID uint64          `gorm:"column:product_id;not null"`
	VendorID  uint64          `gorm:"column:vendor_id;index;not null"`
	Quantity  int             `gorm:"column:quantity;not null"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(14,2);not null"`
	Subtotal  decimal.Decimal `gorm:"column:subtotal;type:numeric(14,2);not null"`
	CreatedAt time.Time       `gorm:"autoCreateTime"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
