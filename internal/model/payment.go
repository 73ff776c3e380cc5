package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentRecordStatus string

const (
	PaymentRecordPending   PaymentRecordStatus = "pending"
	PaymentRecordCompleted PaymentRecordStatus = "completed"
	PaymentRecordFailed    PaymentRecordStatus = "failed"
)

// SubaccountShare is one vendor's slice of a gateway charge. Percentage is
// expressed against the marked-up charge total, not the vendor subtotal.
type SubaccountShare struct {
	VendorID   uint64          `json:"vendorId"`
	Subaccount string          `json:"subaccount"`
	Amount     decimal.Decimal `json:"amount"`
	Percentage decimal.Decimal `json:"percentage"`
}

// SplitConfig is persisted alongside the payment so a verification or a
// dispute can see exactly what was sent to the gateway.
type SplitConfig struct {
	ChargeAmount decimal.Decimal   `json:"chargeAmount"`
	Shares       []SubaccountShare `json:"shares"`
}

// Payment is the cash-remainder leg of an order. At most one per order.
// Status transitions only through the verification path.
type Payment struct {
	ID          uint64              `gorm:"primaryKey;autoIncrement"`
	OrderID     uint64              `gorm:"column:order_id;uniqueIndex;not null"`
	Reference   string              `gorm:"column:reference;size:128;uniqueIndex;not null"`
	Amount      decimal.Decimal     `gorm:"column:amount;type:numeric(14,2);not null"`
	SplitConfig SplitConfig         `gorm:"column:split_config;type:jsonb;serializer:json"`
	Status      PaymentRecordStatus `gorm:"column:status;size:16;index;not null"`
	CreatedAt   time.Time           `gorm:"autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"autoUpdateTime"`
}

func (Payment) TableName() string {
	return "payments"
}
