package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Vendor sells through the marketplace and receives its split via a gateway
// subaccount.
type Vendor struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	Name       string    `gorm:"size:120;not null"`
	Subaccount string    `gorm:"column:subaccount;size:64"`
	Latitude   float64   `gorm:"column:latitude"`
	Longitude  float64   `gorm:"column:longitude"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

func (Vendor) TableName() string {
	return "vendors"
}

type PickupLocation struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	VendorID  uint64    `gorm:"column:vendor_id;index;not null"`
	Name      string    `gorm:"size:120;not null"`
	Latitude  float64   `gorm:"column:latitude"`
	Longitude float64   `gorm:"column:longitude"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (PickupLocation) TableName() string {
	return "pickup_locations"
}

type Address struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	UserUID   string    `gorm:"column:user_uid;size:128;index;not null"`
	Line1     string    `gorm:"size:255;not null"`
	City      string    `gorm:"size:120"`
	Latitude  float64   `gorm:"column:latitude"`
	Longitude float64   `gorm:"column:longitude"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Address) TableName() string {
	return "addresses"
}

type Product struct {
	ID          uint64          `gorm:"primaryKey;autoIncrement"`
	VendorID    uint64          `gorm:"column:vendor_id;index;not null"`
	Name        string          `gorm:"size:120;not null"`
	Description string          `gorm:"type:text"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(14,2);not null"`
	CreatedAt   time.Time       `gorm:"autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime"`
}

func (Product) TableName() string {
	return "products"
}
