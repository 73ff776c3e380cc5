package service

import (
	"github.com/pepsfoods/checkout-backend/internal/model"
	"github.com/shopspring/decimal"
)

// Platform fee rates. The customer-side markup inflates the charged total;
// the vendor-side fee comes out of the vendor's subtotal.
var (
	customerFeeRate = decimal.RequireFromString("0.025")
	vendorFeeRate   = decimal.RequireFromString("0.05")
	one             = decimal.NewFromInt(1)
	hundred         = decimal.NewFromInt(100)
)

// FeeBreakdown is the fee split for one vendor grouping.
type FeeBreakdown struct {
	PlatformFee      decimal.Decimal `json:"platformFee"`
	VendorFee        decimal.Decimal `json:"vendorFee"`
	TotalPlatformFee decimal.Decimal `json:"totalPlatformFee"`
	VendorAmount     decimal.Decimal `json:"vendorAmount"`
}

// ComputeFees derives the fee breakdown from a gross amount. Pure and total
// over amount >= 0; zero in, all zeros out.
func ComputeFees(amount decimal.Decimal) FeeBreakdown {
	platformFee := amount.Mul(customerFeeRate)
	vendorFee := amount.Mul(vendorFeeRate)
	return FeeBreakdown{
		PlatformFee:      platformFee,
		VendorFee:        vendorFee,
		TotalPlatformFee: platformFee.Add(vendorFee),
		VendorAmount:     amount.Sub(vendorFee),
	}
}

// CartItem is one line of the settlement input, snapshotted by the caller.
type CartItem struct {
	ProductID uint64          `json:"productId"`
	VendorID  uint64          `json:"vendorId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

func (i CartItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// VendorSplit is one vendor's gross subtotal within an order.
type VendorSplit struct {
	VendorID uint64          `json:"vendorId"`
	Amount   decimal.Decimal `json:"amount"`
}

// SplitByVendor groups cart items by vendor and sums price x quantity per
// group. Output order is first-seen order of each vendor.
func SplitByVendor(items []CartItem) []VendorSplit {
	index := make(map[uint64]int, len(items))
	splits := make([]VendorSplit, 0, len(items))
	for _, item := range items {
		if pos, ok := index[item.VendorID]; ok {
			splits[pos].Amount = splits[pos].Amount.Add(item.Subtotal())
			continue
		}
		index[item.VendorID] = len(splits)
		splits = append(splits, VendorSplit{VendorID: item.VendorID, Amount: item.Subtotal()})
	}
	return splits
}

// ChargeAmount is what the gateway actually collects: the gross amount plus
// the customer-side markup.
func ChargeAmount(gross decimal.Decimal) decimal.Decimal {
	return gross.Mul(one.Add(customerFeeRate))
}

// GatewaySplitConfig turns vendor subtotals into the gateway's
// percentage-based split. Each share percentage is taken against the
// marked-up charge total, never against the vendor's raw subtotal; the two
// bases must not be conflated.
func GatewaySplitConfig(gross decimal.Decimal, splits []VendorSplit, subaccounts map[uint64]string) model.SplitConfig {
	charge := ChargeAmount(gross)
	cfg := model.SplitConfig{ChargeAmount: charge, Shares: make([]model.SubaccountShare, 0, len(splits))}
	for _, split := range splits {
		share := model.SubaccountShare{
			VendorID:   split.VendorID,
			Subaccount: subaccounts[split.VendorID],
			Amount:     split.Amount,
		}
		if charge.IsPositive() {
			share.Percentage = split.Amount.Div(charge).Mul(hundred).Round(2)
		}
		cfg.Shares = append(cfg.Shares, share)
	}
	return cfg
}
