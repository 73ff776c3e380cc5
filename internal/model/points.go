package model

import "time"

// Profile carries the materialized PEPS balance. The balance only moves
// together with a PointsEntry; reads use FirstOrCreate so a missing row is
// a zero balance, not an error.
type Profile struct {
	UID           string    `gorm:"column:uid;primaryKey;size:128"`
	Email         string    `gorm:"column:email;size:255"`
	PointsBalance int64     `gorm:"column:points_balance;not null;default:0"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

func (Profile) TableName() string {
	return "profiles"
}

type PointsTransactionType string

const (
	PointsEarned  PointsTransactionType = "earned"
	PointsSpent   PointsTransactionType = "spent"
	PointsExpired PointsTransactionType = "expired"
)

// PointsEntry is one append-only ledger row. Negative points mean a spend.
type PointsEntry struct {
	ID              uint64                `gorm:"primaryKey;autoIncrement"`
	UserUID         string                `gorm:"column:user_uid;size:128;index;not null"`
	Points          int64                 `gorm:"column:points;not null"`
	TransactionType PointsTransactionType `gorm:"column:transaction_type;size:16;not null"`
	Source          string                `gorm:"column:source;size:64;not null"`
	ReferenceID     *uint64               `gorm:"column:reference_id"`
	CreatedAt       time.Time             `gorm:"autoCreateTime"`
}

func (PointsEntry) TableName() string {
	return "affiliate_points"
}
