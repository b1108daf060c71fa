package models

import (
	"gorm.io/gorm"
)

// Balance is the current holding of one token by one wallet. Each scan
// overwrites the previous state; history is not kept.
type Balance struct {
	gorm.Model
	WalletID  uint   `gorm:"uniqueIndex:idx_balances_wallet_mint;not null"`
	TokenMint string `gorm:"size:44;uniqueIndex:idx_balances_wallet_mint;not null"`
	Amount    float64
	Value     float64
	Holders   int
	Buys      int
	Sells     int
	Txns      int

	// Relationships
	PriceEvents []PriceEvent `gorm:"foreignKey:BalanceID"`
	RiskProfile *RiskProfile `gorm:"foreignKey:BalanceID"`
}

// PriceEvent is a time-bucketed price-change percentage attached to a
// balance, one row per interval label ("1h", "24h", ...).
type PriceEvent struct {
	gorm.Model
	BalanceID     uint   `gorm:"uniqueIndex:idx_price_events_balance_interval;not null"`
	IntervalLabel string `gorm:"size:16;uniqueIndex:idx_price_events_balance_interval;not null"`
	PctChange     float64
}

// RiskProfile holds the provider's risk signals for a balance, superseded on
// every scan.
type RiskProfile struct {
	gorm.Model
	BalanceID       uint `gorm:"uniqueIndex;not null"`
	Rugged          bool
	Risks           string `gorm:"type:jsonb"`
	Score           float64
	JupiterVerified bool
}
