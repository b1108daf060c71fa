package models

import (
	"gorm.io/gorm"
)

// PnlScan is an immutable profit-and-loss snapshot for a wallet at the moment
// of computation. Rows are append-only: never updated, never upserted.
type PnlScan struct {
	gorm.Model
	WalletID uint `gorm:"index;not null"`

	Realized         float64
	Unrealized       float64
	Total            float64
	TotalInvested    float64
	AverageBuyAmount float64
	TotalWins        int
	TotalLosses      int
	WinPercentage    float64
	LossPercentage   float64

	// Relationships
	Tokens []PnlToken `gorm:"foreignKey:PnlScanID"`
}

// PnlToken is the per-token breakdown of a PnlScan, created atomically with
// its parent.
type PnlToken struct {
	gorm.Model
	PnlScanID uint   `gorm:"index;not null"`
	TokenMint string `gorm:"size:44;index;not null"`

	Holding          float64
	Held             float64
	Sold             float64
	Realized         float64
	Unrealized       float64
	Total            float64
	TotalSold        float64
	TotalInvested    float64
	AverageBuyAmount float64
	CurrentValue     float64
	CostBasis        float64
}
