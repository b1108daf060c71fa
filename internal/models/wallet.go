package models

import (
	"gorm.io/gorm"
)

// Wallet represents a Solana wallet managed by the operator. The private key
// is never stored here; SecretRef points at the entry in the OS keyring.
type Wallet struct {
	gorm.Model
	Name      string `gorm:"size:64;uniqueIndex;not null"`
	PublicKey string `gorm:"size:44;uniqueIndex;not null"`
	SecretRef string `gorm:"size:64;not null"`

	// Relationships
	Balances []Balance `gorm:"foreignKey:WalletID"`
	PnlScans []PnlScan `gorm:"foreignKey:WalletID"`
}
