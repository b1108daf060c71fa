package models

import (
	"time"

	"gorm.io/gorm"
)

// Token is the global token catalog, shared across wallets and refreshed on
// every scan.
type Token struct {
	gorm.Model
	Mint     string `gorm:"size:44;uniqueIndex;not null"`
	Name     string `gorm:"size:128"`
	Symbol   string `gorm:"size:32"`
	URI      string `gorm:"size:255"`
	Decimals int
	Image    string `gorm:"size:255"`

	// Relationships
	Pools []Pool `gorm:"foreignKey:TokenMint;references:Mint"`
}

// Pool represents a liquidity pool for a token. One token may have many
// pools. Market-state fields are refreshed on every scan; identity fields
// (market, quote token, deployer) are fixed at creation.
type Pool struct {
	gorm.Model
	PoolID    string `gorm:"size:64;uniqueIndex;not null"`
	TokenMint string `gorm:"size:44;index;not null"`
	Market    string `gorm:"size:32"`

	LiquidityQuote  float64
	LiquidityUSD    float64
	PriceQuote      float64
	PriceUSD        float64
	TokenSupply     float64
	LPBurn          float64
	MarketCapQuote  float64
	MarketCapUSD    float64
	QuoteToken      string  `gorm:"size:44"`
	Decimals        int
	Deployer        string  `gorm:"size:44"`
	FreezeAuthority *string `gorm:"size:44"`
	MintAuthority   *string `gorm:"size:44"`

	LastUpdated time.Time `gorm:"index"`
	OpenedAt    *time.Time

	// Relationships
	Token Token `gorm:"foreignKey:TokenMint;references:Mint"`
}
