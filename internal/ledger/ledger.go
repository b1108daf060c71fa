package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wnt/hoard/internal/metrics"
	"github.com/wnt/hoard/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrWalletNotFound is returned when no wallet matches the given name or public key
	ErrWalletNotFound = errors.New("wallet not found")

	// ErrDuplicateName is returned when a wallet name or public key is already taken
	ErrDuplicateName = errors.New("wallet already exists")
)

// Ledger owns the normalized schema and all upsert/read operations. It holds
// the process-scoped database connection; callers never touch gorm directly.
type Ledger struct {
	db *gorm.DB
}

// New creates a Ledger over an open database connection
func New(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// CreateWallet inserts a new wallet row. Name and public key are each
// globally unique; a collision on either surfaces as ErrDuplicateName.
func (l *Ledger) CreateWallet(ctx context.Context, name, publicKey, secretRef string) (*models.Wallet, error) {
	wallet := models.Wallet{
		Name:      name,
		PublicKey: publicKey,
		SecretRef: secretRef,
	}
	if err := l.db.WithContext(ctx).Create(&wallet).Error; err != nil {
		metrics.RecordDatabaseOperation("create", "failed")
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateName, name)
		}
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}
	metrics.RecordDatabaseOperation("create", "success")
	return &wallet, nil
}

// WalletByName looks up a wallet by its unique name
func (l *Ledger) WalletByName(ctx context.Context, name string) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := l.db.WithContext(ctx).Where("name = ?", name).First(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrWalletNotFound, name)
		}
		return nil, fmt.Errorf("failed to look up wallet: %w", err)
	}
	return &wallet, nil
}

// WalletByPublicKey looks up a wallet by its unique public key
func (l *Ledger) WalletByPublicKey(ctx context.Context, publicKey string) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := l.db.WithContext(ctx).Where("public_key = ?", publicKey).First(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrWalletNotFound, publicKey)
		}
		return nil, fmt.Errorf("failed to look up wallet: %w", err)
	}
	return &wallet, nil
}

// ListWallets returns all wallets in store order
func (l *Ledger) ListWallets(ctx context.Context) ([]models.Wallet, error) {
	var wallets []models.Wallet
	if err := l.db.WithContext(ctx).Find(&wallets).Error; err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}
	return wallets, nil
}

// UpsertToken creates or refreshes a token catalog row keyed by mint
func (l *Ledger) UpsertToken(ctx context.Context, token *models.Token) error {
	err := l.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "mint"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "symbol", "uri", "decimals", "image", "updated_at",
		}),
	}).Create(token).Error
	if err != nil {
		metrics.RecordDatabaseOperation("upsert", "failed")
		return fmt.Errorf("failed to upsert token %s: %w", token.Mint, err)
	}
	metrics.RecordDatabaseOperation("upsert", "success")
	return nil
}

// EnsureToken creates a bare catalog row for a mint if none exists. Used so
// a pool never references a missing token.
func (l *Ledger) EnsureToken(ctx context.Context, mint string) error {
	err := l.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "mint"}},
		DoNothing: true,
	}).Create(&models.Token{Mint: mint}).Error
	if err != nil {
		return fmt.Errorf("failed to ensure token %s: %w", mint, err)
	}
	return nil
}

// UpsertPool creates or refreshes a pool row keyed by pool id. Market-state
// columns are overwritten; identity columns keep their creation values.
func (l *Ledger) UpsertPool(ctx context.Context, pool *models.Pool) error {
	err := l.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "pool_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"liquidity_quote", "liquidity_usd", "price_quote", "price_usd",
			"token_supply", "lp_burn", "market_cap_quote", "market_cap_usd",
			"deployer", "freeze_authority", "mint_authority", "last_updated",
			"updated_at",
		}),
	}).Create(pool).Error
	if err != nil {
		metrics.RecordDatabaseOperation("upsert", "failed")
		return fmt.Errorf("failed to upsert pool %s: %w", pool.PoolID, err)
	}
	metrics.RecordDatabaseOperation("upsert", "success")
	return nil
}

// UpsertBalance creates or overwrites the holding of one token by one
// wallet, keyed by (wallet, mint), and returns the stored row.
func (l *Ledger) UpsertBalance(ctx context.Context, balance *models.Balance) (*models.Balance, error) {
	err := l.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "wallet_id"}, {Name: "token_mint"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"amount", "value", "holders", "buys", "sells", "txns", "updated_at",
		}),
	}).Create(balance).Error
	if err != nil {
		metrics.RecordDatabaseOperation("upsert", "failed")
		return nil, fmt.Errorf("failed to upsert balance for %s: %w", balance.TokenMint, err)
	}
	metrics.RecordDatabaseOperation("upsert", "success")

	// Re-read to get a stable row id whether the write inserted or updated
	var saved models.Balance
	err = l.db.WithContext(ctx).
		Where("wallet_id = ? AND token_mint = ?", balance.WalletID, balance.TokenMint).
		First(&saved).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read back balance for %s: %w", balance.TokenMint, err)
	}
	return &saved, nil
}

// UpsertPriceEvent creates or overwrites the price-change entry for one
// interval label of a balance.
func (l *Ledger) UpsertPriceEvent(ctx context.Context, balanceID uint, intervalLabel string, pctChange float64) error {
	event := models.PriceEvent{
		BalanceID:     balanceID,
		IntervalLabel: intervalLabel,
		PctChange:     pctChange,
	}
	err := l.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "balance_id"}, {Name: "interval_label"}},
		DoUpdates: clause.AssignmentColumns([]string{"pct_change", "updated_at"}),
	}).Create(&event).Error
	if err != nil {
		metrics.RecordDatabaseOperation("upsert", "failed")
		return fmt.Errorf("failed to upsert price event %s: %w", intervalLabel, err)
	}
	metrics.RecordDatabaseOperation("upsert", "success")
	return nil
}

// UpsertRiskProfile creates or supersedes the risk profile of a balance
func (l *Ledger) UpsertRiskProfile(ctx context.Context, profile *models.RiskProfile) error {
	err := l.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "balance_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"rugged", "risks", "score", "jupiter_verified", "updated_at",
		}),
	}).Create(profile).Error
	if err != nil {
		metrics.RecordDatabaseOperation("upsert", "failed")
		return fmt.Errorf("failed to upsert risk profile: %w", err)
	}
	metrics.RecordDatabaseOperation("upsert", "success")
	return nil
}

// CreatePnlSnapshot persists a PnL snapshot and its per-token rows in a
// single transaction. Snapshots are append-only; either the whole snapshot
// lands or none of it does.
func (l *Ledger) CreatePnlSnapshot(ctx context.Context, scan *models.PnlScan) error {
	tokens := scan.Tokens
	scan.Tokens = nil

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(scan).Error; err != nil {
			return fmt.Errorf("failed to create pnl scan: %w", err)
		}

		for i := range tokens {
			tokens[i].PnlScanID = scan.ID
			if err := tx.Create(&tokens[i]).Error; err != nil {
				return fmt.Errorf("failed to create pnl token %s: %w", tokens[i].TokenMint, err)
			}
		}

		return nil
	})
	if err != nil {
		metrics.RecordDatabaseOperation("create", "failed")
		return err
	}

	scan.Tokens = tokens
	metrics.RecordDatabaseOperation("create", "success")
	return nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
