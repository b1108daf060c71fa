package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/wnt/hoard/internal/events"
	"github.com/wnt/hoard/internal/keys"
	"github.com/wnt/hoard/internal/ledger"
	"github.com/wnt/hoard/internal/models"
	"github.com/wnt/hoard/internal/pnl"
	"github.com/wnt/hoard/internal/secrets"
	"github.com/wnt/hoard/internal/sync"
)

type walletAdded struct {
	Name      string `json:"name"`
	PublicKey string `json:"publicKey"`
}

// Service is the façade used by the presentation layer. It coordinates
// wallet identity (name, public key, secret reference) and delegates
// numeric/relational work to the sync and pnl engines.
type Service struct {
	ledger     *ledger.Ledger
	secrets    secrets.Store
	syncEngine *sync.Engine
	pnlEngine  *pnl.Engine
	bus        events.Publisher
	logger     zerolog.Logger
}

// NewService creates the wallet service. A nil bus disables notifications.
func NewService(led *ledger.Ledger, store secrets.Store, syncEngine *sync.Engine, pnlEngine *pnl.Engine, bus events.Publisher, logger zerolog.Logger) *Service {
	if bus == nil {
		bus = events.Nop{}
	}
	return &Service{
		ledger:     led,
		secrets:    store,
		syncEngine: syncEngine,
		pnlEngine:  pnlEngine,
		bus:        bus,
		logger:     logger.With().Str("component", "wallet").Logger(),
	}
}

// Add generates a new keypair, stores the secret under the wallet name and
// creates the wallet row. Fails with ledger.ErrDuplicateName if the name is
// taken.
func (s *Service) Add(ctx context.Context, name string) (*models.Wallet, error) {
	if err := s.checkNameFree(ctx, name); err != nil {
		return nil, err
	}

	publicKey, secret, err := keys.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate keypair: %w", err)
	}

	if err := s.secrets.Put(name, keys.EncodeSecret(secret)); err != nil {
		return nil, err
	}

	wallet, err := s.ledger.CreateWallet(ctx, name, publicKey, name)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("name", name).Str("public_key", publicKey).Msg("wallet added")
	s.bus.Publish(events.WalletAdd, walletAdded{Name: name, PublicKey: publicKey})
	return wallet, nil
}

// Import decodes private key material from any accepted encoding, derives
// the public address, stores the secret and creates the wallet row.
// Re-importing under an existing name fails with ledger.ErrDuplicateName.
func (s *Service) Import(ctx context.Context, name, rawInput string) (*models.Wallet, error) {
	if err := s.checkNameFree(ctx, name); err != nil {
		return nil, err
	}

	secret, err := keys.DecodeFlexible(rawInput)
	if err != nil {
		return nil, err
	}

	publicKey, err := keys.Derive(secret)
	if err != nil {
		return nil, err
	}

	if err := s.secrets.Put(name, keys.EncodeSecret(secret)); err != nil {
		return nil, err
	}

	wallet, err := s.ledger.CreateWallet(ctx, name, publicKey, name)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("name", name).Str("public_key", publicKey).Msg("wallet imported")
	s.bus.Publish(events.WalletAdd, walletAdded{Name: name, PublicKey: publicKey})
	return wallet, nil
}

// checkNameFree rejects a name already held by a wallet. The check runs
// before any secret is written so a duplicate never touches the existing
// wallet's key material; the ledger's unique constraint remains the final
// arbiter.
func (s *Service) checkNameFree(ctx context.Context, name string) error {
	_, err := s.ledger.WalletByName(ctx, name)
	if err == nil {
		return fmt.Errorf("%w: %s", ledger.ErrDuplicateName, name)
	}
	if errors.Is(err, ledger.ErrWalletNotFound) {
		return nil
	}
	return err
}

// List returns all known wallets
func (s *Service) List(ctx context.Context) ([]models.Wallet, error) {
	return s.ledger.ListWallets(ctx)
}

// Scan synchronizes the holdings of a wallet addressed by public key
func (s *Service) Scan(ctx context.Context, publicKey string) ([]sync.TokenSummary, error) {
	return s.syncEngine.Scan(ctx, publicKey)
}

// Resync synchronizes the holdings of a wallet addressed by name
func (s *Service) Resync(ctx context.Context, name string) ([]sync.TokenSummary, error) {
	wallet, err := s.ledger.WalletByName(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.syncEngine.Scan(ctx, wallet.PublicKey)
}

// Pnl computes and snapshots PnL for a wallet addressed by name
func (s *Service) Pnl(ctx context.Context, name string) (*pnl.Report, error) {
	return s.pnlEngine.Compute(ctx, name)
}

// PrivateKey returns the stored secret key of a wallet addressed by public
// key, in canonical encoding.
func (s *Service) PrivateKey(ctx context.Context, publicKey string) (string, error) {
	wallet, err := s.ledger.WalletByPublicKey(ctx, publicKey)
	if err != nil {
		return "", err
	}
	return s.secrets.Get(wallet.SecretRef)
}
