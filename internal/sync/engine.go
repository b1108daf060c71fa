package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/wnt/hoard/internal/events"
	"github.com/wnt/hoard/internal/ledger"
	"github.com/wnt/hoard/internal/metrics"
	"github.com/wnt/hoard/internal/models"
	"github.com/wnt/hoard/internal/services"
)

// HoldingsProvider is the slice of the portfolio data provider the engine
// consumes.
type HoldingsProvider interface {
	GetWalletHoldings(ctx context.Context, publicKey string) (*services.WalletHoldings, error)
}

// TokenSummary is the flattened view of one processed holding, in provider
// order.
type TokenSummary struct {
	Mint    string                          `json:"mint"`
	Symbol  string                          `json:"symbol"`
	Name    string                          `json:"name"`
	Balance float64                         `json:"balance"`
	Value   float64                         `json:"value"`
	Pools   []services.PoolInfo             `json:"pools"`
	Events  map[string]services.PriceChange `json:"events"`
	Risk    services.RiskInfo               `json:"risk"`
	Buys    int                             `json:"buys"`
	Sells   int                             `json:"sells"`
	Txns    int                             `json:"txns"`
	Holders int                             `json:"holders"`
}

type scanStarted struct {
	PublicKey string `json:"publicKey"`
}

type scanCompleted struct {
	PublicKey string         `json:"publicKey"`
	Tokens    []TokenSummary `json:"tokens"`
}

// Engine reconciles provider holdings into the ledger
type Engine struct {
	ledger   *ledger.Ledger
	provider HoldingsProvider
	bus      events.Publisher
	logger   zerolog.Logger
}

// NewEngine creates a sync engine. A nil bus disables notifications.
func NewEngine(led *ledger.Ledger, provider HoldingsProvider, bus events.Publisher, logger zerolog.Logger) *Engine {
	if bus == nil {
		bus = events.Nop{}
	}
	return &Engine{
		ledger:   led,
		provider: provider,
		bus:      bus,
		logger:   logger.With().Str("component", "sync").Logger(),
	}
}

// Scan fetches the current holdings of a wallet and reconciles them into the
// ledger. Holdings are processed in provider order; a malformed holding or
// pool is skipped without failing the batch. Each upsert is independently
// idempotent, so a failed scan converges on the next run.
func (e *Engine) Scan(ctx context.Context, publicKey string) ([]TokenSummary, error) {
	start := time.Now()
	e.bus.Publish(events.ScanStart, scanStarted{PublicKey: publicKey})

	holdings, err := e.provider.GetWalletHoldings(ctx, publicKey)
	if err != nil {
		metrics.RecordScan("failed")
		return nil, fmt.Errorf("failed to fetch wallet holdings: %w", err)
	}

	wallet, err := e.ledger.WalletByPublicKey(ctx, publicKey)
	if err != nil {
		metrics.RecordScan("failed")
		return nil, err
	}

	log := e.logger.With().Str("wallet", publicKey).Logger()
	summaries := make([]TokenSummary, 0, len(holdings.Tokens))

	for i := range holdings.Tokens {
		holding := &holdings.Tokens[i]

		outcome := validateHolding(holding)
		if outcome.skipped {
			log.Warn().Str("reason", outcome.reason).Msg("skipping malformed holding")
			metrics.RecordSkippedHolding()
			continue
		}

		if err := e.reconcileHolding(ctx, wallet.ID, holding, log); err != nil {
			metrics.RecordScan("failed")
			return nil, err
		}

		summaries = append(summaries, summarize(holding))
	}

	e.bus.Publish(events.ScanComplete, scanCompleted{PublicKey: publicKey, Tokens: summaries})
	metrics.RecordScan("success")
	metrics.RecordScanDuration(time.Since(start).Seconds())

	return summaries, nil
}

// validation outcome for one holding record
type holdingOutcome struct {
	skipped bool
	reason  string
}

func validateHolding(holding *services.TokenHolding) holdingOutcome {
	if holding.Token.Mint == "" {
		return holdingOutcome{skipped: true, reason: "missing token mint"}
	}
	return holdingOutcome{}
}

// reconcileHolding upserts the token, then its pools, then the balance and
// its dependents. The order matters: pools and balances reference the token
// row, price events and the risk profile reference the balance row.
func (e *Engine) reconcileHolding(ctx context.Context, walletID uint, holding *services.TokenHolding, log zerolog.Logger) error {
	token := models.Token{
		Mint:     holding.Token.Mint,
		Name:     holding.Token.Name,
		Symbol:   holding.Token.Symbol,
		URI:      holding.Token.URI,
		Decimals: holding.Token.Decimals,
		Image:    holding.Token.Image,
	}
	if err := e.ledger.UpsertToken(ctx, &token); err != nil {
		return err
	}

	for j := range holding.Pools {
		pool := &holding.Pools[j]
		if pool.PoolID == "" || pool.TokenAddress == "" {
			log.Warn().Str("mint", holding.Token.Mint).Msg("skipping malformed pool")
			metrics.RecordSkippedHolding()
			continue
		}

		// A pool may be quoted against a token other than the holding's own
		if pool.TokenAddress != holding.Token.Mint {
			if err := e.ledger.EnsureToken(ctx, pool.TokenAddress); err != nil {
				return err
			}
		}

		if err := e.ledger.UpsertPool(ctx, poolRow(pool)); err != nil {
			return err
		}
	}

	balance, err := e.ledger.UpsertBalance(ctx, &models.Balance{
		WalletID:  walletID,
		TokenMint: holding.Token.Mint,
		Amount:    holding.Balance,
		Value:     holding.Value,
		Holders:   holding.Holders,
		Buys:      holding.Buys,
		Sells:     holding.Sells,
		Txns:      holding.Txns,
	})
	if err != nil {
		return err
	}

	for label, event := range holding.Events {
		if err := e.ledger.UpsertPriceEvent(ctx, balance.ID, label, event.PriceChangePercentage); err != nil {
			return err
		}
	}

	risks, err := json.Marshal(holding.Risk.Risks)
	if err != nil {
		risks = []byte("[]")
	}
	return e.ledger.UpsertRiskProfile(ctx, &models.RiskProfile{
		BalanceID:       balance.ID,
		Rugged:          holding.Risk.Rugged,
		Risks:           string(risks),
		Score:           holding.Risk.Score,
		JupiterVerified: holding.Risk.JupiterVerified,
	})
}

func poolRow(pool *services.PoolInfo) *models.Pool {
	row := &models.Pool{
		PoolID:          pool.PoolID,
		TokenMint:       pool.TokenAddress,
		Market:          pool.Market,
		LiquidityQuote:  pool.Liquidity.Quote,
		LiquidityUSD:    pool.Liquidity.USD,
		PriceQuote:      pool.Price.Quote,
		PriceUSD:        pool.Price.USD,
		TokenSupply:     pool.TokenSupply,
		LPBurn:          pool.LPBurn,
		MarketCapQuote:  pool.MarketCap.Quote,
		MarketCapUSD:    pool.MarketCap.USD,
		QuoteToken:      pool.QuoteToken,
		Decimals:        pool.Decimals,
		Deployer:        pool.Deployer,
		FreezeAuthority: pool.Security.FreezeAuthority,
		MintAuthority:   pool.Security.MintAuthority,
		LastUpdated:     time.UnixMilli(pool.LastUpdated).UTC(),
	}
	if pool.CreatedAt != 0 {
		opened := time.UnixMilli(pool.CreatedAt).UTC()
		row.OpenedAt = &opened
	}
	return row
}

func summarize(holding *services.TokenHolding) TokenSummary {
	mint := holding.Token.Mint
	if mint == "" {
		mint = "unknown"
	}
	symbol := holding.Token.Symbol
	if symbol == "" {
		symbol = "N/A"
	}
	name := holding.Token.Name
	if name == "" {
		name = holding.Token.Symbol
	}
	if name == "" {
		name = "Unknown"
	}

	return TokenSummary{
		Mint:    mint,
		Symbol:  symbol,
		Name:    name,
		Balance: holding.Balance,
		Value:   holding.Value,
		Pools:   holding.Pools,
		Events:  holding.Events,
		Risk:    holding.Risk,
		Buys:    holding.Buys,
		Sells:   holding.Sells,
		Txns:    holding.Txns,
		Holders: holding.Holders,
	}
}
