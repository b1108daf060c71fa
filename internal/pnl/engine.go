package pnl

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/wnt/hoard/internal/events"
	"github.com/wnt/hoard/internal/ledger"
	"github.com/wnt/hoard/internal/metrics"
	"github.com/wnt/hoard/internal/models"
	"github.com/wnt/hoard/internal/services"
)

// PnlProvider is the slice of the portfolio data provider the engine
// consumes.
type PnlProvider interface {
	GetWalletPnl(ctx context.Context, publicKey string) (*services.WalletPnl, error)
}

// Report is the provider's PnL figures as received, returned to the caller
// after the snapshot is persisted.
type Report struct {
	Summary services.PnlSummary          `json:"summary"`
	Tokens  map[string]services.TokenPnl `json:"tokens"`
}

type pnlStarted struct {
	PublicKey string `json:"publicKey"`
}

type pnlCompleted struct {
	PublicKey string                       `json:"publicKey"`
	Summary   services.PnlSummary          `json:"summary"`
	Tokens    map[string]services.TokenPnl `json:"tokens"`
}

// Engine fetches PnL figures and records immutable snapshots
type Engine struct {
	ledger   *ledger.Ledger
	provider PnlProvider
	bus      events.Publisher
	logger   zerolog.Logger
}

// NewEngine creates a PnL engine. A nil bus disables notifications.
func NewEngine(led *ledger.Ledger, provider PnlProvider, bus events.Publisher, logger zerolog.Logger) *Engine {
	if bus == nil {
		bus = events.Nop{}
	}
	return &Engine{
		ledger:   led,
		provider: provider,
		bus:      bus,
		logger:   logger.With().Str("component", "pnl").Logger(),
	}
}

// Compute fetches PnL figures for the named wallet and persists them as a
// new snapshot. Every call appends a snapshot; history is never overwritten.
func (e *Engine) Compute(ctx context.Context, walletName string) (*Report, error) {
	wallet, err := e.ledger.WalletByName(ctx, walletName)
	if err != nil {
		return nil, err
	}

	e.bus.Publish(events.PnlStart, pnlStarted{PublicKey: wallet.PublicKey})

	data, err := e.provider.GetWalletPnl(ctx, wallet.PublicKey)
	if err != nil {
		metrics.RecordPnlSnapshot("failed")
		return nil, fmt.Errorf("failed to fetch wallet pnl: %w", err)
	}

	scan := snapshotRow(wallet.ID, data)
	if err := e.ledger.CreatePnlSnapshot(ctx, scan); err != nil {
		metrics.RecordPnlSnapshot("failed")
		return nil, err
	}
	metrics.RecordPnlSnapshot("success")

	e.logger.Info().
		Str("wallet", wallet.PublicKey).
		Uint("scan_id", scan.ID).
		Int("tokens", len(data.Tokens)).
		Msg("pnl snapshot recorded")

	e.bus.Publish(events.PnlComplete, pnlCompleted{
		PublicKey: wallet.PublicKey,
		Summary:   data.Summary,
		Tokens:    data.Tokens,
	})

	return &Report{Summary: data.Summary, Tokens: data.Tokens}, nil
}

func snapshotRow(walletID uint, data *services.WalletPnl) *models.PnlScan {
	scan := &models.PnlScan{
		WalletID:         walletID,
		Realized:         data.Summary.Realized,
		Unrealized:       data.Summary.Unrealized,
		Total:            data.Summary.Total,
		TotalInvested:    data.Summary.TotalInvested,
		AverageBuyAmount: data.Summary.AverageBuyAmount,
		TotalWins:        data.Summary.TotalWins,
		TotalLosses:      data.Summary.TotalLosses,
		WinPercentage:    data.Summary.WinPercentage,
		LossPercentage:   data.Summary.LossPercentage,
	}

	for mint, tok := range data.Tokens {
		scan.Tokens = append(scan.Tokens, models.PnlToken{
			TokenMint:        mint,
			Holding:          tok.Holding,
			Held:             tok.Held,
			Sold:             tok.Sold,
			Realized:         tok.Realized,
			Unrealized:       tok.Unrealized,
			Total:            tok.Total,
			TotalSold:        tok.TotalSold,
			TotalInvested:    tok.TotalInvested,
			AverageBuyAmount: tok.AverageBuyAmount,
			CurrentValue:     tok.CurrentValue,
			CostBasis:        tok.CostBasis,
		})
	}

	return scan
}
