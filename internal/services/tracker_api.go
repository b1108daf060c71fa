package services

import (
	"context"
	"fmt"
	"time"

	"github.com/wnt/hoard/internal/metrics"
	"github.com/wnt/hoard/internal/utils"
)

// TrackerClient talks to the portfolio data provider. It exposes the two read
// operations the engines need: current holdings and PnL figures.
type TrackerClient struct {
	httpClient *utils.HTTPClient
}

// NewTrackerClient creates a new client for the portfolio data API
func NewTrackerClient(baseURL, apiKey string) *TrackerClient {
	return &TrackerClient{
		httpClient: utils.NewHTTPClient(
			utils.WithBaseURL(baseURL),
			utils.WithTimeout(30*time.Second),
			// Provider errors propagate to the caller; retrying is the
			// caller's decision
			utils.WithRetries(0, 0),
			utils.WithDefaultHeaders(map[string]string{
				"Content-Type": "application/json",
				"x-api-key":    apiKey,
			}),
		),
	}
}

// TokenMeta is the token descriptor nested in a holding
type TokenMeta struct {
	Mint     string `json:"mint"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	URI      string `json:"uri"`
	Decimals int    `json:"decimals"`
	Image    string `json:"image"`
}

// QuoteUSD is a value expressed in both quote currency and USD
type QuoteUSD struct {
	Quote float64 `json:"quote"`
	USD   float64 `json:"usd"`
}

// PoolSecurity carries the on-chain authority flags of a pool's token
type PoolSecurity struct {
	FreezeAuthority *string `json:"freezeAuthority"`
	MintAuthority   *string `json:"mintAuthority"`
}

// PoolInfo is a liquidity pool descriptor nested in a holding
type PoolInfo struct {
	PoolID       string       `json:"poolId"`
	TokenAddress string       `json:"tokenAddress"`
	Market       string       `json:"market"`
	Liquidity    QuoteUSD     `json:"liquidity"`
	Price        QuoteUSD     `json:"price"`
	TokenSupply  float64      `json:"tokenSupply"`
	LPBurn       float64      `json:"lpBurn"`
	MarketCap    QuoteUSD     `json:"marketCap"`
	QuoteToken   string       `json:"quoteToken"`
	Decimals     int          `json:"decimals"`
	Deployer     string       `json:"deployer"`
	Security     PoolSecurity `json:"security"`
	LastUpdated  int64        `json:"lastUpdated"`
	CreatedAt    int64        `json:"createdAt"`
}

// PriceChange is one interval entry of a holding's price events
type PriceChange struct {
	PriceChangePercentage float64 `json:"priceChangePercentage"`
}

// RiskFactor is a single named risk reported for a token
type RiskFactor struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Level       string  `json:"level"`
	Score       float64 `json:"score"`
}

// RiskInfo is the risk descriptor of a holding
type RiskInfo struct {
	Rugged          bool         `json:"rugged"`
	Risks           []RiskFactor `json:"risks"`
	Score           float64      `json:"score"`
	JupiterVerified bool         `json:"jupiterVerified"`
}

// TokenHolding is one token-holding record of a wallet
type TokenHolding struct {
	Token   TokenMeta              `json:"token"`
	Pools   []PoolInfo             `json:"pools"`
	Events  map[string]PriceChange `json:"events"`
	Risk    RiskInfo               `json:"risk"`
	Balance float64                `json:"balance"`
	Value   float64                `json:"value"`
	Holders int                    `json:"holders"`
	Buys    int                    `json:"buys"`
	Sells   int                    `json:"sells"`
	Txns    int                    `json:"txns"`
}

// WalletHoldings is the full holdings response for a wallet
type WalletHoldings struct {
	Tokens   []TokenHolding `json:"tokens"`
	Total    float64        `json:"total"`
	TotalSol float64        `json:"totalSol"`
}

// PnlSummary is the aggregate PnL figures for a wallet
type PnlSummary struct {
	Realized         float64 `json:"realized"`
	Unrealized       float64 `json:"unrealized"`
	Total            float64 `json:"total"`
	TotalInvested    float64 `json:"totalInvested"`
	AverageBuyAmount float64 `json:"averageBuyAmount"`
	TotalWins        int     `json:"totalWins"`
	TotalLosses      int     `json:"totalLosses"`
	WinPercentage    float64 `json:"winPercentage"`
	LossPercentage   float64 `json:"lossPercentage"`
}

// TokenPnl is the per-token PnL breakdown
type TokenPnl struct {
	Holding          float64 `json:"holding"`
	Held             float64 `json:"held"`
	Sold             float64 `json:"sold"`
	Realized         float64 `json:"realized"`
	Unrealized       float64 `json:"unrealized"`
	Total            float64 `json:"total"`
	TotalSold        float64 `json:"total_sold"`
	TotalInvested    float64 `json:"total_invested"`
	AverageBuyAmount float64 `json:"average_buy_amount"`
	CurrentValue     float64 `json:"current_value"`
	CostBasis        float64 `json:"cost_basis"`
}

// WalletPnl is the full PnL response for a wallet
type WalletPnl struct {
	Summary PnlSummary          `json:"summary"`
	Tokens  map[string]TokenPnl `json:"tokens"`
}

// GetWalletHoldings fetches the current token holdings of a wallet
func (c *TrackerClient) GetWalletHoldings(ctx context.Context, publicKey string) (*WalletHoldings, error) {
	path := fmt.Sprintf("/wallet/%s", publicKey)

	response, err := c.httpClient.Get(ctx, path, nil)
	if err != nil {
		metrics.RecordProviderRequest("holdings", "failed")
		return nil, fmt.Errorf("provider request failed: %w", err)
	}
	metrics.RecordProviderRequest("holdings", "success")

	var holdings WalletHoldings
	if err := response.DecodeJSON(&holdings); err != nil {
		return nil, fmt.Errorf("failed to decode holdings response: %w", err)
	}

	return &holdings, nil
}

// GetWalletPnl fetches aggregate and per-token PnL figures for a wallet
func (c *TrackerClient) GetWalletPnl(ctx context.Context, publicKey string) (*WalletPnl, error) {
	path := fmt.Sprintf("/pnl/%s", publicKey)

	response, err := c.httpClient.Get(ctx, path, nil)
	if err != nil {
		metrics.RecordProviderRequest("pnl", "failed")
		return nil, fmt.Errorf("provider request failed: %w", err)
	}
	metrics.RecordProviderRequest("pnl", "success")

	var pnl WalletPnl
	if err := response.DecodeJSON(&pnl); err != nil {
		return nil, fmt.Errorf("failed to decode pnl response: %w", err)
	}

	return &pnl, nil
}
