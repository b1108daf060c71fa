package pnl

import (
	"context"
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/wnt/hoard/internal/database"
	"github.com/wnt/hoard/internal/events"
	"github.com/wnt/hoard/internal/ledger"
	"github.com/wnt/hoard/internal/models"
	"github.com/wnt/hoard/internal/services"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

type fakeProvider struct {
	pnl *services.WalletPnl
	err error
}

func (f *fakeProvider) GetWalletPnl(ctx context.Context, publicKey string) (*services.WalletPnl, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.pnl, nil
}

type recordedEvent struct {
	name    string
	payload interface{}
}

type recordingBus struct {
	published []recordedEvent
}

func (r *recordingBus) Publish(name string, payload interface{}) {
	r.published = append(r.published, recordedEvent{name: name, payload: payload})
}

func samplePnl() *services.WalletPnl {
	return &services.WalletPnl{
		Summary: services.PnlSummary{
			Realized:      120.5,
			Unrealized:    -20.25,
			Total:         100.25,
			TotalInvested: 500,
			TotalWins:     7,
			TotalLosses:   3,
			WinPercentage: 70,
		},
		Tokens: map[string]services.TokenPnl{
			"Mint1": {Holding: 100, Realized: 80, TotalSold: 200, CostBasis: 0.3},
			"Mint2": {Holding: 50, Realized: -10, TotalSold: 20, CostBasis: 1.1},
		},
	}
}

func TestComputePersistsSnapshot(t *testing.T) {
	db := openTestDB(t)
	led := ledger.New(db)
	ctx := context.Background()

	_, err := led.CreateWallet(ctx, "main", "Pub1", "main")
	require.NoError(t, err)

	provider := &fakeProvider{pnl: samplePnl()}
	engine := NewEngine(led, provider, nil, zerolog.Nop())

	report, err := engine.Compute(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, 120.5, report.Summary.Realized)
	assert.Len(t, report.Tokens, 2)

	var scan models.PnlScan
	require.NoError(t, db.First(&scan).Error)
	assert.Equal(t, 120.5, scan.Realized)
	assert.Equal(t, 7, scan.TotalWins)

	var tokens []models.PnlToken
	require.NoError(t, db.Where("pnl_scan_id = ?", scan.ID).Find(&tokens).Error)
	assert.Len(t, tokens, 2)
}

func TestComputeAppendsSnapshots(t *testing.T) {
	db := openTestDB(t)
	led := ledger.New(db)
	ctx := context.Background()

	wallet, err := led.CreateWallet(ctx, "main", "Pub1", "main")
	require.NoError(t, err)

	provider := &fakeProvider{pnl: samplePnl()}
	engine := NewEngine(led, provider, nil, zerolog.Nop())

	_, err = engine.Compute(ctx, "main")
	require.NoError(t, err)

	provider.pnl.Summary.Realized = 140
	_, err = engine.Compute(ctx, "main")
	require.NoError(t, err)

	var scans []models.PnlScan
	require.NoError(t, db.Where("wallet_id = ?", wallet.ID).Order("id").Find(&scans).Error)
	require.Len(t, scans, 2)
	assert.Equal(t, 120.5, scans[0].Realized)
	assert.Equal(t, 140.0, scans[1].Realized)
}

func TestComputeUnknownWallet(t *testing.T) {
	db := openTestDB(t)
	engine := NewEngine(ledger.New(db), &fakeProvider{pnl: samplePnl()}, nil, zerolog.Nop())

	_, err := engine.Compute(context.Background(), "missing")
	assert.ErrorIs(t, err, ledger.ErrWalletNotFound)
}

func TestComputeProviderFailure(t *testing.T) {
	db := openTestDB(t)
	led := ledger.New(db)
	ctx := context.Background()

	_, err := led.CreateWallet(ctx, "main", "Pub1", "main")
	require.NoError(t, err)

	provider := &fakeProvider{err: errors.New("provider down")}
	engine := NewEngine(led, provider, nil, zerolog.Nop())

	_, err = engine.Compute(ctx, "main")
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&models.PnlScan{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestComputeRollsBackOnPersistFailure(t *testing.T) {
	db := openTestDB(t)
	led := ledger.New(db)
	ctx := context.Background()

	_, err := led.CreateWallet(ctx, "main", "Pub1", "main")
	require.NoError(t, err)

	require.NoError(t, db.Migrator().DropTable(&models.PnlToken{}))

	engine := NewEngine(led, &fakeProvider{pnl: samplePnl()}, nil, zerolog.Nop())
	_, err = engine.Compute(ctx, "main")
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&models.PnlScan{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestComputePublishesEvents(t *testing.T) {
	db := openTestDB(t)
	led := ledger.New(db)
	ctx := context.Background()

	_, err := led.CreateWallet(ctx, "main", "Pub1", "main")
	require.NoError(t, err)

	bus := &recordingBus{}
	engine := NewEngine(led, &fakeProvider{pnl: samplePnl()}, bus, zerolog.Nop())

	_, err = engine.Compute(ctx, "main")
	require.NoError(t, err)

	require.Len(t, bus.published, 2)
	assert.Equal(t, events.PnlStart, bus.published[0].name)
	assert.Equal(t, events.PnlComplete, bus.published[1].name)

	completed, ok := bus.published[1].payload.(pnlCompleted)
	require.True(t, ok)
	assert.Equal(t, "Pub1", completed.PublicKey)
	assert.Equal(t, 120.5, completed.Summary.Realized)
}
