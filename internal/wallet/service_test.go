package wallet

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/wnt/hoard/internal/database"
	"github.com/wnt/hoard/internal/events"
	"github.com/wnt/hoard/internal/keys"
	"github.com/wnt/hoard/internal/ledger"
	"github.com/wnt/hoard/internal/models"
	"github.com/wnt/hoard/internal/pnl"
	"github.com/wnt/hoard/internal/secrets"
	"github.com/wnt/hoard/internal/services"
	"github.com/wnt/hoard/internal/sync"
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

type mapStore struct {
	entries map[string]string
}

func newMapStore() *mapStore {
	return &mapStore{entries: make(map[string]string)}
}

func (m *mapStore) Put(ref, secret string) error {
	m.entries[ref] = secret
	return nil
}

func (m *mapStore) Get(ref string) (string, error) {
	secret, ok := m.entries[ref]
	if !ok {
		return "", secrets.ErrNotFound
	}
	return secret, nil
}

type fakeHoldingsProvider struct {
	holdings *services.WalletHoldings
}

func (f *fakeHoldingsProvider) GetWalletHoldings(ctx context.Context, publicKey string) (*services.WalletHoldings, error) {
	return f.holdings, nil
}

type fakePnlProvider struct {
	pnl *services.WalletPnl
}

func (f *fakePnlProvider) GetWalletPnl(ctx context.Context, publicKey string) (*services.WalletPnl, error) {
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

type fixture struct {
	service *Service
	db      *gorm.DB
	store   *mapStore
	bus     *recordingBus
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := openTestDB(t)
	led := ledger.New(db)
	store := newMapStore()
	bus := &recordingBus{}

	syncEngine := sync.NewEngine(led, &fakeHoldingsProvider{
		holdings: &services.WalletHoldings{Tokens: []services.TokenHolding{
			{
				Token:   services.TokenMeta{Mint: "Mint1", Symbol: "ONE", Name: "Token One"},
				Balance: 100,
				Value:   20,
			},
		}},
	}, nil, zerolog.Nop())

	pnlEngine := pnl.NewEngine(led, &fakePnlProvider{
		pnl: &services.WalletPnl{
			Summary: services.PnlSummary{Realized: 50, Total: 50},
			Tokens:  map[string]services.TokenPnl{"Mint1": {Realized: 50}},
		},
	}, nil, zerolog.Nop())

	return &fixture{
		service: NewService(led, store, syncEngine, pnlEngine, bus, zerolog.Nop()),
		db:      db,
		store:   store,
		bus:     bus,
	}
}

func TestAdd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	wallet, err := f.service.Add(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, "main", wallet.Name)
	assert.NotEmpty(t, wallet.PublicKey)
	assert.Equal(t, "main", wallet.SecretRef)

	// The stored secret must derive back to the wallet's public key
	stored, err := f.store.Get("main")
	require.NoError(t, err)
	secret, err := keys.DecodeSecret(stored)
	require.NoError(t, err)
	derived, err := keys.Derive(secret)
	require.NoError(t, err)
	assert.Equal(t, wallet.PublicKey, derived)

	require.Len(t, f.bus.published, 1)
	assert.Equal(t, events.WalletAdd, f.bus.published[0].name)
}

func TestAddDuplicateName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.Add(ctx, "main")
	require.NoError(t, err)

	original, err := f.store.Get("main")
	require.NoError(t, err)

	_, err = f.service.Add(ctx, "main")
	assert.ErrorIs(t, err, ledger.ErrDuplicateName)

	// The failed add must not have touched the existing wallet's secret
	stored, err := f.store.Get("main")
	require.NoError(t, err)
	assert.Equal(t, original, stored)
}

func TestImportDuplicateName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	wallet, err := f.service.Add(ctx, "main")
	require.NoError(t, err)

	original, err := f.store.Get("main")
	require.NoError(t, err)

	_, secret, err := keys.Generate()
	require.NoError(t, err)

	_, err = f.service.Import(ctx, "main", keys.EncodeSecret(secret))
	assert.ErrorIs(t, err, ledger.ErrDuplicateName)

	// The existing wallet's secret still derives its public key
	stored, err := f.store.Get("main")
	require.NoError(t, err)
	assert.Equal(t, original, stored)

	decoded, err := keys.DecodeSecret(stored)
	require.NoError(t, err)
	derived, err := keys.Derive(decoded)
	require.NoError(t, err)
	assert.Equal(t, wallet.PublicKey, derived)
}

func TestImport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	expectedPub, secret, err := keys.Generate()
	require.NoError(t, err)

	wallet, err := f.service.Import(ctx, "imported", keys.EncodeSecret(secret))
	require.NoError(t, err)
	assert.Equal(t, expectedPub, wallet.PublicKey)

	stored, err := f.store.Get("imported")
	require.NoError(t, err)
	assert.Equal(t, keys.EncodeSecret(secret), stored)
}

func TestImportRejectsGarbage(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Import(context.Background(), "bad", "not a key at all !!!")
	require.Error(t, err)

	// Nothing may be persisted for a failed import
	_, err = f.store.Get("bad")
	assert.ErrorIs(t, err, secrets.ErrNotFound)

	wallets, err := f.service.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, wallets)
}

func TestList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.Add(ctx, "first")
	require.NoError(t, err)
	_, err = f.service.Add(ctx, "second")
	require.NoError(t, err)

	wallets, err := f.service.List(ctx)
	require.NoError(t, err)
	assert.Len(t, wallets, 2)
}

func TestScanAndResync(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	wallet, err := f.service.Add(ctx, "main")
	require.NoError(t, err)

	summaries, err := f.service.Scan(ctx, wallet.PublicKey)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "Mint1", summaries[0].Mint)

	// Resync addresses the same wallet by name
	summaries, err = f.service.Resync(ctx, "main")
	require.NoError(t, err)
	require.Len(t, summaries, 1)

	_, err = f.service.Resync(ctx, "missing")
	assert.ErrorIs(t, err, ledger.ErrWalletNotFound)
}

func TestPnl(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.Add(ctx, "main")
	require.NoError(t, err)

	report, err := f.service.Pnl(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, 50.0, report.Summary.Realized)

	var count int64
	require.NoError(t, f.db.Model(&models.PnlScan{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestPrivateKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	wallet, err := f.service.Add(ctx, "main")
	require.NoError(t, err)

	secret, err := f.service.PrivateKey(ctx, wallet.PublicKey)
	require.NoError(t, err)
	assert.NotEmpty(t, secret)

	_, err = f.service.PrivateKey(ctx, "missingKey")
	assert.ErrorIs(t, err, ledger.ErrWalletNotFound)
}
