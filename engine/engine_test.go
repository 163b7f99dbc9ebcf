package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vaultmatch/vault-engine/config"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()

	assetsFile := filepath.Join(dir, "assets.yaml")
	assets := []byte("assets:\n  - symbol: USDT\n    initial_supply: \"1000000\"\n")
	require.NoError(t, os.WriteFile(assetsFile, assets, 0o644))

	return config.Config{
		DBPath:     filepath.Join(dir, "db"),
		AssetsFile: assetsFile,
		Operator: config.OperatorConfig{
			Identity:       "operator",
			InitialBalance: "1000000000000",
		},
		Fees: config.FeeConfig{
			ProviderFeeNum:   3,
			ProviderFeeDenom: 1000,
			MatcherFeeNum:    1,
			MatcherFeeDenom:  1000,
		},
	}
}

func startEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(testConfig(t), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, e.Start(context.Background()))
	t.Cleanup(func() { _ = e.Stop() })
	return e
}

func TestEngine_startProvisionsVaults(t *testing.T) {
	e := startEngine(t)

	vaults := e.Vaults()
	require.Len(t, vaults, 2)
	for _, v := range vaults {
		assert.True(t, v.Active)
	}

	// initial supply landed in the operator's wallet
	w, err := e.Wallet("USDT", "operator")
	require.NoError(t, err)
	assert.Equal(t, math.NewInt(1_000_000), w.Balance)
}

func TestEngine_createAndMatchOrders(t *testing.T) {
	e := startEngine(t)

	e.Faucet("alice", math.NewInt(1_000_000_000_000))
	e.Faucet("bob", math.NewInt(1_000_000_000_000))
	e.Faucet("carol", math.NewInt(1_000_000_000))
	require.NoError(t, e.MintTokens("USDT", "bob", math.NewInt(2000)))

	orderA, err := e.CreateOrder(CreateOrderParams{
		Owner:     "alice",
		FromAsset: "native",
		ToAsset:   "USDT",
		Amount:    math.NewInt(1000),
		PriceRate: math.LegacyMustNewDecFromStr("2.0"),
		Slippage:  math.LegacyMustNewDecFromStr("0.01"),
	})
	require.NoError(t, err)

	orderB, err := e.CreateOrder(CreateOrderParams{
		Owner:     "bob",
		FromAsset: "USDT",
		ToAsset:   "native",
		Amount:    math.NewInt(2000),
		PriceRate: math.LegacyMustNewDecFromStr("0.5"),
		Slippage:  math.LegacyMustNewDecFromStr("0.01"),
	})
	require.NoError(t, err)

	a, err := e.Order(orderA)
	require.NoError(t, err)
	assert.Equal(t, "open", a.Status.String())

	require.NoError(t, e.MatchOrders("carol", orderA, orderB, math.ZeroInt()))

	a, err = e.Order(orderA)
	require.NoError(t, err)
	b, err := e.Order(orderB)
	require.NoError(t, err)
	assert.Equal(t, "closed", a.Status.String())
	assert.Equal(t, "closed", b.Status.String())

	// alice ends up with bob's tokens, minus the fee cuts
	w, err := e.Wallet("USDT", "alice")
	require.NoError(t, err)
	assert.Equal(t, math.NewInt(1992), w.Balance)

	// the native vault's collector accrued the cuts on alice's side
	c, err := e.Collector(a.Vault)
	require.NoError(t, err)
	assert.Equal(t, math.NewInt(4), c.Balance)
}

func TestEngine_closeOrderRefunds(t *testing.T) {
	e := startEngine(t)
	e.Faucet("alice", math.NewInt(1_000_000_000_000))

	order, err := e.CreateOrder(CreateOrderParams{
		Owner:     "alice",
		FromAsset: "native",
		ToAsset:   "USDT",
		Amount:    math.NewInt(1000),
		PriceRate: math.LegacyMustNewDecFromStr("2.0"),
		Slippage:  math.LegacyMustNewDecFromStr("0.01"),
	})
	require.NoError(t, err)

	require.NoError(t, e.CloseOrder("alice", order))

	data, err := e.Order(order)
	require.NoError(t, err)
	assert.Equal(t, "closed", data.Status.String())
	assert.True(t, data.Remaining.IsZero())
}

func TestEngine_withdrawFees(t *testing.T) {
	e := startEngine(t)
	e.Faucet("alice", math.NewInt(1_000_000_000_000))
	e.Faucet("bob", math.NewInt(1_000_000_000_000))
	e.Faucet("carol", math.NewInt(1_000_000_000))
	require.NoError(t, e.MintTokens("USDT", "bob", math.NewInt(2000)))

	orderA, err := e.CreateOrder(CreateOrderParams{
		Owner: "alice", FromAsset: "native", ToAsset: "USDT",
		Amount:    math.NewInt(1000),
		PriceRate: math.LegacyMustNewDecFromStr("2.0"),
		Slippage:  math.LegacyMustNewDecFromStr("0.01"),
	})
	require.NoError(t, err)
	orderB, err := e.CreateOrder(CreateOrderParams{
		Owner: "bob", FromAsset: "USDT", ToAsset: "native",
		Amount:    math.NewInt(2000),
		PriceRate: math.LegacyMustNewDecFromStr("0.5"),
		Slippage:  math.LegacyMustNewDecFromStr("0.01"),
	})
	require.NoError(t, err)
	require.NoError(t, e.MatchOrders("carol", orderA, orderB, math.ZeroInt()))

	a, err := e.Order(orderA)
	require.NoError(t, err)

	c, err := e.Collector(a.Vault)
	require.NoError(t, err)
	require.Equal(t, math.NewInt(4), c.Balance)

	require.NoError(t, e.WithdrawFees(a.Vault, math.ZeroInt()))

	c, err = e.Collector(a.Vault)
	require.NoError(t, err)
	assert.True(t, c.Balance.IsZero())
}

func TestEngine_rejectsUnknownAsset(t *testing.T) {
	e := startEngine(t)
	e.Faucet("alice", math.NewInt(1_000_000_000_000))

	_, err := e.CreateOrder(CreateOrderParams{
		Owner:     "alice",
		FromAsset: "DOGE",
		ToAsset:   "native",
		Amount:    math.NewInt(1000),
		PriceRate: math.LegacyMustNewDecFromStr("1.0"),
		Slippage:  math.LegacyMustNewDecFromStr("0.01"),
	})
	assert.Error(t, err)
}
