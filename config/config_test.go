package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/andrewbyteforge/dexsniper/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	return path
}

func TestLoad_DefaultsFillGaps(t *testing.T) {
	path := writeConfig(t, `
trading:
  execution_mode: simulation
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "moderate", cfg.Trading.RiskLevel)
	assert.Len(t, cfg.Trading.EnabledStrategies, 4)
	assert.Equal(t, []string{"ethereum"}, cfg.Trading.EnabledNetworks)
	assert.Equal(t, 100.0, cfg.Risk.MaxDailyLossUSD)
	assert.Equal(t, 5, cfg.Risk.MaxConcurrentPositions)
	assert.Equal(t, 15, cfg.Scheduler.ScanIntervalSeconds)
	assert.Equal(t, "dexsniper.db", cfg.Storage.DSN)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 5*time.Minute, cfg.OpportunityTTL())
	assert.Equal(t, 24*time.Hour, cfg.PositionTimeout())
}

func TestLoad_ExplicitValuesKept(t *testing.T) {
	path := writeConfig(t, `
trading:
  execution_mode: aggressive
  risk_level: extreme
  wallet_address: "0xDEAD"
  enabled_strategies: [grid, arbitrage]
  enabled_networks: [ethereum, base]
risk:
  max_daily_loss_usd: 250
  max_concurrent_positions: 3
  confidence_threshold: 0.7
execution:
  gas_price_limit_gwei: 40
  slippage_tolerance_pct: 1.5
storage:
  dsn: ":memory:"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "aggressive", cfg.Trading.ExecutionMode)
	assert.Equal(t, "0xDEAD", cfg.Trading.WalletAddress)
	assert.Equal(t, 250.0, cfg.Risk.MaxDailyLossUSD)
	assert.Equal(t, 40.0, cfg.Execution.GasPriceLimitGwei)
	assert.Equal(t, ":memory:", cfg.Storage.DSN)

	kinds, err := cfg.Strategies()
	require.NoError(t, err)
	assert.Equal(t, []domain.StrategyKind{domain.StrategyGrid, domain.StrategyArbitrage}, kinds)

	limits := cfg.RiskLimits()
	assert.Equal(t, 250.0, limits.MaxDailyLossUSD)
	assert.Equal(t, 3, limits.MaxConcurrentPositions)
	assert.Equal(t, 0.7, limits.ConfidenceThreshold)
}

func TestLoad_RejectsUnknownMode(t *testing.T) {
	path := writeConfig(t, `
trading:
  execution_mode: yolo
`)
	_, err := Load(path)

	var cfgErr *domain.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "trading.execution_mode", cfgErr.Field)
}

func TestLoad_RejectsUnknownStrategy(t *testing.T) {
	path := writeConfig(t, `
trading:
  execution_mode: simulation
  enabled_strategies: [grid, martingale]
`)
	_, err := Load(path)

	var cfgErr *domain.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "trading.enabled_strategies", cfgErr.Field)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("EXECUTION_MODE", "paperTrading")
	t.Setenv("LOG_LEVEL", "debug")

	path := writeConfig(t, `
trading:
  execution_mode: simulation
log:
  level: info
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "paperTrading", cfg.Trading.ExecutionMode)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestStrategyTuning_MapsKnobs(t *testing.T) {
	path := writeConfig(t, `
trading:
  execution_mode: simulation
strategy:
  order_size_usd: 200
  grid_levels: 12
  arb_min_price_difference: 0.02
risk:
  min_liquidity_usd: 75000
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	tuning := cfg.StrategyTuning()
	assert.Equal(t, 200.0, tuning.OrderSizeUSD)
	assert.Equal(t, 12, tuning.Grid.Levels)
	assert.Equal(t, 0.02, tuning.Arbitrage.MinPriceDifference)
	assert.Equal(t, 75000.0, tuning.MinLiquidityUSD)
}
