package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/andrewbyteforge/dexsniper/internal/domain"
	"github.com/andrewbyteforge/dexsniper/internal/strategy"
)

// Config is the full engine configuration.
type Config struct {
	Trading   TradingConfig   `yaml:"trading"`
	Risk      RiskConfig      `yaml:"risk"`
	Strategy  StrategyConfig  `yaml:"strategy"`
	Execution ExecutionConfig `yaml:"execution"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Sim       SimConfig       `yaml:"sim"`
	Storage   StorageConfig   `yaml:"storage"`
	Log       LogConfig       `yaml:"log"`
}

// TradingConfig binds the session: mode, appetite, wallet, universe.
type TradingConfig struct {
	ExecutionMode     string   `yaml:"execution_mode"` // simulation | paperTrading | cautious | aggressive | liveTrading
	RiskLevel         string   `yaml:"risk_level"`     // conservative | moderate | aggressive | extreme
	WalletAddress     string   `yaml:"wallet_address"`
	PortfolioValueUSD float64  `yaml:"portfolio_value_usd"`
	EnabledStrategies []string `yaml:"enabled_strategies"`
	EnabledNetworks   []string `yaml:"enabled_networks"`
}

// RiskConfig maps onto domain.RiskLimits.
type RiskConfig struct {
	MaxPortfolioAllocationPct float64 `yaml:"max_portfolio_allocation_pct"`
	MaxPositionSizeUSD        float64 `yaml:"max_position_size_usd"`
	MaxDailyLossUSD           float64 `yaml:"max_daily_loss_usd"`
	MaxConcurrentPositions    int     `yaml:"max_concurrent_positions"`
	MaxDrawdownPct            float64 `yaml:"max_drawdown_pct"`
	MaxConcentrationPct       float64 `yaml:"max_concentration_pct"`
	MinLiquidityUSD           float64 `yaml:"min_liquidity_usd"`
	MaxVolatilityPct          float64 `yaml:"max_volatility_pct"`
	ConfidenceThreshold       float64 `yaml:"confidence_threshold"`
}

// StrategyConfig tunes the evaluators.
type StrategyConfig struct {
	OrderSizeUSD         float64 `yaml:"order_size_usd"`
	ProfitTakingPct      float64 `yaml:"profit_taking_pct"`
	StopLossPct          float64 `yaml:"stop_loss_pct"`
	PositionTimeoutHours float64 `yaml:"position_timeout_hours"`
	OpportunityTTLSec    int     `yaml:"opportunity_ttl_seconds"`

	GridLevels           int     `yaml:"grid_levels"`
	GridSpacingPct       float64 `yaml:"grid_spacing_pct"` // fraction, 0.02 = 2%
	ArbMinPriceDiff      float64 `yaml:"arb_min_price_difference"`
	ArbGasThresholdUSD   float64 `yaml:"arb_gas_threshold_usd"`
	MomentumSurge        float64 `yaml:"momentum_volume_surge"`
	MomentumMinScore     float64 `yaml:"momentum_min_score"`
	MeanRevBandWidth     float64 `yaml:"meanrev_band_width"`
	MeanRevMinScore      float64 `yaml:"meanrev_min_score"`
}

// ExecutionConfig tunes the coordinator's swap path.
type ExecutionConfig struct {
	GasPriceLimitGwei    float64 `yaml:"gas_price_limit_gwei"`
	SlippageTolerancePct float64 `yaml:"slippage_tolerance_pct"`
	CallTimeoutSeconds   int     `yaml:"call_timeout_seconds"`
	StableToken          string  `yaml:"stable_token"`
}

// SchedulerConfig sets the loop cadences.
type SchedulerConfig struct {
	ScanIntervalSeconds     int `yaml:"scan_interval_seconds"`
	PositionIntervalSeconds int `yaml:"position_interval_seconds"`
	RiskIntervalSeconds     int `yaml:"risk_interval_seconds"`
	OptimizeIntervalSeconds int `yaml:"optimize_interval_seconds"`
	Workers                 int `yaml:"workers"`
}

// SimConfig tunes the simulated market and wallet (simulation/paper modes).
type SimConfig struct {
	MarketSeed         int64   `yaml:"market_seed"`
	StartingBalanceUSD float64 `yaml:"starting_balance_usd"`
}

// StorageConfig controls where trades are persisted.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // SQLite file path, or ":memory:"
}

// LogConfig controls logging output.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load reads the YAML file and the .env file if present. Env values override
// YAML for the keys they cover; defaults fill what is left.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations a session could not start with.
func (c *Config) Validate() error {
	if !domain.ExecutionMode(c.Trading.ExecutionMode).Valid() {
		return &domain.ConfigurationError{Field: "trading.execution_mode", Message: fmt.Sprintf("unknown mode %q", c.Trading.ExecutionMode)}
	}
	if !domain.RiskLevel(c.Trading.RiskLevel).Valid() {
		return &domain.ConfigurationError{Field: "trading.risk_level", Message: fmt.Sprintf("unknown level %q", c.Trading.RiskLevel)}
	}
	if _, err := c.Strategies(); err != nil {
		return err
	}
	if len(c.Trading.EnabledNetworks) == 0 {
		return &domain.ConfigurationError{Field: "trading.enabled_networks", Message: "at least one network required"}
	}
	if c.Risk.MaxDailyLossUSD <= 0 {
		return &domain.ConfigurationError{Field: "risk.max_daily_loss_usd", Message: "must be positive"}
	}
	if c.Risk.MaxConcurrentPositions <= 0 {
		return &domain.ConfigurationError{Field: "risk.max_concurrent_positions", Message: "must be positive"}
	}
	if c.Risk.ConfidenceThreshold < 0 || c.Risk.ConfidenceThreshold > 1 {
		return &domain.ConfigurationError{Field: "risk.confidence_threshold", Message: "must be in [0, 1]"}
	}
	if c.Execution.SlippageTolerancePct < 0 || c.Execution.SlippageTolerancePct > 50 {
		return &domain.ConfigurationError{Field: "execution.slippage_tolerance_pct", Message: "must be in [0, 50]"}
	}
	return nil
}

// Strategies parses the enabled strategy names into domain kinds.
func (c *Config) Strategies() ([]domain.StrategyKind, error) {
	kinds := make([]domain.StrategyKind, 0, len(c.Trading.EnabledStrategies))
	for _, name := range c.Trading.EnabledStrategies {
		k := domain.StrategyKind(name)
		if !k.Valid() {
			return nil, &domain.ConfigurationError{Field: "trading.enabled_strategies", Message: fmt.Sprintf("unknown strategy %q", name)}
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// RiskLimits builds the immutable per-session limit set.
func (c *Config) RiskLimits() domain.RiskLimits {
	return domain.RiskLimits{
		MaxPositionSizePct:     c.Risk.MaxPortfolioAllocationPct,
		MaxSingleTradeUSD:      c.Risk.MaxPositionSizeUSD,
		MaxDailyLossUSD:        c.Risk.MaxDailyLossUSD,
		MaxDrawdownPct:         c.Risk.MaxDrawdownPct,
		MaxConcentrationPct:    c.Risk.MaxConcentrationPct,
		MinLiquidityUSD:        c.Risk.MinLiquidityUSD,
		MaxVolatilityPct:       c.Risk.MaxVolatilityPct,
		ConfidenceThreshold:    c.Risk.ConfidenceThreshold,
		MaxConcurrentPositions: c.Risk.MaxConcurrentPositions,
	}
}

// StrategyTuning builds the evaluator configuration.
func (c *Config) StrategyTuning() strategy.Config {
	def := strategy.DefaultConfig()
	return strategy.Config{
		MinLiquidityUSD:     c.Risk.MinLiquidityUSD,
		ConfidenceThreshold: c.Risk.ConfidenceThreshold,
		OrderSizeUSD:        c.Strategy.OrderSizeUSD,
		TakeProfitPct:       c.Strategy.ProfitTakingPct,
		StopLossPct:         c.Strategy.StopLossPct,
		OpportunityTTL:      c.OpportunityTTL(),
		Grid: strategy.GridConfig{
			Levels:        c.Strategy.GridLevels,
			SpacingPct:    c.Strategy.GridSpacingPct,
			DampingFactor: def.Grid.DampingFactor,
			MaxProfitPct:  def.Grid.MaxProfitPct,
		},
		Arbitrage: strategy.ArbitrageConfig{
			MinPriceDifference:  c.Strategy.ArbMinPriceDiff,
			GasCostThresholdUSD: c.Strategy.ArbGasThresholdUSD,
			MinNetProfitPct:     def.Arbitrage.MinNetProfitPct,
		},
		Momentum: strategy.MomentumConfig{
			VolumeSurgeThreshold: c.Strategy.MomentumSurge,
			MinScore:             c.Strategy.MomentumMinScore,
		},
		MeanReversion: strategy.MeanReversionConfig{
			BandWidth: c.Strategy.MeanRevBandWidth,
			MinScore:  c.Strategy.MeanRevMinScore,
		},
	}
}

// PositionTimeout returns the max position age as a duration.
func (c *Config) PositionTimeout() time.Duration {
	return time.Duration(c.Strategy.PositionTimeoutHours * float64(time.Hour))
}

// OpportunityTTL returns the opportunity lifetime as a duration.
func (c *Config) OpportunityTTL() time.Duration {
	return time.Duration(c.Strategy.OpportunityTTLSec) * time.Second
}

// CallTimeout returns the per-call quote/swap deadline.
func (c *Config) CallTimeout() time.Duration {
	return time.Duration(c.Execution.CallTimeoutSeconds) * time.Second
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("EXECUTION_MODE"); v != "" {
		cfg.Trading.ExecutionMode = v
	}
	if v := os.Getenv("WALLET_ADDRESS"); v != "" {
		cfg.Trading.WalletAddress = v
	}
	if v := os.Getenv("STORAGE_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("MARKET_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Sim.MarketSeed = n
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

func setDefaults(cfg *Config) {
	if cfg.Trading.ExecutionMode == "" {
		cfg.Trading.ExecutionMode = string(domain.ModeSimulation)
	}
	if cfg.Trading.RiskLevel == "" {
		cfg.Trading.RiskLevel = string(domain.RiskModerate)
	}
	if cfg.Trading.WalletAddress == "" {
		cfg.Trading.WalletAddress = "0xSIM"
	}
	if cfg.Trading.PortfolioValueUSD <= 0 {
		cfg.Trading.PortfolioValueUSD = 10_000
	}
	if len(cfg.Trading.EnabledStrategies) == 0 {
		cfg.Trading.EnabledStrategies = []string{
			string(domain.StrategyGrid), string(domain.StrategyArbitrage),
			string(domain.StrategyMomentum), string(domain.StrategyMeanReversion),
		}
	}
	if len(cfg.Trading.EnabledNetworks) == 0 {
		cfg.Trading.EnabledNetworks = []string{"ethereum"}
	}

	if cfg.Risk.MaxPortfolioAllocationPct <= 0 {
		cfg.Risk.MaxPortfolioAllocationPct = 10
	}
	if cfg.Risk.MaxPositionSizeUSD <= 0 {
		cfg.Risk.MaxPositionSizeUSD = 500
	}
	if cfg.Risk.MaxDailyLossUSD <= 0 {
		cfg.Risk.MaxDailyLossUSD = 100
	}
	if cfg.Risk.MaxConcurrentPositions <= 0 {
		cfg.Risk.MaxConcurrentPositions = 5
	}
	if cfg.Risk.MaxDrawdownPct <= 0 {
		cfg.Risk.MaxDrawdownPct = 20
	}
	if cfg.Risk.MaxConcentrationPct <= 0 {
		cfg.Risk.MaxConcentrationPct = 40
	}
	if cfg.Risk.MinLiquidityUSD <= 0 {
		cfg.Risk.MinLiquidityUSD = 50_000
	}
	if cfg.Risk.MaxVolatilityPct <= 0 {
		cfg.Risk.MaxVolatilityPct = 30
	}
	if cfg.Risk.ConfidenceThreshold <= 0 {
		cfg.Risk.ConfidenceThreshold = 0.5
	}

	if cfg.Strategy.OrderSizeUSD <= 0 {
		cfg.Strategy.OrderSizeUSD = 100
	}
	if cfg.Strategy.ProfitTakingPct <= 0 {
		cfg.Strategy.ProfitTakingPct = 10
	}
	if cfg.Strategy.StopLossPct <= 0 {
		cfg.Strategy.StopLossPct = 5
	}
	if cfg.Strategy.PositionTimeoutHours <= 0 {
		cfg.Strategy.PositionTimeoutHours = 24
	}
	if cfg.Strategy.OpportunityTTLSec <= 0 {
		cfg.Strategy.OpportunityTTLSec = 300
	}
	if cfg.Strategy.GridLevels <= 0 {
		cfg.Strategy.GridLevels = 10
	}
	if cfg.Strategy.GridSpacingPct <= 0 {
		cfg.Strategy.GridSpacingPct = 0.02
	}
	if cfg.Strategy.ArbMinPriceDiff <= 0 {
		cfg.Strategy.ArbMinPriceDiff = 0.015
	}
	if cfg.Strategy.ArbGasThresholdUSD <= 0 {
		cfg.Strategy.ArbGasThresholdUSD = 15
	}
	if cfg.Strategy.MomentumSurge <= 0 {
		cfg.Strategy.MomentumSurge = 2.0
	}
	if cfg.Strategy.MomentumMinScore <= 0 {
		cfg.Strategy.MomentumMinScore = 40
	}
	if cfg.Strategy.MeanRevBandWidth <= 0 {
		cfg.Strategy.MeanRevBandWidth = 2.0
	}
	if cfg.Strategy.MeanRevMinScore <= 0 {
		cfg.Strategy.MeanRevMinScore = 50
	}

	if cfg.Execution.GasPriceLimitGwei <= 0 {
		cfg.Execution.GasPriceLimitGwei = 100
	}
	if cfg.Execution.SlippageTolerancePct <= 0 {
		cfg.Execution.SlippageTolerancePct = 0.5
	}
	if cfg.Execution.CallTimeoutSeconds <= 0 {
		cfg.Execution.CallTimeoutSeconds = 10
	}
	if cfg.Execution.StableToken == "" {
		cfg.Execution.StableToken = "USDC"
	}

	if cfg.Scheduler.ScanIntervalSeconds <= 0 {
		cfg.Scheduler.ScanIntervalSeconds = 15
	}
	if cfg.Scheduler.PositionIntervalSeconds <= 0 {
		cfg.Scheduler.PositionIntervalSeconds = 15
	}
	if cfg.Scheduler.RiskIntervalSeconds <= 0 {
		cfg.Scheduler.RiskIntervalSeconds = 60
	}
	if cfg.Scheduler.OptimizeIntervalSeconds <= 0 {
		cfg.Scheduler.OptimizeIntervalSeconds = 3600
	}
	if cfg.Sim.MarketSeed == 0 {
		cfg.Sim.MarketSeed = 1
	}
	if cfg.Sim.StartingBalanceUSD <= 0 {
		cfg.Sim.StartingBalanceUSD = 10_000
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "dexsniper.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
