package ops

import (
	"encoding/json"
	"os"

	"github.com/yanun0323/errors"

	"main/internal/schema"
)

var (
	ErrInvalidPositionLimit = errors.New("maxPositionPerSymbol must be positive")
	ErrInvalidDrawdown      = errors.New("maxDrawdown must be strictly negative")
)

// Default endpoints. An empty string in the config disables the
// corresponding thread.
const (
	DefaultMarketDataEndpoint = "tcp://127.0.0.1:5555"
	DefaultCommandEndpoint    = "tcp://127.0.0.1:5556"
	DefaultTelemetryEndpoint  = "tcp://127.0.0.1:5557"
)

// FileConfig mirrors the JSON config layout.
type FileConfig struct {
	Endpoints EndpointsConfig `json:"endpoints"`
	Risk      RiskConfig      `json:"risk"`
	Strategy  StrategyConfig  `json:"strategy"`
	Clock     ClockConfig     `json:"clock"`
	Profiling ProfilingConfig `json:"profiling"`
	Reconcile ReconcileConfig `json:"reconcile"`
}

// EndpointsConfig defines the three transport endpoints. Pointers
// distinguish "absent, use the default" from "empty, disable".
type EndpointsConfig struct {
	MarketData *string `json:"marketData"`
	Command    *string `json:"command"`
	Telemetry  *string `json:"telemetry"`
}

// RiskConfig defines the static risk limits.
type RiskConfig struct {
	MaxPositionPerSymbol float64 `json:"maxPositionPerSymbol"`
	MaxDrawdown          float64 `json:"maxDrawdown"`
}

// StrategyConfig describes the built-in threshold strategy.
type StrategyConfig struct {
	ID        string  `json:"id"`
	Threshold float64 `json:"threshold"`
}

// ClockConfig seeds the simulation clock.
type ClockConfig struct {
	StartMillis int64 `json:"startMillis"`
}

// ProfilingConfig enables continuous profiling in the entry program.
type ProfilingConfig struct {
	Enable        bool   `json:"enable"`
	ServerAddress string `json:"serverAddress"`
}

// ReconcileConfig selects the warm-up reconciler. An empty DSN skips
// reconciliation.
type ReconcileConfig struct {
	PostgresDSN string `json:"postgresDsn"`
}

// Loaded is the resolved configuration ready for use.
type Loaded struct {
	MarketDataEndpoint string
	CommandEndpoint    string
	TelemetryEndpoint  string
	Limits             schema.RiskLimits
	Strategy           StrategyConfig
	ClockStartMillis   int64
	Profiling          ProfilingConfig
	PostgresDSN        string
}

// Default returns the configuration used when no file is given.
func Default() Loaded {
	return Loaded{
		MarketDataEndpoint: DefaultMarketDataEndpoint,
		CommandEndpoint:    DefaultCommandEndpoint,
		TelemetryEndpoint:  DefaultTelemetryEndpoint,
		Limits: schema.RiskLimits{
			MaxPositionPerSymbol: 1000,
			MaxDrawdown:          -500,
		},
		Strategy: StrategyConfig{ID: "threshold", Threshold: 0},
	}
}

// Load reads a JSON config file and resolves it against the defaults.
// An empty path returns the defaults unchanged.
func Load(path string) (Loaded, error) {
	loaded := Default()
	if path == "" {
		return loaded, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Loaded{}, errors.Wrap(err, "read config").With("path", path)
	}
	var cfg FileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Loaded{}, errors.Wrap(err, "parse config").With("path", path)
	}

	if cfg.Endpoints.MarketData != nil {
		loaded.MarketDataEndpoint = *cfg.Endpoints.MarketData
	}
	if cfg.Endpoints.Command != nil {
		loaded.CommandEndpoint = *cfg.Endpoints.Command
	}
	if cfg.Endpoints.Telemetry != nil {
		loaded.TelemetryEndpoint = *cfg.Endpoints.Telemetry
	}
	if cfg.Risk.MaxPositionPerSymbol != 0 || cfg.Risk.MaxDrawdown != 0 {
		loaded.Limits = schema.RiskLimits{
			MaxPositionPerSymbol: cfg.Risk.MaxPositionPerSymbol,
			MaxDrawdown:          cfg.Risk.MaxDrawdown,
		}
	}
	if cfg.Strategy.ID != "" {
		loaded.Strategy.ID = cfg.Strategy.ID
	}
	loaded.Strategy.Threshold = cfg.Strategy.Threshold
	loaded.ClockStartMillis = cfg.Clock.StartMillis
	loaded.Profiling = cfg.Profiling
	loaded.PostgresDSN = cfg.Reconcile.PostgresDSN

	if loaded.Limits.MaxPositionPerSymbol <= 0 {
		return Loaded{}, ErrInvalidPositionLimit
	}
	if loaded.Limits.MaxDrawdown >= 0 {
		return Loaded{}, ErrInvalidDrawdown
	}
	return loaded, nil
}
