// Package cfg loads the backtest configuration from YAML with credentials taken from the
// environment.
package cfg

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/peter-kozarec/rewind/internal/strategy"
	"github.com/peter-kozarec/rewind/pkg/simulation"
	"github.com/peter-kozarec/rewind/pkg/tools/position"
	"github.com/peter-kozarec/rewind/pkg/utility/fixed"
)

const (
	SourceSQLite    = "sqlite"
	SourceBinary    = "binary"
	SourceDuckDB    = "duckdb"
	SourceSynthetic = "synthetic"
)

type App struct {
	LogLevel string `yaml:"log_level"`
	// Listen keeps the process serving /metrics and results after the run when set.
	Listen  string   `yaml:"listen"`
	Monitor []string `yaml:"monitor"`
}

type Synthetic struct {
	Seed         int64         `yaml:"seed"`
	Price        float64       `yaml:"price"`
	Mu           float64       `yaml:"mu"`
	Sigma        float64       `yaml:"sigma"`
	Steps        int64         `yaml:"steps"`
	TickInterval time.Duration `yaml:"tick_interval"`
	Size         float64       `yaml:"size"`
}

type Source struct {
	Kind      string    `yaml:"kind"`
	Path      string    `yaml:"path"`
	Exchange  string    `yaml:"exchange"`
	Symbol    string    `yaml:"symbol"`
	From      time.Time `yaml:"from"`
	To        time.Time `yaml:"to"`
	Synthetic Synthetic `yaml:"synthetic"`
}

type Replay struct {
	Interval  time.Duration `yaml:"interval"`
	FeeRate   fixed.Point   `yaml:"fee_rate"`
	TouchFill bool          `yaml:"touch_fill"`
	// Paths above one runs that many synthetic paths with consecutive seeds.
	Paths   int `yaml:"paths"`
	Workers int `yaml:"workers"`
}

func (r Replay) Simulation() simulation.Configuration {
	return simulation.Configuration{
		FeeRate:   r.FeeRate,
		TouchFill: r.TouchFill,
	}
}

type Postgres struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"-"`
	DB       string `yaml:"db"`
}

func (p Postgres) Enabled() bool {
	return p.Host != ""
}

type Export struct {
	JSON     string   `yaml:"json"`
	SQLite   string   `yaml:"sqlite"`
	Postgres Postgres `yaml:"postgres"`
}

type Config struct {
	App      App                     `yaml:"app"`
	Source   Source                  `yaml:"source"`
	Replay   Replay                  `yaml:"replay"`
	Strategy strategy.BreakoutConfig `yaml:"strategy"`
	Policy   position.Policy         `yaml:"policy"`
	Export   Export                  `yaml:"export"`
}

func Default() *Config {
	return &Config{
		App: App{LogLevel: "info"},
		Source: Source{
			Kind: SourceSynthetic,
			Synthetic: Synthetic{
				Seed:         1,
				Price:        40000,
				Mu:           0.1,
				Sigma:        0.8,
				Steps:        200000,
				TickInterval: 2 * time.Second,
				Size:         0.05,
			},
		},
		Replay: Replay{
			Interval: 2 * time.Hour,
			FeeRate:  simulation.DefaultConfiguration().FeeRate,
			Paths:    1,
			Workers:  1,
		},
		Strategy: strategy.DefaultBreakoutConfig(),
		Policy:   position.DefaultPolicy(),
	}
}

// Load reads path over the defaults, then applies a .env file if present and the environment.
func Load(path string) (*Config, error) {
	c := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	_ = godotenv.Load()
	c.applyEnv()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyEnv() {
	override(&c.App.LogLevel, "REWIND_LOG_LEVEL")
	override(&c.App.Listen, "REWIND_LISTEN")
	override(&c.Export.Postgres.Host, "REWIND_PG_HOST")
	override(&c.Export.Postgres.Port, "REWIND_PG_PORT")
	override(&c.Export.Postgres.User, "REWIND_PG_USER")
	override(&c.Export.Postgres.Password, "REWIND_PG_PASSWORD")
	override(&c.Export.Postgres.DB, "REWIND_PG_DB")
}

func override(target *string, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}

func (c *Config) Validate() error {
	var errs []error

	switch c.Source.Kind {
	case SourceSynthetic:
		if c.Source.Synthetic.Steps <= 0 || c.Source.Synthetic.Price <= 0 {
			errs = append(errs, errors.New("synthetic source needs positive steps and price"))
		}
	case SourceSQLite, SourceBinary, SourceDuckDB:
		if c.Source.Path == "" || c.Source.Symbol == "" {
			errs = append(errs, fmt.Errorf("%s source needs path and symbol", c.Source.Kind))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown source kind %q", c.Source.Kind))
	}

	if c.Replay.Interval <= 0 {
		errs = append(errs, errors.New("replay interval must be positive"))
	}
	if c.Replay.FeeRate.IsNeg() {
		errs = append(errs, errors.New("fee rate must not be negative"))
	}
	if c.Replay.Paths > 1 && c.Source.Kind != SourceSynthetic {
		errs = append(errs, errors.New("multiple paths need a synthetic source"))
	}
	if c.Strategy.Bars < 2 {
		errs = append(errs, errors.New("strategy needs at least two bars"))
	}
	if !c.Policy.Size.IsPos() {
		errs = append(errs, errors.New("policy size must be positive"))
	}
	if c.Export.Postgres.Enabled() && c.Export.Postgres.DB == "" {
		errs = append(errs, errors.New("postgres export needs a database name"))
	}

	return errors.Join(errs...)
}
