// Package config loads startup configuration for the salesforecast and eda
// commands.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/sartorproj/salesforecast/arima"
	"github.com/sartorproj/salesforecast/seasonal"
)

// DefaultPath is read when CONFIG_PATH is unset.
const DefaultPath = "salesforecast.yaml"

// envPrefix namespaces every environment override.
const envPrefix = "SALESFORECAST_"

// Config is the startup configuration shared by the salesforecast and eda
// commands.
type Config struct {
	SalesPath      string `yaml:"sales_path"`
	DateColumn     string `yaml:"date_column"`
	QuantityColumn string `yaml:"quantity_column"`
	DateFormat     string `yaml:"date_format"`

	OutputDir  string  `yaml:"output_dir"`
	TrainRatio float64 `yaml:"train_ratio"`

	ARIMA    arima.Order     `yaml:"arima"`
	Seasonal seasonal.Config `yaml:"seasonal"`
	// ARIMADrift adds a constant to ARIMA models with d > 0.
	ARIMADrift bool `yaml:"arima_drift"`

	// SuppressWarnings drops model warnings instead of logging them.
	SuppressWarnings bool   `yaml:"suppress_warnings"`
	LogLevel         string `yaml:"log_level"`
	LogFormat        string `yaml:"log_format"` // console or json

	Plot PlotConfig `yaml:"plot"`

	// Datasets are summarized by the eda command.
	Datasets []Dataset `yaml:"datasets"`
}

// PlotConfig sizes the PNG figures, in inches.
type PlotConfig struct {
	WidthInches       float64 `yaml:"width_in"`
	HeightInches      float64 `yaml:"height_in"`
	PanelHeightInches float64 `yaml:"panel_height_in"`
	Grid              bool    `yaml:"grid"`
}

// Dataset is a named CSV extract summarized by the eda command.
type Dataset struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() Config {
	return Config{
		SalesPath:        "datasets/SalesFINAL12312016.csv",
		DateColumn:       "SalesDate",
		QuantityColumn:   "SalesQuantity",
		OutputDir:        "results",
		TrainRatio:       0.8,
		ARIMA:            arima.DefaultOrder,
		Seasonal:         seasonal.DefaultConfig(),
		SuppressWarnings: true,
		LogLevel:         "info",
		LogFormat:        "console",
		Plot: PlotConfig{
			WidthInches:       12,
			HeightInches:      6,
			PanelHeightInches: 3,
			Grid:              true,
		},
		Datasets: []Dataset{
			{Name: "Sales", Path: "datasets/SalesFINAL12312016.csv"},
			{Name: "Purchases", Path: "datasets/PurchasesFINAL12312016.csv"},
			{Name: "Beginning Inventory", Path: "datasets/BegInvFINAL12312016.csv"},
			{Name: "Ending Inventory", Path: "datasets/EndInvFINAL12312016.csv"},
			{Name: "Invoice Purchases", Path: "datasets/InvoicePurchases12312016.csv"},
			{Name: "Purchase Prices", Path: "datasets/2017PurchasePricesDec.csv"},
		},
	}
}

// Load reads an optional .env file, then CONFIG_PATH (or DefaultPath) if it
// exists, then applies SALESFORECAST_* environment overrides and validates
// the result.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	path := DefaultPath
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		path = envPath
	}
	return LoadFile(path)
}

// LoadFile is Load without the .env step. A missing file yields defaults.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	envOverride(&cfg.SalesPath, "SALES_PATH")
	envOverride(&cfg.DateColumn, "DATE_COLUMN")
	envOverride(&cfg.QuantityColumn, "QUANTITY_COLUMN")
	envOverride(&cfg.DateFormat, "DATE_FORMAT")
	envOverride(&cfg.OutputDir, "OUTPUT_DIR")
	envOverride(&cfg.LogLevel, "LOG_LEVEL")
	envOverride(&cfg.LogFormat, "LOG_FORMAT")

	var mode string
	envOverride(&mode, "SEASONALITY_MODE")
	if mode != "" {
		cfg.Seasonal.Mode = seasonal.Mode(strings.ToLower(mode))
	}

	if err := envOverrideFloat(&cfg.TrainRatio, "TRAIN_RATIO"); err != nil {
		return err
	}
	if err := envOverrideBool(&cfg.SuppressWarnings, "SUPPRESS_WARNINGS"); err != nil {
		return err
	}
	if err := envOverrideBool(&cfg.ARIMADrift, "ARIMA_DRIFT"); err != nil {
		return err
	}
	if val := os.Getenv(envPrefix + "ARIMA_ORDER"); val != "" {
		order, err := ParseOrder(val)
		if err != nil {
			return fmt.Errorf("%sARIMA_ORDER: %w", envPrefix, err)
		}
		cfg.ARIMA = order
	}
	return nil
}

// ParseOrder parses "p,d,q", optionally wrapped in parentheses.
func ParseOrder(s string) (arima.Order, error) {
	s = strings.Trim(strings.TrimSpace(s), "()")
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return arima.Order{}, fmt.Errorf("order %q must have three comma-separated terms", s)
	}
	var terms [3]int
	for i, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return arima.Order{}, fmt.Errorf("order %q: %w", s, err)
		}
		terms[i] = v
	}
	return arima.Order{P: terms[0], D: terms[1], Q: terms[2]}, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.SalesPath == "" {
		return errors.New("sales_path is required")
	}
	if c.DateColumn == "" || c.QuantityColumn == "" {
		return errors.New("date_column and quantity_column are required")
	}
	if c.OutputDir == "" {
		return errors.New("output_dir is required")
	}
	if c.TrainRatio <= 0 || c.TrainRatio >= 1 {
		return fmt.Errorf("train_ratio must be in (0, 1), got %g", c.TrainRatio)
	}
	if c.ARIMA.P < 0 || c.ARIMA.D < 0 || c.ARIMA.Q < 0 {
		return fmt.Errorf("arima order %s must be non-negative", c.ARIMA)
	}
	if err := c.Seasonal.Validate(); err != nil {
		return fmt.Errorf("seasonal: %w", err)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("log_format must be 'console' or 'json', got %q", c.LogFormat)
	}
	if c.Plot.WidthInches <= 0 || c.Plot.HeightInches <= 0 || c.Plot.PanelHeightInches <= 0 {
		return errors.New("plot dimensions must be positive")
	}
	return nil
}

func envOverride(field *string, key string) {
	if val := os.Getenv(envPrefix + key); val != "" {
		*field = val
	}
}

func envOverrideFloat(field *float64, key string) error {
	val := os.Getenv(envPrefix + key)
	if val == "" {
		return nil
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fmt.Errorf("%s%s: %w", envPrefix, key, err)
	}
	*field = parsed
	return nil
}

func envOverrideBool(field *bool, key string) error {
	val := os.Getenv(envPrefix + key)
	if val == "" {
		return nil
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fmt.Errorf("%s%s: %w", envPrefix, key, err)
	}
	*field = parsed
	return nil
}
