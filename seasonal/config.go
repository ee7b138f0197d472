package seasonal

import (
	"fmt"
)

// Mode selects how seasonal components combine with the trend.
type Mode string

const (
	// Additive: yhat = trend + seasonal.
	Additive Mode = "additive"
	// Multiplicative: yhat = trend * (1 + seasonal).
	Multiplicative Mode = "multiplicative"
)

// ParseMode validates a seasonality mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case Additive, Multiplicative:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown seasonality mode %q (want %q or %q)", s, Additive, Multiplicative)
}

// Config holds model settings.
type Config struct {
	Mode Mode `yaml:"mode"`

	YearlySeasonality bool `yaml:"yearly_seasonality"`
	WeeklySeasonality bool `yaml:"weekly_seasonality"`
	DailySeasonality  bool `yaml:"daily_seasonality"`

	// Fourier orders per seasonality.
	YearlyOrder int `yaml:"yearly_order"`
	WeeklyOrder int `yaml:"weekly_order"`
	DailyOrder  int `yaml:"daily_order"`

	// Trend changepoints are spread evenly over the first ChangepointRange
	// fraction of the history.
	Changepoints     int     `yaml:"changepoints"`
	ChangepointRange float64 `yaml:"changepoint_range"`

	// Prior scales; smaller values regularize harder.
	ChangepointPriorScale float64 `yaml:"changepoint_prior_scale"`
	SeasonalityPriorScale float64 `yaml:"seasonality_prior_scale"`
}

// DefaultConfig returns a multiplicative model with yearly, weekly and daily
// seasonality enabled.
func DefaultConfig() Config {
	return Config{
		Mode:                  Multiplicative,
		YearlySeasonality:     true,
		WeeklySeasonality:     true,
		DailySeasonality:      true,
		YearlyOrder:           10,
		WeeklyOrder:           3,
		DailyOrder:            4,
		Changepoints:          25,
		ChangepointRange:      0.8,
		ChangepointPriorScale: 0.05,
		SeasonalityPriorScale: 10,
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if _, err := ParseMode(string(c.Mode)); err != nil {
		return err
	}
	if c.YearlyOrder < 0 || c.WeeklyOrder < 0 || c.DailyOrder < 0 {
		return fmt.Errorf("fourier orders must be non-negative")
	}
	if c.Changepoints < 0 {
		return fmt.Errorf("changepoints must be non-negative, got %d", c.Changepoints)
	}
	if c.ChangepointRange <= 0 || c.ChangepointRange > 1 {
		return fmt.Errorf("changepoint range must be in (0, 1], got %g", c.ChangepointRange)
	}
	if c.ChangepointPriorScale <= 0 || c.SeasonalityPriorScale <= 0 {
		return fmt.Errorf("prior scales must be positive")
	}
	return nil
}

// seasonality is one Fourier block.
type seasonality struct {
	name   string
	period float64 // in days
	order  int
}

// Component names, in plotting order.
const (
	ComponentYearly = "yearly"
	ComponentWeekly = "weekly"
	ComponentDaily  = "daily"
)

func (c Config) seasonalities() []seasonality {
	var out []seasonality
	if c.YearlySeasonality && c.YearlyOrder > 0 {
		out = append(out, seasonality{name: ComponentYearly, period: 365.25, order: c.YearlyOrder})
	}
	if c.WeeklySeasonality && c.WeeklyOrder > 0 {
		out = append(out, seasonality{name: ComponentWeekly, period: 7, order: c.WeeklyOrder})
	}
	if c.DailySeasonality && c.DailyOrder > 0 {
		out = append(out, seasonality{name: ComponentDaily, period: 1, order: c.DailyOrder})
	}
	return out
}
