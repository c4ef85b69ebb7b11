package treats

import (
	"errors"
	"fmt"
)

// Thresholds are the eligibility knobs. All of them are deployment
// configuration; nothing in the evaluation hardcodes them.
type Thresholds struct {
	CooldownDays         int     `yaml:"cooldownDays"`
	WeeklyLimit          int     `yaml:"weeklyLimit"`
	EMAWindowDays        int     `yaml:"emaWindowDays"`
	MinWeightLossKg      float64 `yaml:"minWeightLossKg"`
	MinWeightLossPercent float64 `yaml:"minWeightLossPercent"`
	MinMeasurementDays   int     `yaml:"minMeasurementDays"`
}

// Validate rejects thresholds the evaluation cannot work with.
func (t Thresholds) Validate() error {
	switch {
	case t.CooldownDays < 0:
		return errors.New("cooldownDays must be >= 0")
	case t.WeeklyLimit < 1:
		return errors.New("weeklyLimit must be >= 1")
	case t.EMAWindowDays < 2:
		return errors.New("emaWindowDays must be >= 2")
	case t.MinMeasurementDays < 2 || t.MinMeasurementDays > t.EMAWindowDays:
		return fmt.Errorf("minMeasurementDays must be within [2, %d]", t.EMAWindowDays)
	case t.MinWeightLossKg < 0 || t.MinWeightLossPercent < 0:
		return errors.New("minimum weight loss thresholds must be >= 0")
	}
	return nil
}

// Distribution pairs discrete outcomes with integer weights.
type Distribution[T any] struct {
	Values  []T   `yaml:"values"`
	Weights []int `yaml:"weights"`
}

// Validate reports whether the distribution can be sampled.
func (d Distribution[T]) Validate() error {
	_, err := weightTotal(len(d.Values), d.Weights)
	return err
}

// Pick samples the distribution for the given seed and scope.
func (d Distribution[T]) Pick(seed, scope string) (T, error) {
	return PickWeighted(d.Values, d.Weights, seed, scope)
}

// Config is the full treat configuration.
type Config struct {
	Thresholds   Thresholds           `yaml:"thresholds"`
	BonusMinutes Distribution[int]    `yaml:"bonusMinutes"`
	Portions     Distribution[string] `yaml:"portions"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Thresholds: Thresholds{
			CooldownDays:         4,
			WeeklyLimit:          1,
			EMAWindowDays:        14,
			MinWeightLossKg:      0.8,
			MinWeightLossPercent: 1.0,
			MinMeasurementDays:   4,
		},
		BonusMinutes: Distribution[int]{
			Values:  []int{0, 15, 20, 30, 60, 90},
			Weights: []int{25, 25, 20, 15, 10, 5},
		},
		Portions: Distribution[string]{
			Values:  []string{"small", "medium", "large"},
			Weights: []int{50, 35, 15},
		},
	}
}

// Validate checks thresholds and both distributions.
func (c Config) Validate() error {
	if err := c.Thresholds.Validate(); err != nil {
		return fmt.Errorf("thresholds: %w", err)
	}
	if err := c.BonusMinutes.Validate(); err != nil {
		return fmt.Errorf("bonusMinutes: %w", err)
	}
	for _, m := range c.BonusMinutes.Values {
		if m < 0 {
			return fmt.Errorf("bonusMinutes: negative value %d", m)
		}
	}
	if err := c.Portions.Validate(); err != nil {
		return fmt.Errorf("portions: %w", err)
	}
	return nil
}
