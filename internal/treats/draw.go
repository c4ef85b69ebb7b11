package treats

import "fmt"

// Outcome is everything a single spin decides.
type Outcome struct {
	Seed         string `json:"seed"`
	ItemIndex    int    `json:"itemIndex"`
	Portion      string `json:"portion"`
	BonusMinutes int    `json:"bonusMinutes"`
}

// Draw derives the spin outcome for itemCount candidate items. The same seed,
// item count and configuration always produce the same Outcome.
func Draw(itemCount int, cfg Config, seed string) (Outcome, error) {
	idx, err := PickIndex(itemCount, seed, ScopeTreatItem)
	if err != nil {
		return Outcome{}, fmt.Errorf("treat item: %w", err)
	}
	portion, err := cfg.Portions.Pick(seed, ScopePortion)
	if err != nil {
		return Outcome{}, fmt.Errorf("portion: %w", err)
	}
	bonus, err := cfg.BonusMinutes.Pick(seed, ScopeBonusMinutes)
	if err != nil {
		return Outcome{}, fmt.Errorf("bonus minutes: %w", err)
	}
	return Outcome{Seed: seed, ItemIndex: idx, Portion: portion, BonusMinutes: bonus}, nil
}
