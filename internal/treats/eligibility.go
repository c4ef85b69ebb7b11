package treats

import (
	"math"
	"sort"
	"time"

	"github.com/sahinseyfi/TombistenFite-sub001/internal/domain"
)

// Ineligibility reasons.
const (
	ReasonCooldown             = "cooldown"
	ReasonWeeklyLimit          = "weekly_limit"
	ReasonInsufficientData     = "insufficient_data"
	ReasonInsufficientProgress = "insufficient_progress"
)

const week = 7 * 24 * time.Hour

// Eligibility is the derived answer to "may this user spin now".
type Eligibility struct {
	Eligible        bool     `json:"eligible"`
	Reason          string   `json:"reason,omitempty"`
	ETADays         *int     `json:"etaDays,omitempty"`
	ProgressDeltaKg *float64 `json:"progressDeltaKg,omitempty"`
}

// EligibilityInput is the data the evaluation reads.
type EligibilityInput struct {
	Now time.Time
	// Measurements ordered by Day descending, then CreatedAt descending.
	Measurements []domain.Measurement
	LastSpin     *domain.TreatSpin
	// RecentSpins should cover at least the trailing week; older ones are ignored.
	RecentSpins []domain.TreatSpin
}

// Evaluate applies cooldown, weekly quota, data sufficiency and trend checks
// in that order. Calendar days are taken in the location of in.Now.
func Evaluate(in EligibilityInput, th Thresholds) Eligibility {
	today := startOfDay(in.Now)

	if in.LastSpin != nil {
		elapsed := daysBetween(startOfDay(in.LastSpin.CreatedAt.In(in.Now.Location())), today)
		if elapsed < th.CooldownDays {
			return ineligible(ReasonCooldown, intPtr(th.CooldownDays-elapsed), nil)
		}
	}

	if eta, limited := weeklyQuota(in.Now, in.RecentSpins, th.WeeklyLimit); limited {
		return ineligible(ReasonWeeklyLimit, intPtr(eta), nil)
	}

	sinceDay := WindowStartDay(in.Now, th.EMAWindowDays)
	daily := DailyKg(in.Measurements, sinceDay, today.Format(domain.DayLayout))
	if len(daily) < th.MinMeasurementDays {
		return ineligible(ReasonInsufficientData, intPtr(th.MinMeasurementDays-len(daily)), nil)
	}

	smoothed := EMA(daily, th.EMAWindowDays)
	baseline := smoothed[0]
	delta := smoothed[len(smoothed)-1] - baseline
	loss := -delta
	if loss < th.MinWeightLossKg || baseline <= 0 || loss/baseline*100 < th.MinWeightLossPercent {
		return ineligible(ReasonInsufficientProgress, nil, floatPtr(delta))
	}
	return Eligibility{Eligible: true, ProgressDeltaKg: floatPtr(delta)}
}

// WindowStartDay returns the first business day of a trailing window of
// windowDays days ending today (inclusive).
func WindowStartDay(now time.Time, windowDays int) string {
	return startOfDay(now).AddDate(0, 0, -(windowDays - 1)).Format(domain.DayLayout)
}

// DailyKg reduces measurements (Day desc, CreatedAt desc) to one value per day
// within [fromDay, toDay], keeping the latest reading of each day, and returns
// the values in kilograms in chronological order.
func DailyKg(measurements []domain.Measurement, fromDay, toDay string) []float64 {
	seen := make(map[string]struct{}, len(measurements))
	out := make([]float64, 0, len(measurements))
	for _, m := range measurements {
		if m.Day < fromDay || m.Day > toDay {
			continue
		}
		if _, ok := seen[m.Day]; ok {
			continue
		}
		seen[m.Day] = struct{}{}
		out = append(out, m.Kg())
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// EMA returns the exponential moving average of chronological samples using
// alpha = 2/(window+1), seeded with the first sample.
func EMA(samples []float64, window int) []float64 {
	if len(samples) == 0 {
		return nil
	}
	alpha := 2 / (float64(window) + 1)
	out := make([]float64, len(samples))
	out[0] = samples[0]
	for i := 1; i < len(samples); i++ {
		out[i] = alpha*samples[i] + (1-alpha)*out[i-1]
	}
	return out
}

func weeklyQuota(now time.Time, spins []domain.TreatSpin, limit int) (int, bool) {
	cutoff := now.Add(-week)
	inWindow := make([]time.Time, 0, len(spins))
	for _, s := range spins {
		if s.CreatedAt.After(cutoff) {
			inWindow = append(inWindow, s.CreatedAt)
		}
	}
	if len(inWindow) < limit {
		return 0, false
	}
	sort.Slice(inWindow, func(i, j int) bool { return inWindow[i].Before(inWindow[j]) })
	// Enough spins must age out to bring the count below the limit.
	leaves := inWindow[len(inWindow)-limit].Add(week)
	eta := int(math.Ceil(leaves.Sub(now).Hours() / 24))
	if eta < 1 {
		eta = 1
	}
	return eta, true
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func daysBetween(from, to time.Time) int {
	return int(math.Round(to.Sub(from).Hours() / 24))
}

func ineligible(reason string, eta *int, delta *float64) Eligibility {
	return Eligibility{Reason: reason, ETADays: eta, ProgressDeltaKg: delta}
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }
