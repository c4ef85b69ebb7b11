// Package treats implements the treat-spin reward rules: the seeded weighted
// selector that decides what a spin yields and the eligibility evaluation that
// decides whether a spin is allowed at all.
package treats

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/sahinseyfi/TombistenFite-sub001/internal/domain"
)

// Scope labels give each decision of a spin its own stream from one seed.
const (
	ScopeTreatItem    = "treat-item"
	ScopePortion      = "portion"
	ScopeBonusMinutes = "bonus-minutes"
)

const (
	fractionHexWidth = 8
	fractionMax      = float64(math.MaxUint32)
)

// Fraction derives a reproducible value in [0,1] from seed and scope. Only the
// top of the range (a digest prefix of ffffffff) reaches 1; callers clamp.
func Fraction(seed, scope string) float64 {
	sum := sha256.Sum256([]byte(seed + ":" + scope))
	digest := hex.EncodeToString(sum[:])
	f, ok := fractionFromHex(digest[:fractionHexWidth])
	if !ok {
		slog.Warn("treats: unparseable digest prefix, falling back to math/rand", "scope", scope)
		return rand.Float64()
	}
	return f
}

func fractionFromHex(prefix string) (float64, bool) {
	n, err := strconv.ParseUint(prefix, 16, 32)
	if err != nil {
		return 0, false
	}
	f := float64(n) / fractionMax
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// PickIndex returns an index in [0, length) chosen by the (seed, scope) fraction.
func PickIndex(length int, seed, scope string) (int, error) {
	if length <= 0 {
		return 0, fmt.Errorf("%w: pick index over %d candidates", domain.ErrInvalidArgument, length)
	}
	return pickIndexAt(length, Fraction(seed, scope)), nil
}

func pickIndexAt(length int, f float64) int {
	idx := int(math.Floor(f * float64(length)))
	if idx >= length {
		idx = length - 1
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}

// PickWeighted samples one of values according to weights using the (seed,
// scope) fraction as the inverse-CDF input.
func PickWeighted[T any](values []T, weights []int, seed, scope string) (T, error) {
	var zero T
	total, err := weightTotal(len(values), weights)
	if err != nil {
		return zero, err
	}
	return pickWeightedAt(values, weights, total, Fraction(seed, scope)), nil
}

func pickWeightedAt[T any](values []T, weights []int, total int, f float64) T {
	target := f * float64(total)
	cumulative := 0
	for i, w := range weights {
		cumulative += w
		if float64(cumulative) >= target {
			return values[i]
		}
	}
	return values[len(values)-1]
}

func weightTotal(n int, weights []int) (int, error) {
	if n == 0 {
		return 0, fmt.Errorf("%w: empty distribution", domain.ErrInvalidArgument)
	}
	if n != len(weights) {
		return 0, fmt.Errorf("%w: %d values but %d weights", domain.ErrInvalidArgument, n, len(weights))
	}
	total := 0
	for i, w := range weights {
		if w < 0 {
			return 0, fmt.Errorf("%w: negative weight %d at position %d", domain.ErrInvalidArgument, w, i)
		}
		total += w
	}
	if total <= 0 {
		return 0, fmt.Errorf("%w: weights sum to %d", domain.ErrInvalidArgument, total)
	}
	return total, nil
}

// BuildSeed returns the trimmed client seed, or a fresh UUID when none is given.
func BuildSeed(clientSeed string) string {
	if s := strings.TrimSpace(clientSeed); s != "" {
		return s
	}
	return uuid.NewString()
}
