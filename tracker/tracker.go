package tracker

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"

	"macrotrack"
)

const (
	DefaultCalorieTarget = 2213
	defaultProtein       = 90
	defaultFats          = 70
	defaultCarbs         = 110

	kcalPerGramProtein = 4
	kcalPerGramFat     = 9
	kcalPerGramCarbs   = 4
)

var ErrInvalidTarget = errors.New("calorie target must be positive")

// Tracker accumulates the day's committed intake against calorie and macro targets.
// It lives for the process only.
type Tracker struct {
	mu     sync.Mutex
	totals macrotrack.DailyTotals
}

// New returns a tracker with the default targets.
func New() *Tracker {
	return &Tracker{
		totals: macrotrack.DailyTotals{
			CalorieTarget: DefaultCalorieTarget,
			Protein:       macrotrack.MacroProgress{Target: defaultProtein},
			Fats:          macrotrack.MacroProgress{Target: defaultFats},
			Carbs:         macrotrack.MacroProgress{Target: defaultCarbs},
		},
	}
}

// NewWithTarget returns a tracker whose macro targets are derived from calories.
func NewWithTarget(calories float64) (*Tracker, error) {
	t := New()
	if calories == DefaultCalorieTarget {
		return t, nil
	}
	if err := t.UpdateTarget(calories); err != nil {
		return nil, err
	}
	return t, nil
}

// AddFood adds m to the current totals.
func (t *Tracker) AddFood(m macrotrack.Macros) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.totals.CurrentCalories += m.Calories
	t.totals.Protein.Current += m.Protein
	t.totals.Fats.Current += m.Fats
	t.totals.Carbs.Current += m.Carbs
}

// Commit adds an item's scaled totals. Unresolved items add nothing.
func (t *Tracker) Commit(items ...macrotrack.FoodItem) macrotrack.Macros {
	var sum macrotrack.Macros
	for _, it := range items {
		sum = sum.Add(it.Totals())
	}
	t.AddFood(sum)
	slog.Info("TRACKER: Committed items", "items", len(items), "calories", sum.Calories)
	return sum
}

// UpdateTarget sets the calorie target and splits it 30/25/45 across protein, fats and carbs.
func (t *Tracker) UpdateTarget(calories float64) error {
	if calories <= 0 || math.IsNaN(calories) || math.IsInf(calories, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidTarget, calories)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.totals.CalorieTarget = calories
	t.totals.Protein.Target = math.Round(calories * 0.30 / kcalPerGramProtein)
	t.totals.Fats.Target = math.Round(calories * 0.25 / kcalPerGramFat)
	t.totals.Carbs.Target = math.Round(calories * 0.45 / kcalPerGramCarbs)
	return nil
}

// Reset zeroes current values and keeps the targets. It returns the totals as
// they were just before zeroing, so nothing committed concurrently goes unreported.
func (t *Tracker) Reset() macrotrack.DailyTotals {
	t.mu.Lock()
	defer t.mu.Unlock()

	day := t.totals
	t.totals.CurrentCalories = 0
	t.totals.Protein.Current = 0
	t.totals.Fats.Current = 0
	t.totals.Carbs.Current = 0
	return day
}

func (t *Tracker) Snapshot() macrotrack.DailyTotals {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.totals
}

// Progress is the percentage of the calorie target consumed, capped at 100.
func (t *Tracker) Progress() float64 {
	return progress(t.Snapshot())
}

func progress(d macrotrack.DailyTotals) float64 {
	if d.CalorieTarget <= 0 {
		return 0
	}
	return math.Min(100, d.CurrentCalories/d.CalorieTarget*100)
}

// Summary renders the current snapshot as a short plain-text report.
func (t *Tracker) Summary() string {
	return FormatSummary(t.Snapshot())
}

func FormatSummary(d macrotrack.DailyTotals) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Calories: %.0f / %.0f kcal (%.0f%%)\n", d.CurrentCalories, d.CalorieTarget, progress(d))
	fmt.Fprintf(&b, "Protein: %.1f / %.0f g\n", d.Protein.Current, d.Protein.Target)
	fmt.Fprintf(&b, "Fats: %.1f / %.0f g\n", d.Fats.Current, d.Fats.Target)
	fmt.Fprintf(&b, "Carbs: %.1f / %.0f g", d.Carbs.Current, d.Carbs.Target)
	return b.String()
}
