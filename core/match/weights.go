// Package match scores how well a university fits a student across five weighted categories.
package match

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/Benouakrim/Academora-02-sub002/core"
)

// Categories
const (
	Academic  = "academic"
	Financial = "financial"
	Location  = "location"
	Social    = "social"
	Future    = "future"
)

// Categories in display order; also the order used to break rounding ties.
var Categories = []string{Academic, Financial, Location, Social, Future}

const (
	// weights are normalized in tenths of a percent
	weightUnits = 1000
	unitsPerPct = 10
)

// Weights maps a category to its relative importance.
type Weights map[string]float64

func isCategory(c string) bool {
	return core.ContainsString(Categories, c)
}

// Validate reports unknown categories and negative or non-finite weights.
func (w Weights) Validate() error {
	var flds []core.FieldError
	keys := make([]string, 0, len(w))
	for c := range w {
		keys = append(keys, c)
	}
	sort.Strings(keys)
	for _, c := range keys {
		v := w[c]
		switch {
		case !isCategory(c):
			flds = append(flds, core.FieldError{Field: "weights." + c, Error: "unknown category"})
		case math.IsNaN(v) || math.IsInf(v, 0):
			flds = append(flds, core.FieldError{Field: "weights." + c, Error: "weight must be a number"})
		case v < 0:
			flds = append(flds, core.FieldError{Field: "weights." + c, Error: "weight cannot be negative"})
		}
	}
	if len(flds) > 0 {
		return core.NewValidationError(nil, flds...)
	}
	return nil
}

// Normalize scales the weights of every category so they sum to exactly 100,
// rounding to 0.1 with the largest remainder method. Missing categories weigh 0.
// When nothing carries weight, all categories weigh the same.
func (w Weights) Normalize() (Weights, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return normalize(w, Categories), nil
}

// normalize distributes 100 % over cats (which must be valid categories).
func normalize(w Weights, cats []string) Weights {
	res := make(Weights, len(cats))
	if len(cats) == 0 {
		return res
	}

	total := w.total(cats)
	units := make([]int, len(cats))
	if total <= 0 {
		// equal split, leftover units go to the first categories
		for i := range cats {
			units[i] = weightUnits / len(cats)
		}
		for i := 0; i < weightUnits%len(cats); i++ {
			units[i]++
		}
	} else {
		type remainder struct {
			idx  int
			frac float64
		}
		rems := make([]remainder, len(cats))
		assigned := 0
		for i, c := range cats {
			exact := w[c] / total * weightUnits
			whole := math.Floor(exact + 1e-9)
			units[i] = int(whole)
			assigned += units[i]
			rems[i] = remainder{idx: i, frac: exact - whole}
		}
		sort.SliceStable(rems, func(i, j int) bool { return rems[i].frac > rems[j].frac })
		for i := 0; i < weightUnits-assigned && i < len(rems); i++ {
			units[rems[i].idx]++
		}
	}

	for i, c := range cats {
		res[c] = float64(units[i]) / unitsPerPct
	}
	return res
}

func (w Weights) total(cats []string) float64 {
	var total float64
	for _, c := range cats {
		total += w[c]
	}
	return total
}

// Heaviest returns the category with the largest weight, earliest in Categories on ties.
func (w Weights) Heaviest() string {
	best := ""
	for _, c := range Categories {
		if best == "" || w[c] > w[best] {
			best = c
		}
	}
	return best
}

func (w Weights) String() string {
	parts := make([]string, 0, len(Categories))
	for _, c := range Categories {
		parts = append(parts, fmt.Sprintf("%s=%.1f", c, w[c]))
	}
	return strings.Join(parts, " ")
}
