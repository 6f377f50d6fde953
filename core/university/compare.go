package university

import (
	"math"
	"sort"
	"strings"

	"github.com/Benouakrim/Academora-02-sub002/core"
)

type direction int

const (
	noBest direction = iota
	higherIsBetter
	lowerIsBetter
)

type comparedField struct {
	name  string
	best  direction
	value func(u University) (float64, bool)
}

func floatVal(p *float64) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}

func intVal(p *int) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return float64(*p), true
}

func positive(v float64) (float64, bool) {
	return v, v > 0
}

var comparedFields = []comparedField{
	{"tuition_in_state", lowerIsBetter, func(u University) (float64, bool) { return positive(u.TuitionInState) }},
	{"tuition_out_state", lowerIsBetter, func(u University) (float64, bool) { return positive(u.Tuition("")) }},
	{"cost_of_attendance", lowerIsBetter, func(u University) (float64, bool) { return positive(u.CostOfAttendance(u.State)) }},
	{"acceptance_rate", noBest, func(u University) (float64, bool) { return floatVal(u.AcceptanceRate) }},
	{"sat_25", noBest, func(u University) (float64, bool) { return intVal(u.SAT25) }},
	{"sat_75", noBest, func(u University) (float64, bool) { return intVal(u.SAT75) }},
	{"act_25", noBest, func(u University) (float64, bool) { return intVal(u.ACT25) }},
	{"act_75", noBest, func(u University) (float64, bool) { return intVal(u.ACT75) }},
	{"avg_gpa", noBest, func(u University) (float64, bool) { return floatVal(u.AvgGPA) }},
	{"graduation_rate", higherIsBetter, func(u University) (float64, bool) { return floatVal(u.GraduationRate) }},
	{"retention_rate", higherIsBetter, func(u University) (float64, bool) { return floatVal(u.RetentionRate) }},
	{"median_earnings", higherIsBetter, func(u University) (float64, bool) { return floatVal(u.MedianEarnings) }},
	{"employment_rate", higherIsBetter, func(u University) (float64, bool) { return floatVal(u.EmploymentRate) }},
	{"national_rank", lowerIsBetter, func(u University) (float64, bool) { return intVal(u.NationalRank) }},
	{"rating_academics", higherIsBetter, func(u University) (float64, bool) { return floatVal(u.Ratings.Academics) }},
	{"rating_campus_life", higherIsBetter, func(u University) (float64, bool) { return floatVal(u.Ratings.CampusLife) }},
	{"rating_diversity", higherIsBetter, func(u University) (float64, bool) { return floatVal(u.Ratings.Diversity) }},
	{"rating_value", higherIsBetter, func(u University) (float64, bool) { return floatVal(u.Ratings.Value) }},
	{"rating_satisfaction", higherIsBetter, func(u University) (float64, bool) { return floatVal(u.Ratings.Satisfaction) }},
	{"pct_need_met", higherIsBetter, func(u University) (float64, bool) { return floatVal(u.PctNeedMet) }},
	{"avg_merit_aid", higherIsBetter, func(u University) (float64, bool) { return floatVal(u.AvgMeritAid) }},
	{"size", noBest, func(u University) (float64, bool) { return positive(float64(u.Size)) }},
}

// compare builds the comparison table. Missing values are null and never best;
// ties share the best flag.
func compare(univs []University) Comparison {
	cmp := Comparison{
		Universities: univs,
		Attributes:   make([]ComparedAttribute, 0, len(comparedFields)),
	}

	for _, fld := range comparedFields {
		attr := ComparedAttribute{Name: fld.name, Values: make([]ComparedValue, 0, len(univs))}

		best := math.NaN()
		vals := make([]float64, len(univs))
		oks := make([]bool, len(univs))
		for i, u := range univs {
			vals[i], oks[i] = fld.value(u)
			if !oks[i] || fld.best == noBest {
				continue
			}
			if math.IsNaN(best) ||
				(fld.best == higherIsBetter && vals[i] > best) ||
				(fld.best == lowerIsBetter && vals[i] < best) {
				best = vals[i]
			}
		}

		present := 0
		for _, ok := range oks {
			if ok {
				present++
			}
		}
		for i, u := range univs {
			cv := ComparedValue{UniversityID: u.ID}
			if oks[i] {
				cv.Value = vals[i]
				// a lone value is not "best" of anything
				cv.Best = present > 1 && !math.IsNaN(best) && vals[i] == best
			}
			attr.Values = append(attr.Values, cv)
		}
		cmp.Attributes = append(cmp.Attributes, attr)
	}
	return cmp
}

// Sort orders universities in memory the same way SQL repositories do: nulls last, name as final key.
func Sort(univs []University, ordering []core.DBOrdering) {
	keys := make([]core.DBOrdering, 0, len(ordering)+1)
	for _, ord := range ordering {
		if _, ok := OrderingFields[ord.Field]; ok {
			keys = append(keys, ord)
		}
	}
	keys = append(keys, core.DBOrdering{Field: "name", Ascending: true})

	sort.SliceStable(univs, func(i, j int) bool {
		for _, key := range keys {
			c := compareField(univs[i], univs[j], key.Field)
			if c == 0 {
				continue
			}
			if c == nullsLast || c == -nullsLast {
				return c < 0
			}
			if key.Ascending {
				return c < 0
			}
			return c > 0
		}
		return univs[i].ID < univs[j].ID
	})
}

const nullsLast = 2

// compareField returns -1, 0, 1, or ±nullsLast when exactly one side is null.
func compareField(a, b University, field string) int {
	switch field {
	case "name":
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	case "state":
		return strings.Compare(a.State, b.State)
	case "created_at":
		switch {
		case a.CreatedAt.Before(b.CreatedAt):
			return -1
		case a.CreatedAt.After(b.CreatedAt):
			return 1
		}
		return 0
	case "tuition":
		return cmpFloat(a.TuitionInState, true, b.TuitionInState, true)
	}

	var fa, fb float64
	var oka, okb bool
	switch field {
	case "national_rank":
		fa, oka = intVal(a.NationalRank)
		fb, okb = intVal(b.NationalRank)
	case "acceptance_rate":
		fa, oka = floatVal(a.AcceptanceRate)
		fb, okb = floatVal(b.AcceptanceRate)
	case "graduation_rate":
		fa, oka = floatVal(a.GraduationRate)
		fb, okb = floatVal(b.GraduationRate)
	case "median_earnings":
		fa, oka = floatVal(a.MedianEarnings)
		fb, okb = floatVal(b.MedianEarnings)
	default:
		return 0
	}
	return cmpFloat(fa, oka, fb, okb)
}

func cmpFloat(a float64, oka bool, b float64, okb bool) int {
	switch {
	case !oka && !okb:
		return 0
	case !oka:
		return nullsLast
	case !okb:
		return -nullsLast
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
