package match

import (
	"math"
	"strings"

	"github.com/Benouakrim/Academora-02-sub002/core"
	"github.com/Benouakrim/Academora-02-sub002/core/finaid"
	"github.com/Benouakrim/Academora-02-sub002/core/university"
	"github.com/Benouakrim/Academora-02-sub002/core/user"
)

// Precisions
const (
	// PrecisionBasic scores categories without data as a neutral 50 and rounds to integers.
	PrecisionBasic = "basic"
	// PrecisionPrecise drops categories without data, renormalizes the others and rounds to 0.1.
	PrecisionPrecise = "precise"

	NeutralScore = 50.0
)

// Labels
const (
	LabelExcellent = "excellent"
	LabelStrong    = "strong"
	LabelGood      = "good"
	LabelFair      = "fair"
	LabelReach     = "reach"
)

// scoring curve parameters
const (
	satBelowSpan = 200.0
	actBelowSpan = 6.0

	gpaAtAverage   = 75.0
	gpaPointsSlope = 50.0

	selectivityShare = 0.2

	earningsFloor   = 25000.0
	earningsCeiling = 100000.0

	sameRegionScore   = 60.0
	otherStateScore   = 20.0
	nearSettingScore  = 50.0
	nearSizeScore     = 50.0
	majorMissScore    = 40.0
	halfBudgetScore   = 100.0
	atBudgetScore     = 80.0
	doubleBudgetRatio = 2.0
)

// Profile is what is known about the student.
type Profile struct {
	GPA              *float64      `json:"gpa"`
	SAT              *int          `json:"sat"`
	ACT              *int          `json:"act"`
	IntendedMajors   []string      `json:"intended_majors"`
	HomeState        string        `json:"home_state"`
	PreferredStates  []string      `json:"preferred_states"`
	PreferredSetting string        `json:"preferred_setting"`
	PreferredSize    string        `json:"preferred_size"`
	Budget           *float64      `json:"budget"`
	Finances         *finaid.Input `json:"finances"`
}

// ProfileFromSnapshot combines the academic & financial profiles with onboarding answers.
// Stored profiles win over onboarding answers.
func ProfileFromSnapshot(snap user.Snapshot) Profile {
	answers := snap.User.OnboardingAnswers
	p := Profile{
		IntendedMajors:   answers.IntendedMajors,
		HomeState:        answers.HomeState,
		PreferredStates:  answers.PreferredStates,
		PreferredSetting: answers.PreferredSetting,
		PreferredSize:    answers.PreferredSize,
		Budget:           answers.Budget,
	}
	if ap := snap.Academic; ap != nil {
		p.GPA, p.SAT, p.ACT = ap.GPA, ap.SAT, ap.ACT
		if len(ap.IntendedMajors) > 0 {
			p.IntendedMajors = ap.IntendedMajors
		}
	}
	if fp := snap.Financial; fp != nil {
		in := finaid.InputFromProfile(*fp)
		p.Finances = &in
		if fp.State != "" {
			p.HomeState = fp.State
		}
		if fp.AnnualBudget != nil {
			p.Budget = fp.AnnualBudget
		}
	}
	return p
}

type CategoryScore struct {
	Category     string  `json:"category"`
	Score        float64 `json:"score"`
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"`
	// Neutral is set when the category had no data and was scored NeutralScore.
	Neutral bool `json:"neutral,omitempty"`
}

type Result struct {
	UniversityID   string          `json:"university_id"`
	UniversityName string          `json:"university_name"`
	Overall        float64         `json:"overall"`
	Label          string          `json:"label"`
	Precision      string          `json:"precision"`
	Categories     []CategoryScore `json:"categories"`
	Excluded       []string        `json:"excluded"`
	// NetPrice is the estimated yearly price used to compare universities; nil when unknown.
	NetPrice     *float64 `json:"net_price"`
	NationalRank *int     `json:"national_rank"`

	heaviestScore float64
}

// Label names a score band.
func Label(score float64) string {
	switch {
	case score >= 85:
		return LabelExcellent
	case score >= 70:
		return LabelStrong
	case score >= 55:
		return LabelGood
	case score >= 40:
		return LabelFair
	default:
		return LabelReach
	}
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

func mean(vals []float64) (float64, bool) {
	if len(vals) == 0 {
		return 0, false
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals)), true
}

// bandScore places a test score relative to the 25th-75th percentile band:
// 50 at the 25th, 100 at or above the 75th, fading to 0 `below` points under the 25th.
func bandScore(score, p25, p75, below float64) float64 {
	switch {
	case score >= p75:
		return 100
	case score >= p25:
		if p75 == p25 {
			return 100
		}
		return 50 + 50*(score-p25)/(p75-p25)
	default:
		return clamp(50 - 50*(p25-score)/below)
	}
}

func academicScore(u university.University, p Profile) (float64, bool) {
	var parts []float64

	var test float64
	hasTest := false
	if p.SAT != nil && u.SAT25 != nil && u.SAT75 != nil {
		test = bandScore(float64(*p.SAT), float64(*u.SAT25), float64(*u.SAT75), satBelowSpan)
		hasTest = true
	}
	if p.ACT != nil && u.ACT25 != nil && u.ACT75 != nil {
		if s := bandScore(float64(*p.ACT), float64(*u.ACT25), float64(*u.ACT75), actBelowSpan); !hasTest || s > test {
			test = s
		}
		hasTest = true
	}
	if hasTest {
		parts = append(parts, test)
	}
	if p.GPA != nil && u.AvgGPA != nil {
		parts = append(parts, clamp(gpaAtAverage+(*p.GPA-*u.AvgGPA)*gpaPointsSlope))
	}

	score, ok := mean(parts)
	if !ok {
		return 0, false
	}
	if u.AcceptanceRate != nil {
		// admission odds: every school admitting half its applicants or more is within reach
		selectivity := clamp(*u.AcceptanceRate * 2)
		score = (1-selectivityShare)*score + selectivityShare*selectivity
	}
	return score, true
}

// priceScore rates a yearly price against a budget:
// 100 up to half the budget, 80 at the budget, 0 at twice the budget.
func priceScore(price, budget float64) float64 {
	if budget <= 0 {
		if price <= 0 {
			return 100
		}
		return 0
	}
	ratio := price / budget
	switch {
	case ratio <= 0.5:
		return halfBudgetScore
	case ratio <= 1:
		return halfBudgetScore - (halfBudgetScore-atBudgetScore)*(ratio-0.5)/0.5
	default:
		return clamp(atBudgetScore - atBudgetScore*(ratio-1)/(doubleBudgetRatio-1))
	}
}

// estimatedPrice is the net price when finances are known, else the sticker price.
func estimatedPrice(u university.University, p Profile) (float64, *finaid.Estimate) {
	if p.Finances != nil {
		est := finaid.EstimateFor(u, *p.Finances)
		return est.NetPrice, &est
	}
	return math.Round(u.CostOfAttendance(p.HomeState)), nil
}

func financialScore(u university.University, p Profile) (float64, bool) {
	if u.CostOfAttendance(p.HomeState) <= 0 {
		return 0, false
	}
	price, est := estimatedPrice(u, p)
	switch {
	case p.Budget != nil:
		return priceScore(price, *p.Budget), true
	case est != nil:
		// without a budget, what the family pays out of pocket is compared to the EFC
		return priceScore(est.OutOfPocket, est.EFC), true
	}
	return 0, false
}

func locationScore(u university.University, p Profile) (float64, bool) {
	var parts []float64

	states := p.PreferredStates
	if len(states) == 0 && p.HomeState != "" {
		states = []string{p.HomeState}
	}
	if len(states) > 0 && u.State != "" {
		score := otherStateScore
		if core.ContainsString(states, u.State) {
			score = 100
		} else {
			region := core.RegionOf(u.State)
			for _, s := range states {
				if region != "" && core.RegionOf(s) == region {
					score = sameRegionScore
					break
				}
			}
		}
		parts = append(parts, score)
	}

	if p.PreferredSetting != "" && u.Setting != "" {
		switch {
		case p.PreferredSetting == u.Setting:
			parts = append(parts, 100)
		case p.PreferredSetting == university.SettingSuburban || u.Setting == university.SettingSuburban:
			parts = append(parts, nearSettingScore)
		default:
			parts = append(parts, 0)
		}
	}
	return mean(parts)
}

var sizeOrder = map[string]int{university.SizeSmall: 0, university.SizeMedium: 1, university.SizeLarge: 2}

func socialScore(u university.University, p Profile) (float64, bool) {
	var parts []float64

	var ratings []float64
	for _, r := range []*float64{u.Ratings.CampusLife, u.Ratings.Diversity, u.Ratings.Satisfaction} {
		if r != nil {
			ratings = append(ratings, *r/5*100)
		}
	}
	if avg, ok := mean(ratings); ok {
		parts = append(parts, avg)
	}

	if want, ok := sizeOrder[p.PreferredSize]; ok {
		if got, ok := sizeOrder[u.SizeCategory()]; ok {
			switch d := want - got; {
			case d == 0:
				parts = append(parts, 100)
			case d == 1 || d == -1:
				parts = append(parts, nearSizeScore)
			default:
				parts = append(parts, 0)
			}
		}
	}
	return mean(parts)
}

func futureScore(u university.University, p Profile) (float64, bool) {
	var parts []float64
	if u.GraduationRate != nil {
		parts = append(parts, clamp(*u.GraduationRate))
	}
	if u.MedianEarnings != nil {
		parts = append(parts, clamp((*u.MedianEarnings-earningsFloor)/(earningsCeiling-earningsFloor)*100))
	}
	if u.EmploymentRate != nil {
		parts = append(parts, clamp(*u.EmploymentRate))
	}
	if len(parts) == 0 {
		return 0, false
	}
	if len(p.IntendedMajors) > 0 && len(u.PopularMajors) > 0 {
		parts = append(parts, majorFit(p.IntendedMajors, u.PopularMajors))
	}
	return mean(parts)
}

func majorFit(intended, popular []string) float64 {
	for _, want := range intended {
		for _, have := range popular {
			if strings.Contains(strings.ToLower(have), strings.ToLower(want)) {
				return 100
			}
		}
	}
	return majorMissScore
}

var scorers = map[string]func(university.University, Profile) (float64, bool){
	Academic:  academicScore,
	Financial: financialScore,
	Location:  locationScore,
	Social:    socialScore,
	Future:    futureScore,
}

func round(v float64, precision string) float64 {
	if precision == PrecisionPrecise {
		return math.Round(v*10) / 10
	}
	return math.Round(v)
}

// Score rates u for p. weights must be normalized and precision valid.
func Score(u university.University, p Profile, weights Weights, precision string) Result {
	res := Result{
		UniversityID:   u.ID,
		UniversityName: u.Name,
		Precision:      precision,
		Categories:     make([]CategoryScore, 0, len(Categories)),
		Excluded:       []string{},
		NationalRank:   u.NationalRank,
	}

	raw := make(map[string]float64, len(Categories))
	var available []string
	for _, c := range Categories {
		if s, ok := scorers[c](u, p); ok {
			raw[c] = s
			available = append(available, c)
		} else if precision == PrecisionPrecise {
			res.Excluded = append(res.Excluded, c)
		}
	}

	// in precise mode, data only for categories weighted 0 leaves nothing to score
	neutral := false
	effective := weights
	if precision == PrecisionPrecise {
		if weights.total(available) <= 0 {
			neutral = true
			effective = Weights{}
		} else {
			effective = normalize(weights, available)
		}
	}

	var overall float64
	for _, c := range Categories {
		s, ok := raw[c]
		if !ok {
			if precision == PrecisionPrecise {
				continue
			}
			s = NeutralScore
		}
		w := effective[c]
		overall += s * w / 100
		res.Categories = append(res.Categories, CategoryScore{
			Category:     c,
			Score:        round(s, precision),
			Weight:       w,
			Contribution: round(s*w/100, precision),
			Neutral:      !ok,
		})
	}
	if neutral {
		overall = NeutralScore
	}

	res.Overall = round(overall, precision)
	res.Label = Label(res.Overall)

	price, _ := estimatedPrice(u, p)
	if price > 0 || p.Finances != nil {
		res.NetPrice = &price
	}

	heaviest := weights.Heaviest()
	res.heaviestScore = -1
	if s, ok := raw[heaviest]; ok {
		res.heaviestScore = s
	} else if precision == PrecisionBasic {
		res.heaviestScore = NeutralScore
	}
	return res
}
