package finaid

import (
	"math"
	"strings"

	"github.com/Benouakrim/Academora-02-sub002/core/university"
	"github.com/Benouakrim/Academora-02-sub002/core/user"
)

// Grant & loan limits.
const (
	MaxPellGrant = 7395.0
	MinPellGrant = 740.0

	DependentLoanLimit   = 5500.0 // first-year direct loans
	IndependentLoanLimit = 9500.0

	// net prices up to this share above budget are a stretch
	stretchMargin = 0.25
)

// Affordability levels
const (
	Affordable   = "affordable"
	Stretch      = "stretch"
	Unaffordable = "unaffordable"
)

type Estimate struct {
	UniversityID       string   `json:"university_id"`
	InState            bool     `json:"in_state"`
	Tuition            float64  `json:"tuition"`
	CostOfAttendance   float64  `json:"cost_of_attendance"`
	EFC                float64  `json:"efc"`
	Need               float64  `json:"need"`
	PellGrant          float64  `json:"pell_grant"`
	InstitutionalGrant float64  `json:"institutional_grant"`
	MeritAid           float64  `json:"merit_aid"`
	TotalGrants        float64  `json:"total_grants"`
	NetPrice           float64  `json:"net_price"`
	FederalLoans       float64  `json:"federal_loans"`
	OutOfPocket        float64  `json:"out_of_pocket"`
	Budget             *float64 `json:"budget"`
	Affordability      string   `json:"affordability"`
}

// pellGrant is the maximum award minus EFC, zero below the minimum award.
func pellGrant(in Input, efc float64) float64 {
	if !in.FederalAidEligible {
		return 0
	}
	award := MaxPellGrant - efc
	if award < MinPellGrant {
		return 0
	}
	return award
}

func loanLimit(in Input) float64 {
	if in.independent() {
		return IndependentLoanLimit
	}
	return DependentLoanLimit
}

// Affordability compares a net price to a budget.
func Affordability(netPrice, budget float64) string {
	switch {
	case netPrice <= budget:
		return Affordable
	case netPrice <= budget*(1+stretchMargin):
		return Stretch
	default:
		return Unaffordable
	}
}

// EstimateFor computes the net price of one year at univ. Without a budget, the EFC is used as one.
func EstimateFor(univ university.University, in Input) Estimate {
	efc := EFC(in).EFC

	est := Estimate{
		UniversityID:     univ.ID,
		InState:          in.State != "" && strings.EqualFold(in.State, univ.State),
		Tuition:          math.Round(univ.Tuition(in.State)),
		CostOfAttendance: math.Round(univ.CostOfAttendance(in.State)),
		EFC:              efc,
		Budget:           in.Budget,
	}
	coa := est.CostOfAttendance
	est.Need = math.Max(coa-efc, 0)

	est.PellGrant = math.Round(math.Min(pellGrant(in, efc), coa))
	remainingNeed := math.Max(est.Need-est.PellGrant, 0)
	if univ.PctNeedMet != nil {
		est.InstitutionalGrant = math.Round(remainingNeed * *univ.PctNeedMet / 100)
	}

	remainingCost := math.Max(coa-est.PellGrant-est.InstitutionalGrant, 0)
	if univ.AvgMeritAid != nil {
		est.MeritAid = math.Round(math.Min(*univ.AvgMeritAid, remainingCost))
	}

	est.TotalGrants = est.PellGrant + est.InstitutionalGrant + est.MeritAid
	est.NetPrice = math.Max(coa-est.TotalGrants, 0)
	if in.FederalAidEligible {
		est.FederalLoans = math.Min(loanLimit(in), est.NetPrice)
	}
	est.OutOfPocket = math.Max(est.NetPrice-est.FederalLoans, 0)

	budget := efc
	if in.Budget != nil {
		budget = *in.Budget
	}
	est.Affordability = Affordability(est.NetPrice, budget)
	return est
}

// DefaultInput is used when nothing is known about the family.
func DefaultInput() Input {
	return Input{
		HouseholdSize:      1,
		NumberInCollege:    1,
		Dependency:         user.Dependent,
		FederalAidEligible: true,
	}
}
