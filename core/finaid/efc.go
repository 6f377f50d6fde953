// Package finaid estimates what a family is expected to pay and the resulting net price at a university.
package finaid

import (
	"math"

	"github.com/go-playground/validator/v10"

	"github.com/Benouakrim/Academora-02-sub002/core/user"
)

// Federal methodology constants (simplified award year tables).
const (
	payrollTaxRate           = 0.0765
	stateTaxRate             = 0.03
	assetProtectionAllowance = 10000.0
	assetConversionRate      = 0.12

	studentIncomeAllowance     = 7600.0
	studentIncomeRate          = 0.5
	studentAssetRate           = 0.2
	independentSingleAllowance = 11510.0

	extraMemberAllowance  = 5070.0
	extraStudentAllowance = 3600.0
)

// ipaByHouseholdSize is the parents' income protection allowance for one student in college.
var ipaByHouseholdSize = map[int]float64{
	2: 21170,
	3: 26360,
	4: 32550,
	5: 38400,
	6: 44920,
}

// aaiBracket: contribution = base + rate * (aai - floor) for aai above floor.
type aaiBracket struct {
	floor float64
	base  float64
	rate  float64
}

var aaiSchedule = []aaiBracket{
	{38400, 10393, 0.47},
	{33500, 8433, 0.40},
	{28700, 6801, 0.34},
	{23800, 5380, 0.29},
	{19000, 4180, 0.25},
	{0, 0, 0.22},
}

const negativeAAIFloor = -750.0

type Input struct {
	Income             float64  `json:"income" validate:"gte=0"`
	ParentAssets       float64  `json:"parent_assets" validate:"gte=0"`
	StudentIncome      float64  `json:"student_income" validate:"gte=0"`
	StudentAssets      float64  `json:"student_assets" validate:"gte=0"`
	HouseholdSize      int      `json:"household_size" validate:"gte=1,lte=20"`
	NumberInCollege    int      `json:"number_in_college" validate:"gte=1,ltefield=HouseholdSize"`
	Dependency         string   `json:"dependency" validate:"oneof=dependent independent"`
	State              string   `json:"state" validate:"omitempty,usstate"`
	Budget             *float64 `json:"budget" validate:"omitempty,gte=0"`
	FederalAidEligible bool     `json:"federal_aid_eligible"`
}

func (in *Input) Validate(validate *validator.Validate) error {
	fp := user.FinancialProfile{
		HouseholdSize:   in.HouseholdSize,
		NumberInCollege: in.NumberInCollege,
		Dependency:      in.Dependency,
		State:           in.State,
	}
	fp.Clean()
	in.HouseholdSize, in.NumberInCollege, in.Dependency, in.State = fp.HouseholdSize, fp.NumberInCollege, fp.Dependency, fp.State
	return validate.Struct(in)
}

func (in Input) independent() bool { return in.Dependency == user.Independent }

// InputFromProfile maps a stored financial profile to calculator input.
func InputFromProfile(fp user.FinancialProfile) Input {
	return Input{
		Income:             fp.HouseholdIncome,
		ParentAssets:       fp.ParentAssets,
		StudentIncome:      fp.StudentIncome,
		StudentAssets:      fp.StudentAssets,
		HouseholdSize:      fp.HouseholdSize,
		NumberInCollege:    fp.NumberInCollege,
		Dependency:         fp.Dependency,
		State:              fp.State,
		Budget:             fp.AnnualBudget,
		FederalAidEligible: fp.FederalAidEligible,
	}
}

type EFCBreakdown struct {
	IncomeProtectionAllowance float64 `json:"income_protection_allowance"`
	AvailableIncome           float64 `json:"available_income"`
	AdjustedAvailableIncome   float64 `json:"adjusted_available_income"`
	ParentContribution        float64 `json:"parent_contribution"`
	StudentContribution       float64 `json:"student_contribution"`
	EFC                       float64 `json:"efc"`
}

// incomeProtectionAllowance for a household, reduced for every additional student in college.
func incomeProtectionAllowance(householdSize, numberInCollege int) float64 {
	if householdSize < 2 {
		householdSize = 2
	}
	ipa, ok := ipaByHouseholdSize[householdSize]
	if !ok {
		ipa = ipaByHouseholdSize[6] + float64(householdSize-6)*extraMemberAllowance
	}
	if numberInCollege > 1 {
		ipa -= float64(numberInCollege-1) * extraStudentAllowance
	}
	return math.Max(ipa, 0)
}

func taxAllowance(income float64) float64 {
	return income * (payrollTaxRate + stateTaxRate)
}

// contributionFromAAI applies the progressive assessment schedule.
func contributionFromAAI(aai float64) float64 {
	if aai < 0 {
		return math.Max(aai*0.22, negativeAAIFloor)
	}
	for _, b := range aaiSchedule {
		if aai > b.floor {
			return b.base + b.rate*(aai-b.floor)
		}
	}
	return 0
}

func assetContribution(assets float64) float64 {
	return math.Max(assets-assetProtectionAllowance, 0) * assetConversionRate
}

// EFC computes the expected family contribution, floored at 0 and rounded to dollars.
func EFC(in Input) EFCBreakdown {
	var br EFCBreakdown
	numInCollege := in.NumberInCollege
	if numInCollege < 1 {
		numInCollege = 1
	}

	if in.independent() {
		if in.HouseholdSize <= 1 {
			br.IncomeProtectionAllowance = independentSingleAllowance
			br.AvailableIncome = in.StudentIncome - taxAllowance(in.StudentIncome) - br.IncomeProtectionAllowance
			br.AdjustedAvailableIncome = br.AvailableIncome
			br.StudentContribution = math.Max(br.AvailableIncome, 0)*studentIncomeRate + in.StudentAssets*studentAssetRate
		} else {
			// independent students with dependents are assessed like parents
			br.IncomeProtectionAllowance = incomeProtectionAllowance(in.HouseholdSize, numInCollege)
			br.AvailableIncome = in.StudentIncome - taxAllowance(in.StudentIncome) - br.IncomeProtectionAllowance
			br.AdjustedAvailableIncome = br.AvailableIncome + assetContribution(in.StudentAssets)
			br.StudentContribution = math.Max(contributionFromAAI(br.AdjustedAvailableIncome), 0) / float64(numInCollege)
		}
	} else {
		br.IncomeProtectionAllowance = incomeProtectionAllowance(in.HouseholdSize, numInCollege)
		br.AvailableIncome = in.Income - taxAllowance(in.Income) - br.IncomeProtectionAllowance
		br.AdjustedAvailableIncome = br.AvailableIncome + assetContribution(in.ParentAssets)
		br.ParentContribution = math.Max(contributionFromAAI(br.AdjustedAvailableIncome), 0) / float64(numInCollege)

		studentAvailable := in.StudentIncome - taxAllowance(in.StudentIncome) - studentIncomeAllowance
		br.StudentContribution = math.Max(studentAvailable, 0)*studentIncomeRate + in.StudentAssets*studentAssetRate
	}

	br.IncomeProtectionAllowance = math.Round(br.IncomeProtectionAllowance)
	br.AvailableIncome = math.Round(br.AvailableIncome)
	br.AdjustedAvailableIncome = math.Round(br.AdjustedAvailableIncome)
	br.ParentContribution = math.Round(br.ParentContribution)
	br.StudentContribution = math.Round(br.StudentContribution)
	br.EFC = math.Max(br.ParentContribution+br.StudentContribution, 0)
	return br
}
