package university

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/Benouakrim/Academora-02-sub002/core"
)

// Settings
const (
	SettingUrban    = "urban"
	SettingSuburban = "suburban"
	SettingRural    = "rural"
)

// Control types
const (
	ControlPublic  = "public"
	ControlPrivate = "private"
)

// Size buckets by undergraduate enrollment.
const (
	SizeSmall  = "small"
	SizeMedium = "medium"
	SizeLarge  = "large"

	smallMaxEnrollment  = 5000
	mediumMaxEnrollment = 15000
)

// Ratings are on a 0-5 scale; nil means unrated.
type Ratings struct {
	Academics    *float64 `json:"academics" yaml:"academics" validate:"omitempty,gte=0,lte=5"`
	CampusLife   *float64 `json:"campus_life" yaml:"campus_life" validate:"omitempty,gte=0,lte=5"`
	Diversity    *float64 `json:"diversity" yaml:"diversity" validate:"omitempty,gte=0,lte=5"`
	Value        *float64 `json:"value" yaml:"value" validate:"omitempty,gte=0,lte=5"`
	Satisfaction *float64 `json:"satisfaction" yaml:"satisfaction" validate:"omitempty,gte=0,lte=5"`
}

// Attributes is the editable part of a University.
// Rates and percentages are expressed in percent (0-100).
type Attributes struct {
	Name            string   `json:"name" yaml:"name" validate:"required,notblank,max=255"`
	City            string   `json:"city" yaml:"city" validate:"max=128"`
	State           string   `json:"state" yaml:"state" validate:"omitempty,usstate"`
	Setting         string   `json:"setting" yaml:"setting" validate:"omitempty,oneof=urban suburban rural"`
	Control         string   `json:"type" yaml:"type" validate:"omitempty,oneof=public private"`
	Size            int      `json:"size" yaml:"size" validate:"gte=0"`
	Website         string   `json:"website" yaml:"website" validate:"omitempty,url"`
	TuitionInState  float64  `json:"tuition_in_state" yaml:"tuition_in_state" validate:"gte=0"`
	TuitionOutState float64  `json:"tuition_out_state" yaml:"tuition_out_state" validate:"gte=0"`
	RoomBoard       float64  `json:"room_board" yaml:"room_board" validate:"gte=0"`
	BooksSupplies   float64  `json:"books_supplies" yaml:"books_supplies" validate:"gte=0"`
	OtherExpenses   float64  `json:"other_expenses" yaml:"other_expenses" validate:"gte=0"`
	AcceptanceRate  *float64 `json:"acceptance_rate" yaml:"acceptance_rate" validate:"omitempty,gte=0,lte=100"`
	SAT25           *int     `json:"sat_25" yaml:"sat_25" validate:"omitempty,gte=400,lte=1600"`
	SAT75           *int     `json:"sat_75" yaml:"sat_75" validate:"omitempty,gte=400,lte=1600"`
	ACT25           *int     `json:"act_25" yaml:"act_25" validate:"omitempty,gte=1,lte=36"`
	ACT75           *int     `json:"act_75" yaml:"act_75" validate:"omitempty,gte=1,lte=36"`
	AvgGPA          *float64 `json:"avg_gpa" yaml:"avg_gpa" validate:"omitempty,gte=0,lte=5"`
	GraduationRate  *float64 `json:"graduation_rate" yaml:"graduation_rate" validate:"omitempty,gte=0,lte=100"`
	RetentionRate   *float64 `json:"retention_rate" yaml:"retention_rate" validate:"omitempty,gte=0,lte=100"`
	MedianEarnings  *float64 `json:"median_earnings" yaml:"median_earnings" validate:"omitempty,gte=0"`
	EmploymentRate  *float64 `json:"employment_rate" yaml:"employment_rate" validate:"omitempty,gte=0,lte=100"`
	NationalRank    *int     `json:"national_rank" yaml:"national_rank" validate:"omitempty,gte=1"`
	Ratings         Ratings  `json:"ratings" yaml:"ratings"`
	PctNeedMet      *float64 `json:"pct_need_met" yaml:"pct_need_met" validate:"omitempty,gte=0,lte=100"`
	AvgMeritAid     *float64 `json:"avg_merit_aid" yaml:"avg_merit_aid" validate:"omitempty,gte=0"`
	PellShare       *float64 `json:"pell_share" yaml:"pell_share" validate:"omitempty,gte=0,lte=100"`
	PopularMajors   []string `json:"popular_majors" yaml:"popular_majors" validate:"omitempty,max=20,dive,notblank"`
}

func (a *Attributes) Clean() {
	a.Name = core.CleanString(a.Name)
	a.City = core.CleanString(a.City)
	a.State = strings.ToUpper(core.CleanString(a.State))
	a.Setting = core.CleanString(a.Setting, true /* lower */)
	a.Control = core.CleanString(a.Control, true /* lower */)
	a.Website = core.CleanString(a.Website)
	a.PopularMajors = core.CleanStrings(a.PopularMajors, true /* lower */)
}

func (a *Attributes) Validate(validate *validator.Validate) error {
	a.Clean()
	return validate.Struct(a)
}

type seedFile struct {
	Universities []Attributes `yaml:"universities"`
}

// ParseSeed decodes a YAML catalogue of universities.
func ParseSeed(data []byte) ([]Attributes, error) {
	var sf seedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, errors.Wrap(err, "decoding universities")
	}
	return sf.Universities, nil
}

type University struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
	Attributes
	Region    string    `json:"region"`
	ClaimedBy string    `json:"claimed_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SizeCategory buckets the undergraduate enrollment; "" when unknown.
func (u University) SizeCategory() string {
	switch {
	case u.Size <= 0:
		return ""
	case u.Size < smallMaxEnrollment:
		return SizeSmall
	case u.Size <= mediumMaxEnrollment:
		return SizeMedium
	default:
		return SizeLarge
	}
}

// Tuition returns the tuition a resident of `state` pays.
// Private institutions charge everyone the same; an unknown state pays out-of-state tuition.
func (u University) Tuition(state string) float64 {
	if u.Control == ControlPrivate || (state != "" && strings.EqualFold(state, u.State)) {
		return u.TuitionInState
	}
	if u.TuitionOutState == 0 {
		return u.TuitionInState
	}
	return u.TuitionOutState
}

// CostOfAttendance is the yearly sticker price for a resident of `state`.
func (u University) CostOfAttendance(state string) float64 {
	return u.Tuition(state) + u.RoomBoard + u.BooksSupplies + u.OtherExpenses
}

// SizeRange returns the enrollment bounds of a size bucket; max is 0 for the open-ended bucket.
func SizeRange(category string) (min, max int, ok bool) {
	switch category {
	case SizeSmall:
		return 1, smallMaxEnrollment - 1, true
	case SizeMedium:
		return smallMaxEnrollment, mediumMaxEnrollment, true
	case SizeLarge:
		return mediumMaxEnrollment + 1, 0, true
	}
	return 0, 0, false
}

func (u University) IsClaimed() bool { return u.ClaimedBy != "" }

type SavedUniversity struct {
	UserID       string     `json:"user_id"`
	UniversityID string     `json:"university_id"`
	Note         string     `json:"note"`
	CreatedAt    time.Time  `json:"created_at"`
	University   University `json:"university"`
}

type SearchFilter struct {
	Query         string   `query:"q" json:"q"`
	States        []string `query:"state" json:"state"`
	Control       string   `query:"type" json:"type"`
	Setting       string   `query:"setting" json:"setting"`
	Size          string   `query:"size" json:"size"`
	MaxTuition    float64  `query:"max_tuition" json:"max_tuition"`
	MinAcceptance float64  `query:"min_acceptance" json:"min_acceptance"`
	MaxAcceptance float64  `query:"max_acceptance" json:"max_acceptance"`
	SAT           int      `query:"sat" json:"sat"`
	Major         string   `query:"major" json:"major"`
	// ResidentState picks in/out-of-state tuition for MaxTuition.
	ResidentState string `query:"resident_state" json:"resident_state"`
}

func (sf *SearchFilter) Clean() {
	sf.Query = core.CleanString(sf.Query)
	for i, s := range sf.States {
		sf.States[i] = strings.ToUpper(s)
	}
	sf.States = core.CleanStrings(sf.States)
	sf.Control = core.CleanString(sf.Control, true /* lower */)
	sf.Setting = core.CleanString(sf.Setting, true /* lower */)
	sf.Size = core.CleanString(sf.Size, true /* lower */)
	sf.Major = core.CleanString(sf.Major, true /* lower */)
	sf.ResidentState = strings.ToUpper(core.CleanString(sf.ResidentState))
}

// Matches applies the filter in memory; SQL repositories translate it to a WHERE clause.
func (sf *SearchFilter) Matches(u University) bool {
	if sf == nil {
		return true
	}
	if sf.Query != "" {
		q := strings.ToLower(sf.Query)
		if !strings.Contains(strings.ToLower(u.Name), q) && !strings.Contains(strings.ToLower(u.City), q) {
			return false
		}
	}
	if len(sf.States) > 0 && !core.ContainsString(sf.States, u.State) {
		return false
	}
	if sf.Control != "" && u.Control != sf.Control {
		return false
	}
	if sf.Setting != "" && u.Setting != sf.Setting {
		return false
	}
	if sf.Size != "" && u.SizeCategory() != sf.Size {
		return false
	}
	if sf.MaxTuition > 0 && u.Tuition(sf.ResidentState) > sf.MaxTuition {
		return false
	}
	if sf.MinAcceptance > 0 && (u.AcceptanceRate == nil || *u.AcceptanceRate < sf.MinAcceptance) {
		return false
	}
	if sf.MaxAcceptance > 0 && (u.AcceptanceRate == nil || *u.AcceptanceRate > sf.MaxAcceptance) {
		return false
	}
	if sf.SAT > 0 && (u.SAT25 == nil || sf.SAT < *u.SAT25) {
		return false
	}
	if sf.Major != "" {
		var found bool
		for _, m := range u.PopularMajors {
			if strings.Contains(m, sf.Major) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// ComparedValue is one cell of a comparison table.
type ComparedValue struct {
	UniversityID string      `json:"university_id"`
	Value        interface{} `json:"value"`
	Best         bool        `json:"best"`
}

type ComparedAttribute struct {
	Name   string          `json:"name"`
	Values []ComparedValue `json:"values"`
}

type Comparison struct {
	Universities []University        `json:"universities"`
	Attributes   []ComparedAttribute `json:"attributes"`
}
