package user

import (
	"database/sql/driver"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/Benouakrim/Academora-02-sub002/core"
)

// Roles
const (
	RoleAdmin          = "admin:"
	RoleAdminModerator = "admin:moderator"
	RoleAdminOwner     = "admin:owner"
)

// Account types
const (
	AccountStudent     = "student"
	AccountParent      = "parent"
	AccountCounselor   = "counselor"
	AccountInstitution = "institution"
)

// Profile visibility
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

var (
	AdminRoles   = []string{RoleAdmin, RoleAdminModerator, RoleAdminOwner}
	AllRoles     = AdminRoles
	AccountTypes = []string{AccountStudent, AccountParent, AccountCounselor, AccountInstitution}

	rolePriorities = map[string]int{
		RoleAdminOwner:     30,
		RoleAdminModerator: 25,
		RoleAdmin:          21,
	}

	Roles = []Role{
		{Name: "Admin", Value: RoleAdmin},
		{Name: "Moderator", Value: RoleAdminModerator},
		{Name: "Owner", Value: RoleAdminOwner},
	}
)

func RolePriority(role string) int {
	return rolePriorities[role]
}

func MaxRolePriority(roles []string) int {
	var max int
	for _, role := range roles {
		if RolePriority(role) > max {
			max = RolePriority(role)
		}
	}
	return max
}

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type PrivacySettings struct {
	ProfileVisibility     string `json:"profile_visibility"`
	ShowSavedUniversities bool   `json:"show_saved_universities"`
	EmailNotifications    bool   `json:"email_notifications"`
	AllowAnalytics        bool   `json:"allow_analytics"`
}

func DefaultPrivacySettings() PrivacySettings {
	return PrivacySettings{
		ProfileVisibility:  VisibilityPrivate,
		EmailNotifications: true,
		AllowAnalytics:     true,
	}
}

type User struct {
	ID                  string            `json:"id"`
	ExternalID          string            `json:"-"`
	Email               string            `json:"email"`
	Name                string            `json:"name"`
	AccountType         string            `json:"account_type"`
	Roles               []string          `json:"roles"`
	IsActive            bool              `json:"is_active"`
	Privacy             PrivacySettings   `json:"privacy"`
	OnboardingCompleted bool              `json:"onboarding_completed"`
	Persona             string            `json:"persona"`
	PrimaryGoal         string            `json:"primary_goal"`
	OnboardingAnswers   OnboardingAnswers `json:"onboarding_answers"`
	CreatedAt           time.Time         `json:"created_at"` // UTC
	UpdatedAt           time.Time         `json:"updated_at"` // UTC
	LastSeen            time.Time         `json:"last_seen"`  // UTC
}

func (u *User) RoleStartsWith(prefix string) bool {
	for _, role := range u.Roles {
		if strings.HasPrefix(role, prefix) {
			return true
		}
	}
	return false
}

func (u *User) IsAdmin() bool {
	return u.RoleStartsWith(RoleAdmin)
}

// IsModerator reports whether the user may review articles, comments and claims.
func (u *User) IsModerator() bool {
	return core.ContainsString(u.Roles, RoleAdminModerator) || core.ContainsString(u.Roles, RoleAdminOwner)
}

// Notifiable reports whether the user accepts email notifications.
func (u *User) Notifiable() bool {
	return u.IsActive && u.Email != "" && u.Privacy.EmailNotifications
}

// Identity is what the identity provider tells us about the caller.
type Identity struct {
	Subject string
	Email   string
	Name    string
}

// UpdateUser defines what information may be provided to modify an existing User.
type UpdateUser struct {
	Name        string   `json:"name"`
	AccountType string   `json:"account_type" validate:"omitempty,accounttype"`
	IsActive    *bool    `json:"is_active"`
	Roles       []string `json:"roles" validate:"omitempty,allroles"`
}

func (uu *UpdateUser) Validate(validate *validator.Validate) error {
	uu.Name = core.CleanString(uu.Name)
	uu.AccountType = core.CleanString(uu.AccountType, true /* lower */)
	return validate.Struct(uu)
}

type UpdatePrivacy struct {
	ProfileVisibility     *string `json:"profile_visibility" validate:"omitempty,oneof=public private"`
	ShowSavedUniversities *bool   `json:"show_saved_universities"`
	EmailNotifications    *bool   `json:"email_notifications"`
	AllowAnalytics        *bool   `json:"allow_analytics"`
}

func (up *UpdatePrivacy) Validate(validate *validator.Validate) error {
	if up.ProfileVisibility != nil {
		v := core.CleanString(*up.ProfileVisibility, true /* lower */)
		up.ProfileVisibility = &v
	}
	return validate.Struct(up)
}

func (up UpdatePrivacy) apply(ps PrivacySettings) PrivacySettings {
	if up.ProfileVisibility != nil {
		ps.ProfileVisibility = *up.ProfileVisibility
	}
	if up.ShowSavedUniversities != nil {
		ps.ShowSavedUniversities = *up.ShowSavedUniversities
	}
	if up.EmailNotifications != nil {
		ps.EmailNotifications = *up.EmailNotifications
	}
	if up.AllowAnalytics != nil {
		ps.AllowAnalytics = *up.AllowAnalytics
	}
	return ps
}

// AcademicProfile is 1:1 with User and upserted on UserID.
type AcademicProfile struct {
	UserID         string    `json:"user_id"`
	GPA            *float64  `json:"gpa" validate:"omitempty,gte=0,lte=4"`
	WeightedGPA    *float64  `json:"weighted_gpa" validate:"omitempty,gte=0,lte=5"`
	SAT            *int      `json:"sat" validate:"omitempty,gte=400,lte=1600"`
	ACT            *int      `json:"act" validate:"omitempty,gte=1,lte=36"`
	ClassRankPct   *float64  `json:"class_rank_pct" validate:"omitempty,gte=0,lte=100"`
	APCount        int       `json:"ap_count" validate:"gte=0,lte=40"`
	IntendedMajors []string  `json:"intended_majors" validate:"omitempty,max=5,dive,notblank"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (ap *AcademicProfile) Validate(validate *validator.Validate) error {
	ap.IntendedMajors = core.CleanStrings(ap.IntendedMajors, true /* lower */)
	return validate.Struct(ap)
}

// Dependency statuses
const (
	Dependent   = "dependent"
	Independent = "independent"
)

// FinancialProfile is 1:1 with User and upserted on UserID.
type FinancialProfile struct {
	UserID             string    `json:"user_id"`
	HouseholdIncome    float64   `json:"household_income" validate:"gte=0"`
	ParentAssets       float64   `json:"parent_assets" validate:"gte=0"`
	StudentIncome      float64   `json:"student_income" validate:"gte=0"`
	StudentAssets      float64   `json:"student_assets" validate:"gte=0"`
	HouseholdSize      int       `json:"household_size" validate:"gte=1,lte=20"`
	NumberInCollege    int       `json:"number_in_college" validate:"gte=1,ltefield=HouseholdSize"`
	Dependency         string    `json:"dependency" validate:"oneof=dependent independent"`
	State              string    `json:"state" validate:"omitempty,usstate"`
	AnnualBudget       *float64  `json:"annual_budget" validate:"omitempty,gte=0"`
	FederalAidEligible bool      `json:"federal_aid_eligible"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Clean sets defaults for omitted household fields.
func (fp *FinancialProfile) Clean() {
	if fp.HouseholdSize == 0 {
		fp.HouseholdSize = 1
	}
	if fp.NumberInCollege == 0 {
		fp.NumberInCollege = 1
	}
	fp.Dependency = core.CleanString(fp.Dependency, true /* lower */)
	if fp.Dependency == "" {
		fp.Dependency = Dependent
	}
	fp.State = strings.ToUpper(core.CleanString(fp.State))
}

func (fp *FinancialProfile) Validate(validate *validator.Validate) error {
	fp.Clean()
	return validate.Struct(fp)
}

// OnboardingAnswers is the questionnaire blob; some answers are denormalized onto User.
type OnboardingAnswers struct {
	Persona          string                 `json:"persona,omitempty" validate:"omitempty,oneof=student parent counselor transfer adult_learner"`
	Goals            []string               `json:"goals,omitempty" validate:"omitempty,max=5,dive,notblank"`
	GradeLevel       string                 `json:"grade_level,omitempty"`
	HomeState        string                 `json:"home_state,omitempty" validate:"omitempty,usstate"`
	PreferredStates  []string               `json:"preferred_states,omitempty" validate:"omitempty,max=10,dive,usstate"`
	PreferredSetting string                 `json:"preferred_setting,omitempty" validate:"omitempty,oneof=urban suburban rural"`
	PreferredSize    string                 `json:"preferred_size,omitempty" validate:"omitempty,oneof=small medium large"`
	IntendedMajors   []string               `json:"intended_majors,omitempty" validate:"omitempty,max=5,dive,notblank"`
	Budget           *float64               `json:"budget,omitempty" validate:"omitempty,gte=0"`
	Extra            map[string]interface{} `json:"extra,omitempty"`
}

func (oa *OnboardingAnswers) Validate(validate *validator.Validate) error {
	oa.Persona = core.CleanString(oa.Persona, true /* lower */)
	oa.Goals = core.CleanStrings(oa.Goals, true /* lower */)
	oa.HomeState = strings.ToUpper(core.CleanString(oa.HomeState))
	for i, s := range oa.PreferredStates {
		oa.PreferredStates[i] = strings.ToUpper(s)
	}
	oa.PreferredStates = core.CleanStrings(oa.PreferredStates)
	oa.PreferredSetting = core.CleanString(oa.PreferredSetting, true /* lower */)
	oa.PreferredSize = core.CleanString(oa.PreferredSize, true /* lower */)
	oa.IntendedMajors = core.CleanStrings(oa.IntendedMajors, true /* lower */)
	return validate.Struct(oa)
}

// Merge overlays the answers set in `other` on top of oa.
func (oa OnboardingAnswers) Merge(other OnboardingAnswers) OnboardingAnswers {
	if other.Persona != "" {
		oa.Persona = other.Persona
	}
	if other.Goals != nil {
		oa.Goals = other.Goals
	}
	if other.GradeLevel != "" {
		oa.GradeLevel = other.GradeLevel
	}
	if other.HomeState != "" {
		oa.HomeState = other.HomeState
	}
	if other.PreferredStates != nil {
		oa.PreferredStates = other.PreferredStates
	}
	if other.PreferredSetting != "" {
		oa.PreferredSetting = other.PreferredSetting
	}
	if other.PreferredSize != "" {
		oa.PreferredSize = other.PreferredSize
	}
	if other.IntendedMajors != nil {
		oa.IntendedMajors = other.IntendedMajors
	}
	if other.Budget != nil {
		oa.Budget = other.Budget
	}
	if len(other.Extra) > 0 {
		extra := make(map[string]interface{}, len(oa.Extra)+len(other.Extra))
		for k, v := range oa.Extra {
			extra[k] = v
		}
		for k, v := range other.Extra {
			extra[k] = v
		}
		oa.Extra = extra
	}
	return oa
}

// Value implements driver.Valuer so the answers are stored as JSONB.
func (oa OnboardingAnswers) Value() (driver.Value, error) {
	return json.Marshal(oa)
}

// Scan implements sql.Scanner.
func (oa *OnboardingAnswers) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*oa = OnboardingAnswers{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.Errorf("scanning OnboardingAnswers: unsupported type %T", src)
	}
	return json.Unmarshal(data, oa)
}

// Snapshot bundles a user with the profiles used for personalization.
type Snapshot struct {
	User      User
	Academic  *AcademicProfile
	Financial *FinancialProfile
}

type GetFilter struct {
	ID         string
	ExternalID string
	Email      string
}

// OrderingFields maps orderable fields to their column.
var OrderingFields = map[string]string{
	"name":       "name",
	"email":      "email",
	"created_at": "created_at",
	"last_seen":  "last_seen",
}

// Sort orders users in memory; the default is newest first.
func Sort(users []User, ordering []core.DBOrdering) {
	keys := make([]core.DBOrdering, 0, len(ordering)+1)
	for _, ord := range ordering {
		if _, ok := OrderingFields[ord.Field]; ok {
			keys = append(keys, ord)
		}
	}
	keys = append(keys, core.DBOrdering{Field: "created_at"})

	sort.SliceStable(users, func(i, j int) bool {
		a, b := users[i], users[j]
		for _, key := range keys {
			var c int
			switch key.Field {
			case "name":
				c = strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
			case "email":
				c = strings.Compare(a.Email, b.Email)
			case "created_at":
				c = compareTime(a.CreatedAt, b.CreatedAt)
			case "last_seen":
				c = compareTime(a.LastSeen, b.LastSeen)
			}
			if c == 0 {
				continue
			}
			if key.Ascending {
				return c < 0
			}
			return c > 0
		}
		return a.ID < b.ID
	})
}

func compareTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

type QueryFilter struct {
	Search      string   `query:"search"`
	AccountType string   `query:"account_type"`
	Roles       []string `query:"role"`
	IsActive    *bool    `query:"-"` // parsed by the handler
	Persona     string   `query:"persona"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.AccountType = core.CleanString(qf.AccountType, true /* lower */)
	qf.Persona = core.CleanString(qf.Persona, true /* lower */)
}

// Matches applies the filter in memory; used by non-SQL repositories.
func (qf *QueryFilter) Matches(usr User) bool {
	if qf == nil {
		return true
	}
	if qf.Search != "" {
		s := strings.ToLower(qf.Search)
		if !strings.Contains(strings.ToLower(usr.Name), s) && !strings.Contains(strings.ToLower(usr.Email), s) {
			return false
		}
	}
	if qf.AccountType != "" && usr.AccountType != qf.AccountType {
		return false
	}
	if qf.IsActive != nil && usr.IsActive != *qf.IsActive {
		return false
	}
	if qf.Persona != "" && usr.Persona != qf.Persona {
		return false
	}
	if len(qf.Roles) > 0 {
		var found bool
		for _, role := range qf.Roles {
			if usr.RoleStartsWith(role) {
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
