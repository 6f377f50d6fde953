package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Benouakrim/Academora-02-sub002/core"
	"github.com/Benouakrim/Academora-02-sub002/core/user"
)

const userColumns = `id, external_id, email, name, account_type, roles, is_active, profile_visibility,
	show_saved, email_notifications, allow_analytics, onboarding_completed, onboarding_answers,
	persona, primary_goal, created_at, updated_at, last_seen`

type userRow struct {
	ID                  string                 `db:"id"`
	ExternalID          string                 `db:"external_id"`
	Email               string                 `db:"email"`
	Name                string                 `db:"name"`
	AccountType         string                 `db:"account_type"`
	Roles               pq.StringArray         `db:"roles"`
	IsActive            bool                   `db:"is_active"`
	ProfileVisibility   string                 `db:"profile_visibility"`
	ShowSaved           bool                   `db:"show_saved"`
	EmailNotifications  bool                   `db:"email_notifications"`
	AllowAnalytics      bool                   `db:"allow_analytics"`
	OnboardingCompleted bool                   `db:"onboarding_completed"`
	OnboardingAnswers   user.OnboardingAnswers `db:"onboarding_answers"`
	Persona             string                 `db:"persona"`
	PrimaryGoal         string                 `db:"primary_goal"`
	CreatedAt           time.Time              `db:"created_at"`
	UpdatedAt           time.Time              `db:"updated_at"`
	LastSeen            null.Time              `db:"last_seen"`
}

func toUserRow(usr user.User) userRow {
	roles := usr.Roles
	if roles == nil {
		roles = []string{}
	}
	return userRow{
		ID:                  usr.ID,
		ExternalID:          usr.ExternalID,
		Email:               usr.Email,
		Name:                usr.Name,
		AccountType:         usr.AccountType,
		Roles:               roles,
		IsActive:            usr.IsActive,
		ProfileVisibility:   usr.Privacy.ProfileVisibility,
		ShowSaved:           usr.Privacy.ShowSavedUniversities,
		EmailNotifications:  usr.Privacy.EmailNotifications,
		AllowAnalytics:      usr.Privacy.AllowAnalytics,
		OnboardingCompleted: usr.OnboardingCompleted,
		OnboardingAnswers:   usr.OnboardingAnswers,
		Persona:             usr.Persona,
		PrimaryGoal:         usr.PrimaryGoal,
		CreatedAt:           usr.CreatedAt.UTC(),
		UpdatedAt:           usr.UpdatedAt.UTC(),
		LastSeen:            null.NewTime(usr.LastSeen.UTC(), !usr.LastSeen.IsZero()),
	}
}

func (r userRow) user() user.User {
	return user.User{
		ID:          r.ID,
		ExternalID:  r.ExternalID,
		Email:       r.Email,
		Name:        r.Name,
		AccountType: r.AccountType,
		Roles:       []string(r.Roles),
		IsActive:    r.IsActive,
		Privacy: user.PrivacySettings{
			ProfileVisibility:     r.ProfileVisibility,
			ShowSavedUniversities: r.ShowSaved,
			EmailNotifications:    r.EmailNotifications,
			AllowAnalytics:        r.AllowAnalytics,
		},
		OnboardingCompleted: r.OnboardingCompleted,
		Persona:             r.Persona,
		PrimaryGoal:         r.PrimaryGoal,
		OnboardingAnswers:   r.OnboardingAnswers,
		CreatedAt:           r.CreatedAt.UTC(),
		UpdatedAt:           r.UpdatedAt.UTC(),
		LastSeen:            r.LastSeen.Time.UTC(),
	}
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := `INSERT INTO "user" (` + userColumns + `) VALUES (:id, :external_id, :email, :name, :account_type,
		:roles, :is_active, :profile_visibility, :show_saved, :email_notifications, :allow_analytics,
		:onboarding_completed, :onboarding_answers, :persona, :primary_goal, :created_at, :updated_at, :last_seen)`
	if _, err := repo.db.NamedExecContext(ctx, q, toUserRow(usr)); err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	var w where
	switch {
	case filter.ID != "":
		w.add("id = ?", filter.ID)
	case filter.ExternalID != "":
		w.add("external_id = ?", filter.ExternalID)
	case filter.Email != "":
		w.add("email = ?", filter.Email)
	default:
		return user.User{}, user.ErrNotFound
	}

	var row userRow
	q := repo.db.Rebind(`SELECT ` + userColumns + ` FROM "user"` + w.String() + ` LIMIT 1`)
	if err := repo.db.GetContext(ctx, &row, q, w.args...); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "getting user")
	}
	return row.user(), nil
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering, page core.Page) ([]user.User, int, error) {
	var w where
	if filter != nil {
		if filter.Search != "" {
			w.add("(LOWER(name) LIKE ? OR LOWER(email) LIKE ?)", likePattern(filter.Search), likePattern(filter.Search))
		}
		if filter.AccountType != "" {
			w.add("account_type = ?", filter.AccountType)
		}
		if filter.IsActive != nil {
			w.add("is_active = ?", *filter.IsActive)
		}
		if filter.Persona != "" {
			w.add("persona = ?", filter.Persona)
		}
		if len(filter.Roles) > 0 {
			prefixes := make([]string, 0, len(filter.Roles))
			for _, role := range filter.Roles {
				prefixes = append(prefixes, role+"%")
			}
			w.add("EXISTS (SELECT 1 FROM unnest(roles) AS r WHERE r LIKE ANY(?))", pq.StringArray(prefixes))
		}
	}

	var total int
	if err := repo.db.GetContext(ctx, &total, repo.db.Rebind(`SELECT COUNT(*) FROM "user"`+w.String()), w.args...); err != nil {
		return nil, 0, errors.Wrap(err, "counting users")
	}

	rows := make([]userRow, 0)
	q := `SELECT ` + userColumns + ` FROM "user"` + w.String() +
		orderBy(ordering, user.OrderingFields, `"created_at" DESC`) + limitOffset(page)
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), w.args...); err != nil {
		return nil, 0, errors.Wrap(err, "querying users")
	}

	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.user())
	}
	return users, total, nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := `UPDATE "user" SET external_id = :external_id, email = :email, name = :name,
		account_type = :account_type, roles = :roles, is_active = :is_active,
		profile_visibility = :profile_visibility, show_saved = :show_saved,
		email_notifications = :email_notifications, allow_analytics = :allow_analytics,
		onboarding_completed = :onboarding_completed, onboarding_answers = :onboarding_answers,
		persona = :persona, primary_goal = :primary_goal, updated_at = :updated_at, last_seen = :last_seen
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, toUserRow(usr))
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if err = checkAffected(res, user.ErrNotFound); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM "user" WHERE id = ANY($1)`, pq.StringArray(ids)); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return nil
}

type academicRow struct {
	UserID         string         `db:"user_id"`
	GPA            null.Float64   `db:"gpa"`
	WeightedGPA    null.Float64   `db:"weighted_gpa"`
	SAT            null.Int       `db:"sat"`
	ACT            null.Int       `db:"act"`
	ClassRankPct   null.Float64   `db:"class_rank_pct"`
	APCount        int            `db:"ap_count"`
	IntendedMajors pq.StringArray `db:"intended_majors"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

func (repo *userRepository) GetAcademicProfile(ctx context.Context, userID string) (user.AcademicProfile, error) {
	var row academicRow
	q := `SELECT user_id, gpa, weighted_gpa, sat, act, class_rank_pct, ap_count, intended_majors, updated_at
		FROM academic_profile WHERE user_id = $1`
	if err := repo.db.GetContext(ctx, &row, q, userID); err != nil {
		return user.AcademicProfile{}, trapNoRowsErr(err, user.ErrProfileNotFound, "getting academic profile")
	}
	return user.AcademicProfile{
		UserID:         row.UserID,
		GPA:            row.GPA.Ptr(),
		WeightedGPA:    row.WeightedGPA.Ptr(),
		SAT:            row.SAT.Ptr(),
		ACT:            row.ACT.Ptr(),
		ClassRankPct:   row.ClassRankPct.Ptr(),
		APCount:        row.APCount,
		IntendedMajors: []string(row.IntendedMajors),
		UpdatedAt:      row.UpdatedAt.UTC(),
	}, nil
}

func (repo *userRepository) UpsertAcademicProfile(ctx context.Context, ap user.AcademicProfile) (user.AcademicProfile, error) {
	majors := ap.IntendedMajors
	if majors == nil {
		majors = []string{}
	}
	row := academicRow{
		UserID:         ap.UserID,
		GPA:            null.Float64FromPtr(ap.GPA),
		WeightedGPA:    null.Float64FromPtr(ap.WeightedGPA),
		SAT:            null.IntFromPtr(ap.SAT),
		ACT:            null.IntFromPtr(ap.ACT),
		ClassRankPct:   null.Float64FromPtr(ap.ClassRankPct),
		APCount:        ap.APCount,
		IntendedMajors: majors,
		UpdatedAt:      ap.UpdatedAt.UTC(),
	}
	q := `INSERT INTO academic_profile (user_id, gpa, weighted_gpa, sat, act, class_rank_pct, ap_count, intended_majors, updated_at)
		VALUES (:user_id, :gpa, :weighted_gpa, :sat, :act, :class_rank_pct, :ap_count, :intended_majors, :updated_at)
		ON CONFLICT (user_id) DO UPDATE SET gpa = EXCLUDED.gpa, weighted_gpa = EXCLUDED.weighted_gpa,
		sat = EXCLUDED.sat, act = EXCLUDED.act, class_rank_pct = EXCLUDED.class_rank_pct,
		ap_count = EXCLUDED.ap_count, intended_majors = EXCLUDED.intended_majors, updated_at = EXCLUDED.updated_at`
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		return user.AcademicProfile{}, errors.Wrap(err, "upserting academic profile")
	}
	ap.IntendedMajors = majors
	return ap, nil
}

type financialRow struct {
	UserID             string       `db:"user_id"`
	HouseholdIncome    float64      `db:"household_income"`
	ParentAssets       float64      `db:"parent_assets"`
	StudentIncome      float64      `db:"student_income"`
	StudentAssets      float64      `db:"student_assets"`
	HouseholdSize      int          `db:"household_size"`
	NumberInCollege    int          `db:"number_in_college"`
	Dependency         string       `db:"dependency"`
	State              string       `db:"state"`
	AnnualBudget       null.Float64 `db:"annual_budget"`
	FederalAidEligible bool         `db:"federal_aid_eligible"`
	UpdatedAt          time.Time    `db:"updated_at"`
}

func (repo *userRepository) GetFinancialProfile(ctx context.Context, userID string) (user.FinancialProfile, error) {
	var row financialRow
	q := `SELECT user_id, household_income, parent_assets, student_income, student_assets, household_size,
		number_in_college, dependency, state, annual_budget, federal_aid_eligible, updated_at
		FROM financial_profile WHERE user_id = $1`
	if err := repo.db.GetContext(ctx, &row, q, userID); err != nil {
		return user.FinancialProfile{}, trapNoRowsErr(err, user.ErrProfileNotFound, "getting financial profile")
	}
	return user.FinancialProfile{
		UserID:             row.UserID,
		HouseholdIncome:    row.HouseholdIncome,
		ParentAssets:       row.ParentAssets,
		StudentIncome:      row.StudentIncome,
		StudentAssets:      row.StudentAssets,
		HouseholdSize:      row.HouseholdSize,
		NumberInCollege:    row.NumberInCollege,
		Dependency:         row.Dependency,
		State:              row.State,
		AnnualBudget:       row.AnnualBudget.Ptr(),
		FederalAidEligible: row.FederalAidEligible,
		UpdatedAt:          row.UpdatedAt.UTC(),
	}, nil
}

func (repo *userRepository) UpsertFinancialProfile(ctx context.Context, fp user.FinancialProfile) (user.FinancialProfile, error) {
	row := financialRow{
		UserID:             fp.UserID,
		HouseholdIncome:    fp.HouseholdIncome,
		ParentAssets:       fp.ParentAssets,
		StudentIncome:      fp.StudentIncome,
		StudentAssets:      fp.StudentAssets,
		HouseholdSize:      fp.HouseholdSize,
		NumberInCollege:    fp.NumberInCollege,
		Dependency:         fp.Dependency,
		State:              fp.State,
		AnnualBudget:       null.Float64FromPtr(fp.AnnualBudget),
		FederalAidEligible: fp.FederalAidEligible,
		UpdatedAt:          fp.UpdatedAt.UTC(),
	}
	q := `INSERT INTO financial_profile (user_id, household_income, parent_assets, student_income, student_assets,
		household_size, number_in_college, dependency, state, annual_budget, federal_aid_eligible, updated_at)
		VALUES (:user_id, :household_income, :parent_assets, :student_income, :student_assets, :household_size,
		:number_in_college, :dependency, :state, :annual_budget, :federal_aid_eligible, :updated_at)
		ON CONFLICT (user_id) DO UPDATE SET household_income = EXCLUDED.household_income,
		parent_assets = EXCLUDED.parent_assets, student_income = EXCLUDED.student_income,
		student_assets = EXCLUDED.student_assets, household_size = EXCLUDED.household_size,
		number_in_college = EXCLUDED.number_in_college, dependency = EXCLUDED.dependency,
		state = EXCLUDED.state, annual_budget = EXCLUDED.annual_budget,
		federal_aid_eligible = EXCLUDED.federal_aid_eligible, updated_at = EXCLUDED.updated_at`
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		return user.FinancialProfile{}, errors.Wrap(err, "upserting financial profile")
	}
	return fp, nil
}
