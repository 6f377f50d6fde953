package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Benouakrim/Academora-02-sub002/core"
	"github.com/Benouakrim/Academora-02-sub002/core/university"
)

const universityColumns = `id, name, slug, city, state, region, setting, control, size, website,
	tuition_in_state, tuition_out_state, room_board, books_supplies, other_expenses, acceptance_rate,
	sat_25, sat_75, act_25, act_75, avg_gpa, graduation_rate, retention_rate, median_earnings,
	employment_rate, national_rank, rating_academics, rating_campus_life, rating_diversity,
	rating_value, rating_satisfaction, pct_need_met, avg_merit_aid, pell_share, popular_majors,
	claimed_by, created_at, updated_at`

const universityInsert = `INSERT INTO university (` + universityColumns + `) VALUES (:id, :name, :slug,
	:city, :state, :region, :setting, :control, :size, :website, :tuition_in_state, :tuition_out_state,
	:room_board, :books_supplies, :other_expenses, :acceptance_rate, :sat_25, :sat_75, :act_25, :act_75,
	:avg_gpa, :graduation_rate, :retention_rate, :median_earnings, :employment_rate, :national_rank,
	:rating_academics, :rating_campus_life, :rating_diversity, :rating_value, :rating_satisfaction,
	:pct_need_met, :avg_merit_aid, :pell_share, :popular_majors, :claimed_by, :created_at, :updated_at)`

const universitySlugKey = "university_slug_key"

type universityRow struct {
	ID                 string         `db:"id"`
	Name               string         `db:"name"`
	Slug               string         `db:"slug"`
	City               string         `db:"city"`
	State              string         `db:"state"`
	Region             string         `db:"region"`
	Setting            string         `db:"setting"`
	Control            string         `db:"control"`
	Size               int            `db:"size"`
	Website            string         `db:"website"`
	TuitionInState     float64        `db:"tuition_in_state"`
	TuitionOutState    float64        `db:"tuition_out_state"`
	RoomBoard          float64        `db:"room_board"`
	BooksSupplies      float64        `db:"books_supplies"`
	OtherExpenses      float64        `db:"other_expenses"`
	AcceptanceRate     null.Float64   `db:"acceptance_rate"`
	SAT25              null.Int       `db:"sat_25"`
	SAT75              null.Int       `db:"sat_75"`
	ACT25              null.Int       `db:"act_25"`
	ACT75              null.Int       `db:"act_75"`
	AvgGPA             null.Float64   `db:"avg_gpa"`
	GraduationRate     null.Float64   `db:"graduation_rate"`
	RetentionRate      null.Float64   `db:"retention_rate"`
	MedianEarnings     null.Float64   `db:"median_earnings"`
	EmploymentRate     null.Float64   `db:"employment_rate"`
	NationalRank       null.Int       `db:"national_rank"`
	RatingAcademics    null.Float64   `db:"rating_academics"`
	RatingCampusLife   null.Float64   `db:"rating_campus_life"`
	RatingDiversity    null.Float64   `db:"rating_diversity"`
	RatingValue        null.Float64   `db:"rating_value"`
	RatingSatisfaction null.Float64   `db:"rating_satisfaction"`
	PctNeedMet         null.Float64   `db:"pct_need_met"`
	AvgMeritAid        null.Float64   `db:"avg_merit_aid"`
	PellShare          null.Float64   `db:"pell_share"`
	PopularMajors      pq.StringArray `db:"popular_majors"`
	ClaimedBy          null.String    `db:"claimed_by"`
	CreatedAt          time.Time      `db:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at"`
}

func toUniversityRow(u university.University) universityRow {
	majors := u.PopularMajors
	if majors == nil {
		majors = []string{}
	}
	return universityRow{
		ID:                 u.ID,
		Name:               u.Name,
		Slug:               u.Slug,
		City:               u.City,
		State:              u.State,
		Region:             u.Region,
		Setting:            u.Setting,
		Control:            u.Control,
		Size:               u.Size,
		Website:            u.Website,
		TuitionInState:     u.TuitionInState,
		TuitionOutState:    u.TuitionOutState,
		RoomBoard:          u.RoomBoard,
		BooksSupplies:      u.BooksSupplies,
		OtherExpenses:      u.OtherExpenses,
		AcceptanceRate:     null.Float64FromPtr(u.AcceptanceRate),
		SAT25:              null.IntFromPtr(u.SAT25),
		SAT75:              null.IntFromPtr(u.SAT75),
		ACT25:              null.IntFromPtr(u.ACT25),
		ACT75:              null.IntFromPtr(u.ACT75),
		AvgGPA:             null.Float64FromPtr(u.AvgGPA),
		GraduationRate:     null.Float64FromPtr(u.GraduationRate),
		RetentionRate:      null.Float64FromPtr(u.RetentionRate),
		MedianEarnings:     null.Float64FromPtr(u.MedianEarnings),
		EmploymentRate:     null.Float64FromPtr(u.EmploymentRate),
		NationalRank:       null.IntFromPtr(u.NationalRank),
		RatingAcademics:    null.Float64FromPtr(u.Ratings.Academics),
		RatingCampusLife:   null.Float64FromPtr(u.Ratings.CampusLife),
		RatingDiversity:    null.Float64FromPtr(u.Ratings.Diversity),
		RatingValue:        null.Float64FromPtr(u.Ratings.Value),
		RatingSatisfaction: null.Float64FromPtr(u.Ratings.Satisfaction),
		PctNeedMet:         null.Float64FromPtr(u.PctNeedMet),
		AvgMeritAid:        null.Float64FromPtr(u.AvgMeritAid),
		PellShare:          null.Float64FromPtr(u.PellShare),
		PopularMajors:      majors,
		ClaimedBy:          null.NewString(u.ClaimedBy, u.ClaimedBy != ""),
		CreatedAt:          u.CreatedAt.UTC(),
		UpdatedAt:          u.UpdatedAt.UTC(),
	}
}

func (r universityRow) university() university.University {
	return university.University{
		ID:   r.ID,
		Slug: r.Slug,
		Attributes: university.Attributes{
			Name:            r.Name,
			City:            r.City,
			State:           r.State,
			Setting:         r.Setting,
			Control:         r.Control,
			Size:            r.Size,
			Website:         r.Website,
			TuitionInState:  r.TuitionInState,
			TuitionOutState: r.TuitionOutState,
			RoomBoard:       r.RoomBoard,
			BooksSupplies:   r.BooksSupplies,
			OtherExpenses:   r.OtherExpenses,
			AcceptanceRate:  r.AcceptanceRate.Ptr(),
			SAT25:           r.SAT25.Ptr(),
			SAT75:           r.SAT75.Ptr(),
			ACT25:           r.ACT25.Ptr(),
			ACT75:           r.ACT75.Ptr(),
			AvgGPA:          r.AvgGPA.Ptr(),
			GraduationRate:  r.GraduationRate.Ptr(),
			RetentionRate:   r.RetentionRate.Ptr(),
			MedianEarnings:  r.MedianEarnings.Ptr(),
			EmploymentRate:  r.EmploymentRate.Ptr(),
			NationalRank:    r.NationalRank.Ptr(),
			Ratings: university.Ratings{
				Academics:    r.RatingAcademics.Ptr(),
				CampusLife:   r.RatingCampusLife.Ptr(),
				Diversity:    r.RatingDiversity.Ptr(),
				Value:        r.RatingValue.Ptr(),
				Satisfaction: r.RatingSatisfaction.Ptr(),
			},
			PctNeedMet:    r.PctNeedMet.Ptr(),
			AvgMeritAid:   r.AvgMeritAid.Ptr(),
			PellShare:     r.PellShare.Ptr(),
			PopularMajors: []string(r.PopularMajors),
		},
		Region:    r.Region,
		ClaimedBy: r.ClaimedBy.String,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

func universities(rows []universityRow) []university.University {
	univs := make([]university.University, 0, len(rows))
	for _, r := range rows {
		univs = append(univs, r.university())
	}
	return univs
}

type universityRepository struct {
	db *sqlx.DB
}

var _ university.Repository = (*universityRepository)(nil) // interface compliance check

func NewUniversityRepository(db *sqlx.DB) university.Repository {
	return &universityRepository{db: db}
}

func (repo *universityRepository) CreateUniversity(ctx context.Context, univ university.University) (university.University, error) {
	if _, err := repo.db.NamedExecContext(ctx, universityInsert, toUniversityRow(univ)); err != nil {
		if isUniqueViolation(err, universitySlugKey) {
			return university.University{}, university.ErrSlugExists
		}
		return university.University{}, errors.Wrap(err, "inserting university")
	}
	return univ, nil
}

func (repo *universityRepository) GetUniversity(ctx context.Context, filter university.GetFilter) (university.University, error) {
	var w where
	switch {
	case filter.ID != "":
		w.add("id = ?", filter.ID)
	case filter.Slug != "":
		w.add("slug = ?", filter.Slug)
	default:
		return university.University{}, university.ErrNotFound
	}

	var row universityRow
	q := repo.db.Rebind(`SELECT ` + universityColumns + ` FROM university` + w.String())
	if err := repo.db.GetContext(ctx, &row, q, w.args...); err != nil {
		return university.University{}, trapNoRowsErr(err, university.ErrNotFound, "getting university")
	}
	return row.university(), nil
}

func (repo *universityRepository) GetUniversitiesByID(ctx context.Context, ids ...string) ([]university.University, error) {
	rows := make([]universityRow, 0, len(ids))
	q := `SELECT ` + universityColumns + ` FROM university WHERE id = ANY($1) ORDER BY array_position($1, id::text)`
	if err := repo.db.SelectContext(ctx, &rows, q, pq.StringArray(ids)); err != nil {
		return nil, errors.Wrap(err, "getting universities")
	}
	return universities(rows), nil
}

// searchWhere translates a SearchFilter; it mirrors SearchFilter.Matches.
func searchWhere(filter *university.SearchFilter) where {
	var w where
	if filter == nil {
		return w
	}
	if filter.Query != "" {
		w.add("(LOWER(name) LIKE ? OR LOWER(city) LIKE ?)", likePattern(filter.Query), likePattern(filter.Query))
	}
	if len(filter.States) > 0 {
		w.add("state = ANY(?)", pq.StringArray(filter.States))
	}
	if filter.Control != "" {
		w.add("control = ?", filter.Control)
	}
	if filter.Setting != "" {
		w.add("setting = ?", filter.Setting)
	}
	if min, max, ok := university.SizeRange(filter.Size); ok {
		w.add("size >= ?", min)
		if max > 0 {
			w.add("size <= ?", max)
		}
	}
	if filter.MaxTuition > 0 {
		inState := "control = '" + university.ControlPrivate + "'"
		args := []interface{}{}
		if filter.ResidentState != "" {
			inState += " OR state = ?"
			args = append(args, filter.ResidentState)
		}
		args = append(args, filter.MaxTuition)
		w.add("(CASE WHEN "+inState+" OR tuition_out_state = 0 THEN tuition_in_state ELSE tuition_out_state END) <= ?", args...)
	}
	if filter.MinAcceptance > 0 {
		w.add("acceptance_rate >= ?", filter.MinAcceptance)
	}
	if filter.MaxAcceptance > 0 {
		w.add("acceptance_rate <= ?", filter.MaxAcceptance)
	}
	if filter.SAT > 0 {
		w.add("sat_25 <= ?", filter.SAT)
	}
	if filter.Major != "" {
		w.add("EXISTS (SELECT 1 FROM unnest(popular_majors) AS m WHERE m LIKE ?)", likePattern(filter.Major))
	}
	return w
}

func (repo *universityRepository) SearchUniversities(ctx context.Context, filter *university.SearchFilter, ordering []core.DBOrdering, page core.Page) ([]university.University, int, error) {
	w := searchWhere(filter)

	var total int
	if err := repo.db.GetContext(ctx, &total, repo.db.Rebind(`SELECT COUNT(*) FROM university`+w.String()), w.args...); err != nil {
		return nil, 0, errors.Wrap(err, "counting universities")
	}

	rows := make([]universityRow, 0)
	q := `SELECT ` + universityColumns + ` FROM university` + w.String() +
		orderBy(ordering, university.OrderingFields, `"name" ASC`) + limitOffset(page)
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), w.args...); err != nil {
		return nil, 0, errors.Wrap(err, "searching universities")
	}
	return universities(rows), total, nil
}

func (repo *universityRepository) ListUniversityNames(ctx context.Context) ([]university.NameRef, error) {
	refs := make([]university.NameRef, 0)
	if err := repo.db.SelectContext(ctx, &refs, `SELECT id, slug, name FROM university ORDER BY name`); err != nil {
		return nil, errors.Wrap(err, "listing university names")
	}
	return refs, nil
}

func (repo *universityRepository) UpdateUniversity(ctx context.Context, univ university.University) (university.University, error) {
	q := `UPDATE university SET name = :name, slug = :slug, city = :city, state = :state, region = :region,
		setting = :setting, control = :control, size = :size, website = :website,
		tuition_in_state = :tuition_in_state, tuition_out_state = :tuition_out_state,
		room_board = :room_board, books_supplies = :books_supplies, other_expenses = :other_expenses,
		acceptance_rate = :acceptance_rate, sat_25 = :sat_25, sat_75 = :sat_75, act_25 = :act_25,
		act_75 = :act_75, avg_gpa = :avg_gpa, graduation_rate = :graduation_rate,
		retention_rate = :retention_rate, median_earnings = :median_earnings,
		employment_rate = :employment_rate, national_rank = :national_rank,
		rating_academics = :rating_academics, rating_campus_life = :rating_campus_life,
		rating_diversity = :rating_diversity, rating_value = :rating_value,
		rating_satisfaction = :rating_satisfaction, pct_need_met = :pct_need_met,
		avg_merit_aid = :avg_merit_aid, pell_share = :pell_share, popular_majors = :popular_majors,
		claimed_by = :claimed_by, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, toUniversityRow(univ))
	if err != nil {
		if isUniqueViolation(err, universitySlugKey) {
			return university.University{}, university.ErrSlugExists
		}
		return university.University{}, errors.Wrap(err, "updating university")
	}
	if err = checkAffected(res, university.ErrNotFound); err != nil {
		return university.University{}, err
	}
	return univ, nil
}

func (repo *universityRepository) DeleteUniversity(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM university WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting university")
	}
	return checkAffected(res, university.ErrNotFound)
}

func (repo *universityRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	if err := repo.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM university WHERE slug = $1)`, slug); err != nil {
		return false, errors.Wrap(err, "checking university slug")
	}
	return exists, nil
}

func (repo *universityRepository) SaveUniversity(ctx context.Context, saved university.SavedUniversity) (university.SavedUniversity, error) {
	univ, err := repo.GetUniversity(ctx, university.GetFilter{ID: saved.UniversityID})
	if err != nil {
		return university.SavedUniversity{}, err
	}
	q := `INSERT INTO saved_university (user_id, university_id, note, created_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, university_id) DO UPDATE SET note = EXCLUDED.note
		RETURNING created_at`
	var createdAt time.Time
	if err = repo.db.GetContext(ctx, &createdAt, q, saved.UserID, saved.UniversityID, saved.Note, saved.CreatedAt.UTC()); err != nil {
		return university.SavedUniversity{}, errors.Wrap(err, "saving university")
	}
	saved.CreatedAt = createdAt.UTC()
	saved.University = univ
	return saved, nil
}

func (repo *universityRepository) UnsaveUniversity(ctx context.Context, userID, universityID string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM saved_university WHERE user_id = $1 AND university_id = $2`, userID, universityID)
	if err != nil {
		return errors.Wrap(err, "unsaving university")
	}
	return checkAffected(res, university.ErrNotSaved)
}

type savedRow struct {
	UserID  string    `db:"saved_user_id"`
	Note    string    `db:"saved_note"`
	SavedAt time.Time `db:"saved_at"`
	universityRow
}

func (repo *universityRepository) ListSaved(ctx context.Context, userID string) ([]university.SavedUniversity, error) {
	rows := make([]savedRow, 0)
	q := `SELECT s.user_id AS saved_user_id, s.note AS saved_note, s.created_at AS saved_at, u.*
		FROM saved_university s JOIN university u ON u.id = s.university_id
		WHERE s.user_id = $1 ORDER BY s.created_at DESC, s.university_id`
	if err := repo.db.SelectContext(ctx, &rows, q, userID); err != nil {
		return nil, errors.Wrap(err, "listing saved universities")
	}
	list := make([]university.SavedUniversity, 0, len(rows))
	for _, r := range rows {
		list = append(list, university.SavedUniversity{
			UserID:       r.UserID,
			UniversityID: r.ID,
			Note:         r.Note,
			CreatedAt:    r.SavedAt.UTC(),
			University:   r.university(),
		})
	}
	return list, nil
}

func (repo *universityRepository) CountSaves(ctx context.Context, universityID string) (int, error) {
	var n int
	if err := repo.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM saved_university WHERE university_id = $1`, universityID); err != nil {
		return 0, errors.Wrap(err, "counting saves")
	}
	return n, nil
}
