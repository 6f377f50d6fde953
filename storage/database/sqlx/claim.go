package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Benouakrim/Academora-02-sub002/core"
	"github.com/Benouakrim/Academora-02-sub002/core/claim"
)

const claimColumns = `id, university_id, claimant_id, title, contact_email, document_urls, message,
	status, review_note, reviewed_by, email_verified, created_at, updated_at`

type claimRow struct {
	ID            string         `db:"id"`
	UniversityID  string         `db:"university_id"`
	ClaimantID    string         `db:"claimant_id"`
	Title         string         `db:"title"`
	ContactEmail  string         `db:"contact_email"`
	DocumentURLs  pq.StringArray `db:"document_urls"`
	Message       string         `db:"message"`
	Status        string         `db:"status"`
	ReviewNote    string         `db:"review_note"`
	ReviewedBy    null.String    `db:"reviewed_by"`
	EmailVerified bool           `db:"email_verified"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

func toClaimRow(c claim.Claim) claimRow {
	docs := c.DocumentURLs
	if docs == nil {
		docs = []string{}
	}
	return claimRow{
		ID:            c.ID,
		UniversityID:  c.UniversityID,
		ClaimantID:    c.ClaimantID,
		Title:         c.Title,
		ContactEmail:  c.ContactEmail,
		DocumentURLs:  docs,
		Message:       c.Message,
		Status:        c.Status,
		ReviewNote:    c.ReviewNote,
		ReviewedBy:    null.NewString(c.ReviewedBy, c.ReviewedBy != ""),
		EmailVerified: c.EmailVerified,
		CreatedAt:     c.CreatedAt.UTC(),
		UpdatedAt:     c.UpdatedAt.UTC(),
	}
}

func (r claimRow) claim() claim.Claim {
	return claim.Claim{
		ID:            r.ID,
		UniversityID:  r.UniversityID,
		ClaimantID:    r.ClaimantID,
		Title:         r.Title,
		ContactEmail:  r.ContactEmail,
		DocumentURLs:  []string(r.DocumentURLs),
		Message:       r.Message,
		Status:        r.Status,
		ReviewNote:    r.ReviewNote,
		ReviewedBy:    r.ReviewedBy.String,
		EmailVerified: r.EmailVerified,
		CreatedAt:     r.CreatedAt.UTC(),
		UpdatedAt:     r.UpdatedAt.UTC(),
	}
}

type claimRepository struct {
	db *sqlx.DB
}

var _ claim.Repository = (*claimRepository)(nil) // interface compliance check

func NewClaimRepository(db *sqlx.DB) claim.Repository {
	return &claimRepository{db: db}
}

func (repo *claimRepository) CreateClaim(ctx context.Context, c claim.Claim) (claim.Claim, error) {
	q := `INSERT INTO claim (` + claimColumns + `) VALUES (:id, :university_id, :claimant_id, :title,
		:contact_email, :document_urls, :message, :status, :review_note, :reviewed_by, :email_verified,
		:created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, toClaimRow(c)); err != nil {
		return claim.Claim{}, errors.Wrap(err, "inserting claim")
	}
	return c, nil
}

func (repo *claimRepository) GetClaim(ctx context.Context, id string) (claim.Claim, error) {
	var row claimRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+claimColumns+` FROM claim WHERE id = $1`, id); err != nil {
		return claim.Claim{}, trapNoRowsErr(err, claim.ErrNotFound, "getting claim")
	}
	return row.claim(), nil
}

func (repo *claimRepository) QueryClaims(ctx context.Context, filter *claim.QueryFilter, page core.Page) ([]claim.Claim, int, error) {
	var w where
	if filter != nil {
		if filter.UniversityID != "" {
			w.add("university_id = ?", filter.UniversityID)
		}
		if filter.ClaimantID != "" {
			w.add("claimant_id = ?", filter.ClaimantID)
		}
		if filter.Status != "" {
			w.add("status = ?", filter.Status)
		}
		if len(filter.Statuses) > 0 {
			w.add("status = ANY(?)", pq.StringArray(filter.Statuses))
		}
	}

	var total int
	if err := repo.db.GetContext(ctx, &total, repo.db.Rebind(`SELECT COUNT(*) FROM claim`+w.String()), w.args...); err != nil {
		return nil, 0, errors.Wrap(err, "counting claims")
	}

	rows := make([]claimRow, 0)
	q := `SELECT ` + claimColumns + ` FROM claim` + w.String() + ` ORDER BY created_at DESC, id` + limitOffset(page)
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), w.args...); err != nil {
		return nil, 0, errors.Wrap(err, "querying claims")
	}

	claims := make([]claim.Claim, 0, len(rows))
	for _, r := range rows {
		claims = append(claims, r.claim())
	}
	return claims, total, nil
}

func (repo *claimRepository) UpdateClaim(ctx context.Context, c claim.Claim) (claim.Claim, error) {
	q := `UPDATE claim SET title = :title, contact_email = :contact_email, document_urls = :document_urls,
		message = :message, status = :status, review_note = :review_note, reviewed_by = :reviewed_by,
		email_verified = :email_verified, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, toClaimRow(c))
	if err != nil {
		return claim.Claim{}, errors.Wrap(err, "updating claim")
	}
	if err = checkAffected(res, claim.ErrNotFound); err != nil {
		return claim.Claim{}, err
	}
	return c, nil
}
