package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/Benouakrim/Academora-02-sub002/core/referral"
)

const (
	codeColumns     = `id, code, owner_id, uses, max_uses, is_active, created_at`
	referralColumns = `id, code_id, referrer_id, referred_id, created_at`

	referredKey = "referral_referred_id_key"
)

type codeRow struct {
	ID        string    `db:"id"`
	Code      string    `db:"code"`
	OwnerID   string    `db:"owner_id"`
	Uses      int       `db:"uses"`
	MaxUses   int       `db:"max_uses"`
	IsActive  bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
}

func (r codeRow) code() referral.Code {
	return referral.Code{
		ID:        r.ID,
		Code:      r.Code,
		OwnerID:   r.OwnerID,
		Uses:      r.Uses,
		MaxUses:   r.MaxUses,
		IsActive:  r.IsActive,
		CreatedAt: r.CreatedAt.UTC(),
	}
}

type referralRow struct {
	ID         string    `db:"id"`
	CodeID     string    `db:"code_id"`
	ReferrerID string    `db:"referrer_id"`
	ReferredID string    `db:"referred_id"`
	CreatedAt  time.Time `db:"created_at"`
}

func (r referralRow) referral() referral.Referral {
	return referral.Referral{
		ID:         r.ID,
		CodeID:     r.CodeID,
		ReferrerID: r.ReferrerID,
		ReferredID: r.ReferredID,
		CreatedAt:  r.CreatedAt.UTC(),
	}
}

type referralRepository struct {
	db *sqlx.DB
}

var _ referral.Repository = (*referralRepository)(nil) // interface compliance check

func NewReferralRepository(db *sqlx.DB) referral.Repository {
	return &referralRepository{db: db}
}

func (repo *referralRepository) CreateCode(ctx context.Context, c referral.Code) (referral.Code, error) {
	q := `INSERT INTO referral_code (` + codeColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := repo.db.ExecContext(ctx, q, c.ID, c.Code, c.OwnerID, c.Uses, c.MaxUses, c.IsActive, c.CreatedAt.UTC()); err != nil {
		if isUniqueViolation(err) {
			return referral.Code{}, referral.ErrCodeExists
		}
		return referral.Code{}, errors.Wrap(err, "inserting referral code")
	}
	return c, nil
}

func (repo *referralRepository) getCode(ctx context.Context, column, value string) (referral.Code, error) {
	var row codeRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+codeColumns+` FROM referral_code WHERE `+column+` = $1`, value); err != nil {
		return referral.Code{}, trapNoRowsErr(err, referral.ErrNotFound, "getting referral code")
	}
	return row.code(), nil
}

func (repo *referralRepository) GetCodeByOwner(ctx context.Context, ownerID string) (referral.Code, error) {
	return repo.getCode(ctx, "owner_id", ownerID)
}

func (repo *referralRepository) GetCode(ctx context.Context, code string) (referral.Code, error) {
	return repo.getCode(ctx, "code", code)
}

func (repo *referralRepository) UpdateCode(ctx context.Context, c referral.Code) (referral.Code, error) {
	var row codeRow
	q := `UPDATE referral_code SET max_uses = $2, is_active = $3 WHERE id = $1 RETURNING ` + codeColumns
	if err := repo.db.GetContext(ctx, &row, q, c.ID, c.MaxUses, c.IsActive); err != nil {
		return referral.Code{}, trapNoRowsErr(err, referral.ErrNotFound, "updating referral code")
	}
	return row.code(), nil
}

// RecordReferral locks the code row so concurrent redemptions cannot exceed max_uses.
func (repo *referralRepository) RecordReferral(ctx context.Context, r referral.Referral) (err error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var row codeRow
	if err = tx.GetContext(ctx, &row, `SELECT `+codeColumns+` FROM referral_code WHERE id = $1 FOR UPDATE`, r.CodeID); err != nil {
		return trapNoRowsErr(err, referral.ErrNotFound, "locking referral code")
	}
	if row.code().Exhausted() {
		return referral.ErrExhausted
	}

	q := `INSERT INTO referral (` + referralColumns + `) VALUES ($1, $2, $3, $4, $5)`
	if _, err = tx.ExecContext(ctx, q, r.ID, r.CodeID, r.ReferrerID, r.ReferredID, r.CreatedAt.UTC()); err != nil {
		if isUniqueViolation(err, referredKey) {
			return referral.ErrAlreadyReferred
		}
		return errors.Wrap(err, "inserting referral")
	}
	if _, err = tx.ExecContext(ctx, `UPDATE referral_code SET uses = uses + 1 WHERE id = $1`, r.CodeID); err != nil {
		return errors.Wrap(err, "counting referral code use")
	}
	if err = tx.Commit(); err != nil && err != sql.ErrTxDone {
		return errors.Wrap(err, "committing referral")
	}
	return nil
}

func (repo *referralRepository) GetReferralByReferred(ctx context.Context, referredID string) (referral.Referral, error) {
	var row referralRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+referralColumns+` FROM referral WHERE referred_id = $1`, referredID); err != nil {
		return referral.Referral{}, trapNoRowsErr(err, referral.ErrReferralMissing, "getting referral")
	}
	return row.referral(), nil
}

func (repo *referralRepository) ListReferrals(ctx context.Context, referrerID string) ([]referral.Referral, error) {
	rows := make([]referralRow, 0)
	q := `SELECT ` + referralColumns + ` FROM referral WHERE referrer_id = $1 ORDER BY created_at, id`
	if err := repo.db.SelectContext(ctx, &rows, q, referrerID); err != nil {
		return nil, errors.Wrap(err, "listing referrals")
	}
	list := make([]referral.Referral, 0, len(rows))
	for _, r := range rows {
		list = append(list, r.referral())
	}
	return list, nil
}
