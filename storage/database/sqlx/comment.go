package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Benouakrim/Academora-02-sub002/core/comment"
)

const commentColumns = `id, article_id, author_id, parent_id, content, is_deleted, created_at, updated_at`

type commentRow struct {
	ID        string      `db:"id"`
	ArticleID string      `db:"article_id"`
	AuthorID  string      `db:"author_id"`
	ParentID  null.String `db:"parent_id"`
	Content   string      `db:"content"`
	IsDeleted bool        `db:"is_deleted"`
	CreatedAt time.Time   `db:"created_at"`
	UpdatedAt time.Time   `db:"updated_at"`
}

func toCommentRow(c comment.Comment) commentRow {
	return commentRow{
		ID:        c.ID,
		ArticleID: c.ArticleID,
		AuthorID:  c.AuthorID,
		ParentID:  null.NewString(c.ParentID, c.ParentID != ""),
		Content:   c.Content,
		IsDeleted: c.IsDeleted,
		CreatedAt: c.CreatedAt.UTC(),
		UpdatedAt: c.UpdatedAt.UTC(),
	}
}

func (r commentRow) comment() comment.Comment {
	return comment.Comment{
		ID:        r.ID,
		ArticleID: r.ArticleID,
		AuthorID:  r.AuthorID,
		ParentID:  r.ParentID.String,
		Content:   r.Content,
		IsDeleted: r.IsDeleted,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

type commentRepository struct {
	db *sqlx.DB
}

var _ comment.Repository = (*commentRepository)(nil) // interface compliance check

func NewCommentRepository(db *sqlx.DB) comment.Repository {
	return &commentRepository{db: db}
}

func (repo *commentRepository) CreateComment(ctx context.Context, c comment.Comment) (comment.Comment, error) {
	q := `INSERT INTO comment (` + commentColumns + `) VALUES (:id, :article_id, :author_id, :parent_id,
		:content, :is_deleted, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, toCommentRow(c)); err != nil {
		return comment.Comment{}, errors.Wrap(err, "inserting comment")
	}
	return c, nil
}

func (repo *commentRepository) GetComment(ctx context.Context, id string) (comment.Comment, error) {
	var row commentRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+commentColumns+` FROM comment WHERE id = $1`, id); err != nil {
		return comment.Comment{}, trapNoRowsErr(err, comment.ErrNotFound, "getting comment")
	}
	return row.comment(), nil
}

func (repo *commentRepository) ListComments(ctx context.Context, articleID string) ([]comment.Comment, error) {
	rows := make([]commentRow, 0)
	q := `SELECT ` + commentColumns + ` FROM comment WHERE article_id = $1 ORDER BY created_at, id`
	if err := repo.db.SelectContext(ctx, &rows, q, articleID); err != nil {
		return nil, errors.Wrap(err, "listing comments")
	}
	list := make([]comment.Comment, 0, len(rows))
	for _, r := range rows {
		list = append(list, r.comment())
	}
	return list, nil
}

func (repo *commentRepository) UpdateComment(ctx context.Context, c comment.Comment) (comment.Comment, error) {
	q := `UPDATE comment SET content = :content, is_deleted = :is_deleted, updated_at = :updated_at WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, toCommentRow(c))
	if err != nil {
		return comment.Comment{}, errors.Wrap(err, "updating comment")
	}
	if err = checkAffected(res, comment.ErrNotFound); err != nil {
		return comment.Comment{}, err
	}
	return c, nil
}

// DeleteComment relies on the parent_id ON DELETE CASCADE to remove the subtree.
func (repo *commentRepository) DeleteComment(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM comment WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting comment")
	}
	return checkAffected(res, comment.ErrNotFound)
}

func (repo *commentRepository) CountReplies(ctx context.Context, id string) (int, error) {
	var n int
	if err := repo.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM comment WHERE parent_id = $1`, id); err != nil {
		return 0, errors.Wrap(err, "counting replies")
	}
	return n, nil
}
