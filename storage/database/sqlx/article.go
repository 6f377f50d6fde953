package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Benouakrim/Academora-02-sub002/core"
	"github.com/Benouakrim/Academora-02-sub002/core/article"
)

const articleColumns = `id, author_id, title, slug, excerpt, content, category, tags, cover_image_url,
	status, review_note, reviewed_by, view_count, published_at, created_at, updated_at`

type articleRow struct {
	ID            string         `db:"id"`
	AuthorID      string         `db:"author_id"`
	Title         string         `db:"title"`
	Slug          string         `db:"slug"`
	Excerpt       string         `db:"excerpt"`
	Content       string         `db:"content"`
	Category      string         `db:"category"`
	Tags          pq.StringArray `db:"tags"`
	CoverImageURL string         `db:"cover_image_url"`
	Status        string         `db:"status"`
	ReviewNote    string         `db:"review_note"`
	ReviewedBy    null.String    `db:"reviewed_by"`
	ViewCount     int            `db:"view_count"`
	PublishedAt   null.Time      `db:"published_at"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

func toArticleRow(a article.Article) articleRow {
	tags := a.Tags
	if tags == nil {
		tags = []string{}
	}
	return articleRow{
		ID:            a.ID,
		AuthorID:      a.AuthorID,
		Title:         a.Title,
		Slug:          a.Slug,
		Excerpt:       a.Excerpt,
		Content:       a.Content,
		Category:      a.Category,
		Tags:          tags,
		CoverImageURL: a.CoverImageURL,
		Status:        a.Status,
		ReviewNote:    a.ReviewNote,
		ReviewedBy:    null.NewString(a.ReviewedBy, a.ReviewedBy != ""),
		ViewCount:     a.ViewCount,
		PublishedAt:   null.TimeFromPtr(a.PublishedAt),
		CreatedAt:     a.CreatedAt.UTC(),
		UpdatedAt:     a.UpdatedAt.UTC(),
	}
}

func (r articleRow) article() article.Article {
	a := article.Article{
		ID:            r.ID,
		AuthorID:      r.AuthorID,
		Title:         r.Title,
		Slug:          r.Slug,
		Excerpt:       r.Excerpt,
		Content:       r.Content,
		Category:      r.Category,
		Tags:          []string(r.Tags),
		CoverImageURL: r.CoverImageURL,
		Status:        r.Status,
		ReviewNote:    r.ReviewNote,
		ReviewedBy:    r.ReviewedBy.String,
		ViewCount:     r.ViewCount,
		CreatedAt:     r.CreatedAt.UTC(),
		UpdatedAt:     r.UpdatedAt.UTC(),
	}
	if r.PublishedAt.Valid {
		t := r.PublishedAt.Time.UTC()
		a.PublishedAt = &t
	}
	return a
}

type articleRepository struct {
	db *sqlx.DB
}

var _ article.Repository = (*articleRepository)(nil) // interface compliance check

func NewArticleRepository(db *sqlx.DB) article.Repository {
	return &articleRepository{db: db}
}

func (repo *articleRepository) CreateArticle(ctx context.Context, art article.Article) (article.Article, error) {
	q := `INSERT INTO article (` + articleColumns + `) VALUES (:id, :author_id, :title, :slug, :excerpt,
		:content, :category, :tags, :cover_image_url, :status, :review_note, :reviewed_by, :view_count,
		:published_at, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, toArticleRow(art)); err != nil {
		return article.Article{}, errors.Wrap(err, "inserting article")
	}
	return art, nil
}

func (repo *articleRepository) GetArticle(ctx context.Context, filter article.GetFilter) (article.Article, error) {
	var w where
	switch {
	case filter.ID != "":
		w.add("id = ?", filter.ID)
	case filter.Slug != "":
		w.add("slug = ?", filter.Slug)
	default:
		return article.Article{}, article.ErrNotFound
	}

	var row articleRow
	if err := repo.db.GetContext(ctx, &row, repo.db.Rebind(`SELECT `+articleColumns+` FROM article`+w.String()), w.args...); err != nil {
		return article.Article{}, trapNoRowsErr(err, article.ErrNotFound, "getting article")
	}
	return row.article(), nil
}

func (repo *articleRepository) QueryArticles(ctx context.Context, filter *article.QueryFilter, ordering []core.DBOrdering, page core.Page) ([]article.Article, int, error) {
	var w where
	if filter != nil {
		if filter.Search != "" {
			w.add("(LOWER(title) LIKE ? OR LOWER(excerpt) LIKE ?)", likePattern(filter.Search), likePattern(filter.Search))
		}
		if filter.Category != "" {
			w.add("category = ?", filter.Category)
		}
		if filter.Tag != "" {
			w.add("? = ANY(tags)", filter.Tag)
		}
		if filter.Status != "" {
			w.add("status = ?", filter.Status)
		}
		if filter.AuthorID != "" {
			w.add("author_id = ?", filter.AuthorID)
		}
	}

	var total int
	if err := repo.db.GetContext(ctx, &total, repo.db.Rebind(`SELECT COUNT(*) FROM article`+w.String()), w.args...); err != nil {
		return nil, 0, errors.Wrap(err, "counting articles")
	}

	rows := make([]articleRow, 0)
	q := `SELECT ` + articleColumns + ` FROM article` + w.String() +
		orderBy(ordering, article.OrderingFields, `"published_at" DESC, "created_at" DESC`) + limitOffset(page)
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), w.args...); err != nil {
		return nil, 0, errors.Wrap(err, "querying articles")
	}

	arts := make([]article.Article, 0, len(rows))
	for _, r := range rows {
		arts = append(arts, r.article())
	}
	return arts, total, nil
}

// UpdateArticle leaves view_count alone; it is only changed by IncrementViewCount.
func (repo *articleRepository) UpdateArticle(ctx context.Context, art article.Article) (article.Article, error) {
	var row articleRow
	q := `UPDATE article SET title = :title, slug = :slug, excerpt = :excerpt, content = :content,
		category = :category, tags = :tags, cover_image_url = :cover_image_url, status = :status,
		review_note = :review_note, reviewed_by = :reviewed_by, published_at = :published_at,
		updated_at = :updated_at
		WHERE id = :id RETURNING ` + articleColumns
	stmt, err := repo.db.PrepareNamedContext(ctx, q)
	if err != nil {
		return article.Article{}, errors.Wrap(err, "preparing article update")
	}
	defer func() { _ = stmt.Close() }()

	if err = stmt.GetContext(ctx, &row, toArticleRow(art)); err != nil {
		return article.Article{}, trapNoRowsErr(err, article.ErrNotFound, "updating article")
	}
	return row.article(), nil
}

func (repo *articleRepository) IncrementViewCount(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `UPDATE article SET view_count = view_count + 1 WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "counting article view")
	}
	return checkAffected(res, article.ErrNotFound)
}

func (repo *articleRepository) DeleteArticle(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM article WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting article")
	}
	return checkAffected(res, article.ErrNotFound)
}

func (repo *articleRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	if err := repo.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM article WHERE slug = $1)`, slug); err != nil {
		return false, errors.Wrap(err, "checking article slug")
	}
	return exists, nil
}
