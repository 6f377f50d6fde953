package inmemdb

import (
	"context"

	"github.com/Benouakrim/Academora-02-sub002/core"
	"github.com/Benouakrim/Academora-02-sub002/core/article"
)

type articleRepository struct {
	db *DB
}

var _ article.Repository = (*articleRepository)(nil) // interface compliance check

func NewArticleRepository(db *DB) article.Repository {
	return &articleRepository{db: db}
}

func cloneArticle(a article.Article) article.Article {
	a.Tags = copyStrings(a.Tags)
	if a.PublishedAt != nil {
		t := *a.PublishedAt
		a.PublishedAt = &t
	}
	return a
}

func (repo *articleRepository) CreateArticle(ctx context.Context, art article.Article) (article.Article, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	art = cloneArticle(art)
	repo.db.articles[art.ID] = art
	return cloneArticle(art), nil
}

func (repo *articleRepository) GetArticle(ctx context.Context, filter article.GetFilter) (article.Article, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if filter.ID != "" {
		if a, ok := repo.db.articles[filter.ID]; ok {
			return cloneArticle(a), nil
		}
		return article.Article{}, article.ErrNotFound
	}
	for _, a := range repo.db.articles {
		if filter.Slug != "" && a.Slug == filter.Slug {
			return cloneArticle(a), nil
		}
	}
	return article.Article{}, article.ErrNotFound
}

func (repo *articleRepository) QueryArticles(ctx context.Context, filter *article.QueryFilter, ordering []core.DBOrdering, page core.Page) ([]article.Article, int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	arts := make([]article.Article, 0)
	for _, a := range repo.db.articles {
		if filter.Matches(a) {
			arts = append(arts, cloneArticle(a))
		}
	}
	article.Sort(arts, ordering)
	start, end := page.Bounds(len(arts))
	return arts[start:end], len(arts), nil
}

func (repo *articleRepository) UpdateArticle(ctx context.Context, art article.Article) (article.Article, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	prev, ok := repo.db.articles[art.ID]
	if !ok {
		return article.Article{}, article.ErrNotFound
	}
	// views are only counted by IncrementViewCount
	art.ViewCount = prev.ViewCount
	art = cloneArticle(art)
	repo.db.articles[art.ID] = art
	return cloneArticle(art), nil
}

func (repo *articleRepository) IncrementViewCount(ctx context.Context, id string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	a, ok := repo.db.articles[id]
	if !ok {
		return article.ErrNotFound
	}
	a.ViewCount++
	repo.db.articles[id] = a
	return nil
}

func (repo *articleRepository) DeleteArticle(ctx context.Context, id string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.articles[id]; !ok {
		return article.ErrNotFound
	}
	delete(repo.db.articles, id)
	for cid, c := range repo.db.comments {
		if c.ArticleID == id {
			delete(repo.db.comments, cid)
		}
	}
	return nil
}

func (repo *articleRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, a := range repo.db.articles {
		if a.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}
