package inmemdb

import (
	"context"

	"github.com/Benouakrim/Academora-02-sub002/core/comment"
)

type commentRepository struct {
	db *DB
}

var _ comment.Repository = (*commentRepository)(nil) // interface compliance check

func NewCommentRepository(db *DB) comment.Repository {
	return &commentRepository{db: db}
}

func (repo *commentRepository) CreateComment(ctx context.Context, c comment.Comment) (comment.Comment, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	repo.db.comments[c.ID] = c
	return c, nil
}

func (repo *commentRepository) GetComment(ctx context.Context, id string) (comment.Comment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if c, ok := repo.db.comments[id]; ok {
		return c, nil
	}
	return comment.Comment{}, comment.ErrNotFound
}

func (repo *commentRepository) ListComments(ctx context.Context, articleID string) ([]comment.Comment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	list := make([]comment.Comment, 0)
	for _, c := range repo.db.comments {
		if c.ArticleID == articleID {
			list = append(list, c)
		}
	}
	return list, nil
}

func (repo *commentRepository) UpdateComment(ctx context.Context, c comment.Comment) (comment.Comment, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.comments[c.ID]; !ok {
		return comment.Comment{}, comment.ErrNotFound
	}
	repo.db.comments[c.ID] = c
	return c, nil
}

// DeleteComment removes a comment and, like the SQL cascade, its whole subtree.
func (repo *commentRepository) DeleteComment(ctx context.Context, id string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.comments[id]; !ok {
		return comment.ErrNotFound
	}
	doomed := []string{id}
	for len(doomed) > 0 {
		cur := doomed[0]
		doomed = doomed[1:]
		delete(repo.db.comments, cur)
		for cid, c := range repo.db.comments {
			if c.ParentID == cur {
				doomed = append(doomed, cid)
			}
		}
	}
	return nil
}

func (repo *commentRepository) CountReplies(ctx context.Context, id string) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var n int
	for _, c := range repo.db.comments {
		if c.ParentID == id {
			n++
		}
	}
	return n, nil
}
