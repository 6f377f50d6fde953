package inmemdb

import (
	"context"
	"sort"

	"github.com/Benouakrim/Academora-02-sub002/core"
	"github.com/Benouakrim/Academora-02-sub002/core/claim"
)

type claimRepository struct {
	db *DB
}

var _ claim.Repository = (*claimRepository)(nil) // interface compliance check

func NewClaimRepository(db *DB) claim.Repository {
	return &claimRepository{db: db}
}

func cloneClaim(c claim.Claim) claim.Claim {
	c.DocumentURLs = copyStrings(c.DocumentURLs)
	return c
}

func (repo *claimRepository) CreateClaim(ctx context.Context, c claim.Claim) (claim.Claim, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	c = cloneClaim(c)
	repo.db.claims[c.ID] = c
	return c, nil
}

func (repo *claimRepository) GetClaim(ctx context.Context, id string) (claim.Claim, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if c, ok := repo.db.claims[id]; ok {
		return cloneClaim(c), nil
	}
	return claim.Claim{}, claim.ErrNotFound
}

func (repo *claimRepository) QueryClaims(ctx context.Context, filter *claim.QueryFilter, page core.Page) ([]claim.Claim, int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	claims := make([]claim.Claim, 0)
	for _, c := range repo.db.claims {
		if filter.Matches(c) {
			claims = append(claims, cloneClaim(c))
		}
	}
	sort.Slice(claims, func(i, j int) bool {
		if !claims[i].CreatedAt.Equal(claims[j].CreatedAt) {
			return claims[i].CreatedAt.After(claims[j].CreatedAt)
		}
		return claims[i].ID < claims[j].ID
	})
	start, end := page.Bounds(len(claims))
	return claims[start:end], len(claims), nil
}

func (repo *claimRepository) UpdateClaim(ctx context.Context, c claim.Claim) (claim.Claim, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.claims[c.ID]; !ok {
		return claim.Claim{}, claim.ErrNotFound
	}
	c = cloneClaim(c)
	repo.db.claims[c.ID] = c
	return c, nil
}
