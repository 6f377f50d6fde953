package inmemdb

import (
	"context"
	"sort"

	"github.com/Benouakrim/Academora-02-sub002/core/referral"
)

type referralRepository struct {
	db *DB
}

var _ referral.Repository = (*referralRepository)(nil) // interface compliance check

func NewReferralRepository(db *DB) referral.Repository {
	return &referralRepository{db: db}
}

func (repo *referralRepository) CreateCode(ctx context.Context, c referral.Code) (referral.Code, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, existing := range repo.db.codes {
		if existing.Code == c.Code || existing.OwnerID == c.OwnerID {
			return referral.Code{}, referral.ErrCodeExists
		}
	}
	repo.db.codes[c.ID] = c
	return c, nil
}

func (repo *referralRepository) GetCodeByOwner(ctx context.Context, ownerID string) (referral.Code, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, c := range repo.db.codes {
		if c.OwnerID == ownerID {
			return c, nil
		}
	}
	return referral.Code{}, referral.ErrNotFound
}

func (repo *referralRepository) GetCode(ctx context.Context, code string) (referral.Code, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, c := range repo.db.codes {
		if c.Code == code {
			return c, nil
		}
	}
	return referral.Code{}, referral.ErrNotFound
}

func (repo *referralRepository) UpdateCode(ctx context.Context, c referral.Code) (referral.Code, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	prev, ok := repo.db.codes[c.ID]
	if !ok {
		return referral.Code{}, referral.ErrNotFound
	}
	// uses are only counted by RecordReferral
	c.Uses = prev.Uses
	repo.db.codes[c.ID] = c
	return c, nil
}

func (repo *referralRepository) RecordReferral(ctx context.Context, r referral.Referral) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	c, ok := repo.db.codes[r.CodeID]
	if !ok {
		return referral.ErrNotFound
	}
	if c.Exhausted() {
		return referral.ErrExhausted
	}
	for _, existing := range repo.db.referrals {
		if existing.ReferredID == r.ReferredID {
			return referral.ErrAlreadyReferred
		}
	}
	c.Uses++
	repo.db.codes[c.ID] = c
	repo.db.referrals[r.ID] = r
	return nil
}

func (repo *referralRepository) GetReferralByReferred(ctx context.Context, referredID string) (referral.Referral, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, r := range repo.db.referrals {
		if r.ReferredID == referredID {
			return r, nil
		}
	}
	return referral.Referral{}, referral.ErrReferralMissing
}

func (repo *referralRepository) ListReferrals(ctx context.Context, referrerID string) ([]referral.Referral, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	list := make([]referral.Referral, 0)
	for _, r := range repo.db.referrals {
		if r.ReferrerID == referrerID {
			list = append(list, r)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}
