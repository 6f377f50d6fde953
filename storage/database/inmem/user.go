package inmemdb

import (
	"context"

	"github.com/Benouakrim/Academora-02-sub002/core"
	"github.com/Benouakrim/Academora-02-sub002/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db}
}

func cloneUser(usr user.User) user.User {
	usr.Roles = copyStrings(usr.Roles)
	return usr
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	usr = cloneUser(usr)
	repo.db.users[usr.ID] = usr
	return usr, nil
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if filter.ID != "" {
		if usr, ok := repo.db.users[filter.ID]; ok {
			return cloneUser(usr), nil
		}
		return user.User{}, user.ErrNotFound
	}
	for _, usr := range repo.db.users {
		if (filter.ExternalID != "" && usr.ExternalID == filter.ExternalID) ||
			(filter.ExternalID == "" && filter.Email != "" && usr.Email == filter.Email) {
			return cloneUser(usr), nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering, page core.Page) ([]user.User, int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	users := make([]user.User, 0)
	for _, usr := range repo.db.users {
		if filter.Matches(usr) {
			users = append(users, cloneUser(usr))
		}
	}
	user.Sort(users, ordering)
	start, end := page.Bounds(len(users))
	return users[start:end], len(users), nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.users[usr.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	usr = cloneUser(usr)
	repo.db.users[usr.ID] = usr
	return usr, nil
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, id := range ids {
		delete(repo.db.users, id)
		delete(repo.db.academic, id)
		delete(repo.db.financial, id)
	}
	return nil
}

func (repo *userRepository) GetAcademicProfile(ctx context.Context, userID string) (user.AcademicProfile, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	ap, ok := repo.db.academic[userID]
	if !ok {
		return user.AcademicProfile{}, user.ErrProfileNotFound
	}
	ap.IntendedMajors = copyStrings(ap.IntendedMajors)
	return ap, nil
}

func (repo *userRepository) UpsertAcademicProfile(ctx context.Context, ap user.AcademicProfile) (user.AcademicProfile, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	ap.IntendedMajors = copyStrings(ap.IntendedMajors)
	repo.db.academic[ap.UserID] = ap
	return ap, nil
}

func (repo *userRepository) GetFinancialProfile(ctx context.Context, userID string) (user.FinancialProfile, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	fp, ok := repo.db.financial[userID]
	if !ok {
		return user.FinancialProfile{}, user.ErrProfileNotFound
	}
	return fp, nil
}

func (repo *userRepository) UpsertFinancialProfile(ctx context.Context, fp user.FinancialProfile) (user.FinancialProfile, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	repo.db.financial[fp.UserID] = fp
	return fp, nil
}
