package inmemdb

import (
	"context"
	"sort"

	"github.com/Benouakrim/Academora-02-sub002/core"
	"github.com/Benouakrim/Academora-02-sub002/core/university"
)

type universityRepository struct {
	db *DB
}

var _ university.Repository = (*universityRepository)(nil) // interface compliance check

func NewUniversityRepository(db *DB) university.Repository {
	return &universityRepository{db: db}
}

func cloneUniversity(u university.University) university.University {
	u.PopularMajors = copyStrings(u.PopularMajors)
	return u
}

func (repo *universityRepository) CreateUniversity(ctx context.Context, univ university.University) (university.University, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, u := range repo.db.univs {
		if u.Slug == univ.Slug {
			return university.University{}, university.ErrSlugExists
		}
	}
	univ = cloneUniversity(univ)
	repo.db.univs[univ.ID] = univ
	return univ, nil
}

func (repo *universityRepository) GetUniversity(ctx context.Context, filter university.GetFilter) (university.University, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if filter.ID != "" {
		if u, ok := repo.db.univs[filter.ID]; ok {
			return cloneUniversity(u), nil
		}
		return university.University{}, university.ErrNotFound
	}
	for _, u := range repo.db.univs {
		if filter.Slug != "" && u.Slug == filter.Slug {
			return cloneUniversity(u), nil
		}
	}
	return university.University{}, university.ErrNotFound
}

func (repo *universityRepository) GetUniversitiesByID(ctx context.Context, ids ...string) ([]university.University, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	univs := make([]university.University, 0, len(ids))
	for _, id := range ids {
		if u, ok := repo.db.univs[id]; ok {
			univs = append(univs, cloneUniversity(u))
		}
	}
	return univs, nil
}

func (repo *universityRepository) SearchUniversities(ctx context.Context, filter *university.SearchFilter, ordering []core.DBOrdering, page core.Page) ([]university.University, int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	univs := make([]university.University, 0)
	for _, u := range repo.db.univs {
		if filter.Matches(u) {
			univs = append(univs, cloneUniversity(u))
		}
	}
	university.Sort(univs, ordering)
	start, end := page.Bounds(len(univs))
	return univs[start:end], len(univs), nil
}

func (repo *universityRepository) ListUniversityNames(ctx context.Context) ([]university.NameRef, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	refs := make([]university.NameRef, 0, len(repo.db.univs))
	for _, u := range repo.db.univs {
		refs = append(refs, university.NameRef{ID: u.ID, Slug: u.Slug, Name: u.Name})
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Name < refs[j].Name })
	return refs, nil
}

func (repo *universityRepository) UpdateUniversity(ctx context.Context, univ university.University) (university.University, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.univs[univ.ID]; !ok {
		return university.University{}, university.ErrNotFound
	}
	for _, u := range repo.db.univs {
		if u.ID != univ.ID && u.Slug == univ.Slug {
			return university.University{}, university.ErrSlugExists
		}
	}
	univ = cloneUniversity(univ)
	repo.db.univs[univ.ID] = univ
	return univ, nil
}

func (repo *universityRepository) DeleteUniversity(ctx context.Context, id string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.univs[id]; !ok {
		return university.ErrNotFound
	}
	delete(repo.db.univs, id)
	for key := range repo.db.saved {
		if key.universityID == id {
			delete(repo.db.saved, key)
		}
	}
	for cid, c := range repo.db.claims {
		if c.UniversityID == id {
			delete(repo.db.claims, cid)
		}
	}
	return nil
}

func (repo *universityRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, u := range repo.db.univs {
		if u.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (repo *universityRepository) SaveUniversity(ctx context.Context, saved university.SavedUniversity) (university.SavedUniversity, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	univ, ok := repo.db.univs[saved.UniversityID]
	if !ok {
		return university.SavedUniversity{}, university.ErrNotFound
	}
	key := savedKey{userID: saved.UserID, universityID: saved.UniversityID}
	if prev, ok := repo.db.saved[key]; ok {
		saved.CreatedAt = prev.CreatedAt
	}
	saved.University = university.University{}
	repo.db.saved[key] = saved
	saved.University = cloneUniversity(univ)
	return saved, nil
}

func (repo *universityRepository) UnsaveUniversity(ctx context.Context, userID, universityID string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	key := savedKey{userID: userID, universityID: universityID}
	if _, ok := repo.db.saved[key]; !ok {
		return university.ErrNotSaved
	}
	delete(repo.db.saved, key)
	return nil
}

func (repo *universityRepository) ListSaved(ctx context.Context, userID string) ([]university.SavedUniversity, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	list := make([]university.SavedUniversity, 0)
	for key, saved := range repo.db.saved {
		if key.userID != userID {
			continue
		}
		saved.University = cloneUniversity(repo.db.univs[key.universityID])
		list = append(list, saved)
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].UniversityID < list[j].UniversityID
	})
	return list, nil
}

func (repo *universityRepository) CountSaves(ctx context.Context, universityID string) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var n int
	for key := range repo.db.saved {
		if key.universityID == universityID {
			n++
		}
	}
	return n, nil
}
