// Package inmemdb implements every repository in memory, for tests and STORAGE=memory.
package inmemdb

import (
	"sync"

	"github.com/Benouakrim/Academora-02-sub002/core/article"
	"github.com/Benouakrim/Academora-02-sub002/core/claim"
	"github.com/Benouakrim/Academora-02-sub002/core/comment"
	"github.com/Benouakrim/Academora-02-sub002/core/referral"
	"github.com/Benouakrim/Academora-02-sub002/core/university"
	"github.com/Benouakrim/Academora-02-sub002/core/user"
)

type savedKey struct {
	userID       string
	universityID string
}

// DB holds every table behind a single lock so cross-table reads stay consistent.
type DB struct {
	mu sync.RWMutex

	users     map[string]user.User
	academic  map[string]user.AcademicProfile
	financial map[string]user.FinancialProfile
	univs     map[string]university.University
	saved     map[savedKey]university.SavedUniversity
	articles  map[string]article.Article
	comments  map[string]comment.Comment
	claims    map[string]claim.Claim
	codes     map[string]referral.Code
	referrals map[string]referral.Referral
}

func Open() *DB {
	return &DB{
		users:     make(map[string]user.User),
		academic:  make(map[string]user.AcademicProfile),
		financial: make(map[string]user.FinancialProfile),
		univs:     make(map[string]university.University),
		saved:     make(map[savedKey]university.SavedUniversity),
		articles:  make(map[string]article.Article),
		comments:  make(map[string]comment.Comment),
		claims:    make(map[string]claim.Claim),
		codes:     make(map[string]referral.Code),
		referrals: make(map[string]referral.Referral),
	}
}

// Reset empties every table.
func (db *DB) Reset() {
	fresh := Open()
	db.mu.Lock()
	defer db.mu.Unlock()
	db.users, db.academic, db.financial = fresh.users, fresh.academic, fresh.financial
	db.univs, db.saved = fresh.univs, fresh.saved
	db.articles, db.comments = fresh.articles, fresh.comments
	db.claims, db.codes, db.referrals = fresh.claims, fresh.codes, fresh.referrals
}

func copyStrings(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return append(make([]string, 0, len(ss)), ss...)
}
