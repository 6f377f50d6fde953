// Package sqlxrepos implements the repositories on PostgreSQL with sqlx.
package sqlxrepos

import (
	"database/sql"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/Benouakrim/Academora-02-sub002/core"
)

const uniqueViolation = pq.ErrorCode("23505")

// isUniqueViolation reports whether err was raised by a UNIQUE constraint, optionally a given one.
func isUniqueViolation(err error, constraint ...string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != uniqueViolation {
		return false
	}
	if len(constraint) == 0 {
		return true
	}
	return core.ContainsString(constraint, pqErr.Constraint)
}

// trapNoRowsErr maps sql.ErrNoRows to notFound.
func trapNoRowsErr(err error, notFound error, msg string) error {
	if err == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// checkAffected returns notFound when res touched no row.
func checkAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "counting affected rows")
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// where accumulates AND-ed conditions using ? placeholders; queries are rebound before execution.
type where struct {
	conds []string
	args  []interface{}
}

func (w *where) add(cond string, args ...interface{}) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

func (w where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// orderBy builds an ORDER BY clause with NULLs sorted last and id as the final tie-break.
func orderBy(ordering []core.DBOrdering, allowed map[string]string, dflt string) string {
	clause := core.OrderingClause(ordering, allowed, dflt)
	clause = strings.ReplaceAll(clause, " DESC", " DESC NULLS LAST")
	return " ORDER BY " + clause + `, "id" ASC`
}

func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(s)) + "%"
}

func limitOffset(page core.Page) string {
	page.Clean()
	return " LIMIT " + strconv.Itoa(page.Size) + " OFFSET " + strconv.Itoa(page.Offset())
}
