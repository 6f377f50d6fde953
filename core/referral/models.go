package referral

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Code alphabet without the look-alikes 0/O and 1/I.
const (
	Alphabet   = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	CodeLength = 8
)

type Code struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	OwnerID   string    `json:"owner_id"`
	Uses      int       `json:"uses"`
	MaxUses   int       `json:"max_uses"` // 0 is unlimited
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// Exhausted reports whether the code reached its maximum number of uses.
func (c Code) Exhausted() bool { return c.MaxUses > 0 && c.Uses >= c.MaxUses }

type Referral struct {
	ID         string    `json:"id"`
	CodeID     string    `json:"code_id"`
	ReferrerID string    `json:"referrer_id"`
	ReferredID string    `json:"referred_id"`
	CreatedAt  time.Time `json:"created_at"`
}

type ReferredUser struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	JoinedAt time.Time `json:"joined_at"`
}

type Stats struct {
	Code     Code           `json:"code"`
	Uses     int            `json:"uses"`
	Referred []ReferredUser `json:"referred"`
}

type Redemption struct {
	Code string `json:"code" validate:"required,len=8"`
}

// NormalizeCode upper-cases a code as typed by a user, dropping spaces and dashes.
func NormalizeCode(code string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' || r == '\t' {
			return -1
		}
		return r
	}, strings.ToUpper(code))
}

func (r *Redemption) Validate(validate *validator.Validate) error {
	r.Code = NormalizeCode(r.Code)
	return validate.Struct(r)
}

// UpdateCode is what admins may change on a code.
type UpdateCode struct {
	MaxUses  *int  `json:"max_uses" validate:"omitempty,min=0"`
	IsActive *bool `json:"is_active"`
}
