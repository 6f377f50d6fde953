// Package referral manages the referral code of every user and its redemptions.
package referral

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/Benouakrim/Academora-02-sub002/core"
	"github.com/Benouakrim/Academora-02-sub002/core/user"
)

var (
	// errors
	ErrNotFound        = errors.New("referral code not found")
	ErrReferralMissing = errors.New("referral not found")
	ErrCodeExists      = errors.New("referral code already taken")
	ErrExhausted       = errors.New("this code has reached its maximum number of uses")
	ErrAlreadyReferred = errors.New("you have already redeemed a referral code")
	errInactive        = "this code is no longer active"
	errOwnCode         = "you cannot redeem your own code"

	NowFunc  = time.Now  // mockable
	randRead = rand.Read // mockable
)

const maxCodeAttempts = 5

type (
	Repository interface {
		CreateCode(ctx context.Context, c Code) (Code, error)
		GetCodeByOwner(ctx context.Context, ownerID string) (Code, error)
		GetCode(ctx context.Context, code string) (Code, error)
		UpdateCode(ctx context.Context, c Code) (Code, error)
		// RecordReferral stores r and increments the code uses atomically.
		// It returns ErrExhausted when the code is used up and ErrAlreadyReferred when the user was referred before.
		RecordReferral(ctx context.Context, r Referral) error
		GetReferralByReferred(ctx context.Context, referredID string) (Referral, error)
		ListReferrals(ctx context.Context, referrerID string) ([]Referral, error)
	}

	UserGetter interface {
		GetByID(ctx context.Context, id string) (user.User, error)
	}

	Service struct {
		repo     Repository
		users    UserGetter
		validate *validator.Validate
		logger   core.Logger
	}
)

func NewService(repo Repository, users UserGetter, validate *validator.Validate, logger core.Logger) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(users, "users"),
		vala.IsNotNil(validate, "validate"),
		vala.IsNotNil(logger, "logger"),
	).CheckAndPanic()

	return &Service{repo: repo, users: users, validate: validate, logger: logger}
}

// GenerateCode returns a random code of CodeLength characters from Alphabet.
func GenerateCode() (string, error) {
	buf := make([]byte, CodeLength)
	if _, err := randRead(buf); err != nil {
		return "", errors.Wrap(err, "reading random bytes")
	}
	// len(Alphabet) divides 256, so the modulo is unbiased
	for i, b := range buf {
		buf[i] = Alphabet[int(b)%len(Alphabet)]
	}
	return string(buf), nil
}

// GetOrCreate returns the code of a user, creating it on first use.
func (svc *Service) GetOrCreate(ctx context.Context, ownerID string) (Code, error) {
	c, err := svc.repo.GetCodeByOwner(ctx, ownerID)
	if err != ErrNotFound {
		return c, err
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := GenerateCode()
		if err != nil {
			return Code{}, err
		}
		c, err = svc.repo.CreateCode(ctx, Code{
			ID:        uuid.New().String(),
			Code:      code,
			OwnerID:   ownerID,
			IsActive:  true,
			CreatedAt: NowFunc().UTC(),
		})
		if err == nil {
			return c, nil
		}
		if err != ErrCodeExists {
			return Code{}, err
		}
		// a concurrent request may have created the owner's code
		if c, err = svc.repo.GetCodeByOwner(ctx, ownerID); err == nil {
			return c, nil
		}
	}
	return Code{}, errors.New("could not generate a unique referral code")
}

// Redeem records that actor joined through the given code.
func (svc *Service) Redeem(ctx context.Context, actor user.User, r Redemption) (Referral, error) {
	if err := r.Validate(svc.validate); err != nil {
		return Referral{}, err
	}
	c, err := svc.repo.GetCode(ctx, r.Code)
	if err == ErrNotFound {
		return Referral{}, core.NewFieldError("code", err.Error())
	} else if err != nil {
		return Referral{}, err
	}
	switch {
	case !c.IsActive:
		return Referral{}, core.NewFieldError("code", errInactive)
	case c.OwnerID == actor.ID:
		return Referral{}, core.NewFieldError("code", errOwnCode)
	case c.Exhausted():
		return Referral{}, core.NewConflictError(ErrExhausted.Error())
	}

	if _, err = svc.repo.GetReferralByReferred(ctx, actor.ID); err == nil {
		return Referral{}, core.NewConflictError(ErrAlreadyReferred.Error())
	} else if err != ErrReferralMissing {
		return Referral{}, err
	}

	ref := Referral{
		ID:         uuid.New().String(),
		CodeID:     c.ID,
		ReferrerID: c.OwnerID,
		ReferredID: actor.ID,
		CreatedAt:  NowFunc().UTC(),
	}
	switch err = svc.repo.RecordReferral(ctx, ref); err {
	case nil:
		return ref, nil
	case ErrExhausted, ErrAlreadyReferred:
		return Referral{}, core.NewConflictError(err.Error())
	default:
		return Referral{}, err
	}
}

// Stats summarizes the referrals made with actor's code.
func (svc *Service) Stats(ctx context.Context, actor user.User) (Stats, error) {
	c, err := svc.GetOrCreate(ctx, actor.ID)
	if err != nil {
		return Stats{}, err
	}
	refs, err := svc.repo.ListReferrals(ctx, actor.ID)
	if err != nil {
		return Stats{}, errors.Wrap(err, "listing referrals")
	}

	referred := make([]ReferredUser, 0, len(refs))
	for _, ref := range refs {
		ru := ReferredUser{ID: ref.ReferredID, JoinedAt: ref.CreatedAt}
		if usr, err := svc.users.GetByID(ctx, ref.ReferredID); err == nil {
			ru.Name = usr.Name
		} else if err != user.ErrNotFound {
			svc.logger.Warn("referral.Stats: getting referred user", err)
		}
		referred = append(referred, ru)
	}
	return Stats{Code: c, Uses: c.Uses, Referred: referred}, nil
}

// Configure lets admins cap or disable the code of a user.
func (svc *Service) Configure(ctx context.Context, actor user.User, ownerID string, uc UpdateCode) (Code, error) {
	if !actor.IsAdmin() {
		return Code{}, core.ErrForbidden
	}
	if err := svc.validate.Struct(uc); err != nil {
		return Code{}, err
	}
	c, err := svc.GetOrCreate(ctx, ownerID)
	if err != nil {
		return Code{}, err
	}
	if uc.MaxUses != nil {
		c.MaxUses = *uc.MaxUses
	}
	if uc.IsActive != nil {
		c.IsActive = *uc.IsActive
	}
	return svc.repo.UpdateCode(ctx, c)
}
