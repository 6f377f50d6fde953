package user

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/Benouakrim/Academora-02-sub002/core"
)

var (
	// errors
	ErrNotFound        = errors.New("user not found")
	ErrProfileNotFound = errors.New("profile not found")
	ErrEmailExists     = errors.New("a user with this email already exists")
	errSelfDeletion    = errors.New("you cannot delete your own account")

	// lastSeenResolution limits how often Provision writes LastSeen.
	lastSeenResolution = 5 * time.Minute

	NowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUser(ctx context.Context, filter GetFilter) (User, error)
		// QueryUsers applies AND operation on available QueryFilter fields and returns the total before paging.
		QueryUsers(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, page core.Page) ([]User, int, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		DeleteUsersByID(ctx context.Context, ids ...string) error

		GetAcademicProfile(ctx context.Context, userID string) (AcademicProfile, error)
		UpsertAcademicProfile(ctx context.Context, ap AcademicProfile) (AcademicProfile, error)
		GetFinancialProfile(ctx context.Context, userID string) (FinancialProfile, error)
		UpsertFinancialProfile(ctx context.Context, fp FinancialProfile) (FinancialProfile, error)
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
		logger   core.Logger
	}
)

func NewService(repo Repository, validate *validator.Validate, logger core.Logger) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(validate, "validate"),
		vala.IsNotNil(logger, "logger"),
	).CheckAndPanic()

	return &Service{repo: repo, validate: validate, logger: logger}
}

// Provision returns the local user linked to an identity provider subject, creating it on first sight.
func (svc *Service) Provision(ctx context.Context, ident Identity) (User, error) {
	if ident.Subject == "" {
		return User{}, core.NewFieldError("sub", "subject is required")
	}
	now := NowFunc().UTC()

	usr, err := svc.repo.GetUser(ctx, GetFilter{ExternalID: ident.Subject})
	switch {
	case err == ErrNotFound:
		usr = User{
			ID:          uuid.New().String(),
			ExternalID:  ident.Subject,
			Email:       core.CleanString(ident.Email, true /* lower */),
			Name:        core.CleanString(ident.Name),
			AccountType: AccountStudent,
			Roles:       []string{},
			IsActive:    true,
			Privacy:     DefaultPrivacySettings(),
			CreatedAt:   now,
			UpdatedAt:   now,
			LastSeen:    now,
		}
		usr, err = svc.repo.CreateUser(ctx, usr)
		if err != nil {
			return User{}, errors.Wrap(err, "creating user")
		}
		svc.logger.Info("user provisioned: " + usr.ID)
		return usr, nil
	case err != nil:
		return User{}, errors.Wrap(err, "getting user by external ID")
	}

	dirty := false
	if email := core.CleanString(ident.Email, true /* lower */); email != "" && email != usr.Email {
		usr.Email = email
		dirty = true
	}
	if name := core.CleanString(ident.Name); name != "" && usr.Name == "" {
		usr.Name = name
		dirty = true
	}
	if now.Sub(usr.LastSeen) >= lastSeenResolution {
		usr.LastSeen = now
		dirty = true
	}
	if !dirty {
		return usr, nil
	}
	usr.UpdatedAt = now
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return User{}, ErrNotFound
	}
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, page core.Page) ([]User, int, error) {
	if filter != nil {
		filter.Clean()
	}
	page.Clean()
	return svc.repo.QueryUsers(ctx, filter, ordering, page)
}

// Update modifies a user. Only admins may change roles or activation, and never above their own rank.
func (svc *Service) Update(ctx context.Context, actor User, id string, uu UpdateUser) (User, error) {
	if err := uu.Validate(svc.validate); err != nil {
		return User{}, err
	}
	if actor.ID != id && !actor.IsAdmin() {
		return User{}, core.ErrForbidden
	}

	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}

	if uu.Roles != nil || uu.IsActive != nil {
		if !actor.IsAdmin() {
			return User{}, core.ErrForbidden
		}
		actorPriority := MaxRolePriority(actor.Roles)
		if actor.ID != usr.ID && MaxRolePriority(usr.Roles) > actorPriority {
			return User{}, core.ErrForbidden
		}
		if uu.Roles != nil {
			if MaxRolePriority(uu.Roles) > actorPriority {
				return User{}, core.NewFieldError("roles", "you cannot grant a role above your own")
			}
			usr.Roles = uu.Roles
		}
		if uu.IsActive != nil {
			if actor.ID == usr.ID && !*uu.IsActive {
				return User{}, core.NewFieldError("is_active", "you cannot deactivate your own account")
			}
			usr.IsActive = *uu.IsActive
		}
	}

	if uu.Name != "" {
		usr.Name = uu.Name
	}
	if uu.AccountType != "" && uu.AccountType != usr.AccountType {
		// institution accounts are granted through an approved claim
		if (uu.AccountType == AccountInstitution || usr.AccountType == AccountInstitution) && !actor.IsAdmin() {
			return User{}, core.NewFieldError("account_type", "only an admin can change an institution account")
		}
		usr.AccountType = uu.AccountType
	}
	usr.UpdatedAt = NowFunc().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

// SetRoles replaces the roles of the user with the given email; used by the admin CLI.
func (svc *Service) SetRoles(ctx context.Context, email string, roles ...string) (User, error) {
	uu := UpdateUser{Roles: core.CleanStrings(roles, true /* lower */)}
	if err := uu.Validate(svc.validate); err != nil {
		return User{}, err
	}
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return User{}, err
	}
	usr.Roles = uu.Roles
	usr.UpdatedAt = NowFunc().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

// SetAccountType changes the account type without permission checks; used by trusted workflows.
func (svc *Service) SetAccountType(ctx context.Context, id, accountType string) (User, error) {
	if !core.ContainsString(AccountTypes, accountType) {
		return User{}, core.NewFieldError("account_type", accountTypeText)
	}
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	if usr.AccountType == accountType {
		return usr, nil
	}
	usr.AccountType = accountType
	usr.UpdatedAt = NowFunc().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) Delete(ctx context.Context, actor User, ids ...string) error {
	for _, id := range ids {
		if id == actor.ID {
			return core.NewValidationError(errSelfDeletion)
		}
	}
	return svc.repo.DeleteUsersByID(ctx, ids...)
}

func (svc *Service) UpdatePrivacy(ctx context.Context, id string, up UpdatePrivacy) (User, error) {
	if err := up.Validate(svc.validate); err != nil {
		return User{}, err
	}
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	usr.Privacy = up.apply(usr.Privacy)
	usr.UpdatedAt = NowFunc().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) GetAcademicProfile(ctx context.Context, userID string) (AcademicProfile, error) {
	return svc.repo.GetAcademicProfile(ctx, userID)
}

func (svc *Service) SaveAcademicProfile(ctx context.Context, userID string, ap AcademicProfile) (AcademicProfile, error) {
	if err := ap.Validate(svc.validate); err != nil {
		return AcademicProfile{}, err
	}
	ap.UserID = userID
	ap.UpdatedAt = NowFunc().UTC()
	return svc.repo.UpsertAcademicProfile(ctx, ap)
}

func (svc *Service) GetFinancialProfile(ctx context.Context, userID string) (FinancialProfile, error) {
	return svc.repo.GetFinancialProfile(ctx, userID)
}

func (svc *Service) SaveFinancialProfile(ctx context.Context, userID string, fp FinancialProfile) (FinancialProfile, error) {
	if err := fp.Validate(svc.validate); err != nil {
		return FinancialProfile{}, err
	}
	fp.UserID = userID
	fp.UpdatedAt = NowFunc().UTC()
	return svc.repo.UpsertFinancialProfile(ctx, fp)
}

// SaveOnboarding merges the answers into the user's questionnaire.
// When complete is set, a persona and at least one goal are required.
// The budget and home state seed the financial profile when it has none.
func (svc *Service) SaveOnboarding(ctx context.Context, id string, answers OnboardingAnswers, complete bool) (User, error) {
	if err := answers.Validate(svc.validate); err != nil {
		return User{}, err
	}
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}

	merged := usr.OnboardingAnswers.Merge(answers)
	if complete {
		var flds []core.FieldError
		if merged.Persona == "" {
			flds = append(flds, core.FieldError{Field: "persona", Error: "persona is required to complete onboarding"})
		}
		if len(merged.Goals) == 0 {
			flds = append(flds, core.FieldError{Field: "goals", Error: "at least one goal is required to complete onboarding"})
		}
		if len(flds) > 0 {
			return User{}, core.NewValidationError(nil, flds...)
		}
		usr.OnboardingCompleted = true
	}

	usr.OnboardingAnswers = merged
	usr.Persona = merged.Persona
	if len(merged.Goals) > 0 {
		usr.PrimaryGoal = merged.Goals[0]
	} else {
		usr.PrimaryGoal = ""
	}
	usr.UpdatedAt = NowFunc().UTC()
	if usr, err = svc.repo.UpdateUser(ctx, usr); err != nil {
		return User{}, errors.Wrap(err, "updating user")
	}

	if merged.Budget != nil || merged.HomeState != "" {
		if err := svc.seedFinancialProfile(ctx, usr.ID, merged); err != nil {
			svc.logger.Warn("seeding financial profile from onboarding", err, usr)
		}
	}
	return usr, nil
}

func (svc *Service) seedFinancialProfile(ctx context.Context, userID string, answers OnboardingAnswers) error {
	fp, err := svc.repo.GetFinancialProfile(ctx, userID)
	switch {
	case err == ErrProfileNotFound:
		fp = FinancialProfile{UserID: userID, FederalAidEligible: true}
		fp.Clean()
	case err != nil:
		return err
	}

	dirty := false
	if fp.AnnualBudget == nil && answers.Budget != nil {
		budget := *answers.Budget
		fp.AnnualBudget = &budget
		dirty = true
	}
	if fp.State == "" && answers.HomeState != "" {
		fp.State = answers.HomeState
		dirty = true
	}
	if !dirty {
		return nil
	}
	fp.UpdatedAt = NowFunc().UTC()
	_, err = svc.repo.UpsertFinancialProfile(ctx, fp)
	return err
}

// Snapshot loads a user with whichever profiles exist.
func (svc *Service) Snapshot(ctx context.Context, id string) (Snapshot, error) {
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}
	snap := Snapshot{User: usr}

	ap, err := svc.repo.GetAcademicProfile(ctx, id)
	switch {
	case err == nil:
		snap.Academic = &ap
	case err != ErrProfileNotFound:
		return Snapshot{}, errors.Wrap(err, "getting academic profile")
	}

	fp, err := svc.repo.GetFinancialProfile(ctx, id)
	switch {
	case err == nil:
		snap.Financial = &fp
	case err != ErrProfileNotFound:
		return Snapshot{}, errors.Wrap(err, "getting financial profile")
	}
	return snap, nil
}
