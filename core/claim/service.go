// Package claim handles institutions claiming ownership of a university page.
package claim

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/Benouakrim/Academora-02-sub002/core"
	"github.com/Benouakrim/Academora-02-sub002/core/university"
	"github.com/Benouakrim/Academora-02-sub002/core/user"
)

var (
	// errors
	ErrNotFound = errors.New("claim not found")

	errAlreadyClaimed    = "this university has already been claimed"
	errOpenClaim         = "you already have an open claim for this university"
	errNotOpen           = "this claim is no longer under review"
	errNotNeedsInfo      = "documents can only be added when more information was requested"
	errEmailNotVerified  = "the contact email has not been verified"
	errAlreadyVerified   = "the contact email is already verified"
	supersededReviewNote = "another claim for this university was approved"

	NowFunc = time.Now // mockable
)

const (
	verifyTemplate = "claim_verify"
	statusTemplate = "claim_status"
)

type (
	Repository interface {
		CreateClaim(ctx context.Context, c Claim) (Claim, error)
		GetClaim(ctx context.Context, id string) (Claim, error)
		// QueryClaims returns a page of matching claims, newest first, and the total before paging.
		QueryClaims(ctx context.Context, filter *QueryFilter, page core.Page) ([]Claim, int, error)
		UpdateClaim(ctx context.Context, c Claim) (Claim, error)
	}

	UniversityClaimer interface {
		Get(ctx context.Context, idOrSlug string) (university.University, error)
		SetClaimedBy(ctx context.Context, id, userID string) (university.University, error)
	}

	AccountManager interface {
		GetByID(ctx context.Context, id string) (user.User, error)
		SetAccountType(ctx context.Context, id, accountType string) (user.User, error)
	}

	Service struct {
		repo            Repository
		universities    UniversityClaimer
		users           AccountManager
		mailer          core.EmailService
		frontendBaseURL string
		tokens          tokenGenerator
		validate        *validator.Validate
		logger          core.Logger
	}
)

func NewService(
	repo Repository,
	universities UniversityClaimer,
	users AccountManager,
	mailer core.EmailService,
	conf *core.Config,
	validate *validator.Validate,
	logger core.Logger,
) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(universities, "universities"),
		vala.IsNotNil(users, "users"),
		vala.IsNotNil(mailer, "mailer"),
		vala.IsNotNil(conf, "conf"),
		vala.IsNotNil(validate, "validate"),
		vala.IsNotNil(logger, "logger"),
	).CheckAndPanic()

	return &Service{
		repo:            repo,
		universities:    universities,
		users:           users,
		mailer:          mailer,
		frontendBaseURL: conf.FrontendBaseURL,
		tokens:          newTokenGenerator(conf.SecretKey, conf.ClaimVerificationTimeoutDelta),
		validate:        validate,
		logger:          logger,
	}
}

func (svc *Service) get(ctx context.Context, id string) (Claim, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Claim{}, ErrNotFound
	}
	return svc.repo.GetClaim(ctx, id)
}

func (svc *Service) openClaims(ctx context.Context, filter QueryFilter) ([]Claim, error) {
	filter.Statuses = OpenStatuses
	claims, _, err := svc.repo.QueryClaims(ctx, &filter, core.Page{Number: 1, Size: core.MaxPageSize})
	if err != nil {
		return nil, errors.Wrap(err, "querying open claims")
	}
	return claims, nil
}

// Submit files a claim and mails a verification link to its contact email.
func (svc *Service) Submit(ctx context.Context, actor user.User, nc NewClaim) (Claim, error) {
	if err := nc.Validate(svc.validate); err != nil {
		return Claim{}, err
	}
	univ, err := svc.universities.Get(ctx, nc.UniversityID)
	if err == university.ErrNotFound {
		return Claim{}, core.NewFieldError("university_id", err.Error())
	} else if err != nil {
		return Claim{}, err
	}
	if univ.IsClaimed() {
		return Claim{}, core.NewConflictError(errAlreadyClaimed)
	}
	open, err := svc.openClaims(ctx, QueryFilter{UniversityID: univ.ID, ClaimantID: actor.ID})
	if err != nil {
		return Claim{}, err
	}
	if len(open) > 0 {
		return Claim{}, core.NewConflictError(errOpenClaim)
	}

	docs := nc.DocumentURLs
	if docs == nil {
		docs = []string{}
	}
	now := NowFunc().UTC()
	c, err := svc.repo.CreateClaim(ctx, Claim{
		ID:           uuid.New().String(),
		UniversityID: univ.ID,
		ClaimantID:   actor.ID,
		Title:        nc.Title,
		ContactEmail: nc.ContactEmail,
		DocumentURLs: docs,
		Message:      nc.Message,
		Status:       StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return Claim{}, err
	}
	if err = svc.sendVerification(ctx, c, univ); err != nil {
		svc.logger.Error("claim.Submit: sending verification", err, actor)
	}
	return c, nil
}

func (svc *Service) sendVerification(ctx context.Context, c Claim, univ university.University) error {
	token, err := svc.tokens.makeToken(c)
	if err != nil {
		return errors.Wrap(err, "making token")
	}
	to := mail.Address{Address: c.ContactEmail}
	if claimant, err := svc.users.GetByID(ctx, c.ClaimantID); err == nil {
		to.Name = claimant.Name
	}
	data := map[string]string{"Name": core.Salutation(to), "University": univ.Name, "ClaimID": c.ID, "Token": token}
	svc.mailer.SendMessages(core.NewTemplatedMessage(to, "Confirm your university claim", verifyTemplate, data, svc.frontendBaseURL))
	return nil
}

// ResendVerification mails a fresh verification link for an open, unverified claim.
func (svc *Service) ResendVerification(ctx context.Context, actor user.User, id string) error {
	c, err := svc.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	if c.EmailVerified {
		return core.NewConflictError(errAlreadyVerified)
	}
	if !c.IsOpen() {
		return core.NewConflictError(errNotOpen)
	}
	univ, err := svc.universities.Get(ctx, c.UniversityID)
	if err != nil {
		return err
	}
	return svc.sendVerification(ctx, c, univ)
}

// Verify marks the contact email of a claim as verified.
func (svc *Service) Verify(ctx context.Context, v Verification) (Claim, error) {
	c, err := svc.get(ctx, core.CleanString(v.ClaimID))
	if err != nil {
		return Claim{}, err
	}
	if c.EmailVerified {
		return Claim{}, core.NewConflictError(errAlreadyVerified)
	}
	if err = svc.tokens.verifyToken(c, core.CleanString(v.Token)); err != nil {
		return Claim{}, core.NewFieldError("token", err.Error())
	}
	c.EmailVerified = true
	c.UpdatedAt = NowFunc().UTC()
	return svc.repo.UpdateClaim(ctx, c)
}

// Get returns a claim to its claimant or a moderator.
func (svc *Service) Get(ctx context.Context, actor user.User, id string) (Claim, error) {
	c, err := svc.get(ctx, id)
	if err != nil {
		return Claim{}, err
	}
	if c.ClaimantID != actor.ID && !actor.IsModerator() {
		return Claim{}, ErrNotFound
	}
	return c, nil
}

func (svc *Service) ListMine(ctx context.Context, actor user.User, page core.Page) ([]Claim, int, error) {
	page.Clean()
	return svc.repo.QueryClaims(ctx, &QueryFilter{ClaimantID: actor.ID}, page)
}

// Query lists claims for moderators.
func (svc *Service) Query(ctx context.Context, actor user.User, filter QueryFilter, page core.Page) ([]Claim, int, error) {
	if !actor.IsModerator() {
		return nil, 0, core.ErrForbidden
	}
	filter.Clean()
	if err := svc.validate.Struct(filter); err != nil {
		return nil, 0, err
	}
	filter.ClaimantID = ""
	filter.Statuses = nil
	page.Clean()
	return svc.repo.QueryClaims(ctx, &filter, page)
}

// Review applies a moderator decision.
// Approving hands the university to the claimant, upgrades them to an institution account
// and rejects the other open claims for the same university.
func (svc *Service) Review(ctx context.Context, actor user.User, id string, r Review) (Claim, error) {
	if !actor.IsModerator() {
		return Claim{}, core.ErrForbidden
	}
	if err := r.Validate(svc.validate); err != nil {
		return Claim{}, err
	}
	c, err := svc.get(ctx, id)
	if err != nil {
		return Claim{}, err
	}
	if !c.IsOpen() {
		return Claim{}, core.NewConflictError(errNotOpen)
	}
	univ, err := svc.universities.Get(ctx, c.UniversityID)
	if err != nil {
		return Claim{}, err
	}

	now := NowFunc().UTC()
	switch r.Action {
	case ActionApprove:
		if !c.EmailVerified {
			return Claim{}, core.NewConflictError(errEmailNotVerified)
		}
		if univ.IsClaimed() && univ.ClaimedBy != c.ClaimantID {
			return Claim{}, core.NewConflictError(errAlreadyClaimed)
		}
		c.Status = StatusApproved
	case ActionReject:
		c.Status = StatusRejected
	case ActionRequestInfo:
		if c.Status != StatusPending {
			return Claim{}, core.NewConflictError(errNotOpen)
		}
		c.Status = StatusNeedsInfo
	}
	c.ReviewNote = r.Note
	c.ReviewedBy = actor.ID
	c.UpdatedAt = now

	if c, err = svc.repo.UpdateClaim(ctx, c); err != nil {
		return Claim{}, err
	}
	if c.Status == StatusApproved {
		if err = svc.approve(ctx, actor, c); err != nil {
			return Claim{}, err
		}
	}
	svc.notify(ctx, c, univ)
	return c, nil
}

func (svc *Service) approve(ctx context.Context, actor user.User, c Claim) error {
	univ, err := svc.universities.SetClaimedBy(ctx, c.UniversityID, c.ClaimantID)
	if err != nil {
		return errors.Wrap(err, "setting university owner")
	}
	if _, err = svc.users.SetAccountType(ctx, c.ClaimantID, user.AccountInstitution); err != nil {
		return errors.Wrap(err, "upgrading claimant account")
	}

	others, err := svc.openClaims(ctx, QueryFilter{UniversityID: c.UniversityID})
	if err != nil {
		return err
	}
	for _, other := range others {
		other.Status = StatusRejected
		other.ReviewNote = supersededReviewNote
		other.ReviewedBy = actor.ID
		other.UpdatedAt = c.UpdatedAt
		if other, err = svc.repo.UpdateClaim(ctx, other); err != nil {
			return errors.Wrap(err, "rejecting superseded claim")
		}
		svc.notify(ctx, other, univ)
	}
	return nil
}

func (svc *Service) notify(ctx context.Context, c Claim, univ university.University) {
	claimant, err := svc.users.GetByID(ctx, c.ClaimantID)
	if err != nil {
		svc.logger.Warn("claim.notify: getting claimant", err)
		return
	}
	if !claimant.Notifiable() {
		return
	}
	to := mail.Address{Name: claimant.Name, Address: c.ContactEmail}
	data := map[string]string{
		"Name":       core.Salutation(to),
		"University": univ.Name,
		"Status":     strings.ToLower(strings.ReplaceAll(c.Status, "_", " ")),
		"Note":       c.ReviewNote,
	}
	svc.mailer.SendMessages(core.NewTemplatedMessage(to, "Your university claim was reviewed", statusTemplate, data, svc.frontendBaseURL))
}

// AddDocuments answers a request for information and puts the claim back in review.
func (svc *Service) AddDocuments(ctx context.Context, actor user.User, id string, d Documents) (Claim, error) {
	c, err := svc.Get(ctx, actor, id)
	if err != nil {
		return Claim{}, err
	}
	if c.ClaimantID != actor.ID {
		return Claim{}, core.ErrForbidden
	}
	if c.Status != StatusNeedsInfo {
		return Claim{}, core.NewConflictError(errNotNeedsInfo)
	}
	if err = d.Validate(svc.validate); err != nil {
		return Claim{}, err
	}
	c.DocumentURLs = core.CleanStrings(append(c.DocumentURLs, d.DocumentURLs...))
	if d.Message != "" {
		c.Message = d.Message
	}
	c.Status = StatusPending
	c.UpdatedAt = NowFunc().UTC()
	return svc.repo.UpdateClaim(ctx, c)
}

func (svc *Service) Withdraw(ctx context.Context, actor user.User, id string) (Claim, error) {
	c, err := svc.Get(ctx, actor, id)
	if err != nil {
		return Claim{}, err
	}
	if c.ClaimantID != actor.ID {
		return Claim{}, core.ErrForbidden
	}
	if !c.IsOpen() {
		return Claim{}, core.NewConflictError(errNotOpen)
	}
	c.Status = StatusWithdrawn
	c.UpdatedAt = NowFunc().UTC()
	return svc.repo.UpdateClaim(ctx, c)
}
