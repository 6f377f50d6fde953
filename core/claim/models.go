package claim

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Benouakrim/Academora-02-sub002/core"
)

// Statuses
const (
	StatusPending   = "PENDING"
	StatusNeedsInfo = "NEEDS_INFO"
	StatusApproved  = "APPROVED"
	StatusRejected  = "REJECTED"
	StatusWithdrawn = "WITHDRAWN"
)

// Review actions
const (
	ActionApprove     = "approve"
	ActionReject      = "reject"
	ActionRequestInfo = "request_info"
)

var (
	Statuses = []string{StatusPending, StatusNeedsInfo, StatusApproved, StatusRejected, StatusWithdrawn}

	// OpenStatuses are the statuses of a claim still under review.
	OpenStatuses = []string{StatusPending, StatusNeedsInfo}
)

type Claim struct {
	ID            string    `json:"id"`
	UniversityID  string    `json:"university_id"`
	ClaimantID    string    `json:"claimant_id"`
	Title         string    `json:"title"`
	ContactEmail  string    `json:"contact_email"`
	DocumentURLs  []string  `json:"document_urls"`
	Message       string    `json:"message"`
	Status        string    `json:"status"`
	ReviewNote    string    `json:"review_note"`
	ReviewedBy    string    `json:"reviewed_by,omitempty"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (c Claim) IsOpen() bool { return core.ContainsString(OpenStatuses, c.Status) }

type NewClaim struct {
	UniversityID string   `json:"university_id" validate:"required,uuid"`
	Title        string   `json:"title" validate:"max=128"`
	ContactEmail string   `json:"contact_email" validate:"required,email,max=255"`
	DocumentURLs []string `json:"document_urls" validate:"max=10,dive,url"`
	Message      string   `json:"message" validate:"max=5000"`
}

func (nc *NewClaim) Validate(validate *validator.Validate) error {
	nc.UniversityID = core.CleanString(nc.UniversityID)
	nc.Title = core.CleanString(nc.Title)
	nc.ContactEmail = core.CleanString(nc.ContactEmail, true /* lower */)
	nc.DocumentURLs = core.CleanStrings(nc.DocumentURLs)
	nc.Message = core.CleanString(nc.Message)
	return validate.Struct(nc)
}

type Review struct {
	Action string `json:"action" validate:"required,oneof=approve reject request_info"`
	Note   string `json:"note" validate:"max=2000"`
}

func (r *Review) Validate(validate *validator.Validate) error {
	r.Action = core.CleanString(r.Action, true /* lower */)
	r.Note = core.CleanString(r.Note)
	if err := validate.Struct(r); err != nil {
		return err
	}
	if r.Action != ActionApprove && r.Note == "" {
		return core.NewFieldError("note", "a note is required for this action")
	}
	return nil
}

// Documents answers a request for more information.
type Documents struct {
	DocumentURLs []string `json:"document_urls" validate:"required,min=1,max=10,dive,url"`
	Message      string   `json:"message" validate:"max=5000"`
}

func (d *Documents) Validate(validate *validator.Validate) error {
	d.DocumentURLs = core.CleanStrings(d.DocumentURLs)
	d.Message = core.CleanString(d.Message)
	return validate.Struct(d)
}

type Verification struct {
	ClaimID string `json:"claim_id" validate:"required"`
	Token   string `json:"token" validate:"required"`
}

type QueryFilter struct {
	UniversityID string   `query:"university_id"`
	ClaimantID   string   `query:"-"`
	Status       string   `query:"status" validate:"omitempty,oneof=PENDING NEEDS_INFO APPROVED REJECTED WITHDRAWN"`
	Statuses     []string `query:"-"`
}

func (qf *QueryFilter) Clean() {
	qf.UniversityID = core.CleanString(qf.UniversityID)
	qf.Status = strings.ToUpper(core.CleanString(qf.Status))
}

// Matches applies the filter in memory; used by non-SQL repositories.
func (qf *QueryFilter) Matches(c Claim) bool {
	if qf == nil {
		return true
	}
	if qf.UniversityID != "" && c.UniversityID != qf.UniversityID {
		return false
	}
	if qf.ClaimantID != "" && c.ClaimantID != qf.ClaimantID {
		return false
	}
	if qf.Status != "" && c.Status != qf.Status {
		return false
	}
	if len(qf.Statuses) > 0 && !core.ContainsString(qf.Statuses, c.Status) {
		return false
	}
	return true
}
