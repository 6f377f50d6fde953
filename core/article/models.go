package article

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Benouakrim/Academora-02-sub002/core"
)

// Statuses
const (
	StatusDraft         = "DRAFT"
	StatusPending       = "PENDING"
	StatusPublished     = "PUBLISHED"
	StatusRejected      = "REJECTED"
	StatusNeedsRevision = "NEEDS_REVISION"
	StatusArchived      = "ARCHIVED"
)

// Actions
const (
	ActionSubmit          = "submit"
	ActionApprove         = "approve"
	ActionReject          = "reject"
	ActionRequestRevision = "request_revision"
	ActionPublish         = "publish"
	ActionArchive         = "archive"
	ActionRestore         = "restore"
)

var (
	Statuses = []string{StatusDraft, StatusPending, StatusPublished, StatusRejected, StatusNeedsRevision, StatusArchived}

	// Categories an article may be filed under.
	Categories = []string{"admissions", "financial-aid", "campus-life", "careers", "test-prep", "news", "guides"}
)

type Article struct {
	ID            string     `json:"id"`
	AuthorID      string     `json:"author_id"`
	Title         string     `json:"title"`
	Slug          string     `json:"slug"`
	Excerpt       string     `json:"excerpt"`
	Content       string     `json:"content"`
	Category      string     `json:"category"`
	Tags          []string   `json:"tags"`
	CoverImageURL string     `json:"cover_image_url"`
	Status        string     `json:"status"`
	ReviewNote    string     `json:"review_note"`
	ReviewedBy    string     `json:"reviewed_by,omitempty"`
	ViewCount     int        `json:"view_count"`
	PublishedAt   *time.Time `json:"published_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (a Article) IsPublished() bool { return a.Status == StatusPublished }

// Content defines what an author may write.
type Content struct {
	Title         string   `json:"title" validate:"required,notblank,max=255"`
	Excerpt       string   `json:"excerpt" validate:"max=500"`
	Content       string   `json:"content" validate:"required,notblank"`
	Category      string   `json:"category" validate:"omitempty,category"`
	Tags          []string `json:"tags" validate:"omitempty,max=10,dive,notblank,max=32"`
	CoverImageURL string   `json:"cover_image_url" validate:"omitempty,url"`
}

func (c *Content) Validate(validate *validator.Validate) error {
	c.Title = core.CleanString(c.Title)
	c.Excerpt = core.CleanString(c.Excerpt)
	c.Category = core.CleanString(c.Category, true /* lower */)
	c.Tags = core.CleanStrings(c.Tags, true /* lower */)
	c.CoverImageURL = core.CleanString(c.CoverImageURL)
	return validate.Struct(c)
}

type Transition struct {
	Action string `json:"action" validate:"required,oneof=submit approve reject request_revision publish archive restore"`
	Note   string `json:"note" validate:"max=2000"`
}

func (tr *Transition) Validate(validate *validator.Validate) error {
	tr.Action = core.CleanString(tr.Action, true /* lower */)
	tr.Note = core.CleanString(tr.Note)
	return validate.Struct(tr)
}

type QueryFilter struct {
	Search   string `query:"search"`
	Category string `query:"category"`
	Tag      string `query:"tag"`
	Status   string `query:"status" validate:"omitempty,articlestatus"`
	AuthorID string `query:"-"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Category = core.CleanString(qf.Category, true /* lower */)
	qf.Tag = core.CleanString(qf.Tag, true /* lower */)
	qf.Status = strings.ToUpper(core.CleanString(qf.Status))
}

// Matches applies the filter in memory; used by non-SQL repositories.
func (qf *QueryFilter) Matches(a Article) bool {
	if qf == nil {
		return true
	}
	if qf.Search != "" && !containsFold(a.Title, qf.Search) && !containsFold(a.Excerpt, qf.Search) {
		return false
	}
	if qf.Category != "" && a.Category != qf.Category {
		return false
	}
	if qf.Tag != "" && !core.ContainsString(a.Tags, qf.Tag) {
		return false
	}
	if qf.Status != "" && a.Status != qf.Status {
		return false
	}
	if qf.AuthorID != "" && a.AuthorID != qf.AuthorID {
		return false
	}
	return true
}
