package article

import (
	"github.com/pkg/errors"

	"github.com/Benouakrim/Academora-02-sub002/core"
	"github.com/Benouakrim/Academora-02-sub002/core/user"
)

var ErrInvalidTransition = errors.New("this action is not allowed in the current status")

type transitionRule struct {
	from          []string
	to            string
	moderatorOnly bool
	noteRequired  bool
}

var workflow = map[string]transitionRule{
	ActionSubmit: {
		from: []string{StatusDraft, StatusNeedsRevision, StatusRejected},
		to:   StatusPending,
	},
	ActionApprove: {
		from:          []string{StatusPending},
		to:            StatusPublished,
		moderatorOnly: true,
	},
	ActionReject: {
		from:          []string{StatusPending},
		to:            StatusRejected,
		moderatorOnly: true,
		noteRequired:  true,
	},
	ActionRequestRevision: {
		from:          []string{StatusPending},
		to:            StatusNeedsRevision,
		moderatorOnly: true,
		noteRequired:  true,
	},
	ActionPublish: {
		from:          []string{StatusDraft},
		to:            StatusPublished,
		moderatorOnly: true,
	},
	ActionArchive: {
		from: []string{StatusPublished},
		to:   StatusArchived,
	},
	ActionRestore: {
		from:          []string{StatusArchived},
		to:            StatusPublished,
		moderatorOnly: true,
	},
}

// NextStatus validates that actor may apply action to art and returns the resulting status.
func NextStatus(art Article, actor user.User, action, note string) (string, error) {
	rule, ok := workflow[action]
	if !ok {
		return "", core.NewFieldError("action", "unknown action")
	}
	moderator := actor.IsModerator()
	if rule.moderatorOnly && !moderator {
		return "", core.ErrForbidden
	}
	if !moderator && art.AuthorID != actor.ID {
		return "", core.ErrForbidden
	}
	if !core.ContainsString(rule.from, art.Status) {
		return "", core.NewConflictError(ErrInvalidTransition.Error() + ": " + action + " from " + art.Status)
	}
	if rule.noteRequired && note == "" {
		return "", core.NewFieldError("note", "a note is required for this action")
	}
	return rule.to, nil
}

// Editable reports whether actor may change the content of art.
func Editable(art Article, actor user.User) bool {
	if actor.IsModerator() {
		return true
	}
	if art.AuthorID != actor.ID {
		return false
	}
	return art.Status == StatusDraft || art.Status == StatusNeedsRevision || art.Status == StatusRejected
}

// Deletable reports whether actor may delete art.
func Deletable(art Article, actor user.User) bool {
	return actor.IsModerator() || (art.AuthorID == actor.ID && art.Status == StatusDraft)
}

// Visible reports whether actor may read art; a zero actor is anonymous.
func Visible(art Article, actor user.User) bool {
	return art.IsPublished() || actor.IsModerator() || (actor.ID != "" && art.AuthorID == actor.ID)
}
