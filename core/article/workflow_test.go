package article

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Benouakrim/Academora-02-sub002/core"
	"github.com/Benouakrim/Academora-02-sub002/core/user"
)

func TestNextStatus(t *testing.T) {
	author := user.User{ID: "author"}
	stranger := user.User{ID: "stranger"}
	moderator := user.User{ID: "mod", Roles: []string{user.RoleAdminModerator}}

	tests := []struct {
		name    string
		status  string
		actor   user.User
		action  string
		note    string
		want    string
		wantErr bool
		errIs   error
	}{
		{name: "author submits draft", status: StatusDraft, actor: author, action: ActionSubmit, want: StatusPending},
		{name: "author resubmits revision", status: StatusNeedsRevision, actor: author, action: ActionSubmit, want: StatusPending},
		{name: "author resubmits rejected", status: StatusRejected, actor: author, action: ActionSubmit, want: StatusPending},
		{name: "stranger submits", status: StatusDraft, actor: stranger, action: ActionSubmit, wantErr: true, errIs: core.ErrForbidden},
		{name: "submit twice", status: StatusPending, actor: author, action: ActionSubmit, wantErr: true},
		{name: "author approves", status: StatusPending, actor: author, action: ActionApprove, wantErr: true, errIs: core.ErrForbidden},
		{name: "moderator approves", status: StatusPending, actor: moderator, action: ActionApprove, want: StatusPublished},
		{name: "reject without note", status: StatusPending, actor: moderator, action: ActionReject, wantErr: true},
		{name: "reject", status: StatusPending, actor: moderator, action: ActionReject, note: "off topic", want: StatusRejected},
		{name: "request revision", status: StatusPending, actor: moderator, action: ActionRequestRevision, note: "add sources", want: StatusNeedsRevision},
		{name: "publish draft", status: StatusDraft, actor: moderator, action: ActionPublish, want: StatusPublished},
		{name: "publish pending", status: StatusPending, actor: moderator, action: ActionPublish, wantErr: true},
		{name: "author archives", status: StatusPublished, actor: author, action: ActionArchive, want: StatusArchived},
		{name: "stranger archives", status: StatusPublished, actor: stranger, action: ActionArchive, wantErr: true, errIs: core.ErrForbidden},
		{name: "author restores", status: StatusArchived, actor: author, action: ActionRestore, wantErr: true, errIs: core.ErrForbidden},
		{name: "moderator restores", status: StatusArchived, actor: moderator, action: ActionRestore, want: StatusPublished},
		{name: "unknown action", status: StatusDraft, actor: author, action: "burn", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			art := Article{AuthorID: author.ID, Status: tt.status}
			got, err := NextStatus(art, tt.actor, tt.action, tt.note)
			if tt.wantErr {
				assert.Error(t, err)
				if tt.errIs != nil {
					assert.Equal(t, tt.errIs, err)
				}
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPermissions(t *testing.T) {
	author := user.User{ID: "author"}
	moderator := user.User{ID: "mod", Roles: []string{user.RoleAdminModerator}}
	anonymous := user.User{}

	for _, status := range Statuses {
		art := Article{AuthorID: author.ID, Status: status}

		wantEditable := status == StatusDraft || status == StatusNeedsRevision || status == StatusRejected
		assert.Equal(t, wantEditable, Editable(art, author), "author edits %s", status)
		assert.True(t, Editable(art, moderator), "moderator edits %s", status)

		assert.Equal(t, status == StatusDraft, Deletable(art, author), "author deletes %s", status)
		assert.True(t, Deletable(art, moderator))

		assert.True(t, Visible(art, author))
		assert.Equal(t, status == StatusPublished, Visible(art, anonymous), "anonymous reads %s", status)
	}
}
