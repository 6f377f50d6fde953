package tests

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benouakrim/Academora-02-sub002/core"
	"github.com/Benouakrim/Academora-02-sub002/core/article"
	"github.com/Benouakrim/Academora-02-sub002/core/comment"
	"github.com/Benouakrim/Academora-02-sub002/core/user"
	emailsvc "github.com/Benouakrim/Academora-02-sub002/services/email"
	"github.com/Benouakrim/Academora-02-sub002/tests"
)

var (
	submit  = article.Transition{Action: article.ActionSubmit}
	approve = article.Transition{Action: article.ActionApprove}
)

func Test_articleApi_workflow(t *testing.T) {
	env.Reset()

	author := testutil.CreateUser(t, env.UserRepo, "Writer", "writer@test.com", nil, true)
	moderator := testutil.CreateUser(t, env.UserRepo, "Mod", "mod@test.com", []string{user.RoleAdminModerator}, true)
	stranger := testutil.CreateUser(t, env.UserRepo, "Awe", "awe@test.com", nil, true)
	authorToken := getToken(t, author)
	modToken := getToken(t, moderator)

	rec := serve(http.MethodPost, "/v1/articles", authorToken, []byte(`{"title":"How to pick a major","content":"<p>Think.</p>","category":"guides","tags":["Majors"]}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var art article.Article
	decode(t, rec, &art)
	assert.Equal(t, article.StatusDraft, art.Status)
	assert.Equal(t, "how-to-pick-a-major", art.Slug)
	assert.Equal(t, author.ID, art.AuthorID)

	transition := func(token, action, note string) int {
		rec := serve(http.MethodPost, "/v1/articles/"+art.ID+"/transition", token,
			marshallObj(t, article.Transition{Action: action, Note: note}))
		if rec.Code == http.StatusOK {
			decode(t, rec, &art)
		}
		return rec.Code
	}

	runHTTPTests(t, []httpTest{
		{
			name:     "create invalid",
			method:   http.MethodPost,
			path:     "/v1/articles",
			body:     []byte(`{"title":"","content":"x","category":"gossip"}`),
			token:    authorToken,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "draft hidden from anonymous readers",
			method:   http.MethodGet,
			path:     "/v1/articles/" + art.Slug,
			wantCode: http.StatusNotFound,
		},
		{
			name:     "draft hidden from other users",
			method:   http.MethodGet,
			path:     "/v1/articles/" + art.ID,
			token:    getToken(t, stranger),
			wantCode: http.StatusNotFound,
		},
		{
			name:     "stranger cannot edit",
			method:   http.MethodPut,
			path:     "/v1/articles/" + art.ID,
			body:     []byte(`{"title":"Mine now","content":"x"}`),
			token:    getToken(t, stranger),
			wantCode: http.StatusForbidden,
		},
		{
			name:     "authors cannot approve",
			method:   http.MethodPost,
			path:     "/v1/articles/" + art.ID + "/transition",
			body:     marshallObj(t, approve),
			token:    authorToken,
			wantCode: http.StatusForbidden,
		},
		{
			name:     "unknown action",
			method:   http.MethodPost,
			path:     "/v1/articles/" + art.ID + "/transition",
			body:     []byte(`{"action":"yeet"}`),
			token:    authorToken,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "moderation queue requires a moderator",
			method:   http.MethodGet,
			path:     "/v1/articles/moderation",
			token:    authorToken,
			wantCode: http.StatusForbidden,
			wantData: marshallObj(t, errPermission),
		},
	})

	// the slug follows the title while unpublished
	rec = serve(http.MethodPut, "/v1/articles/"+art.ID, authorToken, []byte(`{"title":"Choosing a major","content":"<p>Think hard.</p>","category":"guides"}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &art)
	assert.Equal(t, "choosing-a-major", art.Slug)

	require.Equal(t, http.StatusOK, transition(authorToken, article.ActionSubmit, ""))
	assert.Equal(t, article.StatusPending, art.Status)

	require.Equal(t, http.StatusBadRequest, transition(modToken, article.ActionReject, ""), "rejecting needs a note")

	rec = serve(http.MethodGet, "/v1/articles/moderation", modToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var queue struct {
		Items []article.Article `json:"items"`
		Total int               `json:"total"`
	}
	decode(t, rec, &queue)
	require.Equal(t, 1, queue.Total)
	assert.Equal(t, art.ID, queue.Items[0].ID)

	require.Equal(t, http.StatusOK, transition(modToken, article.ActionApprove, "nice"))
	assert.Equal(t, article.StatusPublished, art.Status)
	assert.NotNil(t, art.PublishedAt)
	assert.Equal(t, moderator.ID, art.ReviewedBy)
	assert.Equal(t, http.StatusConflict, transition(modToken, article.ActionApprove, ""), "already published")

	// the author was told
	msgs := emailsvc.SentMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, author.Email, msgs[0].To[0].Address)
	assert.True(t, strings.HasPrefix(msgs[0].TextContent, "Hi Writer,\n"), msgs[0].TextContent)
	assert.Contains(t, msgs[0].TextContent, `"`+art.Title+`" is now published`)
	assert.Contains(t, msgs[0].HTMLContent, "Hi Writer,")

	// published: readable by anyone, views counted for readers other than the author
	rec = serve(http.MethodGet, "/v1/articles/"+art.Slug, "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = serve(http.MethodGet, "/v1/articles/"+art.Slug, authorToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var read article.Article
	decode(t, rec, &read)
	assert.Equal(t, 1, read.ViewCount)

	// the slug is frozen once published; authors can no longer edit
	rec = serve(http.MethodPut, "/v1/articles/"+art.ID, authorToken, []byte(`{"title":"Another","content":"x"}`))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = serve(http.MethodPut, "/v1/articles/"+art.ID, modToken, []byte(`{"title":"Choosing your major","content":"<p>Think.</p>","category":"guides"}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &art)
	assert.Equal(t, "choosing-a-major", art.Slug)

	rec = serve(http.MethodGet, "/v1/articles?category=guides", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Items []article.Article `json:"items"`
		Total int               `json:"total"`
	}
	decode(t, rec, &list)
	assert.Equal(t, 1, list.Total)

	// archiving is open to the author
	require.Equal(t, http.StatusOK, transition(authorToken, article.ActionArchive, ""))
	assert.Equal(t, article.StatusArchived, art.Status)
	rec = serve(http.MethodGet, "/v1/articles/"+art.Slug, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// only drafts may be deleted by their author
	rec = serve(http.MethodDelete, "/v1/articles/"+art.ID, authorToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = serve(http.MethodDelete, "/v1/articles/"+art.ID, modToken)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func Test_articleApi_listMine(t *testing.T) {
	env.Reset()

	author := testutil.CreateUser(t, env.UserRepo, "Writer", "writer@test.com", nil, true)
	other := testutil.CreateUser(t, env.UserRepo, "Other", "other@test.com", nil, true)
	draft := testutil.CreateArticle(t, env.Articles, author, "Draft one")
	pending := testutil.CreateArticle(t, env.Articles, author, "Pending one", submit)
	testutil.CreateArticle(t, env.Articles, other, "Not mine")

	rec := serve(http.MethodGet, "/v1/articles/mine", getToken(t, author))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res struct {
		Items []article.Article `json:"items"`
		Total int               `json:"total"`
	}
	decode(t, rec, &res)
	require.Equal(t, 2, res.Total)
	ids := []string{res.Items[0].ID, res.Items[1].ID}
	assert.ElementsMatch(t, []string{draft.ID, pending.ID}, ids)

	rec = serve(http.MethodGet, "/v1/articles/mine?status=PENDING", getToken(t, author))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res.Items, res.Total = nil, 0
	decode(t, rec, &res)
	require.Equal(t, 1, res.Total)
	assert.Equal(t, pending.ID, res.Items[0].ID)

	rec = serve(http.MethodGet, "/v1/articles", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, string(marshallObj(t, core.PageResult{Items: []article.Article{}, Page: 1, PageSize: core.DefaultPageSize})), rec.Body.String())
}

func Test_commentApi(t *testing.T) {
	env.Reset()

	author := testutil.CreateUser(t, env.UserRepo, "Writer", "writer@test.com", nil, true)
	moderator := testutil.CreateUser(t, env.UserRepo, "Mod", "mod@test.com", []string{user.RoleAdminModerator}, true)
	reader := testutil.CreateUser(t, env.UserRepo, "Reader", "reader@test.com", nil, true)
	readerToken := getToken(t, reader)

	draft := testutil.CreateArticle(t, env.Articles, author, "Still drafting")
	art := testutil.CreateArticle(t, env.Articles, author, "Live article", submit)
	art, err := env.Articles.Transition(ctxBg, moderator, art.ID, approve)
	require.NoError(t, err)

	post := func(token, articleID, parentID, content string) (*comment.Comment, int) {
		rec := serve(http.MethodPost, "/v1/articles/"+articleID+"/comments", token,
			marshallObj(t, comment.NewComment{ParentID: parentID, Content: content}))
		if rec.Code != http.StatusCreated {
			return nil, rec.Code
		}
		var c comment.Comment
		decode(t, rec, &c)
		return &c, rec.Code
	}

	_, code := post("", art.ID, "", "hi")
	assert.Equal(t, http.StatusUnauthorized, code)
	_, code = post(readerToken, draft.ID, "", "first!")
	assert.Equal(t, http.StatusConflict, code)
	_, code = post(readerToken, art.ID, "", "   ")
	assert.Equal(t, http.StatusBadRequest, code)

	// nest replies down to the maximum depth
	root, code := post(readerToken, art.ID, "", "root")
	require.Equal(t, http.StatusCreated, code)
	parent := root
	for depth := 2; depth <= comment.MaxDepth; depth++ {
		parent, code = post(readerToken, art.ID, parent.ID, "reply")
		require.Equal(t, http.StatusCreated, code, "depth %d", depth)
	}
	rec := serve(http.MethodPost, "/v1/articles/"+art.ID+"/comments", readerToken,
		marshallObj(t, comment.NewComment{ParentID: parent.ID, Content: "too deep"}))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"parent_id":"replies cannot be nested deeper than 5 levels"}`, rec.Body.String())

	rec = serve(http.MethodGet, "/v1/articles/"+art.ID+"/comments", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var tree []*comment.Node
	decode(t, rec, &tree)
	require.Len(t, tree, 1)
	depth, node := 1, tree[0]
	for len(node.Replies) > 0 {
		node = node.Replies[0]
		depth++
	}
	assert.Equal(t, comment.MaxDepth, depth)

	// only the author edits; deleting a comment with replies blanks it
	rec = serve(http.MethodPut, "/v1/comments/"+root.ID, getToken(t, author), []byte(`{"content":"hijack"}`))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = serve(http.MethodPut, "/v1/comments/"+root.ID, readerToken, []byte(`{"content":"root, edited"}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = serve(http.MethodDelete, "/v1/comments/"+root.ID, getToken(t, moderator))
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = serve(http.MethodGet, "/v1/articles/"+art.ID+"/comments", readerToken)
	require.Equal(t, http.StatusOK, rec.Code)
	tree = nil
	decode(t, rec, &tree)
	require.Len(t, tree, 1)
	assert.True(t, tree[0].IsDeleted)
	assert.Empty(t, tree[0].Content)

	_, code = post(readerToken, art.ID, root.ID, "reply to the void")
	assert.Equal(t, http.StatusBadRequest, code)

	// a leaf goes away entirely
	rec = serve(http.MethodDelete, "/v1/comments/"+parent.ID, readerToken)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = serve(http.MethodDelete, "/v1/comments/"+parent.ID, readerToken)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(http.MethodGet, "/v1/articles/"+draft.ID+"/comments", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
