package comment

import (
	"sort"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Benouakrim/Academora-02-sub002/core"
)

// MaxDepth is the deepest a reply may be nested; top-level comments have depth 1.
const MaxDepth = 5

type Comment struct {
	ID        string    `json:"id"`
	ArticleID string    `json:"article_id"`
	AuthorID  string    `json:"author_id"`
	ParentID  string    `json:"parent_id,omitempty"`
	Content   string    `json:"content"`
	IsDeleted bool      `json:"is_deleted"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Node is a comment with its replies.
type Node struct {
	Comment
	Replies []*Node `json:"replies"`
}

type NewComment struct {
	ParentID string `json:"parent_id" validate:"omitempty,uuid"`
	Content  string `json:"content" validate:"required,notblank,max=5000"`
}

func (nc *NewComment) Validate(validate *validator.Validate) error {
	nc.ParentID = core.CleanString(nc.ParentID)
	nc.Content = core.CleanString(nc.Content)
	return validate.Struct(nc)
}

type UpdateComment struct {
	Content string `json:"content" validate:"required,notblank,max=5000"`
}

func (uc *UpdateComment) Validate(validate *validator.Validate) error {
	uc.Content = core.CleanString(uc.Content)
	return validate.Struct(uc)
}

// BuildTree nests comments under their parent, oldest first at every level.
// Comments whose parent is not in the list become roots.
func BuildTree(comments []Comment) []*Node {
	sorted := make([]Comment, len(comments))
	copy(sorted, comments)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
		}
		return sorted[i].ID < sorted[j].ID
	})

	nodes := make(map[string]*Node, len(sorted))
	for _, c := range sorted {
		nodes[c.ID] = &Node{Comment: c, Replies: []*Node{}}
	}
	roots := make([]*Node, 0)
	for _, c := range sorted {
		node := nodes[c.ID]
		if parent, ok := nodes[c.ParentID]; ok && c.ParentID != "" {
			parent.Replies = append(parent.Replies, node)
			continue
		}
		roots = append(roots, node)
	}
	return roots
}
