package community

import (
	"context"
	"strconv"

	"github.com/doodlesbykumbi/community-in-go/pkg/client"
	"github.com/doodlesbykumbi/community-in-go/pkg/model"
	"github.com/doodlesbykumbi/community-in-go/pkg/rpc"
	"github.com/doodlesbykumbi/community-in-go/pkg/validation"
)

const (
	postsTable    = "posts"
	commentsTable = "comments"
)

type PostFilter struct {
	SpaceID  string
	AuthorID string
	// Search matches titles, case-insensitively.
	Search string
	// Drafts includes unpublished posts the caller may see.
	Drafts bool
	ListOptions
}

type PostInput struct {
	SpaceID   string `json:"space_id" validate:"required,uuid"`
	Title     string `json:"title" validate:"required,max=200"`
	Body      string `json:"body" validate:"required,max=50000"`
	Published *bool  `json:"published,omitempty"`
}

// PostUpdate changes a post. Nil fields are left alone.
type PostUpdate struct {
	Title     *string `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Body      *string `json:"body,omitempty" validate:"omitempty,max=50000"`
	Published *bool   `json:"published,omitempty"`
}

type CommentInput struct {
	PostID string `json:"post_id" validate:"required,uuid"`
	Body   string `json:"body" validate:"required,max=10000"`
}

// Posts lists posts, pinned first and then newest first.
func (d *Data) Posts(ctx context.Context, f PostFilter) (Page[model.Post], error) {
	return fetch(ctx, d, querySpec{
		key:     d.key(postsTable, "list", f.SpaceID, f.AuthorID, f.Search, strconv.FormatBool(f.Drafts), f.key()),
		stale:   staleShort,
		failure: "Could not load posts",
	}, func(ctx context.Context) (Page[model.Post], error) {
		tq := d.client.From(postsTable).
			Order("pinned", client.Descending()).
			Order("created_at", client.Descending())
		if f.SpaceID != "" {
			tq.Eq("space_id", f.SpaceID)
		}
		if f.AuthorID != "" {
			tq.Eq("author_id", f.AuthorID)
		}
		if f.Search != "" {
			tq.ILike("title", "%"+f.Search+"%")
		}
		if !f.Drafts {
			tq.Is("published", true)
		}
		return selectPage[model.Post](ctx, tq, f.ListOptions)
	})
}

// Post returns the post with id, or nil.
func (d *Data) Post(ctx context.Context, id string) (*model.Post, error) {
	return fetch(ctx, d, querySpec{
		key:     d.key(postsTable, "id", id),
		stale:   staleShort,
		failure: "Could not load the post",
	}, func(ctx context.Context) (*model.Post, error) {
		return selectOne[model.Post](ctx, d.client.From(postsTable).Eq("id", id))
	})
}

func (d *Data) CreatePost(ctx context.Context, in PostInput) (*model.Post, error) {
	return mutate(ctx, d, mutation{
		success:     "Post created",
		failure:     "Could not create the post",
		invalidates: []string{postsTable},
	}, func(ctx context.Context) (*model.Post, error) {
		if err := validation.Struct(in); err != nil {
			return nil, err
		}
		return insertRow[model.Post](ctx, d, postsTable, in)
	})
}

func (d *Data) UpdatePost(ctx context.Context, id string, u PostUpdate) (*model.Post, error) {
	return mutate(ctx, d, mutation{
		success:     "Post updated",
		failure:     "Could not update the post",
		invalidates: []string{postsTable},
	}, func(ctx context.Context) (*model.Post, error) {
		if err := validation.Struct(u); err != nil {
			return nil, err
		}
		return updateRow[model.Post](ctx, d, postsTable, id, u)
	})
}

// PinPost pins or unpins a post. Moderators only.
func (d *Data) PinPost(ctx context.Context, id string, pinned bool) (*model.Post, error) {
	msg := "Post unpinned"
	if pinned {
		msg = "Post pinned"
	}
	return mutate(ctx, d, mutation{
		success:     msg,
		failure:     "Could not change the pin",
		invalidates: []string{postsTable},
	}, func(ctx context.Context) (*model.Post, error) {
		return updateRow[model.Post](ctx, d, postsTable, id, map[string]bool{"pinned": pinned})
	})
}

func (d *Data) DeletePost(ctx context.Context, id string) error {
	_, err := mutate(ctx, d, mutation{
		success:     "Post deleted",
		failure:     "Could not delete the post",
		invalidates: []string{postsTable, commentsTable},
	}, func(ctx context.Context) (struct{}, error) {
		return deleteRow(ctx, d, postsTable, id)
	})
	return err
}

// BulkDeletePosts removes several posts in one transaction.
func (d *Data) BulkDeletePosts(ctx context.Context, ids []string) (rpc.BulkResult, error) {
	return mutate(ctx, d, mutation{
		success:     "Posts deleted",
		failure:     "Could not delete the posts",
		invalidates: []string{postsTable, commentsTable},
	}, func(ctx context.Context) (rpc.BulkResult, error) {
		args := rpc.BulkDeletePostsArgs{PostIDs: ids}
		if err := validation.Struct(args); err != nil {
			return rpc.BulkResult{}, err
		}
		return call[rpc.BulkResult](ctx, d, "bulk_delete_posts", args)
	})
}

// BulkMovePosts moves several posts into spaceID in one transaction.
func (d *Data) BulkMovePosts(ctx context.Context, ids []string, spaceID string) (rpc.BulkResult, error) {
	return mutate(ctx, d, mutation{
		success:     "Posts moved",
		failure:     "Could not move the posts",
		invalidates: []string{postsTable},
	}, func(ctx context.Context) (rpc.BulkResult, error) {
		args := rpc.BulkMovePostsArgs{PostIDs: ids, SpaceID: spaceID}
		if err := validation.Struct(args); err != nil {
			return rpc.BulkResult{}, err
		}
		return call[rpc.BulkResult](ctx, d, "bulk_move_posts", args)
	})
}

// Comments lists a post's comments, oldest first.
func (d *Data) Comments(ctx context.Context, postID string) ([]model.Comment, error) {
	return fetch(ctx, d, querySpec{
		key:     d.key(commentsTable, "post", postID),
		stale:   staleNever,
		failure: "Could not load comments",
	}, func(ctx context.Context) ([]model.Comment, error) {
		return selectRows[model.Comment](ctx, d.client.From(commentsTable).Eq("post_id", postID).Order("created_at"))
	})
}

func (d *Data) AddComment(ctx context.Context, in CommentInput) (*model.Comment, error) {
	return mutate(ctx, d, mutation{
		success:     "Comment added",
		failure:     "Could not add the comment",
		invalidates: []string{commentsTable},
	}, func(ctx context.Context) (*model.Comment, error) {
		if err := validation.Struct(in); err != nil {
			return nil, err
		}
		return insertRow[model.Comment](ctx, d, commentsTable, in)
	})
}

func (d *Data) DeleteComment(ctx context.Context, id string) error {
	_, err := mutate(ctx, d, mutation{
		success:     "Comment deleted",
		failure:     "Could not delete the comment",
		invalidates: []string{commentsTable},
	}, func(ctx context.Context) (struct{}, error) {
		return deleteRow(ctx, d, commentsTable, id)
	})
	return err
}
