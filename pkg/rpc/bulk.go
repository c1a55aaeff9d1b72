package rpc

import (
	"gorm.io/gorm"

	"github.com/doodlesbykumbi/community-in-go/pkg/model"
	gormstore "github.com/doodlesbykumbi/community-in-go/pkg/server/store/gorm"
)

const (
	sqlBulkDeletePosts    = `DELETE FROM posts WHERE company_id = ? AND id IN ?`
	sqlBulkMovePosts      = `UPDATE posts SET space_id = ?, updated_at = now() WHERE company_id = ? AND id IN ?`
	sqlBulkPublishCourses = `UPDATE courses SET published = ? WHERE company_id = ? AND id IN ?`
)

type BulkResult struct {
	Affected int64 `json:"affected"`
}

type BulkDeletePostsArgs struct {
	PostIDs []string `json:"post_ids" validate:"required,min=1,max=1000,dive,uuid"`
}

var bulkDeletePosts = define("bulk_delete_posts",
	"Delete several posts at once.",
	model.RoleModerator,
	[]string{"posts", "comments"},
	func(tx *gorm.DB, call *Call, args *BulkDeletePostsArgs) (interface{}, error) {
		res := tx.Exec(sqlBulkDeletePosts, call.company(), uniq(args.PostIDs))
		if res.Error != nil {
			return nil, gormstore.Classify(res.Error)
		}
		return &BulkResult{Affected: res.RowsAffected}, nil
	})

type BulkMovePostsArgs struct {
	PostIDs []string `json:"post_ids" validate:"required,min=1,max=1000,dive,uuid"`
	SpaceID string   `json:"space_id" validate:"required,uuid"`
}

var bulkMovePosts = define("bulk_move_posts",
	"Move several posts into another space.",
	model.RoleModerator,
	[]string{"posts"},
	func(tx *gorm.DB, call *Call, args *BulkMovePostsArgs) (interface{}, error) {
		if err := exists(tx, call, "spaces", args.SpaceID); err != nil {
			return nil, err
		}
		res := tx.Exec(sqlBulkMovePosts, args.SpaceID, call.company(), uniq(args.PostIDs))
		if res.Error != nil {
			return nil, gormstore.Classify(res.Error)
		}
		return &BulkResult{Affected: res.RowsAffected}, nil
	})

type BulkPublishCoursesArgs struct {
	CourseIDs []string `json:"course_ids" validate:"required,min=1,max=1000,dive,uuid"`
	Published *bool    `json:"published" validate:"required"`
}

var bulkPublishCourses = define("bulk_publish_courses",
	"Publish or unpublish several courses at once.",
	model.RoleAdmin,
	[]string{"courses"},
	func(tx *gorm.DB, call *Call, args *BulkPublishCoursesArgs) (interface{}, error) {
		res := tx.Exec(sqlBulkPublishCourses, *args.Published, call.company(), uniq(args.CourseIDs))
		if res.Error != nil {
			return nil, gormstore.Classify(res.Error)
		}
		return &BulkResult{Affected: res.RowsAffected}, nil
	})
