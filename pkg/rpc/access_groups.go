package rpc

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/doodlesbykumbi/community-in-go/pkg/model"
	"github.com/doodlesbykumbi/community-in-go/pkg/query"
	gormstore "github.com/doodlesbykumbi/community-in-go/pkg/server/store/gorm"
)

// link describes one access group join table.
type link struct {
	table  string
	column string
	target string
}

var (
	groupMembers = link{table: "access_group_members", column: "profile_id", target: "profiles"}
	groupCourses = link{table: "access_group_courses", column: "course_id", target: "courses"}
	groupSpaces  = link{table: "access_group_spaces", column: "space_id", target: "spaces"}
)

func (l link) deleteSQL() string {
	return `DELETE FROM ` + query.Quote(l.table) + ` WHERE "company_id" = ? AND "group_id" = ?`
}

// targetsSQL counts how many of a list of ids name rows of the link's
// target table in one company.
func (l link) targetsSQL() string {
	return `SELECT count(*) FROM ` + query.Quote(l.target) + ` WHERE "company_id" = ? AND "id" IN ?`
}

func (l link) insertSQL(n int) string {
	tuples := make([]string, n)
	for i := range tuples {
		tuples[i] = "(?, ?, ?, ?)"
	}
	return `INSERT INTO ` + query.Quote(l.table) + ` ("id", "company_id", "group_id", ` + query.Quote(l.column) + `) VALUES ` +
		strings.Join(tuples, ", ")
}

// replace swaps the group's links for ids. Every id must belong to the
// caller's company. Both steps share the caller's transaction, so a failed
// insert restores the deleted rows.
func (l link) replace(tx *gorm.DB, call *Call, groupID string, ids []string) (int, error) {
	if err := exists(tx, call, "access_groups", groupID); err != nil {
		return 0, err
	}
	ids = uniq(ids)
	if len(ids) > 0 {
		var n int64
		if err := tx.Raw(l.targetsSQL(), call.company(), ids).Scan(&n).Error; err != nil {
			return 0, gormstore.Classify(err)
		}
		if n != int64(len(ids)) {
			return 0, fmt.Errorf("%w: %d of %d %s", ErrNotFound, int64(len(ids))-n, len(ids), l.target)
		}
	}
	if err := tx.Exec(l.deleteSQL(), call.company(), groupID).Error; err != nil {
		return 0, gormstore.Classify(err)
	}
	if len(ids) == 0 {
		return 0, nil
	}
	args := make([]interface{}, 0, len(ids)*4)
	for _, id := range ids {
		args = append(args, uuid.NewString(), call.company(), groupID, id)
	}
	if err := tx.Exec(l.insertSQL(len(ids)), args...).Error; err != nil {
		return 0, gormstore.Classify(err)
	}
	return len(ids), nil
}

type ReplaceResult struct {
	Count int `json:"count"`
}

type ReplaceMembersArgs struct {
	GroupID    string   `json:"group_id" validate:"required,uuid"`
	ProfileIDs []string `json:"profile_ids" validate:"max=5000,dive,uuid"`
}

var replaceAccessGroupMembers = define("replace_access_group_members",
	"Replace the profiles in an access group.",
	model.RoleAdmin,
	[]string{groupMembers.table},
	func(tx *gorm.DB, call *Call, args *ReplaceMembersArgs) (interface{}, error) {
		n, err := groupMembers.replace(tx, call, args.GroupID, args.ProfileIDs)
		if err != nil {
			return nil, err
		}
		return &ReplaceResult{Count: n}, nil
	})

type ReplaceCoursesArgs struct {
	GroupID   string   `json:"group_id" validate:"required,uuid"`
	CourseIDs []string `json:"course_ids" validate:"max=5000,dive,uuid"`
}

var replaceAccessGroupCourses = define("replace_access_group_courses",
	"Replace the courses an access group unlocks.",
	model.RoleAdmin,
	[]string{groupCourses.table},
	func(tx *gorm.DB, call *Call, args *ReplaceCoursesArgs) (interface{}, error) {
		n, err := groupCourses.replace(tx, call, args.GroupID, args.CourseIDs)
		if err != nil {
			return nil, err
		}
		return &ReplaceResult{Count: n}, nil
	})

type ReplaceSpacesArgs struct {
	GroupID  string   `json:"group_id" validate:"required,uuid"`
	SpaceIDs []string `json:"space_ids" validate:"max=5000,dive,uuid"`
}

var replaceAccessGroupSpaces = define("replace_access_group_spaces",
	"Replace the spaces an access group unlocks.",
	model.RoleAdmin,
	[]string{groupSpaces.table},
	func(tx *gorm.DB, call *Call, args *ReplaceSpacesArgs) (interface{}, error) {
		n, err := groupSpaces.replace(tx, call, args.GroupID, args.SpaceIDs)
		if err != nil {
			return nil, err
		}
		return &ReplaceResult{Count: n}, nil
	})
