package community

import (
	"context"
	"fmt"

	"github.com/doodlesbykumbi/community-in-go/pkg/model"
	"github.com/doodlesbykumbi/community-in-go/pkg/rpc"
	"github.com/doodlesbykumbi/community-in-go/pkg/validation"
)

const (
	accessGroupsTable       = "access_groups"
	accessGroupMembersTable = "access_group_members"
	accessGroupCoursesTable = "access_group_courses"
	accessGroupSpacesTable  = "access_group_spaces"
)

type AccessGroupInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=1000"`
}

func (d *Data) AccessGroups(ctx context.Context) ([]model.AccessGroup, error) {
	return fetch(ctx, d, querySpec{
		key:     d.key(accessGroupsTable, "list"),
		stale:   staleDefault,
		failure: "Could not load access groups",
	}, func(ctx context.Context) ([]model.AccessGroup, error) {
		return selectRows[model.AccessGroup](ctx, d.client.From(accessGroupsTable).Order("name"))
	})
}

func (d *Data) AccessGroup(ctx context.Context, id string) (*model.AccessGroup, error) {
	return fetch(ctx, d, querySpec{
		key:     d.key(accessGroupsTable, "id", id),
		stale:   staleDefault,
		failure: "Could not load the access group",
	}, func(ctx context.Context) (*model.AccessGroup, error) {
		return selectOne[model.AccessGroup](ctx, d.client.From(accessGroupsTable).Eq("id", id))
	})
}

func (d *Data) CreateAccessGroup(ctx context.Context, in AccessGroupInput) (*model.AccessGroup, error) {
	return mutate(ctx, d, mutation{
		success:     "Access group created",
		failure:     "Could not create the access group",
		invalidates: []string{accessGroupsTable},
	}, func(ctx context.Context) (*model.AccessGroup, error) {
		if err := validation.Struct(in); err != nil {
			return nil, err
		}
		return insertRow[model.AccessGroup](ctx, d, accessGroupsTable, in)
	})
}

func (d *Data) UpdateAccessGroup(ctx context.Context, id string, in AccessGroupInput) (*model.AccessGroup, error) {
	return mutate(ctx, d, mutation{
		success:     "Access group updated",
		failure:     "Could not update the access group",
		invalidates: []string{accessGroupsTable},
	}, func(ctx context.Context) (*model.AccessGroup, error) {
		if err := validation.Struct(in); err != nil {
			return nil, err
		}
		return updateRow[model.AccessGroup](ctx, d, accessGroupsTable, id, in)
	})
}

// DeleteAccessGroup removes a group along with its links.
func (d *Data) DeleteAccessGroup(ctx context.Context, id string) error {
	_, err := mutate(ctx, d, mutation{
		success: "Access group deleted",
		failure: "Could not delete the access group",
		invalidates: []string{
			accessGroupsTable, accessGroupMembersTable,
			accessGroupCoursesTable, accessGroupSpacesTable,
		},
	}, func(ctx context.Context) (struct{}, error) {
		return deleteRow(ctx, d, accessGroupsTable, id)
	})
	return err
}

func groupLinks[T any](ctx context.Context, d *Data, table, groupID, failure string) ([]T, error) {
	return fetch(ctx, d, querySpec{
		key:     d.key(table, "group", groupID),
		stale:   staleDefault,
		failure: failure,
	}, func(ctx context.Context) ([]T, error) {
		return selectRows[T](ctx, d.client.From(table).Eq("group_id", groupID))
	})
}

func (d *Data) GroupMembers(ctx context.Context, groupID string) ([]model.AccessGroupMember, error) {
	return groupLinks[model.AccessGroupMember](ctx, d, accessGroupMembersTable, groupID, "Could not load the group members")
}

func (d *Data) GroupCourses(ctx context.Context, groupID string) ([]model.AccessGroupCourse, error) {
	return groupLinks[model.AccessGroupCourse](ctx, d, accessGroupCoursesTable, groupID, "Could not load the group courses")
}

func (d *Data) GroupSpaces(ctx context.Context, groupID string) ([]model.AccessGroupSpace, error) {
	return groupLinks[model.AccessGroupSpace](ctx, d, accessGroupSpacesTable, groupID, "Could not load the group spaces")
}

// replaceLinks swaps a group's links for args in one server-side
// transaction.
func replaceLinks(ctx context.Context, d *Data, fn, table, noun string, args interface{}) (int, error) {
	res, err := mutate(ctx, d, mutation{
		failure:     "Could not update the group " + noun,
		invalidates: []string{table},
	}, func(ctx context.Context) (rpc.ReplaceResult, error) {
		if err := validation.Struct(args); err != nil {
			return rpc.ReplaceResult{}, err
		}
		return call[rpc.ReplaceResult](ctx, d, fn, args)
	})
	if err != nil {
		return 0, err
	}
	d.notify.Success(ctx, fmt.Sprintf("Group %s updated (%d)", noun, res.Count))
	return res.Count, nil
}

// SetGroupMembers replaces the group's members with profileIDs. An empty
// list empties the group.
func (d *Data) SetGroupMembers(ctx context.Context, groupID string, profileIDs []string) (int, error) {
	return replaceLinks(ctx, d, "replace_access_group_members", accessGroupMembersTable, "members",
		rpc.ReplaceMembersArgs{GroupID: groupID, ProfileIDs: profileIDs})
}

func (d *Data) SetGroupCourses(ctx context.Context, groupID string, courseIDs []string) (int, error) {
	return replaceLinks(ctx, d, "replace_access_group_courses", accessGroupCoursesTable, "courses",
		rpc.ReplaceCoursesArgs{GroupID: groupID, CourseIDs: courseIDs})
}

func (d *Data) SetGroupSpaces(ctx context.Context, groupID string, spaceIDs []string) (int, error) {
	return replaceLinks(ctx, d, "replace_access_group_spaces", accessGroupSpacesTable, "spaces",
		rpc.ReplaceSpacesArgs{GroupID: groupID, SpaceIDs: spaceIDs})
}
