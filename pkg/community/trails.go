package community

import (
	"context"
	"strconv"

	"github.com/doodlesbykumbi/community-in-go/pkg/model"
	"github.com/doodlesbykumbi/community-in-go/pkg/validation"
)

const (
	trailsTable       = "trails"
	trailCoursesTable = "trail_courses"
)

type TrailInput struct {
	Title       string `json:"title" validate:"required,max=200"`
	Slug        string `json:"slug" validate:"required,slug"`
	Description string `json:"description" validate:"max=5000"`
	Published   bool   `json:"published"`
}

type trailCourseInput struct {
	TrailID  string `json:"trail_id" validate:"required,uuid"`
	CourseID string `json:"course_id" validate:"required,uuid"`
	Position int    `json:"position" validate:"min=0"`
}

func (d *Data) Trails(ctx context.Context, drafts bool) ([]model.Trail, error) {
	return fetch(ctx, d, querySpec{
		key:     d.key(trailsTable, "list", strconv.FormatBool(drafts)),
		stale:   staleDefault,
		failure: "Could not load trails",
	}, func(ctx context.Context) ([]model.Trail, error) {
		tq := d.client.From(trailsTable).Order("title")
		if !drafts {
			tq.Is("published", true)
		}
		return selectRows[model.Trail](ctx, tq)
	})
}

// Trail returns the trail with slug, or nil.
func (d *Data) Trail(ctx context.Context, slug string) (*model.Trail, error) {
	return fetch(ctx, d, querySpec{
		key:     d.key(trailsTable, "slug", slug),
		stale:   staleDefault,
		failure: "Could not load the trail",
	}, func(ctx context.Context) (*model.Trail, error) {
		return selectOne[model.Trail](ctx, d.client.From(trailsTable).Eq("slug", slug))
	})
}

// TrailCourses lists the courses of a trail in order.
func (d *Data) TrailCourses(ctx context.Context, trailID string) ([]model.TrailCourse, error) {
	return fetch(ctx, d, querySpec{
		key:     d.key(trailCoursesTable, "trail", trailID),
		stale:   staleDefault,
		failure: "Could not load the trail's courses",
	}, func(ctx context.Context) ([]model.TrailCourse, error) {
		return selectRows[model.TrailCourse](ctx, d.client.From(trailCoursesTable).Eq("trail_id", trailID).Order("position"))
	})
}

func (d *Data) CreateTrail(ctx context.Context, in TrailInput) (*model.Trail, error) {
	return mutate(ctx, d, mutation{
		success:     "Trail created",
		failure:     "Could not create the trail",
		invalidates: []string{trailsTable},
	}, func(ctx context.Context) (*model.Trail, error) {
		if err := validation.Struct(in); err != nil {
			return nil, err
		}
		return insertRow[model.Trail](ctx, d, trailsTable, in)
	})
}

func (d *Data) UpdateTrail(ctx context.Context, id string, in TrailInput) (*model.Trail, error) {
	return mutate(ctx, d, mutation{
		success:     "Trail updated",
		failure:     "Could not update the trail",
		invalidates: []string{trailsTable},
	}, func(ctx context.Context) (*model.Trail, error) {
		if err := validation.Struct(in); err != nil {
			return nil, err
		}
		return updateRow[model.Trail](ctx, d, trailsTable, id, in)
	})
}

func (d *Data) DeleteTrail(ctx context.Context, id string) error {
	_, err := mutate(ctx, d, mutation{
		success:     "Trail deleted",
		failure:     "Could not delete the trail",
		invalidates: []string{trailsTable, trailCoursesTable},
	}, func(ctx context.Context) (struct{}, error) {
		return deleteRow(ctx, d, trailsTable, id)
	})
	return err
}

// AddTrailCourse appends a course to a trail at position.
func (d *Data) AddTrailCourse(ctx context.Context, trailID, courseID string, position int) (*model.TrailCourse, error) {
	return mutate(ctx, d, mutation{
		success:     "Course added to the trail",
		failure:     "Could not add the course to the trail",
		invalidates: []string{trailCoursesTable},
	}, func(ctx context.Context) (*model.TrailCourse, error) {
		in := trailCourseInput{TrailID: trailID, CourseID: courseID, Position: position}
		if err := validation.Struct(in); err != nil {
			return nil, err
		}
		return insertRow[model.TrailCourse](ctx, d, trailCoursesTable, in)
	})
}

// RemoveTrailCourse removes a course from a trail.
func (d *Data) RemoveTrailCourse(ctx context.Context, trailID, courseID string) error {
	_, err := mutate(ctx, d, mutation{
		success:     "Course removed from the trail",
		failure:     "Could not remove the course from the trail",
		invalidates: []string{trailCoursesTable},
	}, func(ctx context.Context) (struct{}, error) {
		var rows []model.TrailCourse
		return struct{}{}, d.client.From(trailCoursesTable).
			Eq("trail_id", trailID).Eq("course_id", courseID).
			Delete(ctx, &rows)
	})
	return err
}
