package community

import (
	"context"
	"fmt"
	"strconv"

	"github.com/doodlesbykumbi/community-in-go/pkg/client"
	"github.com/doodlesbykumbi/community-in-go/pkg/model"
	"github.com/doodlesbykumbi/community-in-go/pkg/rpc"
	"github.com/doodlesbykumbi/community-in-go/pkg/validation"
)

const (
	coursesTable     = "courses"
	lessonsTable     = "lessons"
	progressTable    = "lesson_progress"
	completionsTable = "course_completions"
)

type CourseInput struct {
	Title       string `json:"title" validate:"required,max=200"`
	Slug        string `json:"slug" validate:"required,slug"`
	Description string `json:"description" validate:"max=5000"`
	Published   bool   `json:"published"`
	CoinsReward int    `json:"coins_reward" validate:"min=0"`
	Position    int    `json:"position" validate:"min=0"`
}

type LessonInput struct {
	CourseID string `json:"course_id" validate:"required,uuid"`
	Title    string `json:"title" validate:"required,max=200"`
	Body     string `json:"body" validate:"max=100000"`
	Position int    `json:"position" validate:"min=0"`
	XPReward int    `json:"xp_reward" validate:"min=0"`
}

// Courses lists courses in display order. Drafts are only returned when
// asked for.
func (d *Data) Courses(ctx context.Context, drafts bool) ([]model.Course, error) {
	return fetch(ctx, d, querySpec{
		key:     d.key(coursesTable, "list", strconv.FormatBool(drafts)),
		stale:   staleDefault,
		failure: "Could not load courses",
	}, func(ctx context.Context) ([]model.Course, error) {
		tq := d.client.From(coursesTable).Order("position").Order("title")
		if !drafts {
			tq.Is("published", true)
		}
		return selectRows[model.Course](ctx, tq)
	})
}

// Course returns the course with id, or nil.
func (d *Data) Course(ctx context.Context, id string) (*model.Course, error) {
	return fetch(ctx, d, querySpec{
		key:     d.key(coursesTable, "id", id),
		stale:   staleDefault,
		failure: "Could not load the course",
	}, func(ctx context.Context) (*model.Course, error) {
		return selectOne[model.Course](ctx, d.client.From(coursesTable).Eq("id", id))
	})
}

func (d *Data) CreateCourse(ctx context.Context, in CourseInput) (*model.Course, error) {
	return mutate(ctx, d, mutation{
		success:     "Course created",
		failure:     "Could not create the course",
		invalidates: []string{coursesTable},
	}, func(ctx context.Context) (*model.Course, error) {
		if err := validation.Struct(in); err != nil {
			return nil, err
		}
		return insertRow[model.Course](ctx, d, coursesTable, in)
	})
}

func (d *Data) UpdateCourse(ctx context.Context, id string, in CourseInput) (*model.Course, error) {
	return mutate(ctx, d, mutation{
		success:     "Course updated",
		failure:     "Could not update the course",
		invalidates: []string{coursesTable},
	}, func(ctx context.Context) (*model.Course, error) {
		if err := validation.Struct(in); err != nil {
			return nil, err
		}
		return updateRow[model.Course](ctx, d, coursesTable, id, in)
	})
}

func (d *Data) DeleteCourse(ctx context.Context, id string) error {
	_, err := mutate(ctx, d, mutation{
		success: "Course deleted",
		failure: "Could not delete the course",
		invalidates: []string{coursesTable, lessonsTable, progressTable, completionsTable,
			trailCoursesTable, accessGroupCoursesTable},
	}, func(ctx context.Context) (struct{}, error) {
		return deleteRow(ctx, d, coursesTable, id)
	})
	return err
}

// PublishCourses publishes or unpublishes several courses in one
// transaction.
func (d *Data) PublishCourses(ctx context.Context, ids []string, published bool) (rpc.BulkResult, error) {
	msg := "Courses unpublished"
	if published {
		msg = "Courses published"
	}
	return mutate(ctx, d, mutation{
		success:     msg,
		failure:     "Could not update the courses",
		invalidates: []string{coursesTable},
	}, func(ctx context.Context) (rpc.BulkResult, error) {
		args := rpc.BulkPublishCoursesArgs{CourseIDs: ids, Published: &published}
		if err := validation.Struct(args); err != nil {
			return rpc.BulkResult{}, err
		}
		return call[rpc.BulkResult](ctx, d, "bulk_publish_courses", args)
	})
}

// Lessons lists a course's lessons in order.
func (d *Data) Lessons(ctx context.Context, courseID string) ([]model.Lesson, error) {
	return fetch(ctx, d, querySpec{
		key:     d.key(lessonsTable, "course", courseID),
		stale:   staleDefault,
		failure: "Could not load lessons",
	}, func(ctx context.Context) ([]model.Lesson, error) {
		return selectRows[model.Lesson](ctx, d.client.From(lessonsTable).Eq("course_id", courseID).Order("position"))
	})
}

func (d *Data) CreateLesson(ctx context.Context, in LessonInput) (*model.Lesson, error) {
	return mutate(ctx, d, mutation{
		success:     "Lesson created",
		failure:     "Could not create the lesson",
		invalidates: []string{lessonsTable, progressTable},
	}, func(ctx context.Context) (*model.Lesson, error) {
		if err := validation.Struct(in); err != nil {
			return nil, err
		}
		return insertRow[model.Lesson](ctx, d, lessonsTable, in)
	})
}

func (d *Data) UpdateLesson(ctx context.Context, id string, in LessonInput) (*model.Lesson, error) {
	return mutate(ctx, d, mutation{
		success:     "Lesson updated",
		failure:     "Could not update the lesson",
		invalidates: []string{lessonsTable},
	}, func(ctx context.Context) (*model.Lesson, error) {
		if err := validation.Struct(in); err != nil {
			return nil, err
		}
		return updateRow[model.Lesson](ctx, d, lessonsTable, id, in)
	})
}

func (d *Data) DeleteLesson(ctx context.Context, id string) error {
	_, err := mutate(ctx, d, mutation{
		success:     "Lesson deleted",
		failure:     "Could not delete the lesson",
		invalidates: []string{lessonsTable, progressTable},
	}, func(ctx context.Context) (struct{}, error) {
		return deleteRow(ctx, d, lessonsTable, id)
	})
	return err
}

// CompleteLesson marks a lesson done for the caller. The server awards the
// lesson's xp, and the course's coins when this finishes the course.
func (d *Data) CompleteLesson(ctx context.Context, lessonID string) (rpc.CompleteLessonResult, error) {
	res, err := mutate(ctx, d, mutation{
		failure:     "Could not complete the lesson",
		invalidates: []string{progressTable, completionsTable, profilesTable, coinTransactionsTable},
	}, func(ctx context.Context) (rpc.CompleteLessonResult, error) {
		return call[rpc.CompleteLessonResult](ctx, d, "complete_lesson", rpc.CompleteLessonArgs{LessonID: lessonID})
	})
	if err != nil {
		return res, err
	}
	if res.CourseCompleted {
		d.notify.Success(ctx, fmt.Sprintf("Course completed! You earned %s coins", res.CoinsAwarded))
	} else {
		d.notify.Success(ctx, fmt.Sprintf("Lesson completed (%d/%d)", res.LessonsDone, res.LessonsTotal))
	}
	return res, nil
}

// CourseProgress reports the caller's progress through a course.
func (d *Data) CourseProgress(ctx context.Context, courseID string) (rpc.CheckCourseCompletionResult, error) {
	return fetch(ctx, d, querySpec{
		key:     d.key(progressTable, "course", courseID),
		stale:   staleShort,
		failure: "Could not load your progress",
	}, func(ctx context.Context) (rpc.CheckCourseCompletionResult, error) {
		return call[rpc.CheckCourseCompletionResult](ctx, d, "check_course_completion",
			rpc.CheckCourseCompletionArgs{CourseID: courseID})
	})
}

// CompletedLessons lists the caller's finished lessons in a course.
func (d *Data) CompletedLessons(ctx context.Context, courseID string) ([]model.LessonProgress, error) {
	return fetch(ctx, d, querySpec{
		key:     d.key(progressTable, "lessons", courseID),
		stale:   staleShort,
		failure: "Could not load your progress",
	}, func(ctx context.Context) ([]model.LessonProgress, error) {
		me, err := d.Me(ctx)
		if err != nil {
			return nil, err
		}
		return selectRows[model.LessonProgress](ctx, d.client.From(progressTable).
			Eq("profile_id", me.ID).Eq("course_id", courseID))
	})
}

// MyCompletions lists the courses the caller finished, newest first.
func (d *Data) MyCompletions(ctx context.Context) ([]model.CourseCompletion, error) {
	return fetch(ctx, d, querySpec{
		key:     d.key(completionsTable, "me"),
		stale:   staleDefault,
		failure: "Could not load your completed courses",
	}, func(ctx context.Context) ([]model.CourseCompletion, error) {
		me, err := d.Me(ctx)
		if err != nil {
			return nil, err
		}
		return selectRows[model.CourseCompletion](ctx, d.client.From(completionsTable).
			Eq("profile_id", me.ID).Order("completed_at", client.Descending()))
	})
}
