package rpc

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/doodlesbykumbi/community-in-go/pkg/model"
	gormstore "github.com/doodlesbykumbi/community-in-go/pkg/server/store/gorm"
)

const (
	sqlLessonForCompletion = `SELECT l.id, l.course_id, l.xp_reward, c.coins_reward ` +
		`FROM lessons l JOIN courses c ON c.id = l.course_id WHERE l.company_id = ? AND l.id = ?`

	sqlInsertLessonProgress = `INSERT INTO lesson_progress (id, company_id, profile_id, lesson_id, course_id, completed_at) ` +
		`VALUES (?, ?, ?, ?, ?, ?) ON CONFLICT (profile_id, lesson_id) DO NOTHING`

	sqlInsertCourseCompletion = `INSERT INTO course_completions (id, company_id, profile_id, course_id, completed_at) ` +
		`VALUES (?, ?, ?, ?, ?) ON CONFLICT (profile_id, course_id) DO NOTHING`

	sqlStreakForUpdate = `SELECT current_streak, longest_streak, last_activity_date ` +
		`FROM profiles WHERE company_id = ? AND id = ? FOR UPDATE`

	sqlSetStreak = `UPDATE profiles SET current_streak = ?, longest_streak = ?, last_activity_date = ? ` +
		`WHERE company_id = ? AND id = ?`
)

type CompleteLessonArgs struct {
	LessonID string `json:"lesson_id" validate:"required,uuid"`
}

type CompleteLessonResult struct {
	XPAwarded       int             `json:"xp_awarded"`
	CourseCompleted bool            `json:"course_completed"`
	CoinsAwarded    decimal.Decimal `json:"coins_awarded"`
	LessonsDone     int             `json:"lessons_done"`
	LessonsTotal    int             `json:"lessons_total"`
}

var completeLesson = define("complete_lesson",
	"Mark a lesson done for the caller, awarding lesson xp and course coins on first completion.",
	model.RoleMember,
	[]string{"lesson_progress", "course_completions", "profiles", "coin_transactions"},
	func(tx *gorm.DB, call *Call, args *CompleteLessonArgs) (interface{}, error) {
		var lessons []struct {
			ID          string `gorm:"column:id"`
			CourseID    string `gorm:"column:course_id"`
			XPReward    int    `gorm:"column:xp_reward"`
			CoinsReward int    `gorm:"column:coins_reward"`
		}
		if err := tx.Raw(sqlLessonForCompletion, call.company(), args.LessonID).Scan(&lessons).Error; err != nil {
			return nil, gormstore.Classify(err)
		}
		if len(lessons) == 0 {
			return nil, ErrNotFound
		}
		lesson := lessons[0]
		res := &CompleteLessonResult{CoinsAwarded: decimal.Zero}

		ins := tx.Exec(sqlInsertLessonProgress,
			uuid.NewString(), call.company(), call.ProfileID, lesson.ID, lesson.CourseID, call.Now)
		if ins.Error != nil {
			return nil, gormstore.Classify(ins.Error)
		}
		if ins.RowsAffected == 1 && lesson.XPReward != 0 {
			if _, _, err := addXP(tx, call, call.ProfileID, lesson.XPReward); err != nil {
				return nil, err
			}
			res.XPAwarded = lesson.XPReward
		}

		p, err := courseProgress(tx, call, call.ProfileID, lesson.CourseID)
		if err != nil {
			return nil, err
		}
		res.LessonsDone, res.LessonsTotal = p.Done, p.Total
		if !p.complete() {
			return res, nil
		}
		res.CourseCompleted = true

		done := tx.Exec(sqlInsertCourseCompletion,
			uuid.NewString(), call.company(), call.ProfileID, lesson.CourseID, call.Now)
		if done.Error != nil {
			return nil, gormstore.Classify(done.Error)
		}
		if done.RowsAffected == 1 && lesson.CoinsReward > 0 {
			reward := decimal.NewFromInt(int64(lesson.CoinsReward))
			if _, err := addCoins(tx, call, call.ProfileID, reward, "course_completed:"+lesson.CourseID); err != nil {
				return nil, err
			}
			res.CoinsAwarded = reward
		}
		return res, nil
	})

type CheckCourseCompletionArgs struct {
	CourseID  string `json:"course_id" validate:"required,uuid"`
	ProfileID string `json:"profile_id" validate:"omitempty,uuid"`
}

type CheckCourseCompletionResult struct {
	Completed    bool `json:"completed"`
	LessonsDone  int  `json:"lessons_done"`
	LessonsTotal int  `json:"lessons_total"`
}

var checkCourseCompletion = define("check_course_completion",
	"Report lesson progress in a course. Moderators may check other profiles.",
	model.RoleMember,
	nil,
	func(tx *gorm.DB, call *Call, args *CheckCourseCompletionArgs) (interface{}, error) {
		profileID := call.ProfileID
		if args.ProfileID != "" && args.ProfileID != call.ProfileID {
			if !call.Role.AtLeast(model.RoleModerator) {
				return nil, ErrForbidden
			}
			profileID = args.ProfileID
		}
		if err := exists(tx, call, "courses", args.CourseID); err != nil {
			return nil, err
		}
		p, err := courseProgress(tx, call, profileID, args.CourseID)
		if err != nil {
			return nil, err
		}
		return &CheckCourseCompletionResult{
			Completed:    p.complete(),
			LessonsDone:  p.Done,
			LessonsTotal: p.Total,
		}, nil
	})

type RecordActivityArgs struct{}

type StreakResult struct {
	CurrentStreak int `json:"current_streak"`
	LongestStreak int `json:"longest_streak"`
}

var recordActivity = define("record_activity",
	"Count today towards the caller's daily streak.",
	model.RoleMember,
	[]string{"profiles"},
	func(tx *gorm.DB, call *Call, _ *RecordActivityArgs) (interface{}, error) {
		var rows []struct {
			CurrentStreak    int        `gorm:"column:current_streak"`
			LongestStreak    int        `gorm:"column:longest_streak"`
			LastActivityDate *time.Time `gorm:"column:last_activity_date"`
		}
		if err := tx.Raw(sqlStreakForUpdate, call.company(), call.ProfileID).Scan(&rows).Error; err != nil {
			return nil, gormstore.Classify(err)
		}
		if len(rows) == 0 {
			return nil, ErrNotFound
		}
		row := rows[0]

		current, longest, changed := nextStreak(row.CurrentStreak, row.LongestStreak, row.LastActivityDate, call.Now)
		if changed {
			err := tx.Exec(sqlSetStreak,
				current, longest, call.Now.Format("2006-01-02"), call.company(), call.ProfileID).Error
			if err != nil {
				return nil, gormstore.Classify(err)
			}
		}
		return &StreakResult{CurrentStreak: current, LongestStreak: longest}, nil
	})
