package model

import "time"

type Course struct {
	ID          string    `gorm:"column:id;primaryKey" json:"id"`
	CompanyID   string    `gorm:"column:company_id;not null" json:"company_id"`
	Title       string    `gorm:"column:title;not null" json:"title"`
	Slug        string    `gorm:"column:slug;not null" json:"slug"`
	Description string    `gorm:"column:description" json:"description"`
	Published   bool      `gorm:"column:published" json:"published"`
	CoinsReward int       `gorm:"column:coins_reward" json:"coins_reward"`
	Position    int       `gorm:"column:position" json:"position"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Course) TableName() string {
	return "courses"
}

type Lesson struct {
	ID        string    `gorm:"column:id;primaryKey" json:"id"`
	CompanyID string    `gorm:"column:company_id;not null" json:"company_id"`
	CourseID  string    `gorm:"column:course_id;not null" json:"course_id"`
	Title     string    `gorm:"column:title;not null" json:"title"`
	Body      string    `gorm:"column:body" json:"body"`
	BodyHTML  string    `gorm:"column:body_html" json:"body_html"`
	Position  int       `gorm:"column:position" json:"position"`
	XPReward  int       `gorm:"column:xp_reward" json:"xp_reward"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Lesson) TableName() string {
	return "lessons"
}

// LessonProgress records that a profile finished a lesson.
type LessonProgress struct {
	ID          string    `gorm:"column:id;primaryKey" json:"id"`
	CompanyID   string    `gorm:"column:company_id;not null" json:"company_id"`
	ProfileID   string    `gorm:"column:profile_id;not null" json:"profile_id"`
	LessonID    string    `gorm:"column:lesson_id;not null" json:"lesson_id"`
	CourseID    string    `gorm:"column:course_id;not null" json:"course_id"`
	CompletedAt time.Time `gorm:"column:completed_at" json:"completed_at"`
}

func (LessonProgress) TableName() string {
	return "lesson_progress"
}

type CourseCompletion struct {
	ID          string    `gorm:"column:id;primaryKey" json:"id"`
	CompanyID   string    `gorm:"column:company_id;not null" json:"company_id"`
	ProfileID   string    `gorm:"column:profile_id;not null" json:"profile_id"`
	CourseID    string    `gorm:"column:course_id;not null" json:"course_id"`
	CompletedAt time.Time `gorm:"column:completed_at" json:"completed_at"`
}

func (CourseCompletion) TableName() string {
	return "course_completions"
}

// Trail is an ordered path through several courses.
type Trail struct {
	ID          string    `gorm:"column:id;primaryKey" json:"id"`
	CompanyID   string    `gorm:"column:company_id;not null" json:"company_id"`
	Title       string    `gorm:"column:title;not null" json:"title"`
	Slug        string    `gorm:"column:slug;not null" json:"slug"`
	Description string    `gorm:"column:description" json:"description"`
	Published   bool      `gorm:"column:published" json:"published"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Trail) TableName() string {
	return "trails"
}

type TrailCourse struct {
	ID        string `gorm:"column:id;primaryKey" json:"id"`
	CompanyID string `gorm:"column:company_id;not null" json:"company_id"`
	TrailID   string `gorm:"column:trail_id;not null" json:"trail_id"`
	CourseID  string `gorm:"column:course_id;not null" json:"course_id"`
	Position  int    `gorm:"column:position" json:"position"`
}

func (TrailCourse) TableName() string {
	return "trail_courses"
}
