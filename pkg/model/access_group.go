package model

import "time"

// AccessGroup grants its members access to a set of courses and spaces.
type AccessGroup struct {
	ID          string    `gorm:"column:id;primaryKey" json:"id"`
	CompanyID   string    `gorm:"column:company_id;not null" json:"company_id"`
	Name        string    `gorm:"column:name;not null" json:"name"`
	Description string    `gorm:"column:description" json:"description"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (AccessGroup) TableName() string {
	return "access_groups"
}

type AccessGroupMember struct {
	ID        string `gorm:"column:id;primaryKey" json:"id"`
	CompanyID string `gorm:"column:company_id;not null" json:"company_id"`
	GroupID   string `gorm:"column:group_id;not null" json:"group_id"`
	ProfileID string `gorm:"column:profile_id;not null" json:"profile_id"`
}

func (AccessGroupMember) TableName() string {
	return "access_group_members"
}

type AccessGroupCourse struct {
	ID        string `gorm:"column:id;primaryKey" json:"id"`
	CompanyID string `gorm:"column:company_id;not null" json:"company_id"`
	GroupID   string `gorm:"column:group_id;not null" json:"group_id"`
	CourseID  string `gorm:"column:course_id;not null" json:"course_id"`
}

func (AccessGroupCourse) TableName() string {
	return "access_group_courses"
}

type AccessGroupSpace struct {
	ID        string `gorm:"column:id;primaryKey" json:"id"`
	CompanyID string `gorm:"column:company_id;not null" json:"company_id"`
	GroupID   string `gorm:"column:group_id;not null" json:"group_id"`
	SpaceID   string `gorm:"column:space_id;not null" json:"space_id"`
}

func (AccessGroupSpace) TableName() string {
	return "access_group_spaces"
}
