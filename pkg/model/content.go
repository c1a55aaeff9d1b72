package model

import "time"

// Space groups posts.
type Space struct {
	ID          string    `gorm:"column:id;primaryKey" json:"id"`
	CompanyID   string    `gorm:"column:company_id;not null" json:"company_id"`
	Name        string    `gorm:"column:name;not null" json:"name"`
	Slug        string    `gorm:"column:slug;not null" json:"slug"`
	Description string    `gorm:"column:description" json:"description"`
	Visibility  string    `gorm:"column:visibility;not null;default:public" json:"visibility"`
	Position    int       `gorm:"column:position" json:"position"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Space) TableName() string {
	return "spaces"
}

type Post struct {
	ID        string    `gorm:"column:id;primaryKey" json:"id"`
	CompanyID string    `gorm:"column:company_id;not null" json:"company_id"`
	SpaceID   string    `gorm:"column:space_id;not null" json:"space_id"`
	AuthorID  string    `gorm:"column:author_id;not null" json:"author_id"`
	Title     string    `gorm:"column:title" json:"title"`
	Body      string    `gorm:"column:body" json:"body"`
	BodyHTML  string    `gorm:"column:body_html" json:"body_html"`
	Pinned    bool      `gorm:"column:pinned" json:"pinned"`
	Published bool      `gorm:"column:published" json:"published"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Post) TableName() string {
	return "posts"
}

type Comment struct {
	ID        string    `gorm:"column:id;primaryKey" json:"id"`
	CompanyID string    `gorm:"column:company_id;not null" json:"company_id"`
	PostID    string    `gorm:"column:post_id;not null" json:"post_id"`
	AuthorID  string    `gorm:"column:author_id;not null" json:"author_id"`
	Body      string    `gorm:"column:body" json:"body"`
	BodyHTML  string    `gorm:"column:body_html" json:"body_html"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Comment) TableName() string {
	return "comments"
}
