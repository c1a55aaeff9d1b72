package model

import "time"

// Event is a scheduled community event. A nil Capacity means unlimited.
type Event struct {
	ID          string     `gorm:"column:id;primaryKey" json:"id"`
	CompanyID   string     `gorm:"column:company_id;not null" json:"company_id"`
	Title       string     `gorm:"column:title;not null" json:"title"`
	Slug        string     `gorm:"column:slug;not null" json:"slug"`
	Description string     `gorm:"column:description" json:"description"`
	Location    string     `gorm:"column:location" json:"location"`
	StartsAt    time.Time  `gorm:"column:starts_at;not null" json:"starts_at"`
	EndsAt      *time.Time `gorm:"column:ends_at" json:"ends_at"`
	Capacity    *int       `gorm:"column:capacity" json:"capacity"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Event) TableName() string {
	return "events"
}

type EventRegistration struct {
	ID        string    `gorm:"column:id;primaryKey" json:"id"`
	CompanyID string    `gorm:"column:company_id;not null" json:"company_id"`
	EventID   string    `gorm:"column:event_id;not null" json:"event_id"`
	ProfileID string    `gorm:"column:profile_id;not null" json:"profile_id"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (EventRegistration) TableName() string {
	return "event_registrations"
}
