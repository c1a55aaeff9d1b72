package model

import "time"

// Company is a tenant.
type Company struct {
	ID        string    `gorm:"column:id;primaryKey" json:"id"`
	Slug      string    `gorm:"column:slug;not null;unique" json:"slug"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Company) TableName() string {
	return "companies"
}

// CompanyBranding holds a company's visual customization.
type CompanyBranding struct {
	ID             string    `gorm:"column:id;primaryKey" json:"id"`
	CompanyID      string    `gorm:"column:company_id;not null" json:"company_id"`
	PrimaryColor   string    `gorm:"column:primary_color" json:"primary_color"`
	LogoURL        string    `gorm:"column:logo_url" json:"logo_url"`
	WelcomeMessage string    `gorm:"column:welcome_message" json:"welcome_message"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (CompanyBranding) TableName() string {
	return "company_branding"
}
