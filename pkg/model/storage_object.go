package model

import "time"

// StorageObject is the metadata row of an uploaded file.
type StorageObject struct {
	ID          string    `gorm:"column:id;primaryKey" json:"id"`
	CompanyID   string    `gorm:"column:company_id;not null" json:"company_id"`
	Bucket      string    `gorm:"column:bucket;not null" json:"bucket"`
	Path        string    `gorm:"column:path;not null" json:"path"`
	ContentType string    `gorm:"column:content_type" json:"content_type"`
	Size        int64     `gorm:"column:size" json:"size"`
	OwnerID     string    `gorm:"column:owner_id" json:"owner_id"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (StorageObject) TableName() string {
	return "storage_objects"
}
