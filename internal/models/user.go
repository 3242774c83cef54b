package models

import (
	"time"
)

// User 用户模型
type User struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:50;not null" json:"username"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	IsActive     bool      `gorm:"default:true" json:"is_active"`
	IsAdmin      bool      `gorm:"default:false" json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// 关联
	DatasetFiles  []DatasetFile  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"dataset_files,omitempty"`
	MergeRuns     []MergeRun     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"merge_runs,omitempty"`
	TrainingTasks []TrainingTask `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"training_tasks,omitempty"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}
