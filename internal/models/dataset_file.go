package models

import (
	"time"
)

// DatasetFile 样本文件模型
// 内容为JSON数组格式的样本集合，每条样本至少包含instruction/input/response
type DatasetFile struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	Filename    string    `gorm:"size:255;not null" json:"filename"`
	FileContent []byte    `gorm:"type:blob;not null" json:"-"`
	FileSize    int       `gorm:"not null" json:"file_size"`
	ContentType string    `gorm:"size:100;default:'application/json'" json:"content_type"`
	SampleCount int       `gorm:"default:0" json:"sample_count"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// 关联
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (DatasetFile) TableName() string {
	return "dataset_files"
}
