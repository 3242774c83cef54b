package models

import (
	"time"
)

// MergeRun 一次合并过滤运行的记录
// OutputContent 保存保留集的JSON数组，供微调任务直接消费
type MergeRun struct {
	ID             uint      `gorm:"primarykey" json:"id"`
	UserID         uint      `gorm:"not null;index" json:"user_id"`
	Total          int       `gorm:"not null" json:"total"`
	Retained       int       `gorm:"not null" json:"retained"`
	Removed        int       `gorm:"not null" json:"removed"`
	OutputContent  []byte    `gorm:"type:blob;not null" json:"-"`
	RemovedContent []byte    `gorm:"type:blob" json:"-"`
	CreatedAt      time.Time `json:"created_at"`

	// 关联
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (MergeRun) TableName() string {
	return "merge_runs"
}
