package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// TrainingTask 微调任务模型
type TrainingTask struct {
	ID           uint       `gorm:"primarykey" json:"id"`
	TaskID       string     `gorm:"uniqueIndex;size:100;not null" json:"task_id"`
	UserID       uint       `gorm:"not null;index" json:"user_id"`
	MergeRunID   uint       `gorm:"not null;index" json:"merge_run_id"`
	Status       string     `gorm:"size:20;default:'running'" json:"status"` // running, finished, error, stopped
	Params       JSONMap    `gorm:"type:text" json:"params"`
	Result       JSONMap    `gorm:"type:text" json:"result"`
	ErrorMessage string     `gorm:"type:text" json:"error_message"`
	JobID        string     `gorm:"size:100" json:"job_id"` // 训练服务侧的任务ID
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at"`

	// 关联
	User     User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	MergeRun MergeRun `gorm:"foreignKey:MergeRunID" json:"merge_run,omitempty"`
}

// TableName 指定表名
func (TrainingTask) TableName() string {
	return "training_tasks"
}

// JSONMap 自定义JSON类型
type JSONMap map[string]interface{}

// Scan 实现sql.Scanner接口
func (j *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSONMap)
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		if str, ok := value.(string); ok {
			bytes = []byte(str)
		} else {
			return nil
		}
	}

	return json.Unmarshal(bytes, j)
}

// Value 实现driver.Valuer接口
func (j JSONMap) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return json.Marshal(j)
}
