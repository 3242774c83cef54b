package dto

// DatasetFileResponse 样本文件响应
type DatasetFileResponse struct {
	ID          uint   `json:"id"`
	Filename    string `json:"filename"`
	FileSize    int    `json:"file_size"`
	ContentType string `json:"content_type"`
	SampleCount int    `json:"sample_count"`
	UserID      uint   `json:"user_id"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// DatasetFileContentResponse 样本文件内容响应
type DatasetFileContentResponse struct {
	ID       uint                     `json:"id"`
	Filename string                   `json:"filename"`
	Content  []map[string]interface{} `json:"content"`
	Total    int                      `json:"total"`
}

// DatasetItem 样本文件数据项(带索引)
type DatasetItem struct {
	Index int         `json:"index"`
	Data  interface{} `json:"data"`
}

// DatasetFileEditableResponse 可编辑样本文件内容响应
type DatasetFileEditableResponse struct {
	FileID     uint          `json:"file_id"`
	Filename   string        `json:"filename"`
	TotalLines int           `json:"total_lines"`
	Items      []DatasetItem `json:"items"`
}

// UpdateSampleRequest 更新单条样本请求
type UpdateSampleRequest struct {
	Content map[string]interface{} `json:"content" binding:"required"`
}

// MergeRequest 合并过滤请求
// 不指定FileIDs时合并当前用户的全部样本文件，按文件名排序
type MergeRequest struct {
	FileIDs     []uint `json:"file_ids"`
	KeepRemoved bool   `json:"keep_removed"`
}

// MergeRunResponse 合并过滤运行响应
type MergeRunResponse struct {
	ID        uint   `json:"id"`
	Total     int    `json:"total"`
	Retained  int    `json:"retained"`
	Removed   int    `json:"removed"`
	UserID    uint   `json:"user_id"`
	CreatedAt string `json:"created_at"`
}
