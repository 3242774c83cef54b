package dto

// StartFineTuneRequest 启动微调任务请求
type StartFineTuneRequest struct {
	MergeRunID  uint                   `json:"merge_run_id" binding:"required"`
	TrainerID   *uint                  `json:"trainer_id"`
	BaseModel   string                 `json:"base_model"`
	Services    []string               `json:"services"`
	HubRepo     string                 `json:"hub_repo"`
	HubToken    string                 `json:"hub_token"`
	Overrides   map[string]interface{} `json:"overrides"`
	CheckPrompt string                 `json:"check_prompt"`
}

// StartFineTuneResponse 启动微调任务响应
type StartFineTuneResponse struct {
	Success bool   `json:"success"`
	TaskID  string `json:"task_id"`
	Status  string `json:"status"`
}

// TaskStatusResponse 任务状态响应
type TaskStatusResponse struct {
	TaskID     string  `json:"task_id"`
	Status     string  `json:"status"`
	Finished   bool    `json:"finished"`
	Progress   float64 `json:"progress_percent,omitempty"`
	Message    string  `json:"message,omitempty"`
}

// TaskInfo 任务信息
type TaskInfo struct {
	TaskID   string                 `json:"task_id"`
	Status   string                 `json:"status"`
	Params   map[string]interface{} `json:"params"`
	RunTime  float64                `json:"run_time"`
	Finished bool                   `json:"finished"`
}

// TaskListResponse 任务列表响应
type TaskListResponse struct {
	Success bool       `json:"success"`
	Tasks   []TaskInfo `json:"tasks"`
}

// ProgressEvent 进度事件
type ProgressEvent struct {
	Type    string  `json:"type"` // output, step, finished, error
	Line    string  `json:"line,omitempty"`
	Step    *int    `json:"step,omitempty"`
	Total   *int    `json:"total,omitempty"`
	Loss    float64 `json:"loss,omitempty"`
	Percent float64 `json:"percent,omitempty"`
	Message string  `json:"message,omitempty"`
}
