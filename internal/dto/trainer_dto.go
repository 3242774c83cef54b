package dto

// CreateTrainerConfigRequest 创建训练服务配置请求
type CreateTrainerConfigRequest struct {
	Name          string  `json:"name" binding:"required"`
	APIURL        string  `json:"api_url" binding:"required"`
	APIKey        string  `json:"api_key"`
	BaseModel     string  `json:"base_model" binding:"required"`
	MaxConcurrent int     `json:"max_concurrent"`
	Temperature   float64 `json:"temperature"`
	TopP          float64 `json:"top_p"`
	MaxTokens     int     `json:"max_tokens"`
	Timeout       int     `json:"timeout"`
	Description   string  `json:"description"`
	IsActive      bool    `json:"is_active"`
}

// UpdateTrainerConfigRequest 更新训练服务配置请求
type UpdateTrainerConfigRequest struct {
	Name          *string  `json:"name"`
	APIURL        *string  `json:"api_url"`
	APIKey        *string  `json:"api_key"`
	BaseModel     *string  `json:"base_model"`
	MaxConcurrent *int     `json:"max_concurrent"`
	Temperature   *float64 `json:"temperature"`
	TopP          *float64 `json:"top_p"`
	MaxTokens     *int     `json:"max_tokens"`
	Timeout       *int     `json:"timeout"`
	Description   *string  `json:"description"`
	IsActive      *bool    `json:"is_active"`
}

// TrainerConfigResponse 训练服务配置响应
type TrainerConfigResponse struct {
	ID            uint    `json:"id"`
	Name          string  `json:"name"`
	APIURL        string  `json:"api_url"`
	BaseModel     string  `json:"base_model"`
	MaxConcurrent int     `json:"max_concurrent"`
	Temperature   float64 `json:"temperature"`
	TopP          float64 `json:"top_p"`
	MaxTokens     int     `json:"max_tokens"`
	Timeout       int     `json:"timeout"`
	Description   string  `json:"description"`
	IsActive      bool    `json:"is_active"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

// Message 对话消息
type Message struct {
	Role    string `json:"role" binding:"required,oneof=system user assistant"`
	Content string `json:"content" binding:"required"`
}

// Choice 候选回复
type Choice struct {
	Message      Message `json:"message"`
	Text         string  `json:"text,omitempty"`
	FinishReason string  `json:"finish_reason,omitempty"`
}

// Usage token用量
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// CompletionResponse OpenAI兼容的补全响应
type CompletionResponse struct {
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage,omitempty"`
}

// StartJobRequest 提交微调任务请求(发往训练服务)
type StartJobRequest struct {
	Config  interface{} `json:"config"`
	Records interface{} `json:"records"`
}

// StartJobResponse 提交微调任务响应
type StartJobResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// JobStatus 微调任务状态(训练服务侧)
type JobStatus struct {
	JobID      string  `json:"job_id"`
	Status     string  `json:"status"` // pending, running, finished, error
	Step       int     `json:"step"`
	TotalSteps int     `json:"total_steps"`
	Loss       float64 `json:"loss,omitempty"`
	Message    string  `json:"message,omitempty"`
}

// SaveModelRequest 保存模型请求
type SaveModelRequest struct {
	OutputDir string `json:"output_dir" binding:"required"`
}

// PushToHubRequest 上传模型到远程仓库请求
type PushToHubRequest struct {
	Repo  string `json:"repo" binding:"required"`
	Token string `json:"token" binding:"required"`
}
