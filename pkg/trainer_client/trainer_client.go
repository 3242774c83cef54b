package trainer_client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"sft-go/internal/dto"
	"sft-go/internal/finetune"
)

// TrainerClient 训练服务HTTP客户端
// 对接OpenAI/vLLM兼容的微调训练服务，量化和LoRA训练在服务端完成
type TrainerClient struct {
	client  *http.Client
	apiBase string
	apiKey  string
	timeout time.Duration
}

// CallOptions 推理调用选项
type CallOptions struct {
	MaxTokens   int
	Temperature float64
	TopP        float64
}

// NewTrainerClient 创建训练服务客户端
func NewTrainerClient(apiBase, apiKey string, timeout time.Duration) *TrainerClient {
	return &TrainerClient{
		client: &http.Client{
			Timeout: timeout,
		},
		apiBase: apiBase,
		apiKey:  apiKey,
		timeout: timeout,
	}
}

// StartJob 提交微调任务，返回训练服务侧的任务ID
func (tc *TrainerClient) StartJob(ctx context.Context, cfg finetune.TuningConfig, records []finetune.TrainingRecord) (string, error) {
	reqBody := dto.StartJobRequest{
		Config:  cfg,
		Records: records,
	}

	var result dto.StartJobResponse
	if err := tc.post(ctx, "/finetune/jobs", reqBody, &result); err != nil {
		return "", err
	}
	if result.JobID == "" {
		return "", fmt.Errorf("训练服务未返回任务ID")
	}
	return result.JobID, nil
}

// GetJob 查询微调任务状态
func (tc *TrainerClient) GetJob(ctx context.Context, jobID string) (*dto.JobStatus, error) {
	url := tc.apiBase + "/finetune/jobs/" + jobID
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	tc.setHeaders(req)

	resp, err := tc.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应失败: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API返回错误: status=%d, body=%s", resp.StatusCode, string(body))
	}

	var status dto.JobStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("解析响应失败: %w", err)
	}
	return &status, nil
}

// WaitJob 轮询直到微调任务结束，每次状态变化都通过onStatus回调
func (tc *TrainerClient) WaitJob(ctx context.Context, jobID string, interval time.Duration, onStatus func(*dto.JobStatus)) (*dto.JobStatus, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		status, err := tc.GetJob(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if onStatus != nil {
			onStatus(status)
		}
		switch status.Status {
		case "finished":
			return status, nil
		case "error":
			return status, fmt.Errorf("训练任务失败: %s", status.Message)
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Completion 文本补全推理，用于微调后的生成效果检查
func (tc *TrainerClient) Completion(ctx context.Context, model, prompt string, options *CallOptions) (*dto.CompletionResponse, error) {
	if options == nil {
		options = &CallOptions{
			MaxTokens:   2048,
			Temperature: 1.0,
			TopP:        1.0,
		}
	}

	reqBody := map[string]interface{}{
		"model":       model,
		"prompt":      prompt,
		"max_tokens":  options.MaxTokens,
		"temperature": options.Temperature,
		"top_p":       options.TopP,
	}

	var result dto.CompletionResponse
	if err := tc.post(ctx, "/completions", reqBody, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ChatCompletion 对话推理
func (tc *TrainerClient) ChatCompletion(ctx context.Context, model string, messages []dto.Message, options *CallOptions) (*dto.CompletionResponse, error) {
	if options == nil {
		options = &CallOptions{
			MaxTokens:   2048,
			Temperature: 1.0,
			TopP:        1.0,
		}
	}

	reqBody := map[string]interface{}{
		"model":       model,
		"messages":    messages,
		"max_tokens":  options.MaxTokens,
		"temperature": options.Temperature,
		"top_p":       options.TopP,
	}

	var result dto.CompletionResponse
	if err := tc.post(ctx, "/chat/completions", reqBody, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SaveModel 让训练服务把LoRA适配器落盘到指定目录
func (tc *TrainerClient) SaveModel(ctx context.Context, jobID, outputDir string) error {
	reqBody := dto.SaveModelRequest{OutputDir: outputDir}
	return tc.post(ctx, "/finetune/jobs/"+jobID+"/save", reqBody, nil)
}

// PushToHub 让训练服务用调用方提供的token上传模型到远程仓库
func (tc *TrainerClient) PushToHub(ctx context.Context, jobID, repo, token string) error {
	reqBody := dto.PushToHubRequest{Repo: repo, Token: token}
	return tc.post(ctx, "/finetune/jobs/"+jobID+"/push", reqBody, nil)
}

// post 发送JSON请求并解析响应
func (tc *TrainerClient) post(ctx context.Context, path string, reqBody interface{}, out interface{}) error {
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("序列化请求失败: %w", err)
	}

	url := tc.apiBase + path
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return fmt.Errorf("创建请求失败: %w", err)
	}
	tc.setHeaders(req)

	resp, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("请求失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("读取响应失败: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API返回错误: status=%d, body=%s", resp.StatusCode, string(body))
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("解析响应失败: %w", err)
		}
	}
	return nil
}

func (tc *TrainerClient) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if tc.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+tc.apiKey)
	}
}

// ConcurrencyLimiter 进程内并发限制器
type ConcurrencyLimiter struct {
	maxConcurrent int
	semaphore     chan struct{}
}

// NewConcurrencyLimiter 创建并发限制器
func NewConcurrencyLimiter(maxConcurrent int) *ConcurrencyLimiter {
	return &ConcurrencyLimiter{
		maxConcurrent: maxConcurrent,
		semaphore:     make(chan struct{}, maxConcurrent),
	}
}

// Acquire 获取并发槽位
func (cl *ConcurrencyLimiter) Acquire(ctx context.Context) error {
	select {
	case cl.semaphore <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release 释放并发槽位
func (cl *ConcurrencyLimiter) Release() {
	select {
	case <-cl.semaphore:
	default:
	}
}
