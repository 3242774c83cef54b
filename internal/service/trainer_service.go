package service

import (
	"context"
	"net/http"
	"sync"
	"time"

	"sft-go/internal/dto"
	"sft-go/internal/models"
	"sft-go/internal/repository"
	"sft-go/pkg/redis_limiter"

	"github.com/go-redis/redis/v8"
)

// TrainerService 训练服务配置管理
type TrainerService struct {
	trainerRepo *repository.TrainerConfigRepository
	redisClient *redis.Client
	// 并发限制器映射，每个基础模型一个限制器
	limiters   map[string]*redis_limiter.RedisLimiter
	limitersMu sync.RWMutex
}

// NewTrainerService 创建训练服务配置管理
func NewTrainerService(trainerRepo *repository.TrainerConfigRepository, redisClient *redis.Client) *TrainerService {
	return &TrainerService{
		trainerRepo: trainerRepo,
		redisClient: redisClient,
		limiters:    make(map[string]*redis_limiter.RedisLimiter),
	}
}

// GetLimiter 获取基础模型对应的并发限制器
func (s *TrainerService) GetLimiter(baseModel string, maxConcurrent int) *redis_limiter.RedisLimiter {
	s.limitersMu.RLock()
	limiter, ok := s.limiters[baseModel]
	s.limitersMu.RUnlock()
	if ok {
		return limiter
	}

	s.limitersMu.Lock()
	defer s.limitersMu.Unlock()
	if limiter, ok := s.limiters[baseModel]; ok {
		return limiter
	}

	limiter = redis_limiter.NewRedisLimiter(s.redisClient, maxConcurrent, "train_limit:", 24*time.Hour)
	s.limiters[baseModel] = limiter
	return limiter
}

// GetActiveConfigs 获取启用的训练服务配置列表
func (s *TrainerService) GetActiveConfigs() ([]dto.TrainerConfigResponse, error) {
	configs, err := s.trainerRepo.GetActiveConfigs()
	if err != nil {
		return nil, err
	}

	responses := make([]dto.TrainerConfigResponse, len(configs))
	for i, cfg := range configs {
		responses[i] = s.toResponse(&cfg)
	}

	return responses, nil
}

// GetAllConfigs 获取所有训练服务配置(管理员)
func (s *TrainerService) GetAllConfigs(page, perPage int) (*dto.PaginatedResponse, error) {
	offset := (page - 1) * perPage
	configs, total, err := s.trainerRepo.List(offset, perPage)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.TrainerConfigResponse, len(configs))
	for i, cfg := range configs {
		responses[i] = s.toResponse(&cfg)
	}

	return &dto.PaginatedResponse{
		Items:   responses,
		Total:   total,
		Page:    page,
		PerPage: perPage,
	}, nil
}

// CreateConfig 创建训练服务配置
func (s *TrainerService) CreateConfig(req *dto.CreateTrainerConfigRequest) (*models.TrainerConfig, error) {
	cfg := &models.TrainerConfig{
		Name:          req.Name,
		APIURL:        req.APIURL,
		APIKey:        req.APIKey,
		BaseModel:     req.BaseModel,
		MaxConcurrent: req.MaxConcurrent,
		Temperature:   req.Temperature,
		TopP:          req.TopP,
		MaxTokens:     req.MaxTokens,
		Timeout:       req.Timeout,
		Description:   req.Description,
		IsActive:      req.IsActive,
	}

	if err := s.trainerRepo.Create(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// UpdateConfig 更新训练服务配置
func (s *TrainerService) UpdateConfig(id uint, req *dto.UpdateTrainerConfigRequest) error {
	cfg, err := s.trainerRepo.GetByID(id)
	if err != nil {
		return err
	}

	if req.Name != nil {
		cfg.Name = *req.Name
	}
	if req.APIURL != nil {
		cfg.APIURL = *req.APIURL
	}
	if req.APIKey != nil {
		cfg.APIKey = *req.APIKey
	}
	if req.BaseModel != nil {
		cfg.BaseModel = *req.BaseModel
	}
	if req.MaxConcurrent != nil {
		cfg.MaxConcurrent = *req.MaxConcurrent
	}
	if req.Temperature != nil {
		cfg.Temperature = *req.Temperature
	}
	if req.TopP != nil {
		cfg.TopP = *req.TopP
	}
	if req.MaxTokens != nil {
		cfg.MaxTokens = *req.MaxTokens
	}
	if req.Timeout != nil {
		cfg.Timeout = *req.Timeout
	}
	if req.Description != nil {
		cfg.Description = *req.Description
	}
	if req.IsActive != nil {
		cfg.IsActive = *req.IsActive
	}

	return s.trainerRepo.Update(cfg)
}

// DeleteConfig 删除训练服务配置
func (s *TrainerService) DeleteConfig(id uint) error {
	return s.trainerRepo.Delete(id)
}

// GetConfigByIDAndActive 获取启用的训练服务配置
func (s *TrainerService) GetConfigByIDAndActive(id uint) (*models.TrainerConfig, error) {
	return s.trainerRepo.GetByIDAndActive(id)
}

// CheckService 探测训练服务是否可达
func (s *TrainerService) CheckService(apiURL string) bool {
	client := &http.Client{Timeout: 5 * time.Second}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", apiURL+"/models", nil)
	if err != nil {
		return false
	}

	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode < 500
}

func (s *TrainerService) toResponse(cfg *models.TrainerConfig) dto.TrainerConfigResponse {
	return dto.TrainerConfigResponse{
		ID:            cfg.ID,
		Name:          cfg.Name,
		APIURL:        cfg.APIURL,
		BaseModel:     cfg.BaseModel,
		MaxConcurrent: cfg.MaxConcurrent,
		Temperature:   cfg.Temperature,
		TopP:          cfg.TopP,
		MaxTokens:     cfg.MaxTokens,
		Timeout:       cfg.Timeout,
		Description:   cfg.Description,
		IsActive:      cfg.IsActive,
		CreatedAt:     cfg.CreatedAt.Format("2006-01-02 15:04:05"),
		UpdatedAt:     cfg.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}
