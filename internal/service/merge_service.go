package service

import (
	"encoding/json"
	"fmt"

	"sft-go/internal/dataset"
	"sft-go/internal/dto"
	"sft-go/internal/models"
	"sft-go/internal/repository"

	"github.com/sirupsen/logrus"
)

// MergeService 合并过滤服务
// 对库内样本文件执行与cmd/merge相同的流水线，结果落到merge_runs表
type MergeService struct {
	fileRepo *repository.DatasetFileRepository
	runRepo  *repository.MergeRunRepository
	logger   *logrus.Logger
}

// NewMergeService 创建合并过滤服务
func NewMergeService(fileRepo *repository.DatasetFileRepository, runRepo *repository.MergeRunRepository, logger *logrus.Logger) *MergeService {
	return &MergeService{
		fileRepo: fileRepo,
		runRepo:  runRepo,
		logger:   logger,
	}
}

// RunMerge 对用户的样本文件执行合并过滤
// 不指定file_ids时取用户全部文件，统一按文件名排序保证结果可复现
func (s *MergeService) RunMerge(userID uint, req *dto.MergeRequest) (*dto.MergeRunResponse, error) {
	var files []models.DatasetFile
	var err error

	if len(req.FileIDs) > 0 {
		files, err = s.fileRepo.GetByIDsAndUserID(req.FileIDs, userID)
	} else {
		files, err = s.fileRepo.GetAllByUserID(userID)
	}
	if err != nil {
		return nil, fmt.Errorf("获取样本文件失败: %w", err)
	}

	samples := make([]dataset.Sample, 0)
	for _, file := range files {
		var fileSamples []dataset.Sample
		if err := json.Unmarshal(file.FileContent, &fileSamples); err != nil {
			return nil, fmt.Errorf("解析样本文件 %s 失败: %w", file.Filename, err)
		}
		samples = append(samples, fileSamples...)
	}

	retained, removed, err := dataset.Partition(samples)
	if err != nil {
		return nil, fmt.Errorf("过滤样本失败: %w", err)
	}

	outputContent, err := dataset.MarshalSamples(retained)
	if err != nil {
		return nil, err
	}

	run := &models.MergeRun{
		UserID:        userID,
		Total:         len(samples),
		Retained:      len(retained),
		Removed:       len(removed),
		OutputContent: outputContent,
	}

	if req.KeepRemoved {
		removedContent, err := dataset.MarshalSamples(removed)
		if err != nil {
			return nil, err
		}
		run.RemovedContent = removedContent
	}

	if err := s.runRepo.Create(run); err != nil {
		return nil, fmt.Errorf("保存合并运行记录失败: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"merge_run_id": run.ID,
		"total":        run.Total,
		"retained":     run.Retained,
		"removed":      run.Removed,
		"user_id":      userID,
	}).Info("合并过滤完成")

	return s.toResponse(run), nil
}

// GetRun 获取合并运行记录
func (s *MergeService) GetRun(runID uint, userID uint) (*dto.MergeRunResponse, error) {
	run, err := s.runRepo.GetByIDAndUserID(runID, userID)
	if err != nil {
		return nil, fmt.Errorf("合并运行记录不存在或无权访问")
	}
	return s.toResponse(run), nil
}

// ListRuns 获取用户的合并运行列表
func (s *MergeService) ListRuns(userID uint, page, perPage int) (*dto.PaginatedResponse, error) {
	offset := (page - 1) * perPage
	runs, total, err := s.runRepo.ListByUserID(userID, offset, perPage)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.MergeRunResponse, len(runs))
	for i := range runs {
		responses[i] = *s.toResponse(&runs[i])
	}

	return &dto.PaginatedResponse{
		Items:   responses,
		Total:   total,
		Page:    page,
		PerPage: perPage,
	}, nil
}

// DeleteRun 删除合并运行记录
func (s *MergeService) DeleteRun(runID uint, userID uint) error {
	run, err := s.runRepo.GetByIDAndUserID(runID, userID)
	if err != nil {
		return fmt.Errorf("合并运行记录不存在或无权访问")
	}
	return s.runRepo.Delete(run.ID)
}

// DownloadOutput 下载保留集内容
func (s *MergeService) DownloadOutput(runID uint, userID uint) ([]byte, string, error) {
	run, err := s.runRepo.GetByIDAndUserID(runID, userID)
	if err != nil {
		return nil, "", fmt.Errorf("合并运行记录不存在或无权访问")
	}
	filename := fmt.Sprintf("merged_data_%d.json", run.ID)
	return run.OutputContent, filename, nil
}

// GetRetainedSamples 获取合并运行的保留样本(微调任务消费)
func (s *MergeService) GetRetainedSamples(runID uint, userID uint) ([]dataset.Sample, error) {
	run, err := s.runRepo.GetByIDAndUserID(runID, userID)
	if err != nil {
		return nil, fmt.Errorf("合并运行记录不存在或无权访问")
	}

	var samples []dataset.Sample
	if err := json.Unmarshal(run.OutputContent, &samples); err != nil {
		return nil, fmt.Errorf("解析保留集失败: %w", err)
	}
	return samples, nil
}

func (s *MergeService) toResponse(run *models.MergeRun) *dto.MergeRunResponse {
	return &dto.MergeRunResponse{
		ID:        run.ID,
		Total:     run.Total,
		Retained:  run.Retained,
		Removed:   run.Removed,
		UserID:    run.UserID,
		CreatedAt: run.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}
