package service

import (
	"fmt"
	"mime/multipart"
	"strings"

	"sft-go/internal/dto"
	"sft-go/internal/models"
	"sft-go/internal/repository"
	"sft-go/internal/utils"
)

// DatasetService 样本文件服务
// 上传时统一归一化为JSON数组格式存储
type DatasetService struct {
	fileRepo *repository.DatasetFileRepository
}

// NewDatasetService 创建样本文件服务
func NewDatasetService(fileRepo *repository.DatasetFileRepository) *DatasetService {
	return &DatasetService{
		fileRepo: fileRepo,
	}
}

// UploadFile 上传样本文件
// CSV和JSONL在入库前转换为JSON数组，保证合并流水线消费格式一致
func (s *DatasetService) UploadFile(userID uint, header *multipart.FileHeader, content []byte) (*models.DatasetFile, error) {
	contentType := utils.DetectContentType(content)

	var samples []map[string]interface{}
	var err error

	if strings.Contains(contentType, "csv") || strings.HasSuffix(header.Filename, ".csv") {
		samples, err = utils.ConvertCSVToSamples(content)
		if err != nil {
			return nil, fmt.Errorf("CSV转换失败: %w", err)
		}
	} else {
		samples, err = utils.ParseSamples(content)
		if err != nil {
			return nil, fmt.Errorf("解析样本内容失败: %w", err)
		}
	}

	finalContent, err := utils.ConvertToJSON(samples)
	if err != nil {
		return nil, fmt.Errorf("序列化样本失败: %w", err)
	}

	file := &models.DatasetFile{
		Filename:    header.Filename,
		FileContent: finalContent,
		FileSize:    len(finalContent),
		ContentType: "application/json",
		SampleCount: len(samples),
		UserID:      userID,
	}

	if err := s.fileRepo.Create(file); err != nil {
		return nil, fmt.Errorf("保存文件失败: %w", err)
	}

	return file, nil
}

// GetFile 获取文件
func (s *DatasetService) GetFile(fileID uint, userID uint) (*models.DatasetFile, error) {
	return s.fileRepo.GetByIDAndUserID(fileID, userID)
}

// ListFiles 获取文件列表
func (s *DatasetService) ListFiles(userID uint, page, perPage int) (*dto.PaginatedResponse, error) {
	offset := (page - 1) * perPage
	files, total, err := s.fileRepo.ListByUserID(userID, offset, perPage)
	if err != nil {
		return nil, err
	}

	fileResponses := make([]dto.DatasetFileResponse, len(files))
	for i, file := range files {
		fileResponses[i] = dto.DatasetFileResponse{
			ID:          file.ID,
			Filename:    file.Filename,
			FileSize:    file.FileSize,
			ContentType: file.ContentType,
			SampleCount: file.SampleCount,
			UserID:      file.UserID,
			CreatedAt:   file.CreatedAt.Format("2006-01-02 15:04:05"),
			UpdatedAt:   file.UpdatedAt.Format("2006-01-02 15:04:05"),
		}
	}

	return &dto.PaginatedResponse{
		Items:   fileResponses,
		Total:   total,
		Page:    page,
		PerPage: perPage,
	}, nil
}

// DeleteFile 删除文件
func (s *DatasetService) DeleteFile(fileID uint, userID uint) error {
	file, err := s.fileRepo.GetByIDAndUserID(fileID, userID)
	if err != nil {
		return fmt.Errorf("文件不存在或无权访问")
	}

	return s.fileRepo.Delete(file.ID)
}

// BatchDeleteFiles 批量删除文件
func (s *DatasetService) BatchDeleteFiles(userID uint, ids []uint) error {
	for _, id := range ids {
		file, err := s.fileRepo.GetByIDAndUserID(id, userID)
		if err != nil {
			continue // 跳过不存在的文件
		}
		s.fileRepo.Delete(file.ID)
	}
	return nil
}

// GetFileContent 获取文件内容
func (s *DatasetService) GetFileContent(fileID uint, userID uint) (*dto.DatasetFileContentResponse, error) {
	file, err := s.fileRepo.GetByIDAndUserID(fileID, userID)
	if err != nil {
		return nil, fmt.Errorf("文件不存在或无权访问")
	}

	data, err := utils.ParseSamples(file.FileContent)
	if err != nil {
		return nil, fmt.Errorf("解析文件内容失败: %w", err)
	}

	return &dto.DatasetFileContentResponse{
		ID:       file.ID,
		Filename: file.Filename,
		Content:  data,
		Total:    len(data),
	}, nil
}

// GetFileContentEditable 获取文件内容(带索引，用于编辑)
func (s *DatasetService) GetFileContentEditable(fileID uint, userID uint) (*dto.DatasetFileEditableResponse, error) {
	file, err := s.fileRepo.GetByIDAndUserID(fileID, userID)
	if err != nil {
		return nil, fmt.Errorf("文件不存在或无权访问")
	}

	data, err := utils.ParseSamples(file.FileContent)
	if err != nil {
		return nil, fmt.Errorf("解析文件内容失败: %w", err)
	}

	items := make([]dto.DatasetItem, len(data))
	for i, d := range data {
		items[i] = dto.DatasetItem{
			Index: i,
			Data:  d,
		}
	}

	return &dto.DatasetFileEditableResponse{
		FileID:     file.ID,
		Filename:   file.Filename,
		TotalLines: len(data),
		Items:      items,
	}, nil
}

// UpdateFileContent 更新文件内容中的某一项
func (s *DatasetService) UpdateFileContent(fileID uint, userID uint, itemIndex int, content map[string]interface{}) error {
	file, err := s.fileRepo.GetByIDAndUserID(fileID, userID)
	if err != nil {
		return fmt.Errorf("文件不存在或无权访问")
	}

	data, err := utils.ParseSamples(file.FileContent)
	if err != nil {
		return fmt.Errorf("解析文件内容失败: %w", err)
	}

	if itemIndex < 0 || itemIndex >= len(data) {
		return fmt.Errorf("索引越界")
	}

	data[itemIndex] = content

	newContent, err := utils.ConvertToJSON(data)
	if err != nil {
		return fmt.Errorf("序列化内容失败: %w", err)
	}

	file.FileContent = newContent
	file.FileSize = len(newContent)
	file.SampleCount = len(data)
	return s.fileRepo.Update(file)
}

// DownloadFile 下载文件
func (s *DatasetService) DownloadFile(fileID uint, userID uint) (*models.DatasetFile, error) {
	return s.fileRepo.GetByIDAndUserID(fileID, userID)
}

// DownloadFileAsJSONL 下载文件为JSONL格式
func (s *DatasetService) DownloadFileAsJSONL(fileID uint, userID uint) ([]byte, string, error) {
	file, err := s.fileRepo.GetByIDAndUserID(fileID, userID)
	if err != nil {
		return nil, "", fmt.Errorf("文件不存在或无权访问")
	}

	data, err := utils.ParseSamples(file.FileContent)
	if err != nil {
		return nil, "", fmt.Errorf("解析文件内容失败: %w", err)
	}

	jsonlContent, err := utils.ConvertToJSONL(data)
	if err != nil {
		return nil, "", fmt.Errorf("转换为JSONL失败: %w", err)
	}

	jsonlFilename := strings.TrimSuffix(file.Filename, ".json") + ".jsonl"
	if !strings.HasSuffix(file.Filename, ".json") {
		jsonlFilename = file.Filename + ".jsonl"
	}

	return jsonlContent, jsonlFilename, nil
}
