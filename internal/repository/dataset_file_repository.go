package repository

import (
	"sft-go/internal/models"

	"gorm.io/gorm"
)

// DatasetFileRepository 样本文件数据访问层
type DatasetFileRepository struct {
	db *gorm.DB
}

// NewDatasetFileRepository 创建样本文件Repository
func NewDatasetFileRepository(db *gorm.DB) *DatasetFileRepository {
	return &DatasetFileRepository{db: db}
}

// Create 创建文件
func (r *DatasetFileRepository) Create(file *models.DatasetFile) error {
	return r.db.Create(file).Error
}

// GetByIDAndUserID 根据ID和用户ID获取文件
func (r *DatasetFileRepository) GetByIDAndUserID(id uint, userID uint) (*models.DatasetFile, error) {
	var file models.DatasetFile
	err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&file).Error
	if err != nil {
		return nil, err
	}
	return &file, nil
}

// Update 更新文件
func (r *DatasetFileRepository) Update(file *models.DatasetFile) error {
	return r.db.Save(file).Error
}

// Delete 删除文件
func (r *DatasetFileRepository) Delete(id uint) error {
	return r.db.Delete(&models.DatasetFile{}, id).Error
}

// ListByUserID 获取用户的文件列表
func (r *DatasetFileRepository) ListByUserID(userID uint, offset, limit int) ([]models.DatasetFile, int64, error) {
	var files []models.DatasetFile
	var total int64

	query := r.db.Model(&models.DatasetFile{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&files).Error
	return files, total, err
}

// GetByIDsAndUserID 根据ID列表获取用户的文件，按文件名排序
func (r *DatasetFileRepository) GetByIDsAndUserID(ids []uint, userID uint) ([]models.DatasetFile, error) {
	var files []models.DatasetFile
	err := r.db.Where("id IN ? AND user_id = ?", ids, userID).Order("filename ASC").Find(&files).Error
	return files, err
}

// GetAllByUserID 获取用户的全部文件，按文件名排序
func (r *DatasetFileRepository) GetAllByUserID(userID uint) ([]models.DatasetFile, error) {
	var files []models.DatasetFile
	err := r.db.Where("user_id = ?", userID).Order("filename ASC").Find(&files).Error
	return files, err
}
