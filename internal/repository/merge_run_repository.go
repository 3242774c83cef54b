package repository

import (
	"sft-go/internal/models"

	"gorm.io/gorm"
)

// MergeRunRepository 合并运行数据访问层
type MergeRunRepository struct {
	db *gorm.DB
}

// NewMergeRunRepository 创建合并运行Repository
func NewMergeRunRepository(db *gorm.DB) *MergeRunRepository {
	return &MergeRunRepository{db: db}
}

// Create 创建合并运行记录
func (r *MergeRunRepository) Create(run *models.MergeRun) error {
	return r.db.Create(run).Error
}

// GetByIDAndUserID 根据ID和用户ID获取合并运行记录
func (r *MergeRunRepository) GetByIDAndUserID(id uint, userID uint) (*models.MergeRun, error) {
	var run models.MergeRun
	err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&run).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// Delete 删除合并运行记录
func (r *MergeRunRepository) Delete(id uint) error {
	return r.db.Delete(&models.MergeRun{}, id).Error
}

// ListByUserID 获取用户的合并运行列表
func (r *MergeRunRepository) ListByUserID(userID uint, offset, limit int) ([]models.MergeRun, int64, error) {
	var runs []models.MergeRun
	var total int64

	query := r.db.Model(&models.MergeRun{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&runs).Error
	return runs, total, err
}
