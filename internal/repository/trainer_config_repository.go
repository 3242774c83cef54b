package repository

import (
	"sft-go/internal/models"

	"gorm.io/gorm"
)

// TrainerConfigRepository 训练服务配置数据访问层
type TrainerConfigRepository struct {
	db *gorm.DB
}

// NewTrainerConfigRepository 创建训练服务配置Repository
func NewTrainerConfigRepository(db *gorm.DB) *TrainerConfigRepository {
	return &TrainerConfigRepository{db: db}
}

// Create 创建配置
func (r *TrainerConfigRepository) Create(config *models.TrainerConfig) error {
	return r.db.Create(config).Error
}

// GetByID 根据ID获取配置
func (r *TrainerConfigRepository) GetByID(id uint) (*models.TrainerConfig, error) {
	var config models.TrainerConfig
	err := r.db.First(&config, id).Error
	if err != nil {
		return nil, err
	}
	return &config, nil
}

// GetByIDAndActive 根据ID获取启用的配置
func (r *TrainerConfigRepository) GetByIDAndActive(id uint) (*models.TrainerConfig, error) {
	var config models.TrainerConfig
	err := r.db.Where("id = ? AND is_active = ?", id, true).First(&config).Error
	if err != nil {
		return nil, err
	}
	return &config, nil
}

// Update 更新配置
func (r *TrainerConfigRepository) Update(config *models.TrainerConfig) error {
	return r.db.Save(config).Error
}

// Delete 删除配置
func (r *TrainerConfigRepository) Delete(id uint) error {
	return r.db.Delete(&models.TrainerConfig{}, id).Error
}

// List 获取配置列表
func (r *TrainerConfigRepository) List(offset, limit int) ([]models.TrainerConfig, int64, error) {
	var configs []models.TrainerConfig
	var total int64

	if err := r.db.Model(&models.TrainerConfig{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&configs).Error
	return configs, total, err
}

// GetActiveConfigs 获取启用的配置列表
func (r *TrainerConfigRepository) GetActiveConfigs() ([]models.TrainerConfig, error) {
	var configs []models.TrainerConfig
	err := r.db.Where("is_active = ?", true).Find(&configs).Error
	return configs, err
}
