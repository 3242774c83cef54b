package repository

import (
	"time"

	"sft-go/internal/models"

	"gorm.io/gorm"
)

// TrainingTaskRepository 微调任务数据访问层
type TrainingTaskRepository struct {
	db *gorm.DB
}

// NewTrainingTaskRepository 创建微调任务Repository
func NewTrainingTaskRepository(db *gorm.DB) *TrainingTaskRepository {
	return &TrainingTaskRepository{db: db}
}

// Create 创建任务
func (r *TrainingTaskRepository) Create(task *models.TrainingTask) error {
	return r.db.Create(task).Error
}

// GetByTaskID 根据任务ID获取任务
func (r *TrainingTaskRepository) GetByTaskID(taskID string) (*models.TrainingTask, error) {
	var task models.TrainingTask
	err := r.db.Preload("User").Where("task_id = ?", taskID).First(&task).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// Update 更新任务
func (r *TrainingTaskRepository) Update(task *models.TrainingTask) error {
	return r.db.Save(task).Error
}

// UpdateStatusWithTime 更新任务状态，终态同时写入完成时间
func (r *TrainingTaskRepository) UpdateStatusWithTime(taskID string, status string) error {
	updates := map[string]interface{}{
		"status": status,
	}

	if status == "finished" || status == "error" || status == "stopped" {
		updates["finished_at"] = time.Now()
	}

	return r.db.Model(&models.TrainingTask{}).Where("task_id = ?", taskID).Updates(updates).Error
}

// UpdateError 记录任务错误并置为error状态
func (r *TrainingTaskRepository) UpdateError(taskID string, message string) error {
	return r.db.Model(&models.TrainingTask{}).Where("task_id = ?", taskID).Updates(map[string]interface{}{
		"status":        "error",
		"error_message": message,
		"finished_at":   time.Now(),
	}).Error
}

// UpdateJobID 记录训练服务侧的任务ID
func (r *TrainingTaskRepository) UpdateJobID(taskID string, jobID string) error {
	return r.db.Model(&models.TrainingTask{}).Where("task_id = ?", taskID).Update("job_id", jobID).Error
}

// UpdateResult 写入任务结果
func (r *TrainingTaskRepository) UpdateResult(taskID string, result models.JSONMap) error {
	return r.db.Model(&models.TrainingTask{}).Where("task_id = ?", taskID).Update("result", result).Error
}

// Delete 删除任务
func (r *TrainingTaskRepository) Delete(id uint) error {
	return r.db.Delete(&models.TrainingTask{}, id).Error
}

// DeleteByTaskID 根据任务ID删除任务
func (r *TrainingTaskRepository) DeleteByTaskID(taskID string) error {
	return r.db.Where("task_id = ?", taskID).Delete(&models.TrainingTask{}).Error
}

// List 获取任务列表
func (r *TrainingTaskRepository) List(offset, limit int) ([]models.TrainingTask, int64, error) {
	var tasks []models.TrainingTask
	var total int64

	if err := r.db.Model(&models.TrainingTask{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.Preload("User").Order("started_at DESC").Offset(offset).Limit(limit).Find(&tasks).Error
	return tasks, total, err
}

// ListByUserID 获取用户的任务列表
func (r *TrainingTaskRepository) ListByUserID(userID uint, offset, limit int) ([]models.TrainingTask, int64, error) {
	var tasks []models.TrainingTask
	var total int64

	query := r.db.Model(&models.TrainingTask{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("started_at DESC").Offset(offset).Limit(limit).Find(&tasks).Error
	return tasks, total, err
}

// GetActiveTaskByUserID 获取用户的运行中任务
func (r *TrainingTaskRepository) GetActiveTaskByUserID(userID uint) (*models.TrainingTask, error) {
	var task models.TrainingTask
	err := r.db.Where("user_id = ? AND status = ?", userID, "running").First(&task).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// ExistsByTaskID 检查任务ID是否存在
func (r *TrainingTaskRepository) ExistsByTaskID(taskID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.TrainingTask{}).Where("task_id = ?", taskID).Count(&count).Error
	return count > 0, err
}
