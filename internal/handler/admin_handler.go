package handler

import (
	"strconv"

	"sft-go/internal/repository"
	"sft-go/internal/utils"

	"github.com/gin-gonic/gin"
)

// AdminHandler 管理员处理器
type AdminHandler struct {
	userRepo *repository.UserRepository
	taskRepo *repository.TrainingTaskRepository
}

// NewAdminHandler 创建管理员处理器
func NewAdminHandler(
	userRepo *repository.UserRepository,
	taskRepo *repository.TrainingTaskRepository,
) *AdminHandler {
	return &AdminHandler{
		userRepo: userRepo,
		taskRepo: taskRepo,
	}
}

// ListUsers 获取所有用户
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))

	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage
	users, total, err := h.userRepo.List(offset, perPage)
	if err != nil {
		utils.InternalError(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, users, total, page, perPage)
}

// DeleteUser 删除用户
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 32)

	if err := h.userRepo.Delete(uint(id)); err != nil {
		utils.InternalError(c, err.Error())
		return
	}

	utils.SuccessWithMessage(c, "用户已删除", gin.H{"success": true})
}

// ListAllTasks 获取所有微调任务
func (h *AdminHandler) ListAllTasks(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))

	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage
	tasks, total, err := h.taskRepo.List(offset, perPage)
	if err != nil {
		utils.InternalError(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, tasks, total, page, perPage)
}

// DeleteTask 删除任意用户的微调任务
func (h *AdminHandler) DeleteTask(c *gin.Context) {
	taskID := c.Param("task_id")

	task, err := h.taskRepo.GetByTaskID(taskID)
	if err != nil {
		utils.NotFound(c, "任务不存在")
		return
	}
	if task.Status == "running" {
		utils.BadRequest(c, "运行中的任务不能删除")
		return
	}

	if err := h.taskRepo.DeleteByTaskID(taskID); err != nil {
		utils.InternalError(c, err.Error())
		return
	}

	utils.SuccessWithMessage(c, "任务已删除", gin.H{"success": true})
}
