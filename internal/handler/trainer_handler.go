package handler

import (
	"strconv"

	"sft-go/internal/dto"
	"sft-go/internal/service"
	"sft-go/internal/utils"

	"github.com/gin-gonic/gin"
)

// TrainerHandler 训练服务配置处理器
type TrainerHandler struct {
	trainerService *service.TrainerService
}

// NewTrainerHandler 创建训练服务配置处理器
func NewTrainerHandler(trainerService *service.TrainerService) *TrainerHandler {
	return &TrainerHandler{
		trainerService: trainerService,
	}
}

// GetConfigs 获取启用的训练服务配置
func (h *TrainerHandler) GetConfigs(c *gin.Context) {
	configs, err := h.trainerService.GetActiveConfigs()
	if err != nil {
		utils.InternalError(c, err.Error())
		return
	}

	utils.SuccessResponse(c, configs)
}

// GetAllConfigs 获取全部训练服务配置(管理员)
func (h *TrainerHandler) GetAllConfigs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))

	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	result, err := h.trainerService.GetAllConfigs(page, perPage)
	if err != nil {
		utils.InternalError(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, result.Items, result.Total, result.Page, result.PerPage)
}

// CreateConfig 新增训练服务配置(管理员)
func (h *TrainerHandler) CreateConfig(c *gin.Context) {
	var req dto.CreateTrainerConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	cfg, err := h.trainerService.CreateConfig(&req)
	if err != nil {
		utils.InternalError(c, err.Error())
		return
	}

	utils.SuccessWithMessage(c, "配置创建成功", gin.H{
		"id":   cfg.ID,
		"name": cfg.Name,
	})
}

// UpdateConfig 更新训练服务配置(管理员)
func (h *TrainerHandler) UpdateConfig(c *gin.Context) {
	configID, _ := strconv.ParseUint(c.Param("config_id"), 10, 32)

	var req dto.UpdateTrainerConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	if err := h.trainerService.UpdateConfig(uint(configID), &req); err != nil {
		utils.InternalError(c, err.Error())
		return
	}

	utils.SuccessWithMessage(c, "配置更新成功", nil)
}

// DeleteConfig 删除训练服务配置(管理员)
func (h *TrainerHandler) DeleteConfig(c *gin.Context) {
	configID, _ := strconv.ParseUint(c.Param("config_id"), 10, 32)

	if err := h.trainerService.DeleteConfig(uint(configID)); err != nil {
		utils.InternalError(c, err.Error())
		return
	}

	utils.SuccessWithMessage(c, "配置删除成功", nil)
}

// CheckService 探测训练服务可用性(管理员)
func (h *TrainerHandler) CheckService(c *gin.Context) {
	apiURL := c.Query("api_url")
	if apiURL == "" {
		utils.BadRequest(c, "api_url不能为空")
		return
	}

	available := h.trainerService.CheckService(apiURL)
	utils.SuccessResponse(c, gin.H{
		"api_url":   apiURL,
		"available": available,
	})
}
