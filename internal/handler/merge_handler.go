package handler

import (
	"net/url"
	"strconv"

	"sft-go/internal/dto"
	"sft-go/internal/middleware"
	"sft-go/internal/service"
	"sft-go/internal/utils"

	"github.com/gin-gonic/gin"
)

// MergeHandler 样本合并处理器
type MergeHandler struct {
	mergeService *service.MergeService
}

// NewMergeHandler 创建样本合并处理器
func NewMergeHandler(mergeService *service.MergeService) *MergeHandler {
	return &MergeHandler{
		mergeService: mergeService,
	}
}

// RunMerge 执行合并与过滤
// 未指定file_ids时合并该用户的全部样本文件
func (h *MergeHandler) RunMerge(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req dto.MergeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	result, err := h.mergeService.RunMerge(userID, &req)
	if err != nil {
		utils.InternalError(c, err.Error())
		return
	}

	utils.SuccessWithMessage(c, "合并完成", result)
}

// ListRuns 获取合并运行列表
func (h *MergeHandler) ListRuns(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))

	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	result, err := h.mergeService.ListRuns(userID, page, perPage)
	if err != nil {
		utils.InternalError(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, result.Items, result.Total, result.Page, result.PerPage)
}

// GetRun 获取合并运行详情
func (h *MergeHandler) GetRun(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	runID, _ := strconv.ParseUint(c.Param("run_id"), 10, 32)

	run, err := h.mergeService.GetRun(uint(runID), userID)
	if err != nil {
		utils.NotFound(c, "合并运行不存在")
		return
	}

	utils.SuccessResponse(c, run)
}

// DeleteRun 删除合并运行
func (h *MergeHandler) DeleteRun(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	runID, _ := strconv.ParseUint(c.Param("run_id"), 10, 32)

	if err := h.mergeService.DeleteRun(uint(runID), userID); err != nil {
		utils.InternalError(c, err.Error())
		return
	}

	utils.SuccessWithMessage(c, "删除成功", nil)
}

// DownloadOutput 下载合并结果
func (h *MergeHandler) DownloadOutput(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	runID, _ := strconv.ParseUint(c.Param("run_id"), 10, 32)

	content, filename, err := h.mergeService.DownloadOutput(uint(runID), userID)
	if err != nil {
		utils.NotFound(c, err.Error())
		return
	}

	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(200, "application/json", content)
}
