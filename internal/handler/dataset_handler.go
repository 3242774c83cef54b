package handler

import (
	"io"
	"net/url"
	"strconv"

	"sft-go/internal/dto"
	"sft-go/internal/middleware"
	"sft-go/internal/service"
	"sft-go/internal/utils"

	"github.com/gin-gonic/gin"
)

// DatasetHandler 样本文件处理器
type DatasetHandler struct {
	datasetService *service.DatasetService
}

// NewDatasetHandler 创建样本文件处理器
func NewDatasetHandler(datasetService *service.DatasetService) *DatasetHandler {
	return &DatasetHandler{
		datasetService: datasetService,
	}
}

// UploadFile 上传样本文件
func (h *DatasetHandler) UploadFile(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	file, err := c.FormFile("file")
	if err != nil {
		utils.BadRequest(c, "文件上传失败: "+err.Error())
		return
	}

	src, err := file.Open()
	if err != nil {
		utils.BadRequest(c, "打开文件失败: "+err.Error())
		return
	}
	defer src.Close()

	content := make([]byte, file.Size)
	_, err = io.ReadFull(src, content)
	if err != nil && err != io.ErrUnexpectedEOF {
		utils.BadRequest(c, "读取文件失败: "+err.Error())
		return
	}

	datasetFile, err := h.datasetService.UploadFile(userID, file, content)
	if err != nil {
		utils.InternalError(c, err.Error())
		return
	}

	utils.SuccessWithMessage(c, "文件上传成功", gin.H{
		"id":           datasetFile.ID,
		"filename":     datasetFile.Filename,
		"file_size":    datasetFile.FileSize,
		"sample_count": datasetFile.SampleCount,
	})
}

// ListFiles 获取样本文件列表
func (h *DatasetHandler) ListFiles(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))

	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	result, err := h.datasetService.ListFiles(userID, page, perPage)
	if err != nil {
		utils.InternalError(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, result.Items, result.Total, result.Page, result.PerPage)
}

// GetFile 获取样本文件详情
func (h *DatasetHandler) GetFile(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	fileID, _ := strconv.ParseUint(c.Param("file_id"), 10, 32)

	file, err := h.datasetService.GetFile(uint(fileID), userID)
	if err != nil {
		utils.NotFound(c, "文件不存在")
		return
	}

	utils.SuccessResponse(c, dto.DatasetFileResponse{
		ID:          file.ID,
		Filename:    file.Filename,
		FileSize:    file.FileSize,
		ContentType: file.ContentType,
		SampleCount: file.SampleCount,
		UserID:      file.UserID,
		CreatedAt:   file.CreatedAt.Format("2006-01-02 15:04:05"),
		UpdatedAt:   file.UpdatedAt.Format("2006-01-02 15:04:05"),
	})
}

// GetFileContent 获取样本文件内容
func (h *DatasetHandler) GetFileContent(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	fileID, _ := strconv.ParseUint(c.Param("file_id"), 10, 32)

	content, err := h.datasetService.GetFileContent(uint(fileID), userID)
	if err != nil {
		utils.NotFound(c, err.Error())
		return
	}

	utils.SuccessResponse(c, content)
}

// GetFileContentEditable 获取可编辑的样本列表
func (h *DatasetHandler) GetFileContentEditable(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	fileID, _ := strconv.ParseUint(c.Param("file_id"), 10, 32)

	content, err := h.datasetService.GetFileContentEditable(uint(fileID), userID)
	if err != nil {
		utils.NotFound(c, err.Error())
		return
	}

	utils.SuccessResponse(c, content)
}

// UpdateFileItem 更新单条样本
func (h *DatasetHandler) UpdateFileItem(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	fileID, _ := strconv.ParseUint(c.Param("file_id"), 10, 32)
	itemIndex, err := strconv.Atoi(c.Param("item_index"))
	if err != nil {
		utils.BadRequest(c, "无效的样本索引")
		return
	}

	var req dto.UpdateSampleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	if err := h.datasetService.UpdateFileContent(uint(fileID), userID, itemIndex, req.Content); err != nil {
		utils.InternalError(c, err.Error())
		return
	}

	utils.SuccessWithMessage(c, "样本更新成功", nil)
}

// DeleteFile 删除样本文件
func (h *DatasetHandler) DeleteFile(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	fileID, _ := strconv.ParseUint(c.Param("file_id"), 10, 32)

	if err := h.datasetService.DeleteFile(uint(fileID), userID); err != nil {
		utils.InternalError(c, err.Error())
		return
	}

	utils.SuccessWithMessage(c, "文件删除成功", nil)
}

// BatchDeleteFiles 批量删除样本文件
func (h *DatasetHandler) BatchDeleteFiles(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req dto.BatchDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	if err := h.datasetService.BatchDeleteFiles(userID, req.IDs); err != nil {
		utils.InternalError(c, err.Error())
		return
	}

	utils.SuccessWithMessage(c, "批量删除成功", nil)
}

// DownloadFile 下载样本文件
func (h *DatasetHandler) DownloadFile(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	fileID, _ := strconv.ParseUint(c.Param("file_id"), 10, 32)

	file, err := h.datasetService.DownloadFile(uint(fileID), userID)
	if err != nil {
		utils.NotFound(c, "文件不存在")
		return
	}

	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(file.Filename))
	c.Data(200, "application/json", file.FileContent)
}

// DownloadFileAsJSONL 以JSONL格式下载样本文件
func (h *DatasetHandler) DownloadFileAsJSONL(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	fileID, _ := strconv.ParseUint(c.Param("file_id"), 10, 32)

	content, filename, err := h.datasetService.DownloadFileAsJSONL(uint(fileID), userID)
	if err != nil {
		utils.NotFound(c, err.Error())
		return
	}

	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(200, "application/jsonl", content)
}
