package handler

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"

	"sft-go/internal/dto"
	"sft-go/internal/middleware"
	"sft-go/internal/service"
	"sft-go/internal/utils"

	"github.com/gin-gonic/gin"
)

// TaskHandler 微调任务处理器
type TaskHandler struct {
	taskManager *service.FineTuneManager
}

// NewTaskHandler 创建微调任务处理器
func NewTaskHandler(taskManager *service.FineTuneManager) *TaskHandler {
	return &TaskHandler{
		taskManager: taskManager,
	}
}

// StartTask 启动微调任务
func (h *TaskHandler) StartTask(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req dto.StartFineTuneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	resp, err := h.taskManager.StartFineTune(userID, &req)
	if err != nil {
		utils.InternalError(c, err.Error())
		return
	}

	utils.SuccessWithMessage(c, "任务已启动", resp)
}

// GetProgress 获取任务进度(SSE)
func (h *TaskHandler) GetProgress(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	taskID := c.Param("task_id")

	progressChan, history, unsubscribe, err := h.taskManager.GetProgress(taskID, userID)
	if err != nil {
		utils.NotFound(c, err.Error())
		return
	}
	defer unsubscribe() // 确保断开连接时取消订阅

	// 设置SSE响应头
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Header("Access-Control-Allow-Origin", "*")

	// 发送初始连接成功事件
	initEvent := map[string]interface{}{
		"type":    "connected",
		"message": "SSE连接已建立",
		"task_id": taskID,
	}
	initData, _ := json.Marshal(initEvent)
	fmt.Fprintf(c.Writer, "data: %s\n\n", string(initData))
	c.Writer.Flush()

	// 先发送历史事件
	finishedInHistory := false
	for _, event := range history {
		data, _ := json.Marshal(event)
		fmt.Fprintf(c.Writer, "data: %s\n\n", string(data))
		c.Writer.Flush()
		if event.Type == "finished" || event.Type == "error" {
			finishedInHistory = true
		}
	}

	// 历史事件中已经包含结束事件，直接返回
	if finishedInHistory {
		return
	}

	// 使用 context 来处理客户端断开连接
	ctx := c.Request.Context()

	for {
		select {
		case <-ctx.Done():
			log.Printf("[GetProgress] 客户端断开连接: %s", taskID)
			return
		case event, ok := <-progressChan:
			if !ok {
				return
			}
			data, _ := json.Marshal(event)
			fmt.Fprintf(c.Writer, "data: %s\n\n", string(data))
			c.Writer.Flush()

			if event.Type == "finished" || event.Type == "error" {
				return
			}
		}
	}
}

// GetTaskStatus 获取任务状态
func (h *TaskHandler) GetTaskStatus(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	taskID := c.Param("task_id")

	status, err := h.taskManager.GetTaskStatus(taskID, userID)
	if err != nil {
		utils.NotFound(c, err.Error())
		return
	}

	utils.SuccessResponse(c, status)
}

// ListTasks 获取任务列表
func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))

	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	result, err := h.taskManager.GetUserTasks(userID, page, perPage)
	if err != nil {
		utils.InternalError(c, err.Error())
		return
	}

	utils.SuccessResponse(c, result)
}

// GetActiveTask 获取运行中的任务
func (h *TaskHandler) GetActiveTask(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	task, err := h.taskManager.GetActiveTask(userID)
	if err != nil {
		utils.SuccessResponse(c, gin.H{"active": false})
		return
	}

	utils.SuccessResponse(c, gin.H{
		"active": true,
		"task":   task,
	})
}

// StopTask 停止任务
func (h *TaskHandler) StopTask(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	taskID := c.Param("task_id")

	log.Printf("[StopTask Handler] 收到停止任务请求: taskID=%s, userID=%d", taskID, userID)

	if err := h.taskManager.StopTask(taskID, userID); err != nil {
		utils.InternalError(c, err.Error())
		return
	}

	utils.SuccessWithMessage(c, "任务已停止", gin.H{
		"success": true,
	})
}

// DeleteTask 删除任务
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	taskID := c.Param("task_id")

	if err := h.taskManager.DeleteTask(taskID, userID); err != nil {
		utils.InternalError(c, err.Error())
		return
	}

	utils.SuccessWithMessage(c, "任务已删除", nil)
}

// InternalProgress 训练服务进度回调(内部接口)
// 允许训练服务主动推送进度事件，补充轮询获取的状态
func (h *TaskHandler) InternalProgress(c *gin.Context) {
	taskID := c.Param("task_id")

	var event dto.ProgressEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	taskCtx, ok := h.taskManager.GetTaskContext(taskID)
	if !ok {
		utils.NotFound(c, "任务不存在或已结束")
		return
	}

	taskCtx.AddEvent(&event)
	utils.SuccessResponse(c, gin.H{"accepted": true})
}
