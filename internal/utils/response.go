package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 统一响应格式
type Response struct {
	Code    int         `json:"code"`
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// PageMeta 分页元信息
type PageMeta struct {
	Total   int64 `json:"total"`
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Pages   int   `json:"pages"`
}

// PaginationResponse 分页响应
type PaginationResponse struct {
	Response
	Pagination PageMeta `json:"pagination"`
}

func writeResponse(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Response{
		Code:    status,
		Success: status < http.StatusBadRequest,
		Message: message,
		Data:    data,
	})
}

// SuccessResponse 成功响应
func SuccessResponse(c *gin.Context, data interface{}) {
	writeResponse(c, http.StatusOK, "成功", data)
}

// SuccessWithMessage 成功响应(带消息)
func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	writeResponse(c, http.StatusOK, message, data)
}

// ErrorResponse 错误响应
func ErrorResponse(c *gin.Context, code int, message string) {
	writeResponse(c, code, message, nil)
}

// BadRequest 400错误
func BadRequest(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusBadRequest, message)
}

// Unauthorized 401错误
func Unauthorized(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusUnauthorized, message)
}

// Forbidden 403错误
func Forbidden(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusForbidden, message)
}

// NotFound 404错误
func NotFound(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusNotFound, message)
}

// InternalError 500错误
func InternalError(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusInternalServerError, message)
}

// PaginatedResponse 分页响应
func PaginatedResponse(c *gin.Context, data interface{}, total int64, page int, perPage int) {
	pages := 0
	if perPage > 0 {
		pages = int((total + int64(perPage) - 1) / int64(perPage))
	}
	c.JSON(http.StatusOK, PaginationResponse{
		Response: Response{
			Code:    http.StatusOK,
			Success: true,
			Message: "成功",
			Data:    data,
		},
		Pagination: PageMeta{
			Total:   total,
			Page:    page,
			PerPage: perPage,
			Pages:   pages,
		},
	})
}
