package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 统一响应信封；code 为 0 表示成功
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Details string      `json:"details,omitempty"`
	Kind    string      `json:"error_kind,omitempty"`
}

// Pagination 分页元数据
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// PageData 分页响应数据
type PageData struct {
	List       interface{} `json:"list"`
	Pagination Pagination  `json:"pagination"`
}

// NewPagination 根据总数计算总页数，pageSize 非正时视为单页
func NewPagination(total int64, page, pageSize int) Pagination {
	pages := 1
	if pageSize > 0 {
		pages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return Pagination{Page: page, PageSize: pageSize, Total: total, TotalPages: pages}
}

func success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{Message: "success", Data: data})
}

// OK 200
func OK(c *gin.Context, data interface{}) { success(c, http.StatusOK, data) }

// Created 201
func Created(c *gin.Context, data interface{}) { success(c, http.StatusCreated, data) }

// OKPage 200 分页列表
func OKPage(c *gin.Context, list interface{}, total int64, page, pageSize int) {
	success(c, http.StatusOK, PageData{List: list, Pagination: NewPagination(total, page, pageSize)})
}

// ── 错误 ──

// Error 不带错误类型的失败响应
func Error(c *gin.Context, httpStatus, code int, message string) {
	c.JSON(httpStatus, Response{Code: code, Message: message})
}

// Fail 业务拒绝，kind 为稳定的机器可读错误类型
func Fail(c *gin.Context, httpStatus, code int, kind, message, details string) {
	c.JSON(httpStatus, Response{Code: code, Message: message, Details: details, Kind: kind})
}

func BadRequest(c *gin.Context, code int, message string) {
	Error(c, http.StatusBadRequest, code, message)
}

func Unauthorized(c *gin.Context, code int, message string) {
	Error(c, http.StatusUnauthorized, code, message)
}

func Forbidden(c *gin.Context, code int, message string) {
	Error(c, http.StatusForbidden, code, message)
}

func NotFound(c *gin.Context, code int, message string) {
	Error(c, http.StatusNotFound, code, message)
}

func Conflict(c *gin.Context, code int, message string) {
	Error(c, http.StatusConflict, code, message)
}

// InternalError 500，细节只进日志
func InternalError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, 50000, "服务器内部错误")
}

// ServiceUnavailable 503 存储暂不可用，客户端可重试
func ServiceUnavailable(c *gin.Context) {
	Fail(c, http.StatusServiceUnavailable, 50300, "StoreUnavailable", "服务暂不可用，请稍后重试", "")
}
