package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/savalagikadappa/infosys/internal/dto"
	"github.com/savalagikadappa/infosys/internal/service"
	"github.com/savalagikadappa/infosys/pkg/response"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportExams 导出考试安排
// GET /api/v1/export/exams?from=2025-02-01&to=2025-02-28
func (h *ExportHandler) ExportExams(c *gin.Context) {
	var req dto.ExportExamsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		writeBindError(c, err)
		return
	}

	buf, filename, err := h.exportSvc.ExportAllocations(c.Request.Context(), req.From, req.To)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	// 设置下载响应头
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportInvalidRange):
		response.BadRequest(c, 16101, "结束日期不能早于开始日期")
	case errors.Is(err, service.ErrExportRangeTooLong):
		response.BadRequest(c, 16102, "导出区间不能超过 366 天")
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	default:
		writeExamError(c, err)
	}
}
