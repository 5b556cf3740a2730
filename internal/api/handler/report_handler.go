package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"gradelink/backend/internal/dto"
	"gradelink/backend/internal/service"
	"gradelink/backend/pkg/response"
)

// ReportHandler 管理报表模块 HTTP 处理器
type ReportHandler struct {
	reportSvc   service.ReportService
	transferSvc service.TransferService
}

// NewReportHandler 创建 ReportHandler
func NewReportHandler(reportSvc service.ReportService, transferSvc service.TransferService) *ReportHandler {
	return &ReportHandler{reportSvc: reportSvc, transferSvc: transferSvc}
}

// parseQuery 解析报表筛选参数，畸形值忽略（交给 Service 层补默认）
func parseReportQuery(c *gin.Context) *dto.ReportQuery {
	q := &dto.ReportQuery{}
	if raw := c.Query("status"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			q.Status = &v
		}
	}
	q.From, _ = strconv.ParseInt(c.Query("from"), 10, 64)
	q.To, _ = strconv.ParseInt(c.Query("to"), 10, 64)
	q.Page, _ = strconv.Atoi(c.Query("page"))
	q.PageSize, _ = strconv.Atoi(c.Query("page_size"))
	return q
}

// List 分页查询报表
// GET /api/v1/admin/report?status=&from=&to=&page=&page_size=
func (h *ReportHandler) List(c *gin.Context) {
	q := parseReportQuery(c)

	rows, total, err := h.reportSvc.List(c.Request.Context(), q)
	if err != nil {
		response.InternalError(c)
		return
	}

	page := q.Page
	if page <= 0 {
		page = 1
	}
	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = len(rows)
		if pageSize == 0 {
			pageSize = 1
		}
	}
	response.OKPage(c, rows, total, page, pageSize)
}

// Export 报表 Excel 下载
// GET /api/v1/admin/report/export
func (h *ReportHandler) Export(c *gin.Context) {
	q := parseReportQuery(c)

	buf, filename, err := h.reportSvc.ExportXLSX(c.Request.Context(), q)
	if err != nil {
		if errors.Is(err, service.ErrReportGenerateFail) {
			response.InternalError(c)
			return
		}
		response.InternalError(c)
		return
	}

	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// BulkSetStatus 批量改状态（管理逃生通道）
// PUT /api/v1/admin/report/status
func (h *ReportHandler) BulkSetStatus(c *gin.Context) {
	var req dto.BulkSetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.transferSvc.BulkSetStatus(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidBulkStatus) {
			response.BadRequest(c, 13001, "状态码不合法")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}
