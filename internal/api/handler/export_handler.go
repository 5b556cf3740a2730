package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"gradelink/backend/internal/dto"
	"gradelink/backend/internal/service"
	"gradelink/backend/pkg/response"
)

// ExportHandler 成绩导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// GetCompleteGrades 取一页就绪成绩
// GET /api/v1/export/grades?range=new&rangeparam=0&limit=1000&lastid=0&stealth=false
// 外部 SMS 轮询接口：畸形参数按默认值处理而不报错，避免打断对方的轮询
func (h *ExportHandler) GetCompleteGrades(c *gin.Context) {
	q := &dto.ExportQuery{
		Range: c.DefaultQuery("range", "new"),
	}
	q.RangeParam, _ = strconv.ParseInt(c.Query("rangeparam"), 10, 64)
	q.Limit, _ = strconv.Atoi(c.Query("limit"))
	q.LastID, _ = strconv.ParseInt(c.Query("lastid"), 10, 64)
	q.Stealth, _ = strconv.ParseBool(c.Query("stealth"))

	result, err := h.exportSvc.FetchBatch(c.Request.Context(), q)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}
