package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"gradelink/backend/internal/dto"
	"gradelink/backend/internal/service"
	pkgerrors "gradelink/backend/pkg/errors"
	"gradelink/backend/pkg/response"
)

// TransferHandler 传输状态模块 HTTP 处理器
type TransferHandler struct {
	transferSvc service.TransferService
}

// NewTransferHandler 创建 TransferHandler
func NewTransferHandler(transferSvc service.TransferService) *TransferHandler {
	return &TransferHandler{transferSvc: transferSvc}
}

// ToggleStatus 手动切换单条成绩的就绪状态
// POST /api/v1/transfers/:gradeid/toggle
func (h *TransferHandler) ToggleStatus(c *gin.Context) {
	gradeID, err := strconv.ParseInt(c.Param("gradeid"), 10, 64)
	if err != nil || gradeID <= 0 {
		response.BadRequest(c, 10001, "gradeid 不合法")
		return
	}

	if err := h.transferSvc.ToggleStatus(c.Request.Context(), gradeID); err != nil {
		if errors.Is(err, pkgerrors.ErrStatusSentLocked) {
			response.BadRequest(c, 12001, "成绩已发送，不能手动切换")
			return
		}
		// 存储失败按约定回 success:false
		c.JSON(500, gin.H{"success": false})
		return
	}

	response.OK(c, dto.ToggleStatusResponse{Success: true})
}

// HandleUserGraded 消费宿主系统的成绩变更事件
// POST /api/v1/events/user-graded
func (h *TransferHandler) HandleUserGraded(c *gin.Context) {
	var event dto.UserGradedEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	processed, err := h.transferSvc.HandleUserGraded(c.Request.Context(), &event)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"processed": processed})
}
