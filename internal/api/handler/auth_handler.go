package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"gradelink/backend/internal/dto"
	"gradelink/backend/internal/service"
	"gradelink/backend/pkg/response"
)

// AuthHandler 认证模块 HTTP 处理器
type AuthHandler struct {
	authSvc service.AuthService
}

// NewAuthHandler 创建 AuthHandler
func NewAuthHandler(authSvc service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Token API Key 换取访问 Token
// POST /api/v1/auth/token
func (h *AuthHandler) Token(c *gin.Context) {
	var req dto.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	token, err := h.authSvc.Token(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidAPIKey) {
			response.Unauthorized(c, 11001, "API Key 无效")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, token)
}
