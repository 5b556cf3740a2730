package dto

// ── 认证模块 DTO ──

// TokenRequest API Key 换取访问 Token
type TokenRequest struct {
	APIKey string `json:"api_key" binding:"required"`
}

// TokenResponse 签发的访问 Token
type TokenResponse struct {
	Token     string `json:"token"`
	Role      string `json:"role"`
	ExpiresIn int64  `json:"expires_in"` // 秒
}
