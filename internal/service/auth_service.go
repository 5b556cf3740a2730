package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"go.uber.org/zap"

	"gradelink/backend/config"
	"gradelink/backend/internal/dto"
	"gradelink/backend/pkg/jwt"
)

// ── 认证模块业务错误 ──

var (
	ErrInvalidAPIKey = errors.New("API Key 无效")
)

// AuthService 认证业务接口
// API Key 由运维在配置中下发（key → 角色），换取短期 JWT 访问 Token
type AuthService interface {
	Token(ctx context.Context, req *dto.TokenRequest) (*dto.TokenResponse, error)
}

type authService struct {
	cfg    *config.Config
	jwtMgr *jwt.Manager
	logger *zap.Logger
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(cfg *config.Config, jwtMgr *jwt.Manager, logger *zap.Logger) AuthService {
	return &authService{cfg: cfg, jwtMgr: jwtMgr, logger: logger}
}

func (s *authService) Token(_ context.Context, req *dto.TokenRequest) (*dto.TokenResponse, error) {
	role, ok := s.cfg.Auth.APIKeys[req.APIKey]
	if !ok {
		return nil, ErrInvalidAPIKey
	}

	// 客户端标识取 Key 摘要前缀，避免把原始 Key 写进 Token 和日志
	sum := sha256.Sum256([]byte(req.APIKey))
	clientID := hex.EncodeToString(sum[:])[:12]

	token, err := s.jwtMgr.GenerateToken(clientID, role)
	if err != nil {
		s.logger.Error("签发 Token 失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("Token 已签发", zap.String("client_id", clientID), zap.String("role", role))

	return &dto.TokenResponse{
		Token:     token,
		Role:      role,
		ExpiresIn: int64(s.cfg.Auth.TokenTTL.Seconds()),
	}, nil
}
