package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"gradelink/backend/config"
	"gradelink/backend/internal/dto"
	"gradelink/backend/pkg/jwt"
)

func newAuthFixture() AuthService {
	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret: "unit-test-secret-0123456789",
			TokenTTL:  time.Hour,
			APIKeys: map[string]string{
				"sms-key-aaa":   "sms",
				"admin-key-bbb": "admin",
			},
		},
	}
	jwtMgr := jwt.NewManager(&cfg.Auth)
	return NewAuthService(cfg, jwtMgr, zap.NewNop())
}

func TestAuth_Token_IssuesRoleFromAPIKey(t *testing.T) {
	svc := newAuthFixture()

	resp, err := svc.Token(context.Background(), &dto.TokenRequest{APIKey: "sms-key-aaa"})
	if err != nil {
		t.Fatalf("换取 Token 应成功: %v", err)
	}
	if resp.Role != "sms" {
		t.Errorf("角色应为 sms，实际 %q", resp.Role)
	}
	if resp.ExpiresIn != 3600 {
		t.Errorf("有效期应为 3600 秒，实际 %d", resp.ExpiresIn)
	}

	mgr := jwt.NewManager(&config.AuthConfig{JWTSecret: "unit-test-secret-0123456789", TokenTTL: time.Hour})
	claims, err := mgr.ParseToken(resp.Token)
	if err != nil {
		t.Fatalf("签发的 Token 应可解析: %v", err)
	}
	if claims.Role != "sms" {
		t.Errorf("Token 内角色应为 sms，实际 %q", claims.Role)
	}
	// 客户端标识是 Key 摘要前缀，不应泄露原始 Key
	if claims.ClientID == "sms-key-aaa" || len(claims.ClientID) != 12 {
		t.Errorf("客户端标识应为 12 位摘要前缀，实际 %q", claims.ClientID)
	}
}

func TestAuth_Token_RejectsUnknownKey(t *testing.T) {
	svc := newAuthFixture()

	_, err := svc.Token(context.Background(), &dto.TokenRequest{APIKey: "nope"})
	if !errors.Is(err, ErrInvalidAPIKey) {
		t.Fatalf("期望 ErrInvalidAPIKey，实际: %v", err)
	}
}
