package jwt

import (
	"testing"
	"time"

	"gradelink/backend/config"
)

func newTestManager(ttl time.Duration) *Manager {
	return NewManager(&config.AuthConfig{
		JWTSecret: "test-secret-key-at-least-16-chars",
		TokenTTL:  ttl,
	})
}

func TestManager_GenerateAndParse(t *testing.T) {
	mgr := newTestManager(time.Hour)

	token, err := mgr.GenerateToken("sms-client-1", "sms")
	if err != nil {
		t.Fatalf("GenerateToken 应成功: %v", err)
	}

	claims, err := mgr.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken 应成功: %v", err)
	}
	if claims.ClientID != "sms-client-1" {
		t.Errorf("期望ClientID=sms-client-1，实际=%s", claims.ClientID)
	}
	if claims.Role != "sms" {
		t.Errorf("期望Role=sms，实际=%s", claims.Role)
	}
	if claims.ID == "" {
		t.Error("期望生成非空 jti")
	}
}

func TestManager_ParseExpired(t *testing.T) {
	mgr := newTestManager(-time.Minute)

	token, err := mgr.GenerateToken("admin-1", "admin")
	if err != nil {
		t.Fatalf("GenerateToken 应成功: %v", err)
	}

	if _, err := mgr.ParseToken(token); err != ErrTokenExpired {
		t.Errorf("期望 ErrTokenExpired，实际: %v", err)
	}
}

func TestManager_ParseTampered(t *testing.T) {
	mgr := newTestManager(time.Hour)
	other := NewManager(&config.AuthConfig{
		JWTSecret: "another-secret-key-16-chars-long",
		TokenTTL:  time.Hour,
	})

	token, err := other.GenerateToken("admin-1", "admin")
	if err != nil {
		t.Fatalf("GenerateToken 应成功: %v", err)
	}

	if _, err := mgr.ParseToken(token); err != ErrTokenInvalid {
		t.Errorf("期望 ErrTokenInvalid，实际: %v", err)
	}
}
