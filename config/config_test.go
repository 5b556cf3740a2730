package config

import (
	"reflect"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080},
		Auth: AuthConfig{
			JWTSecret: "unit-test-secret-0123456789",
			TokenTTL:  time.Hour,
			APIKeys:   map[string]string{"k1": "admin", "k2": "sms"},
		},
		Export: ExportConfig{DefaultLimit: 1000, MaxLimit: 5000},
	}
}

func TestConfig_Validate(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("合法配置不应校验失败: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"空密钥", func(c *Config) { c.Auth.JWTSecret = "" }},
		{"密钥过短", func(c *Config) { c.Auth.JWTSecret = "short" }},
		{"端口越界", func(c *Config) { c.Server.Port = 70000 }},
		{"未知角色", func(c *Config) { c.Auth.APIKeys["k3"] = "root" }},
		{"导出上限小于默认值", func(c *Config) { c.Export.MaxLimit = 10 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("期望校验失败")
			}
		})
	}
}

func TestExportConfig_SanitizedAllowedCourses(t *testing.T) {
	cfg := ExportConfig{AllowedCourses: []string{
		" C1 ",
		`'C2'`,
		`"C3"`,
		"%?",
		"",
	}}
	got := cfg.SanitizedAllowedCourses()
	want := []string{"C1", "C2", "C3"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("期望 %v，实际 %v", want, got)
	}
}
