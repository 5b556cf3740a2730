package service

import (
	"go.uber.org/zap"

	"gradelink/backend/config"
	"gradelink/backend/internal/repository"
	"gradelink/backend/pkg/jwt"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth      AuthService
	Readiness ReadinessService
	Transfer  TransferService
	Export    ExportService
	Report    ReportService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	audit AuditSink,
	logger *zap.Logger,
) *Service {
	readiness := NewReadinessService(repo, logger)
	transfer := NewTransferService(repo, readiness, audit, logger)
	return &Service{
		Auth:      NewAuthService(cfg, jwtMgr, logger),
		Readiness: readiness,
		Transfer:  transfer,
		Export:    NewExportService(cfg, repo, audit, logger),
		Report:    NewReportService(cfg, repo, audit, logger),
	}
}
