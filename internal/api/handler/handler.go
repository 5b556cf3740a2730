package handler

import "gradelink/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth     *AuthHandler
	Export   *ExportHandler
	Transfer *TransferHandler
	Report   *ReportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:     NewAuthHandler(svc.Auth),
		Export:   NewExportHandler(svc.Export),
		Transfer: NewTransferHandler(svc.Transfer),
		Report:   NewReportHandler(svc.Report, svc.Transfer),
	}
}
