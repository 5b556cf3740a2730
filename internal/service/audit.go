package service

import "context"

// ── 审计事件 ──

// 审计事件名
const (
	AuditReportViewed      = "report_viewed"
	AuditBulkStatusChanged = "bulk_status_changed"
	AuditGradesRetrieved   = "grades_retrieved"
)

// AuditSink 审计事件出口
// fire-and-forget：实现方不得阻塞业务路径，也不返回错误
// 由 pkg/redis.Client 实现（Redis Stream）；Sink 为 nil 时仅记日志
type AuditSink interface {
	PublishAudit(ctx context.Context, event string, fields map[string]interface{})
}
