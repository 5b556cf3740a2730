package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"gradelink/backend/internal/dto"
	"gradelink/backend/internal/model"
	"gradelink/backend/internal/repository"
)

// ── 传输状态模块业务错误 ──

var (
	ErrInvalidBulkStatus = errors.New("批量设置的状态码不合法")
)

// progCodePattern SMS 课程方案编码格式，类别总评项的 idnumber 必须匹配才会被跟踪
var progCodePattern = regexp.MustCompile(`^[A-Z]{5}\d{3}`)

// TransferService 传输状态业务接口
//
// 设计说明：
//   - 每条写入都是按 grade_id 的行级 upsert，单条原子，无应用层锁
//   - 批量操作逐条独立提交，单条失败不回滚其余
type TransferService interface {
	// HandleUserGraded 消费宿主系统的成绩变更事件
	// 仅类别总评项且 idnumber 匹配编码格式时才评估，返回是否实际处理
	HandleUserGraded(ctx context.Context, event *dto.UserGradedEvent) (bool, error)
	// ToggleStatus 手动在 READY / NOT_READY 间切换，记录不存在则创建为 READY
	ToggleStatus(ctx context.Context, gradeID int64) error
	// BulkSetStatus 管理后台批量改状态，跳过状态机检查（逃生通道），记审计
	BulkSetStatus(ctx context.Context, req *dto.BulkSetStatusRequest) (*dto.BulkSetStatusResponse, error)
}

type transferService struct {
	repo      *repository.Repository
	readiness ReadinessService
	audit     AuditSink
	logger    *zap.Logger
}

// NewTransferService 创建 TransferService 实例
func NewTransferService(repo *repository.Repository, readiness ReadinessService, audit AuditSink, logger *zap.Logger) TransferService {
	return &transferService{repo: repo, readiness: readiness, audit: audit, logger: logger}
}

// ────────────────────── HandleUserGraded ──────────────────────

func (s *transferService) HandleUserGraded(ctx context.Context, event *dto.UserGradedEvent) (bool, error) {
	item, err := s.repo.GradeSource.GetGradeItem(ctx, event.ItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		s.logger.Error("查询成绩项失败", zap.Int64("item_id", event.ItemID), zap.Error(err))
		return false, err
	}

	// 只跟踪编码格式匹配的类别总评项
	if !item.IsCategoryItem() || !progCodePattern.MatchString(item.IDNumber) {
		return false, nil
	}

	ready, err := s.readiness.Evaluate(ctx, item, event.RelatedUserID)
	if err != nil {
		s.logger.Error("就绪评估失败",
			zap.Int64("item_id", item.ID),
			zap.Int64("user_id", event.RelatedUserID),
			zap.Error(err),
		)
		return false, err
	}

	prev := model.StatusMissing
	record, err := s.repo.TransferRecord.GetByGradeID(ctx, event.GradeRecordID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	if record != nil {
		prev = record.Status
	}

	next := model.NextOnEvaluate(prev, ready)
	if err := s.repo.TransferRecord.Upsert(ctx, event.GradeRecordID, next, time.Now().Unix()); err != nil {
		s.logger.Error("写入传输状态失败", zap.Int64("grade_id", event.GradeRecordID), zap.Error(err))
		return false, err
	}

	s.logger.Info("成绩传输状态已更新",
		zap.Int64("grade_id", event.GradeRecordID),
		zap.String("prev", prev.String()),
		zap.String("next", next.String()),
	)
	return true, nil
}

// ────────────────────── ToggleStatus ──────────────────────

func (s *transferService) ToggleStatus(ctx context.Context, gradeID int64) error {
	now := time.Now().Unix()

	record, err := s.repo.TransferRecord.GetByGradeID(ctx, gradeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 记录不存在不是错误：首次手动标记即创建为 READY
			return s.repo.TransferRecord.Upsert(ctx, gradeID, model.StatusReady, now)
		}
		return err
	}

	next, err := model.NextOnToggle(record.Status)
	if err != nil {
		return err
	}
	return s.repo.TransferRecord.Upsert(ctx, gradeID, next, now)
}

// ────────────────────── BulkSetStatus ──────────────────────

func (s *transferService) BulkSetStatus(ctx context.Context, req *dto.BulkSetStatusRequest) (*dto.BulkSetStatusResponse, error) {
	status := model.Status(req.Status)
	if !status.Valid() {
		return nil, ErrInvalidBulkStatus
	}

	now := time.Now().Unix()
	resp := &dto.BulkSetStatusResponse{}
	ids := make([]string, 0, len(req.GradeIDs))

	for _, gradeID := range req.GradeIDs {
		if err := s.repo.TransferRecord.Upsert(ctx, gradeID, status, now); err != nil {
			s.logger.Error("批量改状态单条失败", zap.Int64("grade_id", gradeID), zap.Error(err))
			resp.Failed = append(resp.Failed, gradeID)
			continue
		}
		resp.Updated++
		ids = append(ids, fmt.Sprintf("%d", gradeID))
	}

	s.logger.Info("批量改状态完成",
		zap.Int("updated", resp.Updated),
		zap.Int("failed", len(resp.Failed)),
		zap.String("status", status.String()),
	)
	if s.audit != nil {
		s.audit.PublishAudit(ctx, AuditBulkStatusChanged, map[string]interface{}{
			"items":  strings.Join(ids, ", "),
			"status": status.String(),
		})
	}

	return resp, nil
}
