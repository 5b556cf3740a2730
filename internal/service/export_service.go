package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"gradelink/backend/config"
	"gradelink/backend/internal/dto"
	"gradelink/backend/internal/model"
	"gradelink/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportStorage = errors.New("导出批次状态写入失败")
)

// 导出行身份字段校验
var (
	studentIDPattern  = regexp.MustCompile(`^\d+$`)
	courseCodePattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)
)

const (
	rangeNew   = "new"
	rangeLast  = "last"
	rangeSince = "since"

	defaultRangeParam = 86400
)

// ExportService 成绩导出（SMS 拉取）业务接口
//
// 设计说明：
//   - 游标协议无服务端会话：续传状态全部编码在 nextquery 中由调用方回传
//   - 排序键为 (time_modified, grade_id) 复合升序；多条记录可能共享同一时间戳，
//     缺少 id 决胜键时页边界不确定，会漏发或重发
//   - 服务端按时间下限查询后，在应用侧丢弃"同一时间戳桶内 id 不大于游标"的记录
//   - 整批 READY/MODIFIED → SENT 的置位在单事务内提交；调用方重试是安全的，
//     因为未提交时过滤条件仍能看到这些记录（至少一次交付，消费方负责去重）
//   - 并发拉取之间没有互斥，重复交付是预期行为
type ExportService interface {
	// FetchBatch 取一页就绪成绩并（非 stealth 时）推进 SENT
	FetchBatch(ctx context.Context, q *dto.ExportQuery) (*dto.ExportResponse, error)
}

type exportService struct {
	cfg    *config.Config
	repo   *repository.Repository
	audit  AuditSink
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(cfg *config.Config, repo *repository.Repository, audit AuditSink, logger *zap.Logger) ExportService {
	return &exportService{cfg: cfg, repo: repo, audit: audit, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// FetchBatch — 游标分页取批
// ═══════════════════════════════════════════════════════════

func (s *exportService) FetchBatch(ctx context.Context, q *dto.ExportQuery) (*dto.ExportResponse, error) {
	s.normalize(q)

	// 课程白名单配置损坏时降级为"返回空集加警告"，不硬失败
	allowed := s.cfg.Export.SanitizedAllowedCourses()
	if len(s.cfg.Export.AllowedCourses) > 0 && len(allowed) == 0 {
		s.emitAudit(ctx, 0, 0)
		return &dto.ExportResponse{
			Grades: []dto.ExportGrade{},
			Errors: "course allow-list configuration is invalid; no records returned",
		}, nil
	}

	statuses, floor := s.rangeFilter(q)

	rows, hasMore, err := s.scan(ctx, statuses, floor, q.LastID, allowed, q.Limit)
	if err != nil {
		s.logger.Error("导出扫描失败", zap.Error(err))
		return nil, err
	}

	now := time.Now().Unix()
	resp := &dto.ExportResponse{Grades: []dto.ExportGrade{}}
	var diags []string
	var sentIDs []int64
	scales := make(map[int64]*model.Scale)

	for i := range rows {
		row := &rows[i]
		grade, reason := s.formatRow(ctx, row, scales)
		if reason != "" {
			// 身份数据损坏：标记 ERROR、从本页剔除、收集诊断，不中断批次
			if err := s.repo.TransferRecord.Upsert(ctx, row.GradeID, model.StatusError, now); err != nil {
				s.logger.Error("标记 ERROR 失败", zap.Int64("grade_id", row.GradeID), zap.Error(err))
			}
			diags = append(diags, fmt.Sprintf("grade %d: %s", row.GradeID, reason))
			continue
		}
		resp.Grades = append(resp.Grades, *grade)
		if row.Status == model.StatusReady || row.Status == model.StatusModified {
			sentIDs = append(sentIDs, row.GradeID)
		}
	}

	if !q.Stealth && len(sentIDs) > 0 {
		if err := s.repo.TransferRecord.MarkSent(ctx, sentIDs, now); err != nil {
			s.logger.Error("批量置 SENT 失败", zap.Int("count", len(sentIDs)), zap.Error(err))
			return nil, ErrExportStorage
		}
	}

	resp.Errors = strings.Join(diags, "; ")
	resp.Pagination = s.paginate(ctx, q, statuses, floor, allowed, rows, hasMore)

	s.emitAudit(ctx, len(resp.Grades), len(diags))
	return resp, nil
}

// normalize 填充默认值并容忍畸形参数（过滤参数不合法时退回默认，不报错）
func (s *exportService) normalize(q *dto.ExportQuery) {
	switch q.Range {
	case rangeNew, rangeLast, rangeSince:
	default:
		q.Range = rangeNew
	}
	if q.RangeParam < 0 {
		q.RangeParam = 0
	}
	if q.Range == rangeLast && q.RangeParam == 0 {
		q.RangeParam = defaultRangeParam
	}
	if q.Limit <= 0 {
		q.Limit = s.cfg.Export.DefaultLimit
	}
	if q.Limit > s.cfg.Export.MaxLimit {
		q.Limit = s.cfg.Export.MaxLimit
	}
	if q.LastID < 0 {
		q.LastID = 0
	}
}

// rangeFilter 解析 range 关键字为状态集合和时间下限
// new：未发送的记录（READY ∪ MODIFIED），rangeparam 为续传下限（首次为 0）
// last：最近 rangeparam 秒内变动的记录
// since：自绝对时间戳 rangeparam 起变动的记录
func (s *exportService) rangeFilter(q *dto.ExportQuery) ([]model.Status, int64) {
	switch q.Range {
	case rangeLast:
		return []model.Status{model.StatusReady, model.StatusSent, model.StatusModified},
			time.Now().Unix() - q.RangeParam
	case rangeSince:
		return []model.Status{model.StatusReady, model.StatusSent, model.StatusModified}, q.RangeParam
	default:
		return []model.Status{model.StatusReady, model.StatusModified}, q.RangeParam
	}
}

// scan 从时间下限起扫描并在应用侧丢弃同时间戳桶内已交付的记录
// 多取一条用于判断是否还有后续页
//
// 已交付的记录 (time_modified == floor 且 grade_id <= lastID) 在升序结果里
// 必然是一段连续前缀，时间下限保持不动、靠 offset 前进即可保证终止
func (s *exportService) scan(ctx context.Context, statuses []model.Status, floor, lastID int64, allowed []string, limit int) ([]model.ExportRow, bool, error) {
	accepted := make([]model.ExportRow, 0, limit+1)
	fetchN := limit + 1
	offset := 0

	for {
		rows, err := s.repo.TransferRecord.ListExportRows(ctx, statuses, floor, allowed, offset, fetchN)
		if err != nil {
			return nil, false, err
		}

		for i := range rows {
			row := rows[i]
			// SQL 范围谓词表达不了"这个时间戳上只要 id 更大的"，在这里丢弃
			if row.TimeModified == floor && row.GradeID <= lastID {
				continue
			}
			accepted = append(accepted, row)
			if len(accepted) > limit {
				return accepted[:limit], true, nil
			}
		}

		if len(rows) < fetchN {
			// 源已扫完
			return accepted, false, nil
		}
		offset += len(rows)
	}
}

// formatRow 校验身份字段并生成展示值，reason 非空表示该行应标记 ERROR
func (s *exportService) formatRow(ctx context.Context, row *model.ExportRow, scales map[int64]*model.Scale) (*dto.ExportGrade, string) {
	studentID := row.StudentEmail
	if at := strings.Index(studentID, "@"); at >= 0 {
		studentID = studentID[:at]
	}
	if !studentIDPattern.MatchString(studentID) {
		return nil, fmt.Sprintf("student id fragment %q is not numeric", studentID)
	}
	if !progCodePattern.MatchString(row.ProgCode) {
		return nil, fmt.Sprintf("programme code %q does not match the expected format", row.ProgCode)
	}
	if row.CourseCode == "" || !courseCodePattern.MatchString(row.CourseCode) {
		return nil, fmt.Sprintf("course code %q is not alphanumeric", row.CourseCode)
	}
	if row.EventDate == 0 {
		return nil, "event date is empty"
	}

	grade, reason := s.formatGrade(ctx, row, scales)
	if reason != "" {
		return nil, reason
	}
	if grade == "" {
		return nil, "grade is empty"
	}

	return &dto.ExportGrade{
		TauiraID:   studentID,
		ProgCode:   row.ProgCode,
		ClassID:    row.ClassID,
		CourseCode: row.CourseCode,
		Grade:      grade,
		EventDate:  time.Unix(row.EventDate, 0).Format("2006-01-02 15:04:05"),
	}, ""
}

// formatGrade 生成成绩展示值
// 数值型归一化为百分制 100*finalgrade/grademax；量表型按 1 起始序号取档位文本
func (s *exportService) formatGrade(ctx context.Context, row *model.ExportRow, scales map[int64]*model.Scale) (string, string) {
	if row.FinalGrade == nil {
		return "", "final grade is empty"
	}

	if row.GradeType == model.GradeTypeScale {
		if row.ScaleID == nil {
			return "", "scale grade without a scale"
		}
		scale, ok := scales[*row.ScaleID]
		if !ok {
			var err error
			scale, err = s.repo.GradeSource.GetScale(ctx, *row.ScaleID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return "", fmt.Sprintf("scale %d not found", *row.ScaleID)
				}
				return "", fmt.Sprintf("scale lookup failed: %v", err)
			}
			scales[*row.ScaleID] = scale
		}
		label := scale.Label(int(*row.FinalGrade))
		if label == "" {
			return "", fmt.Sprintf("scale %d has no entry %d", *row.ScaleID, int(*row.FinalGrade))
		}
		return label, ""
	}

	if row.GradeMax <= 0 {
		return "", "grade max is not set"
	}
	return strconv.FormatFloat(100*(*row.FinalGrade)/row.GradeMax, 'f', 2, 64), ""
}

// paginate 计算分页元数据和续传串
func (s *exportService) paginate(ctx context.Context, q *dto.ExportQuery, statuses []model.Status, floor int64, allowed []string, rows []model.ExportRow, hasMore bool) dto.ExportPagination {
	p := dto.ExportPagination{
		Size:   len(rows),
		LastID: q.LastID,
	}

	total, err := s.repo.TransferRecord.CountExportRows(ctx, statuses, floor, allowed)
	if err != nil {
		s.logger.Warn("统计导出总数失败", zap.Error(err))
	} else if q.Limit > 0 {
		p.Pages = int((total + int64(q.Limit) - 1) / int64(q.Limit))
	}

	if len(rows) > 0 {
		p.LastID = rows[len(rows)-1].GradeID
	}

	if hasMore && len(rows) > 0 {
		last := rows[len(rows)-1]
		// last 模式的续传下限是绝对时间戳，切换为 since 表达
		nextRange := q.Range
		if nextRange == rangeLast {
			nextRange = rangeSince
		}
		values := url.Values{}
		values.Set("range", nextRange)
		values.Set("rangeparam", strconv.FormatInt(last.TimeModified, 10))
		values.Set("limit", strconv.Itoa(q.Limit))
		values.Set("lastid", strconv.FormatInt(last.GradeID, 10))
		values.Set("stealth", strconv.FormatBool(q.Stealth))
		p.NextQuery = values.Encode()
	}

	return p
}

// emitAudit 每次调用（无论是否命中记录）发一条检索审计事件
func (s *exportService) emitAudit(ctx context.Context, success, skipped int) {
	s.logger.Info("成绩检索完成", zap.Int("success", success), zap.Int("skipped", skipped))
	if s.audit != nil {
		s.audit.PublishAudit(ctx, AuditGradesRetrieved, map[string]interface{}{
			"success": success,
			"skipped": skipped,
		})
	}
}
