package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"gradelink/backend/config"
	"gradelink/backend/internal/dto"
	"gradelink/backend/internal/model"
	"gradelink/backend/internal/repository"
)

// ── 管理报表模块业务错误 ──

var (
	ErrReportGenerateFail = errors.New("生成报表 Excel 文件失败")
)

// ReportService 管理报表业务接口
//
// 设计说明：
//   - 按状态与修改时间范围过滤 transfer_records，连带成绩源的展示字段
//   - 畸形过滤参数一律退回默认值，报表接口面向轮询工具，不因输入错误而失败
//   - Excel 以 bytes.Buffer 返回，Handler 层设置下载响应头
type ReportService interface {
	// List 分页查询报表行
	List(ctx context.Context, q *dto.ReportQuery) ([]dto.ReportRow, int64, error)
	// ExportXLSX 按同样的过滤条件导出 Excel
	ExportXLSX(ctx context.Context, q *dto.ReportQuery) (*bytes.Buffer, string, error)
}

type reportService struct {
	cfg    *config.Config
	repo   *repository.Repository
	audit  AuditSink
	logger *zap.Logger
}

// NewReportService 创建 ReportService 实例
func NewReportService(cfg *config.Config, repo *repository.Repository, audit AuditSink, logger *zap.Logger) ReportService {
	return &reportService{cfg: cfg, repo: repo, audit: audit, logger: logger}
}

// normalize 填充筛选默认值：起始时间来自配置，截止默认当前，畸形值忽略
func (s *reportService) normalize(q *dto.ReportQuery) (status *model.Status, from, to int64, page, pageSize int) {
	from = q.From
	if from <= 0 {
		from = s.cfg.Report.FromDate
	}
	to = q.To
	if to <= 0 {
		to = time.Now().Unix()
	}
	page = q.Page
	if page <= 0 {
		page = 1
	}
	pageSize = q.PageSize
	if pageSize <= 0 {
		pageSize = s.cfg.Report.PageSize
	}
	if q.Status != nil {
		st := model.Status(*q.Status)
		if st.Valid() {
			status = &st
		}
		// 不合法的状态码忽略筛选而非报错
	}
	return status, from, to, page, pageSize
}

// ────────────────────── List ──────────────────────

func (s *reportService) List(ctx context.Context, q *dto.ReportQuery) ([]dto.ReportRow, int64, error) {
	status, from, to, page, pageSize := s.normalize(q)

	rows, total, err := s.repo.TransferRecord.ListReportRows(ctx, status, from, to, (page-1)*pageSize, pageSize)
	if err != nil {
		s.logger.Error("查询管理报表失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.ReportRow, 0, len(rows))
	for i := range rows {
		result = append(result, toReportRow(&rows[i]))
	}

	if s.audit != nil {
		s.audit.PublishAudit(ctx, AuditReportViewed, map[string]interface{}{
			"total": total,
		})
	}

	return result, total, nil
}

// ────────────────────── ExportXLSX ──────────────────────

func (s *reportService) ExportXLSX(ctx context.Context, q *dto.ReportQuery) (*bytes.Buffer, string, error) {
	status, from, to, _, _ := s.normalize(q)

	// 下载不分页，受一个宽上限保护
	rows, _, err := s.repo.TransferRecord.ListReportRows(ctx, status, from, to, 0, 100000)
	if err != nil {
		s.logger.Error("查询管理报表失败", zap.Error(err))
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Transfer report"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return nil, "", ErrReportGenerateFail
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headers := []string{"Grade ID", "Status", "Student", "Email", "Course", "Course code", "Grade", "Date graded", "Modified"}
	for col, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, "", ErrReportGenerateFail
		}
	}

	for i := range rows {
		row := toReportRow(&rows[i])
		values := []interface{}{
			row.GradeID, row.StatusText, row.StudentName, row.Email,
			row.CourseName, row.CourseCode, row.Grade, row.DateGraded, row.Modified,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, "", ErrReportGenerateFail
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		s.logger.Error("写出 Excel 失败", zap.Error(err))
		return nil, "", ErrReportGenerateFail
	}

	statusName := "all"
	if status != nil {
		statusName = status.String()
	}
	filename := fmt.Sprintf("gradelink-report-%s-%s.xlsx", statusName, time.Now().Format("20060102"))

	if s.audit != nil {
		s.audit.PublishAudit(ctx, AuditReportViewed, map[string]interface{}{
			"download": true,
			"rows":     len(rows),
		})
	}

	return buf, filename, nil
}

// toReportRow 跨表投影转报表 DTO
func toReportRow(row *model.ReportRow) dto.ReportRow {
	grade := "-"
	if row.FinalGrade != nil {
		grade = strconv.FormatFloat(*row.FinalGrade, 'f', 2, 64)
		if row.GradeMax > 0 {
			grade += " / " + strconv.FormatFloat(row.GradeMax, 'f', 0, 64)
		}
	}
	dateGraded := ""
	if row.EventDate > 0 {
		dateGraded = time.Unix(row.EventDate, 0).Format("2006/01/02")
	}
	return dto.ReportRow{
		GradeID:     row.GradeID,
		Status:      int(row.Status),
		StatusText:  row.Status.String(),
		StudentName: row.StudentName,
		Email:       row.StudentEmail,
		CourseName:  row.CourseName,
		CourseCode:  row.CourseCode,
		Grade:       grade,
		DateGraded:  dateGraded,
		Modified:    time.Unix(row.TimeModified, 0).Format("2006/01/02 15:04"),
	}
}
