package service

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"gradelink/backend/config"
	"gradelink/backend/internal/dto"
	"gradelink/backend/internal/model"
)

type reportFixture struct {
	tr    *mockTransferRecordRepo
	audit *mockAuditSink
	svc   ReportService
}

func newReportFixture() *reportFixture {
	cfg := &config.Config{Report: config.ReportConfig{FromDate: 0, PageSize: 50}}
	tr := newMockTransferRecordRepo()
	audit := &mockAuditSink{}
	return &reportFixture{
		tr:    tr,
		audit: audit,
		svc:   NewReportService(cfg, newTestRepository(tr, newMockGradeSourceRepo()), audit, zap.NewNop()),
	}
}

func reportRow(gradeID int64, status model.Status, ts int64) model.ReportRow {
	return model.ReportRow{
		GradeID:      gradeID,
		Status:       status,
		TimeModified: ts,
		StudentName:  "Aroha Ngata",
		StudentEmail: "1234@student.example.ac.nz",
		CourseName:   "Project Management",
		CourseCode:   "ICT501",
		FinalGrade:   f64(72.5),
		GradeMax:     100,
		EventDate:    1700000000,
	}
}

func TestReport_List_StatusFilter(t *testing.T) {
	fx := newReportFixture()
	fx.tr.reportRows = []model.ReportRow{
		reportRow(1, model.StatusSent, 100),
		reportRow(2, model.StatusReady, 200),
		reportRow(3, model.StatusSent, 300),
	}

	status := int(model.StatusSent)
	rows, total, err := fx.svc.List(context.Background(), &dto.ReportQuery{Status: &status})
	if err != nil {
		t.Fatalf("查询应成功: %v", err)
	}
	if total != 2 || len(rows) != 2 {
		t.Fatalf("期望 2 条 SENT 记录，实际 total=%d len=%d", total, len(rows))
	}
	// 按修改时间倒序
	if rows[0].GradeID != 3 || rows[1].GradeID != 1 {
		t.Errorf("报表应按修改时间倒序，实际 %d, %d", rows[0].GradeID, rows[1].GradeID)
	}
	if rows[0].StatusText != "sent" {
		t.Errorf("状态展示名应为 sent，实际 %q", rows[0].StatusText)
	}
	if rows[0].Grade != "72.50 / 100" {
		t.Errorf("成绩展示应为 72.50 / 100，实际 %q", rows[0].Grade)
	}

	if len(fx.audit.events) != 1 || fx.audit.events[0].event != AuditReportViewed {
		t.Errorf("报表查看应留审计，实际 %v", fx.audit.events)
	}
}

func TestReport_List_InvalidStatusIgnored(t *testing.T) {
	fx := newReportFixture()
	fx.tr.reportRows = []model.ReportRow{
		reportRow(1, model.StatusSent, 100),
		reportRow(2, model.StatusReady, 200),
	}

	bogus := 42
	rows, total, err := fx.svc.List(context.Background(), &dto.ReportQuery{Status: &bogus})
	if err != nil {
		t.Fatalf("不合法的状态码应忽略筛选而非报错: %v", err)
	}
	if total != 2 || len(rows) != 2 {
		t.Errorf("期望返回全部 2 条，实际 total=%d len=%d", total, len(rows))
	}
}

func TestReport_List_Paging(t *testing.T) {
	fx := newReportFixture()
	for i := int64(1); i <= 5; i++ {
		fx.tr.reportRows = append(fx.tr.reportRows, reportRow(i, model.StatusReady, 100*i))
	}

	rows, total, err := fx.svc.List(context.Background(), &dto.ReportQuery{Page: 2, PageSize: 2})
	if err != nil {
		t.Fatalf("查询应成功: %v", err)
	}
	if total != 5 {
		t.Errorf("total 应为 5，实际 %d", total)
	}
	// 倒序第二页：5,4 | 3,2 | 1
	if len(rows) != 2 || rows[0].GradeID != 3 || rows[1].GradeID != 2 {
		t.Errorf("第二页应为 grade 3, 2，实际 %v", rows)
	}
}

func TestReport_ExportXLSX(t *testing.T) {
	fx := newReportFixture()
	fx.tr.reportRows = []model.ReportRow{
		reportRow(1, model.StatusSent, 100),
		reportRow(2, model.StatusReady, 200),
	}

	buf, filename, err := fx.svc.ExportXLSX(context.Background(), &dto.ReportQuery{})
	if err != nil {
		t.Fatalf("导出应成功: %v", err)
	}
	if !strings.HasPrefix(filename, "gradelink-report-all-") || !strings.HasSuffix(filename, ".xlsx") {
		t.Errorf("文件名格式不符: %q", filename)
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("生成的文件应可被 excelize 读回: %v", err)
	}
	defer f.Close()

	xrows, err := f.GetRows("Transfer report")
	if err != nil {
		t.Fatalf("读取工作表失败: %v", err)
	}
	// 表头 + 2 行数据
	if len(xrows) != 3 {
		t.Fatalf("期望 3 行（含表头），实际 %d", len(xrows))
	}
	if xrows[0][0] != "Grade ID" {
		t.Errorf("表头首列应为 Grade ID，实际 %q", xrows[0][0])
	}
	// 数据按修改时间倒序
	if xrows[1][0] != "2" || xrows[1][1] != "ready" {
		t.Errorf("首行数据应为 grade 2 / ready，实际 %v", xrows[1])
	}
}
