package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"gorm.io/gorm"

	"gradelink/backend/internal/model"
	"gradelink/backend/internal/repository"
)

// 手写内存 mock，行为对齐 gorm 仓储实现（不存在返回 gorm.ErrRecordNotFound）

// ────────────────────── TransferRecordRepository mock ──────────────────────

type mockTransferRecordRepo struct {
	mu      sync.Mutex
	records map[int64]*model.TransferRecord
	// sources 为每个 grade_id 的导出投影身份字段（状态与时间戳以 records 为准）
	sources    map[int64]model.ExportRow
	reportRows []model.ReportRow

	upsertErr   map[int64]error
	markSentErr error

	markSentCalls [][]int64
}

func newMockTransferRecordRepo() *mockTransferRecordRepo {
	return &mockTransferRecordRepo{
		records:   make(map[int64]*model.TransferRecord),
		sources:   make(map[int64]model.ExportRow),
		upsertErr: make(map[int64]error),
	}
}

// seed 同时写入状态记录和导出投影
func (m *mockTransferRecordRepo) seed(row model.ExportRow) {
	m.records[row.GradeID] = &model.TransferRecord{
		GradeID:      row.GradeID,
		Status:       row.Status,
		TimeModified: row.TimeModified,
	}
	m.sources[row.GradeID] = row
}

func (m *mockTransferRecordRepo) GetByGradeID(_ context.Context, gradeID int64) (*model.TransferRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[gradeID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *record
	return &clone, nil
}

func (m *mockTransferRecordRepo) Upsert(_ context.Context, gradeID int64, status model.Status, now int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.upsertErr[gradeID]; err != nil {
		return err
	}
	record, ok := m.records[gradeID]
	if !ok {
		record = &model.TransferRecord{GradeID: gradeID}
		m.records[gradeID] = record
	}
	record.Touch(status, now)
	return nil
}

func (m *mockTransferRecordRepo) MarkSent(_ context.Context, gradeIDs []int64, now int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markSentCalls = append(m.markSentCalls, append([]int64(nil), gradeIDs...))
	if m.markSentErr != nil {
		return m.markSentErr
	}
	for _, id := range gradeIDs {
		if record, ok := m.records[id]; ok {
			record.Touch(model.StatusSent, now)
		}
	}
	return nil
}

// matchExport 导出过滤条件，与 SQL 谓词一致
func (m *mockTransferRecordRepo) matchExport(statuses []model.Status, floor int64, allowed []string) []model.ExportRow {
	var out []model.ExportRow
	for id, record := range m.records {
		inStatus := false
		for _, s := range statuses {
			if record.Status == s {
				inStatus = true
				break
			}
		}
		if !inStatus || record.TimeModified < floor {
			continue
		}
		source, ok := m.sources[id]
		if !ok {
			continue
		}
		if len(allowed) > 0 {
			hit := false
			for _, course := range allowed {
				if source.ClassID == course {
					hit = true
					break
				}
			}
			if !hit {
				continue
			}
		}
		source.Status = record.Status
		source.TimeModified = record.TimeModified
		out = append(out, source)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TimeModified != out[j].TimeModified {
			return out[i].TimeModified < out[j].TimeModified
		}
		return out[i].GradeID < out[j].GradeID
	})
	return out
}

func (m *mockTransferRecordRepo) ListExportRows(_ context.Context, statuses []model.Status, floor int64, allowed []string, offset, limit int) ([]model.ExportRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.matchExport(statuses, floor, allowed)
	if offset >= len(rows) {
		return nil, nil
	}
	rows = rows[offset:]
	if limit < len(rows) {
		rows = rows[:limit]
	}
	return rows, nil
}

func (m *mockTransferRecordRepo) CountExportRows(_ context.Context, statuses []model.Status, floor int64, allowed []string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.matchExport(statuses, floor, allowed))), nil
}

func (m *mockTransferRecordRepo) ListReportRows(_ context.Context, status *model.Status, from, to int64, offset, limit int) ([]model.ReportRow, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.ReportRow
	for _, row := range m.reportRows {
		if row.TimeModified < from || row.TimeModified > to {
			continue
		}
		if status != nil && row.Status != *status {
			continue
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TimeModified != out[j].TimeModified {
			return out[i].TimeModified > out[j].TimeModified
		}
		return out[i].GradeID > out[j].GradeID
	})
	total := int64(len(out))
	if offset >= len(out) {
		return nil, total, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, total, nil
}

// ────────────────────── GradeSourceRepository mock ──────────────────────

type mockGradeSourceRepo struct {
	items       map[int64]*model.GradeItem
	gradesByID  map[int64]*model.GradeGrade
	userGrades  map[string]*model.GradeGrade // key "item:user"
	children    map[int64][]model.GradeItem  // key 为 grade_categories.id
	assignments map[int64]*model.Assignment
	attempts    map[string]int // key "assignment:user"
	scales      map[int64]*model.Scale
}

func newMockGradeSourceRepo() *mockGradeSourceRepo {
	return &mockGradeSourceRepo{
		items:       make(map[int64]*model.GradeItem),
		gradesByID:  make(map[int64]*model.GradeGrade),
		userGrades:  make(map[string]*model.GradeGrade),
		children:    make(map[int64][]model.GradeItem),
		assignments: make(map[int64]*model.Assignment),
		attempts:    make(map[string]int),
		scales:      make(map[int64]*model.Scale),
	}
}

func pairKey(a, b int64) string { return fmt.Sprintf("%d:%d", a, b) }

func (m *mockGradeSourceRepo) seedUserGrade(itemID, userID int64, final *float64) {
	m.userGrades[pairKey(itemID, userID)] = &model.GradeGrade{
		ItemID: itemID, UserID: userID, FinalGrade: final,
	}
}

func (m *mockGradeSourceRepo) GetGradeItem(_ context.Context, id int64) (*model.GradeItem, error) {
	item, ok := m.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return item, nil
}

func (m *mockGradeSourceRepo) GetGradeGrade(_ context.Context, id int64) (*model.GradeGrade, error) {
	grade, ok := m.gradesByID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return grade, nil
}

func (m *mockGradeSourceRepo) ListCategoryChildren(_ context.Context, categoryID int64) ([]model.GradeItem, error) {
	return m.children[categoryID], nil
}

func (m *mockGradeSourceRepo) GetUserGrade(_ context.Context, itemID, userID int64) (*model.GradeGrade, error) {
	grade, ok := m.userGrades[pairKey(itemID, userID)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return grade, nil
}

func (m *mockGradeSourceRepo) GetAssignment(_ context.Context, id int64) (*model.Assignment, error) {
	assignment, ok := m.assignments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return assignment, nil
}

func (m *mockGradeSourceRepo) CountAttemptsUsed(_ context.Context, assignmentID, userID int64) (int, error) {
	return m.attempts[pairKey(assignmentID, userID)], nil
}

func (m *mockGradeSourceRepo) GetScale(_ context.Context, id int64) (*model.Scale, error) {
	scale, ok := m.scales[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return scale, nil
}

// ────────────────────── AuditSink mock ──────────────────────

type auditEvent struct {
	event  string
	fields map[string]interface{}
}

type mockAuditSink struct {
	mu     sync.Mutex
	events []auditEvent
}

func (m *mockAuditSink) PublishAudit(_ context.Context, event string, fields map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, auditEvent{event: event, fields: fields})
}

// newTestRepository 组装聚合仓储
func newTestRepository(tr *mockTransferRecordRepo, gs *mockGradeSourceRepo) *repository.Repository {
	return &repository.Repository{TransferRecord: tr, GradeSource: gs}
}

func f64(v float64) *float64 { return &v }
