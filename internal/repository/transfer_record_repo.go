package repository

import (
	"context"

	"gorm.io/gorm"

	"gradelink/backend/internal/model"
)

// TransferRecordRepository 成绩传输状态数据访问接口
type TransferRecordRepository interface {
	// GetByGradeID 按成绩 id 取记录，不存在返回 gorm.ErrRecordNotFound
	GetByGradeID(ctx context.Context, gradeID int64) (*model.TransferRecord, error)
	// Upsert 写入状态：记录不存在则创建，存在则更新
	// 时间戳单调不减由 TransferRecord.Touch 保证
	Upsert(ctx context.Context, gradeID int64, status model.Status, now int64) error
	// MarkSent 一个事务内将整批记录置为 SENT，无部分可见
	MarkSent(ctx context.Context, gradeIDs []int64, now int64) error
	// ListExportRows 按 (time_modified, grade_id) 升序取导出投影
	// 过滤条件：状态集合、时间下限、课程 idnumber 白名单（空表示全部）
	ListExportRows(ctx context.Context, statuses []model.Status, floor int64, allowedCourses []string, offset, limit int) ([]model.ExportRow, error)
	// CountExportRows 统计满足导出过滤条件的总数（用于 pages 元数据）
	CountExportRows(ctx context.Context, statuses []model.Status, floor int64, allowedCourses []string) (int64, error)
	// ListReportRows 管理报表查询，status 为 nil 表示全部状态
	ListReportRows(ctx context.Context, status *model.Status, from, to int64, offset, limit int) ([]model.ReportRow, int64, error)
}

type transferRecordRepo struct {
	db *gorm.DB
}

// NewTransferRecordRepo 创建 TransferRecordRepository 实例
func NewTransferRecordRepo(db *gorm.DB) TransferRecordRepository {
	return &transferRecordRepo{db: db}
}

func (r *transferRecordRepo) GetByGradeID(ctx context.Context, gradeID int64) (*model.TransferRecord, error) {
	var record model.TransferRecord
	err := r.db.WithContext(ctx).Where("grade_id = ?", gradeID).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *transferRecordRepo) Upsert(ctx context.Context, gradeID int64, status model.Status, now int64) error {
	var record model.TransferRecord
	err := r.db.WithContext(ctx).Where("grade_id = ?", gradeID).First(&record).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			return err
		}
		record = model.TransferRecord{GradeID: gradeID}
	}
	record.Touch(status, now)
	return r.db.WithContext(ctx).Save(&record).Error
}

func (r *transferRecordRepo) MarkSent(ctx context.Context, gradeIDs []int64, now int64) error {
	if len(gradeIDs) == 0 {
		return nil
	}
	// 整批置 SENT 在单事务内提交，重试时过滤条件仍能看到未置位的记录
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Model(&model.TransferRecord{}).
			Where("grade_id IN ?", gradeIDs).
			Updates(map[string]interface{}{
				"status":        model.StatusSent,
				"time_modified": gorm.Expr("GREATEST(time_modified, ?)", now),
			}).Error
	})
}

// exportQuery 组装导出过滤条件公共部分
func (r *transferRecordRepo) exportQuery(ctx context.Context, statuses []model.Status, floor int64, allowedCourses []string) *gorm.DB {
	q := r.db.WithContext(ctx).
		Table("transfer_records AS tr").
		Joins("JOIN grade_grades gg ON gg.id = tr.grade_id").
		Joins("JOIN grade_items gi ON gi.id = gg.item_id").
		Joins("JOIN courses c ON c.id = gi.course_id").
		Joins("JOIN course_categories cat ON cat.id = c.category_id").
		Joins("JOIN users u ON u.id = gg.user_id").
		Where("tr.status IN ?", statuses).
		Where("tr.time_modified >= ?", floor)
	if len(allowedCourses) > 0 {
		q = q.Where("c.idnumber IN ?", allowedCourses)
	}
	return q
}

func (r *transferRecordRepo) ListExportRows(ctx context.Context, statuses []model.Status, floor int64, allowedCourses []string, offset, limit int) ([]model.ExportRow, error) {
	var rows []model.ExportRow
	err := r.exportQuery(ctx, statuses, floor, allowedCourses).
		Select(`tr.grade_id, tr.status, tr.time_modified,
			u.email AS student_email, cat.name AS prog_code, c.idnumber AS class_id,
			gi.idnumber AS course_code, gg.final_grade, gi.grade_max, gi.grade_type,
			gi.scale_id, gg.time_modified AS event_date`).
		Order("tr.time_modified ASC, tr.grade_id ASC").
		Offset(offset).
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *transferRecordRepo) CountExportRows(ctx context.Context, statuses []model.Status, floor int64, allowedCourses []string) (int64, error) {
	var total int64
	err := r.exportQuery(ctx, statuses, floor, allowedCourses).Count(&total).Error
	return total, err
}

func (r *transferRecordRepo) ListReportRows(ctx context.Context, status *model.Status, from, to int64, offset, limit int) ([]model.ReportRow, int64, error) {
	base := r.db.WithContext(ctx).
		Table("transfer_records AS tr").
		Joins("JOIN grade_grades gg ON gg.id = tr.grade_id").
		Joins("JOIN grade_items gi ON gi.id = gg.item_id").
		Joins("JOIN courses c ON c.id = gi.course_id").
		Joins("JOIN users u ON u.id = gg.user_id").
		Where("tr.time_modified >= ? AND tr.time_modified <= ?", from, to)
	if status != nil {
		base = base.Where("tr.status = ?", *status)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []model.ReportRow
	err := base.Session(&gorm.Session{}).
		Select(`tr.grade_id, tr.status, tr.time_modified,
			u.first_name || ' ' || u.last_name AS student_name, u.email AS student_email,
			c.fullname AS course_name, gi.idnumber AS course_code,
			gg.final_grade, gi.grade_max, gg.time_modified AS event_date`).
		Order("tr.time_modified DESC, tr.grade_id DESC").
		Offset(offset).
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
