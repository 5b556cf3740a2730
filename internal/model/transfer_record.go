package model

// TransferRecord 成绩传输状态表 — 对应 transfer_records
// GradeID 指向宿主 LMS 的 grade_grades.id，全表唯一（upsert 语义）
// TimeModified 随每次状态变更单调不减，是导出游标的排序键
type TransferRecord struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"       json:"id"`
	GradeID      int64  `gorm:"uniqueIndex;not null"           json:"grade_id"`
	Status       Status `gorm:"type:smallint;not null;default:0" json:"status"`
	TimeModified int64  `gorm:"not null;default:0"             json:"time_modified"`
}

// TableName 指定表名
func (TransferRecord) TableName() string { return "transfer_records" }

// Touch 更新状态并推进时间戳
// now 早于已有 TimeModified 时保留旧值，保证时间戳单调不减
func (r *TransferRecord) Touch(status Status, now int64) {
	r.Status = status
	if now > r.TimeModified {
		r.TimeModified = now
	}
}
