package model

// ExportRow 导出查询的跨表投影
// transfer_records 按 (time_modified, grade_id) 升序扫描，
// 连带取出 SMS 需要的身份字段与成绩展示所需的元数据
type ExportRow struct {
	GradeID      int64    `gorm:"column:grade_id"`
	Status       Status   `gorm:"column:status"`
	TimeModified int64    `gorm:"column:time_modified"`
	StudentEmail string   `gorm:"column:student_email"`
	ProgCode     string   `gorm:"column:prog_code"`   // 课程类别名 = SMS 课程方案编码
	ClassID      string   `gorm:"column:class_id"`    // courses.idnumber
	CourseCode   string   `gorm:"column:course_code"` // grade_items.idnumber
	FinalGrade   *float64 `gorm:"column:final_grade"`
	GradeMax     float64  `gorm:"column:grade_max"`
	GradeType    int      `gorm:"column:grade_type"`
	ScaleID      *int64   `gorm:"column:scale_id"`
	EventDate    int64    `gorm:"column:event_date"` // grade_grades.time_modified
}

// ReportRow 管理报表的跨表投影
type ReportRow struct {
	GradeID      int64    `gorm:"column:grade_id"`
	Status       Status   `gorm:"column:status"`
	TimeModified int64    `gorm:"column:time_modified"`
	StudentName  string   `gorm:"column:student_name"`
	StudentEmail string   `gorm:"column:student_email"`
	CourseName   string   `gorm:"column:course_name"`
	CourseCode   string   `gorm:"column:course_code"`
	FinalGrade   *float64 `gorm:"column:final_grade"`
	GradeMax     float64  `gorm:"column:grade_max"`
	EventDate    int64    `gorm:"column:event_date"`
}
