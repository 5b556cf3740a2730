package dto

// ── 管理报表模块 DTO ──

// ReportQuery 报表筛选参数
// Status 为 nil 表示全部状态；From/To 为 time_modified 的 unix 秒范围
type ReportQuery struct {
	Status   *int  `form:"status"`
	From     int64 `form:"from"`
	To       int64 `form:"to"`
	Page     int   `form:"page"`
	PageSize int   `form:"page_size"`
}

// ReportRow 报表行
type ReportRow struct {
	GradeID     int64  `json:"grade_id"`
	Status      int    `json:"status"`
	StatusText  string `json:"status_text"`
	StudentName string `json:"student_name"`
	Email       string `json:"email"`
	CourseName  string `json:"course_name"`
	CourseCode  string `json:"course_code"`
	Grade       string `json:"grade"`
	DateGraded  string `json:"date_graded"`
	Modified    string `json:"modified"`
}
