package dto

// ── 成绩导出模块 DTO ──

// ExportQuery 导出请求参数
// Range: new（未发送：READY ∪ MODIFIED）| last（最近 RangeParam 秒）| since（RangeParam 为绝对时间戳）
// Stealth 为 true 时只预览，不推进 SENT
// LastID 为上一页最后一条记录的 grade_id（续传游标）
type ExportQuery struct {
	Range      string `form:"range"`
	RangeParam int64  `form:"rangeparam"`
	Limit      int    `form:"limit"`
	LastID     int64  `form:"lastid"`
	Stealth    bool   `form:"stealth"`
}

// ExportGrade 单条导出成绩
type ExportGrade struct {
	TauiraID   string `json:"tauiraid"` // 学号（邮箱 @ 前的本地段）
	ProgCode   string `json:"progcode"`
	ClassID    string `json:"classid"`
	CourseCode string `json:"coursecode"`
	Grade      string `json:"grade"`
	EventDate  string `json:"eventdate"`
}

// ExportPagination 导出分页元数据
// NextQuery 为空表示已是最后一页；非空时原样回传即可取下一页
type ExportPagination struct {
	Size      int    `json:"size"`
	Pages     int    `json:"pages"`
	LastID    int64  `json:"lastid"`
	NextQuery string `json:"nextquery"`
}

// ExportResponse 导出响应
type ExportResponse struct {
	Grades     []ExportGrade    `json:"grades"`
	Errors     string           `json:"errors"`
	Pagination ExportPagination `json:"pagination"`
}
