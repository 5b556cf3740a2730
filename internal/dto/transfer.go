package dto

// ── 传输状态模块 DTO ──

// ToggleStatusResponse 手动切换结果
type ToggleStatusResponse struct {
	Success bool `json:"success"`
}

// BulkSetStatusRequest 批量改状态请求（管理后台逃生通道，不做合法性转换检查）
type BulkSetStatusRequest struct {
	GradeIDs []int64 `json:"grade_ids" binding:"required,min=1"`
	Status   int     `json:"status"    binding:"min=-1,max=3"`
}

// BulkSetStatusResponse 批量改状态结果
// Failed 列出写失败的 grade_id，批量操作不回滚其余记录
type BulkSetStatusResponse struct {
	Updated int     `json:"updated"`
	Failed  []int64 `json:"failed,omitempty"`
}

// UserGradedEvent 宿主系统的成绩变更事件
type UserGradedEvent struct {
	ItemID        int64 `json:"item_id"         binding:"required"`
	RelatedUserID int64 `json:"related_user_id" binding:"required"`
	GradeRecordID int64 `json:"grade_record_id" binding:"required"`
}
