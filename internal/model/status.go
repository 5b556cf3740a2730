package model

import pkgerrors "gradelink/backend/pkg/errors"

// Status 成绩传输状态
// MISSING 为派生虚拟状态，表示尚无 transfer_records 记录，永不落库
type Status int

const (
	StatusMissing  Status = -2
	StatusError    Status = -1
	StatusNotReady Status = 0
	StatusReady    Status = 1
	StatusSent     Status = 2
	StatusModified Status = 3
)

// String 返回状态的展示名
func (s Status) String() string {
	switch s {
	case StatusMissing:
		return "missing"
	case StatusError:
		return "error"
	case StatusNotReady:
		return "not_ready"
	case StatusReady:
		return "ready"
	case StatusSent:
		return "sent"
	case StatusModified:
		return "modified"
	default:
		return "unknown"
	}
}

// Valid 报告 s 是否为可落库状态（不含 MISSING）
func (s Status) Valid() bool {
	return s >= StatusError && s <= StatusModified
}

// ── 状态机转换规则 ──

// NextOnEvaluate 计算一次就绪评估后的新状态
// prev 为当前落库状态（记录不存在时传 StatusMissing）
// 已发送（SENT）的成绩再次被评估时一律降为 MODIFIED，提示"交付后又有变动"，
// 与评估结果无关；MODIFIED 维持不变，等待人工处理
func NextOnEvaluate(prev Status, ready bool) Status {
	switch prev {
	case StatusSent:
		return StatusModified
	case StatusModified:
		return StatusModified
	default:
		if ready {
			return StatusReady
		}
		return StatusNotReady
	}
}

// NextOnToggle 计算手动切换后的新状态
// 仅在 READY / NOT_READY 之间翻转（ERROR 视同未就绪翻到 READY）；
// SENT 记录禁止手动切换，前端对应复选框也是禁用态
func NextOnToggle(prev Status) (Status, error) {
	if prev == StatusSent {
		return prev, pkgerrors.ErrStatusSentLocked
	}
	if prev < StatusReady {
		return StatusReady, nil
	}
	return StatusNotReady, nil
}
