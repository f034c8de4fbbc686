package model

// 审计动作类型.
const (
	ActionIndex = "index" // 索引流水线执行了一次
)

// 审计条目状态.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusUndone  = "undone" // 被 UNDO 撤销；条目本身不删除
)

// ActionLog 自动化动作的只追加审计记录.
// 条目从不修改或删除，唯一的例外是 UNDO 把 status 翻成 undone.
type ActionLog struct {
	ID         uint   `gorm:"primaryKey"      json:"id"`
	FilePath   string `gorm:"size:1024;index" json:"file_path"`
	ActionType string `gorm:"size:32;index"   json:"action_type"`
	// Description 人类可读的说明，例如 "Applied tag 'Document' via rule 'PDF Documents'"
	Description string `gorm:"type:text" json:"description"`
	// Target 动作目的地：move/copy/rename/quarantine 存目标路径，tag 存标签名.
	// UNDO 靠这一列回放，不解析 Description 的自由文本.
	Target string `gorm:"size:1024" json:"target,omitempty"`
	// Timestamp 秒级 Unix 时间戳
	Timestamp int64  `gorm:"index"            json:"timestamp"`
	Status    string `gorm:"size:32;default:success" json:"status"`
}
