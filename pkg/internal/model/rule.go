package model

// 规则条件类型.
const (
	ConditionExtension = "extension" // 扩展名等值匹配（大小写不敏感）
	ConditionName      = "name"      // 文件名子串匹配（大小写不敏感）
	ConditionTag       = "tag"       // 文件已带有指定标签
)

// 规则动作类型.
const (
	ActionTag        = "tag"        // 打标签，置信度 1.0
	ActionMove       = "move"       // 移动到目标目录，保留文件名
	ActionCopy       = "copy"       // 复制到目标目录，保留文件名
	ActionRename     = "rename"     // 同目录内改名为 <value><原扩展名>
	ActionQuarantine = "quarantine" // 移入数据目录下的隔离区
)

// Rule 自动化规则：条件→动作.静态配置在库里，引擎启动后缓存一次.
type Rule struct {
	ID             uint   `gorm:"primaryKey"    json:"id"`
	Name           string `gorm:"size:255"      json:"name"            rule:"required"`
	ConditionType  string `gorm:"size:32"       json:"condition_type"  rule:"required,oneof=extension name tag"`
	ConditionValue string `gorm:"size:512"      json:"condition_value" rule:"required"`
	ActionType     string `gorm:"size:32"       json:"action_type"     rule:"required,oneof=tag move copy rename quarantine"`
	ActionValue    string `gorm:"size:1024"     json:"action_value"    rule:"required"`
	IsActive       bool   `gorm:"default:true"  json:"is_active"`
}
