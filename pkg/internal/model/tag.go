package model

// 标签来源.
const (
	TagOriginUser = "user" // 用户手工打的标签
	TagOriginAI   = "ai"   // 分类器打的标签
	TagOriginRule = "rule" // 规则动作打的标签
)

// Tag 标签，按名称唯一；首次使用时由打标签的一方创建.
type Tag struct {
	ID   uint   `gorm:"primaryKey"             json:"id"`
	Name string `gorm:"size:255;uniqueIndex"   json:"name"`
	// Type 标签来源：user、ai、rule
	Type string `gorm:"size:32;default:user" json:"type"`
}

// FileTag 文件-标签关联，(file_id, tag_id) 唯一；
// 多个阶段可以幂等地给同一文件打同一标签，置信度以最后一次写入为准.
type FileTag struct {
	FileID     uint    `gorm:"primaryKey"   json:"file_id"`
	TagID      uint    `gorm:"primaryKey"   json:"tag_id"`
	Confidence float64 `gorm:"default:1.0"  json:"confidence"`
}
