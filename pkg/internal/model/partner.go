package model

// Partner 外部合作实体，按名称唯一.
// 首次读到空表时播种默认集合，之后常驻内存缓存.
type Partner struct {
	ID   uint   `gorm:"primaryKey"           json:"id"`
	Name string `gorm:"size:255;uniqueIndex" json:"name"`
	// Domains 逗号分隔的域名列表，例如 "acme.com, acme.org"
	Domains string `gorm:"size:1024" json:"domains"`
	// Keywords 逗号分隔的关键词列表，例如 "Acme Corp, Road Runner"
	Keywords string `gorm:"size:1024" json:"keywords"`
}

// FilePartner 文件-实体关联，(file_id, partner_id) 唯一.
type FilePartner struct {
	FileID     uint    `gorm:"primaryKey"  json:"file_id"`
	PartnerID  uint    `gorm:"primaryKey"  json:"partner_id"`
	Confidence float64 `gorm:"default:1.0" json:"confidence"`
}
