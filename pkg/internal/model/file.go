package model

// File 已索引文件的记录：元数据 + 提取出的文本内容.
// path 是自然键，重复索引同一路径走 upsert，绝不会产生第二行.
type File struct {
	ID uint `gorm:"primaryKey" json:"id"`
	// 文件绝对路径，唯一
	Path      string `gorm:"size:1024;uniqueIndex" json:"path"`
	Name      string `gorm:"size:512;index"        json:"name"`
	Extension string `gorm:"size:64;index"         json:"extension"`
	Size      int64  `gorm:"index"                 json:"size"`
	// 最后修改时间（秒级 Unix 时间戳）
	LastModified int64 `gorm:"index" json:"last_modified"`
	// 提取出的文本内容；FTS 索引通过触发器与本表保持同步
	Content string `gorm:"type:text" json:"content"`
}

// FileEmbedding 每个文件一行的 64 维嵌入向量（JSON 编码的 float32 数组），
// 为将来的相似检索预留.
type FileEmbedding struct {
	FileID uint `gorm:"primaryKey" json:"file_id"`
	// Vector JSON 编码的 [64]float32
	Vector    string `gorm:"type:text" json:"vector"`
	UpdatedAt int64  `json:"updated_at"`
}
