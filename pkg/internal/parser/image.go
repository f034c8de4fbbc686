package parser

import (
	"fmt"
	"path/filepath"
	"strings"
)

// imageExtensions 图片扩展名.
var imageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
}

// ImageParser 图片占位提取器.真正的 OCR/EXIF 提取不在当前范围内，
// 占位文本保证图片也能按名字被检索到.
type ImageParser struct{}

func (p *ImageParser) Name() string { return "image" }

func (p *ImageParser) CanParse(ext string) bool {
	_, ok := imageExtensions[strings.ToLower(ext)]

	return ok
}

func (p *ImageParser) Parse(path string) (string, error) {
	return fmt.Sprintf("[Image Metadata Placeholder for %s]", filepath.Base(path)), nil
}
