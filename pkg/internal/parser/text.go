package parser

import (
	"os"
	"strings"
)

// textExtensions 按原样读入的纯文本扩展名.
var textExtensions = map[string]struct{}{
	".txt": {},
	".md":  {},
	".log": {},
	".go":  {},
	".cs":  {},
}

// TextParser 纯文本提取器.
type TextParser struct{}

func (p *TextParser) Name() string { return "text" }

func (p *TextParser) CanParse(ext string) bool {
	_, ok := textExtensions[strings.ToLower(ext)]

	return ok
}

func (p *TextParser) Parse(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if IsTransient(err) {
			return "", err
		}

		return "", nil
	}

	return string(data), nil
}
