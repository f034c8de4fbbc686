package parser

import (
	"archive/zip"
	"encoding/xml"
	"io"
	"strings"
)

// OfficeParser docx 文本提取器.docx 是一个 zip，正文在 word/document.xml 里，
// 这里直接走 token 流收集 <w:t> 的文本，不需要完整的 OOXML 对象模型.
type OfficeParser struct{}

func (p *OfficeParser) Name() string { return "office" }

func (p *OfficeParser) CanParse(ext string) bool {
	return strings.EqualFold(ext, ".docx")
}

func (p *OfficeParser) Parse(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		if IsTransient(err) {
			return "", err
		}

		return "", nil
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return "", nil
		}
		defer rc.Close()

		return extractDocumentText(rc), nil
	}

	return "", nil
}

// extractDocumentText 收集 w:t 元素里的字符数据，段落之间补换行.
func extractDocumentText(r io.Reader) string {
	dec := xml.NewDecoder(r)

	var (
		sb     strings.Builder
		inText bool
	)

	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}

	return sb.String()
}
