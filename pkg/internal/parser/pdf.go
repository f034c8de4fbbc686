package parser

import (
	"bytes"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFParser PDF 文本提取器.
type PDFParser struct{}

func (p *PDFParser) Name() string { return "pdf" }

func (p *PDFParser) CanParse(ext string) bool {
	return strings.EqualFold(ext, ".pdf")
}

func (p *PDFParser) Parse(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		if IsTransient(err) {
			return "", err
		}

		return "", nil
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", nil
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", nil
	}

	return buf.String(), nil
}
