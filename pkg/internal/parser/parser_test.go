package parser_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/yeisme/filesentry/pkg/internal/parser"
)

// TestSelectByExtension 按扩展名选择第一个匹配的提取器.
func TestSelectByExtension(t *testing.T) {
	cases := []struct {
		ext  string
		want string
	}{
		{".txt", "text"},
		{".md", "text"},
		{".go", "text"},
		{".pdf", "pdf"},
		{".docx", "office"},
		{".jpg", "image"},
		{".png", "image"},
	}

	for _, tc := range cases {
		p := parser.Select(tc.ext)
		if p == nil {
			t.Errorf("Select(%q) = nil, want %q", tc.ext, tc.want)

			continue
		}

		if p.Name() != tc.want {
			t.Errorf("Select(%q) = %q, want %q", tc.ext, p.Name(), tc.want)
		}
	}
}

// TestSelectUnknownExtension 未知扩展名没有提取器，文件按纯元数据索引.
func TestSelectUnknownExtension(t *testing.T) {
	if p := parser.Select(".xyz"); p != nil {
		t.Fatalf("Select(.xyz) = %q, want nil", p.Name())
	}
}

// TestTextParserReadsFile 文本提取器原样读出文件内容.
func TestTextParserReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.txt")

	if err := os.WriteFile(path, []byte("line one\nline two"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	p := parser.Select(".txt")

	got, err := p.Parse(path)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if got != "line one\nline two" {
		t.Errorf("Parse = %q", got)
	}
}

// TestImageParserPlaceholder 图片提取器产出占位文本，带文件名.
func TestImageParserPlaceholder(t *testing.T) {
	p := parser.Select(".jpg")

	got, err := p.Parse("/pictures/holiday.jpg")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if got == "" {
		t.Fatal("expected placeholder text for image")
	}
}

// TestIsTransient 只有文件锁类错误算瞬时错误.
func TestIsTransient(t *testing.T) {
	if parser.IsTransient(nil) {
		t.Error("nil error should not be transient")
	}

	if parser.IsTransient(os.ErrNotExist) {
		t.Error("not-exist should not be transient")
	}
}
