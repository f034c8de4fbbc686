// Package parser 提供按扩展名选择的内容提取器.
// 提取器按注册顺序尝试，第一个匹配的生效；没有匹配的扩展名时内容为空，
// 文件仍按元数据索引.
//
// 提取失败的约定：除了瞬时的文件锁（调用方负责重试），任何解析失败都
// 退化为空文本，绝不让单个文件的解析错误打断索引.
package parser

import (
	"errors"
	"syscall"
)

// Parser 内容提取器的能力集.
type Parser interface {
	// Name 提取器名称，用于日志和指标.
	Name() string
	// CanParse 是否处理该扩展名（含点，如 ".pdf"）.
	CanParse(ext string) bool
	// Parse 提取文本内容.只有瞬时锁类错误会返回 err，其余失败返回 ("", nil).
	Parse(path string) (string, error)
}

// registry 有序提取器列表，注册顺序即匹配顺序.
var registry []Parser

// Register 追加一个提取器.
func Register(p Parser) {
	registry = append(registry, p)
}

// Registered 返回已注册提取器（按匹配顺序）.
func Registered() []Parser {
	return registry
}

// Select 返回第一个能处理该扩展名的提取器，没有则返回 nil.
func Select(ext string) Parser {
	for _, p := range registry {
		if p.CanParse(ext) {
			return p
		}
	}

	return nil
}

// IsTransient 判断错误是否为瞬时文件锁/占用，这类错误由索引流水线退避重试.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	return errors.Is(err, syscall.EBUSY) ||
		errors.Is(err, syscall.EAGAIN) ||
		errors.Is(err, syscall.ETXTBSY)
}

func init() {
	// 注册顺序决定匹配优先级
	Register(&TextParser{})
	Register(&PDFParser{})
	Register(&OfficeParser{})
	Register(&ImageParser{})
}
