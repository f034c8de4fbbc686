package service

import (
	"strings"

	"github.com/cespare/xxhash/v2"
)

// EmbeddingDim 嵌入向量维度.
const EmbeddingDim = 64

// keywordVocabulary 关键词到主题标签的映射，按声明顺序评估.
// 同一主题命中多个关键词只打一次标签.
var keywordVocabulary = []struct {
	tag      string
	keywords []string
}{
	{"Finance", []string{"invoice", "total due", "receipt", "tax"}},
	{"Legal", []string{"contract", "agreement", "nda", "terms of service"}},
	{"Meeting", []string{"meeting", "minutes", "agenda", "attendees"}},
	{"Development", []string{"c#", "dotnet", "python", "javascript", "api"}},
	{"Sensitive", []string{"secret", "confidential", "password", "private key"}},
	{"Personal", []string{"resume", "cv", "personal", "diary"}},
}

// KeywordModel 确定性的关键词分类器 + SimHash 风格嵌入.
// 不依赖外部模型，同样的输入永远给出同样的输出.
type KeywordModel struct{}

func (m *KeywordModel) Name() string { return "Keyword-Based Classifier (Basic + SimHash)" }

func (m *KeywordModel) Initialize() error { return nil }

// Classify 按关键词出现与否打主题标签.空内容不打任何标签.
func (m *KeywordModel) Classify(content string) []string {
	if strings.TrimSpace(content) == "" {
		return nil
	}

	lower := strings.ToLower(content)

	var tags []string

	for _, entry := range keywordVocabulary {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				tags = append(tags, entry.tag)

				break
			}
		}
	}

	return tags
}

// Embed 生成 64 维确定性嵌入.
//
// 算法：按空白和常见标点分词；每个 token 取大小写不敏感的 32 位哈希
// （xxhash64 低 32 位）；对每个维度 i，看哈希在 (i mod 32) 位上的比特，
// 是 1 则 +1.0，否则 -1.0；最后除以所有维度绝对值的最大值（最小除数 1.0），
// 把分量压到 [-1, 1].空内容返回全零向量.
func (m *KeywordModel) Embed(content string) []float32 {
	vector := make([]float32, EmbeddingDim)

	if strings.TrimSpace(content) == "" {
		return vector
	}

	tokens := strings.FieldsFunc(content, func(r rune) bool {
		switch r {
		case ' ', '\n', '\r', '\t', '.', ',', ';', '!':
			return true
		}

		return false
	})

	for _, token := range tokens {
		hash := uint32(xxhash.Sum64String(strings.ToLower(token)))

		for i := 0; i < EmbeddingDim; i++ {
			bit := (hash >> (i % 32)) & 1

			if bit == 1 {
				vector[i] += 1.0
			} else {
				vector[i] -= 1.0
			}
		}
	}

	// 归一化到 -1..1
	maxVal := float32(1.0)

	for i := 0; i < EmbeddingDim; i++ {
		if v := vector[i]; v > maxVal {
			maxVal = v
		} else if -v > maxVal {
			maxVal = -v
		}
	}

	for i := 0; i < EmbeddingDim; i++ {
		vector[i] /= maxVal
	}

	return vector
}
