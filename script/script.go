// Package script 对文本片段做书写系统（script）分类，只区分阿拉伯文与其他。
package script

import "unicode/utf8"

// Script 标识一个词使用的书写系统。
type Script int

const (
	Other  Script = iota // 拉丁文及其他所有文字
	Arabic               // 含有阿拉伯文区块（U+0600–U+06FF）字符
)

// 阿拉伯文基本区块范围。
const (
	arabicFirst = '\u0600'
	arabicLast  = '\u06FF'
)

func (s Script) String() string {
	switch s {
	case Arabic:
		return "arabic"
	default:
		return "other"
	}
}

// MarshalText 让调试 JSON 输出可读的名称。
func (s Script) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// IsArabic 判断单个字符是否落在阿拉伯文区块内。
func IsArabic(r rune) bool { return r >= arabicFirst && r <= arabicLast }

// Classify 只要 token 中存在一个阿拉伯文字符即返回 Arabic，否则返回 Other。
// 非法 UTF-8 字节按 RuneError 处理，不会影响结果。
func Classify(token string) Script {
	for i := 0; i < len(token); {
		r, size := utf8.DecodeRuneInString(token[i:])
		if IsArabic(r) {
			return Arabic
		}
		i += size
	}
	return Other
}

// ArabicShare 返回 tokens 中阿拉伯文 token 的占比，空列表返回 0。
func ArabicShare(tokens []string) float64 {
	if len(tokens) == 0 {
		return 0
	}
	n := 0
	for _, tok := range tokens {
		if Classify(tok) == Arabic {
			n++
		}
	}
	return float64(n) / float64(len(tokens))
}
