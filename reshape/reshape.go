// Package reshape 把逻辑顺序的阿拉伯文转换为可由从左到右绘制器直接输出的字符串：
// 先按连写规则替换为表现形式（presentation forms），再按 Unicode 双向算法重排为视觉顺序。
package reshape

import (
	"strings"
	"unicode/utf8"

	"github.com/ByLCY/tweetcard/script"
)

// Reshaper 将逻辑顺序文本转换为视觉顺序的可绘制文本。
// 实现必须是纯函数，且可被多个 goroutine 同时调用。
type Reshaper interface {
	Shape(s string) string
}

// Func 把普通函数适配为 Reshaper。
type Func func(string) string

// Shape implements Reshaper.
func (f Func) Shape(s string) string { return f(s) }

// Identity 原样返回输入，用于不需要重排的场景或测试。
var Identity Reshaper = Func(func(s string) string { return s })

// Arabic 是默认的阿拉伯文整形器，零值即可使用。
type Arabic struct{}

var _ Reshaper = Arabic{}

// Shape 对 s 做连写整形与双向重排。不含阿拉伯文字符的输入原样返回；
// 非法 UTF-8 或重排失败时同样返回原输入，绝不 panic。
func (Arabic) Shape(s string) (out string) {
	if s == "" || !utf8.ValidString(s) || !containsArabic(s) {
		return s
	}
	defer func() {
		if recover() != nil {
			out = s
		}
	}()

	// 换行符是段落分隔符，每段独立决定基础方向
	paragraphs := strings.Split(s, "\n")
	for i, p := range paragraphs {
		visual, ok := reorder(join([]rune(p)))
		if !ok {
			return s
		}
		paragraphs[i] = string(visual)
	}
	return strings.Join(paragraphs, "\n")
}

func containsArabic(s string) bool {
	for _, r := range s {
		if script.IsArabic(r) {
			return true
		}
	}
	return false
}
