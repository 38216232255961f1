// Package binding 负责卡片模板中 ${field} 占位符的替换。
package binding

import (
	"fmt"
	"regexp"
	"strings"
)

var exprPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Interpolate 将文本中的 ${path.to.value} 替换为 data 中的值。
// 支持 ${name|fallback}：值缺失或为空字符串时使用 fallback。
// 无 fallback 且路径不存在时保留原占位符。
func Interpolate(text string, data map[string]any) string {
	return exprPattern.ReplaceAllStringFunc(text, func(match string) string {
		path, fallback, hasFallback := splitExpr(match)
		if path == "" {
			return match
		}
		if val, ok := resolvePath(data, path); ok {
			if s := fmt.Sprint(val); s != "" || !hasFallback {
				return s
			}
		}
		if hasFallback {
			return fallback
		}
		return match
	})
}

// Fields 返回 text 中引用的全部字段路径（按出现顺序，不去重）。
func Fields(text string) []string {
	var out []string
	for _, m := range exprPattern.FindAllString(text, -1) {
		if path, _, _ := splitExpr(m); path != "" {
			out = append(out, path)
		}
	}
	return out
}

func splitExpr(match string) (path, fallback string, hasFallback bool) {
	groups := exprPattern.FindStringSubmatch(match)
	if len(groups) < 2 {
		return "", "", false
	}
	expr := groups[1]
	if i := strings.IndexByte(expr, '|'); i >= 0 {
		return strings.TrimSpace(expr[:i]), expr[i+1:], true
	}
	return strings.TrimSpace(expr), "", false
}

func resolvePath(data map[string]any, path string) (any, bool) {
	var current any = data
	for _, segment := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		if current, ok = m[segment]; !ok {
			return nil, false
		}
	}
	return current, true
}
