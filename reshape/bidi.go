package reshape

import (
	"golang.org/x/text/unicode/bidi"
)

// reorder 把单个段落从逻辑顺序转换为从左到右的视觉顺序。
// bidi.Ordering 只给出各 run 的方向，层级在这里按段落基础方向还原，再执行 L2 反转。
func reorder(logical []rune) ([]rune, bool) {
	if len(logical) == 0 {
		return logical, true
	}
	var p bidi.Paragraph
	if _, err := p.SetString(string(logical), bidi.DefaultDirection(bidi.LeftToRight)); err != nil {
		return nil, false
	}
	ord, err := p.Order()
	if err != nil {
		return nil, false
	}

	rtlBase := baseIsRTL(logical)
	levels := make([]int, 0, len(logical))
	runes := make([]rune, 0, len(logical))
	prevRTL := false
	for i := 0; i < ord.NumRuns(); i++ {
		run := ord.Run(i)
		rs := []rune(run.String())
		levels = append(levels, runLevels(run.Direction() == bidi.RightToLeft, rtlBase, prevRTL, rs)...)
		runes = append(runes, rs...)
		prevRTL = run.Direction() == bidi.RightToLeft
	}
	if len(runes) != len(logical) {
		return nil, false
	}

	// 奇数层级的括号需要镜像
	for i, r := range runes {
		if levels[i]%2 == 1 {
			runes[i] = []rune(bidi.ReverseString(string(r)))[0]
		}
	}
	reverseLevels(runes, levels)
	return runes, true
}

// runLevels 逐字符还原 run 的嵌入层级。LTR 段落中紧跟 RTL 文本、且不含强 LTR 字符的 run，
// 只有首个数字到末个数字之间的片段属于外层 RTL 片段（层级 2），两侧的中性字符保持段落层级。
func runLevels(rtl, rtlBase, prevRTL bool, rs []rune) []int {
	levels := make([]int, len(rs))
	base := 0
	switch {
	case rtl:
		base = 1
	case rtlBase:
		base = 2
	}
	for i := range levels {
		levels[i] = base
	}
	if rtl || rtlBase || !prevRTL || hasStrongLTR(rs) {
		return levels
	}
	first, last := -1, -1
	for i, r := range rs {
		if isDigit(r) {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	for i := first; first >= 0 && i <= last; i++ {
		levels[i] = 2
	}
	return levels
}

// reverseLevels 执行 UAX #9 规则 L2：从最高层级到 1，逐级反转连续的高层级片段。
func reverseLevels(runes []rune, levels []int) {
	highest := 0
	for _, l := range levels {
		if l > highest {
			highest = l
		}
	}
	for lvl := highest; lvl >= 1; lvl-- {
		for i := 0; i < len(levels); {
			if levels[i] < lvl {
				i++
				continue
			}
			j := i
			for j < len(levels) && levels[j] >= lvl {
				j++
			}
			reverseRange(runes, levels, i, j)
			i = j
		}
	}
}

func reverseRange(runes []rune, levels []int, from, to int) {
	for a, b := from, to-1; a < b; a, b = a+1, b-1 {
		runes[a], runes[b] = runes[b], runes[a]
		levels[a], levels[b] = levels[b], levels[a]
	}
}

// baseIsRTL 按规则 P2/P3 以第一个强方向字符决定段落方向，没有强字符时为 LTR。
func baseIsRTL(rs []rune) bool {
	for _, r := range rs {
		props, _ := bidi.LookupRune(r)
		switch props.Class() {
		case bidi.L:
			return false
		case bidi.R, bidi.AL:
			return true
		}
	}
	return false
}

func hasStrongLTR(rs []rune) bool {
	for _, r := range rs {
		props, _ := bidi.LookupRune(r)
		if props.Class() == bidi.L {
			return true
		}
	}
	return false
}

func isDigit(r rune) bool {
	props, _ := bidi.LookupRune(r)
	c := props.Class()
	return c == bidi.EN || c == bidi.AN
}
