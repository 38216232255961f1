package reshape

import "unicode"

// joining 是字符的连写类型。
type joining uint8

const (
	joinNone        joining = iota // 不参与连写（U）
	joinRight                      // 只与前一个字符相连（R）
	joinDual                       // 两侧都可相连（D）
	joinCausing                    // 促使两侧相连，如 tatweel（C）
	joinTransparent                // 对连写透明，如元音符号（T）
)

const (
	tatweel = '\u0640'
	zwj     = '\u200D'
	lam     = '\u0644'
)

// forms 依次为 initial、medial、final、isolated 表现形式，0 表示不存在。
type forms [4]rune

const (
	formInitial = iota
	formMedial
	formFinal
	formIsolated
)

var letterForms = map[rune]forms{
	'ء': {0, 0, 0, 0xFE80},
	'آ': {0, 0, 0xFE82, 0xFE81},
	'أ': {0, 0, 0xFE84, 0xFE83},
	'ؤ': {0, 0, 0xFE86, 0xFE85},
	'إ': {0, 0, 0xFE88, 0xFE87},
	'ئ': {0xFE8B, 0xFE8C, 0xFE8A, 0xFE89},
	'ا': {0, 0, 0xFE8E, 0xFE8D},
	'ب': {0xFE91, 0xFE92, 0xFE90, 0xFE8F},
	'ة': {0, 0, 0xFE94, 0xFE93},
	'ت': {0xFE97, 0xFE98, 0xFE96, 0xFE95},
	'ث': {0xFE9B, 0xFE9C, 0xFE9A, 0xFE99},
	'ج': {0xFE9F, 0xFEA0, 0xFE9E, 0xFE9D},
	'ح': {0xFEA3, 0xFEA4, 0xFEA2, 0xFEA1},
	'خ': {0xFEA7, 0xFEA8, 0xFEA6, 0xFEA5},
	'د': {0, 0, 0xFEAA, 0xFEA9},
	'ذ': {0, 0, 0xFEAC, 0xFEAB},
	'ر': {0, 0, 0xFEAE, 0xFEAD},
	'ز': {0, 0, 0xFEB0, 0xFEAF},
	'س': {0xFEB3, 0xFEB4, 0xFEB2, 0xFEB1},
	'ش': {0xFEB7, 0xFEB8, 0xFEB6, 0xFEB5},
	'ص': {0xFEBB, 0xFEBC, 0xFEBA, 0xFEB9},
	'ض': {0xFEBF, 0xFEC0, 0xFEBE, 0xFEBD},
	'ط': {0xFEC3, 0xFEC4, 0xFEC2, 0xFEC1},
	'ظ': {0xFEC7, 0xFEC8, 0xFEC6, 0xFEC5},
	'ع': {0xFECB, 0xFECC, 0xFECA, 0xFEC9},
	'غ': {0xFECF, 0xFED0, 0xFECE, 0xFECD},
	'ف': {0xFED3, 0xFED4, 0xFED2, 0xFED1},
	'ق': {0xFED7, 0xFED8, 0xFED6, 0xFED5},
	'ك': {0xFEDB, 0xFEDC, 0xFEDA, 0xFED9},
	'ل': {0xFEDF, 0xFEE0, 0xFEDE, 0xFEDD},
	'م': {0xFEE3, 0xFEE4, 0xFEE2, 0xFEE1},
	'ن': {0xFEE7, 0xFEE8, 0xFEE6, 0xFEE5},
	'ه': {0xFEEB, 0xFEEC, 0xFEEA, 0xFEE9},
	'و': {0, 0, 0xFEEE, 0xFEED},
	'ى': {0xFBE8, 0xFBE9, 0xFEF0, 0xFEEF},
	'ي': {0xFEF3, 0xFEF4, 0xFEF2, 0xFEF1},
	// 波斯文、乌尔都文常用字母
	'پ': {0xFB58, 0xFB59, 0xFB57, 0xFB56},
	'چ': {0xFB7C, 0xFB7D, 0xFB7B, 0xFB7A},
	'ژ': {0, 0, 0xFB8B, 0xFB8A},
	'ک': {0xFB90, 0xFB91, 0xFB8F, 0xFB8E},
	'گ': {0xFB94, 0xFB95, 0xFB93, 0xFB92},
	'ی': {0xFBFE, 0xFBFF, 0xFBFD, 0xFBFC},
}

// lamAlef 把 lam 之后的 alef 变体映射到 {isolated, final} 连字。
var lamAlef = map[rune][2]rune{
	'آ': {0xFEF5, 0xFEF6},
	'أ': {0xFEF7, 0xFEF8},
	'إ': {0xFEF9, 0xFEFA},
	'ا': {0xFEFB, 0xFEFC},
}

func joiningOf(r rune) joining {
	if r == tatweel || r == zwj {
		return joinCausing
	}
	if unicode.Is(unicode.Mn, r) {
		return joinTransparent
	}
	f, ok := letterForms[r]
	switch {
	case !ok:
		return joinNone
	case f[formInitial] != 0:
		return joinDual
	case f[formFinal] != 0:
		return joinRight
	default:
		return joinNone
	}
}

func joinsNext(j joining) bool { return j == joinDual || j == joinCausing }

func joinsPrev(j joining) bool { return j == joinDual || j == joinRight || j == joinCausing }

// join 在逻辑顺序上把阿拉伯字母替换为上下文对应的表现形式。
func join(rs []rune) []rune {
	classes := make([]joining, len(rs))
	for i, r := range rs {
		classes[i] = joiningOf(r)
	}

	out := make([]rune, 0, len(rs))
	for i := 0; i < len(rs); i++ {
		r, c := rs[i], classes[i]
		if c != joinDual && c != joinRight {
			out = append(out, r)
			continue
		}
		prev := neighbour(classes, i, -1)
		next := neighbour(classes, i, 1)
		linkPrev := prev >= 0 && joinsNext(classes[prev])
		linkNext := c == joinDual && next >= 0 && joinsPrev(classes[next])

		if r == lam && i+1 < len(rs) {
			if lig, ok := lamAlef[rs[i+1]]; ok {
				if linkPrev {
					out = append(out, lig[1])
				} else {
					out = append(out, lig[0])
				}
				i++
				continue
			}
		}
		out = append(out, letterForms[r].pick(linkPrev, linkNext, r))
	}
	return out
}

func (f forms) pick(linkPrev, linkNext bool, fallback rune) rune {
	var idx int
	switch {
	case linkPrev && linkNext:
		idx = formMedial
	case linkPrev:
		idx = formFinal
	case linkNext:
		idx = formInitial
	default:
		idx = formIsolated
	}
	if f[idx] == 0 {
		return fallback
	}
	return f[idx]
}

// neighbour 返回 i 在 step 方向上最近的非透明字符下标，不存在时返回 -1。
func neighbour(classes []joining, i, step int) int {
	for j := i + step; j >= 0 && j < len(classes); j += step {
		if classes[j] != joinTransparent {
			return j
		}
	}
	return -1
}
