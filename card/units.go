package card

import (
	"fmt"
	"strconv"
	"strings"
)

// Unit 是模板中长度值的原始单位。
type Unit int

const (
	UnitNone Unit = iota // 无单位，按像素处理
	UnitPX               // 像素
	UnitPT               // 点，按模板 DPI 换算为像素
)

// DefaultDPI 是 pt→px 换算使用的默认分辨率，此时 1pt == 1px。
const DefaultDPI = 72.0

func (u Unit) String() string {
	switch u {
	case UnitPX:
		return "px"
	case UnitPT:
		return "pt"
	default:
		return ""
	}
}

// Length 保留数值及其单位。
type Length struct {
	Value float64
	Unit  Unit
}

// Pixels 把长度换算为像素。
func (l Length) Pixels(dpi float64) float64 {
	if l.Unit == UnitPT {
		if dpi <= 0 {
			dpi = DefaultDPI
		}
		return l.Value * dpi / 72
	}
	return l.Value
}

// ParseLength 解析 "30"、"30px"、"12pt" 形式的长度。
func ParseLength(value string) (Length, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return Length{}, fmt.Errorf("长度为空")
	}
	unit := UnitNone
	for _, suf := range []struct {
		s string
		u Unit
	}{{"px", UnitPX}, {"pt", UnitPT}} {
		if strings.HasSuffix(v, suf.s) {
			unit = suf.u
			v = strings.TrimSuffix(v, suf.s)
			break
		}
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return Length{}, fmt.Errorf("长度 %q 无法解析: %w", value, err)
	}
	return Length{Value: f, Unit: unit}, nil
}
