// Package fonts 加载卡片所需字体。解析后的字体只读，可被并发渲染共享；
// 字体面（font.Face）不是并发安全的，每次渲染单独创建。
package fonts

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/npillmayer/schuko/tracing"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// BuiltinPrefix 标识内置字体来源，例如 builtin:go-regular。
const BuiltinPrefix = "builtin:"

// ErrLoad 表示字体缺失或无法解析，渲染无法继续。
var ErrLoad = errors.New("font load failure")

var builtins = map[string][]byte{
	"go-regular": goregular.TTF,
	"go-medium":  gomedium.TTF,
	"go-bold":    gobold.TTF,
}

// tracer traces with key 'tweetcard.fonts'
func tracer() tracing.Trace {
	return tracing.Select("tweetcard.fonts")
}

// LoadError 记录加载失败的字体，errors.Is(err, ErrLoad) 为 true。
type LoadError struct {
	Name string
	Src  string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("加载字体 %s (%s) 失败: %v", e.Name, e.Src, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Is 让所有 LoadError 都匹配 ErrLoad。
func (e *LoadError) Is(target error) bool { return target == ErrLoad }

// Set 是按名称索引的已解析字体集合，创建后不再修改。
type Set struct {
	fonts map[string]*opentype.Font
}

// Load 按 name → src 解析全部字体。src 为 builtin:* 或文件路径，相对路径基于 baseDir。
// 任何一个字体失败都会返回 *LoadError。
func Load(sources map[string]string, baseDir string) (*Set, error) {
	set := &Set{fonts: make(map[string]*opentype.Font, len(sources))}
	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		src := sources[name]
		data, err := readSource(src, baseDir)
		if err != nil {
			return nil, &LoadError{Name: name, Src: src, Err: err}
		}
		f, err := opentype.Parse(data)
		if err != nil {
			return nil, &LoadError{Name: name, Src: src, Err: err}
		}
		set.fonts[name] = f
		tracer().Debugf("font %s loaded from %s", name, src)
	}
	return set, nil
}

func readSource(src, baseDir string) ([]byte, error) {
	if src == "" {
		return nil, errors.New("缺少 src")
	}
	if strings.HasPrefix(src, BuiltinPrefix) {
		name := strings.TrimPrefix(src, BuiltinPrefix)
		if data, ok := builtins[name]; ok {
			return data, nil
		}
		return nil, fmt.Errorf("找不到内置字体 %s", name)
	}
	path := src
	if !filepath.IsAbs(path) && baseDir != "" {
		path = filepath.Join(baseDir, path)
	}
	return os.ReadFile(path)
}

// Has reports whether a font with the given name is loaded.
func (s *Set) Has(name string) bool {
	if s == nil {
		return false
	}
	_, ok := s.fonts[name]
	return ok
}

// Face 以像素字号创建一个新的字体面，调用方独占使用。
func (s *Set) Face(name string, size float64) (font.Face, error) {
	if s == nil {
		return nil, &LoadError{Name: name, Err: errors.New("字体集合未加载")}
	}
	f, ok := s.fonts[name]
	if !ok {
		return nil, &LoadError{Name: name, Err: errors.New("未声明的字体")}
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, &LoadError{Name: name, Err: err}
	}
	return face, nil
}
