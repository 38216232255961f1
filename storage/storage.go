// Package storage 保存生成的卡片图片并按标识符取回。
// 标识符在访问任何存储之前校验，拒绝一切路径穿越形式。
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/npillmayer/schuko/tracing"
)

var (
	// ErrInvalidID 表示标识符含有路径成分，调用方应返回 bad request。
	ErrInvalidID = errors.New("invalid image identifier")
	// ErrNotFound 表示标识符合法但不存在。
	ErrNotFound = errors.New("image not found")
)

// tracer traces with key 'tweetcard.storage'
func tracer() tracing.Trace {
	return tracing.Select("tweetcard.storage")
}

// Store 保存 PNG 字节并返回新标识符；实现必须可被并发调用。
type Store interface {
	Save(ctx context.Context, data []byte) (string, error)
	Load(ctx context.Context, id string) ([]byte, error)
}

// NewID 生成 tweet_<uuid-hex>.png 形式的标识符。
func NewID() string {
	u := uuid.New()
	return "tweet_" + strings.ReplaceAll(u.String(), "-", "") + ".png"
}

// ValidateID 拒绝空值、".."、以 / 或 \ 开头以及含路径分隔符的标识符。
func ValidateID(id string) error {
	switch {
	case id == "":
		return fmt.Errorf("%w: empty", ErrInvalidID)
	case strings.Contains(id, ".."):
		return fmt.Errorf("%w: %q contains ..", ErrInvalidID, id)
	case strings.HasPrefix(id, "/"), strings.HasPrefix(id, `\`):
		return fmt.Errorf("%w: %q is absolute", ErrInvalidID, id)
	case strings.ContainsAny(id, "/\\\x00"):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidID, id)
	case strings.Contains(id, ":"):
		return fmt.Errorf("%w: %q contains a drive or scheme separator", ErrInvalidID, id)
	}
	return nil
}
