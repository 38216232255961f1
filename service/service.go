// Package service 实现两个入站操作：生成卡片并保存、按标识符取回卡片。
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/npillmayer/schuko/tracing"

	"github.com/ByLCY/tweetcard/card"
	"github.com/ByLCY/tweetcard/fonts"
	"github.com/ByLCY/tweetcard/renderer"
	"github.com/ByLCY/tweetcard/storage"
)

// ErrUnavailable 表示服务端无法渲染（字体缺失等），与调用方输入无关。
var ErrUnavailable = errors.New("card rendering unavailable")

// ImagePath 是取回图片的路由前缀。
const ImagePath = "/get_image/"

// tracer traces with key 'tweetcard.service'
func tracer() tracing.Trace {
	return tracing.Select("tweetcard.service")
}

// Service 串联渲染与存储，可被并发调用。
type Service struct {
	renderer renderer.Renderer
	store    storage.Store
}

// New creates a service rendering with r and saving into store.
func New(r renderer.Renderer, store storage.Store) *Service {
	return &Service{renderer: r, store: store}
}

// Generate 渲染请求并保存结果，返回新图片的标识符。
func (s *Service) Generate(ctx context.Context, req card.Request) (string, error) {
	data, err := s.renderer.Render(ctx, req)
	if err != nil {
		if errors.Is(err, fonts.ErrLoad) {
			return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return "", fmt.Errorf("渲染卡片失败: %w", err)
	}
	id, err := s.store.Save(ctx, data)
	if err != nil {
		return "", fmt.Errorf("保存卡片失败: %w", err)
	}
	tracer().Infof("card %s generated (%d bytes)", id, len(data))
	return id, nil
}

// Fetch 返回已保存的图片。标识符在访问存储之前校验。
func (s *Service) Fetch(ctx context.Context, id string) ([]byte, error) {
	if err := storage.ValidateID(id); err != nil {
		return nil, err
	}
	return s.store.Load(ctx, id)
}

// ImageURL 返回图片的相对取回地址。
func ImageURL(id string) string { return ImagePath + id }
