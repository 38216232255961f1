package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Disk 把图片保存在单个目录中。
type Disk struct {
	dir string
}

var _ Store = (*Disk)(nil)

// NewDisk 创建存储目录（已存在则直接使用）。
func NewDisk(dir string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("创建图片目录 %s 失败: %w", dir, err)
	}
	return &Disk{dir: dir}, nil
}

// Dir returns the storage directory.
func (d *Disk) Dir() string { return d.dir }

// Save 以新标识符写入文件。
func (d *Disk) Save(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := NewID()
	path := filepath.Join(d.dir, id)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("写入图片 %s 失败: %w", id, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("保存图片 %s 失败: %w", id, err)
	}
	tracer().Debugf("saved %s (%d bytes)", id, len(data))
	return id, nil
}

// Load 读取图片；标识符非法时不会触碰文件系统。
func (d *Disk) Load(ctx context.Context, id string) ([]byte, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(d.dir, id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("读取图片 %s 失败: %w", id, err)
	}
	return data, nil
}
