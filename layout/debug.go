package layout

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

type debugDump struct {
	Frame  Frame   `json:"frame"`
	Result *Result `json:"result"`
}

// WriteDebugJSON 把正文区域与布局结果一起写成 JSON，便于排查换行与坐标。
// 目标目录不存在时会自动创建。
func WriteDebugJSON(res *Result, frame Frame, path string) error {
	if res == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	data, err := json.MarshalIndent(debugDump{Frame: frame, Result: res}, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化布局结果失败: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
