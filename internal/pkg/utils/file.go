// 文件处理工具包
package utils

import (
	"fmt"
	"io"
	"os"
)

// OpenInput 打开输入源，"-" 表示标准输入
// 返回的 ReadCloser 由调用方关闭
func OpenInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("文件不存在: %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开文件失败: %w", err)
	}
	return f, nil
}
