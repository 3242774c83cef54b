package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// MarshalSamples 将样本序列序列化为2空格缩进的JSON数组
func MarshalSamples(samples []Sample) ([]byte, error) {
	if samples == nil {
		samples = []Sample{}
	}
	data, err := json.MarshalIndent(samples, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("序列化样本失败: %w", err)
	}
	return data, nil
}

// WriteJSON 将样本序列写入单个JSON数组文件，直接覆盖已有文件
func WriteJSON(path string, samples []Sample) error {
	data, err := MarshalSamples(samples)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("创建输出目录失败: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("写入输出文件失败: %w", err)
	}
	return nil
}

// ReadJSON 读取JSON数组文件为样本序列
func ReadJSON(path string) ([]Sample, error) {
	return loadFile(path)
}
