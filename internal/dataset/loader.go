package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LoadDir 读取目录下全部*.json样本文件并按顺序拼接
// 文件按文件名排序，保证不同主机上迭代顺序一致
// 任意文件的顶层JSON解析失败都会向上传播，不跳过、不隔离
func LoadDir(dir string) ([]Sample, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("读取样本目录失败: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)

	return LoadFiles(paths)
}

// LoadFiles 按给定顺序读取样本文件列表并拼接为单个序列
func LoadFiles(paths []string) ([]Sample, error) {
	samples := make([]Sample, 0)
	for _, path := range paths {
		fileSamples, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		samples = append(samples, fileSamples...)
	}
	return samples, nil
}

// loadFile 读取单个样本文件(顶层为JSON数组)
func loadFile(path string) ([]Sample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取样本文件失败: %w", err)
	}

	var samples []Sample
	if err := json.Unmarshal(data, &samples); err != nil {
		return nil, fmt.Errorf("解析样本文件 %s 失败: %w", filepath.Base(path), err)
	}

	return samples, nil
}
