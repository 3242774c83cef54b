package dataset

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// MergeOptions 合并过滤流水线选项
type MergeOptions struct {
	// InputDir 样本文件目录(按文件名排序读取)
	InputDir string
	// Sources 显式有序源文件列表，设置后优先于InputDir
	Sources []string
	// OutputPath 保留集输出文件路径
	OutputPath string
	// RemovedPath 移除集输出文件路径，为空则不落盘
	RemovedPath string
	// Logger 为nil时使用标准logger
	Logger *logrus.Logger
}

// MergeResult 合并过滤结果统计
type MergeResult struct {
	Total      int    `json:"total"`
	Retained   int    `json:"retained"`
	Removed    int    `json:"removed"`
	OutputPath string `json:"output_path"`
}

// Merge 执行 读取->提取->过滤->落盘 流水线
func Merge(opts MergeOptions) (*MergeResult, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	var samples []Sample
	var err error
	if len(opts.Sources) > 0 {
		samples, err = LoadFiles(opts.Sources)
	} else {
		samples, err = LoadDir(opts.InputDir)
	}
	if err != nil {
		return nil, err
	}

	logger.WithField("total", len(samples)).Info("样本读取完成")

	retained, removed, err := Partition(samples)
	if err != nil {
		return nil, fmt.Errorf("过滤样本失败: %w", err)
	}

	if err := WriteJSON(opts.OutputPath, retained); err != nil {
		return nil, err
	}

	if opts.RemovedPath != "" {
		if err := WriteJSON(opts.RemovedPath, removed); err != nil {
			return nil, err
		}
	}

	logger.WithFields(logrus.Fields{
		"total":    len(samples),
		"retained": len(retained),
		"removed":  len(removed),
		"output":   opts.OutputPath,
	}).Info("合并过滤完成")

	return &MergeResult{
		Total:      len(samples),
		Retained:   len(retained),
		Removed:    len(removed),
		OutputPath: opts.OutputPath,
	}, nil
}
