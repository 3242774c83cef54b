package main

import (
	"flag"
	"fmt"
	"os"

	"sft-go/internal/config"
	"sft-go/internal/dataset"

	"github.com/sirupsen/logrus"
)

func main() {
	configFile := flag.String("config", "./config/config.yaml", "配置文件路径")
	inputDir := flag.String("input", "", "样本文件目录(覆盖配置)")
	output := flag.String("output", "", "保留集输出路径(覆盖配置)")
	removed := flag.String("removed", "", "移除集输出路径，为空则不落盘")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	opts := dataset.MergeOptions{
		Sources:     flag.Args(),
		InputDir:    *inputDir,
		OutputPath:  *output,
		RemovedPath: *removed,
		Logger:      logger,
	}

	// 未显式指定时回落到配置文件
	if opts.InputDir == "" || opts.OutputPath == "" {
		cfg, err := config.LoadConfig(*configFile)
		if err != nil {
			logger.Fatalf("加载配置失败: %v", err)
		}
		if opts.InputDir == "" {
			opts.InputDir = cfg.Dataset.InputDir
		}
		if opts.OutputPath == "" {
			opts.OutputPath = cfg.Dataset.OutputFile
		}
		if opts.RemovedPath == "" {
			opts.RemovedPath = cfg.Dataset.RemovedFile
		}
	}

	result, err := dataset.Merge(opts)
	if err != nil {
		logger.Fatalf("合并失败: %v", err)
	}

	fmt.Printf("合并后的数据共有 %d 条\n", result.Total)
	fmt.Printf("已保存到 %s (保留 %d 条, 移除 %d 条)\n", result.OutputPath, result.Retained, result.Removed)
}
