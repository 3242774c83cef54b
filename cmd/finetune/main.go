package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"sft-go/internal/config"
	"sft-go/internal/dataset"
	"sft-go/internal/dto"
	"sft-go/internal/finetune"
	"sft-go/pkg/trainer_client"

	"github.com/sirupsen/logrus"
)

func main() {
	configFile := flag.String("config", "./config/config.yaml", "配置文件路径")
	dataFile := flag.String("data", "", "合并后的样本文件路径(覆盖配置)")
	baseModel := flag.String("model", "", "基础模型(覆盖配置)")
	maxSteps := flag.Int("max_steps", 0, "最大训练步数(覆盖默认值)")
	hubRepo := flag.String("hub_repo", "", "训练后上传的模型仓库")
	hubToken := flag.String("hub_token", os.Getenv("HF_TOKEN"), "模型仓库访问令牌")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		logger.Fatalf("加载配置失败: %v", err)
	}

	path := *dataFile
	if path == "" {
		path = cfg.Dataset.OutputFile
	}
	samples, err := dataset.ReadJSON(path)
	if err != nil {
		logger.Fatalf("读取样本文件失败: %v", err)
	}
	if len(samples) == 0 {
		logger.Fatal("样本文件为空")
	}

	tuning := finetune.DefaultTuningConfig()
	tuning.BaseModel = cfg.Trainer.DefaultBaseModel
	if *baseModel != "" {
		tuning.BaseModel = *baseModel
	}
	if *maxSteps > 0 {
		tuning.Train.MaxSteps = *maxSteps
	}
	tuning.HubRepo = *hubRepo
	if err := tuning.Validate(); err != nil {
		logger.Fatalf("微调配置无效: %v", err)
	}

	services := cfg.GetTrainerServices()
	if len(services) == 0 {
		logger.Fatal("未配置训练服务地址")
	}

	formatter := finetune.NewFormatter(tuning.EOSToken)
	records := formatter.FormatDataset(samples)
	logger.WithFields(logrus.Fields{
		"samples":    len(samples),
		"base_model": tuning.BaseModel,
		"max_steps":  tuning.Train.MaxSteps,
	}).Info("训练文本格式化完成")

	// Ctrl+C 时取消轮询
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client := trainer_client.NewTrainerClient(services[0], cfg.Trainer.DefaultAPIKey, cfg.Trainer.GetTimeout())

	jobID, err := client.StartJob(ctx, tuning, records)
	if err != nil {
		logger.Fatalf("提交训练任务失败: %v", err)
	}
	logger.WithField("job_id", jobID).Info("训练任务已提交")

	finalStatus, err := client.WaitJob(ctx, jobID, cfg.Trainer.GetPollInterval(), func(status *dto.JobStatus) {
		logger.WithFields(logrus.Fields{
			"step":  status.Step,
			"total": status.TotalSteps,
			"loss":  status.Loss,
		}).Info("训练进度")
	})
	if err != nil {
		logger.Fatalf("训练失败: %v", err)
	}
	logger.WithFields(logrus.Fields{
		"total_steps": finalStatus.TotalSteps,
		"final_loss":  finalStatus.Loss,
	}).Info("训练完成")

	// 用第一条样本做一次推理检查
	prompt := formatter.InferencePrompt(samples[0].Instruction(), samples[0].Input())
	completion, err := client.Completion(ctx, tuning.BaseModel, prompt, nil)
	if err != nil {
		logger.Warnf("推理检查失败: %v", err)
	} else if len(completion.Choices) > 0 {
		out, _ := json.Marshal(completion.Choices[0])
		fmt.Printf("推理检查输出: %s\n", out)
	}

	if err := client.SaveModel(ctx, jobID, tuning.OutputDir); err != nil {
		logger.Fatalf("保存模型失败: %v", err)
	}
	logger.WithField("output_dir", tuning.OutputDir).Info("模型已保存")

	if tuning.HubRepo != "" && *hubToken != "" {
		if err := client.PushToHub(ctx, jobID, tuning.HubRepo, *hubToken); err != nil {
			logger.Fatalf("上传模型失败: %v", err)
		}
		logger.WithField("hub_repo", tuning.HubRepo).Info("模型已上传")
	}
}
