package finetune

import (
	"fmt"
)

// LoRAConfig LoRA适配器超参数
type LoRAConfig struct {
	R              int      `mapstructure:"r" json:"r"`
	Alpha          int      `mapstructure:"alpha" json:"alpha"`
	Dropout        float64  `mapstructure:"dropout" json:"dropout"`
	TargetModules  []string `mapstructure:"target_modules" json:"target_modules"`
	UseRSLoRA      bool     `mapstructure:"use_rslora" json:"use_rslora"`
	GradCheckpoint bool     `mapstructure:"gradient_checkpointing" json:"gradient_checkpointing"`
}

// TrainConfig 训练循环超参数，全部透传给外部训练服务
type TrainConfig struct {
	BatchSize     int     `mapstructure:"batch_size" json:"batch_size"`
	GradAccum     int     `mapstructure:"gradient_accumulation" json:"gradient_accumulation"`
	WarmupSteps   int     `mapstructure:"warmup_steps" json:"warmup_steps"`
	MaxSteps      int     `mapstructure:"max_steps" json:"max_steps"`
	LearningRate  float64 `mapstructure:"learning_rate" json:"learning_rate"`
	WeightDecay   float64 `mapstructure:"weight_decay" json:"weight_decay"`
	Optimizer     string  `mapstructure:"optimizer" json:"optimizer"`
	Scheduler     string  `mapstructure:"scheduler" json:"scheduler"`
	Seed          int     `mapstructure:"seed" json:"seed"`
	LoggingSteps  int     `mapstructure:"logging_steps" json:"logging_steps"`
}

// TuningConfig 一次微调任务的完整配置
// 量化、LoRA注入、tokenize和训练循环均由外部训练服务实现
type TuningConfig struct {
	BaseModel    string      `mapstructure:"base_model" json:"base_model"`
	MaxSeqLength int         `mapstructure:"max_seq_length" json:"max_seq_length"`
	LoadIn4Bit   bool        `mapstructure:"load_in_4bit" json:"load_in_4bit"`
	EOSToken     string      `mapstructure:"eos_token" json:"eos_token"`
	LoRA         LoRAConfig  `mapstructure:"lora" json:"lora"`
	Train        TrainConfig `mapstructure:"train" json:"train"`
	OutputDir    string      `mapstructure:"output_dir" json:"output_dir"`
	HubRepo      string      `mapstructure:"hub_repo" json:"hub_repo"`
}

// DefaultTuningConfig 返回默认微调配置
func DefaultTuningConfig() TuningConfig {
	return TuningConfig{
		BaseModel:    "unsloth/Meta-Llama-3.1-8B-bnb-4bit",
		MaxSeqLength: 2048,
		LoadIn4Bit:   true,
		EOSToken:     DefaultEOSToken,
		LoRA: LoRAConfig{
			R:       16,
			Alpha:   16,
			Dropout: 0,
			TargetModules: []string{
				"q_proj", "k_proj", "v_proj", "o_proj",
				"gate_proj", "up_proj", "down_proj",
			},
			UseRSLoRA:      false,
			GradCheckpoint: true,
		},
		Train: TrainConfig{
			BatchSize:    2,
			GradAccum:    4,
			WarmupSteps:  5,
			MaxSteps:     60,
			LearningRate: 2e-4,
			WeightDecay:  0.01,
			Optimizer:    "adamw_8bit",
			Scheduler:    "linear",
			Seed:         3407,
			LoggingSteps: 1,
		},
		OutputDir: "./outputs",
	}
}

// Validate 校验微调配置
func (c *TuningConfig) Validate() error {
	if c.BaseModel == "" {
		return fmt.Errorf("基础模型不能为空")
	}
	if c.MaxSeqLength <= 0 {
		return fmt.Errorf("无效的最大序列长度: %d", c.MaxSeqLength)
	}
	if c.LoRA.R <= 0 {
		return fmt.Errorf("无效的LoRA秩: %d", c.LoRA.R)
	}
	if c.Train.BatchSize <= 0 {
		return fmt.Errorf("无效的批大小: %d", c.Train.BatchSize)
	}
	if c.Train.LearningRate <= 0 {
		return fmt.Errorf("无效的学习率: %g", c.Train.LearningRate)
	}
	return nil
}
