package finetune

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTuningConfig(t *testing.T) {
	cfg := DefaultTuningConfig()

	assert.Equal(t, "unsloth/Meta-Llama-3.1-8B-bnb-4bit", cfg.BaseModel)
	assert.True(t, cfg.LoadIn4Bit)
	assert.Equal(t, 2048, cfg.MaxSeqLength)
	assert.Equal(t, 16, cfg.LoRA.R)
	assert.Equal(t, 16, cfg.LoRA.Alpha)
	assert.Len(t, cfg.LoRA.TargetModules, 7)
	assert.Equal(t, 2, cfg.Train.BatchSize)
	assert.Equal(t, 4, cfg.Train.GradAccum)
	assert.Equal(t, 60, cfg.Train.MaxSteps)
	assert.Equal(t, 2e-4, cfg.Train.LearningRate)
	assert.Equal(t, "adamw_8bit", cfg.Train.Optimizer)
	assert.Equal(t, 3407, cfg.Train.Seed)

	require.NoError(t, cfg.Validate())
}

func TestTuningConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*TuningConfig)
	}{
		{"基础模型为空", func(c *TuningConfig) { c.BaseModel = "" }},
		{"序列长度非法", func(c *TuningConfig) { c.MaxSeqLength = 0 }},
		{"LoRA秩非法", func(c *TuningConfig) { c.LoRA.R = -1 }},
		{"批大小非法", func(c *TuningConfig) { c.Train.BatchSize = 0 }},
		{"学习率非法", func(c *TuningConfig) { c.Train.LearningRate = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultTuningConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
