package finetune

import (
	"fmt"

	"sft-go/internal/dataset"
)

// AlpacaTemplate 固定的指令微调文本模板
// 与训练侧的提示词格式保持一致，最后拼接EOS token防止推理时无限生成
const AlpacaTemplate = `Below is an instruction that describes a task, paired with an input that provides further context. Write a response that appropriately completes the request.

### Instruction:
%s

### Input:
%s

### Response:
%s`

// DefaultEOSToken Llama-3.1系列的文本结束token
const DefaultEOSToken = "<|end_of_text|>"

// TrainingRecord 训练服务消费的单条文本记录
type TrainingRecord struct {
	Text string `json:"text"`
}

// Formatter 样本到训练文本的格式化器
type Formatter struct {
	eosToken string
}

// NewFormatter 创建格式化器，eosToken为空时使用默认值
func NewFormatter(eosToken string) *Formatter {
	if eosToken == "" {
		eosToken = DefaultEOSToken
	}
	return &Formatter{eosToken: eosToken}
}

// Format 将instruction/input/response填入模板并追加EOS token
func (f *Formatter) Format(instruction, input, response string) string {
	return fmt.Sprintf(AlpacaTemplate, instruction, input, response) + f.eosToken
}

// FormatSample 格式化单条样本
func (f *Formatter) FormatSample(s dataset.Sample) string {
	return f.Format(s.Instruction(), s.Input(), s.Response())
}

// FormatDataset 将样本序列格式化为训练记录序列，保持输入顺序
func (f *Formatter) FormatDataset(samples []dataset.Sample) []TrainingRecord {
	records := make([]TrainingRecord, len(samples))
	for i, s := range samples {
		records[i] = TrainingRecord{Text: f.FormatSample(s)}
	}
	return records
}

// InferencePrompt 构造推理用的提示词(response留空)
func (f *Formatter) InferencePrompt(instruction, input string) string {
	return fmt.Sprintf(AlpacaTemplate, instruction, input, "")
}
