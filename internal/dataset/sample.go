package dataset

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Sample 一条训练样本
// 至少包含 instruction/input/response 三个字段，其余字段原样透传
type Sample map[string]interface{}

// Instruction 获取指令字段
func (s Sample) Instruction() string {
	return s.stringField("instruction")
}

// Input 获取输入上下文字段
func (s Sample) Input() string {
	return s.stringField("input")
}

// Response 获取模型回复字段
func (s Sample) Response() string {
	return s.stringField("response")
}

func (s Sample) stringField(key string) string {
	v, ok := s[key]
	if !ok {
		return ""
	}
	str, ok := v.(string)
	if !ok {
		return ""
	}
	return str
}

// FeatureKind 特征值类型标签
type FeatureKind int

const (
	// FeatureNull 空值(JSON null)
	FeatureNull FeatureKind = iota
	// FeatureNumber 数值
	FeatureNumber
	// FeatureString 字符串
	FeatureString
)

// FeatureValue 带类型标签的特征值
// 数值比较在类型内完成，只在序列化边界转换为字符串
type FeatureValue struct {
	Kind FeatureKind
	Num  float64
	Str  string
}

// FeatureMap 从response文本中提取出的特征键值表
type FeatureMap map[string]FeatureValue

// newFeatureValue 从JSON解码出的原始值构造特征值
// null/数值/字符串之外的类型(布尔、嵌套对象等)退化为其JSON字符串形式
func newFeatureValue(raw interface{}) FeatureValue {
	switch v := raw.(type) {
	case nil:
		return FeatureValue{Kind: FeatureNull}
	case float64:
		return FeatureValue{Kind: FeatureNumber, Num: v}
	case string:
		return FeatureValue{Kind: FeatureString, Str: v}
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return FeatureValue{Kind: FeatureString, Str: ""}
		}
		return FeatureValue{Kind: FeatureString, Str: string(b)}
	}
}

// String 特征值的字符串形式，null归一化为"0"
func (v FeatureValue) String() string {
	switch v.Kind {
	case FeatureNull:
		return "0"
	case FeatureNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	default:
		return v.Str
	}
}

// NonZero 判断特征值是否非零
// 字符串按十进制整数解析，解析失败向上传播
func (v FeatureValue) NonZero() (bool, error) {
	switch v.Kind {
	case FeatureNull:
		return false, nil
	case FeatureNumber:
		return v.Num != 0, nil
	default:
		n, err := strconv.ParseInt(strings.TrimSpace(v.Str), 10, 64)
		if err != nil {
			return false, err
		}
		return n != 0, nil
	}
}
