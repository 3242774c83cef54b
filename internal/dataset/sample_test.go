package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleFields(t *testing.T) {
	s := Sample{
		"instruction": "指令",
		"input":       "输入",
		"response":    "回复",
		"extra":       42.0,
	}

	assert.Equal(t, "指令", s.Instruction())
	assert.Equal(t, "输入", s.Input())
	assert.Equal(t, "回复", s.Response())

	// 缺失或非字符串字段返回空串
	assert.Equal(t, "", Sample{}.Response())
	assert.Equal(t, "", Sample{"response": 1.0}.Response())
}

func TestFeatureValueString(t *testing.T) {
	tests := []struct {
		name string
		raw  interface{}
		want string
	}{
		{"null归一化为0", nil, "0"},
		{"整数值", 5.0, "5"},
		{"负数", -2.0, "-2"},
		{"小数不带多余零", 1.5, "1.5"},
		{"字符串原样", "abc", "abc"},
		{"布尔退化为JSON形式", true, "true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, newFeatureValue(tt.raw).String())
		})
	}
}

func TestFeatureValueNonZero(t *testing.T) {
	tests := []struct {
		name    string
		raw     interface{}
		want    bool
		wantErr bool
	}{
		{"null视为零", nil, false, false},
		{"数值零", 0.0, false, false},
		{"非零数值", 3.0, true, false},
		{"负数非零", -1.0, true, false},
		{"字符串零", "0", false, false},
		{"字符串非零", "7", true, false},
		{"带空白的字符串", " 4 ", true, false},
		{"非整数字符串报错", "上涨", false, true},
		{"小数字符串报错", "1.5", false, true},
		{"空字符串报错", "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := newFeatureValue(tt.raw).NonZero()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
