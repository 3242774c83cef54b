package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFeatures(t *testing.T) {
	tests := []struct {
		name     string
		response string
		wantOK   bool
		want     map[string]string
	}{
		{
			name:     "纯JSON对象",
			response: `{"pe": 1, "pb": 0}`,
			wantOK:   true,
			want:     map[string]string{"pe": "1", "pb": "0"},
		},
		{
			name:     "对象前后有自由文本",
			response: "根据分析结果如下：{\"pe\": 1, \"pb\": \"0\"} 以上是全部特征。",
			wantOK:   true,
			want:     map[string]string{"pe": "1", "pb": "0"},
		},
		{
			name:     "取第一个完整对象而不是贪婪匹配",
			response: `第一段 {"a": 1} 第二段 {"b": 2}`,
			wantOK:   true,
			want:     map[string]string{"a": "1"},
		},
		{
			name:     "第一个候选非法时继续扫描后续候选",
			response: `{不是JSON} 然后 {"a": 3}`,
			wantOK:   true,
			want:     map[string]string{"a": "3"},
		},
		{
			name:     "字符串字面量内的大括号不影响配平",
			response: `{"note": "包含}和{的字符串", "a": 1}`,
			wantOK:   true,
			want:     map[string]string{"a": "1", "note": "包含}和{的字符串"},
		},
		{
			name:     "嵌套对象按最外层整体提取",
			response: `{"outer": {"inner": 1}, "a": 2}`,
			wantOK:   true,
			want:     map[string]string{"a": "2", "outer": `{"inner":1}`},
		},
		{
			name:     "没有大括号",
			response: "完全没有特征输出",
			wantOK:   false,
		},
		{
			name:     "大括号不闭合",
			response: `{"a": "not-json`,
			wantOK:   false,
		},
		{
			name:     "空字符串",
			response: "",
			wantOK:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			features, ok := ExtractFeatures(tt.response)
			if !tt.wantOK {
				assert.False(t, ok)
				return
			}

			require.True(t, ok)
			require.Len(t, features, len(tt.want))
			for k, want := range tt.want {
				v, exists := features[k]
				require.True(t, exists, "缺少特征 %q", k)
				assert.Equal(t, want, v.String())
			}
		})
	}
}

func TestScanBalanced(t *testing.T) {
	s := `pre {"a": {"b": "}"}} post`
	start := 4 // '{' 的字节偏移
	require.Equal(t, byte('{'), s[start])

	candidate, found := scanBalanced(s, start)
	require.True(t, found)
	assert.Equal(t, `{"a": {"b": "}"}}`, candidate)
}

func TestScanBalancedEscapedQuote(t *testing.T) {
	s := `{"a": "he said \"}\" ok"}`
	candidate, found := scanBalanced(s, 0)
	require.True(t, found)
	assert.Equal(t, s, candidate)
}
