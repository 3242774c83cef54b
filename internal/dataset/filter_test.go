package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleWithResponse(id float64, response string) Sample {
	return Sample{
		"instruction": "分析以下股票数据",
		"input":       "",
		"response":    response,
		"id":          id,
	}
}

func TestPartition(t *testing.T) {
	tests := []struct {
		name         string
		response     string
		wantRetained bool
	}{
		{
			name:         "存在非零数值特征时保留",
			response:     `{"a": 1, "b": 0}`,
			wantRetained: true,
		},
		{
			name:         "数值零、字符串零和null全零时移除",
			response:     `{"a": 0, "b": "0", "c": null}`,
			wantRetained: false,
		},
		{
			name:         "非零字符串特征保留",
			response:     `{"a": "0", "b": "-3"}`,
			wantRetained: true,
		},
		{
			name:         "带空白的字符串数字",
			response:     `{"a": " 2 "}`,
			wantRetained: true,
		},
		{
			name:         "没有JSON候选区域时移除",
			response:     "抱歉，无法给出结构化结果",
			wantRetained: false,
		},
		{
			name:         "候选区域非法JSON时移除而不是报错",
			response:     `{"a": "not-json`,
			wantRetained: false,
		},
		{
			name:         "空特征表移除",
			response:     `{}`,
			wantRetained: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			retained, removed, err := Partition([]Sample{sampleWithResponse(1, tt.response)})
			require.NoError(t, err)

			if tt.wantRetained {
				assert.Len(t, retained, 1)
				assert.Len(t, removed, 0)
			} else {
				assert.Len(t, retained, 0)
				assert.Len(t, removed, 1)
			}
		})
	}
}

func TestPartitionPreservesOrderAndCompleteness(t *testing.T) {
	samples := []Sample{
		sampleWithResponse(1, `{"a": 1}`),
		sampleWithResponse(2, `{"a": 0}`),
		sampleWithResponse(3, `{"a": 2}`),
		sampleWithResponse(4, "没有特征"),
		sampleWithResponse(5, `{"a": 3}`),
	}

	retained, removed, err := Partition(samples)
	require.NoError(t, err)

	// 两个结果不相交，并集等于输入
	assert.Equal(t, len(samples), len(retained)+len(removed))

	// 各自保持输入顺序
	retainedIDs := make([]float64, 0, len(retained))
	for _, s := range retained {
		retainedIDs = append(retainedIDs, s["id"].(float64))
	}
	assert.Equal(t, []float64{1, 3, 5}, retainedIDs)

	removedIDs := make([]float64, 0, len(removed))
	for _, s := range removed {
		removedIDs = append(removedIDs, s["id"].(float64))
	}
	assert.Equal(t, []float64{2, 4}, removedIDs)
}

func TestPartitionUnparsableFeatureIsFatal(t *testing.T) {
	samples := []Sample{
		sampleWithResponse(1, `{"a": 1}`),
		sampleWithResponse(2, `{"trend": "上涨"}`),
	}

	retained, removed, err := Partition(samples)
	require.Error(t, err)
	assert.Nil(t, retained)
	assert.Nil(t, removed)
	// 错误信息带样本位置和特征名
	assert.Contains(t, err.Error(), "样本 1")
	assert.Contains(t, err.Error(), "trend")
}

func TestPartitionEmptyInput(t *testing.T) {
	retained, removed, err := Partition(nil)
	require.NoError(t, err)
	assert.NotNil(t, retained)
	assert.Empty(t, retained)
	assert.Empty(t, removed)
}
