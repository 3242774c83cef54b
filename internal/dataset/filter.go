package dataset

import (
	"fmt"
)

// Partition 将样本序列划分为保留集与移除集
// 保留条件: 能提取到特征表，且至少有一个特征值非零
// 提取不到特征表(无候选区域或候选区域非法)的样本进入移除集
// 特征值无法解析为整数是致命错误，带样本位置和特征名向上传播
// 两个结果序列不相交，并集等于输入，各自保持输入顺序
func Partition(samples []Sample) (retained, removed []Sample, err error) {
	retained = make([]Sample, 0, len(samples))
	removed = make([]Sample, 0)

	for i, sample := range samples {
		features, ok := ExtractFeatures(sample.Response())
		if !ok {
			removed = append(removed, sample)
			continue
		}

		keep := false
		for name, value := range features {
			nonZero, err := value.NonZero()
			if err != nil {
				return nil, nil, fmt.Errorf("样本 %d 的特征 %q 无法解析为整数: %w", i, name, err)
			}
			if nonZero {
				keep = true
			}
		}

		if keep {
			retained = append(retained, sample)
		} else {
			removed = append(removed, sample)
		}
	}

	return retained, removed, nil
}
