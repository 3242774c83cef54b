package dataset

import (
	"encoding/json"
	"strings"
)

// ExtractFeatures 从response文本中提取第一个结构完整的JSON对象作为特征表
// 使用括号深度扫描定位候选区域，避免贪婪匹配跨越多个JSON区域
// 找不到候选区域或候选区域不是合法JSON对象时返回ok=false，不作为错误传播
func ExtractFeatures(response string) (FeatureMap, bool) {
	offset := 0
	for {
		start := strings.IndexByte(response[offset:], '{')
		if start < 0 {
			return nil, false
		}
		start += offset

		candidate, found := scanBalanced(response, start)
		if found {
			var raw map[string]interface{}
			if err := json.Unmarshal([]byte(candidate), &raw); err == nil {
				features := make(FeatureMap, len(raw))
				for k, v := range raw {
					features[k] = newFeatureValue(v)
				}
				return features, true
			}
		}

		offset = start + 1
	}
}

// scanBalanced 从start处的'{'开始扫描，返回括号配平的最短区域
// 字符串字面量内的括号不计入深度
func scanBalanced(s string, start int) (string, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}

	return "", false
}
