package utils

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
)

// ParseSamples 解析样本文件内容
// 支持JSON数组和JSONL两种格式，按内容自动识别
func ParseSamples(data []byte) ([]map[string]interface{}, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		return ParseJSONArray(data)
	}
	return ParseJSONL(data)
}

// ParseJSONArray 解析JSON数组格式
func ParseJSONArray(data []byte) ([]map[string]interface{}, error) {
	var results []map[string]interface{}
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("解析JSON数组失败: %w", err)
	}
	return results, nil
}

// ParseJSONL 解析JSONL格式
func ParseJSONL(data []byte) ([]map[string]interface{}, error) {
	lines := strings.Split(string(data), "\n")
	var results []map[string]interface{}

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var item map[string]interface{}
		if err := json.Unmarshal([]byte(line), &item); err != nil {
			return nil, fmt.Errorf("解析失败: %w", err)
		}
		results = append(results, item)
	}

	return results, nil
}

// ConvertCSVToSamples 将CSV内容转换为样本集合
// 第一行是列名，要求至少包含instruction/input/response三列
func ConvertCSVToSamples(csvContent []byte) ([]map[string]interface{}, error) {
	csvText := string(csvContent)
	if strings.HasPrefix(csvText, "\xEF\xBB\xBF") {
		csvText = strings.TrimPrefix(csvText, "\xEF\xBB\xBF")
	}

	reader := csv.NewReader(strings.NewReader(csvText))
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("解析CSV失败: %w", err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("CSV内容为空")
	}

	headers := records[0]
	required := map[string]bool{"instruction": false, "input": false, "response": false}
	for _, col := range headers {
		if _, ok := required[col]; ok {
			required[col] = true
		}
	}
	for col, found := range required {
		if !found {
			return nil, fmt.Errorf("CSV缺少必需列: %s", col)
		}
	}

	var results []map[string]interface{}
	for _, record := range records[1:] {
		if len(record) == 0 {
			continue
		}

		item := make(map[string]interface{})
		for j, value := range record {
			if j < len(headers) {
				item[headers[j]] = value
			}
		}
		results = append(results, item)
	}

	return results, nil
}

// ConvertToJSON 转换为2空格缩进的JSON数组
func ConvertToJSON(data []map[string]interface{}) ([]byte, error) {
	if data == nil {
		data = []map[string]interface{}{}
	}
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("序列化失败: %w", err)
	}
	return out, nil
}

// ConvertToJSONL 转换为JSONL格式
func ConvertToJSONL(data []map[string]interface{}) ([]byte, error) {
	var buf bytes.Buffer

	for _, item := range data {
		jsonData, err := json.Marshal(item)
		if err != nil {
			return nil, fmt.Errorf("序列化失败: %w", err)
		}
		buf.Write(jsonData)
		buf.WriteByte('\n')
	}

	return buf.Bytes(), nil
}

// DetectContentType 检测内容类型
func DetectContentType(data []byte) string {
	trimmed := strings.TrimSpace(string(data))

	if strings.HasPrefix(trimmed, "[") {
		return "application/json"
	}
	if strings.HasPrefix(trimmed, "{") {
		return "application/x-jsonlines"
	}

	// 检查是否为CSV
	lines := strings.Split(trimmed, "\n")
	if len(lines) > 1 && strings.Contains(lines[0], ",") {
		return "text/csv"
	}

	return "application/json"
}
